package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the settings shared by all clipstudio binaries. Values come from
// an optional YAML file, then environment variables (after .env is loaded).
type Config struct {
	DatabaseURL string `yaml:"database_url"`
	ListenAddr  string `yaml:"listen_addr"`

	ServiceAPIKey string `yaml:"service_api_key"`
	OwnerUserID   string `yaml:"video_owner_user_id"`

	OpenAIAPIKey string `yaml:"openai_api_key"`
	WhisperModel string `yaml:"whisper_model"`

	RabbitMQURL       string `yaml:"rabbitmq_url"`
	ClipExportQueue   string `yaml:"clip_export_queue"`
	ServiceBaseURL    string `yaml:"service_base_url"`
	TranscribeWorkers int    `yaml:"transcribe_workers"`

	Delivery DeliveryConfig `yaml:"delivery"`
	Sessions SessionConfig  `yaml:"sessions"`
	Log      LogConfig      `yaml:"log"`
}

type DeliveryConfig struct {
	// Origin is the CDN host and account path, e.g. "res.cloudinary.com/demo".
	Origin          string        `yaml:"origin"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
	PrefetchTimeout time.Duration `yaml:"prefetch_timeout"`
}

type SessionConfig struct {
	IdleTTL time.Duration `yaml:"idle_ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		ListenAddr:        ":8080",
		WhisperModel:      "whisper-1",
		ClipExportQueue:   "clip.export.cmd",
		ServiceBaseURL:    "http://localhost:8080",
		TranscribeWorkers: 2,
		Delivery: DeliveryConfig{
			FetchTimeout:    15 * time.Second,
			PrefetchTimeout: 10 * time.Second,
		},
		Sessions: SessionConfig{IdleTTL: 30 * time.Minute},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads .env (if present), the YAML file named by CLIPSTUDIO_CONFIG or
// ./clipstudio.yaml (if present) and environment overrides.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := Default()
	path := os.Getenv("CLIPSTUDIO_CONFIG")
	if path == "" {
		if _, err := os.Stat("clipstudio.yaml"); err == nil {
			path = "clipstudio.yaml"
		}
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	// DATABASE_URL wins; otherwise DATABASE_URL_<DB_ID> selects one of
	// several configured databases.
	str("DATABASE_URL", &c.DatabaseURL)
	if c.DatabaseURL == "" {
		dbID := "DEFAULT"
		str("DB_ID", &dbID)
		str("DATABASE_URL_"+strings.ToUpper(dbID), &c.DatabaseURL)
	}

	str("LISTEN_ADDR", &c.ListenAddr)
	str("SERVICE_API_KEY", &c.ServiceAPIKey)
	str("VIDEO_OWNER_USER_ID", &c.OwnerUserID)
	str("OPENAI_API_KEY", &c.OpenAIAPIKey)
	str("WHISPER_MODEL", &c.WhisperModel)
	str("RABBITMQ_URL", &c.RabbitMQURL)
	str("CLIP_EXPORT_QUEUE", &c.ClipExportQueue)
	str("SERVICE_BASE_URL", &c.ServiceBaseURL)
	str("DELIVERY_ORIGIN", &c.Delivery.Origin)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup("TRANSCRIBE_WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TRANSCRIBE_WORKERS: %w", err)
		}
		c.TranscribeWorkers = n
	}
	for key, dst := range map[string]*time.Duration{
		"PARTS_FETCH_TIMEOUT": &c.Delivery.FetchTimeout,
		"PREFETCH_TIMEOUT":    &c.Delivery.PrefetchTimeout,
		"SESSION_IDLE_TTL":    &c.Sessions.IdleTTL,
	} {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = d
		}
	}
	return nil
}

// Requirement names a setting a binary cannot run without.
type Requirement int

const (
	NeedDatabase Requirement = iota
	NeedAPIKey
	NeedOpenAI
	NeedRabbitMQ
	NeedDelivery
	NeedServiceURL
)

// Validate checks general consistency plus the settings listed in needs.
func (c *Config) Validate(needs ...Requirement) error {
	var errs []error
	for _, n := range needs {
		switch n {
		case NeedDatabase:
			if c.DatabaseURL == "" {
				errs = append(errs, errors.New("DATABASE_URL must be set"))
			}
		case NeedAPIKey:
			if c.ServiceAPIKey == "" {
				errs = append(errs, errors.New("SERVICE_API_KEY must be set"))
			}
		case NeedOpenAI:
			if c.OpenAIAPIKey == "" {
				errs = append(errs, errors.New("OPENAI_API_KEY must be set"))
			}
		case NeedRabbitMQ:
			if c.RabbitMQURL == "" {
				errs = append(errs, errors.New("RABBITMQ_URL must be set"))
			}
		case NeedDelivery:
			if c.Delivery.Origin == "" {
				errs = append(errs, errors.New("DELIVERY_ORIGIN must be set"))
			}
		case NeedServiceURL:
			if c.ServiceBaseURL == "" {
				errs = append(errs, errors.New("SERVICE_BASE_URL must be set"))
			}
		}
	}
	if c.TranscribeWorkers < 1 {
		errs = append(errs, fmt.Errorf("transcribe_workers must be at least 1, got %d", c.TranscribeWorkers))
	}
	if c.Sessions.IdleTTL <= 0 {
		errs = append(errs, errors.New("sessions.idle_ttl must be positive"))
	}
	return errors.Join(errs...)
}
