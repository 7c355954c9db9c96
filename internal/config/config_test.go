package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envLookup(env map[string]string) lookupFunc {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		check   func(t *testing.T, c *Config)
		wantErr bool
	}{
		{
			name: "database url direct",
			env:  map[string]string{"DATABASE_URL": "postgres://a", "DATABASE_URL_DEFAULT": "postgres://b"},
			check: func(t *testing.T, c *Config) {
				if c.DatabaseURL != "postgres://a" {
					t.Errorf("DatabaseURL = %q", c.DatabaseURL)
				}
			},
		},
		{
			name: "database url by identifier",
			env:  map[string]string{"DB_ID": "staging", "DATABASE_URL_STAGING": "postgres://staging"},
			check: func(t *testing.T, c *Config) {
				if c.DatabaseURL != "postgres://staging" {
					t.Errorf("DatabaseURL = %q", c.DatabaseURL)
				}
			},
		},
		{
			name: "durations and workers",
			env: map[string]string{
				"SESSION_IDLE_TTL":    "5m",
				"PARTS_FETCH_TIMEOUT": "3s",
				"TRANSCRIBE_WORKERS":  "4",
				"DELIVERY_ORIGIN":     "res.cloudinary.com/demo",
			},
			check: func(t *testing.T, c *Config) {
				if c.Sessions.IdleTTL != 5*time.Minute || c.Delivery.FetchTimeout != 3*time.Second {
					t.Errorf("durations = %v, %v", c.Sessions.IdleTTL, c.Delivery.FetchTimeout)
				}
				if c.TranscribeWorkers != 4 || c.Delivery.Origin != "res.cloudinary.com/demo" {
					t.Errorf("config = %+v", c)
				}
			},
		},
		{
			name:    "bad duration",
			env:     map[string]string{"SESSION_IDLE_TTL": "soon"},
			wantErr: true,
		},
		{
			name:    "bad workers",
			env:     map[string]string{"TRANSCRIBE_WORKERS": "many"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			err := c.applyEnv(envLookup(tt.env))
			if (err != nil) != tt.wantErr {
				t.Fatalf("applyEnv() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, c)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clipstudio.yaml")
	content := `
listen_addr: ":9090"
delivery:
  origin: res.cloudinary.com/demo
  fetch_timeout: 2s
sessions:
  idle_ttl: 1h
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	c := Default()
	if err := c.loadFile(path); err != nil {
		t.Fatalf("loadFile() error = %v", err)
	}
	if c.ListenAddr != ":9090" || c.Delivery.Origin != "res.cloudinary.com/demo" {
		t.Errorf("config = %+v", c)
	}
	if c.Delivery.FetchTimeout != 2*time.Second || c.Sessions.IdleTTL != time.Hour {
		t.Errorf("durations = %v, %v", c.Delivery.FetchTimeout, c.Sessions.IdleTTL)
	}
	if c.Delivery.PrefetchTimeout != 10*time.Second {
		t.Errorf("default prefetch timeout lost: %v", c.Delivery.PrefetchTimeout)
	}
	if c.Log.Level != "debug" || c.Log.Format != "text" {
		t.Errorf("log = %+v", c.Log)
	}
}

func TestValidate(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}

	err := c.Validate(NeedDatabase, NeedAPIKey, NeedDelivery)
	if err == nil {
		t.Fatal("Validate() accepted missing settings")
	}
	for _, want := range []string{"DATABASE_URL", "SERVICE_API_KEY", "DELIVERY_ORIGIN"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error %q does not mention %s", err, want)
		}
	}

	c.TranscribeWorkers = 0
	if err := c.Validate(); err == nil {
		t.Error("Validate() accepted zero workers")
	}
}
