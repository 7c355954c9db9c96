// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"jamesfarrell.me/clipstudio/internal/config"
)

// Setup applies cfg to the standard logrus logger and returns an entry
// tagged with the binary name.
func Setup(service string, cfg config.LogConfig) (*logrus.Entry, error) {
	logger := logrus.StandardLogger()
	logger.SetOutput(os.Stdout)

	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return logger.WithField("service", service), nil
}
