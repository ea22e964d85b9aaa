// Package logging configures the logrus logger used by the CLI and the
// training loop. Updaters never log.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var validLogFormats = map[string]bool{
	"text": true,
	"json": true,
}

// Config defines logging configuration.
type Config struct {
	Level  string `mapstructure:"level"`  // e.g. info, debug
	Format string `mapstructure:"format"` // text or json
}

// DefaultConfig logs text at info level.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "text"}
}

// Validate checks the level and format.
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.Level); err != nil {
		return errors.Wrapf(err, "invalid log level %q", c.Level)
	}
	if !validLogFormats[strings.ToLower(c.Format)] {
		return errors.Errorf("invalid log format %q: must be text or json", c.Format)
	}
	return nil
}

// New returns a logger writing to w according to cfg.
func New(w io.Writer, cfg Config) (*log.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := log.ParseLevel(cfg.Level)

	logger := log.New()
	logger.SetOutput(w)
	logger.SetLevel(level)
	if strings.ToLower(cfg.Format) == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

// Configure applies cfg to the standard logrus logger, writing to stdout.
func Configure(cfg Config) error {
	logger, err := New(os.Stdout, cfg)
	if err != nil {
		return err
	}
	log.SetOutput(logger.Out)
	log.SetLevel(logger.Level)
	log.SetFormatter(logger.Formatter)
	return nil
}

// NullLogger returns an entry that discards everything, for tests and
// library callers that do not want output.
func NullLogger() *log.Entry {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return log.NewEntry(logger)
}
