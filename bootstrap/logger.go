package bootstrap

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/resttree/config"
)

// NewLogger builds the process logger and applies its level globally.
func NewLogger(cfg config.LoggingConfig, w io.Writer) (zerolog.Logger, error) {
	if err := ApplyLogLevel(cfg.Level); err != nil {
		return zerolog.Nop(), err
	}

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger(), nil
	}
	return zerolog.New(w).With().Timestamp().Logger(), nil
}

// ApplyLogLevel sets the global log level. It is the one setting applied
// on config reload.
func ApplyLogLevel(level string) error {
	if level == "" {
		level = "info"
	}
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(l)
	return nil
}
