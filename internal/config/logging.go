package config

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the application logger. Output goes to cfg.File when set
// and to console (human-readable) when console is non-nil; with neither the
// logger is disabled. The returned close func releases the log file.
//
// An unparsable level falls back to info.
func NewLogger(cfg LoggingConfig, console io.Writer) (zerolog.Logger, func() error, error) {
	noop := func() error { return nil }

	lvl, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		lvl = zerolog.InfoLevel
	}

	var writers []io.Writer
	if console != nil {
		writers = append(writers, zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339})
	}

	closeFn := noop
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return zerolog.Nop(), noop, err
		}
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return zerolog.Nop(), noop, err
		}
		writers = append(writers, f)
		closeFn = f.Close
	}

	if len(writers) == 0 {
		return zerolog.Nop(), noop, nil
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	return logger, closeFn, nil
}
