package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"movrr/waitlist/pkg/config"
)

// Config contains configuration for New.
type Config struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	Level string

	// Format is the output format ("json" or "text").
	Format string

	// AddSource includes file and line number in logs.
	AddSource bool

	// RedactEmails masks email addresses and secrets in attributes.
	RedactEmails bool

	// Writer is the output writer. Defaults to os.Stderr.
	Writer io.Writer
}

// FromConfig converts the logging section of the application config.
func FromConfig(cfg config.LoggingConfig) Config {
	return Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		AddSource:    cfg.AddSource,
		RedactEmails: config.BoolValue(cfg.RedactEmails, config.DefaultLoggingRedactEmails),
	}
}

// New builds a logger and the level variable that controls it, so the level
// can be changed on configuration reload without rebuilding handlers.
func New(cfg Config) (*slog.Logger, *slog.LevelVar, error) {
	level := new(slog.LevelVar)
	if cfg.Level != "" {
		l, err := config.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, err
		}
		level.Set(l)
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}
	if cfg.RedactEmails {
		opts.ReplaceAttr = NewRedactor().ReplaceAttr
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, nil, fmt.Errorf("unknown log format: %s", cfg.Format)
	}

	return slog.New(&contextHandler{Handler: handler}), level, nil
}
