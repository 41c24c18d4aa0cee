package config

import (
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/robfig/cron/v3"

	"movrr/waitlist/pkg/export"
	"movrr/waitlist/pkg/export/schedule"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateExport(&cfg.Export)...)
	errs = append(errs, validateSchedules(cfg.Schedules)...)
	errs = append(errs, validateSecurity(&cfg.Security)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid address %q: %v", cfg.ListenAddress, err),
		})
	}

	timeouts := []struct {
		field string
		value int64
	}{
		{"server.read_timeout", int64(cfg.ReadTimeout)},
		{"server.write_timeout", int64(cfg.WriteTimeout)},
		{"server.idle_timeout", int64(cfg.IdleTimeout)},
		{"server.shutdown_timeout", int64(cfg.ShutdownTimeout)},
	}
	for _, t := range timeouts {
		if t.value < 0 {
			errs = append(errs, FieldError{Field: t.field, Message: "timeout must not be negative"})
		}
	}

	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_body_bytes",
			Message: "max body bytes must be non-negative",
		})
	}
	return errs
}

func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
		return nil
	case "sqlite":
	default:
		return []FieldError{{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend %q (must be sqlite or memory)", cfg.Backend),
		}}
	}

	if cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{Field: "storage.sqlite.path", Message: "path is required"})
	}
	if cfg.SQLite.Driver != "sqlite3" && cfg.SQLite.Driver != "sqlite" {
		errs = append(errs, FieldError{
			Field:   "storage.sqlite.driver",
			Message: fmt.Sprintf("invalid driver %q (must be sqlite3 or sqlite)", cfg.SQLite.Driver),
		})
	}
	if cfg.SQLite.MaxOpenConns < 0 {
		errs = append(errs, FieldError{Field: "storage.sqlite.max_open_conns", Message: "must be non-negative"})
	}
	if cfg.SQLite.MaxIdleConns < 0 {
		errs = append(errs, FieldError{Field: "storage.sqlite.max_idle_conns", Message: "must be non-negative"})
	}
	if cfg.SQLite.MaxOpenConns > 0 && cfg.SQLite.MaxIdleConns > cfg.SQLite.MaxOpenConns {
		errs = append(errs, FieldError{
			Field:   "storage.sqlite.max_idle_conns",
			Message: "max idle connections cannot exceed max open connections",
		})
	}
	if cfg.SQLite.BusyTimeout < 0 {
		errs = append(errs, FieldError{Field: "storage.sqlite.busy_timeout", Message: "must not be negative"})
	}
	return errs
}

func validateExport(cfg *ExportConfig) []FieldError {
	var errs []FieldError

	if cfg.OutputDir == "" {
		errs = append(errs, FieldError{Field: "export.output_dir", Message: "output directory is required"})
	}
	if _, err := export.ParseFormat(cfg.DefaultFormat); err != nil {
		errs = append(errs, FieldError{Field: "export.default_format", Message: err.Error()})
	}
	if err := cfg.Style.Validate(); err != nil {
		errs = append(errs, FieldError{Field: "export.style", Message: err.Error()})
	}
	if cfg.Batch.Retention < 0 {
		errs = append(errs, FieldError{Field: "export.batch.retention", Message: "retention must not be negative"})
	}
	if _, err := cron.ParseStandard(cfg.Batch.PruneSchedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "export.batch.prune_schedule",
			Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Batch.PruneSchedule, err),
		})
	}
	return errs
}

func validateSchedules(scheds []schedule.Schedule) []FieldError {
	var errs []FieldError
	seen := make(map[string]bool, len(scheds))

	for i := range scheds {
		s := &scheds[i]
		field := fmt.Sprintf("schedules[%d]", i)

		if err := s.Validate(); err != nil {
			errs = append(errs, FieldError{Field: field, Message: err.Error()})
		}
		key := strings.ToLower(strings.TrimSpace(s.Name))
		if key != "" && seen[key] {
			errs = append(errs, FieldError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate schedule name %q", s.Name),
			})
		}
		seen[key] = true
	}
	return errs
}

func validateSecurity(cfg *SecurityConfig) []FieldError {
	var errs []FieldError
	seen := make(map[string]bool, len(cfg.AdminKeys))

	for i, k := range cfg.AdminKeys {
		field := fmt.Sprintf("security.admin_keys[%d]", i)
		if k.Key == "" {
			errs = append(errs, FieldError{Field: field + ".key", Message: "key is required"})
			continue
		}
		if len(k.Key) < 16 {
			errs = append(errs, FieldError{Field: field + ".key", Message: "key must be at least 16 characters"})
		}
		if seen[k.Key] {
			errs = append(errs, FieldError{Field: field + ".key", Message: "duplicate key"})
		}
		seen[k.Key] = true
	}
	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	if _, err := ParseLevel(cfg.Logging.Level); err != nil {
		errs = append(errs, FieldError{Field: "telemetry.logging.level", Message: err.Error()})
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "text" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid format %q (must be json or text)", cfg.Logging.Format),
		})
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "path must start with /",
		})
	}
	return errs
}

// ParseLevel maps a configured level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return 0, fmt.Errorf("invalid level %q (must be debug, info, warn or error)", level)
	}
	return l, nil
}
