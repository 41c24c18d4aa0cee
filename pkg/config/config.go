package config

import (
	"time"

	"movrr/waitlist/pkg/export"
	"movrr/waitlist/pkg/export/schedule"
)

// Config is the root configuration structure for the Movrr waitlist service.
// It contains the HTTP server, signup storage, export, scheduled export,
// security and telemetry sections.
type Config struct {
	// Server contains HTTP server configuration including listen address
	// and timeouts.
	Server ServerConfig `yaml:"server"`

	// Storage selects and configures the waitlist store.
	Storage StorageConfig `yaml:"storage"`

	// Export contains defaults for on-demand and batch exports.
	Export ExportConfig `yaml:"export"`

	// Schedules declares recurring exports. Declared schedules are
	// re-synced into the scheduler on every reload.
	Schedules []schedule.Schedule `yaml:"schedules"`

	// Security contains admin authentication settings.
	Security SecurityConfig `yaml:"security"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Large exports are written within this window.
	// Default: 120s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes caps JSON request bodies.
	// Default: 1048576 (1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// StorageConfig selects the waitlist store.
type StorageConfig struct {
	// Backend is "sqlite" or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite configures the SQLite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/waitlist.db"
	Path string `yaml:"path"`

	// Driver is "sqlite3" (cgo) or "sqlite" (pure Go).
	// Default: "sqlite3"
	Driver string `yaml:"driver"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging.
	// Default: true
	WALMode *bool `yaml:"wal_mode"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// ExportConfig contains export defaults.
type ExportConfig struct {
	// OutputDir receives batch and scheduled export files.
	// Default: "data/exports"
	OutputDir string `yaml:"output_dir"`

	// DefaultFormat is used when a request names no format.
	// Default: "csv"
	DefaultFormat string `yaml:"default_format"`

	// IncludeHeaders is the default for the header row.
	// Default: true
	IncludeHeaders *bool `yaml:"include_headers"`

	// Style controls spreadsheet and document presentation.
	Style export.Style `yaml:"style"`

	// Batch configures hosted batch jobs.
	Batch BatchConfig `yaml:"batch"`
}

// BatchConfig configures hosted batch jobs.
type BatchConfig struct {
	// Retention is how long finished jobs and their files are kept.
	// Default: 24h
	Retention time.Duration `yaml:"retention"`

	// PruneSchedule is the cron expression of the cleanup pass.
	// Default: "@every 10m"
	PruneSchedule string `yaml:"prune_schedule"`
}

// SecurityConfig contains admin authentication configuration.
type SecurityConfig struct {
	// AdminKeys lists the API keys accepted on admin routes. The admin API
	// is disabled when no enabled key is configured.
	AdminKeys []APIKeyConfig `yaml:"admin_keys"`
}

// APIKeyConfig contains configuration for a single admin API key.
type APIKeyConfig struct {
	// Key is the API key value.
	Key string `yaml:"key"`

	// Name identifies the key holder in logs.
	Name string `yaml:"name"`

	// Enabled controls whether this key is accepted.
	// Default: true
	Enabled *bool `yaml:"enabled"`
}

// IsEnabled reports whether the key is accepted. Keys are enabled unless
// explicitly disabled.
func (k APIKeyConfig) IsEnabled() bool {
	return k.Enabled == nil || *k.Enabled
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains log output configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	AddSource bool `yaml:"add_source"`

	// RedactEmails masks email addresses in log attributes.
	// Default: true
	RedactEmails *bool `yaml:"redact_emails"`
}

// MetricsConfig contains metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and served.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the HTTP path of the Prometheus endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`
}

// ScheduleDecls returns the declared schedules ready for the scheduler. A
// schedule without include_headers inherits export.include_headers.
func (c *Config) ScheduleDecls() []schedule.Schedule {
	headers := BoolValue(c.Export.IncludeHeaders, DefaultExportIncludeHeaders)
	decls := make([]schedule.Schedule, len(c.Schedules))
	for i, s := range c.Schedules {
		if s.IncludeHeaders == nil {
			s.IncludeHeaders = Bool(headers)
		}
		decls[i] = s
	}
	return decls
}

// BoolValue dereferences an optional flag, treating nil as the default.
func BoolValue(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }
