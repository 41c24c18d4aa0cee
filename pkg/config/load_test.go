package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"movrr/waitlist/pkg/export"
	"movrr/waitlist/pkg/export/schedule"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movrr.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "0.0.0.0:9090"
  read_timeout: "60s"

storage:
  backend: sqlite
  sqlite:
    path: ./test.db
    driver: sqlite

export:
  default_format: xlsx
  include_headers: false
  style:
    sheet:
      header_fill: "112233"

schedules:
  - name: weekly-report
    datasets: [waitlist_entries]
    kind: weekly
    day_of_week: 1
    time: "07:00"
    active: true

telemetry:
  logging:
    level: debug
    format: text
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("ListenAddress = %q, want %q", cfg.Server.ListenAddress, "0.0.0.0:9090")
	}
	if cfg.Server.ReadTimeout != 60*time.Second {
		t.Errorf("ReadTimeout = %v, want 60s", cfg.Server.ReadTimeout)
	}
	if cfg.Storage.SQLite.Driver != "sqlite" {
		t.Errorf("Driver = %q, want sqlite", cfg.Storage.SQLite.Driver)
	}
	if BoolValue(cfg.Export.IncludeHeaders, true) {
		t.Error("IncludeHeaders should be false")
	}
	if cfg.Export.Style.Sheet.HeaderFill != "112233" {
		t.Errorf("HeaderFill = %q, want 112233", cfg.Export.Style.Sheet.HeaderFill)
	}
	if cfg.Export.Style.Sheet.EvenFill != export.DefaultStyle().Sheet.EvenFill {
		t.Errorf("unset style fields should take defaults, got EvenFill %q", cfg.Export.Style.Sheet.EvenFill)
	}

	if len(cfg.Schedules) != 1 {
		t.Fatalf("got %d schedules, want 1", len(cfg.Schedules))
	}
	s := cfg.Schedules[0]
	if s.Format != export.FormatXLSX {
		t.Errorf("schedule format = %q, want default format xlsx", s.Format)
	}
	if s.Timezone != "UTC" || s.Kind != schedule.KindWeekly || !s.Active {
		t.Errorf("schedule = %+v", s)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown key",
			content: "server:\n  listen_adress: \":8080\"\n",
			wantErr: "listen_adress",
		},
		{
			name:    "bad yaml",
			content: "server: [",
			wantErr: "failed to parse",
		},
		{
			name:    "invalid format",
			content: "export:\n  default_format: docx\n",
			wantErr: "export.default_format",
		},
		{
			name:    "invalid schedule",
			content: "schedules:\n  - name: x\n    datasets: [a]\n    kind: hourly\n    time: \"07:00\"\n",
			wantErr: "schedules[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("LoadConfig() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
}

func TestLoadConfig_EmptyFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("ListenAddress = %q, want default", cfg.Server.ListenAddress)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  listen_address: \"127.0.0.1:8080\"\n")

	t.Setenv("MOVRR_SERVER_LISTEN_ADDRESS", "0.0.0.0:7000")
	t.Setenv("MOVRR_STORAGE_BACKEND", "memory")
	t.Setenv("MOVRR_EXPORT_INCLUDE_HEADERS", "false")
	t.Setenv("MOVRR_EXPORT_BATCH_RETENTION", "2h")
	t.Setenv("MOVRR_SECURITY_ADMIN_KEYS", "0123456789abcdef, fedcba9876543210")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:7000" {
		t.Errorf("ListenAddress = %q, want env value", cfg.Server.ListenAddress)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Backend = %q, want memory", cfg.Storage.Backend)
	}
	if *cfg.Export.IncludeHeaders {
		t.Error("IncludeHeaders should be overridden to false")
	}
	if cfg.Export.Batch.Retention != 2*time.Hour {
		t.Errorf("Retention = %v, want 2h", cfg.Export.Batch.Retention)
	}
	if len(cfg.Security.AdminKeys) != 2 || cfg.Security.AdminKeys[1].Key != "fedcba9876543210" {
		t.Errorf("AdminKeys = %+v", cfg.Security.AdminKeys)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidValue(t *testing.T) {
	t.Setenv("MOVRR_SERVER_READ_TIMEOUT", "soon")

	_, err := LoadConfigWithEnvOverrides("")
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if verr.Errors[0].Field != "MOVRR_SERVER_READ_TIMEOUT" {
		t.Errorf("Field = %q", verr.Errors[0].Field)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Server.ListenAddress = "0.0.0.0:8181"
	path := filepath.Join(t.TempDir(), "saved.yaml")

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.Server.ListenAddress != "0.0.0.0:8181" {
		t.Errorf("ListenAddress = %q after round trip", loaded.Server.ListenAddress)
	}
}

func TestScheduleDecls_InheritIncludeHeaders(t *testing.T) {
	const base = `
schedules:
  - name: daily-signups
    datasets: [waitlist_entries]
    kind: daily
    time: "08:00"
    active: true
  - name: daily-cities
    datasets: [city_breakdown]
    kind: daily
    time: "08:05"
    include_headers: false
    active: true
`
	tests := []struct {
		name        string
		export      string
		env         string
		wantDefault bool
	}{
		{name: "unset", wantDefault: true},
		{name: "export true", export: "export:\n  include_headers: true\n", wantDefault: true},
		{name: "export false", export: "export:\n  include_headers: false\n", wantDefault: false},
		{name: "env false", export: "export:\n  include_headers: true\n", env: "false", wantDefault: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv("MOVRR_EXPORT_INCLUDE_HEADERS", tt.env)
			}
			cfg, err := LoadConfigWithEnvOverrides(writeConfig(t, tt.export+base))
			if err != nil {
				t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
			}

			decls := cfg.ScheduleDecls()
			if len(decls) != 2 {
				t.Fatalf("got %d schedules, want 2", len(decls))
			}
			if got := decls[0].Options().IncludeHeaders; got != tt.wantDefault {
				t.Errorf("inherited IncludeHeaders = %v, want %v", got, tt.wantDefault)
			}
			if decls[1].Options().IncludeHeaders {
				t.Error("explicit include_headers: false must be kept")
			}
			if cfg.Schedules[0].IncludeHeaders != nil {
				t.Error("ScheduleDecls must not modify the loaded configuration")
			}
		})
	}
}
