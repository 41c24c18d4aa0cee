package config

import "testing"

func TestApplyDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("ListenAddress = %q, want %q", cfg.Server.ListenAddress, DefaultListenAddress)
	}
	if cfg.Storage.Backend != DefaultStorageBackend || cfg.Storage.SQLite.Driver != DefaultSQLiteDriver {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if !BoolValue(cfg.Storage.SQLite.WALMode, false) {
		t.Error("WALMode should default to true")
	}
	if !BoolValue(cfg.Export.IncludeHeaders, false) {
		t.Error("IncludeHeaders should default to true")
	}
	if cfg.Export.Style.Sheet.SheetName == "" {
		t.Error("style defaults should be applied")
	}
	if cfg.Export.Batch.Retention != DefaultBatchRetention {
		t.Errorf("Retention = %v", cfg.Export.Batch.Retention)
	}
	if !BoolValue(cfg.Telemetry.Metrics.Enabled, false) {
		t.Error("metrics should default to enabled")
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.ListenAddress = "0.0.0.0:1"
	cfg.Export.IncludeHeaders = Bool(false)
	cfg.Telemetry.Logging.RedactEmails = Bool(false)

	ApplyDefaults(cfg)

	if cfg.Server.ListenAddress != "0.0.0.0:1" {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if *cfg.Export.IncludeHeaders || *cfg.Telemetry.Logging.RedactEmails {
		t.Error("explicit false flags must survive defaults")
	}
}

func TestAPIKeyConfig_IsEnabled(t *testing.T) {
	tests := []struct {
		enabled *bool
		want    bool
	}{
		{nil, true},
		{Bool(true), true},
		{Bool(false), false},
	}
	for _, tt := range tests {
		if got := (APIKeyConfig{Key: "k", Enabled: tt.enabled}).IsEnabled(); got != tt.want {
			t.Errorf("IsEnabled() = %v, want %v", got, tt.want)
		}
	}
}
