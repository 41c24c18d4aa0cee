package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"movrr/waitlist/pkg/cli"
	"movrr/waitlist/pkg/config"
	"movrr/waitlist/pkg/export"
	"movrr/waitlist/pkg/telemetry/metrics"
	"movrr/waitlist/pkg/waitlist"
)

// app holds the components every command needs.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	level    *slog.LevelVar
	store    waitlist.Store
	service  *waitlist.Service
	metrics  *metrics.Collector
	exporter *export.Exporter
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, level, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	store, err := openStore(cfg.Storage, logger)
	if err != nil {
		return nil, cli.NewCommandError("open storage", err)
	}

	collector := metrics.NewCollector(config.BoolValue(cfg.Telemetry.Metrics.Enabled, config.DefaultMetricsEnabled), nil)
	return &app{
		cfg:      cfg,
		logger:   logger,
		level:    level,
		store:    store,
		service:  waitlist.NewService(store, waitlist.NewLogNotifier(logger, ""), collector, logger),
		metrics:  collector,
		exporter: export.NewExporter(export.DefaultRegistry(cfg.Export.Style), logger, collector),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close storage", "error", err)
	}
}

func openStore(sc config.StorageConfig, logger *slog.Logger) (waitlist.Store, error) {
	if sc.Backend == "memory" {
		logger.Warn("using in-memory storage, signups are lost on exit")
		return waitlist.NewMemoryStore(), nil
	}

	if dir := filepath.Dir(sc.SQLite.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	return waitlist.NewSQLiteStore(&waitlist.SQLiteConfig{
		Path:         sc.SQLite.Path,
		Driver:       sc.SQLite.Driver,
		MaxOpenConns: sc.SQLite.MaxOpenConns,
		MaxIdleConns: sc.SQLite.MaxIdleConns,
		WALMode:      config.BoolValue(sc.SQLite.WALMode, true),
		BusyTimeout:  sc.SQLite.BusyTimeout,
	})
}

// exportFlags are shared by the export and batch commands.
type exportFlags struct {
	format    string
	fields    string
	start     string
	end       string
	noHeaders bool
	outputDir string
}

// options resolves the flags against the configured defaults. Invalid
// values are reported as config errors naming the flag.
func (f *exportFlags) options(cfg *config.Config) (export.Options, error) {
	name := f.format
	if name == "" {
		name = cfg.Export.DefaultFormat
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		return export.Options{}, cli.NewConfigError("--format", err.Error())
	}
	dr, err := export.ParseDateRange(f.start, f.end)
	if err != nil {
		return export.Options{}, cli.NewConfigError("--start/--end", err.Error())
	}

	var fields []string
	for _, s := range strings.Split(f.fields, ",") {
		if s = strings.TrimSpace(s); s != "" {
			fields = append(fields, s)
		}
	}
	return export.Options{
		Format:         format,
		IncludeHeaders: !f.noHeaders && config.BoolValue(cfg.Export.IncludeHeaders, config.DefaultExportIncludeHeaders),
		SelectedFields: fields,
		DateRange:      dr,
	}, nil
}

func (f *exportFlags) dir(cfg *config.Config) string {
	if f.outputDir != "" {
		return f.outputDir
	}
	return cfg.Export.OutputDir
}

func (f *exportFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.format, "format", "f", "", "csv, xlsx, pdf or json (default from config)")
	fs.StringVar(&f.fields, "fields", "", "comma-separated columns in output order")
	fs.StringVar(&f.start, "start", "", "earliest created_at, YYYY-MM-DD or RFC 3339")
	fs.StringVar(&f.end, "end", "", "latest created_at, YYYY-MM-DD (whole day) or RFC 3339")
	fs.BoolVar(&f.noHeaders, "no-headers", false, "omit the header row")
	fs.StringVarP(&f.outputDir, "output-dir", "o", "", "directory for produced files (default export.output_dir)")
}

// checkDatasets rejects names that are not in the catalog.
func checkDatasets(names []string) error {
	if len(names) == 0 {
		return cli.NewConfigError("--datasets", "at least one dataset is required")
	}
	known := waitlist.DatasetNames()
	for _, n := range names {
		if !slices.Contains(known, n) {
			return cli.NewConfigError("--dataset", fmt.Sprintf("unknown dataset %q (available: %s)", n, strings.Join(known, ", ")))
		}
	}
	return nil
}
