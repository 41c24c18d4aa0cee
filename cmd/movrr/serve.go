package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"movrr/waitlist/pkg/cli"
	"movrr/waitlist/pkg/config"
	"movrr/waitlist/pkg/export/jobs"
	"movrr/waitlist/pkg/export/schedule"
	"movrr/waitlist/pkg/server"
	"movrr/waitlist/pkg/telemetry/health"
)

var serveFlags struct {
	listenAddress string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the waitlist HTTP API",
	Long: `Start the waitlist HTTP API with the public signup endpoint, the admin
export API, the export scheduler and the batch job host.

With --config the file is watched: schedules, admin keys, export defaults and
the log level follow edits without a restart.

Examples:
  # Start with defaults (SQLite in data/, 127.0.0.1:8080)
  movrr serve

  # Start with a config file on all interfaces
  movrr serve --config /etc/movrr/movrr.yaml --listen 0.0.0.0:8080

  # Validate the configuration without starting
  movrr serve --config movrr.yaml --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func batchesDir(cfg *config.Config) string   { return filepath.Join(cfg.Export.OutputDir, "batches") }
func scheduledDir(cfg *config.Config) string { return filepath.Join(cfg.Export.OutputDir, "scheduled") }

func runServe(cmd *cobra.Command, args []string) error {
	if serveFlags.dryRun {
		if _, err := loadConfig(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	manager := jobs.NewManager(jobs.Config{
		Exporter:      a.exporter,
		Dir:           batchesDir(cfg),
		Retention:     cfg.Export.Batch.Retention,
		PruneSchedule: cfg.Export.Batch.PruneSchedule,
		Logger:        a.logger,
	})
	if err := manager.Start(ctx); err != nil {
		return cli.NewConfigError("export.batch.prune_schedule", err.Error())
	}
	defer manager.Close()

	scheduler := schedule.NewScheduler(schedule.Config{
		Source:    a.service,
		Exporter:  a.exporter,
		OutputDir: scheduledDir(cfg),
		Recorder:  a.metrics,
		Logger:    a.logger,
	})
	if err := scheduler.Sync(cfg.ScheduleDecls()); err != nil {
		return cli.NewConfigError("schedules", err.Error())
	}
	if err := scheduler.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer scheduler.Stop()

	checker := health.New(0)
	checker.Register("storage", health.PingCheck(a.store))
	checker.Register("export_dir", health.WritableDirCheck(cfg.Export.OutputDir))

	srv := server.New(cfg, server.Deps{
		Service:   a.service,
		Exporter:  a.exporter,
		Jobs:      manager,
		Scheduler: scheduler,
		Metrics:   a.metrics,
		Health:    checker,
		Logger:    a.logger,
		Build:     server.BuildInfo{Version: Version, Commit: GitCommit, BuildTime: BuildDate},
	})

	if cfgFile != "" {
		watcher, err := config.NewWatcher(cfgFile, config.DefaultDebounceInterval, a.logger)
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
		go func() {
			err := watcher.Watch(ctx, func(next *config.Config) {
				next.Server.ListenAddress = cfg.Server.ListenAddress
				if level, err := config.ParseLevel(next.Telemetry.Logging.Level); err == nil && !verbose {
					a.level.Set(level)
				}
				if err := scheduler.Sync(next.ScheduleDecls()); err != nil {
					a.logger.Error("failed to re-sync schedules", "error", err)
				}
				srv.Apply(next)
			})
			if err != nil {
				a.logger.Error("configuration watcher stopped", "error", err)
			}
		}()
	}

	if len(cfg.Security.AdminKeys) == 0 {
		a.logger.Warn("no admin keys configured, the admin API is disabled")
	}
	a.logger.Info("movrr starting",
		"version", Version,
		"listen_address", cfg.Server.ListenAddress,
		"storage", cfg.Storage.Backend,
		"output_dir", cfg.Export.OutputDir,
		"schedules", len(cfg.Schedules),
	)

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	return nil
}
