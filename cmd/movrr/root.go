package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"movrr/waitlist/pkg/cli"
	"movrr/waitlist/pkg/config"
	"movrr/waitlist/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "movrr",
	Short: "Movrr waitlist service and export tool",
	Long: `Movrr runs the waitlist signup API and the admin exports behind the
launch dashboard.

Configuration is read from --config when given, otherwise from built-in
defaults. MOVRR_* environment variables override both.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a code derived from the
// returned error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
}

// loadConfig loads --config with environment overrides and stores it as the
// process-wide configuration.
func loadConfig() (*config.Config, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError(configSource(), err.Error())
	}
	return config.GetConfig(), nil
}

func configSource() string {
	if cfgFile == "" {
		return "defaults"
	}
	return cfgFile
}

// newLogger builds the logger described by cfg and installs it as the
// default. --verbose forces debug level.
func newLogger(cfg *config.Config) (*slog.Logger, *slog.LevelVar, error) {
	lc := logging.FromConfig(cfg.Telemetry.Logging)
	if verbose {
		lc.Level = "debug"
	}
	logger, level, err := logging.New(lc)
	if err != nil {
		return nil, nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)
	return logger, level, nil
}
