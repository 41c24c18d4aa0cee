package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"movrr/waitlist/pkg/cli"
	"movrr/waitlist/pkg/config"
	"movrr/waitlist/pkg/export"
	"movrr/waitlist/pkg/export/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage scheduled exports declared in the config file",
	Long: `Manage the scheduled exports declared under "schedules:" in the
configuration file. A running server picks up changes to the file
automatically.`,
}

var scheduleListFlags struct {
	output string
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List declared schedules",
	RunE:  runScheduleList,
}

var scheduleAddFlags struct {
	schedule.Schedule
	format    string
	kind      string
	noHeaders bool
	paused    bool
}

var scheduleAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Declare a new schedule in the config file",
	Long: `Declare a new schedule in the config file.

Examples:
  # Every day at 06:00 Berlin time
  movrr schedule add daily-signups --kind daily --time 06:00 --timezone Europe/Berlin

  # Mondays at 08:30, city breakdown as PDF
  movrr schedule add weekly-cities --kind weekly --day-of-week 1 --time 08:30 \
    --datasets city_breakdown --format pdf

  # Once, on launch day
  movrr schedule add launch --kind once --date 2025-06-01 --time 09:00`,
	Args: cobra.ExactArgs(1),
	RunE: runScheduleAdd,
}

var scheduleRunCmd = &cobra.Command{
	Use:   "run NAME",
	Short: "Run a declared schedule now",
	Args:  cobra.ExactArgs(1),
	RunE:  runScheduleRun,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.AddCommand(scheduleListCmd, scheduleAddCmd, scheduleRunCmd)

	scheduleListCmd.Flags().StringVar(&scheduleListFlags.output, "output", "text", "text, json or csv")

	f := scheduleAddCmd.Flags()
	s := &scheduleAddFlags
	f.StringSliceVar(&s.Datasets, "datasets", []string{"waitlist_entries"}, "datasets to export")
	f.StringVarP(&s.format, "format", "f", "", "csv, xlsx, pdf or json (default from config)")
	f.StringSliceVar(&s.Fields, "fields", nil, "columns in output order")
	f.BoolVar(&s.noHeaders, "no-headers", false, "omit the header row")
	f.StringVar(&s.kind, "kind", string(schedule.KindDaily), "once, daily, weekly or monthly")
	f.StringVar(&s.Time, "time", "", "time of day, HH:MM")
	f.StringVar(&s.Date, "date", "", "date of a once schedule, YYYY-MM-DD")
	f.IntVar(&s.DayOfWeek, "day-of-week", 0, "weekday of a weekly schedule, 0 = Sunday")
	f.IntVar(&s.DayOfMonth, "day-of-month", 0, "day of a monthly schedule, 1-31")
	f.StringVar(&s.Timezone, "timezone", "UTC", "IANA time zone of --time")
	f.StringVar(&s.Description, "description", "", "free text shown in listings")
	f.BoolVar(&s.paused, "paused", false, "declare the schedule inactive")
	_ = scheduleAddCmd.MarkFlagRequired("time")
}

// scheduleTable lists schedules one per row.
type scheduleTable []schedule.Schedule

func (t scheduleTable) Header() []string {
	return []string{"NAME", "WHEN", "DATASETS", "FORMAT", "ACTIVE"}
}

func (t scheduleTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, s := range t {
		rows = append(rows, []string{
			s.Name,
			describeWhen(s),
			strings.Join(s.Datasets, ","),
			string(s.Format),
			fmt.Sprint(s.Active),
		})
	}
	return rows
}

var weekdays = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func describeWhen(s schedule.Schedule) string {
	at := s.Time + " " + s.Timezone
	switch s.Kind {
	case schedule.KindOnce:
		return s.Date + " " + at
	case schedule.KindWeekly:
		if s.DayOfWeek >= 0 && s.DayOfWeek < len(weekdays) {
			return "weekly " + weekdays[s.DayOfWeek] + " " + at
		}
	case schedule.KindMonthly:
		return fmt.Sprintf("monthly day %d %s", s.DayOfMonth, at)
	case schedule.KindDaily:
		return "daily " + at
	}
	return string(s.Kind) + " " + at
}

func runScheduleList(cmd *cobra.Command, args []string) error {
	output, err := cli.ParseOutputFormat(scheduleListFlags.output)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if output == cli.FormatJSON {
		return cli.NewFormatter(output).FormatTo(cmd.OutOrStdout(), cfg.Schedules)
	}
	return cli.NewFormatter(output).FormatTo(cmd.OutOrStdout(), scheduleTable(cfg.Schedules))
}

// runScheduleAdd edits the file itself, without environment overrides, so
// secrets supplied through the environment are never written to disk.
func runScheduleAdd(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return cli.NewConfigError("--config", "schedule add needs a config file to write to")
	}
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}

	s := scheduleAddFlags.Schedule
	s.Name = args[0]
	s.Kind = schedule.Kind(scheduleAddFlags.kind)
	if scheduleAddFlags.noHeaders {
		s.IncludeHeaders = config.Bool(false)
	}
	s.Active = !scheduleAddFlags.paused
	s.Format = export.Format(cfg.Export.DefaultFormat)
	if scheduleAddFlags.format != "" {
		format, err := export.ParseFormat(scheduleAddFlags.format)
		if err != nil {
			return cli.NewConfigError("--format", err.Error())
		}
		s.Format = format
	}
	if err := checkDatasets(s.Datasets); err != nil {
		return err
	}

	cfg.Schedules = append(cfg.Schedules, s)
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("schedule "+s.Name, err.Error())
	}
	if err := config.Save(cfg, cfgFile); err != nil {
		return cli.NewCommandError("schedule add", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Added schedule %s (%s) to %s\n", s.Name, describeWhen(s), cfgFile)
	return nil
}

// runScheduleRun executes a declared schedule once in this process, whether
// or not it is active.
func runScheduleRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sched := schedule.NewScheduler(schedule.Config{
		Source:    a.service,
		Exporter:  a.exporter,
		OutputDir: scheduledDir(a.cfg),
		Logger:    a.logger,
	})
	if err := sched.Sync(a.cfg.ScheduleDecls()); err != nil {
		return cli.NewConfigError("schedules", err.Error())
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	res, err := sched.RunNow(ctx, schedule.ConfigID(args[0]))
	if err != nil {
		return cli.NewCommandError("schedule run "+args[0], err)
	}

	out := cmd.OutOrStdout()
	for _, f := range res.LastFiles {
		fmt.Fprintf(out, "✓ %s\n", f)
	}
	switch {
	case res.LastError != "" && len(res.LastFiles) == 0:
		return cli.NewCommandError("schedule run "+args[0], errors.New(res.LastError))
	case res.LastError != "":
		return fmt.Errorf("%s: %w", res.LastError, cli.ErrPartial)
	}
	return nil
}
