// Package schedule runs exports on a calendar.
//
// A Schedule names the datasets to export, the format, and when to run:
// once at a date and time, daily at HH:MM, weekly on a weekday, or monthly on
// a day of the month, all in an IANA time zone. The Scheduler drives the
// schedules with robfig/cron, writes each run's artifacts into a directory
// per schedule and keeps run counts and last/next run times.
//
//	s := schedule.NewScheduler(schedule.Config{
//	    Source:    service,
//	    Exporter:  exporter,
//	    OutputDir: "exports/scheduled",
//	})
//	if err := s.Start(ctx); err != nil {
//	    return err
//	}
//	defer s.Stop()
//
//	_, err := s.Add(schedule.Schedule{
//	    Name:      "weekly-report",
//	    Datasets:  []string{"waitlist_entries"},
//	    Format:    export.FormatXLSX,
//	    Kind:      schedule.KindWeekly,
//	    Time:      "09:00",
//	    DayOfWeek: 1,
//	    Timezone:  "Europe/Amsterdam",
//	    Active:    true,
//	})
package schedule
