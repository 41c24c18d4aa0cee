package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"movrr/waitlist/pkg/export"
)

// Kind is the recurrence of a schedule.
type Kind string

const (
	KindOnce    Kind = "once"
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
)

var (
	// ErrNotFound is returned for unknown schedule IDs.
	ErrNotFound = errors.New("schedule not found")

	// ErrAlreadyRunning is returned by RunNow while a run is in progress.
	ErrAlreadyRunning = errors.New("schedule is already running")

	// ErrInvalid is wrapped by every validation failure.
	ErrInvalid = errors.New("invalid schedule")
)

// Schedule is a recurring or one-off export.
type Schedule struct {
	ID          string `json:"id" yaml:"id,omitempty"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// What to export.
	Datasets       []string      `json:"datasets" yaml:"datasets"`
	Format         export.Format `json:"format" yaml:"format"`
	IncludeHeaders *bool         `json:"include_headers,omitempty" yaml:"include_headers,omitempty"`
	Fields         []string      `json:"fields,omitempty" yaml:"fields,omitempty"`

	// When to run. Time is "HH:MM" in Timezone. Date ("YYYY-MM-DD") applies
	// to KindOnce, DayOfWeek (0 = Sunday) to KindWeekly and DayOfMonth to
	// KindMonthly. Months without DayOfMonth are skipped.
	Kind       Kind   `json:"kind" yaml:"kind"`
	Time       string `json:"time" yaml:"time"`
	Date       string `json:"date,omitempty" yaml:"date,omitempty"`
	DayOfWeek  int    `json:"day_of_week,omitempty" yaml:"day_of_week,omitempty"`
	DayOfMonth int    `json:"day_of_month,omitempty" yaml:"day_of_month,omitempty"`
	Timezone   string `json:"timezone" yaml:"timezone"`

	Active bool `json:"active" yaml:"active"`

	// FromConfig marks schedules declared in the configuration file; they
	// are replaced on reload.
	FromConfig bool `json:"from_config" yaml:"-"`

	// Run bookkeeping.
	CreatedAt time.Time  `json:"created_at" yaml:"-"`
	LastRun   *time.Time `json:"last_run,omitempty" yaml:"-"`
	NextRun   *time.Time `json:"next_run,omitempty" yaml:"-"`
	RunCount  int        `json:"run_count" yaml:"-"`
	LastError string     `json:"last_error,omitempty" yaml:"-"`
	LastFiles []string   `json:"last_files,omitempty" yaml:"-"`
}

// ConfigID derives a stable ID for a schedule declared under name in the
// configuration file.
func ConfigID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("movrr:schedule:"+name)).String()
}

// Location returns the schedule's time zone, UTC when unset.
func (s *Schedule) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}

// Options returns the export options of a run. An unset IncludeHeaders
// emits the header row.
func (s *Schedule) Options() export.Options {
	headers := true
	if s.IncludeHeaders != nil {
		headers = *s.IncludeHeaders
	}
	return export.Options{
		Format:         s.Format,
		IncludeHeaders: headers,
		SelectedFields: s.Fields,
	}
}

// Validate checks every field needed to run the schedule.
func (s *Schedule) Validate() error {
	var errs []error
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if len(s.Datasets) == 0 {
		errs = append(errs, errors.New("at least one dataset is required"))
	}
	if !s.Format.Valid() {
		errs = append(errs, export.NewUnsupportedFormatError(string(s.Format)))
	}
	if _, err := s.Location(); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", s.Timezone, err))
	}
	if _, _, err := parseClock(s.Time); err != nil {
		errs = append(errs, err)
	}

	switch s.Kind {
	case KindDaily:
	case KindOnce:
		if _, err := time.Parse(time.DateOnly, s.Date); err != nil {
			errs = append(errs, fmt.Errorf("date %q: want YYYY-MM-DD", s.Date))
		}
	case KindWeekly:
		if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
			errs = append(errs, fmt.Errorf("day_of_week %d: want 0-6", s.DayOfWeek))
		}
	case KindMonthly:
		if s.DayOfMonth < 1 || s.DayOfMonth > 31 {
			errs = append(errs, fmt.Errorf("day_of_month %d: want 1-31", s.DayOfMonth))
		}
	default:
		errs = append(errs, fmt.Errorf("kind %q: want once, daily, weekly or monthly", s.Kind))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalid, s.Name, err)
	}
	return nil
}

// CronSpec returns the cron expression of a recurring schedule, or
// "@once <time>" for a one-off.
func (s *Schedule) CronSpec() (string, error) {
	hour, minute, err := parseClock(s.Time)
	if err != nil {
		return "", err
	}
	tz := s.Timezone
	if tz == "" {
		tz = "UTC"
	}

	switch s.Kind {
	case KindDaily:
		return fmt.Sprintf("CRON_TZ=%s %d %d * * *", tz, minute, hour), nil
	case KindWeekly:
		return fmt.Sprintf("CRON_TZ=%s %d %d * * %d", tz, minute, hour, s.DayOfWeek), nil
	case KindMonthly:
		return fmt.Sprintf("CRON_TZ=%s %d %d %d * *", tz, minute, hour, s.DayOfMonth), nil
	case KindOnce:
		at, err := s.onceAt()
		if err != nil {
			return "", err
		}
		return "@once " + at.Format(time.RFC3339), nil
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrInvalid, s.Kind)
}

// CronSchedule returns the cron.Schedule that drives s.
func (s *Schedule) CronSchedule() (cron.Schedule, error) {
	if s.Kind == KindOnce {
		at, err := s.onceAt()
		if err != nil {
			return nil, err
		}
		return onceSchedule{at: at}, nil
	}
	spec, err := s.CronSpec()
	if err != nil {
		return nil, err
	}
	return cron.ParseStandard(spec)
}

func (s *Schedule) onceAt() (time.Time, error) {
	loc, err := s.Location()
	if err != nil {
		return time.Time{}, err
	}
	at, err := time.ParseInLocation("2006-01-02 15:04", s.Date+" "+s.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date/time %q %q", ErrInvalid, s.Date, s.Time)
	}
	return at, nil
}

// onceSchedule fires a single time. A zero Next tells cron never to run
// the entry again.
type onceSchedule struct {
	at time.Time
}

func (o onceSchedule) Next(t time.Time) time.Time {
	if t.Before(o.at) {
		return o.at
	}
	return time.Time{}
}

// parseClock parses "HH:MM".
func parseClock(s string) (hour, minute int, err error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok || len(h) == 0 || len(h) > 2 || len(m) != 2 {
		return 0, 0, fmt.Errorf("time %q: want HH:MM", s)
	}
	hour, errH := strconv.Atoi(h)
	minute, errM := strconv.Atoi(m)
	if errH != nil || errM != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time %q: want HH:MM", s)
	}
	return hour, minute, nil
}
