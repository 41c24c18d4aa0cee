package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"movrr/waitlist/pkg/export"
)

// DataSource resolves dataset names into records.
type DataSource interface {
	Datasets(ctx context.Context, names []string) ([]export.Dataset, error)
}

// RunRecorder counts schedule runs by outcome.
type RunRecorder interface {
	RecordScheduleRun(status string)
}

// Run outcomes passed to a RunRecorder.
const (
	RunSucceeded = "success"
	RunPartial   = "partial"
	RunFailed    = "error"
)

// Config configures a Scheduler.
type Config struct {
	Source    DataSource
	Exporter  *export.Exporter
	OutputDir string
	Recorder  RunRecorder
	Logger    *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

type entry struct {
	sched   Schedule
	timing  cron.Schedule
	cronID  cron.EntryID
	running sync.Mutex
}

// Scheduler runs schedules with robfig/cron.
type Scheduler struct {
	cfg     Config
	cron    *cron.Cron
	mu      sync.Mutex
	entries map[string]*entry
	logger  *slog.Logger
	running bool
	baseCtx context.Context
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(cfg Config) *Scheduler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "export.scheduler")

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	return &Scheduler{
		cfg: cfg,
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger)),
		),
		entries: make(map[string]*entry),
		logger:  logger,
		baseCtx: context.Background(),
	}
}

// Start begins firing active schedules. Runs use ctx; when it ends the
// scheduler stops.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	s.baseCtx = ctx
	s.cron.Start()
	s.running = true

	s.logger.Info("export scheduler started", "schedules", len(s.entries))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop stops the scheduler and waits for any running exports to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("export scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Add validates and registers sched. An empty ID is assigned.
func (s *Scheduler) Add(sched Schedule) (Schedule, error) {
	if err := sched.Validate(); err != nil {
		return Schedule{}, err
	}
	timing, err := sched.CronSchedule()
	if err != nil {
		return Schedule{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sched.ID == "" {
		sched.ID = uuid.NewString()
	}
	if _, ok := s.entries[sched.ID]; ok {
		return Schedule{}, fmt.Errorf("%w: duplicate id %s", ErrInvalid, sched.ID)
	}
	if sched.CreatedAt.IsZero() {
		sched.CreatedAt = s.cfg.Now()
	}

	e := &entry{sched: sched, timing: timing}
	s.entries[sched.ID] = e
	s.activate(e)

	s.logger.Info("schedule added",
		"schedule_id", sched.ID,
		"name", sched.Name,
		"kind", string(sched.Kind),
		"active", sched.Active,
	)
	return e.snapshot(), nil
}

// Remove unregisters the schedule with id.
func (s *Scheduler) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return ErrNotFound
	}
	s.deactivate(e)
	delete(s.entries, id)
	s.logger.Info("schedule removed", "schedule_id", id, "name", e.sched.Name)
	return nil
}

// SetActive pauses or resumes a schedule.
func (s *Scheduler) SetActive(id string, active bool) (Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return Schedule{}, ErrNotFound
	}
	if active {
		e.sched.Active = true
		s.activate(e)
	} else {
		s.deactivate(e)
		e.sched.Active = false
	}
	s.logger.Info("schedule toggled", "schedule_id", id, "active", active)
	return e.snapshot(), nil
}

// Get returns a copy of the schedule with id.
func (s *Scheduler) Get(id string) (Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return Schedule{}, ErrNotFound
	}
	return e.snapshot(), nil
}

// List returns copies of every schedule, oldest first.
func (s *Scheduler) List() []Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Schedule, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Sync replaces the configuration-declared schedules with decls, keeping
// the run history of schedules that survive. Schedules created at runtime
// are untouched.
func (s *Scheduler) Sync(decls []Schedule) error {
	var errs []error
	keep := make(map[string]bool, len(decls))

	for _, d := range decls {
		d.FromConfig = true
		if d.ID == "" {
			d.ID = ConfigID(d.Name)
		}
		keep[d.ID] = true

		if prev, err := s.Get(d.ID); err == nil {
			d.CreatedAt = prev.CreatedAt
			d.LastRun = prev.LastRun
			d.RunCount = prev.RunCount
			d.LastError = prev.LastError
			d.LastFiles = prev.LastFiles
			if err := s.Remove(d.ID); err != nil {
				errs = append(errs, err)
				continue
			}
		}
		if _, err := s.Add(d); err != nil {
			errs = append(errs, err)
		}
	}

	for _, sched := range s.List() {
		if sched.FromConfig && !keep[sched.ID] {
			if err := s.Remove(sched.ID); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RunNow runs the schedule immediately, regardless of its active state.
func (s *Scheduler) RunNow(ctx context.Context, id string) (Schedule, error) {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return Schedule{}, ErrNotFound
	}

	if !e.running.TryLock() {
		return Schedule{}, ErrAlreadyRunning
	}
	defer e.running.Unlock()

	s.execute(ctx, e)
	return s.Get(id)
}

// activate registers e with cron if it is active. Callers hold s.mu.
func (s *Scheduler) activate(e *entry) {
	if !e.sched.Active || e.cronID != 0 {
		e.sched.NextRun = s.nextRun(e)
		return
	}
	e.cronID = s.cron.Schedule(e.timing, cron.FuncJob(func() { s.fire(e) }))
	e.sched.NextRun = s.nextRun(e)
}

// deactivate removes e from cron. Callers hold s.mu.
func (s *Scheduler) deactivate(e *entry) {
	if e.cronID != 0 {
		s.cron.Remove(e.cronID)
		e.cronID = 0
	}
	e.sched.NextRun = nil
}

func (s *Scheduler) nextRun(e *entry) *time.Time {
	if !e.sched.Active {
		return nil
	}
	next := e.timing.Next(s.cfg.Now())
	if next.IsZero() {
		return nil
	}
	return &next
}

// fire is the cron callback. An overlapping run of the same schedule is
// skipped.
func (s *Scheduler) fire(e *entry) {
	if !e.running.TryLock() {
		s.logger.Warn("skipping schedule run, previous run still in progress", "schedule_id", e.sched.ID)
		return
	}
	defer e.running.Unlock()

	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()

	s.execute(ctx, e)
}

// execute performs one run of e and records the outcome. Callers hold
// e.running.
func (s *Scheduler) execute(ctx context.Context, e *entry) {
	s.mu.Lock()
	sched := e.sched
	s.mu.Unlock()

	start := s.cfg.Now()
	logger := s.logger.With("schedule_id", sched.ID, "name", sched.Name)
	logger.Info("scheduled export started", "datasets", sched.Datasets)

	files, runErr := s.runBatch(ctx, sched)

	status := RunSucceeded
	switch {
	case runErr != nil && len(files) > 0:
		status = RunPartial
	case runErr != nil:
		status = RunFailed
	}
	if s.cfg.Recorder != nil {
		s.cfg.Recorder.RecordScheduleRun(status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e.sched.RunCount++
	e.sched.LastRun = &start
	e.sched.LastFiles = files
	e.sched.LastError = ""
	if runErr != nil {
		e.sched.LastError = runErr.Error()
	}
	if e.sched.Kind == KindOnce {
		s.deactivate(e)
		e.sched.Active = false
	} else {
		e.sched.NextRun = s.nextRun(e)
	}

	if runErr != nil {
		logger.Error("scheduled export failed", "status", status, "error", runErr)
		return
	}
	logger.Info("scheduled export completed", "files", len(files), "duration", s.cfg.Now().Sub(start))
}

func (s *Scheduler) runBatch(ctx context.Context, sched Schedule) ([]string, error) {
	datasets, err := s.cfg.Source.Datasets(ctx, sched.Datasets)
	if err != nil {
		return nil, fmt.Errorf("load datasets: %w", err)
	}

	sink, err := export.NewDirSink(filepath.Join(s.cfg.OutputDir, export.SafeName(sched.Name)))
	if err != nil {
		return nil, err
	}

	batch := export.NewBatch(s.cfg.Exporter, export.BatchConfig{
		Sink:   sink,
		Now:    s.cfg.Now,
		Logger: s.logger,
	})
	res := batch.Run(ctx, datasets, sched.Options())

	var files []string
	for _, name := range res.Filenames() {
		files = append(files, sink.Path(name))
	}

	if res.Failed > 0 || res.Cancelled {
		var msgs []string
		for _, p := range res.Progress {
			if p.Status == export.StatusError {
				msgs = append(msgs, p.Dataset+": "+p.Error)
			}
		}
		if res.Cancelled {
			msgs = append(msgs, "cancelled")
		}
		return files, errors.New(strings.Join(msgs, "; "))
	}
	return files, nil
}

func (e *entry) snapshot() Schedule {
	out := e.sched
	out.Datasets = append([]string(nil), e.sched.Datasets...)
	out.Fields = append([]string(nil), e.sched.Fields...)
	out.LastFiles = append([]string(nil), e.sched.LastFiles...)
	return out
}
