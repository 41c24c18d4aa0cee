// Package jobs hosts batch exports for the HTTP API. Every submitted batch
// runs in its own goroutine with its own orchestrator and output directory;
// callers poll snapshots and progress events by job ID and download the
// finished files.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"movrr/waitlist/pkg/export"
)

// State is the lifecycle of a hosted batch.
type State string

const (
	StateRunning   State = "running"
	StateDone      State = "done"
	StateCancelled State = "cancelled"
)

var (
	// ErrJobNotFound is returned for unknown job IDs.
	ErrJobNotFound = errors.New("batch job not found")

	// ErrFileNotFound is returned for files the job did not produce.
	ErrFileNotFound = errors.New("file not produced by this job")
)

// Snapshot is the pollable state of a job.
type Snapshot struct {
	ID         string            `json:"id"`
	State      State             `json:"state"`
	Format     export.Format     `json:"format"`
	Progress   []export.Progress `json:"datasets"`
	Total      int               `json:"total"`
	Completed  int               `json:"completed"`
	Failed     int               `json:"failed"`
	Files      []string          `json:"files"`
	Errors     map[string]string `json:"errors,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
}

// Config configures a Manager.
type Config struct {
	Exporter *export.Exporter

	// Dir holds one sub-directory per job.
	Dir string

	// Retention is how long finished jobs stay available. Default 24h.
	Retention time.Duration

	// PruneSchedule is the cron expression of the cleanup pass.
	// Default "@every 10m".
	PruneSchedule string

	Logger *slog.Logger
}

type job struct {
	mu     sync.Mutex
	snap   Snapshot
	events []export.ProgressEvent
	sink   *export.DirSink
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager runs and tracks hosted batch jobs.
type Manager struct {
	cfg    Config
	mu     sync.RWMutex
	jobs   map[string]*job
	cron   *cron.Cron
	logger *slog.Logger
	wg     sync.WaitGroup
	now    func() time.Time
}

// NewManager creates a job manager.
func NewManager(cfg Config) *Manager {
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if cfg.PruneSchedule == "" {
		cfg.PruneSchedule = "@every 10m"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:    cfg,
		jobs:   make(map[string]*job),
		cron:   cron.New(),
		logger: logger.With("component", "export.jobs"),
		now:    time.Now,
	}
}

// Start schedules the cleanup of expired jobs.
func (m *Manager) Start(ctx context.Context) error {
	if _, err := m.cron.AddFunc(m.cfg.PruneSchedule, func() { m.Prune() }); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", m.cfg.PruneSchedule, err)
	}
	m.cron.Start()
	go func() {
		<-ctx.Done()
		<-m.cron.Stop().Done()
	}()
	return nil
}

// Submit starts a batch and returns its job ID. The job is detached from
// ctx; use Cancel to stop it.
func (m *Manager) Submit(ctx context.Context, datasets []export.Dataset, opts export.Options) (string, error) {
	if !opts.Format.Valid() {
		return "", export.NewUnsupportedFormatError(string(opts.Format))
	}

	id := uuid.NewString()
	sink, err := export.NewDirSink(filepath.Join(m.cfg.Dir, id))
	if err != nil {
		return "", err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	j := &job{
		snap: Snapshot{
			ID:        id,
			State:     StateRunning,
			Format:    opts.Format,
			Progress:  make([]export.Progress, len(datasets)),
			Total:     len(datasets),
			CreatedAt: m.now(),
		},
		sink:   sink,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	for i, ds := range datasets {
		j.snap.Progress[i] = export.Progress{Dataset: ds.Name, Status: export.StatusPending}
	}

	m.mu.Lock()
	m.jobs[id] = j
	m.mu.Unlock()

	m.logger.Info("batch job submitted", "job_id", id, "datasets", len(datasets), "format", string(opts.Format))

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(j.done)
		defer cancel()
		m.run(runCtx, j, datasets, opts)
	}()
	return id, nil
}

func (m *Manager) run(ctx context.Context, j *job, datasets []export.Dataset, opts export.Options) {
	batch := export.NewBatch(m.cfg.Exporter, export.BatchConfig{
		Sink:     j.sink,
		Observer: j.observe,
		Now:      m.now,
		Logger:   m.logger.With("job_id", j.snap.ID),
	})
	res := batch.Run(ctx, datasets, opts)

	finished := m.now()
	j.mu.Lock()
	defer j.mu.Unlock()

	j.snap.Progress = res.Progress
	j.snap.Completed = res.Completed
	j.snap.Failed = res.Failed
	j.snap.Files = res.Filenames()
	j.snap.Errors = res.Errors()
	j.snap.FinishedAt = &finished
	j.snap.State = StateDone
	if res.Cancelled {
		j.snap.State = StateCancelled
	}
}

func (j *job) observe(ev export.ProgressEvent) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.events = append(j.events, ev)
	j.snap.Progress[ev.Index] = ev.Progress
	switch ev.Progress.Status {
	case export.StatusCompleted:
		j.snap.Completed++
	case export.StatusError:
		j.snap.Failed++
	}
}

func (j *job) snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := j.snap
	out.Progress = slices.Clone(j.snap.Progress)
	out.Files = slices.Clone(j.snap.Files)
	return out
}

func (m *Manager) get(id string) (*job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return j, nil
}

// Get returns the current state of a job.
func (m *Manager) Get(id string) (Snapshot, error) {
	j, err := m.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	return j.snapshot(), nil
}

// List returns every tracked job, newest first.
func (m *Manager) List() []Snapshot {
	m.mu.RLock()
	jobs := make([]*job, 0, len(m.jobs))
	for _, j := range m.jobs {
		jobs = append(jobs, j)
	}
	m.mu.RUnlock()

	out := make([]Snapshot, len(jobs))
	for i, j := range jobs {
		out[i] = j.snapshot()
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out
}

// Events returns the progress events of a job with a sequence number
// greater than since.
func (m *Manager) Events(id string, since uint64) ([]export.ProgressEvent, error) {
	j, err := m.get(id)
	if err != nil {
		return nil, err
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	out := []export.ProgressEvent{}
	for _, ev := range j.events {
		if ev.Seq > since {
			out = append(out, ev)
		}
	}
	return out, nil
}

// Open opens a file produced by a job.
func (m *Manager) Open(id, filename string) (*os.File, error) {
	snap, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(snap.Files, filename) {
		return nil, ErrFileNotFound
	}
	j, err := m.get(id)
	if err != nil {
		return nil, err
	}
	return os.Open(j.sink.Path(filename))
}

// Cancel stops a job at the next dataset boundary.
func (m *Manager) Cancel(id string) error {
	j, err := m.get(id)
	if err != nil {
		return err
	}
	j.cancel()
	m.logger.Info("batch job cancel requested", "job_id", id)
	return nil
}

// Wait blocks until the job finishes or ctx ends.
func (m *Manager) Wait(ctx context.Context, id string) (Snapshot, error) {
	j, err := m.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	select {
	case <-j.done:
		return j.snapshot(), nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Prune forgets finished jobs older than the retention and deletes their
// files. It returns the number of jobs removed.
func (m *Manager) Prune() int {
	cutoff := m.now().Add(-m.cfg.Retention)

	m.mu.Lock()
	var expired []string
	for id, j := range m.jobs {
		snap := j.snapshot()
		if snap.FinishedAt != nil && snap.FinishedAt.Before(cutoff) {
			expired = append(expired, id)
			delete(m.jobs, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		if err := os.RemoveAll(filepath.Join(m.cfg.Dir, id)); err != nil {
			m.logger.Warn("failed to remove job files", "job_id", id, "error", err)
		}
	}
	if len(expired) > 0 {
		m.logger.Info("pruned batch jobs", "count", len(expired))
	}
	return len(expired)
}

// Close cancels every running job and waits for them to stop.
func (m *Manager) Close() {
	m.cron.Stop()
	m.mu.RLock()
	for _, j := range m.jobs {
		j.cancel()
	}
	m.mu.RUnlock()
	m.wg.Wait()
}
