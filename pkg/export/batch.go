package export

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Status is the state of one dataset in a batch.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal reports whether s is completed or error.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// canTransition allows pending→processing→{completed,error} only.
func canTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusCompleted || to == StatusError
	}
	return false
}

// Dataset is one named record set of a batch.
type Dataset struct {
	Name    string
	Records []Record
}

// Progress is the state of one dataset.
type Progress struct {
	Dataset    string     `json:"dataset"`
	Status     Status     `json:"status"`
	Percent    int        `json:"progress"`
	Filename   string     `json:"filename,omitempty"`
	Error      string     `json:"error,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// ProgressEvent reports one state change. Seq increases by one per event
// within a batch, starting at 1.
type ProgressEvent struct {
	Seq      uint64    `json:"seq"`
	Index    int       `json:"index"`
	Progress Progress  `json:"progress"`
	Time     time.Time `json:"time"`
}

// Observer is called synchronously for every event, in order.
type Observer func(ProgressEvent)

// BatchResult is the outcome of a batch run.
type BatchResult struct {
	Progress  []Progress
	Artifacts []*Artifact
	Completed int
	Failed    int

	// Cancelled is set when the context ended before every dataset was
	// started. Unstarted datasets stay pending.
	Cancelled bool
}

// Done returns the number of datasets that reached a terminal state.
func (r *BatchResult) Done() int {
	return r.Completed + r.Failed
}

// Filenames returns the produced artifact names in dataset order.
func (r *BatchResult) Filenames() []string {
	out := make([]string, 0, len(r.Progress))
	for _, p := range r.Progress {
		if p.Status == StatusCompleted && p.Filename != "" {
			out = append(out, p.Filename)
		}
	}
	return out
}

// Errors returns the error message of every failed dataset keyed by name.
func (r *BatchResult) Errors() map[string]string {
	out := make(map[string]string)
	for _, p := range r.Progress {
		if p.Status == StatusError {
			out[p.Dataset] = p.Error
		}
	}
	return out
}

// BatchConfig configures a Batch.
type BatchConfig struct {
	// Sink receives every produced artifact. Optional.
	Sink Sink

	// Observer receives progress events. Optional.
	Observer Observer

	// Now supplies the date used in filenames. Defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// Batch exports several datasets one after another with shared options.
type Batch struct {
	exporter *Exporter
	cfg      BatchConfig
	logger   *slog.Logger
	seq      uint64
}

// NewBatch creates a batch orchestrator. A Batch tracks the sequence of a
// single run at a time and must not be shared between concurrent runs.
func NewBatch(exporter *Exporter, cfg BatchConfig) *Batch {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Batch{
		exporter: exporter,
		cfg:      cfg,
		logger:   logger.With("component", "batch"),
	}
}

// BatchFilename returns "{name}_{date}" with path separators in name
// replaced.
func BatchFilename(name string, date time.Time) string {
	return SafeName(strings.TrimSpace(name)) + "_" + date.UTC().Format(time.DateOnly)
}

// Run exports datasets strictly in order. opts.Filename is ignored; each
// dataset gets BatchFilename. A failing dataset is marked error and the
// batch continues. Cancellation of ctx is honoured only between datasets;
// an export already started runs to completion.
func (b *Batch) Run(ctx context.Context, datasets []Dataset, opts Options) *BatchResult {
	b.seq = 0
	res := &BatchResult{Progress: make([]Progress, len(datasets))}
	for i, ds := range datasets {
		res.Progress[i] = Progress{Dataset: ds.Name, Status: StatusPending}
		b.emit(res, i)
	}

	date := b.cfg.Now()
	work := context.WithoutCancel(ctx)

	for i, ds := range datasets {
		if err := ctx.Err(); err != nil {
			res.Cancelled = true
			b.logger.Warn("batch cancelled",
				"remaining", len(datasets)-i,
				"error", err,
			)
			break
		}

		b.transition(res, i, StatusProcessing, "", "")

		o := opts
		o.Filename = BatchFilename(ds.Name, date)

		artifact, err := b.exporter.Export(work, ds.Records, o)
		if err == nil && artifact != nil && b.cfg.Sink != nil {
			err = b.cfg.Sink.Deliver(work, artifact)
		}
		if err != nil {
			b.logger.Warn("dataset export failed", "dataset", ds.Name, "error", err)
			b.transition(res, i, StatusError, "", err.Error())
			continue
		}

		filename := ""
		if artifact != nil {
			filename = artifact.Filename
			res.Artifacts = append(res.Artifacts, artifact)
		}
		b.transition(res, i, StatusCompleted, filename, "")
	}

	b.logger.Info("batch finished",
		"datasets", len(datasets),
		"completed", res.Completed,
		"failed", res.Failed,
		"cancelled", res.Cancelled,
	)
	return res
}

func (b *Batch) transition(res *BatchResult, i int, to Status, filename, errMsg string) {
	p := &res.Progress[i]
	if !canTransition(p.Status, to) {
		b.logger.Error("invalid progress transition", "dataset", p.Dataset, "from", p.Status, "to", to)
		return
	}

	now := time.Now()
	p.Status = to
	switch to {
	case StatusProcessing:
		p.Percent = 0
		p.StartedAt = &now
	case StatusCompleted:
		p.Percent = 100
		p.Filename = filename
		p.FinishedAt = &now
		res.Completed++
	case StatusError:
		p.Error = errMsg
		p.FinishedAt = &now
		res.Failed++
	}

	if to.Terminal() && b.exporter.recorder != nil {
		b.exporter.recorder.RecordBatchDataset(string(to))
	}
	b.emit(res, i)
}

func (b *Batch) emit(res *BatchResult, i int) {
	b.seq++
	if b.cfg.Observer == nil {
		return
	}
	b.cfg.Observer(ProgressEvent{
		Seq:      b.seq,
		Index:    i,
		Progress: res.Progress[i],
		Time:     time.Now(),
	})
}
