package export

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Export outcome labels passed to a Recorder.
const (
	OutcomeSuccess     = "success"
	OutcomeEmpty       = "empty"
	OutcomeError       = "error"
	OutcomeUnsupported = "unsupported"
)

// Recorder receives export measurements. The metrics collector implements
// it; a nil Recorder disables recording.
type Recorder interface {
	RecordExport(format string, outcome string, records, bytes int, duration time.Duration)
	RecordBatchDataset(status string)
}

// Exporter filters, projects and encodes records into a single artifact.
// It holds no per-call state and may be shared between goroutines.
type Exporter struct {
	registry *Registry
	logger   *slog.Logger
	recorder Recorder
}

// NewExporter creates an exporter over registry. logger and recorder may be
// nil.
func NewExporter(registry *Registry, logger *slog.Logger, recorder Recorder) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		registry: registry,
		logger:   logger.With("component", "export"),
		recorder: recorder,
	}
}

// Export produces one artifact from records.
//
// The date range is applied first, then every surviving record is projected
// onto opts.SelectedFields (or the first record's fields), and the result is
// handed to the encoder for opts.Format. An empty result yields a nil
// artifact and a nil error. An unknown format fails with a
// *ConfigurationError before any other work.
func (e *Exporter) Export(ctx context.Context, records []Record, opts Options) (*Artifact, error) {
	start := time.Now()

	enc, err := e.registry.Lookup(opts.Format)
	if err != nil {
		e.logger.Error("unsupported export format", "format", string(opts.Format))
		e.record(opts.Format, OutcomeUnsupported, 0, 0, time.Since(start))
		return nil, err
	}

	filtered := FilterByDate(records, opts.DateRange)
	if len(filtered) == 0 {
		e.logger.Debug("nothing to export",
			"format", string(opts.Format),
			"input_records", len(records),
		)
		e.record(opts.Format, OutcomeEmpty, 0, 0, time.Since(start))
		return nil, nil
	}

	fields := opts.SelectedFields
	if len(fields) == 0 {
		fields = AvailableFields(filtered)
	}

	table := Table{
		Fields:         fields,
		Rows:           ProjectAll(filtered, fields),
		IncludeHeaders: opts.IncludeHeaders,
	}

	data, err := enc.Encode(ctx, table)
	if err != nil {
		e.logger.Error("export failed",
			"format", string(opts.Format),
			"records", len(table.Rows),
			"error", err,
		)
		e.record(opts.Format, OutcomeError, len(table.Rows), 0, time.Since(start))
		var exportErr *ExportError
		if errors.As(err, &exportErr) {
			return nil, err
		}
		return nil, NewExportError(opts.Format, len(table.Rows), err)
	}

	artifact := &Artifact{
		Filename: opts.ArtifactName(),
		Format:   opts.Format,
		MIMEType: opts.Format.MIMEType(),
		Data:     data,
		Records:  len(table.Rows),
	}

	e.logger.Info("export completed",
		"format", string(opts.Format),
		"filename", artifact.Filename,
		"records", artifact.Records,
		"bytes", artifact.Size(),
		"duration", time.Since(start),
	)
	e.record(opts.Format, OutcomeSuccess, artifact.Records, artifact.Size(), time.Since(start))
	return artifact, nil
}

func (e *Exporter) record(f Format, outcome string, records, bytes int, d time.Duration) {
	if e.recorder != nil {
		e.recorder.RecordExport(string(f), outcome, records, bytes, d)
	}
}
