package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ExportMetrics tracks export, batch and schedule activity.
//
// Metrics:
//   - movrr_export_total: export calls by format and outcome
//   - movrr_export_duration_seconds: export latency by format
//   - movrr_export_records: records per produced artifact
//   - movrr_export_bytes: artifact size
//   - movrr_batch_datasets_total: batch datasets by terminal status
//   - movrr_schedule_runs_total: scheduled runs by outcome
type ExportMetrics struct {
	total         *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	records       *prometheus.HistogramVec
	bytes         *prometheus.HistogramVec
	batchDatasets *prometheus.CounterVec
	scheduleRuns  *prometheus.CounterVec
}

// NewExportMetrics creates and registers export metrics.
func NewExportMetrics(registry prometheus.Registerer) *ExportMetrics {
	m := &ExportMetrics{
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "export_total",
				Help:      "Export calls by format and outcome",
			},
			[]string{"format", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "export_duration_seconds",
				Help:      "Time to filter, project and encode an export",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15},
			},
			[]string{"format"},
		),
		records: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "export_records",
				Help:      "Records written per artifact",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{"format"},
		),
		bytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "export_bytes",
				Help:      "Artifact size in bytes",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
			},
			[]string{"format"},
		),
		batchDatasets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "batch_datasets_total",
				Help:      "Batch datasets by terminal status",
			},
			[]string{"status"},
		),
		scheduleRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "schedule_runs_total",
				Help:      "Scheduled export runs by outcome",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(m.total, m.duration, m.records, m.bytes, m.batchDatasets, m.scheduleRuns)
	return m
}

// RecordExport records one export call. Size histograms only observe calls
// that produced an artifact.
func (m *ExportMetrics) RecordExport(format, outcome string, records, bytes int, d time.Duration) {
	m.total.WithLabelValues(format, outcome).Inc()
	m.duration.WithLabelValues(format).Observe(d.Seconds())
	if bytes > 0 {
		m.records.WithLabelValues(format).Observe(float64(records))
		m.bytes.WithLabelValues(format).Observe(float64(bytes))
	}
}
