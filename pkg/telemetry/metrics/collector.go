package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "movrr"

// Collector owns the Prometheus registry and records metrics for every
// component. It satisfies export.Recorder, schedule.RunRecorder and
// waitlist.SignupRecorder. A disabled collector accepts calls and records
// nothing.
type Collector struct {
	enabled  bool
	registry *prometheus.Registry

	export  *ExportMetrics
	signups *prometheus.CounterVec
	http    *RequestMetrics
}

// NewCollector creates a collector. If registry is nil a fresh registry
// with Go runtime and process collectors is used.
func NewCollector(enabled bool, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	c := &Collector{
		enabled:  enabled,
		registry: registry,
		export:   NewExportMetrics(registry),
		http:     NewRequestMetrics(registry),
		signups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "waitlist",
				Name:      "signups_total",
				Help:      "Accepted waitlist signups by bike ownership",
			},
			[]string{"bike_ownership"},
		),
	}
	registry.MustRegister(c.signups)
	return c
}

// Enabled reports whether the collector records.
func (c *Collector) Enabled() bool { return c.enabled }

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// RecordExport records one export call.
func (c *Collector) RecordExport(format, outcome string, records, bytes int, d time.Duration) {
	if !c.enabled {
		return
	}
	c.export.RecordExport(format, outcome, records, bytes, d)
}

// RecordBatchDataset records a dataset reaching a terminal batch status.
func (c *Collector) RecordBatchDataset(status string) {
	if !c.enabled {
		return
	}
	c.export.batchDatasets.WithLabelValues(status).Inc()
}

// RecordScheduleRun records the outcome of a scheduled export run.
func (c *Collector) RecordScheduleRun(status string) {
	if !c.enabled {
		return
	}
	c.export.scheduleRuns.WithLabelValues(status).Inc()
}

// RecordSignup records an accepted signup.
func (c *Collector) RecordSignup(bikeOwnership string) {
	if !c.enabled {
		return
	}
	c.signups.WithLabelValues(bikeOwnership).Inc()
}

// RecordHTTPRequest records a served request. route is the matched pattern,
// never the raw path, to keep label cardinality bounded.
func (c *Collector) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if !c.enabled {
		return
	}
	c.http.Record(method, route, status, d)
}

// Handler returns the Prometheus exposition handler. A disabled collector
// serves 404.
func (c *Collector) Handler() http.Handler {
	if !c.enabled {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
