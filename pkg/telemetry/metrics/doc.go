// Package metrics exposes Prometheus metrics for exports, batches,
// schedules, signups and the HTTP API.
//
// A single Collector is created at startup and passed to the components as
// their recorder interface:
//
//	collector := metrics.NewCollector(true, nil)
//	exporter := export.NewExporter(registry, logger, collector)
//	mux.Handle("/metrics", collector.Handler())
package metrics
