// Package telemetry groups the service's observability packages:
//
//   - logging: slog construction with request context and email redaction
//   - metrics: Prometheus collector for exports, schedules, signups and HTTP
//   - health: liveness and readiness probes
package telemetry
