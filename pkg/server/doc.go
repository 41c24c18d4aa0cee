// Package server serves the public signup endpoint and the admin API.
//
// Public routes:
//
//	POST /api/v1/waitlist         signup
//	GET  /health, /ready          probes
//	GET  /version                 build information
//	GET  /metrics                 Prometheus metrics (path configurable)
//
// Admin routes live under /api/v1/admin and require an API key, sent as
// "Authorization: Bearer <key>" or "X-API-Key: <key>". With no keys
// configured they answer 403.
//
//	GET    stats                      dashboard statistics
//	GET    datasets                   exportable datasets and formats
//	GET    export                     single download (dataset, format, fields, start, end, headers, filename)
//	POST   batches                    start a batch export job
//	GET    batches[/{id}]             job snapshots
//	DELETE batches/{id}               cancel at the next dataset boundary
//	GET    batches/{id}/events        progress events after ?since=N
//	GET    batches/{id}/files/{name}  download a produced file
//	GET    schedules[/{id}]           scheduled exports
//	POST   schedules                  add a schedule
//	DELETE schedules/{id}             remove a runtime schedule
//	POST   schedules/{id}/run|pause|resume
//
// Every error body is {"error": {"message": ..., "type": ...}}.
package server
