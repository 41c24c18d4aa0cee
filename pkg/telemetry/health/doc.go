// Package health provides liveness and readiness probes.
//
// Readiness runs every registered check concurrently with a per-check
// timeout; the service registers the waitlist store ping and a writability
// check on the export output directory.
//
//	checker := health.New(2 * time.Second)
//	checker.Register("storage", health.PingCheck(store))
//	checker.Register("exports", health.WritableDirCheck(cfg.Export.OutputDir))
//	mux.HandleFunc("GET /ready", checker.ReadinessHandler())
package health
