package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"movrr/waitlist/pkg/config"
	"movrr/waitlist/pkg/export"
	"movrr/waitlist/pkg/export/jobs"
	"movrr/waitlist/pkg/export/schedule"
	"movrr/waitlist/pkg/telemetry/health"
	"movrr/waitlist/pkg/telemetry/metrics"
	"movrr/waitlist/pkg/waitlist"
)

// BuildInfo is served on /version.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Deps are the components the API serves. Metrics and Health may be nil.
type Deps struct {
	Service   *waitlist.Service
	Exporter  *export.Exporter
	Jobs      *jobs.Manager
	Scheduler *schedule.Scheduler
	Metrics   *metrics.Collector
	Health    *health.Checker
	Logger    *slog.Logger
	Build     BuildInfo
}

// Server is the public and admin HTTP API.
type Server struct {
	deps   Deps
	cfg    atomic.Pointer[config.Config]
	auth   *Authenticator
	logger *slog.Logger
	now    func() time.Time

	mu           sync.Mutex
	httpServer   *http.Server
	running      bool
	shutdownOnce sync.Once
}

// New creates a server. cfg supplies the listener settings, the admin keys
// and the export defaults; Apply replaces the last two at runtime.
func New(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Health == nil {
		deps.Health = health.New(0)
	}
	s := &Server{
		deps:   deps,
		auth:   NewAuthenticator(cfg.Security.AdminKeys, logger),
		logger: logger.With("component", "server"),
		now:    time.Now,
	}
	s.cfg.Store(cfg)
	return s
}

// Apply switches to a reloaded configuration. Listener settings only take
// effect on restart.
func (s *Server) Apply(cfg *config.Config) {
	s.cfg.Store(cfg)
	s.auth.SetKeys(cfg.Security.AdminKeys)
	s.logger.Info("server configuration applied",
		"admin_keys", len(cfg.Security.AdminKeys),
		"default_format", cfg.Export.DefaultFormat,
	)
}

func (s *Server) config() *config.Config {
	return s.cfg.Load()
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	admin := func(h http.HandlerFunc) http.Handler { return s.auth.Require(h) }

	mux.HandleFunc("POST /api/v1/waitlist", s.handleSignup)

	mux.Handle("GET /health", s.deps.Health.LivenessHandler())
	mux.Handle("GET /ready", s.deps.Health.ReadinessHandler())
	mux.Handle("GET /version", health.VersionHandler(s.deps.Build.Version, s.deps.Build.Commit, s.deps.Build.BuildTime))
	if s.deps.Metrics != nil && s.deps.Metrics.Enabled() {
		mux.Handle("GET "+s.config().Telemetry.Metrics.Path, s.deps.Metrics.Handler())
	}

	mux.Handle("GET /api/v1/admin/stats", admin(s.handleStats))
	mux.Handle("GET /api/v1/admin/datasets", admin(s.handleDatasets))
	mux.Handle("GET /api/v1/admin/export", admin(s.handleExport))

	mux.Handle("POST /api/v1/admin/batches", admin(s.handleSubmitBatch))
	mux.Handle("GET /api/v1/admin/batches", admin(s.handleListBatches))
	mux.Handle("GET /api/v1/admin/batches/{id}", admin(s.handleGetBatch))
	mux.Handle("DELETE /api/v1/admin/batches/{id}", admin(s.handleCancelBatch))
	mux.Handle("GET /api/v1/admin/batches/{id}/events", admin(s.handleBatchEvents))
	mux.Handle("GET /api/v1/admin/batches/{id}/files/{name}", admin(s.handleBatchFile))

	mux.Handle("GET /api/v1/admin/schedules", admin(s.handleListSchedules))
	mux.Handle("POST /api/v1/admin/schedules", admin(s.handleCreateSchedule))
	mux.Handle("GET /api/v1/admin/schedules/{id}", admin(s.handleGetSchedule))
	mux.Handle("DELETE /api/v1/admin/schedules/{id}", admin(s.handleDeleteSchedule))
	mux.Handle("POST /api/v1/admin/schedules/{id}/run", admin(s.handleRunSchedule))
	mux.Handle("POST /api/v1/admin/schedules/{id}/pause", admin(s.handlePauseSchedule))
	mux.Handle("POST /api/v1/admin/schedules/{id}/resume", admin(s.handleResumeSchedule))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, ErrorTypeNotFound, "no route for "+r.Method+" "+r.URL.Path)
	})

	// Outermost first.
	return chain(mux,
		recovery(s.logger),
		requestID,
		accessLog(s.logger, s.deps.Metrics),
	)
}

// Start listens on the configured address and serves until ctx ends, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.config().Server
	ln, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server is already running")
	}
	cfg := s.config().Server
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.running = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		return err
	}
}

// Shutdown stops accepting requests and waits for in-flight ones up to the
// configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		srv, running := s.httpServer, s.running
		s.mu.Unlock()
		if !running {
			return
		}

		timeout := s.config().Server.ShutdownTimeout
		s.logger.Info("initiating graceful shutdown", "timeout", timeout.String())

		shutdownCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown: %w", err)
		}

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		s.logger.Info("http server stopped")
	})
	return shutdownErr
}
