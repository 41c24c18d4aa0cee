package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestChecker_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus string
		wantFailed []string
	}{
		{
			name:       "no checks",
			wantStatus: StatusReady,
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"storage": func(context.Context) error { return nil },
				"exports": func(context.Context) error { return nil },
			},
			wantStatus: StatusReady,
		},
		{
			name: "one failing",
			checks: map[string]CheckFunc{
				"storage": func(context.Context) error { return errors.New("database is locked") },
				"exports": func(context.Context) error { return nil },
			},
			wantStatus: StatusDegraded,
			wantFailed: []string{"storage"},
		},
		{
			name: "timeout",
			checks: map[string]CheckFunc{
				"slow": func(ctx context.Context) error {
					<-ctx.Done()
					time.Sleep(10 * time.Millisecond)
					return nil
				},
			},
			wantStatus: StatusDegraded,
			wantFailed: []string{"slow"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(50 * time.Millisecond)
			for name, check := range tt.checks {
				c.Register(name, check)
			}

			report := c.Readiness(context.Background())
			if report.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", report.Status, tt.wantStatus)
			}
			for _, name := range tt.wantFailed {
				if res := report.Checks[name]; res.Status != StatusUnhealthy || res.Message == "" {
					t.Errorf("check %s = %+v, want unhealthy with message", name, res)
				}
			}
		})
	}
}

func TestReadinessHandler(t *testing.T) {
	c := New(time.Second)
	c.Register("storage", func(context.Context) error { return errors.New("down") })

	rec := httptest.NewRecorder()
	c.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	var report Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.Checks["storage"].Message != "down" {
		t.Errorf("report = %+v", report)
	}
}

func TestLivenessHandler_Head(t *testing.T) {
	rec := httptest.NewRecorder()
	New(0).LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Errorf("HEAD = %d with %d body bytes", rec.Code, rec.Body.Len())
	}
}

func TestWritableDirCheck(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	if err := WritableDirCheck(dir)(context.Background()); err != nil {
		t.Fatalf("check error = %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("probe file left behind: %v", entries)
	}

	file := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WritableDirCheck(file)(context.Background()); err == nil {
		t.Error("check on a regular file should fail")
	}
}
