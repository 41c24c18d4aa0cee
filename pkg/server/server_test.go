package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"movrr/waitlist/pkg/config"
	"movrr/waitlist/pkg/export"
	"movrr/waitlist/pkg/export/jobs"
	"movrr/waitlist/pkg/export/schedule"
	"movrr/waitlist/pkg/telemetry/metrics"
	"movrr/waitlist/pkg/waitlist"
)

const testKey = "admin-key-0123456789abcdef"

type fixture struct {
	srv     *Server
	handler http.Handler
	svc     *waitlist.Service
	jobs    *jobs.Manager
	sched   *schedule.Scheduler
	cfg     *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.Default()
	cfg.Export.OutputDir = t.TempDir()
	cfg.Security.AdminKeys = []config.APIKeyConfig{{Key: testKey, Name: "test"}}

	collector := metrics.NewCollector(true, nil)
	svc := waitlist.NewService(waitlist.NewMemoryStore(), nil, collector, logger)
	exporter := export.NewExporter(export.DefaultRegistry(export.DefaultStyle()), logger, collector)
	mgr := jobs.NewManager(jobs.Config{
		Exporter: exporter,
		Dir:      filepath.Join(cfg.Export.OutputDir, "batches"),
		Logger:   logger,
	})
	t.Cleanup(mgr.Close)
	sched := schedule.NewScheduler(schedule.Config{
		Source:    svc,
		Exporter:  exporter,
		OutputDir: filepath.Join(cfg.Export.OutputDir, "scheduled"),
		Recorder:  collector,
		Logger:    logger,
	})

	srv := New(cfg, Deps{
		Service:   svc,
		Exporter:  exporter,
		Jobs:      mgr,
		Scheduler: sched,
		Metrics:   collector,
		Logger:    logger,
		Build:     BuildInfo{Version: "test"},
	})
	return &fixture{srv: srv, handler: srv.Handler(), svc: svc, jobs: mgr, sched: sched, cfg: cfg}
}

func (f *fixture) do(method, path, body string, admin bool) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		req.Header.Set("Authorization", "Bearer "+testKey)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) signup(t *testing.T, name, email, city, owns string) {
	t.Helper()
	_, err := f.svc.Signup(context.Background(), waitlist.SignupRequest{
		Name: name, Email: email, City: city, BikeOwnership: owns,
	})
	if err != nil {
		t.Fatalf("Signup(%s) error = %v", email, err)
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp.Error
}

func TestSignup(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantType   string
	}{
		{
			name:       "valid",
			body:       `{"name":"Ada Lovelace","email":"ada@example.com","city":"London","bike_ownership":"yes"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "duplicate email",
			body:       `{"name":"Ada L","email":"ADA@example.com","city":"Paris","bike_ownership":"no"}`,
			wantStatus: http.StatusConflict,
			wantType:   ErrorTypeConflict,
		},
		{
			name:       "invalid fields",
			body:       `{"name":"A","email":"nope","city":"","bike_ownership":"maybe"}`,
			wantStatus: http.StatusBadRequest,
			wantType:   ErrorTypeValidation,
		},
		{
			name:       "malformed json",
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
			wantType:   ErrorTypeInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/v1/waitlist", tt.body, false)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantType == "" {
				var e waitlist.Entry
				if err := json.NewDecoder(rec.Body).Decode(&e); err != nil {
					t.Fatalf("decode entry: %v", err)
				}
				if e.ID == "" || e.Email != "ada@example.com" {
					t.Errorf("entry = %+v", e)
				}
				return
			}
			detail := decodeError(t, rec)
			if detail.Type != tt.wantType {
				t.Errorf("error type = %q, want %q", detail.Type, tt.wantType)
			}
			if tt.wantType == ErrorTypeValidation && len(detail.Fields) != 4 {
				t.Errorf("field errors = %d, want 4: %+v", len(detail.Fields), detail.Fields)
			}
		})
	}
}

func TestSignupBodyTooLarge(t *testing.T) {
	f := newFixture(t)
	f.cfg.Server.MaxBodyBytes = 16

	rec := f.do(http.MethodPost, "/api/v1/waitlist", `{"name":"`+strings.Repeat("a", 64)+`"}`, false)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestAdminAuth(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name       string
		header     string
		value      string
		wantStatus int
	}{
		{name: "missing key", wantStatus: http.StatusUnauthorized},
		{name: "wrong bearer", header: "Authorization", value: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "bearer", header: "Authorization", value: "Bearer " + testKey, wantStatus: http.StatusOK},
		{name: "lowercase scheme", header: "Authorization", value: "bearer " + testKey, wantStatus: http.StatusOK},
		{name: "api key header", header: APIKeyHeader, value: testKey, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			f.handler.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestAdminDisabledWithoutKeys(t *testing.T) {
	f := newFixture(t)

	cfg := config.Default()
	cfg.Security.AdminKeys = []config.APIKeyConfig{{Key: testKey, Enabled: config.Bool(false)}}
	f.srv.Apply(cfg)

	rec := f.do(http.MethodGet, "/api/v1/admin/stats", "", true)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if got := decodeError(t, rec).Type; got != ErrorTypePermissionDenied {
		t.Errorf("error type = %q, want %q", got, ErrorTypePermissionDenied)
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "Ada", "ada@example.com", "London", "yes")
	f.signup(t, "Grace", "grace@example.com", "london ", "planning")

	rec := f.do(http.MethodGet, "/api/v1/admin/stats", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats waitlist.Stats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalSignups != 2 || stats.Cities != 1 || stats.BikeOwners != 1 || stats.PlanningToBuy != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestDatasets(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/v1/admin/datasets", "", true)
	var resp datasetsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Datasets) != len(waitlist.DatasetNames()) {
		t.Errorf("datasets = %d, want %d", len(resp.Datasets), len(waitlist.DatasetNames()))
	}
	if len(resp.Formats) != 4 {
		t.Errorf("formats = %v", resp.Formats)
	}
}

func TestExport(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/v1/admin/export?format=csv", "", true)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("empty export status = %d, want 204", rec.Code)
	}

	f.signup(t, "Ada", "ada@example.com", "London", "yes")
	f.signup(t, "Grace", "grace@example.com", "Berlin", "no")

	rec = f.do(http.MethodGet, "/api/v1/admin/export?format=csv&fields=name,%20city&filename=people", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="people.csv"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "name,city\n") || !strings.Contains(body, "Ada,London") || !strings.Contains(body, "Grace,Berlin") {
		t.Errorf("body = %q", body)
	}

	rec = f.do(http.MethodGet, "/api/v1/admin/export?dataset=city_breakdown&format=json&headers=false", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("json status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "city_breakdown_") {
		t.Errorf("default filename missing dataset name: %q", cd)
	}
}

func TestExportErrors(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "Ada", "ada@example.com", "London", "yes")

	tests := []struct {
		name  string
		query string
	}{
		{name: "unsupported format", query: "format=docx"},
		{name: "unknown dataset", query: "dataset=payments"},
		{name: "bad start", query: "start=yesterday"},
		{name: "end before start", query: "start=2025-03-10&end=2025-03-01"},
		{name: "bad headers flag", query: "headers=maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodGet, "/api/v1/admin/export?"+tt.query, "", true)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if got := decodeError(t, rec).Type; got != ErrorTypeInvalidRequest {
				t.Errorf("error type = %q", got)
			}
		})
	}
}

func TestBatchLifecycle(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "Ada", "ada@example.com", "London", "yes")

	rec := f.do(http.MethodPost, "/api/v1/admin/batches",
		`{"datasets":["waitlist_entries","city_breakdown"],"format":"csv","fields":["name","city"]}`, true)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("submit status = %d, body %s", rec.Code, rec.Body)
	}
	var submitted jobs.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&submitted); err != nil {
		t.Fatal(err)
	}
	if loc := rec.Header().Get("Location"); loc != "/api/v1/admin/batches/"+submitted.ID {
		t.Errorf("Location = %q", loc)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := f.jobs.Wait(ctx, submitted.ID); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	rec = f.do(http.MethodGet, "/api/v1/admin/batches/"+submitted.ID, "", true)
	var snap jobs.Snapshot
	if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.State != jobs.StateDone || snap.Completed != 2 || len(snap.Files) != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}

	rec = f.do(http.MethodGet, "/api/v1/admin/batches/"+submitted.ID+"/events?since=2", "", true)
	var events eventsResponse
	if err := json.NewDecoder(rec.Body).Decode(&events); err != nil {
		t.Fatal(err)
	}
	for _, ev := range events.Events {
		if ev.Seq <= 2 {
			t.Errorf("event seq %d returned for since=2", ev.Seq)
		}
	}
	if len(events.Events) > 0 && events.Next != events.Events[len(events.Events)-1].Seq {
		t.Errorf("next = %d", events.Next)
	}

	rec = f.do(http.MethodGet, "/api/v1/admin/batches/"+submitted.ID+"/files/"+snap.Files[0], "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("download status = %d", rec.Code)
	}
	if got := rec.Body.String(); !strings.Contains(got, "Ada,London") {
		t.Errorf("file body = %q", got)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	rec = f.do(http.MethodGet, "/api/v1/admin/batches", "", true)
	var list batchList
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list.Batches) != 1 {
		t.Errorf("batches = %d, want 1", len(list.Batches))
	}
}

func TestBatchErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{name: "no datasets", method: http.MethodPost, path: "/api/v1/admin/batches", body: `{"datasets":[]}`, wantStatus: http.StatusBadRequest},
		{name: "unknown dataset", method: http.MethodPost, path: "/api/v1/admin/batches", body: `{"datasets":["nope"]}`, wantStatus: http.StatusBadRequest},
		{name: "bad format", method: http.MethodPost, path: "/api/v1/admin/batches", body: `{"datasets":["waitlist_entries"],"format":"rtf"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown job", method: http.MethodGet, path: "/api/v1/admin/batches/missing", wantStatus: http.StatusNotFound},
		{name: "cancel unknown job", method: http.MethodDelete, path: "/api/v1/admin/batches/missing", wantStatus: http.StatusNotFound},
		{name: "bad since", method: http.MethodGet, path: "/api/v1/admin/batches/missing/events?since=-1", wantStatus: http.StatusBadRequest},
		{name: "file of unknown job", method: http.MethodGet, path: "/api/v1/admin/batches/missing/files/a.csv", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(tt.method, tt.path, tt.body, true)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}
		})
	}
}

func TestSchedules(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "Ada", "ada@example.com", "London", "yes")

	rec := f.do(http.MethodPost, "/api/v1/admin/schedules",
		`{"name":"nightly","datasets":["waitlist_entries"],"format":"excel","kind":"daily","time":"02:00","active":true,"run_count":9}`, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	var created schedule.Schedule
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.Format != export.FormatXLSX || created.Timezone != "UTC" || created.RunCount != 0 {
		t.Errorf("created = %+v", created)
	}
	if created.NextRun == nil {
		t.Error("active schedule has no next run")
	}

	rec = f.do(http.MethodPost, "/api/v1/admin/schedules/"+created.ID+"/pause", "", true)
	var paused schedule.Schedule
	if err := json.NewDecoder(rec.Body).Decode(&paused); err != nil {
		t.Fatal(err)
	}
	if paused.Active || paused.NextRun != nil {
		t.Errorf("paused = %+v", paused)
	}

	rec = f.do(http.MethodPost, "/api/v1/admin/schedules/"+created.ID+"/run", "", true)
	var ran schedule.Schedule
	if err := json.NewDecoder(rec.Body).Decode(&ran); err != nil {
		t.Fatal(err)
	}
	if ran.RunCount != 1 || ran.LastRun == nil || ran.LastError != "" || len(ran.LastFiles) != 1 {
		t.Errorf("after run = %+v", ran)
	}

	rec = f.do(http.MethodPost, "/api/v1/admin/schedules/"+created.ID+"/resume", "", true)
	if rec.Code != http.StatusOK {
		t.Errorf("resume status = %d", rec.Code)
	}

	rec = f.do(http.MethodGet, "/api/v1/admin/schedules", "", true)
	var list scheduleList
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list.Schedules) != 1 {
		t.Errorf("schedules = %d, want 1", len(list.Schedules))
	}

	rec = f.do(http.MethodDelete, "/api/v1/admin/schedules/"+created.ID, "", true)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	rec = f.do(http.MethodGet, "/api/v1/admin/schedules/"+created.ID, "", true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", rec.Code)
	}
}

func TestCreateScheduleIncludeHeaders(t *testing.T) {
	f := newFixture(t)

	create := func(name, extra string) schedule.Schedule {
		t.Helper()
		rec := f.do(http.MethodPost, "/api/v1/admin/schedules",
			`{"name":"`+name+`","datasets":["waitlist_entries"],"kind":"daily","time":"02:00"`+extra+`}`, true)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %s status = %d, body %s", name, rec.Code, rec.Body)
		}
		var created schedule.Schedule
		if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
			t.Fatal(err)
		}
		return created
	}

	if got := create("inherit-on", ""); got.IncludeHeaders == nil || !*got.IncludeHeaders {
		t.Errorf("IncludeHeaders = %v, want true from export defaults", got.IncludeHeaders)
	}

	next := *f.cfg
	next.Export.IncludeHeaders = config.Bool(false)
	f.srv.Apply(&next)

	if got := create("inherit-off", ""); got.IncludeHeaders == nil || *got.IncludeHeaders {
		t.Errorf("IncludeHeaders = %v, want false from export defaults", got.IncludeHeaders)
	}
	if got := create("explicit", `,"include_headers":true`); got.IncludeHeaders == nil || !*got.IncludeHeaders {
		t.Errorf("IncludeHeaders = %v, want explicit true", got.IncludeHeaders)
	}
}

func TestScheduleErrors(t *testing.T) {
	f := newFixture(t)

	err := f.sched.Sync([]schedule.Schedule{{
		Name:     "weekly-report",
		Datasets: []string{waitlist.DatasetCities},
		Format:   export.FormatPDF,
		Kind:     schedule.KindWeekly,
		Time:     "08:30",
		Timezone: "UTC",
	}})
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	configID := schedule.ConfigID("weekly-report")

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{name: "delete config schedule", method: http.MethodDelete, path: "/api/v1/admin/schedules/" + configID, wantStatus: http.StatusConflict},
		{name: "invalid time", method: http.MethodPost, path: "/api/v1/admin/schedules", body: `{"name":"x","datasets":["waitlist_entries"],"kind":"daily","time":"25:00"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown kind", method: http.MethodPost, path: "/api/v1/admin/schedules", body: `{"name":"x","datasets":["waitlist_entries"],"kind":"hourly","time":"10:00"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown dataset", method: http.MethodPost, path: "/api/v1/admin/schedules", body: `{"name":"x","datasets":["nope"],"kind":"daily","time":"10:00"}`, wantStatus: http.StatusBadRequest},
		{name: "run unknown", method: http.MethodPost, path: "/api/v1/admin/schedules/missing/run", wantStatus: http.StatusNotFound},
		{name: "pause unknown", method: http.MethodPost, path: "/api/v1/admin/schedules/missing/pause", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(tt.method, tt.path, tt.body, true)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}
		})
	}
}

func TestPublicEndpoints(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		path       string
		wantStatus int
		contains   string
	}{
		{path: "/health", wantStatus: http.StatusOK, contains: `"status"`},
		{path: "/ready", wantStatus: http.StatusOK, contains: `"status"`},
		{path: "/version", wantStatus: http.StatusOK, contains: `"version":"test"`},
		{path: "/nope", wantStatus: http.StatusNotFound, contains: ErrorTypeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := f.do(http.MethodGet, tt.path, "", false)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("body %q does not contain %q", rec.Body, tt.contains)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(http.MethodGet, "/health", "", false)

	rec := f.do(http.MethodGet, "/metrics", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "movrr_http_requests_total") || !strings.Contains(body, `route="GET /health"`) {
		t.Errorf("metrics output missing request counter:\n%s", body)
	}
}
