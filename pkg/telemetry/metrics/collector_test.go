package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"movrr/waitlist/pkg/export"
	"movrr/waitlist/pkg/export/schedule"
	"movrr/waitlist/pkg/waitlist"
)

var (
	_ export.Recorder         = (*Collector)(nil)
	_ schedule.RunRecorder    = (*Collector)(nil)
	_ waitlist.SignupRecorder = (*Collector)(nil)
)

func TestCollector_RecordExport(t *testing.T) {
	c := NewCollector(true, prometheus.NewRegistry())

	c.RecordExport("csv", export.OutcomeSuccess, 3, 2048, 5*time.Millisecond)
	c.RecordExport("csv", export.OutcomeSuccess, 1, 512, time.Millisecond)
	c.RecordExport("csv", export.OutcomeEmpty, 0, 0, time.Millisecond)
	c.RecordExport("xml", export.OutcomeUnsupported, 0, 0, 0)

	tests := []struct {
		format, status string
		want           float64
	}{
		{"csv", export.OutcomeSuccess, 2},
		{"csv", export.OutcomeEmpty, 1},
		{"xml", export.OutcomeUnsupported, 1},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(c.export.total.WithLabelValues(tt.format, tt.status))
		if got != tt.want {
			t.Errorf("export_total{%s,%s} = %v, want %v", tt.format, tt.status, got, tt.want)
		}
	}

	if n := testutil.CollectAndCount(c.export.bytes); n != 1 {
		t.Errorf("export_bytes series = %d, want 1 (csv only)", n)
	}
}

func TestCollector_Counters(t *testing.T) {
	c := NewCollector(true, prometheus.NewRegistry())

	c.RecordBatchDataset("completed")
	c.RecordBatchDataset("completed")
	c.RecordBatchDataset("error")
	c.RecordScheduleRun(schedule.RunPartial)
	c.RecordSignup("yes")
	c.RecordHTTPRequest(http.MethodGet, "GET /api/v1/admin/export", 200, time.Millisecond)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"batch completed", testutil.ToFloat64(c.export.batchDatasets.WithLabelValues("completed")), 2},
		{"batch error", testutil.ToFloat64(c.export.batchDatasets.WithLabelValues("error")), 1},
		{"schedule partial", testutil.ToFloat64(c.export.scheduleRuns.WithLabelValues(schedule.RunPartial)), 1},
		{"signups yes", testutil.ToFloat64(c.signups.WithLabelValues("yes")), 1},
		{"http", testutil.ToFloat64(c.http.total.WithLabelValues("GET", "GET /api/v1/admin/export", "200")), 1},
	}
	for _, tt := range checks {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestCollector_Disabled(t *testing.T) {
	c := NewCollector(false, prometheus.NewRegistry())
	c.RecordSignup("no")
	c.RecordExport("csv", export.OutcomeSuccess, 1, 1, time.Millisecond)

	if got := testutil.ToFloat64(c.signups.WithLabelValues("no")); got != 0 {
		t.Errorf("disabled collector recorded signups = %v", got)
	}

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("disabled handler status = %d, want 404", rec.Code)
	}
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector(true, nil)
	c.RecordSignup("planning")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{`movrr_waitlist_signups_total{bike_ownership="planning"} 1`, "go_goroutines"} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
