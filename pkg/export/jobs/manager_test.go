package jobs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"movrr/waitlist/pkg/export"
)

var testNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func testRecords() []export.Record {
	return []export.Record{
		export.NewRecord(export.F("name", "Ada"), export.F("city", "London")),
		export.NewRecord(export.F("name", "Grace"), export.F("city", "Berlin")),
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(Config{
		Exporter:  export.NewExporter(export.DefaultRegistry(export.DefaultStyle()), nil, nil),
		Dir:       t.TempDir(),
		Retention: time.Hour,
	})
	m.now = func() time.Time { return testNow }
	t.Cleanup(m.Close)
	return m
}

func waitJob(t *testing.T, m *Manager, id string) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := m.Wait(ctx, id)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	return snap
}

func TestManager_SubmitAndDownload(t *testing.T) {
	m := newTestManager(t)
	datasets := []export.Dataset{
		{Name: "waitlist_entries", Records: testRecords()},
		{Name: "broken", Records: []export.Record{export.NewRecord(export.F("name", "\xff"))}},
	}

	id, err := m.Submit(context.Background(), datasets, export.NewOptions(export.FormatCSV))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	snap := waitJob(t, m, id)
	if snap.State != StateDone {
		t.Errorf("State = %s, want %s", snap.State, StateDone)
	}
	if snap.Completed != 1 || snap.Failed != 1 || snap.Total != 2 {
		t.Errorf("Completed, Failed, Total = %d, %d, %d", snap.Completed, snap.Failed, snap.Total)
	}
	if snap.FinishedAt == nil {
		t.Error("FinishedAt should be set")
	}
	if _, ok := snap.Errors["broken"]; !ok {
		t.Errorf("Errors = %v, want broken", snap.Errors)
	}

	wantFile := "waitlist_entries_2025-03-10.csv"
	if len(snap.Files) != 1 || snap.Files[0] != wantFile {
		t.Fatalf("Files = %v, want [%s]", snap.Files, wantFile)
	}

	f, err := m.Open(id, wantFile)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	if want := "name,city\nAda,London\nGrace,Berlin"; string(data) != want {
		t.Errorf("file = %q, want %q", data, want)
	}
}

func TestManager_Events(t *testing.T) {
	m := newTestManager(t)
	datasets := []export.Dataset{
		{Name: "a", Records: testRecords()},
		{Name: "b", Records: testRecords()},
	}
	id, err := m.Submit(context.Background(), datasets, export.NewOptions(export.FormatJSON))
	if err != nil {
		t.Fatal(err)
	}
	waitJob(t, m, id)

	all, err := m.Events(id, 0)
	if err != nil {
		t.Fatal(err)
	}
	// two pending, then processing and completed for each dataset
	if len(all) != 6 {
		t.Fatalf("got %d events, want 6", len(all))
	}
	for i, ev := range all {
		if ev.Seq != uint64(i+1) {
			t.Errorf("event %d Seq = %d, want %d", i, ev.Seq, i+1)
		}
	}

	tail, err := m.Events(id, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(tail) != 2 || tail[0].Seq != 5 {
		t.Errorf("Events(since=4) = %+v", tail)
	}
	if tail[1].Progress.Status != export.StatusCompleted || tail[1].Progress.Dataset != "b" {
		t.Errorf("last event = %+v", tail[1].Progress)
	}
}

func TestManager_UnknownJob(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.Get("nope"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Get() error = %v, want ErrJobNotFound", err)
	}
	if _, err := m.Events("nope", 0); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Events() error = %v, want ErrJobNotFound", err)
	}
	if err := m.Cancel("nope"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Cancel() error = %v, want ErrJobNotFound", err)
	}
}

func TestManager_OpenRejectsForeignFiles(t *testing.T) {
	m := newTestManager(t)
	id, err := m.Submit(context.Background(), []export.Dataset{{Name: "a", Records: testRecords()}}, export.NewOptions(export.FormatCSV))
	if err != nil {
		t.Fatal(err)
	}
	waitJob(t, m, id)

	for _, name := range []string{"../secrets.csv", "other_2025-03-10.csv", ""} {
		if _, err := m.Open(id, name); !errors.Is(err, ErrFileNotFound) {
			t.Errorf("Open(%q) error = %v, want ErrFileNotFound", name, err)
		}
	}
}

func TestManager_SubmitUnsupportedFormat(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Submit(context.Background(), nil, export.Options{Format: "xml"})

	var cfgErr *export.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Submit() error = %v, want ConfigurationError", err)
	}
	if len(m.List()) != 0 {
		t.Error("rejected submission should not be tracked")
	}
}

func TestManager_SubmitOutlivesRequestContext(t *testing.T) {
	m := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	id, err := m.Submit(ctx, []export.Dataset{{Name: "a", Records: testRecords()}}, export.NewOptions(export.FormatCSV))
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	snap := waitJob(t, m, id)
	if snap.State != StateDone || snap.Completed != 1 {
		t.Errorf("snapshot = %+v, want done with one completed dataset", snap)
	}
}

func TestManager_Prune(t *testing.T) {
	m := newTestManager(t)
	id, err := m.Submit(context.Background(), []export.Dataset{{Name: "a", Records: testRecords()}}, export.NewOptions(export.FormatCSV))
	if err != nil {
		t.Fatal(err)
	}
	waitJob(t, m, id)

	if n := m.Prune(); n != 0 {
		t.Fatalf("Prune() = %d before retention elapsed, want 0", n)
	}

	m.now = func() time.Time { return testNow.Add(2 * time.Hour) }
	if n := m.Prune(); n != 1 {
		t.Fatalf("Prune() = %d, want 1", n)
	}
	if _, err := m.Get(id); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Get() after prune error = %v, want ErrJobNotFound", err)
	}
	if _, err := os.Stat(filepath.Join(m.cfg.Dir, id)); !os.IsNotExist(err) {
		t.Errorf("job directory should be removed, stat error = %v", err)
	}
}

func TestManager_StartRejectsBadSchedule(t *testing.T) {
	m := NewManager(Config{Dir: t.TempDir(), PruneSchedule: "every tuesday"})
	err := m.Start(context.Background())
	if err == nil || !strings.Contains(err.Error(), "invalid prune schedule") {
		t.Errorf("Start() error = %v, want invalid prune schedule", err)
	}
}
