package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"movrr/waitlist/pkg/export"
)

type recordingReporter struct {
	updates []int
	errs    []error
}

func (r *recordingReporter) Start(int)                 {}
func (r *recordingReporter) Update(done int, _ string) { r.updates = append(r.updates, done) }
func (r *recordingReporter) Finish()                   {}
func (r *recordingReporter) Error(err error)           { r.errs = append(r.errs, err) }

func TestBatchObserver(t *testing.T) {
	rep := &recordingReporter{}
	observe := BatchObserver(rep)

	events := []export.Progress{
		{Dataset: "a", Status: export.StatusPending},
		{Dataset: "b", Status: export.StatusPending},
		{Dataset: "a", Status: export.StatusProcessing},
		{Dataset: "a", Status: export.StatusCompleted},
		{Dataset: "b", Status: export.StatusProcessing},
		{Dataset: "b", Status: export.StatusError, Error: "invalid UTF-8 text"},
	}
	for i, p := range events {
		observe(export.ProgressEvent{Seq: uint64(i + 1), Progress: p})
	}

	want := []int{0, 1, 1, 2}
	if len(rep.updates) != len(want) {
		t.Fatalf("updates = %v, want %v", rep.updates, want)
	}
	for i := range want {
		if rep.updates[i] != want[i] {
			t.Errorf("updates = %v, want %v", rep.updates, want)
			break
		}
	}
	if len(rep.errs) != 1 || !strings.Contains(rep.errs[0].Error(), "b: invalid UTF-8 text") {
		t.Errorf("errors = %v", rep.errs)
	}
}

func TestSimpleProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf)

	p.Start(2)
	p.Update(1, "waitlist_entries")
	p.Error(errors.New("city_breakdown: boom"))
	p.Update(2, "city_breakdown")
	p.Finish()

	out := buf.String()
	for _, want := range []string{"1/2 waitlist_entries", "2/2 city_breakdown", "✗ city_breakdown: boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("Finish() did not end the line")
	}
}

func TestSimpleProgressZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf)
	p.Start(0)
	p.Update(0, "x")
	if buf.Len() != 0 {
		t.Errorf("output = %q, want nothing for an empty run", buf.String())
	}
}
