package waitlist

import (
	"context"
	"fmt"
	"testing"
	"time"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func seedEntries() []*Entry {
	return []*Entry{
		{ID: "e1", Name: "Ada", Email: "ada@example.com", City: "Berlin", BikeOwnership: OwnsBike, CreatedAt: testNow.AddDate(0, 0, -20)},
		{ID: "e2", Name: "Bob", Email: "bob@example.com", City: "berlin ", BikeOwnership: PlanningBike, CreatedAt: testNow.AddDate(0, 0, -6)},
		{ID: "e3", Name: "Cy", Email: "cy@example.com", City: "Paris", BikeOwnership: NoBike, CreatedAt: testNow.AddDate(0, 0, -2)},
		{ID: "e4", Name: "Di", Email: "di@example.com", City: "Amsterdam", BikeOwnership: OwnsBike, CreatedAt: testNow.AddDate(0, 0, -1)},
	}
}

func fillStore(t *testing.T, s Store, entries []*Entry) {
	t.Helper()
	for _, e := range entries {
		if err := s.Add(context.Background(), e); err != nil {
			t.Fatalf("Add(%s) failed: %v", e.ID, err)
		}
	}
}

type countingRecorder struct {
	counts map[string]int
}

func (r *countingRecorder) RecordSignup(b string) {
	if r.counts == nil {
		r.counts = make(map[string]int)
	}
	r.counts[b]++
}

type failingNotifier struct {
	calls int
}

func (n *failingNotifier) SignupConfirmed(ctx context.Context, e *Entry) error {
	n.calls++
	return fmt.Errorf("smtp down")
}

func (n *failingNotifier) AdminNotified(ctx context.Context, e *Entry) error {
	n.calls++
	return fmt.Errorf("smtp down")
}
