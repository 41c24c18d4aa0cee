package export

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"testing"
)

func countPages(data []byte) int {
	return bytes.Count(data, []byte("/Type /Page\n"))
}

func TestPDFEncoder_Document(t *testing.T) {
	enc := &PDFEncoder{style: DefaultStyle().Document, now: fixedClock}
	fields := []string{"name", "city"}
	table := Table{Fields: fields, Rows: ProjectAll(signupRecords(), fields), IncludeHeaders: true}

	data, err := enc.Encode(context.Background(), table)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("output does not start with a PDF header")
	}
	if n := countPages(data); n != 1 {
		t.Errorf("page count = %d, want 1", n)
	}
}

func TestPDFEncoder_Paginates(t *testing.T) {
	enc := &PDFEncoder{style: DefaultStyle().Document, now: fixedClock}

	rows := make([]Record, 0, 300)
	for i := 0; i < 300; i++ {
		rows = append(rows, NewRecord(F("id", i), F("name", fmt.Sprintf("Rider %d", i))))
	}
	table := Table{Fields: []string{"id", "name"}, Rows: rows, IncludeHeaders: true}

	data, err := enc.Encode(context.Background(), table)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if n := countPages(data); n < 2 {
		t.Errorf("page count = %d, want more than one page", n)
	}
}

func TestPDFEncoder_SplitsRowTallerThanPage(t *testing.T) {
	enc := &PDFEncoder{style: DefaultStyle().Document, now: fixedClock}

	rows := []Record{
		NewRecord(F("id", 1), F("note", strings.Repeat("word ", 6000)), F("city", "Lisbon")),
		NewRecord(F("id", 2), F("note", "short"), F("city", "Porto")),
	}
	table := Table{Fields: []string{"id", "note", "city"}, Rows: rows, IncludeHeaders: true}

	data, err := enc.Encode(context.Background(), table)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if n := countPages(data); n <= 2 {
		t.Errorf("page count = %d, want the long cell continued over more than 2 pages", n)
	}
}

func TestHeaderLabels(t *testing.T) {
	got := headerLabels([]string{"name", "created_at", "bike_ownership"})
	want := []string{"Name", "Created At", "Bike Ownership"}
	if !slices.Equal(got, want) {
		t.Errorf("headerLabels() = %q, want %q", got, want)
	}
}

func TestPDFEncoder_AbsentValuesAndNoColumns(t *testing.T) {
	enc := &PDFEncoder{style: DefaultStyle().Document, now: fixedClock}

	tests := []struct {
		name  string
		table Table
	}{
		{
			name: "absent value",
			table: Table{
				Fields: []string{"a", "b"},
				Rows:   []Record{NewRecord(F("a", "x"))},
			},
		},
		{
			name: "no columns",
			table: Table{
				Rows: []Record{NewRecord()},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := enc.Encode(context.Background(), tt.table)
			if err != nil {
				t.Fatalf("Encode() failed: %v", err)
			}
			if bytes.Contains(data, []byte("undefined")) {
				t.Error("document contains the word undefined")
			}
		})
	}
}

func TestPDFEncoder_Landscape(t *testing.T) {
	style := DefaultStyle().Document
	style.LandscapeAbove = 1
	enc := &PDFEncoder{style: style, now: fixedClock}

	table := Table{
		Fields: []string{"a", "b"},
		Rows:   []Record{NewRecord(F("a", 1), F("b", 2))},
	}
	data, err := enc.Encode(context.Background(), table)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	// A4 landscape media box is 841.89 x 595.28 points.
	if !bytes.Contains(data, []byte("/MediaBox [0 0 841.89 595.28]")) {
		t.Error("expected a landscape A4 media box")
	}
}
