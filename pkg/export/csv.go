package export

import (
	"bytes"
	"context"
	"encoding/csv"
)

// CSVEncoder writes comma-separated text with RFC 4180 quoting and "\n"
// line endings.
type CSVEncoder struct{}

// NewCSVEncoder creates a new CSV encoder.
func NewCSVEncoder() *CSVEncoder {
	return &CSVEncoder{}
}

// Format implements Encoder.
func (e *CSVEncoder) Format() Format { return FormatCSV }

// Encode implements Encoder.
func (e *CSVEncoder) Encode(ctx context.Context, t Table) ([]byte, error) {
	if err := t.prepare(ctx); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	// Besides commas and quotes, values with a leading space or a line break
	// are quoted too.
	writer := csv.NewWriter(&buf)

	if t.IncludeHeaders {
		if err := writer.Write(t.Fields); err != nil {
			return nil, err
		}
	}
	for _, row := range t.Rows {
		if err := writer.Write(t.cells(row)); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	// Rows are joined by newlines; drop the terminator after the last one.
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
