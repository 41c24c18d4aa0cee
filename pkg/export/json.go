package export

import (
	"context"
	"encoding/json"
	"time"
)

// Envelope is the top-level object of a JSON artifact.
type Envelope struct {
	ExportedAt   string   `json:"exportedAt"`
	TotalRecords int      `json:"totalRecords"`
	Data         []Record `json:"data"`
}

// JSONEncoder writes an Envelope indented by two spaces. Headers do not
// apply: field names are the object keys.
type JSONEncoder struct {
	now func() time.Time
}

// NewJSONEncoder creates a new JSON encoder.
func NewJSONEncoder() *JSONEncoder {
	return &JSONEncoder{now: time.Now}
}

// Format implements Encoder.
func (e *JSONEncoder) Format() Format { return FormatJSON }

// Encode implements Encoder.
func (e *JSONEncoder) Encode(ctx context.Context, t Table) ([]byte, error) {
	if err := t.prepare(ctx); err != nil {
		return nil, err
	}

	env := Envelope{
		ExportedAt:   e.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		TotalRecords: len(t.Rows),
		Data:         t.Rows,
	}
	if env.Data == nil {
		env.Data = []Record{}
	}
	return json.MarshalIndent(env, "", "  ")
}
