package export

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"
)

// Table is the projected input of an encoder: the column order and the rows
// already narrowed to those columns.
type Table struct {
	Fields         []string
	Rows           []Record
	IncludeHeaders bool
}

// Encoder converts a table into the bytes of one artifact. Implementations
// build all state per call and are safe for concurrent use.
type Encoder interface {
	Format() Format
	Encode(ctx context.Context, t Table) ([]byte, error)
}

// Registry maps formats to encoders.
type Registry struct {
	mu       sync.RWMutex
	encoders map[Format]Encoder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{encoders: make(map[Format]Encoder)}
}

// DefaultRegistry returns a registry holding the four built-in encoders
// configured with style.
func DefaultRegistry(style Style) *Registry {
	r := NewRegistry()
	r.Register(NewCSVEncoder())
	r.Register(NewXLSXEncoder(style.Sheet))
	r.Register(NewPDFEncoder(style.Document))
	r.Register(NewJSONEncoder())
	return r
}

// Register adds or replaces the encoder for its format.
func (r *Registry) Register(e Encoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.encoders[e.Format()] = e
}

// Lookup returns the encoder for f, or a *ConfigurationError.
func (r *Registry) Lookup(f Format) (Encoder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.encoders[f]
	if !ok {
		return nil, NewUnsupportedFormatError(string(f))
	}
	return e, nil
}

// cells returns the text of every field of row in column order.
func (t Table) cells(row Record) []string {
	out := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		out[i] = row.Value(f).Text()
	}
	return out
}

// checkText rejects field names and string values that are not valid UTF-8.
func (t Table) checkText() error {
	for _, f := range t.Fields {
		if !utf8.ValidString(f) {
			return fmt.Errorf("field name %q: %w", f, ErrInvalidText)
		}
	}
	for i, row := range t.Rows {
		for _, f := range t.Fields {
			v := row.Value(f)
			if v.Kind() == KindString && !utf8.ValidString(v.s) {
				return fmt.Errorf("row %d field %s: %w", i, f, ErrInvalidText)
			}
		}
	}
	return nil
}

// prepare runs the checks shared by every encoder.
func (t Table) prepare(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.checkText()
}
