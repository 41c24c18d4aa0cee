package export

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Kind identifies the dynamic type held by a Value.
type Kind int

const (
	KindAbsent Kind = iota
	KindString
	KindNumber
	KindDate
	KindBool
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindBool:
		return "bool"
	default:
		return "absent"
	}
}

// Value is a tagged scalar. The zero Value is absent.
type Value struct {
	kind Kind
	s    string
	n    float64
	t    time.Time
	b    bool
}

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Int returns a numeric value from an integer.
func Int(n int64) Value { return Value{kind: KindNumber, n: float64(n)} }

// Date returns a date value.
func Date(t time.Time) Value { return Value{kind: KindDate, t: t} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Absent returns the absent value.
func Absent() Value { return Value{} }

// Kind returns the dynamic type of v.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether v holds no value.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Raw returns the underlying Go value: string, float64, time.Time, bool or nil.
func (v Value) Raw() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return v.n
	case KindDate:
		return v.t
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// Text returns the natural textual representation of v. Absent values
// render as the empty string.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindDate:
		return v.t.UTC().Format(time.RFC3339)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Equal reports whether v and o hold the same kind and value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindNumber:
		return v.n == o.n
	case KindDate:
		return v.t.Equal(o.t)
	case KindBool:
		return v.b == o.b
	default:
		return true
	}
}

// MarshalJSON encodes dates as RFC 3339 strings and absent values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.s)
	case KindNumber:
		return json.Marshal(v.n)
	case KindDate:
		return json.Marshal(v.t.UTC().Format(time.RFC3339Nano))
	case KindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

// ValueOf converts a plain Go value into a Value. Unsupported types are
// absent.
func ValueOf(x any) Value {
	switch t := x.(type) {
	case nil:
		return Absent()
	case Value:
		return t
	case string:
		return String(t)
	case int:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case uint:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case float32:
		return Number(float64(t))
	case float64:
		return Number(t)
	case bool:
		return Bool(t)
	case time.Time:
		return Date(t)
	case *time.Time:
		if t == nil {
			return Absent()
		}
		return Date(*t)
	default:
		return Absent()
	}
}

// Field is one name/value pair of a Record.
type Field struct {
	Name  string
	Value Value
}

// Record is an ordered mapping from field name to Value. Keys keep their
// insertion order; setting an existing key keeps its position.
type Record struct {
	keys   []string
	values map[string]Value
}

// NewRecord builds a record from fields in order.
func NewRecord(fields ...Field) Record {
	r := Record{}
	for _, f := range fields {
		r.Set(f.Name, f.Value)
	}
	return r
}

// F is shorthand for building a Field from a plain Go value.
func F(name string, value any) Field {
	return Field{Name: name, Value: ValueOf(value)}
}

// Set stores value under name.
func (r *Record) Set(name string, value Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[name]; !ok {
		r.keys = append(r.keys, name)
	}
	r.values[name] = value
}

// Get returns the value stored under name and whether the key exists.
func (r Record) Get(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Value returns the value under name, or absent.
func (r Record) Value(name string) Value {
	return r.values[name]
}

// Has reports whether name is a key of r.
func (r Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Keys returns the field names in insertion order.
func (r Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of fields.
func (r Record) Len() int { return len(r.keys) }

// Equal reports whether r and o hold the same keys with equal values,
// regardless of order.
func (r Record) Equal(o Record) bool {
	if len(r.keys) != len(o.keys) {
		return false
	}
	for k, v := range r.values {
		ov, ok := o.values[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// MarshalJSON writes the record as an object with keys in order. Absent
// values are omitted.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for _, k := range r.keys {
		v := r.values[k]
		if v.IsAbsent() {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := v.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
