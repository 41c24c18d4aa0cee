package export

import (
	"errors"
	"time"
)

// Date fields consulted by FilterByDate, in order of preference.
const (
	FieldCreatedAt = "created_at"
	FieldDate      = "date"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// RecordDate returns the timestamp of r read from created_at, falling back
// to date. ok is false when neither holds a parseable date.
func RecordDate(r Record) (time.Time, bool) {
	v, found := r.Get(FieldCreatedAt)
	if !found || v.IsAbsent() || v.Text() == "" {
		v, found = r.Get(FieldDate)
	}
	if !found {
		return time.Time{}, false
	}
	return parseDate(v)
}

func parseDate(v Value) (time.Time, bool) {
	switch v.Kind() {
	case KindDate:
		return v.t, true
	case KindString:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v.s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// FilterByDate keeps the records whose date falls within r. Records without
// a parseable date are dropped. A nil range returns records unchanged.
func FilterByDate(records []Record, r *DateRange) []Record {
	if r == nil {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		t, ok := RecordDate(rec)
		if ok && r.Contains(t) {
			out = append(out, rec)
		}
	}
	return out
}

// ParseDateRange builds a range from user input. Each bound is RFC 3339 or
// YYYY-MM-DD; a date-only end covers that whole day. An empty bound is open.
// Both empty returns nil.
func ParseDateRange(start, end string) (*DateRange, error) {
	if start == "" && end == "" {
		return nil, nil
	}

	r := &DateRange{
		Start: time.Time{},
		End:   time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC),
	}
	if start != "" {
		t, _, err := parseBound(start)
		if err != nil {
			return nil, &ConfigurationError{Option: "start", Value: start, Cause: err}
		}
		r.Start = t
	}
	if end != "" {
		t, dateOnly, err := parseBound(end)
		if err != nil {
			return nil, &ConfigurationError{Option: "end", Value: end, Cause: err}
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		r.End = t
	}
	if r.End.Before(r.Start) {
		return nil, &ConfigurationError{Option: "end", Value: end, Cause: errors.New("end is before start")}
	}
	return r, nil
}

func parseBound(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, errors.New("want YYYY-MM-DD or RFC 3339")
	}
	return t, false, nil
}
