package export

import (
	"strings"
	"unicode"
)

// AvailableFields returns the field names of the first record in its own
// key order. Later records are not inspected.
func AvailableFields(records []Record) []string {
	if len(records) == 0 {
		return []string{}
	}
	return records[0].Keys()
}

// Project returns a new record holding only the requested fields that exist
// in r, in the order of fields. Missing fields are skipped.
func Project(r Record, fields []string) Record {
	out := Record{}
	for _, name := range fields {
		if v, ok := r.Get(name); ok {
			out.Set(name, v)
		}
	}
	return out
}

// ProjectAll applies Project to every record.
func ProjectAll(records []Record, fields []string) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = Project(r, fields)
	}
	return out
}

// FieldLabel turns a snake_case field name into a Title Case label, e.g.
// "bike_ownership" becomes "Bike Ownership".
func FieldLabel(name string) string {
	parts := strings.Split(name, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		runes := []rune(p)
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
