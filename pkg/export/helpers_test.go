package export

import (
	"time"
)

var testTime = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testTime }

func signupRecords() []Record {
	return []Record{
		NewRecord(
			F("id", "1"),
			F("name", "Ada Lovelace"),
			F("email", "ada@example.com"),
			F("city", "London"),
			F("bike_ownership", "yes"),
			F("created_at", "2025-03-01T10:00:00Z"),
		),
		NewRecord(
			F("id", "2"),
			F("name", "Smith, \"Bob\""),
			F("email", "bob@example.com"),
			F("city", "Amsterdam"),
			F("bike_ownership", "planning"),
			F("created_at", "2025-03-05T12:00:00Z"),
		),
		NewRecord(
			F("id", "3"),
			F("name", "Grace Hopper"),
			F("email", "grace@example.com"),
			F("city", "Berlin"),
			F("bike_ownership", "no"),
			F("created_at", "2025-03-09T08:15:00Z"),
		),
	}
}

func newTestExporter() *Exporter {
	reg := DefaultRegistry(DefaultStyle())
	reg.Register(&JSONEncoder{now: fixedClock})
	reg.Register(&PDFEncoder{style: DefaultStyle().Document, now: fixedClock})
	return NewExporter(reg, nil, nil)
}
