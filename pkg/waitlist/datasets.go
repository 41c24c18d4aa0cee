package waitlist

import (
	"context"
	"fmt"
	"math"
	"time"

	"movrr/waitlist/pkg/export"
)

// Dataset names offered to the export endpoints.
const (
	DatasetEntries       = "waitlist_entries"
	DatasetCities        = "city_breakdown"
	DatasetOwnership     = "bike_ownership"
	DatasetRecentSignups = "recent_signups"
)

// DatasetInfo describes an exportable dataset.
type DatasetInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Fields      []string `json:"fields"`
}

var catalog = []DatasetInfo{
	{
		Name:        DatasetEntries,
		Description: "Every waitlist signup",
		Fields:      []string{"id", "name", "email", "city", "bike_ownership", "created_at"},
	},
	{
		Name:        DatasetCities,
		Description: "Signups per city",
		Fields:      []string{"city", "signups", "owners", "planning"},
	},
	{
		Name:        DatasetOwnership,
		Description: "Signups per bike ownership answer",
		Fields:      []string{"bike_ownership", "signups", "share"},
	},
	{
		Name:        DatasetRecentSignups,
		Description: "Signups from the last 7 days",
		Fields:      []string{"id", "name", "email", "city", "bike_ownership", "created_at"},
	},
}

// Catalog lists the available datasets.
func Catalog() []DatasetInfo {
	out := make([]DatasetInfo, len(catalog))
	copy(out, catalog)
	return out
}

// DatasetNames returns the names of every dataset in catalog order.
func DatasetNames() []string {
	names := make([]string, len(catalog))
	for i, d := range catalog {
		names[i] = d.Name
	}
	return names
}

// EntryRecord converts an entry into an export record.
func EntryRecord(e *Entry) export.Record {
	return export.NewRecord(
		export.F("id", e.ID),
		export.F("name", e.Name),
		export.F("email", e.Email),
		export.F("city", e.City),
		export.F("bike_ownership", string(e.BikeOwnership)),
		export.F("created_at", e.CreatedAt.UTC()),
	)
}

// EntryRecords converts entries in order.
func EntryRecords(entries []*Entry) []export.Record {
	out := make([]export.Record, len(entries))
	for i, e := range entries {
		out[i] = EntryRecord(e)
	}
	return out
}

// BuildDataset produces the records of dataset name from entries.
func BuildDataset(name string, entries []*Entry, now time.Time) (export.Dataset, error) {
	switch name {
	case DatasetEntries:
		return export.Dataset{Name: name, Records: EntryRecords(entries)}, nil

	case DatasetRecentSignups:
		cutoff := now.Add(-RecentWindow)
		var recent []*Entry
		for _, e := range entries {
			if e.CreatedAt.After(cutoff) && !e.CreatedAt.After(now) {
				recent = append(recent, e)
			}
		}
		return export.Dataset{Name: name, Records: EntryRecords(recent)}, nil

	case DatasetCities:
		var records []export.Record
		for _, c := range CityBreakdown(entries) {
			records = append(records, export.NewRecord(
				export.F("city", c.City),
				export.F("signups", c.Signups),
				export.F("owners", c.Owners),
				export.F("planning", c.Planning),
			))
		}
		return export.Dataset{Name: name, Records: records}, nil

	case DatasetOwnership:
		if len(entries) == 0 {
			return export.Dataset{Name: name}, nil
		}
		stats := ComputeStats(entries, now)
		var records []export.Record
		for _, b := range []BikeOwnership{OwnsBike, PlanningBike, NoBike} {
			n := stats.OwnershipCount(b)
			share := math.Round(float64(n)*1000/float64(len(entries))) / 10
			records = append(records, export.NewRecord(
				export.F("bike_ownership", string(b)),
				export.F("signups", n),
				export.F("share", share),
			))
		}
		return export.Dataset{Name: name, Records: records}, nil
	}
	return export.Dataset{}, fmt.Errorf("dataset %q: %w", name, ErrNotFound)
}

// Datasets loads every entry once and builds the named datasets in order.
func Datasets(ctx context.Context, store Store, names []string, now time.Time) ([]export.Dataset, error) {
	entries, err := store.List(ctx, ListQuery{})
	if err != nil {
		return nil, err
	}

	out := make([]export.Dataset, 0, len(names))
	for _, name := range names {
		ds, err := BuildDataset(name, entries, now)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, nil
}
