// Package waitlist implements the signup side of the launch site: entry
// validation, persistence, statistics for the admin dashboard and the
// datasets the admin can export.
//
// Entries are stored through the Store interface. SQLiteStore persists them
// with either the cgo driver ("sqlite3") or the pure Go driver ("sqlite");
// MemoryStore keeps them in memory for tests and demos.
//
// Datasets turns stored entries into export.Dataset values:
//
//	datasets, err := waitlist.Datasets(ctx, store, []string{"waitlist_entries", "city_breakdown"}, time.Now())
package waitlist
