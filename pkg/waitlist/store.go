package waitlist

import (
	"context"
	"time"
)

// ListQuery filters and bounds a listing. Zero values mean no bound.
type ListQuery struct {
	// Since and Until bound created_at inclusively.
	Since *time.Time
	Until *time.Time

	// City matches case-insensitively when set.
	City string

	// Limit caps the number of entries; 0 returns all.
	Limit int
}

func (q ListQuery) matches(e *Entry) bool {
	if q.Since != nil && e.CreatedAt.Before(*q.Since) {
		return false
	}
	if q.Until != nil && e.CreatedAt.After(*q.Until) {
		return false
	}
	if q.City != "" && !equalFoldTrim(q.City, e.City) {
		return false
	}
	return true
}

// Store persists waitlist entries. List returns entries newest first.
type Store interface {
	Add(ctx context.Context, e *Entry) error
	Get(ctx context.Context, id string) (*Entry, error)
	List(ctx context.Context, q ListQuery) ([]*Entry, error)
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}
