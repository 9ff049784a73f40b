package journal

import (
	"context"
	"time"

	"venuepoint-terminal/internal/model"
)

// Repository defines local transaction journal storage.
type Repository interface {
	// Insert appends one journal entry.
	Insert(ctx context.Context, entry *model.JournalEntry) error

	// List returns entries newest first, with the total count.
	List(ctx context.Context, limit, offset int) ([]model.JournalEntry, int64, error)

	// DeleteOlderThan removes entries created before cutoff and returns
	// how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Close closes the repository connection.
	Close() error
}
