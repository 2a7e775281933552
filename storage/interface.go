package storage

import "context"

// HistoryStore abstracts persistence for match history and stats.
// Implementations can be swapped for testing (mocks) or different backends.
type HistoryStore interface {
	// Read
	ListRecent(ctx context.Context, limit, offset int) ([]MatchRecord, error)
	ListByUserID(ctx context.Context, userID string) ([]MatchRecord, error)
	GetStats(ctx context.Context) (*Stats, error)

	// Write
	InsertMatchResult(ctx context.Context, r MatchRecord) error

	// Lifecycle
	Close()
}

// Ensure *Store implements HistoryStore at compile time.
var _ HistoryStore = (*Store)(nil)
