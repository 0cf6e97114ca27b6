package storage

import "context"

// ScoreStore abstracts persistence for the high-score table.
// Implementations can be swapped for testing (fakes) or different backends (Postgres, local file).
type ScoreStore interface {
	// Read
	TopScores(ctx context.Context, limit int) ([]ScoreRecord, error)
	BestForUser(ctx context.Context, userID string) (*ScoreRecord, error)

	// Write
	InsertScore(ctx context.Context, rec ScoreRecord) error

	// Lifecycle
	Close()
}

// Ensure both backends implement ScoreStore at compile time.
var (
	_ ScoreStore = (*Store)(nil)
	_ ScoreStore = (*FileStore)(nil)
)
