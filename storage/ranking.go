package storage

import (
	"fmt"
	"slices"
	"time"
)

// DefaultLimit is the number of records a leaderboard keeps.
const DefaultLimit = 10

const (
	defaultSeedScore = 100
	maxLimit         = 200
)

// ScoreRecord is a single leaderboard row.
type ScoreRecord struct {
	Name          string    `json:"name"`
	UserID        string    `json:"user_id,omitempty"`
	Score         int       `json:"score"`
	Level         int       `json:"level"`
	PlayedAt      time.Time `json:"played_at"`
	IsCurrentUser bool      `json:"is_current_user,omitempty"`
}

// DefaultScores returns the seed table used when no scores exist yet: Player1..PlayerN at 100 points.
func DefaultScores(n int) []ScoreRecord {
	out := make([]ScoreRecord, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, ScoreRecord{Name: fmt.Sprintf("Player%d", i), Score: defaultSeedScore})
	}
	return out
}

// Rank inserts rec into records and returns a new slice ordered by score descending, truncated to limit.
// Ties keep the earlier record first, so a new score must beat an existing one to overtake it.
// The input slice is not modified.
func Rank(records []ScoreRecord, rec ScoreRecord, limit int) []ScoreRecord {
	out := make([]ScoreRecord, 0, len(records)+1)
	out = append(out, records...)
	out = append(out, rec)
	return sortScores(out, limit)
}

// sortScores orders records in place by score descending (stable) and truncates to limit.
func sortScores(records []ScoreRecord, limit int) []ScoreRecord {
	slices.SortStableFunc(records, func(a, b ScoreRecord) int {
		return b.Score - a.Score
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records
}

// Qualifies reports whether score would enter a table of records capped at limit.
func Qualifies(records []ScoreRecord, score, limit int) bool {
	if limit <= 0 || len(records) < limit {
		return true
	}
	lowest := records[0].Score
	for _, r := range records[1:] {
		lowest = min(lowest, r.Score)
	}
	return score > lowest
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, maxLimit)
}
