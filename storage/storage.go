package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS scores (
	id        UUID PRIMARY KEY,
	user_id   TEXT NOT NULL DEFAULT '',
	name      TEXT NOT NULL,
	score     INT  NOT NULL,
	level     INT  NOT NULL DEFAULT 0,
	played_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_scores_score ON scores(score DESC, played_at ASC);
CREATE INDEX IF NOT EXISTS idx_scores_user_id ON scores(user_id);
`

const insertScoreSQL = `
INSERT INTO scores (id, user_id, name, score, level, played_at)
VALUES ($1, $2, $3, $4, $5, $6)`

// Store persists and retrieves scores in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres, ensures the scores table exists and seeds it when empty.
// If databaseURL is empty, NewStore returns (nil, nil) and no persistence occurs.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, err
	}
	s := &Store{pool: pool}
	if err := s.seed(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	slog.Info("connected to Postgres", "tag", "storage")
	return s, nil
}

// seed inserts the default table in one batch if no scores exist.
func (s *Store) seed(ctx context.Context) error {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM scores`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	batch := &pgx.Batch{}
	base := time.Now().UTC()
	for i, rec := range DefaultScores(DefaultLimit) {
		// Strictly increasing timestamps keep the seed order stable under played_at ASC.
		batch.Queue(insertScoreSQL, uuid.New(), "", rec.Name, rec.Score, 0, base.Add(time.Duration(i)*time.Millisecond))
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	slog.Info("seeded default scores", "tag", "storage", "count", DefaultLimit)
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// InsertScore stores one finished session.
func (s *Store) InsertScore(ctx context.Context, rec ScoreRecord) error {
	if s == nil || s.pool == nil {
		return nil
	}
	if rec.PlayedAt.IsZero() {
		rec.PlayedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, insertScoreSQL, uuid.New(), rec.UserID, rec.Name, rec.Score, rec.Level, rec.PlayedAt)
	return err
}

// TopScores returns up to limit records ordered by score DESC, oldest first among ties.
func (s *Store) TopScores(ctx context.Context, limit int) ([]ScoreRecord, error) {
	if s == nil || s.pool == nil {
		return []ScoreRecord{}, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT name, user_id, score, level, played_at
		FROM scores
		ORDER BY score DESC, played_at ASC
		LIMIT $1`,
		clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ScoreRecord{}
	for rows.Next() {
		var r ScoreRecord
		if err := rows.Scan(&r.Name, &r.UserID, &r.Score, &r.Level, &r.PlayedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// BestForUser returns the caller's highest score, or (nil, nil) if the user has none.
func (s *Store) BestForUser(ctx context.Context, userID string) (*ScoreRecord, error) {
	if s == nil || s.pool == nil || userID == "" {
		return nil, nil
	}
	var r ScoreRecord
	err := s.pool.QueryRow(ctx, `
		SELECT name, user_id, score, level, played_at
		FROM scores
		WHERE user_id = $1
		ORDER BY score DESC, played_at ASC
		LIMIT 1`,
		userID).Scan(&r.Name, &r.UserID, &r.Score, &r.Level, &r.PlayedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}
