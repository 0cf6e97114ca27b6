package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// FileStore keeps the top scores in a local text file, one "name,score" per line.
// It is safe for concurrent use.
type FileStore struct {
	mu      sync.Mutex
	path    string
	limit   int
	records []ScoreRecord
}

// NewFileStore opens path, writing the default table if the file is missing or empty.
// Malformed lines are skipped with a warning.
func NewFileStore(path string, limit int) (*FileStore, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	s := &FileStore{path: path, limit: limit}
	records, err := readScores(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if len(records) == 0 {
		records = DefaultScores(limit)
		if err := writeScores(path, records); err != nil {
			return nil, err
		}
		slog.Info("wrote default scores", "tag", "storage", "path", path)
	}
	s.records = sortScores(records, limit)
	return s, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// TopScores returns up to limit records ordered by score descending.
func (s *FileStore) TopScores(_ context.Context, limit int) ([]ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	limit = clampLimit(limit)
	n := min(limit, len(s.records))
	out := make([]ScoreRecord, n)
	copy(out, s.records[:n])
	return out, nil
}

// BestForUser always returns (nil, nil): the file format carries no user ids.
func (s *FileStore) BestForUser(context.Context, string) (*ScoreRecord, error) {
	return nil, nil
}

// InsertScore ranks rec into the table and rewrites the file. Records that do not
// make the top list leave the file untouched.
func (s *FileStore) InsertScore(_ context.Context, rec ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !Qualifies(s.records, rec.Score, s.limit) {
		return nil
	}
	rec.Name = cleanName(rec.Name)
	next := Rank(s.records, rec, s.limit)
	if err := writeScores(s.path, next); err != nil {
		return err
	}
	s.records = next
	return nil
}

// Close is a no-op; every insert is flushed immediately.
func (s *FileStore) Close() {}

func cleanName(name string) string {
	name = strings.NewReplacer("\n", " ", "\r", " ", ",", " ").Replace(name)
	name = strings.TrimSpace(name)
	if name == "" {
		return "Player"
	}
	return name
}

func readScores(path string) ([]ScoreRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []ScoreRecord
	sc := bufio.NewScanner(f)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		rec, err := parseScoreLine(text)
		if err != nil {
			slog.Warn("skipping malformed score line", "tag", "storage", "path", path, "line", line, "err", err)
			continue
		}
		out = append(out, rec)
	}
	return out, sc.Err()
}

func parseScoreLine(text string) (ScoreRecord, error) {
	i := strings.LastIndexByte(text, ',')
	if i <= 0 {
		return ScoreRecord{}, fmt.Errorf("missing separator in %q", text)
	}
	score, err := strconv.Atoi(strings.TrimSpace(text[i+1:]))
	if err != nil {
		return ScoreRecord{}, fmt.Errorf("bad score in %q: %w", text, err)
	}
	return ScoreRecord{Name: strings.TrimSpace(text[:i]), Score: score}, nil
}

// writeScores replaces the file atomically via a temp file in the same directory.
func writeScores(path string, records []ScoreRecord) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".scores-*")
	if err != nil {
		return err
	}
	w := bufio.NewWriter(tmp)
	for _, r := range records {
		fmt.Fprintf(w, "%s,%d\n", r.Name, r.Score)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
