package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileStore_WritesDefaultsWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.txt")

	s, err := NewFileStore(path, 10)
	require.NoError(t, err)
	got, err := s.TopScores(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 10)
	assert.Equal(t, "Player1", got[0].Name)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 10)
	assert.Equal(t, "Player1,100", lines[0])
}

func TestNewFileStore_EmptyFileGetsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	s, err := NewFileStore(path, 10)
	require.NoError(t, err)
	got, _ := s.TopScores(context.Background(), 0)
	assert.Len(t, got, 10)
}

func TestNewFileStore_ReadsAndSortsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.txt")
	content := "low,10\nbroken line\nhigh,900\nmid, 400\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := NewFileStore(path, 10)
	require.NoError(t, err)
	got, _ := s.TopScores(context.Background(), 10)
	assert.Equal(t, []string{"high", "mid", "low"}, names(got))
}

func TestFileStore_InsertScorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.txt")
	s, err := NewFileStore(path, 10)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.InsertScore(ctx, ScoreRecord{Name: "Ada, Lovelace", Score: 2500}))

	reopened, err := NewFileStore(path, 10)
	require.NoError(t, err)
	got, _ := reopened.TopScores(ctx, 10)
	require.Len(t, got, 10)
	assert.Equal(t, "Ada  Lovelace", got[0].Name)
	assert.Equal(t, 2500, got[0].Score)
	assert.Equal(t, "Player9", got[9].Name, "Player10 drops off")
}

func TestFileStore_NonQualifyingScoreIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.txt")
	s, err := NewFileStore(path, 10)
	require.NoError(t, err)

	before, _ := os.ReadFile(path)
	require.NoError(t, s.InsertScore(context.Background(), ScoreRecord{Name: "nope", Score: 0}))
	after, _ := os.ReadFile(path)
	assert.Equal(t, string(before), string(after))
}

func TestNilStoreIsNoop(t *testing.T) {
	var s *Store
	ctx := context.Background()
	assert.NoError(t, s.InsertScore(ctx, ScoreRecord{Name: "x", Score: 1}))
	got, err := s.TopScores(ctx, 5)
	assert.NoError(t, err)
	assert.Empty(t, got)
	s.Close()
}
