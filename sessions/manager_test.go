package sessions

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tetrecs-server/auth"
	"tetrecs-server/config"
	"tetrecs-server/game"
	"tetrecs-server/gameerrors"
	"tetrecs-server/storage"
	"tetrecs-server/ws"
)

const idDot = 3

// memStore is an in-memory storage.ScoreStore.
type memStore struct {
	mu      sync.Mutex
	records []storage.ScoreRecord
}

func (s *memStore) TopScores(_ context.Context, limit int) ([]storage.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []storage.ScoreRecord{}
	for _, r := range s.records {
		out = storage.Rank(out, r, limit)
	}
	return out, nil
}

func (s *memStore) BestForUser(context.Context, string) (*storage.ScoreRecord, error) {
	return nil, nil
}

func (s *memStore) InsertScore(_ context.Context, rec storage.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *memStore) Close() {}

type idleTimer struct{}

func (idleTimer) Stop() bool { return true }

// idleScheduler never fires, so sessions only end when stopped.
type idleScheduler struct{}

func (idleScheduler) AfterFunc(time.Duration, func()) game.Timer { return idleTimer{} }

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.BoardRows, cfg.BoardCols = 5, 5
	return cfg
}

func newTestManager(store storage.ScoreStore, opts ...Option) *Manager {
	opts = append([]Option{
		WithPieceSource(func() game.PieceSource { return game.NewScriptedSource(idDot) }),
		WithScheduler(func() game.Scheduler { return idleScheduler{} }),
	}, opts...)
	return NewManager(testConfig(), store, opts...)
}

type finishResult struct {
	sum game.Summary
	top []storage.ScoreRecord
}

func TestCreate_RecordsScoreWhenStopped(t *testing.T) {
	store := &memStore{}
	m := newTestManager(store)

	done := make(chan finishResult, 1)
	g := m.Create(Player{Name: "Ada", UserID: "u1"}, func(sum game.Summary, top []storage.ScoreRecord) {
		done <- finishResult{sum, top}
	})
	assert.Equal(t, 1, m.Count())

	got, err := m.Get(g.ID)
	require.NoError(t, err)
	assert.Same(t, g, got)

	require.NoError(t, g.Start())
	for x := 0; x < 5; x++ {
		ok, err := g.Place(x, 0)
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.NoError(t, m.Remove(g.ID))

	select {
	case r := <-done:
		assert.Equal(t, game.Summary{Score: 50, Level: 0, Lives: 3, Reason: game.ReasonStopped}, r.sum)
		require.Len(t, r.top, 1)
		assert.Equal(t, "Ada", r.top[0].Name)
		assert.True(t, r.top[0].IsCurrentUser)
	case <-time.After(2 * time.Second):
		t.Fatal("finished was not called")
	}

	assert.Equal(t, 0, m.Count())
	_, err = m.Get(g.ID)
	assert.True(t, errors.Is(err, gameerrors.ErrSessionNotFound))
}

func TestRemove_Unknown(t *testing.T) {
	m := newTestManager(nil)
	assert.ErrorIs(t, m.Remove("missing"), gameerrors.ErrSessionNotFound)
}

func TestShutdownStopsAll(t *testing.T) {
	m := newTestManager(nil)
	a := m.Create(Player{Name: "a"}, nil)
	b := m.Create(Player{Name: "b"}, nil)

	m.Shutdown()

	for _, g := range []*game.Game{a, b} {
		select {
		case <-g.Done():
		case <-time.After(2 * time.Second):
			t.Fatal("session still running after Shutdown")
		}
	}
	require.Eventually(t, func() bool { return m.Count() == 0 }, time.Second, 5*time.Millisecond)
}

func TestResolvePlayer(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	const issuer = "https://auth.example.test"
	v := auth.NewStaticValidator(issuer, func(*jwt.Token) (any, error) { return pub, nil })
	m := newTestManager(nil, WithValidator(v))

	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.MapClaims{
		"iss": issuer, "sub": "user-7", "name": "Grace Hopper",
	}).SignedString(priv)
	require.NoError(t, err)

	p, err := m.ResolvePlayer("", token)
	require.NoError(t, err)
	assert.Equal(t, Player{Name: "Grace", UserID: "user-7"}, p)

	p, err = m.ResolvePlayer("Amazing Grace", token)
	require.NoError(t, err)
	assert.Equal(t, "Amazing Grace", p.Name, "an explicit name wins over the claim")

	_, err = m.ResolvePlayer("x", "not-a-token")
	assert.Error(t, err)
}

func TestResolvePlayer_NoValidatorIgnoresToken(t *testing.T) {
	m := newTestManager(nil)
	p, err := m.ResolvePlayer("Ada", "whatever")
	require.NoError(t, err)
	assert.Equal(t, Player{Name: "Ada"}, p)
}

// readTypes drains messages from send until one of type stop arrives.
func readTypes(t *testing.T, send chan []byte, stop string) []string {
	t.Helper()
	var types []string
	for {
		select {
		case data := <-send:
			var env struct {
				Type string `json:"type"`
			}
			require.NoError(t, json.Unmarshal(data, &env))
			types = append(types, env.Type)
			if env.Type == stop {
				return types
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s, got %v", stop, types)
		}
	}
}

func TestStart_StreamsEventsToClient(t *testing.T) {
	m := newTestManager(&memStore{})
	c := &ws.Client{Send: make(chan []byte, 64)}

	g, err := m.Start(c, ws.StartMsg{Type: "start", Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", c.Name)

	types := readTypes(t, c.Send, "state")
	assert.Equal(t, "session_started", types[0])
	assert.Contains(t, types, "piece_changed")
	assert.Contains(t, types, "tick")

	ok, err := g.Place(-5, -5)
	require.NoError(t, err)
	require.False(t, ok)
	assert.Contains(t, readTypes(t, c.Send, "state"), "placement_failed")

	g.Stop()
	types = readTypes(t, c.Send, "session_over")
	assert.Equal(t, "session_over", types[len(types)-1])
}

func TestStart_InvalidToken(t *testing.T) {
	v := auth.NewStaticValidator("https://auth.example.test", func(*jwt.Token) (any, error) {
		return nil, errors.New("no key")
	})
	m := newTestManager(nil, WithValidator(v))
	c := &ws.Client{Send: make(chan []byte, 8)}

	_, err := m.Start(c, ws.StartMsg{Name: "Ada", Token: "bad"})
	assert.Error(t, err)
	assert.Equal(t, 0, m.Count())
}

func TestStart_NameTooLongWithIgnoredToken(t *testing.T) {
	m := newTestManager(&memStore{})
	c := &ws.Client{Send: make(chan []byte, 8)}

	long := strings.Repeat("n", m.config.MaxNameLength+1)
	_, err := m.Start(c, ws.StartMsg{Name: long, Token: "anything"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name must be between")
	assert.Equal(t, 0, m.Count())
	assert.Empty(t, c.Name)
}

func TestStart_NameAtLimit(t *testing.T) {
	m := newTestManager(&memStore{})
	c := &ws.Client{Send: make(chan []byte, 64)}

	name := strings.Repeat("é", m.config.MaxNameLength)
	g, err := m.Start(c, ws.StartMsg{Name: name, Token: "anything"})
	require.NoError(t, err)
	assert.Equal(t, name, c.Name)
	g.Stop()
}
