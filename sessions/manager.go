package sessions

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"tetrecs-server/auth"
	"tetrecs-server/config"
	"tetrecs-server/game"
	"tetrecs-server/gameerrors"
	"tetrecs-server/storage"
	"tetrecs-server/ws"
)

const recordTimeout = 5 * time.Second

// Player identifies who a session's score belongs to.
type Player struct {
	Name   string
	UserID string
}

// FinishedFunc is called once a session's score has been stored, with the
// leaderboard as it stands afterwards.
type FinishedFunc func(game.Summary, []storage.ScoreRecord)

// Manager creates sessions, tracks the live ones and records their final scores.
type Manager struct {
	config    *config.Config
	store     storage.ScoreStore
	validator *auth.Validator

	newSource    func() game.PieceSource
	newScheduler func() game.Scheduler

	mu    sync.Mutex
	games map[string]*game.Game
}

// Option configures a Manager.
type Option func(*Manager)

// WithPieceSource sets the factory used to build each session's piece source.
func WithPieceSource(f func() game.PieceSource) Option {
	return func(m *Manager) { m.newSource = f }
}

// WithScheduler sets the factory used to build each session's timer scheduler.
func WithScheduler(f func() game.Scheduler) Option {
	return func(m *Manager) { m.newScheduler = f }
}

// WithValidator enables JWT identification of players.
func WithValidator(v *auth.Validator) Option {
	return func(m *Manager) { m.validator = v }
}

// NewManager creates a Manager. store may be nil, in which case scores are not kept.
func NewManager(cfg *config.Config, store storage.ScoreStore, opts ...Option) *Manager {
	m := &Manager{
		config:       cfg,
		store:        store,
		newSource:    func() game.PieceSource { return game.NewRandomSource(0) },
		newScheduler: func() game.Scheduler { return game.ClockScheduler{} },
		games:        make(map[string]*game.Game),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create builds a session for p, subscribes obs, and starts its loop. The
// session is not started; call Start on the returned game. finished may be nil.
func (m *Manager) Create(p Player, finished FinishedFunc, obs ...game.Observer) *game.Game {
	id := uuid.NewString()
	g := game.NewGame(id, m.config, m.newSource(), m.newScheduler())
	for _, o := range obs {
		g.Subscribe(o)
	}

	m.mu.Lock()
	m.games[id] = g
	m.mu.Unlock()

	go g.Run()
	go func() {
		<-g.Done()
		m.mu.Lock()
		delete(m.games, id)
		m.mu.Unlock()
		// The loop has exited, so every event of the session was delivered before this.
		final := g.Snapshot()
		m.record(id, p, game.Summary{Score: final.Score, Level: final.Level, Lives: final.Lives, Reason: final.Reason}, finished)
	}()

	slog.Info("session created", "tag", "sessions", "session", id, "name", p.Name)
	return g
}

func (m *Manager) record(id string, p Player, sum game.Summary, finished FinishedFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	var top []storage.ScoreRecord
	if m.store != nil {
		rec := storage.ScoreRecord{Name: p.Name, UserID: p.UserID, Score: sum.Score, Level: sum.Level, PlayedAt: time.Now().UTC()}
		if err := m.store.InsertScore(ctx, rec); err != nil {
			slog.Error("failed to store score", "tag", "sessions", "session", id, "err", err)
		}
		var err error
		top, err = m.store.TopScores(ctx, m.config.LeaderboardSize)
		if err != nil {
			slog.Error("failed to load leaderboard", "tag", "sessions", "session", id, "err", err)
		}
	}
	if top == nil {
		top = []storage.ScoreRecord{}
	}
	for i := range top {
		top[i].IsCurrentUser = p.UserID != "" && top[i].UserID == p.UserID
	}
	if finished != nil {
		finished(sum, top)
	}
}

// Get returns a live session.
func (m *Manager) Get(id string) (*game.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, gameerrors.ErrSessionNotFound)
	}
	return g, nil
}

// Remove stops a live session. Its score is still recorded.
func (m *Manager) Remove(id string) error {
	g, err := m.Get(id)
	if err != nil {
		return err
	}
	g.Stop()
	return nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.games)
}

// Shutdown stops every live session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	live := make([]*game.Game, 0, len(m.games))
	for _, g := range m.games {
		live = append(live, g)
	}
	m.mu.Unlock()
	for _, g := range live {
		g.Stop()
	}
}

// ResolvePlayer identifies a player from a display name and an optional token.
// A token that fails validation is an error; without a validator the token is ignored.
func (m *Manager) ResolvePlayer(name, token string) (Player, error) {
	p := Player{Name: name}
	if token == "" || !m.validator.Enabled() {
		return p, nil
	}
	claims, err := m.validator.Validate(token)
	if err != nil {
		return Player{}, fmt.Errorf("invalid token: %w", err)
	}
	p.UserID = auth.UserIDFromClaims(claims)
	if p.Name == "" {
		p.Name = auth.FirstNameFromClaims(claims)
	}
	return p, nil
}

// Start implements ws.SessionManager: it creates a session whose events are
// streamed to the client, announces it and starts play.
func (m *Manager) Start(c *ws.Client, msg ws.StartMsg) (*game.Game, error) {
	p, err := m.ResolvePlayer(msg.Name, msg.Token)
	if err != nil {
		return nil, err
	}
	if n := utf8.RuneCountInString(p.Name); n < 1 || n > m.config.MaxNameLength {
		return nil, fmt.Errorf("name must be between 1 and %d characters", m.config.MaxNameLength)
	}
	c.Name, c.UserID = p.Name, p.UserID

	send := c.SendJSON
	finished := func(sum game.Summary, top []storage.ScoreRecord) {
		send(ws.SessionOverMsg{
			Type:        "session_over",
			Score:       sum.Score,
			Level:       sum.Level,
			Reason:      sum.Reason,
			Leaderboard: top,
		})
	}
	g := m.Create(p, finished, streamTo(send))

	send(ws.SessionStartedMsg{
		Type:      "session_started",
		SessionID: g.ID,
		Rows:      m.config.BoardRows,
		Cols:      m.config.BoardCols,
	})
	if err := g.Start(); err != nil {
		g.Stop()
		return nil, err
	}
	return g, nil
}
