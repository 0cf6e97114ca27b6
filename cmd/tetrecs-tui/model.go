package main

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tetrecs-server/ai"
	"tetrecs-server/config"
	"tetrecs-server/game"
	"tetrecs-server/gameerrors"
	"tetrecs-server/storage"
)

const (
	frameInterval = 100 * time.Millisecond
	flashDuration = 400 * time.Millisecond
	eventBuffer   = 64
)

type frameMsg time.Time

type stateMsg struct{ snap game.Snapshot }

type clearedMsg struct{ cells []game.Coord }

type failedMsg struct{ x, y int }

type overMsg struct{ summary game.Summary }

type savedMsg struct {
	top []storage.ScoreRecord
	err error
}

type actionErrMsg struct{ err error }

type botStoppedMsg struct{}

type model struct {
	cfg   *config.Config
	game  *game.Game
	store *storage.FileStore
	name  string

	events  chan tea.Msg
	final   chan game.Summary
	actions chan func() error

	snap    game.Snapshot
	cursorX int
	cursorY int
	hint    *ai.Move
	status  string

	flash      map[game.Coord]bool
	flashUntil time.Time
	failedAt   time.Time

	bot context.CancelFunc

	over    bool
	summary game.Summary
	top     []storage.ScoreRecord
	saveErr error

	width, height int
}

func newModel(cfg *config.Config, g *game.Game, store *storage.FileStore, name string) model {
	m := model{
		cfg:     cfg,
		game:    g,
		store:   store,
		name:    name,
		events:  make(chan tea.Msg, eventBuffer),
		final:   make(chan game.Summary, 1),
		actions: make(chan func() error, eventBuffer),
		cursorX: cfg.BoardCols / 2,
		cursorY: cfg.BoardRows / 2,
	}
	g.Subscribe(m.observer())
	return m
}

// push delivers msg without blocking. A dropped state update is superseded
// by the next one.
func (m model) push(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
	}
}

// observer forwards game events to the program. It runs on the game goroutine,
// so it never blocks. SessionOver fires once and has its own slot, so it is
// never dropped.
func (m model) observer() game.Observer {
	return game.Observer{
		LinesCleared:    func(cells []game.Coord) { m.push(clearedMsg{cells}) },
		PlacementFailed: func(x, y int) { m.push(failedMsg{x, y}) },
		SessionOver: func(s game.Summary) {
			select {
			case m.final <- s:
			default:
			}
		},
		Updated: func(s game.Snapshot) { m.push(stateMsg{s}) },
	}
}

func (m model) Init() tea.Cmd {
	g := m.game
	go g.Run()
	go m.work()
	m.enqueue(g.Start)
	return tea.Batch(
		m.waitForEvent(),
		frameCmd(),
	)
}

func (m model) waitForEvent() tea.Cmd {
	events, final := m.events, m.final
	return func() tea.Msg {
		select {
		case msg := <-events:
			return msg
		case s := <-final:
			return overMsg{s}
		}
	}
}

func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// work runs game calls one at a time, in the order keys were pressed.
func (m model) work() {
	for f := range m.actions {
		if err := f(); err != nil && !errors.Is(err, gameerrors.ErrSessionOver) {
			m.push(actionErrMsg{err})
		}
	}
}

// enqueue hands f to the worker. It reports false when the queue is full.
func (m model) enqueue(f func() error) bool {
	select {
	case m.actions <- f:
		return true
	default:
		return false
	}
}

func (m model) act(f func() error) (tea.Model, tea.Cmd) {
	if !m.enqueue(f) {
		m.status = "Too many keys; slow down."
	}
	return m, nil
}

func (m model) finish(s game.Summary) (tea.Model, tea.Cmd) {
	m.over = true
	m.summary = s
	m.stopBot()
	return m, tea.Batch(m.saveScore(s), m.waitForEvent())
}

func (m model) saveScore(s game.Summary) tea.Cmd {
	store, name := m.store, m.name
	return func() tea.Msg {
		ctx := context.Background()
		err := store.InsertScore(ctx, storage.ScoreRecord{Name: name, Score: s.Score, Level: s.Level, PlayedAt: time.Now().UTC()})
		top, _ := store.TopScores(ctx, 0)
		return savedMsg{top: top, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case frameMsg:
		if m.over {
			return m, nil
		}
		return m, frameCmd()
	case stateMsg:
		m.snap = msg.snap
		m.hint = nil
		if msg.snap.Phase == game.Over && !m.over {
			s := msg.snap
			return m.finish(game.Summary{Score: s.Score, Level: s.Level, Lives: s.Lives, Reason: s.Reason})
		}
		return m, m.waitForEvent()
	case clearedMsg:
		m.flash = make(map[game.Coord]bool, len(msg.cells))
		for _, c := range msg.cells {
			m.flash[c] = true
		}
		m.flashUntil = time.Now().Add(flashDuration)
		return m, m.waitForEvent()
	case failedMsg:
		m.failedAt = time.Now()
		m.status = "That piece does not fit there."
		return m, m.waitForEvent()
	case overMsg:
		if m.over {
			return m, m.waitForEvent()
		}
		return m.finish(msg.summary)
	case savedMsg:
		m.top, m.saveErr = msg.top, msg.err
		return m, nil
	case actionErrMsg:
		m.status = msg.err.Error()
		return m, m.waitForEvent()
	case botStoppedMsg:
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.stopBot()
		m.game.Stop()
		return m, tea.Quit
	}
	if m.over {
		if msg.String() == "enter" || msg.String() == " " {
			return m, tea.Quit
		}
		return m, nil
	}

	g := m.game
	m.status = ""
	switch msg.String() {
	case "up":
		m.cursorY = max(m.cursorY-1, 0)
	case "down":
		m.cursorY = min(m.cursorY+1, m.cfg.BoardRows-1)
	case "left":
		m.cursorX = max(m.cursorX-1, 0)
	case "right":
		m.cursorX = min(m.cursorX+1, m.cfg.BoardCols-1)
	case " ", "enter":
		x, y := m.cursorX, m.cursorY
		return m.act(func() error { _, err := g.Place(x, y); return err })
	case "e", "]":
		return m.act(func() error { return g.Rotate(1) })
	case "q", "[":
		return m.act(func() error { return g.Rotate(-1) })
	case "s":
		return m.act(g.Swap)
	case "h":
		m.showHint()
	case "a":
		return m.toggleBot()
	}
	return m, nil
}

func (m *model) showHint() {
	if m.snap.Board == nil || m.snap.Phase != game.Running {
		return
	}
	mv, ok := ai.BestMove(m.snap.Board, m.snap.Current)
	if !ok {
		m.status = "No place for this piece; swap or wait."
		return
	}
	m.hint = &mv
	m.cursorX, m.cursorY = mv.X, mv.Y
	if mv.Rotation > 0 {
		m.status = "Hint: rotate " + rotationText(mv.Rotation) + " then place."
	} else {
		m.status = "Hint: place here."
	}
}

func rotationText(r int) string {
	switch r {
	case 1:
		return "once"
	case 2:
		return "twice"
	default:
		return "three times"
	}
}

func (m model) toggleBot() (tea.Model, tea.Cmd) {
	if m.bot != nil {
		m.stopBot()
		m.bot = nil
		m.status = "Autoplay off."
		return m, nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.bot = cancel
	m.status = "Autoplay on."
	g, params := m.game, m.cfg.Bot
	return m, func() tea.Msg {
		_ = ai.Run(ctx, g, params)
		return botStoppedMsg{}
	}
}

func (m *model) stopBot() {
	if m.bot != nil {
		m.bot()
	}
}
