package game

import (
	"log/slog"
	"time"

	"tetrecs-server/config"
	"tetrecs-server/gameerrors"
	"tetrecs-server/piece"
)

// Phase is the lifecycle state of a session.
type Phase int

const (
	NotStarted Phase = iota
	Running
	Over
)

// String returns the protocol string for a Phase.
func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Over:
		return "over"
	default:
		return "unknown"
	}
}

// End reasons reported in Summary.
const (
	ReasonOutOfLives = "out_of_lives"
	ReasonStopped    = "stopped"
)

// ActionType enumerates the kinds of actions a game can process.
type ActionType int

const (
	ActionStart ActionType = iota
	ActionPlace
	ActionRotate
	ActionSwap
	ActionSnapshot
	ActionStop
	ActionTimerExpired // internal: fired by the scheduler when the placement deadline passes
)

// Action is a request processed by the game loop. Reply receives exactly one
// result; it is nil for internal actions.
type Action struct {
	Type  ActionType
	X     int
	Y     int
	Turns int

	timerGen uint64
	reply    chan result
}

type result struct {
	ok   bool
	err  error
	snap Snapshot
}

// Observer holds optional notification callbacks. Nil fields are skipped.
// Callbacks run on the game goroutine and must not call back into the same
// Game synchronously.
type Observer struct {
	PieceChanged    func(current, next piece.Piece)
	LinesCleared    func(cells []Coord)
	Tick            func(delay time.Duration)
	PlacementFailed func(x, y int)
	SessionOver     func(Summary)
	// Updated receives the state after every action other than a snapshot read.
	Updated func(Snapshot)
}

// Summary describes a finished session.
type Summary struct {
	Score  int
	Level  int
	Lives  int
	Reason string
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	ID         string
	Phase      Phase
	Board      *Board
	Current    piece.Piece
	Next       piece.Piece
	Score      int
	Level      int
	Lives      int
	Multiplier int
	Delay      time.Duration
	DeadlineAt time.Time
	Reason     string
}

// Game is one single-player session. All state is owned by the Run goroutine;
// public methods post actions and wait for the result, so placements and
// timer expiries are fully ordered.
type Game struct {
	ID string

	board      *Board
	source     PieceSource
	sched      Scheduler
	log        *slog.Logger
	observers  []Observer
	phase      Phase
	current    piece.Piece
	next       piece.Piece
	score      int
	level      int
	lives      int
	multiplier int
	delay      time.Duration
	deadlineAt time.Time
	reason     string

	// timer is the single pending deadline; timerGen identifies it so a fire
	// that raced with cancellation is ignored.
	timer    Timer
	timerGen uint64

	Actions chan Action
	done    chan struct{}

	// final is written before done is closed and read only after.
	final Snapshot
}

// NewGame creates a session. A nil source picks pieces uniformly at random;
// a nil scheduler uses the wall clock.
func NewGame(id string, cfg *config.Config, source PieceSource, sched Scheduler) *Game {
	if source == nil {
		source = NewRandomSource(0)
	}
	if sched == nil {
		sched = ClockScheduler{}
	}
	return &Game{
		ID:         id,
		board:      NewBoard(cfg.BoardRows, cfg.BoardCols),
		source:     source,
		sched:      sched,
		log:        slog.With("tag", "game", "session", id),
		phase:      NotStarted,
		lives:      cfg.InitialLives,
		multiplier: 1,
		delay:      TimerDelay(0),
		Actions:    make(chan Action, 16),
		done:       make(chan struct{}),
	}
}

// Subscribe registers an observer. Must be called before Run.
func (g *Game) Subscribe(o Observer) {
	g.observers = append(g.observers, o)
}

// Done is closed when the game loop has exited.
func (g *Game) Done() <-chan struct{} {
	return g.done
}

// Run is the main game loop. It processes actions sequentially and returns
// once the session is over. It should be run as a goroutine.
func (g *Game) Run() {
	defer close(g.done)

	for {
		action := <-g.Actions
		var r result
		switch action.Type {
		case ActionStart:
			r.err = g.handleStart()
		case ActionPlace:
			r.ok, r.err = g.handlePlace(action.X, action.Y)
		case ActionRotate:
			r.err = g.handleRotate(action.Turns)
		case ActionSwap:
			r.err = g.handleSwap()
		case ActionSnapshot:
		case ActionStop:
			if g.phase != Over {
				g.end(ReasonStopped)
			}
		case ActionTimerExpired:
			g.handleTimerExpired(action.timerGen)
		}
		r.snap = g.snapshot()
		if action.Type != ActionSnapshot {
			g.notifyUpdated(r.snap)
		}
		if action.reply != nil {
			action.reply <- r
		}
		if g.phase == Over {
			g.final = r.snap
			return
		}
	}
}

func (g *Game) call(a Action) result {
	a.reply = make(chan result, 1)
	select {
	case g.Actions <- a:
	case <-g.done:
		return result{err: gameerrors.ErrSessionOver, snap: g.final}
	}
	select {
	case r := <-a.reply:
		return r
	case <-g.done:
		select {
		case r := <-a.reply:
			return r
		default:
			return result{err: gameerrors.ErrSessionOver, snap: g.final}
		}
	}
}

// Start spawns the first current/next pair and starts the placement timer.
func (g *Game) Start() error {
	return g.call(Action{Type: ActionStart}).err
}

// Place tries to place the current piece centred on (x, y). It returns false
// without changing any state when the placement is illegal.
func (g *Game) Place(x, y int) (bool, error) {
	r := g.call(Action{Type: ActionPlace, X: x, Y: y})
	return r.ok, r.err
}

// Rotate turns the current piece clockwise k times.
func (g *Game) Rotate(k int) error {
	return g.call(Action{Type: ActionRotate, Turns: k}).err
}

// Swap exchanges the current and next pieces.
func (g *Game) Swap() error {
	return g.call(Action{Type: ActionSwap}).err
}

// Stop ends the session and cancels the pending timer. Safe to call more than once.
func (g *Game) Stop() {
	g.call(Action{Type: ActionStop})
}

// Snapshot returns a copy of the current state, or the final state once the
// session is over.
func (g *Game) Snapshot() Snapshot {
	return g.call(Action{Type: ActionSnapshot}).snap
}

func (g *Game) checkRunning() error {
	switch g.phase {
	case NotStarted:
		return gameerrors.ErrNotStarted
	case Over:
		return gameerrors.ErrSessionOver
	}
	return nil
}

func (g *Game) handleStart() error {
	switch g.phase {
	case Running:
		return gameerrors.ErrAlreadyStarted
	case Over:
		return gameerrors.ErrSessionOver
	}
	g.log.Info("starting session", "rows", g.board.Rows, "cols", g.board.Cols, "lives", g.lives)
	g.phase = Running
	g.next = g.spawn()
	g.nextPiece()
	g.restartTimer()
	return nil
}

func (g *Game) handlePlace(x, y int) (bool, error) {
	if err := g.checkRunning(); err != nil {
		return false, err
	}
	if !g.board.CanPlace(g.current, x, y) {
		g.log.Debug("cannot place piece", "piece", g.current, "x", x, "y", y)
		for _, o := range g.observers {
			if o.PlacementFailed != nil {
				o.PlacementFailed(x, y)
			}
		}
		return false, nil
	}

	g.board.Place(g.current, x, y)
	g.nextPiece()

	cleared := FindFullLines(g.board)
	g.board.ClearCells(cleared.Cells)
	lines, blocks := cleared.Lines(), cleared.Blocks()

	// Score with the multiplier earned by previous placements, then update it.
	delta := ScoreDelta(lines, blocks, g.multiplier)
	g.score += delta
	g.multiplier = NextMultiplier(lines, g.multiplier)
	g.level = LevelForScore(g.score)

	if lines > 0 {
		g.log.Info("lines cleared", "lines", lines, "blocks", blocks, "points", delta, "score", g.score, "level", g.level)
		for _, o := range g.observers {
			if o.LinesCleared != nil {
				o.LinesCleared(cleared.Cells)
			}
		}
	}
	g.restartTimer()
	return true, nil
}

func (g *Game) handleRotate(k int) error {
	if err := g.checkRunning(); err != nil {
		return err
	}
	g.current = piece.Rotate(g.current, k)
	return nil
}

func (g *Game) handleSwap() error {
	if err := g.checkRunning(); err != nil {
		return err
	}
	g.current, g.next = g.next, g.current
	return nil
}

func (g *Game) handleTimerExpired(gen uint64) {
	// Cancelled or superseded timer that fired anyway.
	if g.phase != Running || g.timer == nil || gen != g.timerGen {
		return
	}
	g.timer = nil

	g.lives--
	g.log.Info("timer expired", "lives", g.lives)
	if g.lives <= 0 {
		g.lives = 0
		g.end(ReasonOutOfLives)
		return
	}
	g.nextPiece()
	g.multiplier = 1
	g.restartTimer()
}

// spawn draws a piece from the source. An id outside the catalog is a
// programming error in the source and panics before any state changes.
func (g *Game) spawn() piece.Piece {
	return piece.MustCreate(g.source.Next())
}

// nextPiece replaces the current piece with the following one and spawns a new following piece.
func (g *Game) nextPiece() {
	g.current = g.next
	g.next = g.spawn()
	g.log.Debug("next piece", "current", g.current, "next", g.next)
	for _, o := range g.observers {
		if o.PieceChanged != nil {
			o.PieceChanged(g.current, g.next)
		}
	}
}

// cancelTimer stops the pending timer, if any.
func (g *Game) cancelTimer() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.deadlineAt = time.Time{}
}

// restartTimer cancels any pending timer and schedules a new one using the
// delay for the current level.
func (g *Game) restartTimer() {
	g.cancelTimer()
	g.timerGen++
	gen := g.timerGen
	g.delay = TimerDelay(g.level)
	g.deadlineAt = time.Now().Add(g.delay)
	g.timer = g.sched.AfterFunc(g.delay, func() {
		select {
		case g.Actions <- Action{Type: ActionTimerExpired, timerGen: gen}:
		case <-g.done:
		}
	})
	for _, o := range g.observers {
		if o.Tick != nil {
			o.Tick(g.delay)
		}
	}
}

func (g *Game) notifyUpdated(s Snapshot) {
	for _, o := range g.observers {
		if o.Updated != nil {
			o.Updated(s)
		}
	}
}

func (g *Game) end(reason string) {
	g.cancelTimer()
	g.phase = Over
	g.reason = reason
	g.log.Info("session over", "reason", reason, "score", g.score, "level", g.level)
	summary := Summary{Score: g.score, Level: g.level, Lives: g.lives, Reason: reason}
	for _, o := range g.observers {
		if o.SessionOver != nil {
			o.SessionOver(summary)
		}
	}
}

func (g *Game) snapshot() Snapshot {
	return Snapshot{
		ID:         g.ID,
		Phase:      g.phase,
		Board:      g.board.Clone(),
		Current:    g.current,
		Next:       g.next,
		Score:      g.score,
		Level:      g.level,
		Lives:      g.lives,
		Multiplier: g.multiplier,
		Delay:      g.delay,
		DeadlineAt: g.deadlineAt,
		Reason:     g.reason,
	}
}
