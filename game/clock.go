package game

import (
	"math/rand"
	"sync"
	"time"

	"tetrecs-server/piece"
)

// Timer is a pending scheduled callback.
type Timer interface {
	// Stop cancels the callback. It reports false if the callback already ran
	// or was already stopped.
	Stop() bool
}

// Scheduler runs a callback once after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// ClockScheduler schedules on the wall clock via time.AfterFunc.
type ClockScheduler struct{}

// AfterFunc implements Scheduler.
func (ClockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// PieceSource yields catalog ids in [0, piece.Count).
type PieceSource interface {
	Next() int
}

// PieceSourceFunc adapts a function to PieceSource.
type PieceSourceFunc func() int

// Next implements PieceSource.
func (f PieceSourceFunc) Next() int { return f() }

// RandomSource picks ids uniformly over the catalog. Safe for concurrent use.
type RandomSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSource returns a source seeded with seed. A zero seed uses the current time.
func NewRandomSource(seed int64) *RandomSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomSource{rng: rand.New(rand.NewSource(seed))}
}

// Next implements PieceSource.
func (s *RandomSource) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(piece.Count)
}

// ScriptedSource replays ids in order, then repeats the last one.
// Used for deterministic sessions.
type ScriptedSource struct {
	mu  sync.Mutex
	ids []int
	pos int
}

// NewScriptedSource returns a source that yields ids in order.
func NewScriptedSource(ids ...int) *ScriptedSource {
	return &ScriptedSource{ids: ids}
}

// Next implements PieceSource.
func (s *ScriptedSource) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ids) == 0 {
		return 0
	}
	if s.pos >= len(s.ids) {
		return s.ids[len(s.ids)-1]
	}
	id := s.ids[s.pos]
	s.pos++
	return id
}
