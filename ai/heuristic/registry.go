package heuristic

import (
	"slices"

	"tetrecs-server/game"
	"tetrecs-server/piece"
)

// Candidate is one legal placement under evaluation.
type Candidate struct {
	// Before is the board prior to placement; After has the piece placed but no lines cleared yet.
	Before *game.Board
	After  *game.Board
	Piece  piece.Piece
	X, Y   int
	Clear  game.Clear
}

// ScoreFunc rates a candidate. Higher is better.
type ScoreFunc func(c *Candidate) float64

type entry struct {
	weight float64
	score  ScoreFunc
}

var registry = make(map[string]entry)

// Register adds or overwrites a heuristic with the weight it contributes to Total.
func Register(name string, weight float64, score ScoreFunc) {
	registry[name] = entry{weight: weight, score: score}
}

// Score returns the unweighted value of a single heuristic, or false if it is not registered.
func Score(name string, c *Candidate) (float64, bool) {
	e, ok := registry[name]
	if !ok || e.score == nil {
		return 0, false
	}
	return e.score(c), true
}

// Total returns the weighted sum of all registered heuristics.
func Total(c *Candidate) float64 {
	var sum float64
	for _, name := range Names() {
		e := registry[name]
		sum += e.weight * e.score(c)
	}
	return sum
}

// Names lists registered heuristics in a stable order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name, e := range registry {
		if e.score != nil {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
