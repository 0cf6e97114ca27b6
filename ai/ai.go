package ai

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"tetrecs-server/ai/heuristic"
	"tetrecs-server/config"
	"tetrecs-server/game"
	"tetrecs-server/gameerrors"
	"tetrecs-server/piece"
)

const rotations = 4

// Move is a suggested placement: rotate the current piece Rotation times
// clockwise, then place it centred on (X, Y).
type Move struct {
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Rotation int     `json:"rotation"`
	Lines    int     `json:"lines"`
	Blocks   int     `json:"blocks"`
	Score    float64 `json:"score"`
}

// BestMove evaluates every rotation and anchor of p on b and returns the
// highest-rated legal placement. Ties keep the first candidate in rotation,
// then row-major order. It returns false when p fits nowhere.
func BestMove(b *game.Board, p piece.Piece) (Move, bool) {
	var best Move
	found := false
	for r := 0; r < rotations; r++ {
		rp := p.Rotate(r)
		for y := 0; y < b.Rows; y++ {
			for x := 0; x < b.Cols; x++ {
				if !b.CanPlace(rp, x, y) {
					continue
				}
				c := candidate(b, rp, x, y)
				score := heuristic.Total(c)
				if found && score <= best.Score {
					continue
				}
				best = Move{X: x, Y: y, Rotation: r, Lines: c.Clear.Lines(), Blocks: c.Clear.Blocks(), Score: score}
				found = true
			}
		}
	}
	return best, found
}

// Fits reports whether p has at least one legal placement in any rotation.
func Fits(b *game.Board, p piece.Piece) bool {
	for r := 0; r < rotations; r++ {
		rp := p.Rotate(r)
		for y := 0; y < b.Rows; y++ {
			for x := 0; x < b.Cols; x++ {
				if b.CanPlace(rp, x, y) {
					return true
				}
			}
		}
	}
	return false
}

func candidate(b *game.Board, p piece.Piece, x, y int) *heuristic.Candidate {
	after := b.Clone()
	after.Place(p, x, y)
	return &heuristic.Candidate{Before: b, After: after, Piece: p, X: x, Y: y, Clear: game.FindFullLines(after)}
}

// Run plays g until the session ends or ctx is cancelled. Before each move it
// waits a random delay in [DelayMinMS, DelayMaxMS]. When the current piece
// fits nowhere but the next one does, it swaps; when neither fits it waits
// for the timer to discard the piece.
func Run(ctx context.Context, g *game.Game, params config.BotParams) error {
	log := slog.With("tag", "ai", "name", params.Name, "session", g.ID)
	log.Debug("bot started")
	defer log.Debug("bot stopped")

	for {
		t := time.NewTimer(thinkDelay(params))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-g.Done():
			t.Stop()
			return nil
		case <-t.C:
		}

		s := g.Snapshot()
		switch s.Phase {
		case game.Over:
			return nil
		case game.NotStarted:
			continue
		}

		mv, ok := BestMove(s.Board, s.Current)
		if !ok {
			if Fits(s.Board, s.Next) {
				log.Debug("swapping", "current", s.Current.Name(), "next", s.Next.Name())
				if err := g.Swap(); err != nil {
					return ignoreOver(err)
				}
			}
			continue
		}

		// The piece may change between the snapshot and these calls if the timer
		// expires; the placement then simply fails and the next round retries.
		if mv.Rotation > 0 {
			if err := g.Rotate(mv.Rotation); err != nil {
				return ignoreOver(err)
			}
		}
		placed, err := g.Place(mv.X, mv.Y)
		if err != nil {
			return ignoreOver(err)
		}
		log.Debug("placed", "piece", s.Current.Name(), "x", mv.X, "y", mv.Y, "rotation", mv.Rotation, "ok", placed, "lines", mv.Lines)
	}
}

func thinkDelay(params config.BotParams) time.Duration {
	ms := params.DelayMinMS
	if params.DelayMaxMS > params.DelayMinMS {
		ms += rand.Intn(params.DelayMaxMS - params.DelayMinMS + 1)
	}
	return time.Duration(ms) * time.Millisecond
}

func ignoreOver(err error) error {
	if errors.Is(err, gameerrors.ErrSessionOver) {
		return nil
	}
	return err
}
