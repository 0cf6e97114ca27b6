package heuristic

import "tetrecs-server/game"

func init() {
	Register("clear", 1, scoreClear)
}

// scoreClear is the points the placement would earn at multiplier 1.
func scoreClear(c *Candidate) float64 {
	return float64(game.ScoreDelta(c.Clear.Lines(), c.Clear.Blocks(), 1))
}
