package heuristic

import "math"

func init() {
	Register("center", 0.5, scoreCenter)
}

// scoreCenter is the negative distance of the anchor from the board centre; a weak tie-breaker.
func scoreCenter(c *Candidate) float64 {
	cx := float64(c.Before.Cols-1) / 2
	cy := float64(c.Before.Rows-1) / 2
	return -(math.Abs(float64(c.X)-cx) + math.Abs(float64(c.Y)-cy))
}
