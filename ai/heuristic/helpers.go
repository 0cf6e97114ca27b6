package heuristic

import "tetrecs-server/game"

var neighbours = [4]game.Coord{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}}

// placedCells returns the cells the candidate's piece covers.
func placedCells(c *Candidate) []game.Coord {
	return game.Footprint(c.Piece, c.X, c.Y)
}

// Contacts counts sides of the placed piece that touch a wall or an existing block.
// Sides shared between two cells of the piece itself are not counted.
func Contacts(c *Candidate) int {
	own := make(map[game.Coord]bool)
	for _, cell := range placedCells(c) {
		own[cell] = true
	}
	n := 0
	for cell := range own {
		for _, d := range neighbours {
			nb := game.Coord{X: cell.X + d.X, Y: cell.Y + d.Y}
			if own[nb] {
				continue
			}
			if c.Before.Get(nb.X, nb.Y) != game.Empty {
				n++
			}
		}
	}
	return n
}
