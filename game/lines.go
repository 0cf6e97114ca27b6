package game

import (
	"cmp"
	"slices"

	"github.com/kamstrup/intmap"
)

// Clear is the result of scanning a board for full lines.
type Clear struct {
	Rows  []int   // indices of full rows
	Cols  []int   // indices of full columns
	Cells []Coord // unique cells in any full row or column, row-major order
}

// Lines returns the number of full rows plus full columns.
func (c Clear) Lines() int {
	return len(c.Rows) + len(c.Cols)
}

// Blocks returns the number of unique cells to clear. A cell on both a full
// row and a full column is counted once.
func (c Clear) Blocks() int {
	return len(c.Cells)
}

// FindFullLines scans all rows, then all columns, and collects every cell of
// every full line into one deduplicated set. It does not modify the board.
func FindFullLines(b *Board) Clear {
	var out Clear
	set := intmap.New[int, Coord](b.Rows + b.Cols)

	for y := 0; y < b.Rows; y++ {
		full := true
		for x := 0; x < b.Cols; x++ {
			if b.Get(x, y) == Empty {
				full = false
				break
			}
		}
		if !full {
			continue
		}
		out.Rows = append(out.Rows, y)
		for x := 0; x < b.Cols; x++ {
			set.Put(y*b.Cols+x, Coord{X: x, Y: y})
		}
	}

	for x := 0; x < b.Cols; x++ {
		full := true
		for y := 0; y < b.Rows; y++ {
			if b.Get(x, y) == Empty {
				full = false
				break
			}
		}
		if !full {
			continue
		}
		out.Cols = append(out.Cols, x)
		for y := 0; y < b.Rows; y++ {
			set.Put(y*b.Cols+x, Coord{X: x, Y: y})
		}
	}

	if set.Len() == 0 {
		return out
	}
	out.Cells = make([]Coord, 0, set.Len())
	set.ForEach(func(_ int, c Coord) bool {
		out.Cells = append(out.Cells, c)
		return true
	})
	slices.SortFunc(out.Cells, func(a, b Coord) int {
		if a.Y != b.Y {
			return cmp.Compare(a.Y, b.Y)
		}
		return cmp.Compare(a.X, b.X)
	})
	return out
}
