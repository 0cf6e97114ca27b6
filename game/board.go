package game

import (
	"fmt"

	"tetrecs-server/piece"
)

// Empty is the value of an unoccupied cell.
const Empty = 0

// OutOfBounds is returned by Get for coordinates outside the board.
const OutOfBounds = -1

// Coord is a board coordinate. X is the column, Y the row.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Board is the rows x cols grid of cell values. 0 is empty, any positive
// value is the color of the piece occupying the cell.
type Board struct {
	Rows  int
	Cols  int
	cells []int
}

// NewBoard creates an empty board. Dimensions are fixed for the board's lifetime.
func NewBoard(rows, cols int) *Board {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Sprintf("game: invalid board size %dx%d", rows, cols))
	}
	return &Board{
		Rows:  rows,
		Cols:  cols,
		cells: make([]int, rows*cols),
	}
}

func (b *Board) inBounds(x, y int) bool {
	return x >= 0 && x < b.Cols && y >= 0 && y < b.Rows
}

// Get returns the value at (x, y), or OutOfBounds.
func (b *Board) Get(x, y int) int {
	if !b.inBounds(x, y) {
		return OutOfBounds
	}
	return b.cells[y*b.Cols+x]
}

// Set writes v at (x, y). Out-of-bounds writes are ignored.
func (b *Board) Set(x, y, v int) {
	if b.inBounds(x, y) {
		b.cells[y*b.Cols+x] = v
	}
}

// Footprint returns the board cells p would cover when centred on (x, y),
// including any that fall outside the board.
func Footprint(p piece.Piece, x, y int) []Coord {
	out := make([]Coord, 0, p.Cells())
	for i := 0; i < piece.Size; i++ {
		for j := 0; j < piece.Size; j++ {
			if p.Mask[i][j] {
				out = append(out, Coord{X: x + i - 1, Y: y + j - 1})
			}
		}
	}
	return out
}

// CanPlace reports whether every occupied cell of p, centred on (x, y), lands
// on an in-bounds empty cell. Out of bounds counts as occupied.
func (b *Board) CanPlace(p piece.Piece, x, y int) bool {
	for i := 0; i < piece.Size; i++ {
		for j := 0; j < piece.Size; j++ {
			if p.Mask[i][j] && b.Get(x+i-1, y+j-1) != Empty {
				return false
			}
		}
	}
	return true
}

// Place writes p's color into every cell it covers. The caller must have
// checked CanPlace; an illegal placement panics.
func (b *Board) Place(p piece.Piece, x, y int) {
	if !b.CanPlace(p, x, y) {
		panic(fmt.Sprintf("game: illegal placement of %s at (%d,%d)", p, x, y))
	}
	for i := 0; i < piece.Size; i++ {
		for j := 0; j < piece.Size; j++ {
			if p.Mask[i][j] {
				b.cells[(y+j-1)*b.Cols+(x+i-1)] = p.Value
			}
		}
	}
}

// ClearCells empties every given coordinate.
func (b *Board) ClearCells(coords []Coord) {
	for _, c := range coords {
		b.Set(c.X, c.Y, Empty)
	}
}

// ClearAll empties the whole board.
func (b *Board) ClearAll() {
	for i := range b.cells {
		b.cells[i] = Empty
	}
}

// Clone returns an independent copy of the board.
func (b *Board) Clone() *Board {
	cells := make([]int, len(b.cells))
	copy(cells, b.cells)
	return &Board{Rows: b.Rows, Cols: b.Cols, cells: cells}
}

// Filled returns the number of occupied cells.
func (b *Board) Filled() int {
	n := 0
	for _, v := range b.cells {
		if v != Empty {
			n++
		}
	}
	return n
}

// Grid returns the cells as rows of values, indexed [y][x].
func (b *Board) Grid() [][]int {
	out := make([][]int, b.Rows)
	for y := range out {
		out[y] = make([]int, b.Cols)
		copy(out[y], b.cells[y*b.Cols:(y+1)*b.Cols])
	}
	return out
}
