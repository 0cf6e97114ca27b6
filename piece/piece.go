// Package piece holds the fixed catalog of 3x3 polyomino pieces and their rotation.
package piece

import (
	"errors"
	"fmt"
)

// Count is the number of shapes in the catalog. Valid ids are [0, Count).
const Count = 15

// Size is the width and height of every piece mask.
const Size = 3

// ErrInvalidPieceID is returned when a catalog lookup is outside [0, Count).
var ErrInvalidPieceID = errors.New("invalid piece id")

// ID identifies a catalog shape.
type ID int

// Mask is a 3x3 occupancy grid indexed [x][y]. Mask cell (i, j) lands on
// board cell (anchorX+i-1, anchorY+j-1).
type Mask [Size][Size]bool

// Piece is an immutable value: a catalog id, its color value and the
// (possibly rotated) mask. Pieces compare with ==.
type Piece struct {
	ID    ID
	Value int
	Mask  Mask
}

type shape struct {
	name string
	rows [Size]string // top to bottom, '#' = occupied, x runs left to right
}

var catalog = [Count]shape{
	{"Line", [Size]string{"...", "###", "..."}},
	{"C", [Size]string{"...", "###", "#.#"}},
	{"Plus", [Size]string{".#.", "###", ".#."}},
	{"Dot", [Size]string{"...", ".#.", "..."}},
	{"Square", [Size]string{"##.", "##.", "..."}},
	{"L", [Size]string{"...", "###", "..#"}},
	{"J", [Size]string{"..#", "###", "..."}},
	{"S", [Size]string{"...", ".##", "##."}},
	{"Z", [Size]string{"##.", ".##", "..."}},
	{"T", [Size]string{"#..", "##.", "#.."}},
	{"X", [Size]string{"#.#", ".#.", "#.#"}},
	{"Corner", [Size]string{"...", "##.", "#.."}},
	{"Inverse Corner", [Size]string{"#..", "##.", "..."}},
	{"Diagonal", [Size]string{"#..", ".#.", "..#"}},
	{"Double", [Size]string{".#.", ".#.", "..."}},
}

var masks = func() [Count]Mask {
	var out [Count]Mask
	for id, s := range catalog {
		for y, row := range s.rows {
			for x := 0; x < Size; x++ {
				out[id][x][y] = row[x] == '#'
			}
		}
	}
	return out
}()

// Create returns the catalog piece for id in its unrotated orientation.
func Create(id int) (Piece, error) {
	if id < 0 || id >= Count {
		return Piece{}, fmt.Errorf("%w: %d", ErrInvalidPieceID, id)
	}
	return Piece{ID: ID(id), Value: id + 1, Mask: masks[id]}, nil
}

// MustCreate is like Create but panics on an invalid id.
func MustCreate(id int) Piece {
	p, err := Create(id)
	if err != nil {
		panic(err)
	}
	return p
}

// All returns every catalog piece in id order.
func All() []Piece {
	out := make([]Piece, Count)
	for i := range out {
		out[i] = MustCreate(i)
	}
	return out
}

// Rotate returns p turned 90 degrees clockwise k times. k is taken mod 4,
// so negative values rotate counter-clockwise.
func Rotate(p Piece, k int) Piece {
	k = ((k % 4) + 4) % 4
	for ; k > 0; k-- {
		var m Mask
		for x := 0; x < Size; x++ {
			for y := 0; y < Size; y++ {
				m[Size-1-y][x] = p.Mask[x][y]
			}
		}
		p.Mask = m
	}
	return p
}

// Rotate is shorthand for Rotate(p, k).
func (p Piece) Rotate(k int) Piece {
	return Rotate(p, k)
}

// Cells returns the number of occupied mask cells.
func (p Piece) Cells() int {
	n := 0
	for x := 0; x < Size; x++ {
		for y := 0; y < Size; y++ {
			if p.Mask[x][y] {
				n++
			}
		}
	}
	return n
}

// Name returns the catalog name, e.g. "Plus".
func (p Piece) Name() string {
	if p.ID < 0 || int(p.ID) >= Count {
		return "unknown"
	}
	return catalog[p.ID].name
}

// String returns the catalog name.
func (p Piece) String() string {
	return p.Name()
}

// Rows renders the mask top to bottom using '#' and '.'.
func (p Piece) Rows() []string {
	out := make([]string, Size)
	for y := 0; y < Size; y++ {
		row := make([]byte, Size)
		for x := 0; x < Size; x++ {
			if p.Mask[x][y] {
				row[x] = '#'
			} else {
				row[x] = '.'
			}
		}
		out[y] = string(row)
	}
	return out
}
