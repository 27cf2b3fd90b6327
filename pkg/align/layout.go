package align

import (
	"fmt"
	"strings"

	perrors "github.com/complexdatacollective/pedigree/pkg/errors"
	"github.com/complexdatacollective/pedigree/pkg/pedigree"
)

// SpouseKind classifies the boundary between two adjacent cells.
type SpouseKind int

const (
	NotSpouse      SpouseKind = iota // No marriage line
	Married                          // Spouses without common ancestry
	Consanguineous                   // Spouses sharing an ancestor
)

func (k SpouseKind) String() string {
	switch k {
	case Married:
		return "spouse"
	case Consanguineous:
		return "consanguineous"
	default:
		return "none"
	}
}

// Layout is the result of [Align]. All matrices are indexed
// [level][column] and share one shape.
type Layout struct {
	N      []int                     `json:"n"`
	NID    [][]int                   `json:"nid"`
	Pos    [][]float64               `json:"pos"`
	Fam    [][]int                   `json:"fam"`
	Spouse [][]SpouseKind            `json:"spouse"`
	Twins  [][]pedigree.RelationCode `json:"twins"`
}

// Levels returns the number of generations drawn.
func (l *Layout) Levels() int { return len(l.N) }

// Cols returns the width of the matrices.
func (l *Layout) Cols() int {
	if len(l.NID) == 0 {
		return 0
	}
	return len(l.NID[0])
}

// Cell is one occupied grid position.
type Cell struct {
	Level  int
	Column int
	Index  int                   // Individual index in the pedigree
	X      float64               // Refined horizontal position
	Family int                   // 1-based column of the left parent, 0 when not drawn below them
	Spouse SpouseKind            // Boundary with the cell to the right
	Twin   pedigree.RelationCode // Twin code when this cell starts a twin pair
}

// Cells lists the occupied cells level by level, left to right.
func (l *Layout) Cells() []Cell {
	var out []Cell
	for lv := range l.N {
		for c := 0; c < l.N[lv]; c++ {
			out = append(out, Cell{
				Level:  lv,
				Column: c,
				Index:  l.NID[lv][c],
				X:      l.Pos[lv][c],
				Family: l.Fam[lv][c],
				Spouse: l.Spouse[lv][c],
				Twin:   l.Twins[lv][c],
			})
		}
	}
	return out
}

// Parents returns the cells of the two parents a cell hangs from, which
// sit side by side one level up. It reports false for founders and for
// children whose parents could not be drawn next to each other, such as
// the children of a third marriage.
func (l *Layout) Parents(c Cell) (left, right Cell, ok bool) {
	if c.Family == 0 || c.Level == 0 {
		return Cell{}, Cell{}, false
	}
	up := c.Level - 1
	lc := c.Family - 1
	if lc+1 >= l.N[up] {
		return Cell{}, Cell{}, false
	}
	mk := func(col int) Cell {
		return Cell{
			Level: up, Column: col, Index: l.NID[up][col], X: l.Pos[up][col],
			Family: l.Fam[up][col], Spouse: l.Spouse[up][col], Twin: l.Twins[up][col],
		}
	}
	return mk(lc), mk(lc + 1), true
}

// Validate checks the structural guarantees of a layout: consistent
// matrix shapes, occupied cells packed to the left of every row, unit
// spacing between neighbours, marriage lines between occupied cells and
// family pointers into the row above.
func (l *Layout) Validate() error {
	levels, cols := l.Levels(), l.Cols()
	if len(l.NID) != levels || len(l.Pos) != levels || len(l.Fam) != levels ||
		len(l.Spouse) != levels || len(l.Twins) != levels {
		return perrors.New(perrors.ErrCodeInvalidInput, "layout matrices disagree on level count")
	}
	for lv := 0; lv < levels; lv++ {
		if len(l.NID[lv]) != cols || len(l.Pos[lv]) != cols || len(l.Fam[lv]) != cols ||
			len(l.Spouse[lv]) != cols || len(l.Twins[lv]) != cols {
			return perrors.New(perrors.ErrCodeInvalidInput, "layout level %d has inconsistent width", lv)
		}
		n := l.N[lv]
		if n < 0 || n > cols {
			return perrors.New(perrors.ErrCodeInvalidInput, "layout level %d claims %d cells", lv, n)
		}
		for c := 0; c < cols; c++ {
			if err := l.checkCell(lv, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *Layout) checkCell(lv, c int) error {
	n := l.N[lv]
	if c >= n {
		if l.NID[lv][c] != Empty {
			return perrors.New(perrors.ErrCodeInvalidInput, "cell (%d,%d) is beyond the row but occupied", lv, c)
		}
		return nil
	}
	if l.NID[lv][c] < 0 {
		return perrors.New(perrors.ErrCodeInvalidInput, "cell (%d,%d) is empty inside the row", lv, c)
	}
	if c > 0 && l.Pos[lv][c]-l.Pos[lv][c-1] < 1-1e-9 {
		return perrors.New(perrors.ErrCodeInvalidInput, "cells (%d,%d) and (%d,%d) are closer than one unit", lv, c-1, lv, c)
	}
	if l.Spouse[lv][c] != NotSpouse && c+1 >= n {
		return perrors.New(perrors.ErrCodeInvalidInput, "cell (%d,%d) marries past the end of the row", lv, c)
	}
	if f := l.Fam[lv][c]; f != 0 {
		if lv == 0 || f < 1 || f >= l.N[lv-1] {
			return perrors.New(perrors.ErrCodeInvalidInput, "cell (%d,%d) has family pointer %d outside the row above", lv, c, f)
		}
	}
	return nil
}

// String renders the grid as one line per level, for debugging.
func (l *Layout) String() string {
	var b strings.Builder
	for lv := range l.N {
		fmt.Fprintf(&b, "%d:", lv)
		for c := 0; c < l.N[lv]; c++ {
			fmt.Fprintf(&b, " %d@%.2f", l.NID[lv][c], l.Pos[lv][c])
			if l.Spouse[lv][c] != NotSpouse {
				b.WriteString("=")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
