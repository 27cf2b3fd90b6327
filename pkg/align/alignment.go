package align

import "slices"

// Empty marks an unoccupied cell in NID matrices.
const Empty = -1

// Alignment is the intermediate grid built while aligning founder subtrees.
// All matrices share the same shape: one row per level of the whole
// pedigree and as many columns as the widest row.
type Alignment struct {
	N      []int       // Occupied cells per level
	NID    [][]int     // Individual per cell, Empty when unoccupied
	Pos    [][]float64 // Provisional x position
	Fam    [][]int     // 1-based column of the left parent one level up, 0 for none
	Spouse [][]bool    // Spouse[l][c] joins columns c and c+1 as a couple
}

func newAlignment(levels, cols int) *Alignment {
	a := &Alignment{
		N:      make([]int, levels),
		NID:    make([][]int, levels),
		Pos:    make([][]float64, levels),
		Fam:    make([][]int, levels),
		Spouse: make([][]bool, levels),
	}
	for l := 0; l < levels; l++ {
		a.NID[l] = emptyRow(cols)
		a.Pos[l] = make([]float64, cols)
		a.Fam[l] = make([]int, cols)
		a.Spouse[l] = make([]bool, cols)
	}
	return a
}

func emptyRow(cols int) []int {
	row := make([]int, cols)
	for i := range row {
		row[i] = Empty
	}
	return row
}

// Levels returns the number of rows.
func (a *Alignment) Levels() int { return len(a.N) }

// Cols returns the number of columns.
func (a *Alignment) Cols() int {
	if len(a.NID) == 0 {
		return 0
	}
	return len(a.NID[0])
}

// widen grows every row to cols columns.
func (a *Alignment) widen(cols int) {
	for l := range a.NID {
		if extra := cols - len(a.NID[l]); extra > 0 {
			a.NID[l] = append(a.NID[l], emptyRow(extra)...)
			a.Pos[l] = append(a.Pos[l], make([]float64, extra)...)
			a.Fam[l] = append(a.Fam[l], make([]int, extra)...)
			a.Spouse[l] = append(a.Spouse[l], make([]bool, extra)...)
		}
	}
}

// truncate drops columns beyond cols.
func (a *Alignment) truncate(cols int) {
	for l := range a.NID {
		if len(a.NID[l]) > cols {
			a.NID[l] = a.NID[l][:cols]
			a.Pos[l] = a.Pos[l][:cols]
			a.Fam[l] = a.Fam[l][:cols]
			a.Spouse[l] = a.Spouse[l][:cols]
		}
	}
}

// rowContains reports whether individual i occupies a cell on level l.
func (a *Alignment) rowContains(l, i int) bool {
	return slices.Contains(a.NID[l][:a.N[l]], i)
}

// contains reports whether individual i occupies any cell.
func (a *Alignment) contains(i int) bool {
	for l := range a.N {
		if a.rowContains(l, i) {
			return true
		}
	}
	return false
}

func (a *Alignment) maxN() int {
	m := 0
	for _, n := range a.N {
		m = max(m, n)
	}
	return m
}
