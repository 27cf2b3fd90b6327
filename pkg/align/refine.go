package align

import (
	"errors"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	perrors "github.com/complexdatacollective/pedigree/pkg/errors"
	"github.com/complexdatacollective/pedigree/pkg/qp"
)

const (
	// DefaultWidth is the minimum row width, in cell units, of a layout.
	DefaultWidth = 10.0

	// DefaultChildPenalty is the exponent applied to sibship size when
	// weighting the pull of children toward their parents.
	DefaultChildPenalty = 1.5

	// DefaultSpousePenalty weights the pull between spouses.
	DefaultSpousePenalty = 2.0

	anchorWeight   = 1e-5
	regularization = 1e-8
)

// solve is the quadratic program solver used by refine.
var solve = qp.Solve

// refine returns new positions for the occupied cells of a that minimise
//
//	Σ spouse (x_left - x_right)² · spousePenalty
//	+ Σ child (x_child - (x_father + x_mother)/2)² · k^-childPenalty
//
// subject to unit spacing within rows and 0 ≤ x ≤ width-1, where k is the
// size of the child's sibship. A tiny extra term pins the first cell of the
// widest row to remove the translation freedom.
func refine(a *Alignment, spouse [][]bool, width, childPenalty, spousePenalty float64) ([][]float64, error) {
	levels := a.Levels()
	width = max(width, float64(a.maxN())+0.01)

	ids := make([][]int, levels)
	m := 0
	for l := 0; l < levels; l++ {
		ids[l] = make([]int, a.N[l])
		for c := range ids[l] {
			ids[l][c] = m
			m++
		}
	}

	var penalties [][]float64
	addRow := func() []float64 {
		row := make([]float64, m)
		penalties = append(penalties, row)
		return row
	}

	sw := math.Sqrt(spousePenalty)
	for l := 0; l < levels; l++ {
		for c := 0; c+1 < a.N[l]; c++ {
			if spouse[l][c] {
				row := addRow()
				row[ids[l][c]] = sw
				row[ids[l][c+1]] = -sw
			}
		}
	}

	for l := 1; l < levels; l++ {
		var families []int
		for c := 0; c < a.N[l]; c++ {
			f := a.Fam[l][c]
			if f != 0 && !slices.Contains(families, f) {
				families = append(families, f)
			}
		}
		for _, f := range families {
			// The parents occupy columns f-1 and f one level up.
			if f >= a.N[l-1] {
				continue
			}
			var who []int
			for c := 0; c < a.N[l]; c++ {
				if a.Fam[l][c] == f {
					who = append(who, c)
				}
			}
			w := math.Sqrt(math.Pow(float64(len(who)), -childPenalty))
			for _, c := range who {
				row := addRow()
				row[ids[l][c]] = -w
				row[ids[l-1][f-1]] += w / 2
				row[ids[l-1][f]] += w / 2
			}
		}
	}

	widest := 0
	for l := 1; l < levels; l++ {
		if a.N[l] > a.N[widest] {
			widest = l
		}
	}
	addRow()[ids[widest][0]] = anchorWeight

	P := mat.NewDense(len(penalties), m, nil)
	for r, row := range penalties {
		P.SetRow(r, row)
	}
	H := mat.NewSymDense(m, nil)
	H.SymOuterK(1, P.T())
	for i := 0; i < m; i++ {
		H.SetSym(i, i, H.At(i, i)+regularization)
	}

	var cons [][]float64
	var rhs []float64
	addCon := func(b float64) []float64 {
		row := make([]float64, m)
		cons = append(cons, row)
		rhs = append(rhs, b)
		return row
	}
	for l := 0; l < levels; l++ {
		nn := a.N[l]
		if nn == 0 {
			continue
		}
		for c := 0; c+1 < nn; c++ {
			row := addCon(1)
			row[ids[l][c]] = -1
			row[ids[l][c+1]] = 1
		}
		addCon(0)[ids[l][0]] = 1
		addCon(1 - width)[ids[l][nn-1]] = -1
	}
	A := mat.NewDense(len(cons), m, nil)
	for r, row := range cons {
		A.SetRow(r, row)
	}

	res, err := solve(H, nil, A, rhs)
	if err != nil {
		if errors.Is(err, qp.ErrInfeasible) {
			return nil, perrors.Wrap(perrors.ErrCodeInfeasible, err, "refine positions")
		}
		return nil, perrors.Wrap(perrors.ErrCodeInternal, err, "refine positions")
	}

	pos := make([][]float64, levels)
	for l := 0; l < levels; l++ {
		pos[l] = make([]float64, a.Cols())
		for c := 0; c < a.N[l]; c++ {
			// The solver satisfies the bounds only up to rounding.
			x := res.X[ids[l][c]]
			if c == 0 {
				x = max(x, 0)
			} else if x < pos[l][c-1]+1 {
				x = pos[l][c-1] + 1
			}
			pos[l][c] = x
		}
	}
	return pos, nil
}
