package align

import (
	"cmp"
	"slices"
)

// aligner holds the read-only state shared by the recursive walk.
type aligner struct {
	level    []int
	order    []float64
	families familyIndex
	levels   int
	packed   bool
}

// subtree lays out x together with the spouses x draws, then each couple's
// children and their own subtrees below. The couples consumed are removed
// from spouses; the remaining list is returned alongside the grid.
//
// Couples whose other member lives on a deeper level are left for that
// member to draw. Anchors are honoured between members of one level. A
// spouse at the end of the row who has further partners on the same level
// draws them outward, so a chain of remarriages stays on one line.
func (s *aligner) subtree(x int, spouses []spouseRow) (*Alignment, []spouseRow) {
	lev := s.level[x]

	mine := s.claims(x, lev, spouses, nil)
	if len(mine) == 0 {
		a := newAlignment(s.levels, 1)
		a.N[lev] = 1
		a.NID[lev][0] = x
		return a, spouses
	}

	left, right := s.sides(x, spouses, mine)
	var couples [][2]int
	for _, k := range mine {
		couples = append(couples, [2]int{spouses[k].husband, spouses[k].wife})
	}
	spouses = without(spouses, mine)
	row := slices.Concat(left, []int{x}, right)

	// Extend the chain outward from both ends.
	for _, outward := range []bool{false, true} {
		for {
			end := row[0]
			if outward {
				end = row[len(row)-1]
			}
			if end == x || s.level[end] != lev {
				break
			}
			ks := s.claims(end, lev, spouses, row)
			if len(ks) == 0 {
				break
			}
			for _, k := range ks {
				sp := spouses[k].partner(end)
				if outward {
					row = append(row, sp)
				} else {
					row = append([]int{sp}, row...)
				}
				couples = append(couples, [2]int{spouses[k].husband, spouses[k].wife})
			}
			spouses = without(spouses, ks)
		}
	}

	col := make(map[int]int, len(row))
	for c, id := range row {
		col[id] = c
	}
	slices.SortStableFunc(couples, func(p, q [2]int) int {
		return cmp.Or(
			cmp.Compare(min(col[p[0]], col[p[1]]), min(col[q[0]], col[q[1]])),
			cmp.Compare(max(col[p[0]], col[p[1]]), max(col[q[0]], col[q[1]])),
		)
	})

	width := len(row)
	a := newAlignment(s.levels, width)
	a.N[lev] = width
	for c, id := range row {
		a.NID[lev][c] = id
		a.Pos[lev][c] = float64(c)
	}
	for _, cp := range couples {
		if lo, hi := min(col[cp[0]], col[cp[1]]), max(col[cp[0]], col[cp[1]]); hi == lo+1 {
			a.Spouse[lev][lo] = true
		}
	}

	var out *Alignment
	for _, cp := range couples {
		kids := s.families.children(cp[0], cp[1])
		if len(kids) == 0 {
			continue
		}
		var sub *Alignment
		sub, spouses = s.siblings(kids, spouses)

		lo, hi := min(col[cp[0]], col[cp[1]]), max(col[cp[0]], col[cp[1]])
		fam := 0
		if hi == lo+1 {
			fam = hi
		}
		// A child can occur twice in its row when two siblings marry.
		var cols []int
		for c := 0; c < sub.N[lev+1]; c++ {
			if slices.Contains(kids, sub.NID[lev+1][c]) {
				sub.Fam[lev+1][c] = fam
				cols = append(cols, c)
			}
		}

		if !s.packed && len(cols) > 0 {
			kidMean := 0.0
			for _, c := range cols {
				kidMean += sub.Pos[lev+1][c]
			}
			kidMean /= float64(len(cols))
			parMean := (a.Pos[lev][lo] + a.Pos[lev][hi]) / 2
			if kidMean > parMean {
				for c := lo; c < width; c++ {
					a.Pos[lev][c] += kidMean - parMean
				}
			} else {
				shift := parMean - kidMean
				for l := lev + 1; l < s.levels; l++ {
					for c := 0; c < sub.N[l]; c++ {
						sub.Pos[l][c] += shift
					}
				}
			}
		}

		if out == nil {
			out = sub
		} else {
			out = mergeAlignments(out, sub, s.packed)
		}
	}

	if out == nil {
		return a, spouses
	}

	out.widen(width)
	out.N[lev] = width
	for c := 0; c < width; c++ {
		out.NID[lev][c] = a.NID[lev][c]
		out.Pos[lev][c] = a.Pos[lev][c]
		out.Spouse[lev][c] = a.Spouse[lev][c]
		out.Fam[lev][c] = 0
	}
	return out, spouses
}

// claims returns the indices of the couples that x, drawn on level lev,
// takes from spouses. Partners already in row are skipped.
func (s *aligner) claims(x, lev int, spouses []spouseRow, row []int) []int {
	var ks []int
	for k, r := range spouses {
		if !r.has(x) || slices.Contains(row, r.partner(x)) {
			continue
		}
		// An anchored partner on a shallower level never reaches this couple.
		if pl := s.level[r.partner(x)]; pl < lev || (pl == lev && r.drawnBy(x)) {
			ks = append(ks, k)
		}
	}
	return ks
}

// sides splits the partners of x's couples mine into those drawn left and
// right of x. Hinted sides are kept, the rest are balanced with the larger
// half on the left of a woman and on the right of a man. A side never
// holds two partners while the other side is empty, so both of a person's
// first two partners sit next to them.
func (s *aligner) sides(x int, spouses []spouseRow, mine []int) (left, right []int) {
	female := !slices.ContainsFunc(mine, func(k int) bool { return spouses[k].husband == x })
	var undecided []int
	for _, k := range mine {
		r := spouses[k]
		sp := r.partner(x)
		switch {
		case r.side == sideUndecided:
			undecided = append(undecided, sp)
		case (r.husband == x) == (r.side == sideHusbandRight):
			left = append(left, sp)
		default:
			right = append(right, sp)
		}
	}
	if len(undecided) > 0 {
		nsp := len(mine)
		nleft := nsp / 2
		if female {
			nleft = (nsp + 1) / 2
		}
		nleft = min(max(nleft-len(left), 0), len(undecided))
		left = append(left, undecided[:nleft]...)
		right = append(slices.Clone(undecided[nleft:]), right...)
	}
	switch {
	case len(left) == 0 && len(right) > 1:
		left, right = right[len(right)-1:], right[:len(right)-1]
	case len(right) == 0 && len(left) > 1:
		left, right = left[1:], left[:1]
	}
	return left, right
}

func without(spouses []spouseRow, drop []int) []spouseRow {
	rest := make([]spouseRow, 0, len(spouses)-len(drop))
	for k, r := range spouses {
		if !slices.Contains(drop, k) {
			rest = append(rest, r)
		}
	}
	return rest
}

// siblings lays out a sibship in hint order, merging each sibling's subtree
// to the right of the previous ones. A sibling already drawn on its level
// as someone's spouse is not drawn again unless it brings spouses of its own.
func (s *aligner) siblings(kids []int, spouses []spouseRow) (*Alignment, []spouseRow) {
	kids = slices.Clone(kids)
	sortByOrder(kids, s.order)

	out, spouses := s.subtree(kids[0], spouses)
	mylev := s.level[kids[0]]
	for _, k := range kids[1:] {
		var sub *Alignment
		sub, spouses = s.subtree(k, spouses)
		if sub.N[mylev] > 1 || !out.rowContains(mylev, k) {
			out = mergeAlignments(out, sub, s.packed)
		}
	}
	return out, spouses
}
