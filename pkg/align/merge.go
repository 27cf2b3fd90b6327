package align

import "slices"

// mergeAlignments places b to the right of a, row by row.
//
// When the last cell of a row in a and the first cell of the same row in b
// hold the same individual, and that cell of a does not already start a
// couple, the two cells are joined. Family pointers of b are re-based to
// the merged column numbering.
//
// In packed mode each row of b is appended directly after the same row of
// a. Otherwise b is moved right as a whole, by the smallest amount that
// keeps every row ordered, which keeps b's internal geometry intact.
func mergeAlignments(a, b *Alignment, packed bool) *Alignment {
	levels := a.Levels()
	maxcol := 0
	for l := 0; l < levels; l++ {
		maxcol = max(maxcol, a.N[l]+b.N[l])
	}

	out := newAlignment(levels, maxcol)
	for l := 0; l < levels; l++ {
		copy(out.NID[l], a.NID[l][:a.N[l]])
		copy(out.Pos[l], a.Pos[l][:a.N[l]])
		copy(out.Fam[l], a.Fam[l][:a.N[l]])
		copy(out.Spouse[l], a.Spouse[l][:a.N[l]])
		out.N[l] = a.N[l] + b.N[l]
	}

	fam2 := make([][]int, levels)
	for l := range fam2 {
		fam2[l] = slices.Clone(b.Fam[l])
	}

	joins := func(l int) bool {
		n1 := a.N[l]
		return n1 > 0 && b.N[l] > 0 && out.NID[l][n1-1] == b.NID[l][0] && !out.Spouse[l][n1-1]
	}

	slide := 0.0
	if !packed {
		for l := 0; l < levels; l++ {
			n1 := a.N[l]
			if n1 == 0 || b.N[l] == 0 {
				continue
			}
			t := out.Pos[l][n1-1] - b.Pos[l][0]
			if !joins(l) {
				t++
			}
			slide = max(slide, t)
		}
	}

	for l := 0; l < levels; l++ {
		n1, n2 := a.N[l], b.N[l]
		if n2 == 0 {
			continue
		}
		overlap := 0
		if joins(l) {
			overlap = 1
			last := n1 - 1
			out.Fam[l][last] = max(out.Fam[l][last], fam2[l][0])
			out.Spouse[l][last] = b.Spouse[l][0]
			if !packed && fam2[l][0] > 0 {
				out.Pos[l][last] = (b.Pos[l][0] + out.Pos[l][last] + slide) / 2
			}
			out.N[l]--
		}

		if packed {
			if n1 == 0 {
				slide = 0
			} else {
				slide = out.Pos[l][n1-1] + 1 - float64(overlap)
			}
		}

		for z := overlap; z < n2; z++ {
			c := n1 + z - overlap
			out.NID[l][c] = b.NID[l][z]
			out.Fam[l][c] = fam2[l][z]
			out.Pos[l][c] = b.Pos[l][z] + slide
			out.Spouse[l][c] = b.Spouse[l][z]
		}

		if l+1 < levels {
			for c, f := range fam2[l+1] {
				if f != 0 {
					fam2[l+1][c] = f + n1 - overlap
				}
			}
		}
	}

	out.truncate(out.maxN())
	return out
}
