package align

import "github.com/complexdatacollective/pedigree/pkg/pedigree"

// finalize settles a merged grid so that every individual occurs at most
// once per row, marriage lines join only real couples and every family
// pointer names the child's own parents. Rows are settled top down, since
// a child's pointer depends on the settled row above.
//
// When a row holds someone twice, the copy with the fewest ties to its
// neighbours is dropped: two points for each adjacent partner and one for
// having both parents side by side one level up. Children whose parents
// are not adjacent on the row above keep no family pointer.
func finalize(a *Alignment, p *pedigree.Pedigree, married map[[2]int]bool) {
	isCouple := func(x, y int) bool { return married[[2]int{min(x, y), max(x, y)}] }

	score := func(l, c int) int {
		id := a.NID[l][c]
		sc := 0
		if c > 0 && isCouple(id, a.NID[l][c-1]) {
			sc += 2
		}
		if c+1 < a.N[l] && isCouple(id, a.NID[l][c+1]) {
			sc += 2
		}
		if l > 0 && p.HasParents(id) && a.parentColumn(l-1, p.Father[id], p.Mother[id]) >= 0 {
			sc++
		}
		return sc
	}

	for l := range a.N {
		for a.dropDuplicate(l, score) {
		}

		n := a.N[l]
		for c := range a.NID[l] {
			switch {
			case c >= n:
				a.Pos[l][c] = 0
				a.Fam[l][c] = 0
				a.Spouse[l][c] = false
				continue
			case c > 0:
				a.Pos[l][c] = max(a.Pos[l][c], a.Pos[l][c-1]+1)
			}
			a.Spouse[l][c] = c+1 < n && isCouple(a.NID[l][c], a.NID[l][c+1])

			a.Fam[l][c] = 0
			if id := a.NID[l][c]; l > 0 && p.HasParents(id) {
				a.Fam[l][c] = a.parentColumn(l-1, p.Father[id], p.Mother[id]) + 1
			}
		}
	}
	a.truncate(a.maxN())
}

// dropDuplicate removes the lowest scoring cell of level l whose individual
// occurs more than once there, preferring the rightmost on ties. It reports
// whether a cell was removed.
func (a *Alignment) dropDuplicate(l int, score func(l, c int) int) bool {
	count := make(map[int]int)
	for c := 0; c < a.N[l]; c++ {
		count[a.NID[l][c]]++
	}
	worst, low := -1, 0
	for c := 0; c < a.N[l]; c++ {
		if count[a.NID[l][c]] < 2 {
			continue
		}
		if sc := score(l, c); worst < 0 || sc <= low {
			worst, low = c, sc
		}
	}
	if worst < 0 {
		return false
	}
	a.remove(l, worst)
	return true
}

// remove deletes cell c of level l, shifting the rest of the row left.
func (a *Alignment) remove(l, c int) {
	n := a.N[l]
	copy(a.NID[l][c:n], a.NID[l][c+1:n])
	copy(a.Pos[l][c:n], a.Pos[l][c+1:n])
	copy(a.Fam[l][c:n], a.Fam[l][c+1:n])
	copy(a.Spouse[l][c:n], a.Spouse[l][c+1:n])
	a.NID[l][n-1] = Empty
	a.Pos[l][n-1] = 0
	a.Fam[l][n-1] = 0
	a.Spouse[l][n-1] = false
	a.N[l]--
}

// parentColumn returns the column c of level l such that columns c and c+1
// hold the two parents, or -1.
func (a *Alignment) parentColumn(l, father, mother int) int {
	for c := 0; c+1 < a.N[l]; c++ {
		x, y := a.NID[l][c], a.NID[l][c+1]
		if (x == father && y == mother) || (x == mother && y == father) {
			return c
		}
	}
	return -1
}
