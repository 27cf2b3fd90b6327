package align

import (
	"slices"

	"github.com/complexdatacollective/pedigree/pkg/pedigree"
)

// side records where the husband of a couple is drawn.
type side int

const (
	sideUndecided side = iota
	sideHusbandLeft
	sideHusbandRight
)

// spouseRow is one couple still waiting to be drawn.
type spouseRow struct {
	husband, wife int
	side          side
	anchor        Anchor // positional, same numbering as side
}

// drawnBy reports whether member x may draw the couple.
func (r spouseRow) drawnBy(x int) bool {
	if r.anchor == AnchorNone {
		return true
	}
	husbandAnchored := int(r.anchor) == int(r.side)
	if x == r.husband {
		return husbandAnchored
	}
	return !husbandAnchored
}

func (r spouseRow) partner(x int) int {
	if x == r.husband {
		return r.wife
	}
	return r.husband
}

func (r spouseRow) has(x int) bool { return r.husband == x || r.wife == x }

// buildSpouseList gathers couples from hints, spouse relations and parent
// pairs, in that order, normalised husband first. A couple is kept once,
// with the orientation of its first source.
func buildSpouseList(p *pedigree.Pedigree, h Hints) []spouseRow {
	var rows []spouseRow
	seen := make(map[[2]int]bool)
	add := func(r spouseRow) {
		key := [2]int{min(r.husband, r.wife), max(r.husband, r.wife)}
		if seen[key] {
			return
		}
		seen[key] = true
		rows = append(rows, r)
	}

	for _, s := range h.Spouses {
		if p.SexOf(s.Left) == pedigree.Female || p.SexOf(s.Right) == pedigree.Male {
			add(spouseRow{husband: s.Right, wife: s.Left, side: sideHusbandRight, anchor: s.Anchor})
		} else {
			add(spouseRow{husband: s.Left, wife: s.Right, side: sideHusbandLeft, anchor: s.Anchor})
		}
	}
	for _, r := range p.Relations {
		if r.Code != pedigree.Spouse {
			continue
		}
		a, b := r.A, r.B
		if p.SexOf(a) == pedigree.Female || p.SexOf(b) == pedigree.Male {
			a, b = b, a
		}
		add(spouseRow{husband: a, wife: b})
	}
	for c := 0; c < p.Len(); c++ {
		if p.HasParents(c) {
			add(spouseRow{husband: p.Father[c], wife: p.Mother[c]})
		}
	}
	return rows
}

// findFounders returns the individuals from which subtree alignment starts.
//
// Founding couples are those where neither member has parents. Founders
// married more than once come first so each of their marriages is drawn
// from them; the wives of the remaining founding couples follow. Each of
// the two groups is stably sorted by hint order. Parentless individuals
// that belong to no couple at all are appended, also in hint order.
func findFounders(p *pedigree.Pedigree, rows []spouseRow, order []float64) []int {
	var wives, husbands []int
	for _, r := range rows {
		if p.Founder(r.husband) && p.Founder(r.wife) {
			husbands = append(husbands, r.husband)
			wives = append(wives, r.wife)
		}
	}
	dupmom := duplicated(wives)
	dupdad := duplicated(husbands)

	multi := unique(slices.Concat(dupmom, dupdad))
	sortByOrder(multi, order)
	var single []int
	for k, w := range wives {
		if !slices.Contains(dupmom, w) && !slices.Contains(dupdad, husbands[k]) {
			single = append(single, w)
		}
	}
	single = unique(single)
	sortByOrder(single, order)

	var isolated []int
	for i := 0; i < p.Len(); i++ {
		if !p.Founder(i) {
			continue
		}
		if !slices.ContainsFunc(rows, func(r spouseRow) bool { return r.has(i) }) {
			isolated = append(isolated, i)
		}
	}
	sortByOrder(isolated, order)
	return slices.Concat(multi, single, isolated)
}

// coupleSet keys every couple in rows by its unordered pair of members.
func coupleSet(rows []spouseRow) map[[2]int]bool {
	set := make(map[[2]int]bool, len(rows))
	for _, r := range rows {
		set[[2]int{min(r.husband, r.wife), max(r.husband, r.wife)}] = true
	}
	return set
}

// duplicated returns the values that occur more than once, in order of
// their second occurrence.
func duplicated(xs []int) []int {
	count := make(map[int]int)
	var out []int
	for _, x := range xs {
		count[x]++
		if count[x] == 2 {
			out = append(out, x)
		}
	}
	return out
}

func unique(xs []int) []int {
	seen := make(map[int]bool)
	out := xs[:0:0]
	for _, x := range xs {
		if !seen[x] {
			seen[x] = true
			out = append(out, x)
		}
	}
	return out
}

// sortByOrder stably sorts individuals by their hint rank.
func sortByOrder(xs []int, order []float64) {
	slices.SortStableFunc(xs, func(a, b int) int {
		switch {
		case order[a] < order[b]:
			return -1
		case order[a] > order[b]:
			return 1
		}
		return 0
	})
}

// familyIndex maps an unordered couple to its children in index order.
type familyIndex map[[2]int][]int

func newFamilyIndex(p *pedigree.Pedigree) familyIndex {
	fi := make(familyIndex)
	for c := 0; c < p.Len(); c++ {
		if p.HasParents(c) {
			f, m := p.Father[c], p.Mother[c]
			key := [2]int{min(f, m), max(f, m)}
			fi[key] = append(fi[key], c)
		}
	}
	return fi
}

func (fi familyIndex) children(a, b int) []int {
	return fi[[2]int{min(a, b), max(a, b)}]
}
