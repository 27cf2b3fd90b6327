package align

import (
	"math/rand/v2"

	"github.com/complexdatacollective/pedigree/pkg/pedigree"
)

const (
	m = pedigree.Male
	f = pedigree.Female
)

func ped(sex []pedigree.Sex, father, mother []int, rel ...pedigree.Relation) *pedigree.Pedigree {
	ids := make([]string, len(father))
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	return &pedigree.Pedigree{IDs: ids, Sex: sex, Father: father, Mother: mother, Relations: rel}
}

func single() *pedigree.Pedigree {
	return ped([]pedigree.Sex{f}, []int{-1}, []int{-1})
}

// trio: 0 × 1 → 2
func trio() *pedigree.Pedigree {
	return ped([]pedigree.Sex{m, f, f}, []int{-1, -1, 0}, []int{-1, -1, 1})
}

// marryIn: 0 × 1 → 2 (f); founder 3 (m) marries 2 → 4
func marryIn() *pedigree.Pedigree {
	return ped([]pedigree.Sex{m, f, f, m, m},
		[]int{-1, -1, 0, -1, 3},
		[]int{-1, -1, 1, -1, 2})
}

// secondCousins: great-grandparents 0 × 1 have children 2 and 3 whose
// grandchildren 10 and 11 marry and have 12.
func secondCousins() *pedigree.Pedigree {
	return ped(
		[]pedigree.Sex{m, f, m, f, f, m, m, f, f, m, m, f, m},
		[]int{-1, -1, 0, 0, -1, -1, 2, 5, -1, -1, 6, 9, 10},
		[]int{-1, -1, 1, 1, -1, -1, 4, 3, -1, -1, 8, 7, 11},
	)
}

// uncleNiece: 0 × 1 → 2 (m), 3 (f); 4 × 3 → 5 (f); 2 × 5 → 6
func uncleNiece() *pedigree.Pedigree {
	return ped([]pedigree.Sex{m, f, m, f, m, f, m},
		[]int{-1, -1, 0, 0, -1, 4, 2},
		[]int{-1, -1, 1, 1, -1, 3, 5})
}

// crossFamily: 0 × 1 → 2 (m), 3; 4 × 5 → 6 (f), 7; 2 × 6 → 8
func crossFamily() *pedigree.Pedigree {
	return ped([]pedigree.Sex{m, f, m, f, m, f, f, m, f},
		[]int{-1, -1, 0, 0, -1, -1, 4, 4, 2},
		[]int{-1, -1, 1, 1, -1, -1, 5, 5, 6})
}

// remarried: founder 0 has children 3 with 1 and 4 with 2.
func remarried() *pedigree.Pedigree {
	return ped([]pedigree.Sex{m, f, f, m, f},
		[]int{-1, -1, -1, 0, 0},
		[]int{-1, -1, -1, 1, 2})
}

// bothRemarried: founders 0 (m) × 1 (f) → 4, 0 × 2 (f) → 5, 3 (m) × 1 → 6.
// Both members of the first couple married again.
func bothRemarried() *pedigree.Pedigree {
	return ped([]pedigree.Sex{m, f, f, m, m, f, m},
		[]int{-1, -1, -1, -1, 0, 0, 3},
		[]int{-1, -1, -1, -1, 1, 2, 1})
}

// twoMarriedIn: 0 × 1 → 6 (m), 2 × 3 → 7 (f), 4 × 5 → 8 (f); 6 × 7 → 9,
// 6 × 8 → 10. Both of 6's wives bring their own parents.
func twoMarriedIn() *pedigree.Pedigree {
	return ped([]pedigree.Sex{m, f, m, f, m, f, m, f, f, m, f},
		[]int{-1, -1, -1, -1, -1, -1, 0, 2, 4, 6, 6},
		[]int{-1, -1, -1, -1, -1, -1, 1, 3, 5, 7, 8})
}

// threeWives: founder 0 (m) has children with founders 1, 2 and 3.
func threeWives() *pedigree.Pedigree {
	return ped([]pedigree.Sex{m, f, f, f, m, f, m},
		[]int{-1, -1, -1, -1, 0, 0, 0},
		[]int{-1, -1, -1, -1, 1, 2, 3})
}

// shiftedCouple: 0 × 1 → 2 (m); 2 marries founders 3 → 4 and 5 → 6;
// 11 × 12 → 9, 9 × 10 → 7, 7 × 8 → 13; 6 × 13 → 14.
//
// Aligning 2 × 3 first moves 3 down beside 2. Aligning 6 × 13 later moves
// 6 with all its ancestors, 2 among them, so 2 × 3 ends up a level apart
// even though the two share no ancestry.
func shiftedCouple() *pedigree.Pedigree {
	return ped(
		[]pedigree.Sex{m, f, m, f, m, f, m, m, f, m, f, m, f, f, m},
		[]int{-1, -1, 0, -1, 2, -1, 2, 9, -1, 11, -1, -1, -1, 7, 6},
		[]int{-1, -1, 1, -1, 3, -1, 5, 10, -1, 12, -1, -1, -1, 8, 13},
	)
}

// twins: 0 × 1 → 2, 3, 4 with 2 and 4 dizygotic twins.
func twins() *pedigree.Pedigree {
	return ped([]pedigree.Sex{m, f, m, f, m},
		[]int{-1, -1, 0, 0, 0},
		[]int{-1, -1, 1, 1, 1},
		pedigree.Relation{A: 2, B: 4, Code: pedigree.DizygoticTwin})
}

// childless couple joined only by a spouse relation, plus a loner.
func spouseRelation() *pedigree.Pedigree {
	return ped([]pedigree.Sex{m, f, pedigree.Unknown},
		[]int{-1, -1, -1},
		[]int{-1, -1, -1},
		pedigree.Relation{A: 1, B: 0, Code: pedigree.Spouse})
}

func fixtures() map[string]*pedigree.Pedigree {
	return map[string]*pedigree.Pedigree{
		"single":          single(),
		"trio":            trio(),
		"marry-in":        marryIn(),
		"second cousins":  secondCousins(),
		"uncle niece":     uncleNiece(),
		"cross family":    crossFamily(),
		"remarried":       remarried(),
		"twins":           twins(),
		"spouse relation": spouseRelation(),
		"both remarried":  bothRemarried(),
		"two married in":  twoMarriedIn(),
		"three wives":     threeWives(),
	}
}

// randomPedigree builds a pedigree of at least size individuals. Parents
// are drawn from everyone already present, with a new founder marrying in
// now and then, so remarriages, marriages across generations and between
// relatives all turn up.
func randomPedigree(seed uint64, size int) *pedigree.Pedigree {
	r := rand.New(rand.NewPCG(seed, 0))
	var sex []pedigree.Sex
	var father, mother []int
	var rel []pedigree.Relation
	add := func(s pedigree.Sex, dad, mom int) int {
		sex = append(sex, s)
		father = append(father, dad)
		mother = append(mother, mom)
		return len(sex) - 1
	}
	randomSex := func() pedigree.Sex {
		if r.IntN(2) == 0 {
			return m
		}
		return f
	}
	pick := func(want pedigree.Sex) int {
		var xs []int
		for i, s := range sex {
			if s == want {
				xs = append(xs, i)
			}
		}
		if len(xs) == 0 || r.IntN(4) == 0 {
			return add(want, -1, -1)
		}
		return xs[r.IntN(len(xs))]
	}

	for range 2 + r.IntN(3) {
		add(randomSex(), -1, -1)
	}
	for len(sex) < size {
		dad, mom := pick(m), pick(f)
		for range 1 + r.IntN(3) {
			add(randomSex(), dad, mom)
		}
		if r.IntN(5) == 0 {
			rel = append(rel, pedigree.Relation{A: pick(m), B: pick(f), Code: pedigree.Spouse})
		}
	}
	return ped(sex, father, mother, rel...)
}
