package align

import (
	"slices"

	perrors "github.com/complexdatacollective/pedigree/pkg/errors"
	"github.com/complexdatacollective/pedigree/pkg/pedigree"
)

// Depth returns the generation level of every individual: 0 for founders,
// and for everyone else one more than the deeper of their two parents.
//
// With align set, couples on different levels are moved onto the deeper
// spouse's level by shifting the shallower spouse together with all of
// their ancestors, then pushing descendants down so every child stays below
// its parents. A couple is left misaligned when the two ancestor sets
// overlap, since shifting one side would then move the other as well.
// Each couple is visited at most once, shallowest first.
//
// Depth fails with CYCLIC_ANCESTRY when someone is their own ancestor, and
// with INTERNAL_ERROR if alignment leaves a non-founder on level 0.
func Depth(father, mother []int, align bool) ([]int, error) {
	if err := (&pedigree.Pedigree{Father: father, Mother: mother}).Validate(); err != nil {
		return nil, err
	}
	n := len(father)
	depth := make([]int, n)
	if n <= 1 {
		return depth, nil
	}

	founder := func(i int) bool { return father[i] < 0 && mother[i] < 0 }

	frontier := make([]bool, n)
	for i := 0; i < n; i++ {
		frontier[i] = founder(i)
	}
	for gen := 1; gen <= n; gen++ {
		next := make([]bool, n)
		found := false
		for c := 0; c < n; c++ {
			if founder(c) {
				continue
			}
			if frontier[father[c]] || frontier[mother[c]] {
				next[c] = true
				found = true
			}
		}
		if !found {
			break
		}
		if gen == n {
			return nil, perrors.New(perrors.ErrCodeCyclicAncestry, "impossible pedigree: someone is their own ancestor")
		}
		for c := 0; c < n; c++ {
			if next[c] {
				depth[c] = gen
			}
		}
		frontier = next
	}

	// Non-founders never reached from a founder sit on a closed loop of
	// ancestry.
	for i := 0; i < n; i++ {
		if depth[i] == 0 && !founder(i) {
			return nil, perrors.New(perrors.ErrCodeCyclicAncestry, "impossible pedigree: individual %d is their own ancestor", i)
		}
	}

	if !align {
		return depth, nil
	}

	dads, moms := parentPairs(father, mother)
	done := make([]bool, len(dads))
	for {
		who, best := -1, 0
		for k := range dads {
			if done[k] || depth[dads[k]] == depth[moms[k]] {
				continue
			}
			if d := max(depth[dads[k]], depth[moms[k]]); who < 0 || d < best {
				who, best = k, d
			}
		}
		if who < 0 {
			break
		}

		good, bad := moms[who], dads[who]
		if depth[dads[who]] > depth[moms[who]] {
			good, bad = dads[who], moms[who]
		}
		abad := append(pedigree.Ancestors(bad, father, mother), bad)
		agood := append(pedigree.Ancestors(good, father, mother), good)
		if !intersects(abad, agood) {
			shift := depth[good] - depth[bad]
			for _, a := range abad {
				depth[a] += shift
			}
			pushDescendants(depth, father, mother)
		}
		done[who] = true
	}

	if lo := slices.Min(depth); lo > 0 {
		for i := range depth {
			depth[i] -= lo
		}
	}
	for i := 0; i < n; i++ {
		if depth[i] == 0 && !founder(i) {
			return nil, perrors.New(perrors.ErrCodeInternal, "depth alignment left individual %d on the founder level", i)
		}
	}
	return depth, nil
}

// parentPairs returns the distinct (father, mother) pairs in order of first
// appearance.
func parentPairs(father, mother []int) (dads, moms []int) {
	n := len(father)
	seen := make(map[int]bool)
	for c := 0; c < n; c++ {
		if father[c] < 0 {
			continue
		}
		key := father[c]*n + mother[c]
		if seen[key] {
			continue
		}
		seen[key] = true
		dads = append(dads, father[c])
		moms = append(moms, mother[c])
	}
	return dads, moms
}

// pushDescendants moves children down until each is below both parents.
// The input must be acyclic.
func pushDescendants(depth, father, mother []int) {
	for changed := true; changed; {
		changed = false
		for c := range depth {
			if father[c] < 0 {
				continue
			}
			if want := 1 + max(depth[father[c]], depth[mother[c]]); depth[c] < want {
				depth[c] = want
				changed = true
			}
		}
	}
}

func intersects(a, b []int) bool {
	for _, x := range a {
		if slices.Contains(b, x) {
			return true
		}
	}
	return false
}
