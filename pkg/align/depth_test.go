package align

import (
	"slices"
	"testing"

	perrors "github.com/complexdatacollective/pedigree/pkg/errors"
)

func TestDepth(t *testing.T) {
	tests := []struct {
		name   string
		father []int
		mother []int
		align  bool
		want   []int
	}{
		{"empty", nil, nil, true, []int{}},
		{"single", []int{-1}, []int{-1}, true, []int{0}},
		{"trio", []int{-1, -1, 0}, []int{-1, -1, 1}, true, []int{0, 0, 1}},
		{
			"marry-in unaligned",
			marryIn().Father, marryIn().Mother, false,
			[]int{0, 0, 1, 0, 2},
		},
		{
			"marry-in aligned",
			marryIn().Father, marryIn().Mother, true,
			[]int{0, 0, 1, 1, 2},
		},
		{
			// 2 and 5 share ancestors 0 and 1, so 2 is not moved.
			"overlapping ancestry stays",
			uncleNiece().Father, uncleNiece().Mother, true,
			[]int{0, 0, 1, 1, 1, 2, 3},
		},
		{
			"second cousins aligned",
			secondCousins().Father, secondCousins().Mother, true,
			[]int{0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Depth(tt.father, tt.mother, tt.align)
			if err != nil {
				t.Fatalf("Depth() error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Depth() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDepthChildrenBelowParents(t *testing.T) {
	for name, p := range fixtures() {
		for _, align := range []bool{false, true} {
			depth, err := Depth(p.Father, p.Mother, align)
			if err != nil {
				t.Fatalf("%s: Depth() error: %v", name, err)
			}
			for i := range depth {
				if p.Founder(i) {
					continue
				}
				if depth[i] <= depth[p.Father[i]] || depth[i] <= depth[p.Mother[i]] {
					t.Errorf("%s (align=%v): individual %d at depth %d is not below parents %d,%d",
						name, align, i, depth[i], depth[p.Father[i]], depth[p.Mother[i]])
				}
			}
		}
	}
}

func TestDepthAlignedSpouses(t *testing.T) {
	for name, p := range fixtures() {
		depth, err := Depth(p.Father, p.Mother, true)
		if err != nil {
			t.Fatalf("%s: Depth() error: %v", name, err)
		}
		dads, moms := parentPairs(p.Father, p.Mother)
		for k := range dads {
			if depth[dads[k]] == depth[moms[k]] {
				continue
			}
			if !intersects(append(p.Ancestors(dads[k]), dads[k]), append(p.Ancestors(moms[k]), moms[k])) {
				t.Errorf("%s: couple %d,%d on depths %d,%d without shared ancestry",
					name, dads[k], moms[k], depth[dads[k]], depth[moms[k]])
			}
		}
	}
}

func TestDepthAlignedCoupleNotRevisited(t *testing.T) {
	p := shiftedCouple()
	got, err := Depth(p.Father, p.Mother, true)
	if err != nil {
		t.Fatalf("Depth() error: %v", err)
	}
	want := []int{1, 1, 2, 1, 3, 2, 3, 2, 2, 1, 1, 0, 0, 3, 4}
	if !slices.Equal(got, want) {
		t.Fatalf("Depth() = %v, want %v", got, want)
	}
	// 2 × 3 was aligned first; moving 6 × 13 later pulls 2 down alone.
	if got[2] == got[3] {
		t.Errorf("couple 2,3 on one level; expected the earlier alignment to be left as is")
	}
}

func TestDepthCycle(t *testing.T) {
	tests := []struct {
		name   string
		father []int
		mother []int
	}{
		{"mutual fathers", []int{1, 0, -1}, []int{2, 2, -1}},
		{"no founders", []int{1, 2, 0}, []int{2, 0, 1}},
		{"isolated loop", []int{-1, -1, 3, 2}, []int{-1, -1, 1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Depth(tt.father, tt.mother, true)
			if !perrors.Is(err, perrors.ErrCodeCyclicAncestry) {
				t.Errorf("Depth() = %v, want CYCLIC_ANCESTRY", err)
			}
		})
	}
}

func TestDepthOneParent(t *testing.T) {
	_, err := Depth([]int{-1, -1, -1, -1, 3}, []int{-1, -1, -1, -1, -1}, true)
	if !perrors.Is(err, perrors.ErrCodeInvalidParents) {
		t.Errorf("Depth() = %v, want INVALID_PARENTS", err)
	}
}
