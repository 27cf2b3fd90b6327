package align

import (
	"math"
	"slices"

	"github.com/charmbracelet/log"

	perrors "github.com/complexdatacollective/pedigree/pkg/errors"
	"github.com/complexdatacollective/pedigree/pkg/pedigree"
)

// Anchor names the member of a hinted couple that draws the marriage.
// The other member still appears with their own family, and the two copies
// are joined when they end up adjacent.
type Anchor int

const (
	AnchorNone  Anchor = iota // Either member may draw the marriage
	AnchorLeft                // The left member draws it
	AnchorRight               // The right member draws it
)

// SpouseHint declares that Left is drawn immediately left of Right.
type SpouseHint struct {
	Left   int    `json:"left" toml:"left"`
	Right  int    `json:"right" toml:"right"`
	Anchor Anchor `json:"anchor,omitempty" toml:"anchor"`
}

// Hints carry a caller's ordering preferences. Order ranks individuals left
// to right among their siblings and among founders; only relative values
// matter. Spouses fixes the side and the drawing member of couples.
type Hints struct {
	Order   []float64    `json:"order,omitempty" toml:"order"`
	Spouses []SpouseHint `json:"spouses,omitempty" toml:"spouses"`
}

// Clone returns a deep copy of h.
func (h Hints) Clone() Hints {
	return Hints{Order: slices.Clone(h.Order), Spouses: slices.Clone(h.Spouses)}
}

func identityHints(n int) Hints {
	order := make([]float64, n)
	for i := range order {
		order[i] = float64(i + 1)
	}
	return Hints{Order: order}
}

// CheckHints validates caller-supplied hints against p and returns a
// normalised copy. A missing order is replaced by the identity order.
// Spouse entries must reference two distinct individuals that are not of
// the same known sex; a couple listed twice keeps its first entry.
func CheckHints(h Hints, p *pedigree.Pedigree) (Hints, error) {
	n := p.Len()
	out := h.Clone()
	if len(out.Order) == 0 {
		out.Order = identityHints(n).Order
	}
	if len(out.Order) != n {
		return Hints{}, perrors.New(perrors.ErrCodeInvalidHints, "order has %d entries, want %d", len(out.Order), n)
	}
	for i, v := range out.Order {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Hints{}, perrors.New(perrors.ErrCodeInvalidHints, "order entry %d is not finite", i)
		}
	}

	seen := make(map[[2]int]bool)
	spouses := out.Spouses[:0]
	for k, s := range out.Spouses {
		if s.Left < 0 || s.Left >= n || s.Right < 0 || s.Right >= n {
			return Hints{}, perrors.New(perrors.ErrCodeInvalidHints, "spouse hint %d references an unknown individual", k)
		}
		if s.Left == s.Right {
			return Hints{}, perrors.New(perrors.ErrCodeInvalidHints, "spouse hint %d pairs %s with themselves", k, p.ID(s.Left))
		}
		if s.Anchor < AnchorNone || s.Anchor > AnchorRight {
			return Hints{}, perrors.New(perrors.ErrCodeInvalidHints, "spouse hint %d has invalid anchor %d", k, s.Anchor)
		}
		sl, sr := p.SexOf(s.Left), p.SexOf(s.Right)
		if sl != pedigree.Unknown && sl == sr {
			return Hints{}, perrors.New(perrors.ErrCodeInvalidHints, "spouse hint %d pairs two individuals of the same sex", k)
		}
		key := [2]int{min(s.Left, s.Right), max(s.Left, s.Right)}
		if seen[key] {
			continue
		}
		seen[key] = true
		spouses = append(spouses, s)
	}
	out.Spouses = spouses
	return out, nil
}

// AutoHint derives hints from the structure of p:
//
//   - individuals keep their index order;
//   - twins are ranked next to each other;
//   - a couple whose members both have parents in the pedigree gets a
//     spouse hint, drawn by the member with more such couples (the husband
//     on a tie). The left member is moved to the right end of their sibship
//     and the right member to the left end of theirs, so the two families
//     can meet at the couple.
//
// A member's hinted couples alternate sides, so a person with two
// married-in partners has one on each side.
func AutoHint(p *pedigree.Pedigree) (Hints, error) {
	if err := p.Validate(); err != nil {
		return Hints{}, err
	}
	n := p.Len()
	h := identityHints(n)

	groupTwins(h.Order, p)

	var couples [][2]int
	count := make(map[int]int)
	for _, c := range coupleCandidates(p) {
		if p.HasParents(c[0]) && p.HasParents(c[1]) {
			couples = append(couples, c)
			count[c[0]]++
			count[c[1]]++
		}
	}

	drawn := make(map[int]int)
	moved := make(map[int]bool)
	for _, c := range couples {
		husband, wife := c[0], c[1]
		drawer := husband
		if count[wife] > count[husband] {
			drawer = wife
		}
		left, right := husband, wife
		if drawn[drawer]%2 == 1 {
			left, right = wife, husband
		}
		drawn[drawer]++

		anchor := AnchorLeft
		if drawer == right {
			anchor = AnchorRight
		}
		h.Spouses = append(h.Spouses, SpouseHint{Left: left, Right: right, Anchor: anchor})

		if !moved[left] {
			_, hi := sibshipRange(h.Order, p, left)
			h.Order[left] = hi + 1
			moved[left] = true
		}
		if !moved[right] {
			lo, _ := sibshipRange(h.Order, p, right)
			h.Order[right] = lo - 1
			moved[right] = true
		}
	}
	return CheckHints(h, p)
}

// groupTwins makes every twin set contiguous in order, placing the set at
// the rank of its first member.
func groupTwins(order []float64, p *pedigree.Pedigree) {
	n := len(order)
	root := make([]int, n)
	for i := range root {
		root[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if root[i] != i {
			root[i] = find(root[i])
		}
		return root[i]
	}
	twins := false
	for _, r := range p.Relations {
		if !r.Code.IsTwin() {
			continue
		}
		twins = true
		a, b := find(r.A), find(r.B)
		if a != b {
			root[max(a, b)] = min(a, b)
		}
	}
	if !twins {
		return
	}

	// Sort by (group rank, own rank) and re-number.
	groupRank := make([]float64, n)
	for i := range groupRank {
		groupRank[i] = math.Inf(1)
	}
	for i := 0; i < n; i++ {
		g := find(i)
		groupRank[g] = min(groupRank[g], order[i])
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		ga, gb := groupRank[find(a)], groupRank[find(b)]
		if ga != gb {
			if ga < gb {
				return -1
			}
			return 1
		}
		switch {
		case order[a] < order[b]:
			return -1
		case order[a] > order[b]:
			return 1
		}
		return 0
	})
	for rank, i := range idx {
		order[i] = float64(rank + 1)
	}
}

// coupleCandidates lists couples as (husband, wife) pairs from spouse
// relations and parent pairs, skipping couples of the same known sex.
func coupleCandidates(p *pedigree.Pedigree) [][2]int {
	var out [][2]int
	seen := make(map[[2]int]bool)
	add := func(a, b int) {
		if p.SexOf(a) == pedigree.Female || p.SexOf(b) == pedigree.Male {
			a, b = b, a
		}
		if sa := p.SexOf(a); sa != pedigree.Unknown && sa == p.SexOf(b) {
			return
		}
		key := [2]int{min(a, b), max(a, b)}
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, [2]int{a, b})
	}
	for _, r := range p.Relations {
		if r.Code == pedigree.Spouse {
			add(r.A, r.B)
		}
	}
	for c := 0; c < p.Len(); c++ {
		if p.HasParents(c) {
			add(p.Father[c], p.Mother[c])
		}
	}
	return out
}

// sibshipRange returns the lowest and highest order among i and the
// children of i's parents.
func sibshipRange(order []float64, p *pedigree.Pedigree, i int) (lo, hi float64) {
	lo, hi = order[i], order[i]
	for _, s := range p.Children(p.Father[i], p.Mother[i]) {
		lo = min(lo, order[s])
		hi = max(hi, order[s])
	}
	return lo, hi
}

// resolveHints returns usable hints for p. Supplied hints that fail
// validation are replaced by automatic ones, and if those cannot be built
// the identity order is used.
func resolveHints(p *pedigree.Pedigree, h *Hints, logger *log.Logger) Hints {
	if h != nil {
		checked, err := CheckHints(*h, p)
		if err == nil {
			return checked
		}
		logger.Warn("ignoring invalid hints", "err", err)
	}
	auto, err := AutoHint(p)
	if err != nil {
		logger.Warn("automatic hints failed, using identity order", "err", err)
		return identityHints(p.Len())
	}
	return auto
}
