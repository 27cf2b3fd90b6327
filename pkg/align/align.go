package align

import (
	"cmp"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	perrors "github.com/complexdatacollective/pedigree/pkg/errors"
	"github.com/complexdatacollective/pedigree/pkg/pedigree"
)

// Option configures [Align].
type Option func(*config)

type config struct {
	logger        *log.Logger
	hints         *Hints
	align         bool
	packed        bool
	width         float64
	childPenalty  float64
	spousePenalty float64
}

func WithLogger(l *log.Logger) Option { return func(c *config) { c.logger = l } }
func WithAlign(on bool) Option        { return func(c *config) { c.align = on } }
func WithPacked(on bool) Option       { return func(c *config) { c.packed = on } }
func WithWidth(w float64) Option      { return func(c *config) { c.width = w } }

// WithHints supplies ordering hints. Hints that fail [CheckHints] are
// replaced by [AutoHint] output rather than causing an error.
func WithHints(h Hints) Option {
	return func(c *config) {
		hc := h.Clone()
		c.hints = &hc
	}
}

// WithPenalties sets the refinement weights: child is the sibship size
// exponent and spouse the spouse attraction.
func WithPenalties(child, spouse float64) Option {
	return func(c *config) {
		c.childPenalty = child
		c.spousePenalty = spouse
	}
}

func newConfig(opts []Option) config {
	c := config{
		align:         true,
		packed:        true,
		width:         DefaultWidth,
		childPenalty:  DefaultChildPenalty,
		spousePenalty: DefaultSpousePenalty,
	}
	for _, o := range opts {
		o(&c)
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	return c
}

// Align computes the layout of p.
//
// Errors carry codes from pkg/errors: INVALID_INPUT and INVALID_PARENTS for
// malformed pedigrees, CYCLIC_ANCESTRY when someone is their own ancestor,
// NO_FOUNDERS when no individual can start the layout, INFEASIBLE when the
// refinement has no solution and INTERNAL_ERROR for violated invariants.
func Align(p *pedigree.Pedigree, opts ...Option) (*Layout, error) {
	cfg := newConfig(opts)
	logger := cfg.logger

	if p == nil {
		return nil, perrors.New(perrors.ErrCodeInvalidInput, "pedigree is nil")
	}
	if cfg.width <= 0 || cfg.childPenalty < 0 || cfg.spousePenalty < 0 {
		return nil, perrors.New(perrors.ErrCodeInvalidInput, "width must be positive and penalties non-negative")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	n := p.Len()
	if n == 0 {
		return nil, perrors.New(perrors.ErrCodeInvalidInput, "pedigree is empty")
	}

	hints := resolveHints(p, cfg.hints, logger)

	level, err := Depth(p.Father, p.Mother, cfg.align)
	if err != nil {
		return nil, err
	}
	levels := slices.Max(level) + 1
	logger.Debug("assigned generations", "individuals", n, "levels", levels)

	spouses := buildSpouseList(p, hints)
	married := coupleSet(spouses)
	founders := findFounders(p, spouses, hints.Order)
	if len(founders) == 0 {
		return nil, perrors.New(perrors.ErrCodeNoFounders, "no individual without parents can start the layout")
	}
	logger.Debug("found founders", "founders", len(founders), "couples", len(spouses))

	s := &aligner{
		level:    level,
		order:    hints.Order,
		families: newFamilyIndex(p),
		levels:   levels,
		packed:   cfg.packed,
	}
	var grid *Alignment
	for _, f := range founders {
		// A founder drawn as someone's spouse still draws their other couples.
		if grid != nil && grid.contains(f) && !slices.ContainsFunc(spouses, func(r spouseRow) bool { return r.has(f) }) {
			continue
		}
		var sub *Alignment
		sub, spouses = s.subtree(f, spouses)
		if grid == nil {
			grid = sub
		} else {
			grid = mergeAlignments(grid, sub, cfg.packed)
		}
	}

	// Anyone still missing hangs from a couple neither member could draw.
	rest := make([]int, n)
	for i := range rest {
		rest[i] = i
	}
	sortByOrder(rest, hints.Order)
	slices.SortStableFunc(rest, func(a, b int) int { return cmp.Compare(level[a], level[b]) })
	for _, i := range rest {
		if grid.contains(i) {
			continue
		}
		logger.Debug("drawing unreached individual", "id", p.ID(i))
		var sub *Alignment
		sub, spouses = s.subtree(i, spouses)
		grid = mergeAlignments(grid, sub, cfg.packed)
	}

	finalize(grid, p, married)
	if missing := countMissing(grid, n); missing > 0 {
		return nil, perrors.New(perrors.ErrCodeInternal, "%d individuals missing from the layout", missing)
	}

	out := annotate(p, grid)
	if levels > 1 {
		pos, err := refine(grid, grid.Spouse, cfg.width, cfg.childPenalty, cfg.spousePenalty)
		if err != nil {
			return nil, err
		}
		out.Pos = pos
		logger.Debug("refined positions", "widest", slices.Max(grid.N))
	}
	return out, nil
}

// annotate converts a finished grid into a Layout, classifying marriages
// and marking twins.
func annotate(p *pedigree.Pedigree, a *Alignment) *Layout {
	levels, cols := a.Levels(), a.Cols()
	out := &Layout{
		N:      slices.Clone(a.N),
		NID:    make([][]int, levels),
		Pos:    make([][]float64, levels),
		Fam:    make([][]int, levels),
		Spouse: make([][]SpouseKind, levels),
		Twins:  make([][]pedigree.RelationCode, levels),
	}
	for l := 0; l < levels; l++ {
		out.NID[l] = slices.Clone(a.NID[l])
		out.Pos[l] = slices.Clone(a.Pos[l])
		out.Fam[l] = slices.Clone(a.Fam[l])
		out.Spouse[l] = make([]SpouseKind, cols)
		out.Twins[l] = make([]pedigree.RelationCode, cols)
		for c := 0; c+1 < a.N[l]; c++ {
			if !a.Spouse[l][c] {
				continue
			}
			out.Spouse[l][c] = Married
			if intersects(p.Ancestors(a.NID[l][c]), p.Ancestors(a.NID[l][c+1])) {
				out.Spouse[l][c] = Consanguineous
			}
		}
	}

	for _, r := range p.Relations {
		if !r.Code.IsTwin() {
			continue
		}
		la, ca, okA := childCell(a, r.A)
		lb, cb, okB := childCell(a, r.B)
		if okA && okB && la == lb {
			out.Twins[la][min(ca, cb)] = r.Code
		}
	}
	return out
}

// childCell finds the first cell of i that hangs below a family.
func childCell(a *Alignment, i int) (level, col int, ok bool) {
	for l := range a.N {
		for c := 0; c < a.N[l]; c++ {
			if a.NID[l][c] == i && a.Fam[l][c] > 0 {
				return l, c, true
			}
		}
	}
	return 0, 0, false
}

func countMissing(a *Alignment, n int) int {
	seen := make([]bool, n)
	for l := range a.N {
		for c := 0; c < a.N[l]; c++ {
			seen[a.NID[l][c]] = true
		}
	}
	missing := 0
	for _, s := range seen {
		if !s {
			missing++
		}
	}
	return missing
}
