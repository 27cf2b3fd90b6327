package pedigree

import (
	"fmt"
	"slices"
	"strings"

	perrors "github.com/complexdatacollective/pedigree/pkg/errors"
)

// NoParent marks a missing father or mother.
const NoParent = -1

// Sex of an individual.
type Sex int

const (
	Unknown Sex = iota
	Male
	Female
)

// String returns the lower-case name used in documents.
func (s Sex) String() string {
	switch s {
	case Male:
		return "male"
	case Female:
		return "female"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Sex) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler. It accepts the long
// names and the common single-letter forms, case-insensitively.
func (s *Sex) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "male", "m", "1":
		*s = Male
	case "female", "f", "2":
		*s = Female
	case "", "unknown", "u", "3":
		*s = Unknown
	default:
		return perrors.New(perrors.ErrCodeInvalidInput, "unknown sex %q", string(b))
	}
	return nil
}

// RelationCode classifies a pairwise relation.
type RelationCode int

const (
	None RelationCode = iota
	MonozygoticTwin
	DizygoticTwin
	UnknownTwin
	Spouse
)

// IsTwin reports whether the code is one of the twin codes.
func (c RelationCode) IsTwin() bool { return c >= MonozygoticTwin && c < Spouse }

func (c RelationCode) String() string {
	switch c {
	case MonozygoticTwin:
		return "mz-twin"
	case DizygoticTwin:
		return "dz-twin"
	case UnknownTwin:
		return "twin"
	case Spouse:
		return "spouse"
	default:
		return "none"
	}
}

// Relation links two individuals that are not connected through parentage.
type Relation struct {
	A    int          `json:"a" toml:"a"`
	B    int          `json:"b" toml:"b"`
	Code RelationCode `json:"code" toml:"code"`
}

// Pedigree is the caller-owned input of the layout engine.
type Pedigree struct {
	IDs       []string
	Sex       []Sex
	Father    []int
	Mother    []int
	Relations []Relation
}

// Len returns the number of individuals.
func (p *Pedigree) Len() int { return len(p.Father) }

// Founder reports whether i has no recorded parents.
func (p *Pedigree) Founder(i int) bool {
	return p.Father[i] == NoParent && p.Mother[i] == NoParent
}

// HasParents reports whether i has both parents recorded.
func (p *Pedigree) HasParents(i int) bool {
	return p.Father[i] >= 0 && p.Mother[i] >= 0
}

// ID returns the identifier of i, falling back to its index.
func (p *Pedigree) ID(i int) string {
	if i >= 0 && i < len(p.IDs) && p.IDs[i] != "" {
		return p.IDs[i]
	}
	return fmt.Sprintf("#%d", i)
}

// IndexOf returns the index of the individual with the given id, or -1.
func (p *Pedigree) IndexOf(id string) int {
	return slices.Index(p.IDs, id)
}

// SexOf returns the sex of i, Unknown when no sex vector was supplied.
func (p *Pedigree) SexOf(i int) Sex {
	if i < len(p.Sex) {
		return p.Sex[i]
	}
	return Unknown
}

// Validate checks the structural invariants the layout engine relies on.
//
// Errors carry perrors.ErrCodeInvalidParents when somebody has exactly one
// recorded parent, and perrors.ErrCodeInvalidInput for every other problem
// (length mismatches, out-of-range indices, self-parenting, bad relations).
// Ancestry cycles are detected later, during depth assignment.
func (p *Pedigree) Validate() error {
	n := len(p.Father)
	if len(p.Mother) != n {
		return perrors.New(perrors.ErrCodeInvalidInput, "father and mother vectors differ in length (%d != %d)", n, len(p.Mother))
	}
	if p.IDs != nil && len(p.IDs) != n {
		return perrors.New(perrors.ErrCodeInvalidInput, "id vector has length %d, want %d", len(p.IDs), n)
	}
	if p.Sex != nil && len(p.Sex) != n {
		return perrors.New(perrors.ErrCodeInvalidInput, "sex vector has length %d, want %d", len(p.Sex), n)
	}

	for i := 0; i < n; i++ {
		f, m := p.Father[i], p.Mother[i]
		if (f == NoParent) != (m == NoParent) {
			return perrors.New(perrors.ErrCodeInvalidParents, "individual %s has exactly one recorded parent", p.ID(i))
		}
		if f == NoParent {
			continue
		}
		if f < 0 || f >= n || m < 0 || m >= n {
			return perrors.New(perrors.ErrCodeInvalidInput, "individual %s has a parent index out of range", p.ID(i))
		}
		if f == i || m == i {
			return perrors.New(perrors.ErrCodeInvalidInput, "individual %s is listed as their own parent", p.ID(i))
		}
		if f == m {
			return perrors.New(perrors.ErrCodeInvalidInput, "individual %s has the same father and mother", p.ID(i))
		}
	}

	for k, r := range p.Relations {
		if r.A < 0 || r.A >= n || r.B < 0 || r.B >= n {
			return perrors.New(perrors.ErrCodeInvalidInput, "relation %d references an unknown individual", k)
		}
		if r.A == r.B {
			return perrors.New(perrors.ErrCodeInvalidInput, "relation %d links %s to themselves", k, p.ID(r.A))
		}
		if r.Code < MonozygoticTwin || r.Code > Spouse {
			return perrors.New(perrors.ErrCodeInvalidInput, "relation %d has invalid code %d", k, r.Code)
		}
	}
	return nil
}

// Ancestors returns the sorted ancestor indices of i, excluding i itself.
// It terminates on cyclic input because every individual is visited once.
func (p *Pedigree) Ancestors(i int) []int {
	return Ancestors(i, p.Father, p.Mother)
}

// Ancestors is the vector form of [Pedigree.Ancestors].
func Ancestors(i int, father, mother []int) []int {
	seen := map[int]bool{i: true}
	queue := []int{i}
	var out []int
	for len(queue) > 0 {
		x := queue[0]
		queue = queue[1:]
		for _, par := range [2]int{father[x], mother[x]} {
			if par >= 0 && !seen[par] {
				seen[par] = true
				out = append(out, par)
				queue = append(queue, par)
			}
		}
	}
	slices.Sort(out)
	return out
}

// Children returns the indices of the children of the couple (a, b) in
// either parental role, in index order.
func (p *Pedigree) Children(a, b int) []int {
	var out []int
	for i := range p.Father {
		if (p.Father[i] == a && p.Mother[i] == b) || (p.Father[i] == b && p.Mother[i] == a) {
			out = append(out, i)
		}
	}
	return out
}

// Clone returns a deep copy.
func (p *Pedigree) Clone() *Pedigree {
	return &Pedigree{
		IDs:       slices.Clone(p.IDs),
		Sex:       slices.Clone(p.Sex),
		Father:    slices.Clone(p.Father),
		Mother:    slices.Clone(p.Mother),
		Relations: slices.Clone(p.Relations),
	}
}
