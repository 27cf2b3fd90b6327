package pedigree

import (
	perrors "github.com/complexdatacollective/pedigree/pkg/errors"
)

// Record describes one individual by string identifiers. Father and Mother
// are empty for founders.
type Record struct {
	ID     string `json:"id" toml:"id"`
	Sex    Sex    `json:"sex" toml:"sex"`
	Father string `json:"father,omitempty" toml:"father"`
	Mother string `json:"mother,omitempty" toml:"mother"`
}

// RecordRelation is a [Relation] expressed with string identifiers.
type RecordRelation struct {
	A    string       `json:"a" toml:"a"`
	B    string       `json:"b" toml:"b"`
	Code RelationCode `json:"code" toml:"code"`
}

// FromRecords builds an index-addressed Pedigree from records, preserving
// record order. Identifiers must be unique and valid; parent and relation
// identifiers must refer to records in the list. The result is validated.
func FromRecords(records []Record, relations []RecordRelation) (*Pedigree, error) {
	n := len(records)
	index := make(map[string]int, n)
	p := &Pedigree{
		IDs:    make([]string, n),
		Sex:    make([]Sex, n),
		Father: make([]int, n),
		Mother: make([]int, n),
	}

	for i, r := range records {
		if err := perrors.ValidateID(r.ID); err != nil {
			return nil, err
		}
		if _, dup := index[r.ID]; dup {
			return nil, perrors.New(perrors.ErrCodeInvalidInput, "duplicate individual id %q", r.ID)
		}
		index[r.ID] = i
		p.IDs[i] = r.ID
		p.Sex[i] = r.Sex
	}

	lookup := func(id, role, child string) (int, error) {
		if id == "" {
			return NoParent, nil
		}
		j, ok := index[id]
		if !ok {
			return 0, perrors.New(perrors.ErrCodeInvalidInput, "%s %q of %q is not in the pedigree", role, id, child)
		}
		return j, nil
	}

	for i, r := range records {
		var err error
		if p.Father[i], err = lookup(r.Father, "father", r.ID); err != nil {
			return nil, err
		}
		if p.Mother[i], err = lookup(r.Mother, "mother", r.ID); err != nil {
			return nil, err
		}
	}

	for _, rel := range relations {
		a, ok := index[rel.A]
		if !ok {
			return nil, perrors.New(perrors.ErrCodeInvalidInput, "relation references unknown id %q", rel.A)
		}
		b, ok := index[rel.B]
		if !ok {
			return nil, perrors.New(perrors.ErrCodeInvalidInput, "relation references unknown id %q", rel.B)
		}
		p.Relations = append(p.Relations, Relation{A: a, B: b, Code: rel.Code})
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Records converts the pedigree back to string-identified records.
func (p *Pedigree) Records() ([]Record, []RecordRelation) {
	recs := make([]Record, p.Len())
	for i := range recs {
		recs[i] = Record{ID: p.ID(i), Sex: p.SexOf(i)}
		if p.Father[i] >= 0 {
			recs[i].Father = p.ID(p.Father[i])
		}
		if p.Mother[i] >= 0 {
			recs[i].Mother = p.ID(p.Mother[i])
		}
	}
	var rels []RecordRelation
	for _, r := range p.Relations {
		rels = append(rels, RecordRelation{A: p.ID(r.A), B: p.ID(r.B), Code: r.Code})
	}
	return recs, rels
}
