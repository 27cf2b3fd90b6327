// Package pedigree defines the input model of the layout engine: individuals,
// their sex, parent links and pairwise relations (twins and non-parental
// spouses).
//
// # Indexing
//
// Individuals are index-addressed. Father and Mother hold the index of the
// parent or [NoParent] (-1). A pedigree where somebody has exactly one
// recorded parent is rejected by [Pedigree.Validate]; the layout algorithm
// relies on parents always coming in pairs.
//
// # Building
//
// Callers holding string identifiers (as most documents do) can use
// [FromRecords], which resolves parent identifiers to indices:
//
//	p, err := pedigree.FromRecords([]pedigree.Record{
//	    {ID: "dad", Sex: pedigree.Male},
//	    {ID: "mom", Sex: pedigree.Female},
//	    {ID: "kid", Sex: pedigree.Female, Father: "dad", Mother: "mom"},
//	}, nil)
//
// A Pedigree is never mutated by the layout engine.
package pedigree
