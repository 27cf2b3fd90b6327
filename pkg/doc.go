// Package pkg provides the libraries behind the pedigree layout engine.
//
// # Overview
//
// A pedigree is a family tree in which every individual has either no
// recorded parents or both. The engine assigns each individual a
// generation and a horizontal position so that spouses sit side by side and
// children sit beneath their parents. The pkg directory is organized into:
//
//  1. [pedigree] - Individuals, parents, sexes and twin relations
//  2. [align] - The layout engine (depth, subtree packing, merging, refinement)
//  3. [qp] - The quadratic program used by refinement
//  4. [pedfile] - JSON/TOML pedigree documents and JSON layout documents
//  5. [render] - Graphviz drawing of a layout (DOT, SVG, PNG, PDF)
//  6. [pipeline] - Orchestration (document → layout → artifacts) with caching
//  7. [cache] - File, Redis and MongoDB caches
//  8. [server] - The HTTP API
//
// # Architecture
//
//	Pedigree document (JSON/TOML)
//	         ↓
//	    [pedfile] package (decode, resolve identifiers)
//	         ↓
//	    [align] package (generations, columns, positions)
//	         ↓
//	    [render] package (DOT → Graphviz)
//	         ↓
//	    SVG/PDF/PNG/DOT/JSON output
//
// # Quick Start
//
//	doc, err := pedfile.ReadPedigreeFile("family.toml")
//	if err != nil {
//	    return err
//	}
//	p, hints, err := doc.Pedigree(logger)
//	if err != nil {
//	    return err
//	}
//	layout, err := align.Align(p, align.WithHints(*hints))
//
// Most callers go through [pipeline.Runner], which adds caching and
// rendering on top of the same steps.
package pkg
