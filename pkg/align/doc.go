// Package align computes the grid layout of a pedigree diagram.
//
// # Overview
//
// Given a [pedigree.Pedigree], [Align] places every individual on a row
// (generation) and a column, then assigns each occupied cell a continuous
// horizontal coordinate. The result is a [Layout] that a renderer maps to
// screen space: level for y, Pos for x.
//
// The computation runs in five stages:
//
//  1. [Depth] assigns generation levels. With alignment enabled, married
//     couples are moved onto a common row when that is safe.
//  2. Hints fix a left-to-right preference for siblings and founders.
//     Missing hints are generated by [AutoHint]; invalid ones are replaced.
//  3. Each founder's descendants are laid out recursively into a
//     rectangular grid, one row per generation.
//  4. The per-founder grids are merged left to right, joining cells that
//     refer to the same individual at a merge boundary.
//  5. A quadratic program moves cells horizontally to pull spouses
//     together and centre children below their parents, while keeping
//     every row ordered with unit spacing.
//
// # Grid encoding
//
// All matrices in a [Layout] are indexed [level][column]. Row l holds
// N[l] occupied cells in columns 0..N[l]-1; the remaining columns hold
// [Empty]. Fam[l][c] is the 1-based column of the left parent in row l-1,
// or 0 for cells without parents in the diagram. Spouse[l][c] describes the
// boundary between columns c and c+1.
//
// An individual may occupy more than one cell when a marriage crosses
// families that cannot be drawn adjacently; renderers connect such copies.
//
// # Determinism
//
// Align is a pure function of its inputs. It allocates all state per call,
// never mutates the pedigree or the hints and is safe for concurrent use.
package align
