// Package pedfile reads pedigree documents and writes computed layouts.
//
// # Pedigree documents
//
// A pedigree document lists individuals by string identifier, optional
// twin and spouse relations, and optional ordering hints. Documents are
// JSON or TOML; the format is chosen from the file extension by
// [ReadPedigreeFile] or given explicitly to [ReadPedigree]:
//
//	{
//	  "individuals": [
//	    {"id": "dad", "sex": "male"},
//	    {"id": "mom", "sex": "female"},
//	    {"id": "kid", "sex": "female", "father": "dad", "mother": "mom"}
//	  ],
//	  "relations": [{"a": "kid", "b": "kid2", "code": 2}],
//	  "hints": {"order": {"kid": 1}}
//	}
//
// The same document in TOML uses [[individuals]] and [[relations]] tables.
// [Document.Pedigree] resolves identifiers into an index-addressed
// [pedigree.Pedigree] and the hints into [align.Hints].
//
// # Layout documents
//
// [WriteLayout] emits the layout matrices alongside a flat cells list that
// renderers can consume without understanding the grid encoding:
//
//	{
//	  "ids": ["dad", "mom", "kid"],
//	  "n": [2, 1],
//	  ...
//	  "cells": [{"id": "dad", "level": 0, "column": 0, "x": 0, "spouse": "spouse"}, ...]
//	}
//
// [ReadLayout] and [ReadLayoutFile] decode the document back and validate
// the matrices.
package pedfile
