package pedfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/complexdatacollective/pedigree/pkg/align"
	perrors "github.com/complexdatacollective/pedigree/pkg/errors"
	"github.com/complexdatacollective/pedigree/pkg/pedigree"
)

// =============================================================================
// Layout document
// =============================================================================

// LayoutDocument is the serialized form of an [align.Layout]. IDs maps
// pedigree indices back to identifiers; Cells repeats the occupied grid
// positions in a flat form.
type LayoutDocument struct {
	IDs    []string                  `json:"ids"`
	N      []int                     `json:"n"`
	NID    [][]int                   `json:"nid"`
	Pos    [][]float64               `json:"pos"`
	Fam    [][]int                   `json:"fam"`
	Spouse [][]align.SpouseKind      `json:"spouse"`
	Twins  [][]pedigree.RelationCode `json:"twins"`
	Cells  []Cell                    `json:"cells"`
}

// Cell is one drawn individual.
type Cell struct {
	ID     string  `json:"id"`
	Level  int     `json:"level"`
	Column int     `json:"column"`
	X      float64 `json:"x"`
	Family int     `json:"family,omitempty"`
	Spouse string  `json:"spouse,omitempty"`
	Twin   string  `json:"twin,omitempty"`
}

// NewLayoutDocument flattens a layout computed for p.
func NewLayoutDocument(l *align.Layout, p *pedigree.Pedigree) *LayoutDocument {
	ids := make([]string, p.Len())
	for i := range ids {
		ids[i] = p.ID(i)
	}
	d := &LayoutDocument{
		IDs: ids, N: l.N, NID: l.NID, Pos: l.Pos,
		Fam: l.Fam, Spouse: l.Spouse, Twins: l.Twins,
	}
	for _, c := range l.Cells() {
		cell := Cell{
			ID:     p.ID(c.Index),
			Level:  c.Level,
			Column: c.Column,
			X:      c.X,
			Family: c.Family,
		}
		if c.Spouse != align.NotSpouse {
			cell.Spouse = c.Spouse.String()
		}
		if c.Twin != pedigree.None {
			cell.Twin = c.Twin.String()
		}
		d.Cells = append(d.Cells, cell)
	}
	return d
}

// Layout returns the grid part of the document after validating it.
func (d *LayoutDocument) Layout() (*align.Layout, error) {
	l := &align.Layout{N: d.N, NID: d.NID, Pos: d.Pos, Fam: d.Fam, Spouse: d.Spouse, Twins: d.Twins}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	for _, c := range l.Cells() {
		if c.Index >= len(d.IDs) {
			return nil, perrors.New(perrors.ErrCodeInvalidInput, "cell (%d,%d) references individual %d of %d", c.Level, c.Column, c.Index, len(d.IDs))
		}
	}
	return l, nil
}

// =============================================================================
// Layout serialization API
// =============================================================================

// MarshalLayout serializes a layout to pretty-printed JSON bytes.
func MarshalLayout(l *align.Layout, p *pedigree.Pedigree) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteLayout(l, p, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteLayout writes a layout as JSON to w.
func WriteLayout(l *align.Layout, p *pedigree.Pedigree, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewLayoutDocument(l, p)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteLayoutFile writes a layout to a JSON file.
func WriteLayoutFile(l *align.Layout, p *pedigree.Pedigree, path string) error {
	data, err := MarshalLayout(l, p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadLayout decodes and validates a layout document.
func ReadLayout(r io.Reader) (*LayoutDocument, error) {
	var d LayoutDocument
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "decode layout")
	}
	if _, err := d.Layout(); err != nil {
		return nil, err
	}
	return &d, nil
}

// ReadLayoutFile reads a layout document from a JSON file.
func ReadLayoutFile(path string) (*LayoutDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadLayout(f)
}
