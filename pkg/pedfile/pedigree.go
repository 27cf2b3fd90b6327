package pedfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/complexdatacollective/pedigree/pkg/align"
	perrors "github.com/complexdatacollective/pedigree/pkg/errors"
	"github.com/complexdatacollective/pedigree/pkg/pedigree"
)

// Document formats.
const (
	FormatJSON = "json"
	FormatTOML = "toml"
)

// Document is the on-disk form of a pedigree.
type Document struct {
	Individuals []pedigree.Record         `json:"individuals" toml:"individuals"`
	Relations   []pedigree.RecordRelation `json:"relations,omitempty" toml:"relations,omitempty"`
	Hints       *HintSet                  `json:"hints,omitempty" toml:"hints,omitempty"`
}

// HintSet expresses [align.Hints] with identifiers. Individuals missing
// from Order keep their 1-based position in the document as rank.
type HintSet struct {
	Order   map[string]float64 `json:"order,omitempty" toml:"order,omitempty"`
	Spouses []SpouseHint       `json:"spouses,omitempty" toml:"spouses,omitempty"`
}

// SpouseHint places Left immediately left of Right. Anchor is "left",
// "right" or empty.
type SpouseHint struct {
	Left   string `json:"left" toml:"left"`
	Right  string `json:"right" toml:"right"`
	Anchor string `json:"anchor,omitempty" toml:"anchor,omitempty"`
}

// Pedigree resolves the document into an index-addressed pedigree and,
// when the document carries hints, the matching [align.Hints]. The hints
// are translated but not checked; [align.Align] validates them. A hint set
// naming an unknown id or anchor is dropped with a warning on logger (nil
// discards), which leaves the layout to automatic hints.
func (d *Document) Pedigree(logger *log.Logger) (*pedigree.Pedigree, *align.Hints, error) {
	p, err := pedigree.FromRecords(d.Individuals, d.Relations)
	if err != nil {
		return nil, nil, err
	}
	if d.Hints == nil {
		return p, nil, nil
	}
	h, err := d.Hints.resolve(p)
	if err != nil {
		if logger == nil {
			logger = log.New(io.Discard)
		}
		logger.Warn("ignoring hints", "err", err)
		return p, nil, nil
	}
	return p, h, nil
}

func (hs *HintSet) resolve(p *pedigree.Pedigree) (*align.Hints, error) {
	h := &align.Hints{}
	if len(hs.Order) > 0 {
		h.Order = make([]float64, p.Len())
		for i := range h.Order {
			h.Order[i] = float64(i + 1)
		}
		for id, rank := range hs.Order {
			i := p.IndexOf(id)
			if i < 0 {
				return nil, perrors.New(perrors.ErrCodeInvalidHints, "order hint references unknown id %q", id)
			}
			h.Order[i] = rank
		}
	}
	for _, s := range hs.Spouses {
		l, r := p.IndexOf(s.Left), p.IndexOf(s.Right)
		if l < 0 || r < 0 {
			return nil, perrors.New(perrors.ErrCodeInvalidHints, "spouse hint %s/%s references an unknown id", s.Left, s.Right)
		}
		anchor, err := parseAnchor(s.Anchor)
		if err != nil {
			return nil, err
		}
		h.Spouses = append(h.Spouses, align.SpouseHint{Left: l, Right: r, Anchor: anchor})
	}
	return h, nil
}

func parseAnchor(s string) (align.Anchor, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return align.AnchorNone, nil
	case "left":
		return align.AnchorLeft, nil
	case "right":
		return align.AnchorRight, nil
	}
	return 0, perrors.New(perrors.ErrCodeInvalidHints, "unknown anchor %q", s)
}

func anchorName(a align.Anchor) string {
	switch a {
	case align.AnchorLeft:
		return "left"
	case align.AnchorRight:
		return "right"
	}
	return ""
}

// NewDocument converts a pedigree and optional hints back to document form.
func NewDocument(p *pedigree.Pedigree, h *align.Hints) *Document {
	recs, rels := p.Records()
	d := &Document{Individuals: recs, Relations: rels}
	if h == nil {
		return d
	}
	hs := &HintSet{}
	if len(h.Order) == p.Len() {
		hs.Order = make(map[string]float64, len(h.Order))
		for i, v := range h.Order {
			hs.Order[p.ID(i)] = v
		}
	}
	for _, s := range h.Spouses {
		hs.Spouses = append(hs.Spouses, SpouseHint{Left: p.ID(s.Left), Right: p.ID(s.Right), Anchor: anchorName(s.Anchor)})
	}
	d.Hints = hs
	return d
}

// FormatFromPath infers the document format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", perrors.New(perrors.ErrCodeInvalidFormat, "cannot infer document format from %q (use .json or .toml)", path)
}

// ReadPedigree decodes a pedigree document in the given format.
func ReadPedigree(r io.Reader, format string) (*Document, error) {
	if err := perrors.ValidateFormat(format, FormatJSON, FormatTOML); err != nil {
		return nil, err
	}
	var d Document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&d); err != nil {
			return nil, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "decode json")
		}
	case FormatTOML:
		md, err := toml.NewDecoder(r).Decode(&d)
		if err != nil {
			return nil, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "decode toml")
		}
		if un := md.Undecoded(); len(un) > 0 {
			return nil, perrors.New(perrors.ErrCodeInvalidInput, "unknown toml key %q", un[0].String())
		}
	}
	if len(d.Individuals) == 0 {
		return nil, perrors.New(perrors.ErrCodeInvalidInput, "document lists no individuals")
	}
	return &d, nil
}

// ReadPedigreeFile reads a pedigree document, choosing the format from the
// file extension.
func ReadPedigreeFile(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	d, err := ReadPedigree(f, format)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return d, nil
}

// WritePedigree encodes a document in the given format.
func WritePedigree(d *Document, w io.Writer, format string) error {
	if err := perrors.ValidateFormat(format, FormatJSON, FormatTOML); err != nil {
		return err
	}
	if format == FormatTOML {
		if err := toml.NewEncoder(w).Encode(d); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// MarshalPedigree encodes a document as canonical JSON. The pipeline uses
// the bytes as cache key material.
func MarshalPedigree(d *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePedigree(d, &buf, FormatJSON); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
