package render

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/complexdatacollective/pedigree/pkg/align"
	"github.com/complexdatacollective/pedigree/pkg/pedigree"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds the pedigree index and refined position to labels.
	Detailed bool

	// Unit is the width of one layout unit in inches. Default 1.
	Unit float64

	// LevelGap is the vertical distance between generations in inches.
	// Default 1.2.
	LevelGap float64
}

func (o *Options) setDefaults() {
	if o.Unit <= 0 {
		o.Unit = 1
	}
	if o.LevelGap <= 0 {
		o.LevelGap = 1.2
	}
}

// ToDOT converts a layout of p into an undirected Graphviz graph with
// pinned node positions. Render it with [RenderSVG].
func ToDOT(l *align.Layout, p *pedigree.Pedigree, opts Options) string {
	opts.setDefaults()
	cells := l.Cells()

	var buf bytes.Buffer
	buf.WriteString("graph pedigree {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=false;\n")
	buf.WriteString("  node [style=filled, fillcolor=white, fontsize=10, width=0.6, height=0.6, fixedsize=true];\n")
	buf.WriteString("\n")

	for _, c := range cells {
		x, y := opts.point(c.X, c.Level)
		attrs := []string{
			fmt.Sprintf("label=%q", fmtLabel(c, p, opts.Detailed)),
			"shape=" + shape(p.SexOf(c.Index)),
			fmt.Sprintf("pos=\"%.3f,%.3f!\"", x, y),
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", cellName(c.Level, c.Column), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	writeMarriages(&buf, cells)
	writeFamilies(&buf, l, cells, opts)
	writeTwins(&buf, p, cells)
	writeDuplicates(&buf, cells)

	buf.WriteString("}\n")
	return buf.String()
}

func (o Options) point(x float64, level int) (float64, float64) {
	return x * o.Unit, float64(-level) * o.LevelGap
}

func cellName(level, col int) string {
	return fmt.Sprintf("c%d_%d", level, col)
}

func shape(s pedigree.Sex) string {
	switch s {
	case pedigree.Male:
		return "box"
	case pedigree.Female:
		return "ellipse"
	default:
		return "diamond"
	}
}

func fmtLabel(c align.Cell, p *pedigree.Pedigree, detailed bool) string {
	if !detailed {
		return p.ID(c.Index)
	}
	return fmt.Sprintf("%s\n#%d x=%.2f", p.ID(c.Index), c.Index, c.X)
}

func writeMarriages(buf *bytes.Buffer, cells []align.Cell) {
	for _, c := range cells {
		switch c.Spouse {
		case align.Married:
			fmt.Fprintf(buf, "  %s -- %s;\n", cellName(c.Level, c.Column), cellName(c.Level, c.Column+1))
		case align.Consanguineous:
			fmt.Fprintf(buf, "  %s -- %s [color=\"black:invis:black\"];\n", cellName(c.Level, c.Column), cellName(c.Level, c.Column+1))
		}
	}
}

// writeFamilies hangs each sibship from a point node midway between its
// parents.
func writeFamilies(buf *bytes.Buffer, l *align.Layout, cells []align.Cell, opts Options) {
	type family struct{ level, fam int }
	kids := make(map[family][]align.Cell)
	var order []family
	for _, c := range cells {
		if c.Family == 0 {
			continue
		}
		f := family{c.Level, c.Family}
		if _, ok := kids[f]; !ok {
			order = append(order, f)
		}
		kids[f] = append(kids[f], c)
	}

	for _, f := range order {
		left, right, ok := l.Parents(kids[f][0])
		if !ok {
			continue
		}
		x, y := opts.point((left.X+right.X)/2, left.Level)
		hub := fmt.Sprintf("f%d_%d", f.level, f.fam)
		fmt.Fprintf(buf, "  %s [shape=point, width=0.05, pos=\"%.3f,%.3f!\"];\n", hub, x, y)
		for _, k := range kids[f] {
			fmt.Fprintf(buf, "  %s -- %s;\n", hub, cellName(k.Level, k.Column))
		}
	}
}

func writeTwins(buf *bytes.Buffer, p *pedigree.Pedigree, cells []align.Cell) {
	childCell := func(i int) (align.Cell, bool) {
		for _, c := range cells {
			if c.Index == i && c.Family > 0 {
				return c, true
			}
		}
		return align.Cell{}, false
	}
	for _, r := range p.Relations {
		if !r.Code.IsTwin() {
			continue
		}
		a, okA := childCell(r.A)
		b, okB := childCell(r.B)
		if !okA || !okB || a.Level != b.Level {
			continue
		}
		fmt.Fprintf(buf, "  %s -- %s [style=dashed, label=%q];\n",
			cellName(a.Level, a.Column), cellName(b.Level, b.Column), twinLabel(r.Code))
	}
}

func twinLabel(code pedigree.RelationCode) string {
	switch code {
	case pedigree.MonozygoticTwin:
		return "MZ"
	case pedigree.DizygoticTwin:
		return "DZ"
	default:
		return "?"
	}
}

func writeDuplicates(buf *bytes.Buffer, cells []align.Cell) {
	seen := make(map[int][]align.Cell)
	var ids []int
	for _, c := range cells {
		if _, ok := seen[c.Index]; !ok {
			ids = append(ids, c.Index)
		}
		seen[c.Index] = append(seen[c.Index], c)
	}
	slices.Sort(ids)
	for _, id := range ids {
		copies := seen[id]
		for k := 1; k < len(copies); k++ {
			a, b := copies[k-1], copies[k]
			fmt.Fprintf(buf, "  %s -- %s [style=dotted];\n", cellName(a.Level, a.Column), cellName(b.Level, b.Column))
		}
	}
}
