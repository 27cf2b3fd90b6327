package render

import (
	"strings"
	"testing"

	"github.com/complexdatacollective/pedigree/pkg/align"
	"github.com/complexdatacollective/pedigree/pkg/pedigree"
)

// twinFamily is a couple of cousins with dizygotic twins, laid out by hand.
func twinFamily() (*align.Layout, *pedigree.Pedigree) {
	p := &pedigree.Pedigree{
		IDs:       []string{"dad", "mom", "ann", "sam"},
		Sex:       []pedigree.Sex{pedigree.Male, pedigree.Female, pedigree.Female, pedigree.Unknown},
		Father:    []int{-1, -1, 0, 0},
		Mother:    []int{-1, -1, 1, 1},
		Relations: []pedigree.Relation{{A: 2, B: 3, Code: pedigree.DizygoticTwin}},
	}
	l := &align.Layout{
		N:      []int{2, 2},
		NID:    [][]int{{0, 1}, {2, 3}},
		Pos:    [][]float64{{0, 1}, {0, 1}},
		Fam:    [][]int{{0, 0}, {1, 1}},
		Spouse: [][]align.SpouseKind{{align.Consanguineous, align.NotSpouse}, {align.NotSpouse, align.NotSpouse}},
		Twins:  [][]pedigree.RelationCode{{pedigree.None, pedigree.None}, {pedigree.DizygoticTwin, pedigree.None}},
	}
	return l, p
}

func TestToDOT(t *testing.T) {
	l, p := twinFamily()
	dot := ToDOT(l, p, Options{})

	for _, want := range []string{
		"graph pedigree {",
		`c0_0 [label="dad", shape=box, pos="0.000,0.000!"]`,
		`c0_1 [label="mom", shape=ellipse, pos="1.000,0.000!"]`,
		`c1_1 [label="sam", shape=diamond, pos="1.000,-1.200!"]`,
		`c0_0 -- c0_1 [color="black:invis:black"]`,
		`f1_1 [shape=point, width=0.05, pos="0.500,0.000!"]`,
		"f1_1 -- c1_0;",
		"f1_1 -- c1_1;",
		`c1_0 -- c1_1 [style=dashed, label="DZ"]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "dotted") {
		t.Error("ToDOT() joined copies although nobody is drawn twice")
	}
}

func TestToDOTOptions(t *testing.T) {
	l, p := twinFamily()
	dot := ToDOT(l, p, Options{Detailed: true, Unit: 2, LevelGap: 3})

	if !strings.Contains(dot, `label="ann\n#2 x=0.00"`) {
		t.Errorf("detailed label missing:\n%s", dot)
	}
	if !strings.Contains(dot, `pos="2.000,-3.000!"`) {
		t.Errorf("scaled position missing:\n%s", dot)
	}
}

func TestToDOTMarriedAndDuplicates(t *testing.T) {
	p := &pedigree.Pedigree{
		IDs:    []string{"a", "b", "c"},
		Sex:    []pedigree.Sex{pedigree.Male, pedigree.Female, pedigree.Female},
		Father: []int{-1, -1, -1},
		Mother: []int{-1, -1, -1},
	}
	l := &align.Layout{
		N:      []int{4},
		NID:    [][]int{{1, 0, 2, 1}},
		Pos:    [][]float64{{0, 1, 2, 3}},
		Fam:    [][]int{{0, 0, 0, 0}},
		Spouse: [][]align.SpouseKind{{align.Married, align.Married, align.NotSpouse, align.NotSpouse}},
		Twins:  [][]pedigree.RelationCode{make([]pedigree.RelationCode, 4)},
	}

	dot := ToDOT(l, p, Options{})
	for _, want := range []string{"c0_0 -- c0_1;", "c0_1 -- c0_2;", "c0_0 -- c0_3 [style=dotted];"} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "black:invis:black") {
		t.Error("plain marriage drawn as consanguineous")
	}
}

func TestRenderSVG(t *testing.T) {
	l, p := twinFamily()
	svg, err := RenderSVG(ToDOT(l, p, Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	s := string(svg)
	if !strings.Contains(s, "<svg") {
		t.Error("output is not SVG")
	}
	if !strings.Contains(s, "dad") || !strings.Contains(s, "sam") {
		t.Error("labels missing from SVG")
	}
}

func TestRenderSVGInvalid(t *testing.T) {
	if _, err := RenderSVG("graph {"); err == nil {
		t.Error("RenderSVG() accepted malformed DOT")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}

	plain := []byte("<svg><g/></svg>")
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("svg without viewBox should be unchanged")
	}
}
