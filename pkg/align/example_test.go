package align_test

import (
	"fmt"

	"github.com/complexdatacollective/pedigree/pkg/align"
	"github.com/complexdatacollective/pedigree/pkg/pedigree"
)

func ExampleAlign() {
	p, err := pedigree.FromRecords([]pedigree.Record{
		{ID: "dad", Sex: pedigree.Male},
		{ID: "mom", Sex: pedigree.Female},
		{ID: "kid", Sex: pedigree.Female, Father: "dad", Mother: "mom"},
	}, nil)
	if err != nil {
		panic(err)
	}

	l, err := align.Align(p)
	if err != nil {
		panic(err)
	}
	for _, c := range l.Cells() {
		fmt.Printf("level %d: %s at %.1f\n", c.Level, p.ID(c.Index), c.X)
	}
	// Output:
	// level 0: dad at 0.0
	// level 0: mom at 1.0
	// level 1: kid at 0.5
}

func ExampleDepth() {
	// Founders 0 and 1 have a daughter 2, who marries founder 3.
	father := []int{-1, -1, 0, -1, 3}
	mother := []int{-1, -1, 1, -1, 2}

	plain, _ := align.Depth(father, mother, false)
	aligned, _ := align.Depth(father, mother, true)
	fmt.Println(plain)
	fmt.Println(aligned)
	// Output:
	// [0 0 1 0 2]
	// [0 0 1 1 2]
}
