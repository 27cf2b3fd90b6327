package pipeline

import (
	"github.com/complexdatacollective/pedigree/pkg/align"
	"github.com/complexdatacollective/pedigree/pkg/pedigree"
)

// GenerateLayout computes a layout without caching.
func GenerateLayout(p *pedigree.Pedigree, hints *align.Hints, opts Options) (*align.Layout, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return align.Align(p, opts.AlignOptions(hints)...)
}
