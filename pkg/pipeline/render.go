package pipeline

import (
	"fmt"

	"github.com/complexdatacollective/pedigree/pkg/align"
	"github.com/complexdatacollective/pedigree/pkg/pedfile"
	"github.com/complexdatacollective/pedigree/pkg/pedigree"
	"github.com/complexdatacollective/pedigree/pkg/render"
)

// Render generates output artifacts in the requested formats.
func Render(l *align.Layout, p *pedigree.Pedigree, opts Options) (map[string][]byte, error) {
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, err
	}

	var dot string
	needsDOT := func() string {
		if dot == "" {
			dot = render.ToDOT(l, p, render.Options{Detailed: opts.Detailed})
		}
		return dot
	}

	artifacts := make(map[string][]byte)
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data, err = render.RenderSVG(needsDOT())
		case FormatPNG:
			data, err = render.RenderPNG(needsDOT(), 2.0)
		case FormatPDF:
			data, err = render.RenderPDF(needsDOT())
		case FormatDOT:
			data = []byte(needsDOT())
		case FormatJSON:
			data, err = pedfile.MarshalLayout(l, p)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}
