// Package pipeline runs the pedigree layout pipeline for the CLI and the
// HTTP API.
//
// # Architecture
//
// The pipeline has two stages:
//
//  1. Layout: resolve a pedigree document and compute its [align.Layout]
//  2. Render: produce artifacts (SVG, PNG, PDF, DOT, JSON) from the layout
//
// Both stages are cached through [cache.Cache]. Layout entries are keyed by
// the canonical document plus the options that influence the result;
// artifact entries by the serialized layout plus the format.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	opts := pipeline.DefaultOptions()
//	opts.Formats = []string{pipeline.FormatSVG}
//	result, err := runner.Execute(ctx, doc, opts)
//	if err != nil {
//	    return err
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/complexdatacollective/pedigree/pkg/align"
	"github.com/complexdatacollective/pedigree/pkg/cache"
	perrors "github.com/complexdatacollective/pedigree/pkg/errors"
	"github.com/complexdatacollective/pedigree/pkg/pedigree"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the layout pipeline.
// This struct supports JSON serialization for API requests.
//
// Zero numeric fields select the engine defaults. Align and Packed have no
// zero-value default; start from [DefaultOptions].
type Options struct {
	// Layout options
	Align         bool    `json:"align"`
	Packed        bool    `json:"packed"`
	Width         float64 `json:"width,omitempty"`
	ChildPenalty  float64 `json:"child_penalty,omitempty"`
	SpousePenalty float64 `json:"spouse_penalty,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`

	// Refresh bypasses cached results.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Align:         true,
		Packed:        true,
		Width:         align.DefaultWidth,
		ChildPenalty:  align.DefaultChildPenalty,
		SpousePenalty: align.DefaultSpousePenalty,
		Formats:       []string{FormatSVG},
	}
}

// SetDefaults fills zero fields.
func (o *Options) SetDefaults() {
	if o.Width == 0 {
		o.Width = align.DefaultWidth
	}
	if o.ChildPenalty == 0 {
		o.ChildPenalty = align.DefaultChildPenalty
	}
	if o.SpousePenalty == 0 {
		o.SpousePenalty = align.DefaultSpousePenalty
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate applies defaults and checks every field.
func (o *Options) Validate() error {
	o.SetDefaults()
	if o.Width < 0 {
		return perrors.New(perrors.ErrCodeInvalidInput, "width must be positive, got %g", o.Width)
	}
	if o.ChildPenalty < 0 || o.SpousePenalty < 0 {
		return perrors.New(perrors.ErrCodeInvalidInput, "penalties must not be negative")
	}
	return ValidateFormats(o.Formats)
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return perrors.New(perrors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, pdf, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// AlignOptions translates the options for [align.Align].
func (o *Options) AlignOptions(hints *align.Hints) []align.Option {
	opts := []align.Option{
		align.WithAlign(o.Align),
		align.WithPacked(o.Packed),
		align.WithWidth(o.Width),
		align.WithPenalties(o.ChildPenalty, o.SpousePenalty),
	}
	if o.Logger != nil {
		opts = append(opts, align.WithLogger(o.Logger))
	}
	if hints != nil {
		opts = append(opts, align.WithHints(*hints))
	}
	return opts
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Align:         o.Align,
		Packed:        o.Packed,
		Width:         o.Width,
		ChildPenalty:  o.ChildPenalty,
		SpousePenalty: o.SpousePenalty,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	f := format
	if o.Detailed {
		f += "+detailed"
	}
	return cache.ArtifactKeyOpts{Format: f}
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// ID identifies this run in logs and API responses.
	ID string

	Pedigree *pedigree.Pedigree
	Layout   *align.Layout

	// LayoutHash is the content hash of the serialized layout.
	LayoutHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Individuals int
	Levels      int
	Cells       int
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}
