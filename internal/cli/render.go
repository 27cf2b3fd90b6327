package cli

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/complexdatacollective/pedigree/pkg/pedfile"
	"github.com/complexdatacollective/pedigree/pkg/pipeline"
	"github.com/complexdatacollective/pedigree/pkg/render"
)

// renderCommand creates the render command: layout plus drawing in one step.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output  string
		formats string
		noCache bool
	)
	opts := pipeline.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "render [pedigree.json|pedigree.toml]",
		Short: "Lay out a pedigree and draw it",
		Long: `Lay out a pedigree and draw it.

Output formats (comma separated with -f):
  svg   drawing laid out by Graphviz (default)
  png   raster drawing (requires rsvg-convert)
  pdf   vector document (requires rsvg-convert)
  dot   Graphviz source with pinned positions
  json  layout document, same as the 'layout' command

Each artifact is written next to the input as <base>.<format>; the JSON
layout is written as <base>.layout.json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formats)
			return c.runRender(cmd.Context(), args[0], c.resolveOptions(cmd, opts), output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path without extension (default: input path)")
	cmd.Flags().StringVarP(&formats, "format", "f", pipeline.FormatSVG, "output formats: svg, png, pdf, dot, json")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "label individuals with index and position")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	layoutFlags(cmd, &opts)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	if err := pipeline.ValidateFormats(opts.Formats); err != nil {
		return err
	}
	if (slices.Contains(opts.Formats, pipeline.FormatPNG) || slices.Contains(opts.Formats, pipeline.FormatPDF)) && !render.Available() {
		printWarning("PNG and PDF output need rsvg-convert on PATH")
	}

	doc, err := pedfile.ReadPedigreeFile(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinner(ctx, os.Stderr, "Rendering...")
	detach := spinner.attach()
	spinner.Start()

	res, err := runner.Execute(ctx, doc, opts)
	detach()
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	base := output
	if base == "" {
		base = outputBase(input)
	}

	printSuccess("Rendered %d format(s)", len(opts.Formats))
	for _, format := range opts.Formats {
		path := artifactPath(base, format)
		if err := os.WriteFile(path, res.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	printStats(res.Stats, res.CacheInfo.LayoutHit && res.CacheInfo.RenderHit)
	return nil
}

// artifactPath names the output file for one format.
func artifactPath(base, format string) string {
	if format == pipeline.FormatJSON {
		return base + ".layout.json"
	}
	return base + "." + format
}
