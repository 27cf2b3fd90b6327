package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/complexdatacollective/pedigree/pkg/pedfile"
	"github.com/complexdatacollective/pedigree/pkg/pipeline"
)

// layoutCommand creates the layout command for computing pedigree layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := pipeline.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "layout [pedigree.json|pedigree.toml]",
		Short: "Compute the layout of a pedigree",
		Long: `Compute the layout of a pedigree.

The layout command reads a pedigree document (JSON or TOML), assigns every
individual a generation and a horizontal position, and writes the result as
a layout document (<input>.layout.json) that 'render' or other tools can draw.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], c.resolveOptions(cmd, opts), output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	layoutFlags(cmd, &opts)

	return cmd
}

// runLayout loads the pedigree, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	doc, err := pedfile.ReadPedigreeFile(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, os.Stderr, "Computing layout...")
	detach := spinner.attach()
	spinner.Start()

	res, err := runner.ComputeLayout(ctx, doc, opts)
	detach()
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = outputBase(input) + ".layout.json"
	}
	if err := pedfile.WriteLayoutFile(res.Layout, res.Pedigree, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}
	prog.done("Laid out pedigree", "individuals", res.Stats.Individuals, "cached", res.CacheInfo.LayoutHit)

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(res.Stats, res.CacheInfo.LayoutHit)
	printNextStep("Render", appName+" render "+input)

	return nil
}
