package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/complexdatacollective/pedigree/pkg/buildinfo"
	"github.com/complexdatacollective/pedigree/pkg/cache"
	"github.com/complexdatacollective/pedigree/pkg/observability"
	"github.com/complexdatacollective/pedigree/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "pedigree"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configFile string
	config     *Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		config: &Config{},
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Pedigree lays out family trees on a generational grid",
		Long: `Pedigree computes drawing layouts for family pedigrees: every individual gets
a generation and a horizontal position so that spouses sit side by side and
children sit beneath their parents.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(c.configFile)
			if err != nil {
				return err
			}
			c.config = cfg

			hooks := observability.NewLogHooks(c.Logger)
			observability.SetPipelineHooks(hooks)
			observability.SetCacheHooks(hooks)
			observability.SetServerHooks(hooks)

			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default: $XDG_CONFIG_HOME/pedigree/config.toml)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(noCache || c.config.Cache.Disabled)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, nil, c.Logger), nil
}

func (c *CLI) newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Warn("cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

func (c *CLI) cacheDir() (string, error) {
	if c.config != nil && c.config.Cache.Dir != "" {
		return c.config.Cache.Dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/pedigree/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configPath returns the default config file (~/.config/pedigree/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// layoutFlags registers the layout option flags shared by layout, render
// and serve.
func layoutFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().BoolVar(&opts.Align, "align", opts.Align, "pull spouses' ancestors down to a common generation")
	cmd.Flags().BoolVar(&opts.Packed, "packed", opts.Packed, "pack each generation tightly instead of spreading it")
	cmd.Flags().Float64Var(&opts.Width, "width", opts.Width, "maximum number of columns in a generation")
	cmd.Flags().Float64Var(&opts.ChildPenalty, "child-penalty", opts.ChildPenalty, "weight pulling children under their parents")
	cmd.Flags().Float64Var(&opts.SpousePenalty, "spouse-penalty", opts.SpousePenalty, "weight pulling spouses together")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached layouts")
}

// resolveOptions layers the built-in defaults, the config file and any
// flags the user set explicitly.
func (c *CLI) resolveOptions(cmd *cobra.Command, flagged pipeline.Options) pipeline.Options {
	opts := pipeline.DefaultOptions()
	c.config.apply(&opts)

	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("align") {
		opts.Align = flagged.Align
	}
	if changed("packed") {
		opts.Packed = flagged.Packed
	}
	if changed("width") {
		opts.Width = flagged.Width
	}
	if changed("child-penalty") {
		opts.ChildPenalty = flagged.ChildPenalty
	}
	if changed("spouse-penalty") {
		opts.SpousePenalty = flagged.SpousePenalty
	}
	if changed("format") {
		opts.Formats = flagged.Formats
	}
	if changed("detailed") {
		opts.Detailed = flagged.Detailed
	}
	opts.Refresh = flagged.Refresh
	opts.Logger = c.Logger
	return opts
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, strings.ToLower(f))
		}
	}
	return out
}

// outputBase strips the document extension from a path.
func outputBase(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input))
}
