package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	perrors "github.com/complexdatacollective/pedigree/pkg/errors"
	"github.com/complexdatacollective/pedigree/pkg/pipeline"
)

// Config is the optional TOML config file. Every field may be omitted;
// flags given on the command line win over the file.
//
//	[layout]
//	align = true
//	width = 12
//
//	[render]
//	formats = ["svg", "json"]
//
//	[server]
//	addr = ":8080"
//	redis_addr = "localhost:6379"
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Render RenderConfig `toml:"render"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// LayoutConfig holds layout engine defaults. Unset booleans keep the
// built-in default.
type LayoutConfig struct {
	Align         *bool   `toml:"align"`
	Packed        *bool   `toml:"packed"`
	Width         float64 `toml:"width"`
	ChildPenalty  float64 `toml:"child_penalty"`
	SpousePenalty float64 `toml:"spouse_penalty"`
}

// RenderConfig holds render defaults.
type RenderConfig struct {
	Formats  []string `toml:"formats"`
	Detailed bool     `toml:"detailed"`
}

// CacheConfig controls the local file cache.
type CacheConfig struct {
	Dir      string `toml:"dir"`
	Disabled bool   `toml:"disabled"`
}

// ServerConfig configures "pedigree serve".
type ServerConfig struct {
	Addr            string `toml:"addr"`
	RedisAddr       string `toml:"redis_addr"`
	RedisPassword   string `toml:"redis_password"`
	RedisDB         int    `toml:"redis_db"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
	KeyPrefix       string `toml:"key_prefix"`
	MaxBody         int64  `toml:"max_body"`
}

// loadConfig reads the config file at path. An empty path selects the
// default location, which may be absent.
func loadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			return &Config{}, nil
		}
		path = p
	}

	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return &Config{}, nil
		}
		if os.IsNotExist(err) {
			return nil, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return nil, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "config %s", path)
	}
	if un := md.Undecoded(); len(un) > 0 {
		return nil, perrors.New(perrors.ErrCodeInvalidInput, "config %s: unknown key %q", path, un[0].String())
	}
	return &cfg, nil
}

// apply copies configured values over opts.
func (cfg *Config) apply(opts *pipeline.Options) {
	if cfg == nil {
		return
	}
	l := cfg.Layout
	if l.Align != nil {
		opts.Align = *l.Align
	}
	if l.Packed != nil {
		opts.Packed = *l.Packed
	}
	if l.Width != 0 {
		opts.Width = l.Width
	}
	if l.ChildPenalty != 0 {
		opts.ChildPenalty = l.ChildPenalty
	}
	if l.SpousePenalty != 0 {
		opts.SpousePenalty = l.SpousePenalty
	}
	if len(cfg.Render.Formats) > 0 {
		opts.Formats = cfg.Render.Formats
	}
	if cfg.Render.Detailed {
		opts.Detailed = true
	}
}

// configCommand prints the effective configuration.
func (c *CLI) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configFile
			if path == "" {
				p, err := configPath()
				if err != nil {
					return fmt.Errorf("get config path: %w", err)
				}
				path = p
			}
			opts := pipeline.DefaultOptions()
			c.config.apply(&opts)
			dir, err := c.cacheDir()
			if err != nil {
				dir = "(unavailable)"
			}

			printKeyValue("config", path)
			printKeyValue("align", fmt.Sprint(opts.Align))
			printKeyValue("packed", fmt.Sprint(opts.Packed))
			printKeyValue("width", fmt.Sprint(opts.Width))
			printKeyValue("penalties", fmt.Sprintf("child %g, spouse %g", opts.ChildPenalty, opts.SpousePenalty))
			printKeyValue("formats", fmt.Sprint(opts.Formats))
			printKeyValue("cache", dir)
			return nil
		},
	}
}
