package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/complexdatacollective/pedigree/pkg/cache"
	"github.com/complexdatacollective/pedigree/pkg/pipeline"
	"github.com/complexdatacollective/pedigree/pkg/server"
)

const defaultAddr = ":8080"

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		cfg     ServerConfig
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout engine over HTTP",
		Long: `Serve the layout engine over HTTP.

Endpoints:
  GET  /healthz     liveness and version
  POST /v1/layout   pedigree document in, layout document out
  POST /v1/render   pedigree document in, drawing out (?format=svg|png|pdf|dot|json)

Layouts and drawings are cached in Redis (--redis-addr), MongoDB
(--mongo-uri) or, when neither is given, the local cache directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), c.serverConfig(cmd, cfg), noCache)
		},
	}

	cmd.Flags().StringVar(&cfg.Addr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&cfg.RedisAddr, "redis-addr", "", "Redis address for the shared cache")
	cmd.Flags().StringVar(&cfg.RedisPassword, "redis-password", "", "Redis password")
	cmd.Flags().IntVar(&cfg.RedisDB, "redis-db", 0, "Redis database number")
	cmd.Flags().StringVar(&cfg.MongoURI, "mongo-uri", "", "MongoDB URI for the shared cache")
	cmd.Flags().StringVar(&cfg.MongoDatabase, "mongo-database", "", "MongoDB database (default: pedigree)")
	cmd.Flags().StringVar(&cfg.KeyPrefix, "key-prefix", "", "prefix for cache keys in a shared backend")
	cmd.Flags().Int64Var(&cfg.MaxBody, "max-body", server.DefaultMaxBody, "maximum request body in bytes")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// serverConfig merges the config file with explicitly set flags.
func (c *CLI) serverConfig(cmd *cobra.Command, flagged ServerConfig) ServerConfig {
	cfg := c.config.Server
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.MaxBody == 0 {
		cfg.MaxBody = server.DefaultMaxBody
	}

	changed := func(name string) bool { return cmd.Flags().Changed(name) }
	if changed("addr") {
		cfg.Addr = flagged.Addr
	}
	if changed("redis-addr") {
		cfg.RedisAddr = flagged.RedisAddr
	}
	if changed("redis-password") {
		cfg.RedisPassword = flagged.RedisPassword
	}
	if changed("redis-db") {
		cfg.RedisDB = flagged.RedisDB
	}
	if changed("mongo-uri") {
		cfg.MongoURI = flagged.MongoURI
	}
	if changed("mongo-database") {
		cfg.MongoDatabase = flagged.MongoDatabase
	}
	if changed("key-prefix") {
		cfg.KeyPrefix = flagged.KeyPrefix
	}
	if changed("max-body") {
		cfg.MaxBody = flagged.MaxBody
	}
	return cfg
}

func (c *CLI) runServe(ctx context.Context, cfg ServerConfig, noCache bool) error {
	logger := loggerFromContext(ctx)

	ch, err := c.serverCache(ctx, cfg, noCache)
	if err != nil {
		return err
	}
	var keyer cache.Keyer
	if cfg.KeyPrefix != "" {
		keyer = cache.NewScopedKeyer(nil, cfg.KeyPrefix)
	}

	runner := pipeline.NewRunner(ch, keyer, logger)
	defer runner.Close()

	srv := server.New(runner, logger, server.WithMaxBody(cfg.MaxBody))
	printInfo("Listening on %s", cfg.Addr)
	return srv.ListenAndServe(ctx, cfg.Addr)
}

// serverCache picks the cache backend: Redis, then MongoDB, then the
// local directory.
func (c *CLI) serverCache(ctx context.Context, cfg ServerConfig, noCache bool) (cache.Cache, error) {
	switch {
	case noCache:
		return cache.NewNullCache(), nil
	case cfg.RedisAddr != "":
		ch, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		c.Logger.Info("cache backend", "type", "redis", "addr", cfg.RedisAddr)
		return ch, nil
	case cfg.MongoURI != "":
		ch, err := cache.NewMongoCache(ctx, cache.MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		c.Logger.Info("cache backend", "type", "mongo")
		return ch, nil
	}
	return c.newCache(c.config.Cache.Disabled)
}
