package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/complexdatacollective/pedigree/pkg/align"
	"github.com/complexdatacollective/pedigree/pkg/cache"
	"github.com/complexdatacollective/pedigree/pkg/observability"
	"github.com/complexdatacollective/pedigree/pkg/pedfile"
	"github.com/complexdatacollective/pedigree/pkg/pedigree"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so caching behaves the same everywhere.
//
// The Runner keeps no per-run state, so multiple goroutines can share one.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs layout and render with caching.
func (r *Runner) Execute(ctx context.Context, doc *pedfile.Document, opts Options) (*Result, error) {
	result, err := r.ComputeLayout(ctx, doc, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	if err := r.Render(ctx, result, opts); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return result, nil
}

// ComputeLayout resolves doc and returns its layout, from cache when an
// entry exists for the same document and options.
func (r *Runner) ComputeLayout(ctx context.Context, doc *pedfile.Document, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	p, hints, err := doc.Pedigree(opts.Logger)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ID:        uuid.NewString(),
		Pedigree:  p,
		Artifacts: make(map[string][]byte),
	}
	logger := opts.Logger.With("run", result.ID[:8])

	docData, err := pedfile.MarshalPedigree(doc)
	if err != nil {
		return nil, fmt.Errorf("serialize pedigree for cache key: %w", err)
	}
	cacheKey := r.Keyer.LayoutKey(cache.Hash(docData), opts.LayoutKeyOpts())

	start := time.Now()
	var data []byte
	if l, cached, ok := r.cachedLayout(ctx, cacheKey, p, opts); ok {
		result.Layout = l
		result.CacheInfo.LayoutHit = true
		data = cached
		logger.Debug("layout cache hit", "key", cacheKey)
	} else {
		observability.Pipeline().OnLayoutStart(ctx, p.Len())
		opts.Logger = logger
		l, err := GenerateLayout(p, hints, opts)
		observability.Pipeline().OnLayoutComplete(ctx, levelsOf(l), time.Since(start), err)
		if err != nil {
			return nil, err
		}
		result.Layout = l

		if data, err = pedfile.MarshalLayout(l, p); err != nil {
			return nil, fmt.Errorf("serialize layout: %w", err)
		}
		if err := r.Cache.Set(ctx, cacheKey, data, cache.LayoutTTL); err != nil {
			logger.Warn("cache layout", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}

	result.LayoutHash = cache.Hash(data)
	result.Stats.Individuals = p.Len()
	result.Stats.Levels = result.Layout.Levels()
	result.Stats.Cells = len(result.Layout.Cells())
	result.Stats.LayoutTime = time.Since(start)

	logger.Info("computed layout",
		"individuals", result.Stats.Individuals,
		"levels", result.Stats.Levels,
		"cached", result.CacheInfo.LayoutHit,
		"duration", result.Stats.LayoutTime)
	return result, nil
}

// cachedLayout returns a cached layout for p. Entries that fail to decode
// or belong to a different pedigree are ignored.
func (r *Runner) cachedLayout(ctx context.Context, key string, p *pedigree.Pedigree, opts Options) (*align.Layout, []byte, bool) {
	if opts.Refresh {
		return nil, nil, false
	}
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		opts.Logger.Warn("cache lookup failed", "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "layout")
		return nil, nil, false
	}

	d, err := pedfile.ReadLayout(bytes.NewReader(data))
	if err != nil || !slices.Equal(d.IDs, p.IDs) {
		observability.Cache().OnCacheMiss(ctx, "layout")
		return nil, nil, false
	}
	l, err := d.Layout()
	if err != nil {
		observability.Cache().OnCacheMiss(ctx, "layout")
		return nil, nil, false
	}
	observability.Cache().OnCacheHit(ctx, "layout")
	return l, data, true
}

// Render fills result.Artifacts for opts.Formats, using cached artifacts
// when every requested format is cached.
func (r *Runner) Render(ctx context.Context, result *Result, opts Options) error {
	r.applyLogger(&opts)
	if err := opts.Validate(); err != nil {
		return err
	}
	if result.Artifacts == nil {
		result.Artifacts = make(map[string][]byte)
	}

	start := time.Now()
	defer func() { result.Stats.RenderTime = time.Since(start) }()

	if !opts.Refresh {
		cached := make(map[string][]byte)
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(result.LayoutHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				observability.Cache().OnCacheMiss(ctx, "artifact")
				break
			}
			observability.Cache().OnCacheHit(ctx, "artifact")
			cached[format] = data
		}
		if len(cached) == len(opts.Formats) {
			for f, data := range cached {
				result.Artifacts[f] = data
			}
			result.CacheInfo.RenderHit = true
			return nil
		}
	}

	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	rendered, err := Render(result.Layout, result.Pedigree, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return err
	}

	for format, data := range rendered {
		result.Artifacts[format] = data
		key := r.Keyer.ArtifactKey(result.LayoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err != nil {
			opts.Logger.Warn("cache artifact", "format", format, "err", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	opts.Logger.Info("rendered outputs", "formats", opts.Formats, "duration", time.Since(start))
	return nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func levelsOf(l *align.Layout) int {
	if l == nil {
		return 0
	}
	return l.Levels()
}
