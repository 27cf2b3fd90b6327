// Package cache stores computed layouts and rendered artifacts.
//
// Backends implement [Cache]:
//   - [NullCache]: never stores anything
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for server deployments
//   - [MongoCache]: document-store cache with a TTL index
//
// Keys are produced by a [Keyer] from a hash of the canonical pedigree
// document and the options that influence the result, so two requests
// that would compute the same layout share an entry.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Default entry lifetimes.
const (
	LayoutTTL   = 7 * 24 * time.Hour
	ArtifactTTL = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the stored bytes and true, or nil and false on a miss.
	// Expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts are the options that change a computed layout.
type LayoutKeyOpts struct {
	Align         bool    `json:"align"`
	Packed        bool    `json:"packed"`
	Width         float64 `json:"width"`
	ChildPenalty  float64 `json:"child_penalty"`
	SpousePenalty float64 `json:"spouse_penalty"`
}

// ArtifactKeyOpts are the options that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
}

// Keyer derives cache keys.
type Keyer interface {
	LayoutKey(pedigreeHash string, opts LayoutKeyOpts) string
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces "layout:<sha256>" and "artifact:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey hashes the pedigree hash together with the layout options.
func (DefaultKeyer) LayoutKey(pedigreeHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", pedigreeHash, opts)
}

// ArtifactKey hashes the layout hash together with the artifact options.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

func (o LayoutKeyOpts) String() string {
	return fmt.Sprintf("align=%t packed=%t width=%g child=%g spouse=%g",
		o.Align, o.Packed, o.Width, o.ChildPenalty, o.SpousePenalty)
}
