// Package cache stores loaded histories and rendered artifacts between runs.
//
// A [Cache] is a byte store with per-entry TTLs. Four backends are available:
// [FileCache] for the CLI, [RedisCache] and [MongoCache] for shared
// deployments of the HTTP service, and [NullCache] when caching is disabled.
//
// Keys are produced by a [Keyer] so every entry point addresses the same data
// the same way:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.SnapshotKey(fingerprint, cache.SnapshotKeyOpts{Scope: "all"})
package cache

import (
	"context"
	"time"
)

// Cache is the storage interface shared by all backends.
//
// Get reports a miss with ok == false and a nil error. Expired entries are
// treated as misses.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Default time-to-live values.
const (
	// TTLSnapshot bounds how long a loaded history is reused. Snapshot keys
	// include the ref fingerprint, so a stale entry is only served when
	// history was rewritten without moving any ref.
	TTLSnapshot = 24 * time.Hour

	// TTLArtifact is the lifetime of rendered DOT and image output.
	TTLArtifact = 7 * 24 * time.Hour
)

// SnapshotKeyOpts are the loader options that change a snapshot.
type SnapshotKeyOpts struct {
	Scope          string `json:"scope"`
	CommitTagsOnly bool   `json:"commit_tags_only,omitempty"`
}

// ArtifactKeyOpts are the filter and render options that change an artifact.
type ArtifactKeyOpts struct {
	Format       string   `json:"format"`
	Branches     bool     `json:"branches,omitempty"`
	Tags         bool     `json:"tags,omitempty"`
	Roots        bool     `json:"roots,omitempty"`
	Merges       bool     `json:"merges,omitempty"`
	Bifurcations bool     `json:"bifurcations,omitempty"`
	Include      []string `json:"include,omitempty"`
	ShowIDs      bool     `json:"show_ids,omitempty"`
	Digits       int      `json:"digits,omitempty"`
}

// NullCache stores nothing. It backs --no-cache and backend = "none".
type NullCache struct{}

// NewNullCache returns a NullCache.
func NewNullCache() Cache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error { return nil }
func (*NullCache) Close() error { return nil }

var _ Cache = (*NullCache)(nil)
