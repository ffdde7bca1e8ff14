package pipeline

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bigpicture/pkg/cache"
	"github.com/matzehuels/bigpicture/pkg/commitgraph"
	"github.com/matzehuels/bigpicture/pkg/errors"
	pkgio "github.com/matzehuels/bigpicture/pkg/io"
	"github.com/matzehuels/bigpicture/pkg/observability"
	"github.com/matzehuels/bigpicture/pkg/render"
	"github.com/matzehuels/bigpicture/pkg/render/dot"
)

// Cache key types reported to observability hooks.
const (
	keyTypeSnapshot = "snapshot"
	keyTypeArtifact = "artifact"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// SnapshotTTL overrides cache.TTLSnapshot when positive.
	SnapshotTTL time.Duration
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

// Execute runs the complete load → filter → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, src Source, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	full, hash, hit, err := r.LoadWithCacheInfo(ctx, src, opts)
	if err != nil {
		return nil, err
	}
	result.Full = full
	result.GraphHash = hash
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Commits = full.CommitCount()
	result.Stats.Edges = full.EdgeCount()
	result.CacheInfo.SnapshotHit = hit

	r.Logger.Info("loaded history",
		"source", src.String(),
		"commits", full.CommitCount(),
		"branches", full.BranchCount(),
		"tags", full.TagCount(),
		"cached", hit,
		"duration", result.Stats.LoadTime)

	// Stage 2: Filter
	filterStart := time.Now()
	include, err := resolveIncludes(src, full, opts.Include)
	if err != nil {
		return nil, err
	}
	result.Include = include

	filtered, err := r.Filter(ctx, full, opts.FilterOptions(include))
	if err != nil {
		return nil, err
	}
	result.Filtered = filtered
	result.Stats.FilterTime = time.Since(filterStart)
	result.Stats.FilteredCommits = filtered.CommitCount()
	result.Stats.FilteredEdges = filtered.EdgeCount()

	r.Logger.Info("filtered history",
		"kept", filtered.CommitCount(),
		"edges", filtered.EdgeCount(),
		"duration", result.Stats.FilterTime)

	// Stage 3: Render
	renderStart := time.Now()
	result.Digits = ResolveDigits(filtered, opts.Digits)
	result.DOT = dot.ToDOT(filtered, dot.Options{ShowIDs: opts.ShowIDs, Digits: result.Digits})

	key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(include, result.Digits))
	artifact, renderHit, err := r.RenderWithCacheInfo(ctx, key, result.DOT, opts.Format)
	if err != nil {
		return nil, err
	}
	result.Artifact = artifact
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered output",
		"format", opts.Format,
		"bytes", len(artifact),
		"digits", FormatDigits(result.Digits),
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LoadWithCacheInfo loads the history of src, using the snapshot cache unless
// opts.Refresh is set. It returns the verified graph, the hash of its
// canonical snapshot encoding, and whether the cache was hit.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, src Source, opts Options) (*commitgraph.Graph, string, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, "", false, err
	}

	start := time.Now()
	observability.Pipeline().OnLoadStart(ctx, src.String())

	g, hash, hit, err := r.load(ctx, src, opts)

	commits := 0
	if g != nil {
		commits = g.CommitCount()
	}
	observability.Pipeline().OnLoadComplete(ctx, src.String(), commits, time.Since(start), err)
	return g, hash, hit, err
}

// Load is a convenience wrapper that calls LoadWithCacheInfo and discards the cache info.
func (r *Runner) Load(ctx context.Context, src Source, opts Options) (*commitgraph.Graph, error) {
	g, _, _, err := r.LoadWithCacheInfo(ctx, src, opts)
	return g, err
}

func (r *Runner) load(ctx context.Context, src Source, opts Options) (*commitgraph.Graph, string, bool, error) {
	fingerprint, err := src.Fingerprint(ctx)
	if err != nil {
		return nil, "", false, classifyLoadError(err)
	}
	cacheKey := r.Keyer.SnapshotKey(fingerprint, opts.SnapshotKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if snap, err := pkgio.UnmarshalSnapshot(data); err == nil {
				if g, err := commitgraph.FromSnapshot(snap); err == nil {
					observability.Cache().OnCacheHit(ctx, keyTypeSnapshot)
					return g, cache.Hash(data), true, nil
				}
			}
			r.Logger.Warn("discarding unreadable cache entry", "key", cacheKey)
		} else if err != nil {
			r.Logger.Warn("cache read failed", "error", err)
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeSnapshot)
	}

	snap, err := src.Load(ctx, opts)
	if err != nil {
		return nil, "", false, classifyLoadError(err)
	}

	g, err := commitgraph.FromSnapshot(snap)
	if err != nil {
		return nil, "", false, classifyLoadError(err)
	}

	data, err := pkgio.MarshalSnapshot(g.Snapshot())
	if err != nil {
		return nil, "", false, errors.Wrap(errors.ErrCodeInternal, err, "encode snapshot")
	}
	if err := r.Cache.Set(ctx, cacheKey, data, r.snapshotTTL()); err != nil {
		r.Logger.Warn("cache write failed", "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, keyTypeSnapshot, len(data))
	}
	return g, cache.Hash(data), false, nil
}

func (r *Runner) snapshotTTL() time.Duration {
	if r.SnapshotTTL > 0 {
		return r.SnapshotTTL
	}
	return cache.TTLSnapshot
}

// classifyLoadError attaches an error code to loader failures that do not
// carry one yet.
func classifyLoadError(err error) error {
	switch {
	case errors.GetCode(err) != "":
		return err
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return err
	case stderrors.Is(err, commitgraph.ErrGraphConsistency):
		return errors.Wrap(errors.ErrCodeGraphInconsistent, err, "load history")
	default:
		return errors.Wrap(errors.ErrCodeInternal, err, "load history")
	}
}

// Filter reduces g to the commits selected by fopts.
func (r *Runner) Filter(ctx context.Context, g *commitgraph.Graph, fopts commitgraph.FilterOptions) (*commitgraph.Graph, error) {
	start := time.Now()
	observability.Pipeline().OnFilterStart(ctx, g.CommitCount())

	filtered, err := g.Filter(fopts)
	if err != nil {
		err = errors.Wrap(errors.ErrCodeGraphInconsistent, err, "filter")
	}

	kept := 0
	if filtered != nil {
		kept = filtered.CommitCount()
	}
	observability.Pipeline().OnFilterComplete(ctx, kept, time.Since(start), err)
	return filtered, err
}

// RenderWithCacheInfo converts DOT source to format, caching image output
// under key. DOT output is returned as is and never cached.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, key, src, format string) ([]byte, bool, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, false, err
	}

	start := time.Now()
	observability.Pipeline().OnRenderStart(ctx, format)

	data, hit, err := r.render(ctx, key, src, format)

	observability.Pipeline().OnRenderComplete(ctx, format, len(data), time.Since(start), err)
	return data, hit, err
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, key, src, format string) ([]byte, error) {
	data, _, err := r.RenderWithCacheInfo(ctx, key, src, format)
	return data, err
}

func (r *Runner) render(ctx context.Context, key, src, format string) ([]byte, bool, error) {
	if format == dot.FormatDOT {
		return []byte(src), false, nil
	}

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, keyTypeArtifact)
		return data, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, keyTypeArtifact)

	data, err := dot.Render(ctx, src, format)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		if stderrors.Is(err, render.ErrNoRsvg) {
			return nil, false, errors.Wrap(errors.ErrCodeUnsupported, err, "%s output is not available", format)
		}
		return nil, false, errors.Wrap(errors.ErrCodeRenderFailed, err, "render %s", format)
	}

	if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
		r.Logger.Warn("cache write failed", "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, keyTypeArtifact, len(data))
	}
	return data, false, nil
}

// ResolveDigits turns a Digits setting into a concrete width for g.
// DigitsAuto picks the minimal unambiguous width over g's commits.
func ResolveDigits(g *commitgraph.Graph, digits int) int {
	if digits == DigitsAuto {
		return g.MinimalDigits()
	}
	return digits
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
