// Package pipeline provides the load → filter → render pipeline for bigpicture.
//
// The CLI and the HTTP service both drive history rendering through a
// [Runner], so caching, logging and error classification behave the same
// everywhere.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read the commit history from a [Source] (a git repository or a
//     snapshot file) and build a verified [commitgraph.Graph]
//  2. Filter: reduce the graph to interesting commits
//  3. Render: produce DOT source and, optionally, an image
//
// Loaded histories and rendered images are cached; see package cache.
//
// # Usage
//
//	src, err := pipeline.OpenGitSource(".")
//	if err != nil {
//	    return err
//	}
//	runner := pipeline.NewRunner(c, nil, logger)
//	opts := pipeline.DefaultOptions()
//	opts.Format = "svg"
//	result, err := runner.Execute(ctx, src, opts)
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("history.svg", result.Artifact, 0644)
package pipeline

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bigpicture/pkg/cache"
	"github.com/matzehuels/bigpicture/pkg/commitgraph"
	"github.com/matzehuels/bigpicture/pkg/errors"
	"github.com/matzehuels/bigpicture/pkg/render/dot"
	"github.com/matzehuels/bigpicture/pkg/source/git"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// Digit settings understood by [Options.Digits] besides an explicit width.
const (
	// DigitsFull shows full 40 character ids.
	DigitsFull = 0

	// DigitsAuto uses the shortest width that keeps every rendered id unique.
	DigitsAuto = -1
)

const (
	// DefaultFormat is the default output format.
	DefaultFormat = dot.FormatDOT

	// DefaultScope is the default branch scope.
	DefaultScope = string(git.ScopeAll)
)

// ParseDigits converts "auto", "full" or a decimal width to a Digits value.
// Widths must lie between commitgraph.MinDigits and commitgraph.FullIDLength.
func ParseDigits(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "full":
		return DigitsFull, nil
	case "auto":
		return DigitsAuto, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid digits %q (must be auto, full or a number)", s)
	}
	if err := ValidateDigits(n); err != nil {
		return 0, err
	}
	return n, nil
}

// ValidateDigits checks a Digits value.
func ValidateDigits(n int) error {
	if n == DigitsAuto || n == DigitsFull {
		return nil
	}
	if n < commitgraph.MinDigits || n > commitgraph.FullIDLength {
		return errors.New(errors.ErrCodeInvalidInput, "digits must be between %d and %d, got %d",
			commitgraph.MinDigits, commitgraph.FullIDLength, n)
	}
	return nil
}

// FormatDigits is the inverse of [ParseDigits].
func FormatDigits(n int) string {
	switch n {
	case DigitsAuto:
		return "auto"
	case DigitsFull:
		return "full"
	default:
		return strconv.Itoa(n)
	}
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !dot.ValidFormat(format) {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)",
			format, strings.Join(dot.Formats, ", "))
	}
	return nil
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	Scope          string `json:"scope,omitempty"`
	CommitTagsOnly bool   `json:"commit_tags_only,omitempty"`
	Refresh        bool   `json:"refresh,omitempty"` // bypass the snapshot cache

	// Filter options
	Branches     bool     `json:"branches,omitempty"`
	Tags         bool     `json:"tags,omitempty"`
	Roots        bool     `json:"roots,omitempty"`
	Merges       bool     `json:"merges,omitempty"`
	Bifurcations bool     `json:"bifurcations,omitempty"`
	Include      []string `json:"include,omitempty"` // revisions kept regardless of predicates

	// Render options
	Format  string `json:"format,omitempty"`
	ShowIDs bool   `json:"show_ids,omitempty"`
	Digits  int    `json:"digits,omitempty"` // DigitsFull, DigitsAuto or a width

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// DefaultOptions returns the options used when nothing is configured:
// branches and tags are interesting, output is DOT with full ids.
func DefaultOptions() Options {
	f := commitgraph.DefaultFilterOptions()
	return Options{
		Scope:    DefaultScope,
		Branches: f.Branches,
		Tags:     f.Tags,
		Format:   DefaultFormat,
	}
}

// ValidateAndSetDefaults checks fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Scope == "" {
		o.Scope = DefaultScope
	}
	if _, err := git.ParseScope(o.Scope); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "scope")
	}
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	o.Format = strings.ToLower(o.Format)
	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	if err := ValidateDigits(o.Digits); err != nil {
		return err
	}
	for _, rev := range o.Include {
		if err := errors.ValidateRevision(rev); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// FilterOptions converts the filter fields; additional holds resolved ids.
func (o *Options) FilterOptions(additional []string) commitgraph.FilterOptions {
	return commitgraph.FilterOptions{
		Branches:     o.Branches,
		Tags:         o.Tags,
		Roots:        o.Roots,
		Merges:       o.Merges,
		Bifurcations: o.Bifurcations,
		Additional:   additional,
	}
}

// LoadOptions converts the load fields for the git loader.
func (o *Options) LoadOptions() git.LoadOptions {
	return git.LoadOptions{
		Scope:          git.BranchScope(o.Scope),
		CommitTagsOnly: o.CommitTagsOnly,
	}
}

// SnapshotKeyOpts returns cache key options for the loaded history.
func (o *Options) SnapshotKeyOpts() cache.SnapshotKeyOpts {
	return cache.SnapshotKeyOpts{
		Scope:          o.Scope,
		CommitTagsOnly: o.CommitTagsOnly,
	}
}

// ArtifactKeyOpts returns cache key options for a rendered artifact.
func (o *Options) ArtifactKeyOpts(include []string, digits int) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:       o.Format,
		Branches:     o.Branches,
		Tags:         o.Tags,
		Roots:        o.Roots,
		Merges:       o.Merges,
		Bifurcations: o.Bifurcations,
		Include:      include,
		ShowIDs:      o.ShowIDs,
		Digits:       digits,
	}
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// Full is the complete loaded history.
	Full *commitgraph.Graph

	// Filtered is the reduced graph that was rendered.
	Filtered *commitgraph.Graph

	// GraphHash is the content hash of the full history.
	GraphHash string

	// Include holds the resolved ids of Options.Include.
	Include []string

	// Digits is the id width actually used (DigitsAuto resolved).
	Digits int

	// DOT is the generated Graphviz source.
	DOT string

	// Artifact is the output in Options.Format. For FormatDOT it equals DOT.
	Artifact []byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Commits         int
	Edges           int
	FilteredCommits int
	FilteredEdges   int
	LoadTime        time.Duration
	FilterTime      time.Duration
	RenderTime      time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	SnapshotHit bool // Whether the history came from cache
	RenderHit   bool // Whether the artifact came from cache
}

func (s Stats) String() string {
	return fmt.Sprintf("%d/%d commits, %d/%d edges", s.FilteredCommits, s.Commits, s.FilteredEdges, s.Edges)
}

// Summary describes a pipeline run for the stats command and the HTTP API.
type Summary struct {
	Commits         int    `json:"commits"`
	Edges           int    `json:"edges"`
	Roots           int    `json:"roots"`
	Merges          int    `json:"merges"`
	Bifurcations    int    `json:"bifurcations"`
	BranchTips      int    `json:"branch_tips"`
	TagTargets      int    `json:"tag_targets"`
	FilteredCommits int    `json:"filtered_commits"`
	FilteredEdges   int    `json:"filtered_edges"`
	MinimalDigits   int    `json:"minimal_digits"`
	Digits          string `json:"digits"`
	SnapshotCached  bool   `json:"snapshot_cached"`
}

// Summary collects structural counts of the full and filtered graphs.
func (r *Result) Summary() Summary {
	return Summary{
		Commits:         r.Full.CommitCount(),
		Edges:           r.Full.EdgeCount(),
		Roots:           len(r.Full.Roots()),
		Merges:          len(r.Full.Merges()),
		Bifurcations:    len(r.Full.Bifurcations()),
		BranchTips:      r.Full.BranchCount(),
		TagTargets:      r.Full.TagCount(),
		FilteredCommits: r.Filtered.CommitCount(),
		FilteredEdges:   r.Filtered.EdgeCount(),
		MinimalDigits:   r.Filtered.MinimalDigits(),
		Digits:          FormatDigits(r.Digits),
		SnapshotCached:  r.CacheInfo.SnapshotHit,
	}
}
