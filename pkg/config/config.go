// Package config loads bigpicture settings from a TOML file.
//
// The file is looked up as .bigpicture.toml in the repository root unless a
// path is given explicitly. Every key is optional:
//
//	[source]
//	scope = "local"          # all | local | remote
//	commit_tags_only = false
//
//	[filter]
//	branches = true
//	tags = true
//	roots = false
//	merges = false
//	bifurcations = false
//	include = ["v1.0", "1a2b3c4"]
//
//	[render]
//	format = "svg"           # dot | svg | png | jpg | pdf
//	show_ids = true
//	digits = "auto"          # auto | full | 7..40
//
//	[cache]
//	backend = "file"         # file | redis | mongo | none
//	url = "redis://localhost:6379/0"
//	ttl = "24h"
//
//	[serve]
//	addr = ":8080"
//	timeout = "30s"
//
// Command-line flags override file values when they are set explicitly.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/bigpicture/pkg/cache"
	bperrors "github.com/matzehuels/bigpicture/pkg/errors"
	"github.com/matzehuels/bigpicture/pkg/pipeline"
	"github.com/matzehuels/bigpicture/pkg/source/git"
)

// FileName is the config file looked up in the repository root.
const FileName = ".bigpicture.toml"

// Config is the decoded configuration file.
type Config struct {
	Source SourceConfig `toml:"source"`
	Filter FilterConfig `toml:"filter"`
	Render RenderConfig `toml:"render"`
	Cache  CacheConfig  `toml:"cache"`
	Serve  ServeConfig  `toml:"serve"`

	// Path is the file the config was read from; empty for defaults.
	Path string `toml:"-"`
}

// SourceConfig controls history loading.
type SourceConfig struct {
	Scope          string `toml:"scope"`
	CommitTagsOnly bool   `toml:"commit_tags_only"`
}

// FilterConfig selects interesting commits.
type FilterConfig struct {
	Branches     bool     `toml:"branches"`
	Tags         bool     `toml:"tags"`
	Roots        bool     `toml:"roots"`
	Merges       bool     `toml:"merges"`
	Bifurcations bool     `toml:"bifurcations"`
	Include      []string `toml:"include"`
}

// RenderConfig controls output.
type RenderConfig struct {
	Format  string `toml:"format"`
	ShowIDs bool   `toml:"show_ids"`
	Digits  Digits `toml:"digits"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend string `toml:"backend"`
	URL     string `toml:"url"`
	TTL     string `toml:"ttl"`
}

// ServeConfig configures the HTTP service.
type ServeConfig struct {
	Addr    string `toml:"addr"`
	Timeout string `toml:"timeout"`
}

// Digits accepts both `digits = "auto"` and `digits = 8`.
type Digits string

// UnmarshalTOML implements toml.Unmarshaler.
func (d *Digits) UnmarshalTOML(v any) error {
	switch x := v.(type) {
	case string:
		*d = Digits(x)
	case int64:
		*d = Digits(strconv.FormatInt(x, 10))
	default:
		return fmt.Errorf("digits: expected string or integer, got %T", v)
	}
	return nil
}

// Value parses d into a pipeline Digits value.
func (d Digits) Value() (int, error) {
	return pipeline.ParseDigits(string(d))
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	opts := pipeline.DefaultOptions()
	return &Config{
		Source: SourceConfig{Scope: opts.Scope},
		Filter: FilterConfig{Branches: opts.Branches, Tags: opts.Tags},
		Render: RenderConfig{Format: opts.Format, Digits: Digits(pipeline.FormatDigits(opts.Digits))},
		Cache:  CacheConfig{Backend: cache.BackendFile},
		Serve:  ServeConfig{Addr: ":8080", Timeout: "30s"},
	}
}

// Find returns the config file path for the repository at dir, or "" when
// none exists.
func Find(dir string) string {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// Load reads the file at path on top of [Default]. An empty path returns the
// defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, os.ErrNotExist) {
		return nil, bperrors.Wrap(bperrors.ErrCodeFileNotFound, err, "config %s", path)
	}
	if err != nil {
		return nil, bperrors.Wrap(bperrors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, bperrors.New(bperrors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every value.
func (c *Config) Validate() error {
	invalid := func(err error, field string) error {
		return bperrors.Wrap(bperrors.ErrCodeInvalidConfig, err, "%s", field)
	}

	if _, err := git.ParseScope(c.Source.Scope); err != nil {
		return invalid(err, "source.scope")
	}
	for _, rev := range c.Filter.Include {
		if err := bperrors.ValidateRevision(rev); err != nil {
			return invalid(err, "filter.include")
		}
	}
	if c.Render.Format != "" {
		if err := pipeline.ValidateFormat(strings.ToLower(c.Render.Format)); err != nil {
			return invalid(err, "render.format")
		}
	}
	if _, err := c.Render.Digits.Value(); err != nil {
		return invalid(err, "render.digits")
	}

	if c.Cache.Backend != "" && !slices.Contains(cache.Backends, c.Cache.Backend) {
		return bperrors.New(bperrors.ErrCodeInvalidConfig, "cache.backend: %q (must be one of: %s)",
			c.Cache.Backend, strings.Join(cache.Backends, ", "))
	}
	switch c.Cache.Backend {
	case cache.BackendRedis:
		if err := bperrors.ValidateURL(c.Cache.URL, "redis", "rediss", "unix"); err != nil {
			return invalid(err, "cache.url")
		}
	case cache.BackendMongo:
		if err := bperrors.ValidateURL(c.Cache.URL, "mongodb", "mongodb+srv"); err != nil {
			return invalid(err, "cache.url")
		}
	}
	if _, err := c.CacheTTL(); err != nil {
		return invalid(err, "cache.ttl")
	}
	if _, err := c.ServeTimeout(); err != nil {
		return invalid(err, "serve.timeout")
	}
	return nil
}

// CacheTTL returns the configured snapshot TTL, or cache.TTLSnapshot.
func (c *Config) CacheTTL() (time.Duration, error) {
	return parseDuration(c.Cache.TTL, cache.TTLSnapshot)
}

// ServeTimeout returns the per-request timeout for the HTTP service.
func (c *Config) ServeTimeout() (time.Duration, error) {
	return parseDuration(c.Serve.Timeout, 30*time.Second)
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}

// Options converts the file settings into pipeline options.
func (c *Config) Options() (pipeline.Options, error) {
	digits, err := c.Render.Digits.Value()
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Scope:          c.Source.Scope,
		CommitTagsOnly: c.Source.CommitTagsOnly,
		Branches:       c.Filter.Branches,
		Tags:           c.Filter.Tags,
		Roots:          c.Filter.Roots,
		Merges:         c.Filter.Merges,
		Bifurcations:   c.Filter.Bifurcations,
		Include:        slices.Clone(c.Filter.Include),
		Format:         c.Render.Format,
		ShowIDs:        c.Render.ShowIDs,
		Digits:         digits,
	}, nil
}
