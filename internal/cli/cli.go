// Package cli implements the bigpicture command-line interface.
//
// The commands render the "big picture" of a git history: only commits that
// carry a branch or tag (plus, on request, roots, merges, bifurcations and
// explicitly included revisions) survive, connected to their nearest kept
// ancestors.
//
// # Commands
//
//   - render: write the history as DOT, SVG, PNG, JPG or PDF
//   - stats: print structural counts of the history
//   - dump: save the history as a JSON snapshot for offline rendering
//   - serve: expose rendering over HTTP
//   - cache: inspect and clear the history and image cache
//
// # Configuration
//
// Defaults come from .bigpicture.toml in the repository root (or --config).
// Command-line flags override the file only when given explicitly.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bigpicture/pkg/buildinfo"
	"github.com/matzehuels/bigpicture/pkg/cache"
	"github.com/matzehuels/bigpicture/pkg/config"
	"github.com/matzehuels/bigpicture/pkg/observability"
	"github.com/matzehuels/bigpicture/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "bigpicture"

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
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "bigpicture draws the shape of a git history",
		Long: `bigpicture reduces a git history to the commits that matter (branch tips,
tags and optionally roots, merges and bifurcations) and draws how they relate.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.dumpCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache, with
// keys scoped to repo.
func (c *CLI) newRunner(ctx context.Context, repo *repository, noCache bool) (*pipeline.Runner, error) {
	store, err := c.newCache(ctx, repo.config, noCache)
	if err != nil {
		return nil, err
	}
	ttl, err := repo.config.CacheTTL()
	if err != nil {
		store.Close()
		return nil, err
	}

	installHooks(c.Logger)
	keyer := cache.NewScopedKeyer(nil, "repo:"+cache.Hash([]byte(repo.id))[:12]+":")
	runner := pipeline.NewRunner(store, keyer, c.Logger)
	runner.SnapshotTTL = ttl
	return runner, nil
}

// newCache opens the configured backend. The file backend lives in the XDG
// cache directory; when that cannot be determined caching is disabled.
func (c *CLI) newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}

	ccfg := cache.Config{
		Backend: cfg.Cache.Backend,
		URL:     cfg.Cache.URL,
		Prefix:  appName + ":",
	}
	if ccfg.Backend == "" || ccfg.Backend == cache.BackendFile {
		dir, err := cacheDir()
		if err != nil {
			c.Logger.Warn("cache disabled", "error", err)
			return cache.NewNullCache(), nil
		}
		ccfg.Dir = dir
	}
	return cache.Open(ctx, ccfg)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/bigpicture/).
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

var hooksOnce sync.Once

// installHooks routes pipeline, cache and HTTP events to the debug log.
// Hooks are process-wide, so only the first logger is used.
func installHooks(l *log.Logger) {
	hooksOnce.Do(func() {
		h := &logHooks{logger: l}
		observability.SetPipelineHooks(h)
		observability.SetCacheHooks(h)
		observability.SetHTTPHooks(h)
	})
}
