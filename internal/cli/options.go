package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/bigpicture/pkg/config"
	"github.com/matzehuels/bigpicture/pkg/pipeline"
	"github.com/matzehuels/bigpicture/pkg/render/dot"
	"github.com/matzehuels/bigpicture/pkg/source/git"
)

// =============================================================================
// Source Flags
// =============================================================================

// sourceFlags select the history to read and how to cache it.
type sourceFlags struct {
	from           string // snapshot file instead of a repository
	configPath     string // explicit config file
	scope          string // branch scope for labels
	commitTagsOnly bool   // drop tags that do not point at commits
	refresh        bool   // reload history even when cached
	noCache        bool   // disable the cache entirely
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.from, "from", "", "read a snapshot written by 'dump' instead of a repository")
	fs.StringVarP(&f.configPath, "config", "c", "", "config file (default: <repo>/"+config.FileName+")")
	fs.StringVar(&f.scope, "scope", pipeline.DefaultScope,
		fmt.Sprintf("branches to label: %s", joinScopes()))
	fs.BoolVar(&f.commitTagsOnly, "commit-tags-only", false, "ignore tags that point at trees or blobs")
	fs.BoolVar(&f.refresh, "refresh", false, "reload the history even when cached")
	fs.BoolVar(&f.noCache, "no-cache", false, "disable caching")
	_ = cmd.RegisterFlagCompletionFunc("scope", completeScope)
}

// completeScope lists the branch scopes for shell completion.
func completeScope(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	names := make([]string, len(git.Scopes))
	for i, s := range git.Scopes {
		names[i] = string(s)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeFormat lists the output formats for shell completion.
func completeFormat(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return dot.Formats, cobra.ShellCompDirectiveNoFileComp
}

func (f *sourceFlags) apply(fs *pflag.FlagSet, opts *pipeline.Options) {
	if fs.Changed("scope") {
		opts.Scope = f.scope
	}
	if fs.Changed("commit-tags-only") {
		opts.CommitTagsOnly = f.commitTagsOnly
	}
	opts.Refresh = f.refresh
}

// repository is an opened history source with the config that applies to it.
type repository struct {
	source pipeline.Source
	dir    string // repository root, or the working directory for snapshots
	id     string // absolute path naming the source in cache keys
	config *config.Config
}

// open resolves the source named by args (a repository path, default ".")
// or --from, and loads its config.
func (f *sourceFlags) open(args []string) (*repository, error) {
	repo := &repository{dir: "."}
	if f.from != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("--from cannot be combined with a repository path")
		}
		repo.source = pipeline.FileSource{Path: f.from}
		abs, err := filepath.Abs(f.from)
		if err != nil {
			return nil, err
		}
		repo.id = abs
	} else {
		path := "."
		if len(args) > 0 {
			path = args[0]
		}
		src, err := pipeline.OpenGitSource(path)
		if err != nil {
			return nil, err
		}
		repo.source = src
		repo.dir = src.Root()
		repo.id = repo.dir
	}

	cfg, err := loadConfig(f.configPath, repo.dir)
	if err != nil {
		return nil, err
	}
	repo.config = cfg
	return repo, nil
}

// loadConfig reads explicit, or the config file in dir when explicit is
// empty. Without either it returns the defaults.
func loadConfig(explicit, dir string) (*config.Config, error) {
	path := explicit
	if path == "" {
		path = config.Find(dir)
	}
	return config.Load(path)
}

func joinScopes() string {
	names, _ := completeScope(nil, nil, "")
	return strings.Join(names, ", ")
}

// =============================================================================
// Filter Flags
// =============================================================================

// filterFlags choose which commits survive the filter.
type filterFlags struct {
	branches     bool
	tags         bool
	roots        bool
	merges       bool
	bifurcations bool
	include      []string
}

func (f *filterFlags) register(fs *pflag.FlagSet) {
	def := pipeline.DefaultOptions()
	fs.BoolVarP(&f.branches, "branches", "b", def.Branches, "keep commits with a branch")
	fs.BoolVarP(&f.tags, "tags", "t", def.Tags, "keep commits with a tag")
	fs.BoolVarP(&f.roots, "roots", "r", def.Roots, "keep commits without parents")
	fs.BoolVarP(&f.merges, "merges", "m", def.Merges, "keep commits with several parents")
	fs.BoolVarP(&f.bifurcations, "bifurcations", "B", def.Bifurcations, "keep commits with several children")
	fs.StringSliceVarP(&f.include, "include", "i", nil, "always keep these revisions (comma-separated or repeated)")
}

func (f *filterFlags) apply(fs *pflag.FlagSet, opts *pipeline.Options) {
	flags := []struct {
		name string
		val  bool
		dst  *bool
	}{
		{"branches", f.branches, &opts.Branches},
		{"tags", f.tags, &opts.Tags},
		{"roots", f.roots, &opts.Roots},
		{"merges", f.merges, &opts.Merges},
		{"bifurcations", f.bifurcations, &opts.Bifurcations},
	}
	for _, fl := range flags {
		if fs.Changed(fl.name) {
			*fl.dst = fl.val
		}
	}
	if fs.Changed("include") {
		opts.Include = append(opts.Include, f.include...)
	}
}

// =============================================================================
// Render Flags
// =============================================================================

// renderFlags control the output document.
type renderFlags struct {
	format string
	output string
	ids    bool
	digits string
}

func (f *renderFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.format, "format", "f", pipeline.DefaultFormat,
		fmt.Sprintf("output format: %s", strings.Join(dot.Formats, ", ")))
	fs.StringVarP(&f.output, "output", "o", "", "output file (default: stdout for dot, history.<format> otherwise)")
	fs.BoolVar(&f.ids, "ids", false, "show commit ids on labels")
	fs.StringVarP(&f.digits, "digits", "d", "full", "id length: auto, full or 7-40")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormat)
}

func (f *renderFlags) apply(fs *pflag.FlagSet, opts *pipeline.Options) error {
	if fs.Changed("format") {
		opts.Format = f.format
	}
	if fs.Changed("ids") {
		opts.ShowIDs = f.ids
	}
	if fs.Changed("digits") {
		digits, err := pipeline.ParseDigits(f.digits)
		if err != nil {
			return err
		}
		opts.Digits = digits
	}
	return nil
}

// =============================================================================
// Options Assembly
// =============================================================================

// pipelineOptions layers explicitly set flags over the config file.
// Nil flag groups are skipped.
func pipelineOptions(cmd *cobra.Command, cfg *config.Config, sf *sourceFlags, ff *filterFlags, rf *renderFlags) (pipeline.Options, error) {
	opts, err := cfg.Options()
	if err != nil {
		return pipeline.Options{}, err
	}

	fs := cmd.Flags()
	if sf != nil {
		sf.apply(fs, &opts)
	}
	if ff != nil {
		ff.apply(fs, &opts)
	}
	if rf != nil {
		if err := rf.apply(fs, &opts); err != nil {
			return pipeline.Options{}, err
		}
	}
	opts.Logger = loggerFromContext(cmd.Context())
	return opts, nil
}
