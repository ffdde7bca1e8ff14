// Package pkg provides the libraries behind bigpicture.
//
// # Overview
//
// bigpicture reduces a git history to the commits that matter and draws how
// they relate. A commit matters when it carries a branch or tag, or (on
// request) when it is a root, a merge, a bifurcation or an explicitly
// included revision. Every kept commit is linked to its nearest kept
// ancestors, so plain stretches of history collapse into single edges.
//
// # Architecture
//
//	git repository / JSON snapshot
//	         ↓
//	    [source/git] or [io] (load parents, branches, tags)
//	         ↓
//	    [commitgraph] (verify, classify, filter, shortest unique ids)
//	         ↓
//	    [render/dot] (DOT text, Graphviz images)
//
// [pipeline] wires these steps together behind a cache and is shared by the
// CLI and the HTTP server.
//
// # Quick Start
//
//	src, _ := pipeline.OpenGitSource(".")
//	runner := pipeline.NewRunner(nil, nil, nil)
//	opts := pipeline.DefaultOptions()
//	opts.Merges = true
//	res, err := runner.Execute(ctx, src, opts)
//	os.Stdout.Write(res.Artifact)
//
// # Packages
//
// [commitgraph] - The commit DAG: parent and child links, branch and tag
// labels, root/merge/bifurcation classification, the reachability filter and
// minimal id digits.
//
// [source/git] - Reads commits and refs from a repository with go-git.
//
// [io] - Versioned JSON snapshots of a history.
//
// [render/dot] - DOT serialization and Graphviz rendering to SVG, PNG, JPG
// and PDF.
//
// [cache] - File, Redis and MongoDB caches for snapshots and images.
//
// [config] - TOML project configuration.
//
// [errors] - Coded errors shared by the CLI and the HTTP server.
//
// [observability] - Hooks for load, filter, render, cache and HTTP events.
//
// # Testing
//
//	go test ./pkg/...
//	go test -run Example ./pkg/commitgraph
//
// [commitgraph]: https://pkg.go.dev/github.com/matzehuels/bigpicture/pkg/commitgraph
// [source/git]: https://pkg.go.dev/github.com/matzehuels/bigpicture/pkg/source/git
// [io]: https://pkg.go.dev/github.com/matzehuels/bigpicture/pkg/io
// [render/dot]: https://pkg.go.dev/github.com/matzehuels/bigpicture/pkg/render/dot
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/bigpicture/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/bigpicture/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/bigpicture/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/bigpicture/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/bigpicture/pkg/observability
package pkg
