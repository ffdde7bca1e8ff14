// Package git loads commit history from a local git repository.
//
// It reads the object database directly with go-git, so no git binary is
// required. A [Repository] yields a [commitgraph.Snapshot]: the parent map of
// every commit reachable from any ref, plus branch and tag labels keyed by the
// commit they point to.
//
// # Branches
//
// [LoadOptions.Scope] picks which branches become labels: local branches
// ("main"), remote-tracking branches ("origin/main"), or both. The commit walk
// always starts from every ref, so the scope never changes which commits are
// present.
//
// # Tags
//
// Lightweight and annotated tags are supported. Annotated tags are peeled to
// the object they finally point to. A tag whose target is not a commit (a
// tagged tree or blob) is still reported, keyed by the target's id, unless
// [LoadOptions.CommitTagsOnly] is set.
//
// # Usage
//
//	repo, err := git.Open(".")
//	if err != nil {
//	    return err
//	}
//	snap, err := repo.Load(ctx, git.LoadOptions{Scope: git.ScopeLocal})
package git
