package git

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/matzehuels/bigpicture/pkg/commitgraph"
)

// Sentinel errors returned by this package.
var (
	// ErrNotRepository is returned by [Open] when no repository is found.
	ErrNotRepository = errors.New("not a git repository")

	// ErrUnknownRevision is returned by [Repository.Resolve].
	ErrUnknownRevision = errors.New("unknown revision")

	// ErrInvalidScope is returned for an unrecognized [BranchScope].
	ErrInvalidScope = errors.New("invalid branch scope")
)

// BranchScope selects which branches are reported as labels.
type BranchScope string

// Branch scopes.
const (
	ScopeAll    BranchScope = "all"
	ScopeLocal  BranchScope = "local"
	ScopeRemote BranchScope = "remote"
)

// Scopes lists every valid scope.
var Scopes = []BranchScope{ScopeAll, ScopeLocal, ScopeRemote}

// ParseScope converts a user-supplied string to a BranchScope. The empty
// string means [ScopeAll].
func ParseScope(s string) (BranchScope, error) {
	if s == "" {
		return ScopeAll, nil
	}
	scope := BranchScope(strings.ToLower(s))
	if !slices.Contains(Scopes, scope) {
		return "", fmt.Errorf("%w: %q (must be one of: all, local, remote)", ErrInvalidScope, s)
	}
	return scope, nil
}

// LoadOptions controls [Repository.Load].
type LoadOptions struct {
	Scope BranchScope

	// CommitTagsOnly drops tags whose (peeled) target is not a commit.
	CommitTagsOnly bool
}

// Repository is an opened git repository.
type Repository struct {
	repo *gogit.Repository
	path string
}

// Open opens the repository containing path. Parent directories are searched
// for a .git directory, as git itself does.
func Open(path string) (*Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%w: %s", ErrNotRepository, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Repository{repo: repo, path: path}, nil
}

// Path returns the path the repository was opened with.
func (r *Repository) Path() string { return r.path }

// Root returns the top-level directory of the working tree, or Path for
// bare repositories.
func (r *Repository) Root() string {
	wt, err := r.repo.Worktree()
	if err != nil {
		return r.path
	}
	return wt.Filesystem.Root()
}

// ref is a resolved, non-symbolic reference.
type ref struct {
	name plumbing.ReferenceName
	hash plumbing.Hash
}

// refs returns every hash reference plus HEAD, sorted by name. Symbolic refs
// such as refs/remotes/origin/HEAD are skipped; HEAD is resolved.
func (r *Repository) refs() ([]ref, error) {
	iter, err := r.repo.References()
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	defer iter.Close()

	var out []ref
	err = iter.ForEach(func(rf *plumbing.Reference) error {
		if rf.Type() != plumbing.HashReference {
			return nil
		}
		out = append(out, ref{name: rf.Name(), hash: rf.Hash()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}

	// Unborn HEAD (fresh repository) is not an error.
	if head, err := r.repo.Head(); err == nil {
		out = append(out, ref{name: plumbing.HEAD, hash: head.Hash()})
	}

	slices.SortFunc(out, func(a, b ref) int { return strings.Compare(string(a.name), string(b.name)) })
	return out, nil
}

// Fingerprint hashes the name and target of every ref. It changes whenever a
// branch or tag moves, is created or is deleted, and is used as a cache key.
func (r *Repository) Fingerprint(ctx context.Context) (string, error) {
	refs, err := r.refs()
	if err != nil {
		return "", err
	}
	h := sha256.New()
	for _, rf := range refs {
		fmt.Fprintf(h, "%s=%s\n", rf.name, rf.hash)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Load walks the history reachable from every ref and returns the parent map
// with branch and tag labels. Only branches and tags become labels.
func (r *Repository) Load(ctx context.Context, opts LoadOptions) (commitgraph.Snapshot, error) {
	scope := opts.Scope
	if scope == "" {
		scope = ScopeAll
	}
	if !slices.Contains(Scopes, scope) {
		return commitgraph.Snapshot{}, fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}

	refs, err := r.refs()
	if err != nil {
		return commitgraph.Snapshot{}, err
	}

	snap := commitgraph.Snapshot{
		Parents:  make(map[string][]string),
		Branches: make(map[string][]string),
		Tags:     make(map[string][]string),
	}

	var tips []plumbing.Hash
	for _, rf := range refs {
		switch {
		case rf.name.IsBranch():
			tips = append(tips, rf.hash)
			if scope != ScopeRemote {
				addLabel(snap.Branches, rf.hash.String(), rf.name.Short())
			}
		case rf.name.IsRemote():
			tips = append(tips, rf.hash)
			if scope != ScopeLocal {
				addLabel(snap.Branches, rf.hash.String(), rf.name.Short())
			}
		case rf.name.IsTag():
			target, isCommit, err := r.peel(rf.hash)
			if err != nil {
				return commitgraph.Snapshot{}, fmt.Errorf("peel tag %s: %w", rf.name.Short(), err)
			}
			if isCommit {
				tips = append(tips, target)
			} else if opts.CommitTagsOnly {
				continue
			}
			addLabel(snap.Tags, target.String(), rf.name.Short())
		case rf.name == plumbing.HEAD:
			tips = append(tips, rf.hash)
		default:
			// Stash, notes and other refs contribute history but no labels.
			target, isCommit, err := r.peel(rf.hash)
			if err != nil {
				return commitgraph.Snapshot{}, fmt.Errorf("peel %s: %w", rf.name, err)
			}
			if isCommit {
				tips = append(tips, target)
			}
		}
	}

	if err := r.walk(ctx, tips, snap.Parents); err != nil {
		return commitgraph.Snapshot{}, err
	}
	return snap, nil
}

func addLabel(m map[string][]string, id, name string) {
	if !slices.Contains(m[id], name) {
		m[id] = append(m[id], name)
	}
}

// peel follows annotated tag objects to their final target. isCommit reports
// whether that target is a commit.
func (r *Repository) peel(h plumbing.Hash) (target plumbing.Hash, isCommit bool, err error) {
	seen := mapset.NewThreadUnsafeSet[plumbing.Hash]()
	for seen.Add(h) {
		obj, err := r.repo.Storer.EncodedObject(plumbing.AnyObject, h)
		if err != nil {
			return plumbing.ZeroHash, false, err
		}
		switch obj.Type() {
		case plumbing.CommitObject:
			return h, true, nil
		case plumbing.TagObject:
			tag, err := object.DecodeTag(r.repo.Storer, obj)
			if err != nil {
				return plumbing.ZeroHash, false, err
			}
			h = tag.Target
		default:
			return h, false, nil
		}
	}
	return plumbing.ZeroHash, false, fmt.Errorf("tag chain loops at %s", h)
}

// walk visits every commit reachable from tips and records its parents in
// stored order. Shallow boundary commits are recorded as roots since their
// parents are not in the object store.
func (r *Repository) walk(ctx context.Context, tips []plumbing.Hash, parents map[string][]string) error {
	shallow, err := r.repo.Storer.Shallow()
	if err != nil {
		return fmt.Errorf("read shallow commits: %w", err)
	}
	boundary := mapset.NewThreadUnsafeSet(shallow...)

	queue := slices.Clone(tips)
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		h := queue[0]
		queue = queue[1:]

		id := h.String()
		if _, done := parents[id]; done {
			continue
		}
		c, err := r.repo.CommitObject(h)
		if err != nil {
			return fmt.Errorf("read commit %s: %w", id, err)
		}
		if boundary.Contains(h) {
			parents[id] = []string{}
			continue
		}

		ps := make([]string, 0, len(c.ParentHashes))
		for _, p := range c.ParentHashes {
			ps = append(ps, p.String())
			queue = append(queue, p)
		}
		parents[id] = ps
	}
	return nil
}

// Resolve expands a revision (branch, tag or abbreviated id) to a full
// commit id.
func (r *Repository) Resolve(rev string) (string, error) {
	h, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownRevision, rev)
	}
	return h.String(), nil
}

// ResolveAll resolves every revision in revs, failing on the first unknown one.
func (r *Repository) ResolveAll(revs []string) ([]string, error) {
	out := make([]string, 0, len(revs))
	for _, rev := range revs {
		id, err := r.Resolve(rev)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
