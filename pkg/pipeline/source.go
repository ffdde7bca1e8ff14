package pipeline

import (
	"context"
	stderrors "errors"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/bigpicture/pkg/cache"
	"github.com/matzehuels/bigpicture/pkg/commitgraph"
	"github.com/matzehuels/bigpicture/pkg/errors"
	pkgio "github.com/matzehuels/bigpicture/pkg/io"
	"github.com/matzehuels/bigpicture/pkg/source/git"
)

// Source provides raw commit history.
type Source interface {
	// String names the source in logs.
	String() string

	// Fingerprint identifies the current state of the source. Two loads with
	// equal fingerprints return the same history.
	Fingerprint(ctx context.Context) (string, error)

	// Load reads the history.
	Load(ctx context.Context, opts Options) (commitgraph.Snapshot, error)
}

// Resolver is implemented by sources that understand revision names.
// Sources without it resolve includes by id prefix against the loaded graph.
type Resolver interface {
	Resolve(revs []string) ([]string, error)
}

// =============================================================================
// Git repository
// =============================================================================

// GitSource reads history from a local git repository. It is safe for
// concurrent use; repository access is serialized.
type GitSource struct {
	mu   sync.Mutex
	repo *git.Repository
}

// OpenGitSource opens the repository containing path.
func OpenGitSource(path string) (*GitSource, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	repo, err := git.Open(path)
	if stderrors.Is(err, git.ErrNotRepository) {
		return nil, errors.Wrap(errors.ErrCodeRepositoryNotFound, err, "open repository")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "open repository")
	}
	return &GitSource{repo: repo}, nil
}

func (s *GitSource) String() string { return s.repo.Path() }

// Root returns the top-level directory of the repository.
func (s *GitSource) Root() string { return s.repo.Root() }

// Fingerprint hashes the repository's refs.
func (s *GitSource) Fingerprint(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Fingerprint(ctx)
}

// Load walks the repository.
func (s *GitSource) Load(ctx context.Context, opts Options) (commitgraph.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Load(ctx, opts.LoadOptions())
}

// Resolve expands branch names, tags and abbreviated ids.
func (s *GitSource) Resolve(revs []string) ([]string, error) {
	s.mu.Lock()
	ids, err := s.repo.ResolveAll(revs)
	s.mu.Unlock()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRevision, err, "resolve include")
	}
	return ids, nil
}

// =============================================================================
// Snapshot file
// =============================================================================

// FileSource reads a snapshot written by the dump command.
type FileSource struct {
	Path string
}

func (s FileSource) String() string { return s.Path }

// Fingerprint hashes the file contents.
func (s FileSource) Fingerprint(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", fileError(err, s.Path)
	}
	return cache.Hash(data), nil
}

// Load decodes the snapshot. Load options do not apply to files.
func (s FileSource) Load(ctx context.Context, opts Options) (commitgraph.Snapshot, error) {
	snap, err := pkgio.ImportJSON(s.Path)
	if err != nil {
		return commitgraph.Snapshot{}, fileError(err, s.Path)
	}
	return snap, nil
}

func fileError(err error, path string) error {
	if stderrors.Is(err, os.ErrNotExist) {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "read snapshot")
	}
	return errors.Wrap(errors.ErrCodeInvalidInput, err, "read snapshot %s", path)
}

// =============================================================================
// Include resolution
// =============================================================================

// resolveIncludes maps revisions to commit ids, through the source when it
// is a [Resolver] and against the loaded graph otherwise.
func resolveIncludes(src Source, g *commitgraph.Graph, revs []string) ([]string, error) {
	if len(revs) == 0 {
		return nil, nil
	}
	if r, ok := src.(Resolver); ok {
		return r.Resolve(revs)
	}

	out := make([]string, 0, len(revs))
	for _, rev := range revs {
		id, err := resolveInGraph(g, rev)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// resolveInGraph matches rev as a unique id prefix when it looks like a commit
// id, and as a branch or tag name otherwise or when no id matches.
func resolveInGraph(g *commitgraph.Graph, rev string) (string, error) {
	var matches []string
	if prefix := strings.ToLower(rev); errors.IsCommitID(prefix) {
		for _, id := range g.Commits() {
			if id == prefix {
				return id, nil
			}
			if strings.HasPrefix(id, prefix) {
				matches = append(matches, id)
			}
		}
	}
	if len(matches) == 0 {
		for _, id := range g.Labeled() {
			if g.HasCommit(id) && (slices.Contains(g.Branches(id), rev) || slices.Contains(g.Tags(id), rev)) {
				matches = append(matches, id)
			}
		}
	}

	switch len(matches) {
	case 0:
		return "", errors.New(errors.ErrCodeInvalidRevision, "unknown revision: %s", rev)
	case 1:
		return matches[0], nil
	default:
		return "", errors.New(errors.ErrCodeInvalidRevision, "ambiguous revision: %s", rev)
	}
}
