package commitgraph

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// FullIDLength is the length of a full SHA-1 commit id.
const FullIDLength = 40

// ErrGraphConsistency is matched by every [*ConsistencyError] via errors.Is.
var ErrGraphConsistency = errors.New("parent and child maps disagree")

// ConsistencyError reports a commit pair whose parent and child links do not
// mirror each other.
type ConsistencyError struct {
	Commit   string // commit whose link is not reciprocated
	Relative string // the parent or child on the other end
	Relation string // "parent" or "child": what Relative is to Commit
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s: %s lists %s %s but the reverse link is missing",
		ErrGraphConsistency, e.Commit, e.Relation, e.Relative)
}

// Is lets errors.Is(err, ErrGraphConsistency) match.
func (e *ConsistencyError) Is(target error) bool { return target == ErrGraphConsistency }

// Snapshot is the raw history handed over by a loader.
//
// Children is optional. When a loader already knows the child relation it may
// supply it; [FromSnapshot] then verifies it instead of deriving a fresh one.
type Snapshot struct {
	Parents  map[string][]string `json:"parents"`
	Branches map[string][]string `json:"branches,omitempty"`
	Tags     map[string][]string `json:"tags,omitempty"`
	Children map[string][]string `json:"children,omitempty"`
}

// Graph is a commit DAG with derived child links and branch/tag labels.
//
// The zero value is not usable; construct with [New] or [FromSnapshot].
type Graph struct {
	parents  map[string][]string
	children map[string]mapset.Set[string]
	branches map[string]mapset.Set[string]
	tags     map[string]mapset.Set[string]
	elided   mapset.Set[string]
}

// New builds a Graph from a parent map and label maps, derives the child map
// and verifies it.
//
// The parent map is stored as given and must not be modified afterwards. The
// branch and tag maps are copied.
func New(parents, branches, tags map[string][]string) (*Graph, error) {
	g := newGraph(parents, branches, tags)
	g.deriveChildren()
	if err := g.verify(); err != nil {
		return nil, err
	}
	return g, nil
}

// FromSnapshot builds a Graph from a loader snapshot. A non-nil s.Children is
// used verbatim and must be the exact inverse of s.Parents.
func FromSnapshot(s Snapshot) (*Graph, error) {
	if s.Children == nil {
		return New(s.Parents, s.Branches, s.Tags)
	}
	g := newGraph(s.Parents, s.Branches, s.Tags)
	for id, children := range s.Children {
		g.children[id] = mapset.NewThreadUnsafeSet(children...)
	}
	for id := range g.parents {
		if _, ok := g.children[id]; !ok {
			g.children[id] = mapset.NewThreadUnsafeSet[string]()
		}
	}
	if err := g.verify(); err != nil {
		return nil, err
	}
	return g, nil
}

func newGraph(parents, branches, tags map[string][]string) *Graph {
	if parents == nil {
		parents = map[string][]string{}
	}
	return &Graph{
		parents:  parents,
		children: make(map[string]mapset.Set[string], len(parents)),
		branches: labelSets(branches),
		tags:     labelSets(tags),
		elided:   mapset.NewThreadUnsafeSet[string](),
	}
}

func labelSets(m map[string][]string) map[string]mapset.Set[string] {
	out := make(map[string]mapset.Set[string], len(m))
	for id, names := range m {
		out[id] = mapset.NewThreadUnsafeSet(names...)
	}
	return out
}

func (g *Graph) deriveChildren() {
	for id, parents := range g.parents {
		for _, p := range parents {
			set, ok := g.children[p]
			if !ok {
				set = mapset.NewThreadUnsafeSet[string]()
				g.children[p] = set
			}
			set.Add(id)
		}
		if _, ok := g.children[id]; !ok {
			g.children[id] = mapset.NewThreadUnsafeSet[string]()
		}
	}
}

// verify checks that parents and children describe the same edges in both
// directions. A child must be a key of the parent map. Commits are visited in
// sorted order so the reported pair is stable.
func (g *Graph) verify() error {
	for _, id := range slices.Sorted(maps.Keys(g.parents)) {
		for _, p := range g.parents[id] {
			if set, ok := g.children[p]; !ok || !set.Contains(id) {
				return &ConsistencyError{Commit: id, Relative: p, Relation: "parent"}
			}
		}
	}
	for _, id := range slices.Sorted(maps.Keys(g.children)) {
		for _, c := range mapset.Sorted(g.children[id]) {
			if parents, known := g.parents[c]; !known || !slices.Contains(parents, id) {
				return &ConsistencyError{Commit: id, Relative: c, Relation: "child"}
			}
		}
	}
	return nil
}

// Roots returns the sorted ids of commits without parents.
func (g *Graph) Roots() []string {
	return g.collect(func(id string) bool { return len(g.parents[id]) == 0 })
}

// Merges returns the sorted ids of commits with more than one parent.
func (g *Graph) Merges() []string {
	return g.collect(func(id string) bool { return len(g.parents[id]) > 1 })
}

// Bifurcations returns the sorted ids of commits with more than one child.
func (g *Graph) Bifurcations() []string {
	var out []string
	for id, children := range g.children {
		if children.Cardinality() > 1 {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

func (g *Graph) collect(keep func(id string) bool) []string {
	var out []string
	for id := range g.parents {
		if keep(id) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// Commits returns every key of the parent map in sorted order.
func (g *Graph) Commits() []string { return slices.Sorted(maps.Keys(g.parents)) }

// CommitCount returns the number of commits in the parent map.
func (g *Graph) CommitCount() int { return len(g.parents) }

// EdgeCount returns the number of child → parent links.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, parents := range g.parents {
		n += len(parents)
	}
	return n
}

// HasCommit reports whether id is a key of the parent map.
func (g *Graph) HasCommit(id string) bool {
	_, ok := g.parents[id]
	return ok
}

// Parents returns a copy of id's parents in stored order.
func (g *Graph) Parents(id string) []string { return slices.Clone(g.parents[id]) }

// Children returns id's children in sorted order.
func (g *Graph) Children(id string) []string { return sortedOrNil(g.children[id]) }

// Branches returns the sorted branch names pointing at id.
func (g *Graph) Branches(id string) []string { return sortedOrNil(g.branches[id]) }

// Tags returns the sorted tag names pointing at id.
func (g *Graph) Tags(id string) []string { return sortedOrNil(g.tags[id]) }

// HasBranch reports whether id has a branch entry, even one with no names.
func (g *Graph) HasBranch(id string) bool {
	_, ok := g.branches[id]
	return ok
}

// HasTag reports whether id has a tag entry, even one with no names.
func (g *Graph) HasTag(id string) bool {
	_, ok := g.tags[id]
	return ok
}

// HasLabel reports whether a branch or tag points at id.
func (g *Graph) HasLabel(id string) bool { return g.HasBranch(id) || g.HasTag(id) }

// Labeled returns the sorted ids carrying at least one branch or tag.
func (g *Graph) Labeled() []string {
	ids := mapset.NewThreadUnsafeSetFromMapKeys(g.branches)
	for id := range g.tags {
		ids.Add(id)
	}
	return mapset.Sorted(ids)
}

// BranchCount returns the number of commits carrying a branch.
func (g *Graph) BranchCount() int { return len(g.branches) }

// TagCount returns the number of objects carrying a tag.
func (g *Graph) TagCount() int { return len(g.tags) }

// Elide marks ids as placeholders for hidden history. Elided commits render
// as "..." nodes.
func (g *Graph) Elide(ids ...string) {
	for _, id := range ids {
		g.elided.Add(id)
	}
}

// IsElided reports whether id was marked with [Graph.Elide].
func (g *Graph) IsElided(id string) bool { return g.elided.Contains(id) }

// Elided returns the sorted elided ids.
func (g *Graph) Elided() []string { return mapset.Sorted(g.elided) }

// Snapshot exports the graph as plain maps. The returned maps are copies.
func (g *Graph) Snapshot() Snapshot {
	s := Snapshot{
		Parents:  make(map[string][]string, len(g.parents)),
		Branches: labelLists(g.branches),
		Tags:     labelLists(g.tags),
	}
	for id, parents := range g.parents {
		s.Parents[id] = slices.Clone(parents)
	}
	return s
}

func labelLists(m map[string]mapset.Set[string]) map[string][]string {
	out := make(map[string][]string, len(m))
	for id, set := range m {
		out[id] = mapset.Sorted(set)
	}
	return out
}

func sortedOrNil(s mapset.Set[string]) []string {
	if s == nil || s.Cardinality() == 0 {
		return nil
	}
	return mapset.Sorted(s)
}
