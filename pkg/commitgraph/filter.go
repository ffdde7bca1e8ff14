package commitgraph

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// FilterOptions selects which commits survive [Graph.Filter].
//
// The zero value keeps only Additional ids. Use [DefaultFilterOptions] for the
// usual branches-and-tags view.
type FilterOptions struct {
	Branches     bool // commits a branch points at
	Tags         bool // objects a tag points at
	Roots        bool // commits without parents
	Merges       bool // commits with more than one parent
	Bifurcations bool // commits with more than one child

	// Additional ids to keep regardless of the predicates above. Ids unknown to
	// the graph are kept as isolated nodes.
	Additional []string
}

// DefaultFilterOptions keeps commits referenced by branches or tags.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{Branches: true, Tags: true}
}

// Interesting returns the set of ids selected by opts.
func (g *Graph) Interesting(opts FilterOptions) mapset.Set[string] {
	keep := mapset.NewThreadUnsafeSet[string]()
	if opts.Branches {
		for id := range g.branches {
			keep.Add(id)
		}
	}
	if opts.Tags {
		for id := range g.tags {
			keep.Add(id)
		}
	}
	if opts.Roots {
		keep.Append(g.Roots()...)
	}
	if opts.Merges {
		keep.Append(g.Merges()...)
	}
	if opts.Bifurcations {
		keep.Append(g.Bifurcations()...)
	}
	keep.Append(opts.Additional...)
	return keep
}

// Filter returns a new graph holding only the interesting commits selected by
// opts. Every kept commit points at its nearest kept ancestors: the search
// from a commit walks its parents and stops at the first interesting commit on
// each path, so uninteresting history between two kept commits becomes one
// edge.
//
// Commits missing from the parent map (for example a tag on a tree object)
// are treated as having no parents. The receiver is not modified.
func (g *Graph) Filter(opts FilterOptions) (*Graph, error) {
	keep := g.Interesting(opts)

	parents := make(map[string][]string, keep.Cardinality())
	keep.Each(func(id string) bool {
		parents[id] = g.nearestInteresting(id, keep)
		return false
	})

	return New(parents, labelLists(g.branches), labelLists(g.tags))
}

// nearestInteresting walks breadth-first from id's parents and collects the
// interesting commits reachable without passing another interesting commit.
func (g *Graph) nearestInteresting(id string, keep mapset.Set[string]) []string {
	found := mapset.NewThreadUnsafeSet[string]()
	seen := mapset.NewThreadUnsafeSet[string]()

	queue := append([]string(nil), g.parents[id]...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if !seen.Add(next) {
			continue
		}
		if keep.Contains(next) {
			found.Add(next)
			continue
		}
		queue = append(queue, g.parents[next]...)
	}
	return mapset.Sorted(found)
}
