package commitgraph

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFilter_CollapsesChain(t *testing.T) {
	g := mustNew(t, map[string][]string{
		"D": {},
		"C": {"D"},
		"B": {"C"},
		"A": {"B"},
	}, nil, map[string][]string{"A": {"v2"}, "D": {"v1"}})

	f, err := g.Filter(DefaultFilterOptions())
	if err != nil {
		t.Fatalf("Filter() error: %v", err)
	}

	want := map[string][]string{"A": {"D"}, "D": {}}
	if diff := cmp.Diff(want, f.Snapshot().Parents); diff != "" {
		t.Errorf("filtered parents mismatch (-want +got):\n%s", diff)
	}
	if f.HasCommit("B") || f.HasCommit("C") {
		t.Error("uninteresting commits survived the filter")
	}
}

func TestFilter_StopsAtFirstInterestingAncestor(t *testing.T) {
	// A → B → C, all tagged: A must point at B only, not at C.
	g := mustNew(t, map[string][]string{
		"C": {},
		"B": {"C"},
		"A": {"B"},
	}, nil, map[string][]string{"A": {"a"}, "B": {"b"}, "C": {"c"}})

	f, err := g.Filter(DefaultFilterOptions())
	if err != nil {
		t.Fatalf("Filter() error: %v", err)
	}
	if diff := cmp.Diff([]string{"B"}, f.Parents("A")); diff != "" {
		t.Errorf("Parents(A) mismatch (-want +got):\n%s", diff)
	}
}

func TestFilter_IdempotentOnInterestingGraph(t *testing.T) {
	parents := history()
	tags := map[string][]string{}
	for id := range parents {
		tags[id] = []string{"t-" + id}
	}
	g := mustNew(t, parents, nil, tags)

	f, err := g.Filter(DefaultFilterOptions())
	if err != nil {
		t.Fatalf("Filter() error: %v", err)
	}
	for _, id := range g.Commits() {
		if diff := cmp.Diff(sortedCopy(g.Parents(id)), f.Parents(id)); diff != "" {
			t.Errorf("Parents(%s) mismatch (-want +got):\n%s", id, diff)
		}
		if diff := cmp.Diff(g.Children(id), f.Children(id)); diff != "" {
			t.Errorf("Children(%s) mismatch (-want +got):\n%s", id, diff)
		}
	}

	twice, err := f.Filter(DefaultFilterOptions())
	if err != nil {
		t.Fatalf("second Filter() error: %v", err)
	}
	if diff := cmp.Diff(f.Snapshot(), twice.Snapshot()); diff != "" {
		t.Errorf("second filter changed graph (-want +got):\n%s", diff)
	}
}

func TestFilter_Predicates(t *testing.T) {
	g := mustNew(t, history(), map[string][]string{"m": {"main"}}, nil)

	tests := []struct {
		name string
		opts FilterOptions
		want map[string][]string
	}{
		{
			name: "branches only",
			opts: FilterOptions{Branches: true},
			want: map[string][]string{"m": {}},
		},
		{
			name: "branches and roots",
			opts: FilterOptions{Branches: true, Roots: true},
			want: map[string][]string{"m": {"r"}, "r": {}},
		},
		{
			name: "merges and bifurcations",
			opts: FilterOptions{Merges: true, Bifurcations: true},
			want: map[string][]string{"m": {"a"}, "a": {}},
		},
		{
			name: "additional",
			opts: FilterOptions{Branches: true, Additional: []string{"b"}},
			want: map[string][]string{"m": {"b"}, "b": {}},
		},
		{
			name: "nothing",
			opts: FilterOptions{},
			want: map[string][]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := g.Filter(tt.opts)
			if err != nil {
				t.Fatalf("Filter() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, f.Snapshot().Parents); diff != "" {
				t.Errorf("parents mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilter_RootsStayRoots(t *testing.T) {
	g := mustNew(t, map[string][]string{
		"r1": {},
		"r2": {},
		"x":  {"r1"},
		"m":  {"x", "r2"},
	}, map[string][]string{"m": {"main"}}, nil)

	f, err := g.Filter(FilterOptions{Branches: true, Roots: true})
	if err != nil {
		t.Fatalf("Filter() error: %v", err)
	}
	for _, r := range g.Roots() {
		if !f.HasCommit(r) {
			t.Errorf("root %s dropped", r)
			continue
		}
		if got := f.Parents(r); len(got) != 0 {
			t.Errorf("root %s has parents %v after filter", r, got)
		}
	}
	if diff := cmp.Diff([]string{"r1", "r2"}, f.Parents("m")); diff != "" {
		t.Errorf("Parents(m) mismatch (-want +got):\n%s", diff)
	}
}

func TestFilter_TagOnNonCommit(t *testing.T) {
	g := mustNew(t, history(), nil, map[string][]string{"tree1": {"snapshot"}, "m": {"v1"}})

	f, err := g.Filter(FilterOptions{Tags: true})
	if err != nil {
		t.Fatalf("Filter() error: %v", err)
	}
	if !f.HasCommit("tree1") {
		t.Fatal("tag target missing from filtered graph")
	}
	if got := f.Parents("tree1"); len(got) != 0 {
		t.Errorf("Parents(tree1) = %v, want none", got)
	}
}

func TestFilter_DoesNotMutateSource(t *testing.T) {
	g := mustNew(t, history(), map[string][]string{"m": {"main"}}, nil)
	before := g.Snapshot()

	f, err := g.Filter(FilterOptions{Branches: true, Roots: true})
	if err != nil {
		t.Fatalf("Filter() error: %v", err)
	}
	f.Elide("m")
	f.branches["m"].Add("other")

	if diff := cmp.Diff(before, g.Snapshot()); diff != "" {
		t.Errorf("source graph changed (-want +got):\n%s", diff)
	}
	if g.IsElided("m") {
		t.Error("elided marker leaked into source graph")
	}
}

func TestFilter_NoSelfLoops(t *testing.T) {
	g := mustNew(t, history(), map[string][]string{"m": {"main"}, "b": {"topic"}}, nil)
	f, err := g.Filter(FilterOptions{Branches: true, Roots: true, Merges: true, Bifurcations: true})
	if err != nil {
		t.Fatalf("Filter() error: %v", err)
	}
	for _, id := range f.Commits() {
		for _, p := range f.Parents(id) {
			if p == id {
				t.Errorf("self loop on %s", id)
			}
		}
	}
}

func sortedCopy(s []string) []string {
	out := append([]string{}, s...)
	slices.Sort(out)
	return out
}
