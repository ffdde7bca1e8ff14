package commitgraph

import (
	"errors"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/go-cmp/cmp"
)

// history builds:
//
//	r ← a ← b ← m
//	     ↖ c ←↙
//
// m merges b and c, a bifurcates into b and c.
func history() map[string][]string {
	return map[string][]string{
		"r": {},
		"a": {"r"},
		"b": {"a"},
		"c": {"a"},
		"m": {"b", "c"},
	}
}

func mustNew(t *testing.T, parents, branches, tags map[string][]string) *Graph {
	t.Helper()
	g, err := New(parents, branches, tags)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return g
}

func TestNew_ChildMapIsInverse(t *testing.T) {
	g := mustNew(t, history(), nil, nil)

	for _, c := range g.Commits() {
		for _, p := range g.Parents(c) {
			if !g.children[p].Contains(c) {
				t.Errorf("%s has parent %s but is not its child", c, p)
			}
		}
	}
	for p, children := range g.children {
		for _, c := range children.ToSlice() {
			if !containsString(g.Parents(c), p) {
				t.Errorf("%s has child %s but is not its parent", p, c)
			}
		}
	}
}

func TestNew_EveryCommitHasChildEntry(t *testing.T) {
	g := mustNew(t, history(), nil, nil)
	for _, id := range g.Commits() {
		if _, ok := g.children[id]; !ok {
			t.Errorf("commit %s missing from child map", id)
		}
	}
	if got := g.Children("m"); got != nil {
		t.Errorf("Children(m) = %v, want nil", got)
	}
	if diff := cmp.Diff([]string{"b", "c"}, g.Children("a")); diff != "" {
		t.Errorf("Children(a) mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_ParentOnlyKnownAsParent(t *testing.T) {
	// "x" is referenced as a parent but has no parent-map entry.
	g := mustNew(t, map[string][]string{"a": {"x"}}, nil, nil)
	if diff := cmp.Diff([]string{"a"}, g.Children("x")); diff != "" {
		t.Errorf("Children(x) mismatch (-want +got):\n%s", diff)
	}
	if g.HasCommit("x") {
		t.Error("HasCommit(x) = true, want false")
	}
}

func TestNew_CopiesLabels(t *testing.T) {
	branches := map[string][]string{"a": {"main"}}
	g := mustNew(t, history(), branches, nil)

	branches["a"][0] = "changed"
	branches["b"] = []string{"new"}

	if diff := cmp.Diff([]string{"main"}, g.Branches("a")); diff != "" {
		t.Errorf("Branches(a) mismatch (-want +got):\n%s", diff)
	}
	if g.HasLabel("b") {
		t.Error("caller mutation leaked into graph")
	}
}

func TestLabelKeyPresence(t *testing.T) {
	g := mustNew(t, history(), map[string][]string{"a": {}}, map[string][]string{"b": {}})
	if !g.HasBranch("a") || g.HasTag("a") {
		t.Error("empty branch entry on a not reported by HasBranch")
	}
	if !g.HasTag("b") || !g.HasLabel("b") {
		t.Error("empty tag entry on b not reported by HasTag/HasLabel")
	}
	if g.Branches("a") != nil {
		t.Errorf("Branches(a) = %v, want nil", g.Branches("a"))
	}
	if diff := cmp.Diff([]string{"a", "b"}, g.Labeled()); diff != "" {
		t.Errorf("Labeled() mismatch (-want +got):\n%s", diff)
	}
}

func TestFromSnapshot_CorruptChildMap(t *testing.T) {
	tests := []struct {
		name     string
		snapshot Snapshot
		relation string
	}{
		{
			name: "parent not reciprocated",
			snapshot: Snapshot{
				Parents:  map[string][]string{"a": {}, "b": {"a"}},
				Children: map[string][]string{"a": {}},
			},
			relation: "parent",
		},
		{
			name: "child not reciprocated",
			snapshot: Snapshot{
				Parents:  map[string][]string{"a": {}, "b": {}},
				Children: map[string][]string{"a": {"b"}},
			},
			relation: "child",
		},
		{
			name: "child unknown to parent map",
			snapshot: Snapshot{
				Parents:  map[string][]string{"a": {}, "b": {"a"}},
				Children: map[string][]string{"a": {"b", "ghost"}, "b": {}},
			},
			relation: "child",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := FromSnapshot(tt.snapshot)
			if g != nil {
				t.Error("FromSnapshot() returned a graph for corrupt input")
			}
			if !errors.Is(err, ErrGraphConsistency) {
				t.Fatalf("FromSnapshot() error = %v, want ErrGraphConsistency", err)
			}
			var ce *ConsistencyError
			if !errors.As(err, &ce) {
				t.Fatalf("error is %T, want *ConsistencyError", err)
			}
			if ce.Relation != tt.relation {
				t.Errorf("Relation = %q, want %q", ce.Relation, tt.relation)
			}
		})
	}
}

func TestFromSnapshot_ValidChildMap(t *testing.T) {
	g, err := FromSnapshot(Snapshot{
		Parents:  map[string][]string{"a": {}, "b": {"a"}},
		Children: map[string][]string{"a": {"b"}},
	})
	if err != nil {
		t.Fatalf("FromSnapshot() error: %v", err)
	}
	if diff := cmp.Diff([]string{"b"}, g.Children("a")); diff != "" {
		t.Errorf("Children(a) mismatch (-want +got):\n%s", diff)
	}
}

func TestVerify_DetectsTamperedChildren(t *testing.T) {
	g := mustNew(t, history(), nil, nil)
	g.children["a"].Remove("b")

	if err := g.verify(); !errors.Is(err, ErrGraphConsistency) {
		t.Errorf("verify() = %v, want ErrGraphConsistency", err)
	}
}

func TestQueries(t *testing.T) {
	g := mustNew(t, history(), nil, nil)

	tests := []struct {
		name string
		got  []string
		want []string
	}{
		{"roots", g.Roots(), []string{"r"}},
		{"merges", g.Merges(), []string{"m"}},
		{"bifurcations", g.Bifurcations(), []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCounts(t *testing.T) {
	g := mustNew(t, history(), map[string][]string{"m": {"main"}}, map[string][]string{"r": {"v1"}})
	if g.CommitCount() != 5 {
		t.Errorf("CommitCount() = %d, want 5", g.CommitCount())
	}
	if g.EdgeCount() != 5 {
		t.Errorf("EdgeCount() = %d, want 5", g.EdgeCount())
	}
	if diff := cmp.Diff([]string{"m", "r"}, g.Labeled()); diff != "" {
		t.Errorf("Labeled() mismatch (-want +got):\n%s", diff)
	}
}

func TestElide(t *testing.T) {
	g := mustNew(t, history(), nil, nil)
	g.Elide("b", "c")
	if !g.IsElided("b") || g.IsElided("a") {
		t.Error("IsElided() reports wrong membership")
	}
	if diff := cmp.Diff([]string{"b", "c"}, g.Elided()); diff != "" {
		t.Errorf("Elided() mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshot_RoundTrip(t *testing.T) {
	g := mustNew(t, history(), map[string][]string{"m": {"main", "dev"}}, nil)
	s := g.Snapshot()

	again, err := FromSnapshot(s)
	if err != nil {
		t.Fatalf("FromSnapshot() error: %v", err)
	}
	if diff := cmp.Diff(s, again.Snapshot()); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"dev", "main"}, s.Branches["m"]); diff != "" {
		t.Errorf("branches not sorted (-want +got):\n%s", diff)
	}
}

func containsString(list []string, s string) bool {
	return mapset.NewThreadUnsafeSet(list...).Contains(s)
}
