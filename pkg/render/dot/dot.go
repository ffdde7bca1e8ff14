package dot

import (
	"fmt"
	"strings"

	"github.com/matzehuels/bigpicture/pkg/commitgraph"
)

// Color palette cases. The fill color is "/pastel13/<case>", where tags add 1
// and branches add 2.
const (
	caseNone   = 0
	caseTag    = 1
	caseBranch = 2
	caseBoth   = caseTag | caseBranch
)

// Options configures DOT generation.
type Options struct {
	// ShowIDs appends the (possibly abbreviated) commit id to the label of
	// every referenced commit.
	ShowIDs bool

	// Digits abbreviates ids to this many characters. Zero, or any value of
	// at least commitgraph.FullIDLength, shows full ids. While abbreviating,
	// unreferenced commits get an explicit node carrying their short id.
	Digits int
}

func (o Options) truncating() bool {
	return o.Digits > 0 && o.Digits < commitgraph.FullIDLength
}

func (o Options) format(id string) string {
	if !o.truncating() {
		return id
	}
	return commitgraph.Abbrev(id, o.Digits)
}

// edgeList is one commit and its parents, materialized before edges are
// written so the graph is only read.
type edgeList struct {
	child   string
	parents []string
}

// Lines renders g as Graphviz DOT source, one statement per line.
//
// Labeled commits come first, then elided placeholders, then (only while
// abbreviating ids) plain commits, then child → parent edges. Each group is
// ordered by commit id; parents keep their stored order.
func Lines(g *commitgraph.Graph, opts Options) []string {
	lines := []string{"digraph {"}

	for _, id := range g.Labeled() {
		label, color := labelFor(g, id, opts)
		lines = append(lines, fmt.Sprintf("\t%q[label=\"%s\", color=%q, style=filled];", id, label, color))
	}

	for _, id := range g.Elided() {
		lines = append(lines, fmt.Sprintf("\t%q[label=\"...\"];", id))
	}

	if opts.truncating() {
		for _, id := range g.Commits() {
			if g.HasLabel(id) || g.IsElided(id) {
				continue
			}
			lines = append(lines, fmt.Sprintf("\t%q[label=\"%s\"];", id, escape(opts.format(id))))
		}
	}

	for _, e := range edgeLists(g) {
		for _, p := range e.parents {
			lines = append(lines, fmt.Sprintf("\t%q -> %q;", e.child, p))
		}
	}

	return append(lines, "}")
}

// ToDOT renders g as a single DOT document terminated by a newline.
func ToDOT(g *commitgraph.Graph, opts Options) string {
	return strings.Join(Lines(g, opts), "\n") + "\n"
}

func edgeLists(g *commitgraph.Graph) []edgeList {
	commits := g.Commits()
	out := make([]edgeList, 0, len(commits))
	for _, id := range commits {
		out = append(out, edgeList{child: id, parents: g.Parents(id)})
	}
	return out
}

func labelFor(g *commitgraph.Graph, id string, opts Options) (string, string) {
	var parts []string
	c := caseNone
	if g.HasTag(id) {
		c |= caseTag
		parts = append(parts, g.Tags(id)...)
	}
	if g.HasBranch(id) {
		c |= caseBranch
		parts = append(parts, g.Branches(id)...)
	}
	if opts.ShowIDs {
		parts = append(parts, opts.format(id))
	}

	for i, p := range parts {
		parts[i] = escape(p)
	}
	return strings.Join(parts, `\n`), fmt.Sprintf("/pastel13/%d", c)
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// escape quotes a label fragment for a double-quoted DOT string.
func escape(s string) string { return labelEscaper.Replace(s) }
