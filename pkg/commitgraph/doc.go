// Package commitgraph models a git commit history as a bidirectional DAG and
// reduces it to the commits worth looking at.
//
// # Overview
//
// A [Graph] is built from a parent map (commit → ordered parents) and two label
// maps (commit → branch names, commit → tag names). Construction derives the
// inverse child map and verifies that both directions describe the same DAG.
// A mismatch means the history source handed over contradictory data; it is
// reported as a [*ConsistencyError] and the graph is not usable.
//
// # Filtering
//
// [Graph.Filter] keeps only "interesting" commits: those carrying a branch or
// tag, roots, merges, bifurcations and any explicitly requested ids. Each
// interesting commit is connected to its nearest interesting ancestors, so long
// runs of ordinary commits collapse into a single edge:
//
//	A ← B ← C ← D        (only A and D tagged)
//	A ← D                (after Filter)
//
// Filtering never mutates the receiver. The result owns fresh parent and child
// maps and deep copies of the branch and tag labels.
//
// # Identifiers
//
// Commit ids are opaque strings (40 hex characters for SHA-1 repositories).
// [MinimalDigits] computes the shortest unambiguous prefix length, never going
// below [MinDigits].
//
// # Concurrency
//
// A Graph is read-only after construction except for [Graph.Elide]. Concurrent
// Filter calls on the same source graph are safe as long as nobody calls Elide
// at the same time.
package commitgraph
