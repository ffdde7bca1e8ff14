// Package io provides JSON import and export for commit history snapshots.
//
// # Overview
//
// A snapshot file captures the raw history of a repository once so it can be
// rendered later without access to the repository:
//
//	bigpicture dump . > history.json
//	bigpicture render --from history.json
//
// # JSON Format
//
//	{
//	  "version": 1,
//	  "parents":  {"<id>": ["<parent id>", ...], ...},
//	  "branches": {"<id>": ["main", ...]},
//	  "tags":     {"<id>": ["v1.0", ...]},
//	  "children": {"<id>": ["<child id>", ...]}
//	}
//
// Only "parents" is required. Parent order is preserved. "children" is
// optional; when present it is verified against "parents" on load instead of
// being derived.
//
// Label lists are written sorted, so exporting the same history twice
// produces identical files.
//
// # Import
//
// Use [ImportJSON] to read a snapshot from a file path, or [ReadJSON] to read
// from any io.Reader. [ReadGraph] goes one step further and returns a
// verified [commitgraph.Graph].
//
// # Export
//
// Use [ExportJSON] to write a snapshot to a file, or [WriteJSON] to write to
// any io.Writer.
package io
