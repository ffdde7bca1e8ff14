package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/matzehuels/bigpicture/pkg/commitgraph"
)

// FormatVersion is the snapshot file version written by this package.
const FormatVersion = 1

type snapshotFile struct {
	Version  int                 `json:"version"`
	Parents  map[string][]string `json:"parents"`
	Branches map[string][]string `json:"branches,omitempty"`
	Tags     map[string][]string `json:"tags,omitempty"`
	Children map[string][]string `json:"children,omitempty"`
}

// MarshalSnapshot encodes s as indented JSON. Label lists are sorted; parent
// lists keep their order.
func MarshalSnapshot(s commitgraph.Snapshot) ([]byte, error) {
	out := snapshotFile{
		Version:  FormatVersion,
		Parents:  s.Parents,
		Branches: sortedLists(s.Branches),
		Tags:     sortedLists(s.Tags),
		Children: sortedLists(s.Children),
	}
	if out.Parents == nil {
		out.Parents = map[string][]string{}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteJSON encodes a snapshot as JSON and writes it to w.
// The output can be re-imported with [ReadJSON].
func WriteJSON(s commitgraph.Snapshot, w io.Writer) error {
	data, err := MarshalSnapshot(s)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// ExportJSON writes a snapshot to a JSON file at path.
func ExportJSON(s commitgraph.Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(s, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func sortedLists(m map[string][]string) map[string][]string {
	if m == nil {
		return nil
	}
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = slices.Sorted(slices.Values(v))
	}
	return out
}
