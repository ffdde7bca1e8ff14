package io

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/bigpicture/pkg/commitgraph"
)

// Errors returned when a snapshot file is structurally invalid.
var (
	ErrMissingParents     = errors.New("snapshot has no parents map")
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
	ErrEmptyID            = errors.New("empty commit id")
)

// UnmarshalSnapshot decodes a snapshot from JSON.
//
// A missing version is accepted as version 1. UnmarshalSnapshot returns an
// error if the JSON is malformed, the parents map is absent, or any commit id
// is empty. Consistency of a supplied children map is not checked here; see
// [ReadGraph].
func UnmarshalSnapshot(data []byte) (commitgraph.Snapshot, error) {
	var in snapshotFile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return commitgraph.Snapshot{}, fmt.Errorf("decode: %w", err)
	}
	if in.Version != 0 && in.Version != FormatVersion {
		return commitgraph.Snapshot{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, in.Version)
	}
	if in.Parents == nil {
		return commitgraph.Snapshot{}, ErrMissingParents
	}

	for _, m := range []map[string][]string{in.Parents, in.Branches, in.Tags, in.Children} {
		if err := checkIDs(m); err != nil {
			return commitgraph.Snapshot{}, err
		}
	}

	return commitgraph.Snapshot{
		Parents:  in.Parents,
		Branches: in.Branches,
		Tags:     in.Tags,
		Children: in.Children,
	}, nil
}

func checkIDs(m map[string][]string) error {
	for id := range m {
		if id == "" {
			return ErrEmptyID
		}
	}
	return nil
}

// ReadJSON decodes a snapshot from r. ReadJSON does not close r.
func ReadJSON(r io.Reader) (commitgraph.Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return commitgraph.Snapshot{}, fmt.Errorf("read: %w", err)
	}
	return UnmarshalSnapshot(data)
}

// ImportJSON reads a snapshot from the JSON file at path.
func ImportJSON(path string) (commitgraph.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return commitgraph.Snapshot{}, fmt.Errorf("read %s: %w", path, err)
	}
	s, err := UnmarshalSnapshot(data)
	if err != nil {
		return commitgraph.Snapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ReadGraph decodes a snapshot from r and builds a verified graph from it.
func ReadGraph(r io.Reader) (*commitgraph.Graph, error) {
	s, err := ReadJSON(r)
	if err != nil {
		return nil, err
	}
	return commitgraph.FromSnapshot(s)
}
