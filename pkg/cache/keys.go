package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer builds cache keys.
type Keyer interface {
	// SnapshotKey addresses a loaded history by repository fingerprint.
	SnapshotKey(fingerprint string, opts SnapshotKeyOpts) string

	// ArtifactKey addresses rendered output by the hash of the full graph.
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SnapshotKey implements [Keyer].
func (DefaultKeyer) SnapshotKey(fingerprint string, opts SnapshotKeyOpts) string {
	return fmt.Sprintf("snapshot:%s:%s", fingerprint, hashKey("opts", opts))
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", graphHash, opts)
}

// ScopedKeyer prefixes every key of an inner Keyer. The CLI scopes keys by
// repository path so two checkouts with identical refs never share entries.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or a DefaultKeyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) SnapshotKey(fingerprint string, opts SnapshotKeyOpts) string {
	return k.prefix + k.inner.SnapshotKey(fingerprint, opts)
}

func (k *ScopedKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(graphHash, opts)
}

// hashKey returns prefix:sha256(json(parts)).
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data. Snapshot hashes address rendered
// artifacts, so equal histories share images regardless of where they came from.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
