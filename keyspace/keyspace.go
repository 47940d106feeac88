// Package keyspace enumerates the logical storage partitions of the local
// object store. The registry is fixed at startup; maintenance operations walk
// it in registration order so their effects are stable and testable.
package keyspace

import log "github.com/sirupsen/logrus"

// Family discriminates what kind of object a partition holds.
type Family uint8

const (
	FamilyTree Family = iota
	FamilyBlob
	FamilyBlobMeta
	FamilyCommit
	FamilyAux
)

func (f Family) String() string {
	switch f {
	case FamilyTree:
		return "tree"
	case FamilyBlob:
		return "blob"
	case FamilyBlobMeta:
		return "blobmeta"
	case FamilyCommit:
		return "commit"
	case FamilyAux:
		return "aux"
	default:
		return "unknown"
	}
}

// KeySpace describes one partition. Ephemeral partitions are caches that are
// safe to wipe; deprecated partitions are read-only legacy data, and writing
// to one is a programming error.
type KeySpace struct {
	Name       string
	Family     Family
	Ephemeral  bool
	Deprecated bool
}

// Prefix returns the engine key prefix for this partition.
func (ks *KeySpace) Prefix() []byte {
	return append([]byte(ks.Name), '/')
}

// Key returns the full engine key for an object identifier within this
// partition.
func (ks *KeySpace) Key(id []byte) []byte {
	return append(ks.Prefix(), id...)
}

var (
	Trees    = &KeySpace{Name: "trees", Family: FamilyTree}
	Blobs    = &KeySpace{Name: "blobs", Family: FamilyBlob}
	BlobMeta = &KeySpace{Name: "blobmeta", Family: FamilyBlobMeta}
	Commits  = &KeySpace{Name: "commits", Family: FamilyCommit}

	// AuxCache holds recomputable lookaside data.
	AuxCache = &KeySpace{Name: "auxcache", Family: FamilyAux, Ephemeral: true}

	// LegacyBlobs held blob bodies before metadata was split out. Kept
	// readable for old stores, never written.
	LegacyBlobs = &KeySpace{Name: "oldblobs", Family: FamilyBlob, Deprecated: true}
)

// All is the fixed registry, in registration order.
var All = []*KeySpace{Trees, Blobs, BlobMeta, Commits, AuxCache, LegacyBlobs}

// Maintainer is the backend surface the maintenance operations sequence.
// Clearing and compaction are engine primitives; this package only decides
// which partitions they apply to, and in what order.
type Maintainer interface {
	ClearKeySpace(ks *KeySpace) error
	CompactKeySpace(ks *KeySpace) error
}

// ClearDeprecatedKeySpaces clears then compacts every deprecated partition.
func ClearDeprecatedKeySpaces(reg []*KeySpace, m Maintainer) error {
	for _, ks := range reg {
		if !ks.Deprecated {
			continue
		}
		if err := m.ClearKeySpace(ks); err != nil {
			return err
		}
		if err := m.CompactKeySpace(ks); err != nil {
			return err
		}
	}
	return nil
}

// ClearCachesAndCompactAll clears every ephemeral partition and compacts every
// partition, ephemeral or not.
func ClearCachesAndCompactAll(reg []*KeySpace, m Maintainer) error {
	for _, ks := range reg {
		if ks.Ephemeral {
			if err := m.ClearKeySpace(ks); err != nil {
				return err
			}
		}
		if err := m.CompactKeySpace(ks); err != nil {
			return err
		}
	}
	return nil
}

// ClearCaches clears every ephemeral partition.
func ClearCaches(reg []*KeySpace, m Maintainer) error {
	for _, ks := range reg {
		if ks.Ephemeral {
			if err := m.ClearKeySpace(ks); err != nil {
				return err
			}
		}
	}
	return nil
}

// CompactStorage compacts every partition.
func CompactStorage(reg []*KeySpace, m Maintainer) error {
	for _, ks := range reg {
		if err := m.CompactKeySpace(ks); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	seen := make(map[string]bool, len(All))
	for _, ks := range All {
		if seen[ks.Name] {
			log.Fatalf("duplicate keyspace name %q", ks.Name)
		}
		seen[ks.Name] = true
	}
}
