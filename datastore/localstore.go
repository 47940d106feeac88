// Package datastore implements the local object store: a keyspace-partitioned
// key/value store with typed tree/blob/metadata fetch paths and buffered write
// batches. Engine implementations live in the subpackages; this package holds
// the engine-independent contract.
package datastore

import (
	log "github.com/sirupsen/logrus"

	"veilfs/datamodel/blob"
	"veilfs/datamodel/tree"
	"veilfs/future"
	"veilfs/keyspace"
	"veilfs/oid"
)

// blobOverhead is the write batch sizing slack for PutBlob: room for the
// framing header and a couple of keys. Purely an allocation hint.
const blobOverhead = 64

// LocalStore wraps an Engine with the object-level store contract. It holds
// no mutable shared state beyond configuration and counters, and performs no
// request serialization of its own.
type LocalStore struct {
	eng     Engine
	metrics *Metrics
}

var _ keyspace.Maintainer = (*LocalStore)(nil)

func New(eng Engine) *LocalStore {
	return &LocalStore{eng: eng, metrics: newMetrics()}
}

// Metrics exposes the store counters for registration and tests.
func (s *LocalStore) Metrics() *Metrics {
	return s.metrics
}

// Engine returns the wrapped engine.
func (s *LocalStore) Engine() Engine {
	return s.eng
}

// Get reads raw bytes synchronously. Absent keys are an ordinary Missing
// result, never an error.
func (s *LocalStore) Get(ks *keyspace.KeySpace, id oid.ID) StoreResult {
	return s.eng.Get(ks, id)
}

// GetBatch reads many keys, returning one result per input id in input order,
// each succeeding or failing independently. Engines with a native multi-get
// are used when available; the fallback is a sequential fan-out.
func (s *LocalStore) GetBatch(ks *keyspace.KeySpace, ids []oid.ID) []StoreResult {
	if bg, ok := s.eng.(BatchGetter); ok {
		keys := make([][]byte, len(ids))
		for i, id := range ids {
			keys[i] = id
		}
		return bg.GetBatch(ks, keys)
	}

	results := make([]StoreResult, len(ids))
	for i, id := range ids {
		results[i] = s.eng.Get(ks, id)
	}
	return results
}

// AsyncGet reads raw bytes through a future. The default computes the result
// synchronously and wraps it; engines with a native asynchronous path may
// resolve later. Callers must not assume either from the type.
func (s *LocalStore) AsyncGet(ks *keyspace.KeySpace, id oid.ID) *future.Future[StoreResult] {
	if ag, ok := s.eng.(AsyncGetter); ok {
		return ag.AsyncGet(ks, id)
	}
	return future.Call(func() (StoreResult, error) {
		return s.eng.Get(ks, id), nil
	})
}

// parseResult funnels a raw result through a deserializer chain. A miss and a
// parse failure both count once against the kind's failure counter and both
// surface as absent: corrupted-but-present data is never served, and callers
// get a single failure path.
func parseResult[T any](s *LocalStore, kind string, id oid.ID, res StoreResult, parsers ...func([]byte) (T, error)) (T, error) {
	var zero T
	if err := res.Err(); err != nil {
		return zero, err
	}
	if !res.Valid() {
		s.metrics.FetchFailures(kind).Inc()
		return zero, nil
	}

	var lastErr error
	for _, parse := range parsers {
		v, err := parse(res.Bytes())
		if err == nil {
			return v, nil
		}
		lastErr = err
	}

	s.metrics.FetchFailures(kind).Inc()
	log.Errorf("Failed to parse %s %s: %v", kind, id.String(), lastErr)
	return zero, nil
}

// GetTree fetches and deserializes a tree, trying the native format first and
// the legacy format second. Missing or unparseable trees resolve to nil.
func (s *LocalStore) GetTree(id oid.ID) *future.Future[*tree.Tree] {
	return future.Then(s.AsyncGet(keyspace.Trees, id), func(res StoreResult) (*tree.Tree, error) {
		return parseResult(s, "tree", id, res,
			func(data []byte) (*tree.Tree, error) { return tree.Deserialize(id, data) },
			func(data []byte) (*tree.Tree, error) { return tree.DeserializeLegacy(id, data) },
		)
	})
}

// GetBlob fetches and deserializes a blob. Missing or unparseable blobs
// resolve to nil.
func (s *LocalStore) GetBlob(id oid.ID) *future.Future[*blob.Blob] {
	return future.Then(s.AsyncGet(keyspace.Blobs, id), func(res StoreResult) (*blob.Blob, error) {
		return parseResult(s, "blob", id, res, blob.ParseNative, blob.ParseLegacy)
	})
}

// GetBlobMetadata fetches and deserializes a blob metadata record. Missing or
// unparseable records resolve to nil.
func (s *LocalStore) GetBlobMetadata(id oid.ID) *future.Future[*blob.Metadata] {
	return future.Then(s.AsyncGet(keyspace.BlobMeta, id), func(res StoreResult) (*blob.Metadata, error) {
		return parseResult(s, "blobmeta", id, res, blob.ParseNativeMetadata, blob.ParseLegacyMetadata)
	})
}

// HasKey checks existence without materializing the payload.
func (s *LocalStore) HasKey(ks *keyspace.KeySpace, id oid.ID) (bool, error) {
	return s.eng.Has(ks, id)
}

// checkWritable panics on writes to a deprecated keyspace. That can never be
// a legitimate runtime condition, only a programming error.
func checkWritable(ks *keyspace.KeySpace) {
	if ks.Deprecated {
		log.Panicf("write to deprecated keyspace %q", ks.Name)
	}
}

// Put writes framed bytes under an identifier.
func (s *LocalStore) Put(ks *keyspace.KeySpace, id oid.ID, frames ...[]byte) error {
	checkWritable(ks)
	return s.eng.Put(ks, id, frames...)
}

// PutTree serializes a tree in the native format, keyed by the tree's own
// content hash identity.
func (s *LocalStore) PutTree(t *tree.Tree) error {
	data, err := t.Serialize()
	if err != nil {
		return err
	}
	return s.Put(keyspace.Trees, t.ID(), data)
}

// PutBlob writes a blob in the legacy framing, keyed by id. Delegates to a
// single-use write batch sized for the blob plus framing overhead.
func (s *LocalStore) PutBlob(id oid.ID, b *blob.Blob) error {
	batch := s.BeginWrite(int(b.Size()) + blobOverhead)
	if err := batch.PutBlob(id, b); err != nil {
		return err
	}
	return batch.Flush()
}

// PutBlobMetadata writes a blob's derived summary, keyed by id.
func (s *LocalStore) PutBlobMetadata(id oid.ID, md blob.Metadata) error {
	data, err := md.SerializeNative()
	if err != nil {
		return err
	}
	return s.Put(keyspace.BlobMeta, id, data)
}

// BeginWrite opens a buffered write batch. sizeHint is an engine allocation
// hint only.
func (s *LocalStore) BeginWrite(sizeHint int) *WriteBatch {
	return &WriteBatch{batch: s.eng.NewBatch(sizeHint)}
}

// ClearKeySpace forwards to the engine.
func (s *LocalStore) ClearKeySpace(ks *keyspace.KeySpace) error {
	return s.eng.ClearKeySpace(ks)
}

// CompactKeySpace forwards to the engine.
func (s *LocalStore) CompactKeySpace(ks *keyspace.KeySpace) error {
	return s.eng.CompactKeySpace(ks)
}

// ClearDeprecatedKeySpaces clears and compacts the deprecated partitions of
// the registry.
func (s *LocalStore) ClearDeprecatedKeySpaces(reg []*keyspace.KeySpace) error {
	return keyspace.ClearDeprecatedKeySpaces(reg, s.eng)
}

// ClearCachesAndCompactAll clears the ephemeral partitions and compacts all
// partitions of the registry.
func (s *LocalStore) ClearCachesAndCompactAll(reg []*keyspace.KeySpace) error {
	return keyspace.ClearCachesAndCompactAll(reg, s.eng)
}

// ClearCaches clears the ephemeral partitions of the registry.
func (s *LocalStore) ClearCaches(reg []*keyspace.KeySpace) error {
	return keyspace.ClearCaches(reg, s.eng)
}

// CompactStorage compacts every partition of the registry.
func (s *LocalStore) CompactStorage(reg []*keyspace.KeySpace) error {
	return keyspace.CompactStorage(reg, s.eng)
}

// PeriodicManagementTask is invoked by an external scheduler. The base
// behavior is a no-op; engines opt in through the Manager interface.
func (s *LocalStore) PeriodicManagementTask(cfg ManagementConfig) error {
	if m, ok := s.eng.(Manager); ok {
		return m.PeriodicManagementTask(cfg)
	}
	return nil
}

// Close closes the engine.
func (s *LocalStore) Close() error {
	return s.eng.Close()
}
