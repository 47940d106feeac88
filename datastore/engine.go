package datastore

import (
	"bytes"

	"veilfs/future"
	"veilfs/keyspace"
)

// Engine is the keyspace-partitioned key/value surface a storage backend must
// provide. Implementations live under datastore/<engine>; the store logic in
// this package depends only on this interface.
type Engine interface {
	// Get reads raw bytes. Absent keys yield Missing, not an error.
	Get(ks *keyspace.KeySpace, key []byte) StoreResult

	// Has checks existence without materializing the payload.
	Has(ks *keyspace.KeySpace, key []byte) (bool, error)

	// Put writes the concatenation of frames under key. Frames let callers
	// pass framed payloads (header + content) without copying.
	Put(ks *keyspace.KeySpace, key []byte, frames ...[]byte) error

	// NewBatch opens a buffered write batch. sizeHint is an allocation hint
	// in bytes, not a correctness requirement.
	NewBatch(sizeHint int) Batch

	keyspace.Maintainer

	Close() error
}

// Batch buffers puts until Flush. A batch that is never flushed has no
// effect.
type Batch interface {
	Put(ks *keyspace.KeySpace, key []byte, frames ...[]byte) error
	Flush() error
}

// BatchGetter is implemented by engines with a native multi-get path.
// LocalStore falls back to a sequential fan-out otherwise.
type BatchGetter interface {
	GetBatch(ks *keyspace.KeySpace, keys [][]byte) []StoreResult
}

// AsyncGetter is implemented by engines with a native asynchronous fetch
// path. LocalStore otherwise computes the result synchronously and wraps it.
type AsyncGetter interface {
	AsyncGet(ks *keyspace.KeySpace, key []byte) *future.Future[StoreResult]
}

// Enumerator is implemented by engines that can walk a partition. Used by
// diagnostics and integrity scans, not by the object fetch paths.
type Enumerator interface {
	EntryCount(ks *keyspace.KeySpace) (int, error)
	ListKeys(ks *keyspace.KeySpace) ([][]byte, error)
}

// Manager is implemented by engines that want periodic background management
// (scheduled compaction and the like).
type Manager interface {
	PeriodicManagementTask(cfg ManagementConfig) error
}

// ManagementConfig tunes the periodic management hook.
type ManagementConfig struct {
	// CompactOnRun triggers a full compaction pass on each invocation.
	CompactOnRun bool
}

// JoinFrames concatenates frames into one value. The result never aliases the
// caller's buffers, so engines may retain it after Put returns.
func JoinFrames(frames [][]byte) []byte {
	if len(frames) == 1 {
		return bytes.Clone(frames[0])
	}
	n := 0
	for _, f := range frames {
		n += len(f)
	}
	out := make([]byte, 0, n)
	for _, f := range frames {
		out = append(out, f...)
	}
	return out
}
