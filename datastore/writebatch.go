package datastore

import (
	log "github.com/sirupsen/logrus"

	"veilfs/datamodel/blob"
	"veilfs/datamodel/tree"
	"veilfs/keyspace"
	"veilfs/oid"
)

// WriteBatch accumulates puts and commits them on Flush. An unflushed batch
// has no effect. A batch is transient: it must not outlive its flush, and any
// operation after Flush is a programming error.
type WriteBatch struct {
	batch   Batch
	flushed bool
}

func (w *WriteBatch) checkOpen() {
	if w.flushed {
		log.Panic("operation on flushed WriteBatch")
	}
}

// Put buffers framed bytes under an identifier.
func (w *WriteBatch) Put(ks *keyspace.KeySpace, id oid.ID, frames ...[]byte) error {
	w.checkOpen()
	checkWritable(ks)
	return w.batch.Put(ks, id, frames...)
}

// PutTree buffers a tree in the native format, keyed by its content hash
// identity.
func (w *WriteBatch) PutTree(t *tree.Tree) error {
	data, err := t.Serialize()
	if err != nil {
		return err
	}
	return w.Put(keyspace.Trees, t.ID(), data)
}

// PutBlob buffers a blob in the legacy framing: a "blob <size>\0" header
// frame followed by the content frame, keyed by id.
func (w *WriteBatch) PutBlob(id oid.ID, b *blob.Blob) error {
	return w.Put(keyspace.Blobs, id, b.LegacyFrames()...)
}

// PutBlobMetadata buffers a blob's derived summary, keyed by id.
func (w *WriteBatch) PutBlobMetadata(id oid.ID, md blob.Metadata) error {
	data, err := md.SerializeNative()
	if err != nil {
		return err
	}
	return w.Put(keyspace.BlobMeta, id, data)
}

// Flush commits all buffered operations.
func (w *WriteBatch) Flush() error {
	w.checkOpen()
	w.flushed = true
	return w.batch.Flush()
}
