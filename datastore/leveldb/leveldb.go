// Package leveldb implements the datastore.Engine interface on goleveldb.
// Keyspaces map to key prefixes within a single database; clearing iterates a
// prefix into a delete batch and compaction runs over the prefix range.
package leveldb

import (
	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	log "github.com/sirupsen/logrus"

	"veilfs/datastore"
	"veilfs/keyspace"
)

var _ datastore.Engine = (*Engine)(nil)
var _ datastore.Manager = (*Engine)(nil)
var _ datastore.Enumerator = (*Engine)(nil)

type Engine struct {
	path string
	db   *leveldb.DB
}

// Open opens or creates the database, recovering from a corrupted manifest if
// needed.
func Open(path string) (*Engine, error) {
	opts := &opt.Options{
		// Blob payloads dominate and are already framed; leave compression
		// to the deployment.
		Compression: opt.NoCompression,
	}

	db, err := leveldb.OpenFile(path, opts)
	if ldberrors.IsCorrupted(err) {
		db, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, err
	}

	log.Infof("Opened LevelDB store at %s", path)

	return &Engine{path: path, db: db}, nil
}

func (e *Engine) Get(ks *keyspace.KeySpace, key []byte) datastore.StoreResult {
	data, err := e.db.Get(ks.Key(key), nil)
	if err == ldberrors.ErrNotFound {
		return datastore.Missing()
	}
	if err != nil {
		return datastore.Failed(err)
	}
	return datastore.Found(data)
}

func (e *Engine) Has(ks *keyspace.KeySpace, key []byte) (bool, error) {
	return e.db.Has(ks.Key(key), nil)
}

func (e *Engine) Put(ks *keyspace.KeySpace, key []byte, frames ...[]byte) error {
	return e.db.Put(ks.Key(key), datastore.JoinFrames(frames), nil)
}

func (e *Engine) NewBatch(sizeHint int) datastore.Batch {
	return &batch{db: e.db, b: leveldb.MakeBatch(sizeHint)}
}

type batch struct {
	db *leveldb.DB
	b  *leveldb.Batch
}

func (b *batch) Put(ks *keyspace.KeySpace, key []byte, frames ...[]byte) error {
	b.b.Put(ks.Key(key), datastore.JoinFrames(frames))
	return nil
}

func (b *batch) Flush() error {
	return b.db.Write(b.b, nil)
}

// ClearKeySpace deletes every key in the partition through a delete batch.
func (e *Engine) ClearKeySpace(ks *keyspace.KeySpace) error {
	iter := e.db.NewIterator(util.BytesPrefix(ks.Prefix()), nil)
	defer iter.Release()

	delBatch := new(leveldb.Batch)
	for iter.Next() {
		delBatch.Delete(append([]byte(nil), iter.Key()...))
	}
	if err := iter.Error(); err != nil {
		return err
	}

	log.Debugf("Clearing keyspace %s (%d keys)", ks.Name, delBatch.Len())

	return e.db.Write(delBatch, nil)
}

// CompactKeySpace compacts the partition's key range.
func (e *Engine) CompactKeySpace(ks *keyspace.KeySpace) error {
	r := util.BytesPrefix(ks.Prefix())
	return e.db.CompactRange(*r)
}

// EntryCount counts the keys in a partition by iteration. Intended for
// diagnostics, not hot paths.
func (e *Engine) EntryCount(ks *keyspace.KeySpace) (int, error) {
	iter := e.db.NewIterator(util.BytesPrefix(ks.Prefix()), nil)
	defer iter.Release()

	n := 0
	for iter.Next() {
		n++
	}
	return n, iter.Error()
}

// ListKeys returns every key in a partition, stripped of the partition
// prefix.
func (e *Engine) ListKeys(ks *keyspace.KeySpace) ([][]byte, error) {
	prefix := ks.Prefix()
	iter := e.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()

	var keys [][]byte
	for iter.Next() {
		keys = append(keys, append([]byte(nil), iter.Key()[len(prefix):]...))
	}
	return keys, iter.Error()
}

// PeriodicManagementTask optionally compacts the whole database on each run.
func (e *Engine) PeriodicManagementTask(cfg datastore.ManagementConfig) error {
	if !cfg.CompactOnRun {
		return nil
	}
	log.Debugf("Periodic compaction of %s", e.path)
	return e.db.CompactRange(util.Range{})
}

func (e *Engine) Close() error {
	return e.db.Close()
}
