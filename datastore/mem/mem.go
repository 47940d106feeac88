// Package mem implements an in-memory datastore engine, used as a test
// double and for ephemeral stores.
package mem

import (
	"bytes"
	"sync"

	"veilfs/datastore"
	"veilfs/keyspace"
)

var _ datastore.Engine = (*Engine)(nil)
var _ datastore.Enumerator = (*Engine)(nil)

type Engine struct {
	mu     sync.Mutex
	spaces map[string]map[string][]byte
}

func New() *Engine {
	return &Engine{spaces: make(map[string]map[string][]byte)}
}

// Caller must hold the lock.
func (e *Engine) space(ks *keyspace.KeySpace) map[string][]byte {
	sp, ok := e.spaces[ks.Name]
	if !ok {
		sp = make(map[string][]byte)
		e.spaces[ks.Name] = sp
	}
	return sp
}

func (e *Engine) Get(ks *keyspace.KeySpace, key []byte) datastore.StoreResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	data, ok := e.spaces[ks.Name][string(key)]
	if !ok {
		return datastore.Missing()
	}
	return datastore.Found(bytes.Clone(data))
}

func (e *Engine) Has(ks *keyspace.KeySpace, key []byte) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, ok := e.spaces[ks.Name][string(key)]
	return ok, nil
}

func (e *Engine) Put(ks *keyspace.KeySpace, key []byte, frames ...[]byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.space(ks)[string(key)] = datastore.JoinFrames(frames)
	return nil
}

func (e *Engine) NewBatch(sizeHint int) datastore.Batch {
	return &batch{eng: e}
}

type pendingPut struct {
	ks   *keyspace.KeySpace
	key  string
	data []byte
}

type batch struct {
	eng     *Engine
	pending []pendingPut
}

func (b *batch) Put(ks *keyspace.KeySpace, key []byte, frames ...[]byte) error {
	b.pending = append(b.pending, pendingPut{ks: ks, key: string(key), data: datastore.JoinFrames(frames)})
	return nil
}

func (b *batch) Flush() error {
	b.eng.mu.Lock()
	defer b.eng.mu.Unlock()

	for _, p := range b.pending {
		b.eng.space(p.ks)[p.key] = p.data
	}
	b.pending = nil
	return nil
}

func (e *Engine) ClearKeySpace(ks *keyspace.KeySpace) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.spaces, ks.Name)
	return nil
}

// CompactKeySpace is a no-op: there is nothing to compact in a map.
func (e *Engine) CompactKeySpace(ks *keyspace.KeySpace) error {
	return nil
}

// Len reports the number of entries in a partition.
func (e *Engine) Len(ks *keyspace.KeySpace) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.spaces[ks.Name])
}

func (e *Engine) EntryCount(ks *keyspace.KeySpace) (int, error) {
	return e.Len(ks), nil
}

func (e *Engine) ListKeys(ks *keyspace.KeySpace) ([][]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	keys := make([][]byte, 0, len(e.spaces[ks.Name]))
	for k := range e.spaces[ks.Name] {
		keys = append(keys, []byte(k))
	}
	return keys, nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.spaces = nil
	return nil
}
