// Package fake implements an in-memory backend whose fetches stay pending
// until explicitly triggered. Tests use it to exercise asynchronous resolution
// order and error paths deterministically.
package fake

import (
	"context"
	"sync"

	"veilfs/backing"
	"veilfs/datamodel/blob"
	"veilfs/datamodel/tree"
	"veilfs/future"
	"veilfs/oid"
)

var _ backing.Backend = (*Backend)(nil)

type object[T any] struct {
	val     T
	has     bool
	waiters []*future.Promise[T]
}

// Backend stores commits, trees and blobs in maps. Until SetReady or a
// per-object trigger, every fetch returns a pending future.
type Backend struct {
	mu      sync.Mutex
	ready   bool
	commits map[string]*object[oid.Hash]
	trees   map[oid.Hash]*object[*tree.Tree]
	blobs   map[oid.Hash]*object[*blob.Blob]
}

func New() *Backend {
	return &Backend{
		commits: make(map[string]*object[oid.Hash]),
		trees:   make(map[oid.Hash]*object[*tree.Tree]),
		blobs:   make(map[oid.Hash]*object[*blob.Blob]),
	}
}

// PutCommit maps a root identifier to its root tree hash.
func (b *Backend) PutCommit(rootID string, h oid.Hash) {
	putObject(b, b.commits, rootID, h)
}

// PutTree stores a tree under h.
func (b *Backend) PutTree(h oid.Hash, t *tree.Tree) {
	putObject(b, b.trees, h, t)
}

// PutBlob stores a blob under h.
func (b *Backend) PutBlob(h oid.Hash, bl *blob.Blob) {
	putObject(b, b.blobs, h, bl)
}

// SetReady resolves every pending fetch and makes all later fetches resolve
// immediately.
func (b *Backend) SetReady() {
	b.mu.Lock()
	b.ready = true
	var fire []func()
	for id, o := range b.commits {
		fire = append(fire, resolveWaiters(o, func() error { return notFoundCommit(id) }))
	}
	for h, o := range b.trees {
		fire = append(fire, resolveWaiters(o, notFoundFn("tree", h)))
	}
	for h, o := range b.blobs {
		fire = append(fire, resolveWaiters(o, notFoundFn("blob", h)))
	}
	b.mu.Unlock()

	for _, f := range fire {
		f()
	}
}

// TriggerCommit resolves the pending fetches of one commit.
func (b *Backend) TriggerCommit(rootID string) {
	triggerObject(b, b.commits, rootID, func() error { return notFoundCommit(rootID) })
}

// TriggerCommitError fails the pending fetches of one commit.
func (b *Backend) TriggerCommitError(rootID string, err error) {
	triggerObjectError(b, b.commits, rootID, err)
}

// TriggerTree resolves the pending fetches of one tree.
func (b *Backend) TriggerTree(h oid.Hash) {
	triggerObject(b, b.trees, h, notFoundFn("tree", h))
}

// TriggerTreeError fails the pending fetches of one tree.
func (b *Backend) TriggerTreeError(h oid.Hash, err error) {
	triggerObjectError(b, b.trees, h, err)
}

// TriggerBlob resolves the pending fetches of one blob.
func (b *Backend) TriggerBlob(h oid.Hash) {
	triggerObject(b, b.blobs, h, notFoundFn("blob", h))
}

// TriggerBlobError fails the pending fetches of one blob.
func (b *Backend) TriggerBlobError(h oid.Hash, err error) {
	triggerObjectError(b, b.blobs, h, err)
}

func (b *Backend) GetRootTree(ctx context.Context, rootID string) *future.Future[backing.RootTree] {
	cf := getObject(b, b.commits, rootID, func() error { return notFoundCommit(rootID) })
	return future.ThenFuture(cf, func(h oid.Hash) *future.Future[backing.RootTree] {
		tf := getObject(b, b.trees, h, func() error {
			return &backing.NotFoundError{Kind: "tree", ID: h.String(), Commit: rootID}
		})
		return future.Then(tf, func(t *tree.Tree) (backing.RootTree, error) {
			return backing.RootTree{Hash: h, Tree: t}, nil
		})
	})
}

func (b *Backend) GetTree(ctx context.Context, h oid.Hash) *future.Future[*tree.Tree] {
	return getObject(b, b.trees, h, notFoundFn("tree", h))
}

func (b *Backend) GetBlob(ctx context.Context, h oid.Hash) *future.Future[*blob.Blob] {
	return getObject(b, b.blobs, h, notFoundFn("blob", h))
}

// CompareObjectsByID compares hashes bytewise: the fake never stores distinct
// content under equal hashes.
func (b *Backend) CompareObjectsByID(a, c oid.Hash) backing.Comparison {
	if a == c {
		return backing.Identical
	}
	return backing.Different
}

func notFoundCommit(rootID string) error {
	return &backing.NotFoundError{Kind: "commit", ID: rootID}
}

func notFoundFn(kind string, h oid.Hash) func() error {
	return func() error {
		return &backing.NotFoundError{Kind: kind, ID: h.String()}
	}
}

func putObject[K comparable, T any](b *Backend, m map[K]*object[T], key K, v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	o := m[key]
	if o == nil {
		o = &object[T]{}
		m[key] = o
	}
	o.val = v
	o.has = true
}

func getObject[K comparable, T any](b *Backend, m map[K]*object[T], key K, notFound func() error) *future.Future[T] {
	b.mu.Lock()
	o := m[key]
	if o == nil {
		o = &object[T]{}
		m[key] = o
	}
	if b.ready {
		val, has := o.val, o.has
		b.mu.Unlock()
		if !has {
			return future.Err[T](notFound())
		}
		return future.Of(val)
	}
	p := future.NewPromise[T]()
	o.waiters = append(o.waiters, p)
	b.mu.Unlock()
	return p.Future()
}

// resolveWaiters detaches an object's waiters and returns a closure that
// completes them. Called with the lock held; the closure must run without it.
func resolveWaiters[T any](o *object[T], notFound func() error) func() {
	waiters := o.waiters
	o.waiters = nil
	val, has := o.val, o.has
	return func() {
		for _, p := range waiters {
			if has {
				p.Resolve(val)
			} else {
				p.Reject(notFound())
			}
		}
	}
}

func triggerObject[K comparable, T any](b *Backend, m map[K]*object[T], key K, notFound func() error) {
	b.mu.Lock()
	o := m[key]
	if o == nil {
		b.mu.Unlock()
		return
	}
	fire := resolveWaiters(o, notFound)
	b.mu.Unlock()
	fire()
}

func triggerObjectError[K comparable, T any](b *Backend, m map[K]*object[T], key K, err error) {
	b.mu.Lock()
	o := m[key]
	if o == nil {
		b.mu.Unlock()
		return
	}
	waiters := o.waiters
	o.waiters = nil
	b.mu.Unlock()

	for _, p := range waiters {
		p.Reject(err)
	}
}
