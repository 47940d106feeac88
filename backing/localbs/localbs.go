// Package localbs implements the backend contract on top of the local object
// store. Roots are commit records in the Commits keyspace; trees and blobs
// come from their object keyspaces. Concurrent fetches of the same object are
// deduplicated.
package localbs

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"veilfs/backing"
	"veilfs/datamodel/blob"
	"veilfs/datamodel/codec"
	"veilfs/datamodel/tree"
	"veilfs/datastore"
	"veilfs/future"
	"veilfs/keyspace"
	"veilfs/oid"
)

var _ backing.Backend = (*Store)(nil)

// Store serves backend fetches from a LocalStore.
type Store struct {
	store *datastore.LocalStore
	group singleflight.Group
}

func New(s *datastore.LocalStore) *Store {
	return &Store{store: s}
}

type commitRecord struct {
	TreeHash []byte `cbor:"1,keyasint"`
}

// PutCommit records a root identifier's root tree hash.
func (s *Store) PutCommit(rootID string, h oid.Hash) error {
	data, err := codec.Marshal(&commitRecord{TreeHash: h[:]})
	if err != nil {
		return err
	}
	return s.store.Put(keyspace.Commits, oid.ID(rootID), data)
}

// PutTree stores a tree.
func (s *Store) PutTree(t *tree.Tree) error {
	return s.store.PutTree(t)
}

// PutBlob stores a blob along with its derived metadata.
func (s *Store) PutBlob(h oid.Hash, b *blob.Blob) error {
	if err := s.store.PutBlob(h.ID(), b); err != nil {
		return err
	}
	return s.store.PutBlobMetadata(h.ID(), blob.MetadataFor(b))
}

func (s *Store) resolveCommit(rootID string) (oid.Hash, error) {
	res := s.store.Get(keyspace.Commits, oid.ID(rootID))
	if err := res.Err(); err != nil {
		return oid.Hash{}, err
	}
	if !res.Valid() {
		return oid.Hash{}, &backing.NotFoundError{Kind: "commit", ID: rootID}
	}

	var rec commitRecord
	if err := codec.Unmarshal(res.Bytes(), &rec); err != nil {
		return oid.Hash{}, fmt.Errorf("corrupt commit record %s: %w", rootID, err)
	}
	h, err := oid.HashFromBytes(rec.TreeHash)
	if err != nil {
		return oid.Hash{}, fmt.Errorf("corrupt commit record %s: %w", rootID, err)
	}
	return h, nil
}

func (s *Store) GetRootTree(ctx context.Context, rootID string) *future.Future[backing.RootTree] {
	return future.Go(func() (backing.RootTree, error) {
		h, err := s.resolveCommit(rootID)
		if err != nil {
			return backing.RootTree{}, err
		}

		t, err := s.fetchTree(ctx, h)
		if err != nil {
			return backing.RootTree{}, err
		}
		if t == nil {
			return backing.RootTree{}, &backing.NotFoundError{Kind: "tree", ID: h.String(), Commit: rootID}
		}
		return backing.RootTree{Hash: h, Tree: t}, nil
	})
}

func (s *Store) GetTree(ctx context.Context, h oid.Hash) *future.Future[*tree.Tree] {
	return future.Go(func() (*tree.Tree, error) {
		t, err := s.fetchTree(ctx, h)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, &backing.NotFoundError{Kind: "tree", ID: h.String()}
		}
		return t, nil
	})
}

func (s *Store) GetBlob(ctx context.Context, h oid.Hash) *future.Future[*blob.Blob] {
	return future.Go(func() (*blob.Blob, error) {
		v, err, _ := s.group.Do("blob/"+h.String(), func() (any, error) {
			return s.store.GetBlob(h.ID()).Get(ctx)
		})
		if err != nil {
			return nil, err
		}
		b, _ := v.(*blob.Blob)
		if b == nil {
			return nil, &backing.NotFoundError{Kind: "blob", ID: h.String()}
		}
		return b, nil
	})
}

func (s *Store) fetchTree(ctx context.Context, h oid.Hash) (*tree.Tree, error) {
	v, err, _ := s.group.Do("tree/"+h.String(), func() (any, error) {
		return s.store.GetTree(h.ID()).Get(ctx)
	})
	if err != nil {
		return nil, err
	}
	t, _ := v.(*tree.Tree)
	return t, nil
}

// CompareObjectsByID compares hashes bytewise. The store is content-addressed,
// so unequal hashes always name unequal content.
func (s *Store) CompareObjectsByID(a, b oid.Hash) backing.Comparison {
	if a == b {
		return backing.Identical
	}
	return backing.Different
}
