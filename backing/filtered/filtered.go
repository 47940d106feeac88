// Package filtered implements the filtering layer over a backend. It serves
// trees with excluded entries removed and rewrites surviving entry identifiers
// so the filter context propagates down the tree, without copying or mutating
// any underlying object data.
package filtered

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"veilfs/backing"
	"veilfs/datamodel/blob"
	"veilfs/datamodel/tree"
	"veilfs/filter"
	"veilfs/future"
	"veilfs/oid"
)

// ErrMalformedRootID reports a root identifier without a profile separator.
var ErrMalformedRootID = errors.New("malformed root identifier")

// Store is a filtering view over a backend. It is stateless beyond its two
// collaborators and safe for concurrent use if they are.
type Store struct {
	backend backing.Backend
	filter  filter.Filter
}

func New(backend backing.Backend, f filter.Filter) *Store {
	return &Store{backend: backend, filter: f}
}

// SplitRootID splits a composite root identifier "<root>:<profile>" at the
// first colon. The root part must be non-empty; the profile may be empty and
// may itself contain colons.
func SplitRootID(rootID string) (root, profile string, err error) {
	i := strings.Index(rootID, ":")
	if i <= 0 {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedRootID, rootID)
	}
	return rootID[:i], rootID[i+1:], nil
}

// GetRootTree resolves a composite root identifier to the identifier of its
// filtered root tree. Backend failures pass through unchanged.
func (s *Store) GetRootTree(ctx context.Context, rootID string) *future.Future[oid.ID] {
	root, profile, err := SplitRootID(rootID)
	if err != nil {
		return future.Err[oid.ID](err)
	}

	log.Debugf("Resolving root %q under profile %q", root, profile)

	return future.Then(s.backend.GetRootTree(ctx, root), func(rt backing.RootTree) (oid.ID, error) {
		return oid.EncodeTree("", profile, rt.Hash)
	})
}

// GetTree fetches the tree named by a tree-shape identifier and applies the
// filter to its entries. The returned tree's identity is id itself, so equal
// filtered inputs stay equal by identifier.
func (s *Store) GetTree(ctx context.Context, id oid.ID) *future.Future[*tree.Tree] {
	ident, err := oid.Decode(id)
	if err != nil {
		return future.Err[*tree.Tree](err)
	}
	ti, ok := ident.(*oid.TreeIdentity)
	if !ok {
		return future.Err[*tree.Tree](&backing.NotFoundError{Kind: "tree", ID: id.String()})
	}

	return future.Then(s.backend.GetTree(ctx, ti.Hash), func(t *tree.Tree) (*tree.Tree, error) {
		return s.filterTree(id, ti, t)
	})
}

// filterTree drops excluded entries and re-encodes the survivors under the
// parent's filter context. Order and entry types are preserved.
func (s *Store) filterTree(id oid.ID, ti *oid.TreeIdentity, t *tree.Tree) (*tree.Tree, error) {
	entries := make([]tree.Entry, 0, t.Len())
	for _, e := range t.Entries() {
		child := childPath(ti.Path, e.Name)
		if s.filter.IsPathExcluded(child, ti.Profile) {
			continue
		}

		h, err := oid.HashFromBytes(e.ID)
		if err != nil {
			return nil, fmt.Errorf("entry %q of tree %s: %w", e.Name, ti.Hash.String(), err)
		}

		var childID oid.ID
		if e.Type == tree.EntryTree {
			childID, err = oid.EncodeTree(child, ti.Profile, h)
			if err != nil {
				return nil, err
			}
		} else {
			childID = oid.EncodeBlob(h)
		}
		entries = append(entries, tree.Entry{Name: e.Name, ID: childID, Type: e.Type})
	}
	return tree.NewWithID(id, entries)
}

func childPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// GetBlob fetches the blob named by a blob-shape identifier. Filtering never
// rewrites blob content, so this is a plain delegation.
func (s *Store) GetBlob(ctx context.Context, id oid.ID) *future.Future[*blob.Blob] {
	ident, err := oid.Decode(id)
	if err != nil {
		return future.Err[*blob.Blob](err)
	}
	bi, ok := ident.(*oid.BlobIdentity)
	if !ok {
		return future.Err[*blob.Blob](&backing.NotFoundError{Kind: "blob", ID: id.String()})
	}
	return s.backend.GetBlob(ctx, bi.Hash)
}

// CompareObjectsByID compares two encoded identifiers without fetching
// content. Equal underlying hashes name equal bytes regardless of shape, path
// or profile. Unequal blob hashes defer to the backend. Anything involving a
// tree with a different hash is Unknown: the filtered results could still
// coincide.
func (s *Store) CompareObjectsByID(a, b oid.ID) (backing.Comparison, error) {
	ia, err := oid.Decode(a)
	if err != nil {
		return backing.Unknown, err
	}
	ib, err := oid.Decode(b)
	if err != nil {
		return backing.Unknown, err
	}

	ha, treeA := identityHash(ia)
	hb, treeB := identityHash(ib)

	if ha == hb {
		return backing.Identical, nil
	}
	if !treeA && !treeB {
		return s.backend.CompareObjectsByID(ha, hb), nil
	}
	return backing.Unknown, nil
}

func identityHash(ident oid.Identity) (oid.Hash, bool) {
	switch v := ident.(type) {
	case *oid.TreeIdentity:
		return v.Hash, true
	case *oid.BlobIdentity:
		return v.Hash, false
	default:
		panic("unreachable identity shape")
	}
}
