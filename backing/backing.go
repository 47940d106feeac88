// Package backing defines the backend contract for object retrieval: root
// resolution, tree and blob fetches, and a conservative object comparison.
// Concrete backends live in the subpackages.
package backing

import (
	"context"
	"fmt"

	"veilfs/datamodel/blob"
	"veilfs/datamodel/tree"
	"veilfs/future"
	"veilfs/oid"
)

// Comparison is the verdict of comparing two object identifiers without
// fetching the objects they name.
type Comparison int

const (
	// Unknown means equivalence could not be decided cheaply. It is always a
	// safe answer.
	Unknown Comparison = iota
	// Identical means the identifiers are known to name equal content.
	Identical
	// Different means the identifiers are known to name unequal content.
	Different
)

func (c Comparison) String() string {
	switch c {
	case Identical:
		return "identical"
	case Different:
		return "different"
	default:
		return "unknown"
	}
}

// RootTree is a resolved root: the hash the root identifier resolved to and
// the tree stored under it.
type RootTree struct {
	Hash oid.Hash
	Tree *tree.Tree
}

// Backend retrieves objects by hash. Implementations must be safe for
// concurrent use; fetches return futures so callers can chain work onto
// whichever goroutine resolves them.
type Backend interface {
	// GetRootTree resolves a root identifier to its root tree.
	GetRootTree(ctx context.Context, rootID string) *future.Future[RootTree]

	// GetTree fetches the tree stored under h.
	GetTree(ctx context.Context, h oid.Hash) *future.Future[*tree.Tree]

	// GetBlob fetches the blob stored under h.
	GetBlob(ctx context.Context, h oid.Hash) *future.Future[*blob.Blob]

	// CompareObjectsByID compares two object hashes without fetching their
	// content. Unknown is always permitted.
	CompareObjectsByID(a, b oid.Hash) Comparison
}

// NotFoundError reports an object that the backend does not have. Kind names
// the object class ("commit", "tree", "blob").
type NotFoundError struct {
	Kind string
	ID   string
	// Commit, when set, names the root the lookup was made on behalf of.
	Commit string
}

func (e *NotFoundError) Error() string {
	if e.Commit != "" {
		return fmt.Sprintf("%s %s for commit %s not found", e.Kind, e.ID, e.Commit)
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}
