package localbs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veilfs/backing"
	"veilfs/backing/filtered"
	"veilfs/datamodel/blob"
	"veilfs/datamodel/tree"
	"veilfs/datastore"
	"veilfs/datastore/mem"
	"veilfs/filter"
	"veilfs/keyspace"
	"veilfs/oid"
)

func newBackend() *Store {
	return New(datastore.New(mem.New()))
}

func TestRootTreeRoundTrip(t *testing.T) {
	s := newBackend()

	tr, err := tree.New([]tree.Entry{
		{Name: "file", ID: oid.Sum([]byte("file")).ID(), Type: tree.EntryRegular},
	})
	require.NoError(t, err)
	require.NoError(t, s.PutTree(tr))

	treeHash, err := oid.HashFromBytes(tr.ID())
	require.NoError(t, err)
	require.NoError(t, s.PutCommit("main", treeHash))

	root, err := s.GetRootTree(context.Background(), "main").Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, treeHash, root.Hash)
	assert.Equal(t, tr.Entries(), root.Tree.Entries())
}

func TestMissingCommit(t *testing.T) {
	s := newBackend()

	_, err := s.GetRootTree(context.Background(), "nope").Get(context.Background())
	var nf *backing.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "commit", nf.Kind)
}

func TestCommitWithMissingTree(t *testing.T) {
	s := newBackend()

	h := oid.Sum([]byte("dangling"))
	require.NoError(t, s.PutCommit("main", h))

	_, err := s.GetRootTree(context.Background(), "main").Get(context.Background())
	var nf *backing.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "tree", nf.Kind)
	assert.Equal(t, "main", nf.Commit)
}

func TestCorruptCommitRecordNamesTheRoot(t *testing.T) {
	s := newBackend()

	require.NoError(t, s.store.Put(keyspace.Commits, oid.ID("main"), []byte("not cbor")))

	_, err := s.GetRootTree(context.Background(), "main").Get(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit record main")
}

func TestBlobRoundTrip(t *testing.T) {
	s := newBackend()

	content := []byte("foobar")
	h := oid.Sum(content)
	require.NoError(t, s.PutBlob(h, blob.New(content)))

	got, err := s.GetBlob(context.Background(), h).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, content, got.Bytes())

	_, err = s.GetBlob(context.Background(), oid.Sum([]byte("other"))).Get(context.Background())
	var nf *backing.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "blob", nf.Kind)
}

func TestCompareObjectsByID(t *testing.T) {
	s := newBackend()

	a := oid.Sum([]byte("a"))
	b := oid.Sum([]byte("b"))
	assert.Equal(t, backing.Identical, s.CompareObjectsByID(a, a))
	assert.Equal(t, backing.Different, s.CompareObjectsByID(a, b))
}

// End-to-end: filtered view over a locally stored commit.
func TestFilteredViewOverLocalStore(t *testing.T) {
	s := newBackend()

	keep := []byte("keep me")
	keepHash := oid.Sum(keep)
	require.NoError(t, s.PutBlob(keepHash, blob.New(keep)))

	hidden := []byte("hide me")
	hiddenHash := oid.Sum(hidden)
	require.NoError(t, s.PutBlob(hiddenHash, blob.New(hidden)))

	tr, err := tree.New([]tree.Entry{
		{Name: "hidden.txt", ID: hiddenHash.ID(), Type: tree.EntryRegular},
		{Name: "keep.txt", ID: keepHash.ID(), Type: tree.EntryRegular},
	})
	require.NoError(t, err)
	require.NoError(t, s.PutTree(tr))

	treeHash, err := oid.HashFromBytes(tr.ID())
	require.NoError(t, err)
	require.NoError(t, s.PutCommit("main", treeHash))

	profiles := filter.NewProfileSet()
	profiles.Register("no-hidden", "hidden.*")
	view := filtered.New(s, profiles)

	ctx := context.Background()
	rootID, err := view.GetRootTree(ctx, "main:no-hidden").Get(ctx)
	require.NoError(t, err)

	root, err := view.GetTree(ctx, rootID).Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, root.Len())
	assert.Equal(t, "keep.txt", root.Entries()[0].Name)

	got, err := view.GetBlob(ctx, root.Entries()[0].ID).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, keep, got.Bytes())
}
