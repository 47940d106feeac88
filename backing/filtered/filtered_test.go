package filtered

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veilfs/backing"
	"veilfs/backing/fake"
	"veilfs/datamodel/blob"
	"veilfs/datamodel/tree"
	"veilfs/filter"
	"veilfs/oid"
)

// substringFilter excludes any path containing the profile identifier as a
// substring. Convenient for tests: the profile doubles as the exclusion rule.
var substringFilter = filter.Func(func(path, profileID string) bool {
	return profileID != "" && strings.Contains(path, profileID)
})

func newStore() (*Store, *fake.Backend) {
	b := fake.New()
	return New(b, substringFilter), b
}

func mustTree(t *testing.T, entries []tree.Entry) *tree.Tree {
	t.Helper()
	tr, err := tree.New(entries)
	require.NoError(t, err)
	return tr
}

func TestGetRootTreeEncodesProfile(t *testing.T) {
	s, b := newStore()

	treeHash := oid.Sum([]byte("root tree"))
	b.PutTree(treeHash, mustTree(t, nil))
	b.PutCommit("commit1", treeHash)
	b.SetReady()

	id, err := s.GetRootTree(context.Background(), "commit1:prof").Get(context.Background())
	require.NoError(t, err)

	ti, err := oid.DecodeTree(id)
	require.NoError(t, err)
	assert.Equal(t, "", ti.Path)
	assert.Equal(t, "prof", ti.Profile)
	assert.Equal(t, treeHash, ti.Hash)
}

func TestGetRootTreeProfileMayContainColons(t *testing.T) {
	s, b := newStore()

	treeHash := oid.Sum([]byte("root tree"))
	b.PutTree(treeHash, mustTree(t, nil))
	b.PutCommit("commit1", treeHash)
	b.SetReady()

	id, err := s.GetRootTree(context.Background(), "commit1:a:b").Get(context.Background())
	require.NoError(t, err)

	ti, err := oid.DecodeTree(id)
	require.NoError(t, err)
	assert.Equal(t, "a:b", ti.Profile)
}

func TestGetRootTreeMalformed(t *testing.T) {
	s, _ := newStore()

	for _, rootID := range []string{"no-separator", ":empty-root", ""} {
		f := s.GetRootTree(context.Background(), rootID)
		require.True(t, f.Ready())
		_, err := f.Get(context.Background())
		assert.ErrorIs(t, err, ErrMalformedRootID, "rootID %q", rootID)
	}
}

func TestGetRootTreeErrorsPassThrough(t *testing.T) {
	s, b := newStore()

	f := s.GetRootTree(context.Background(), "commit1:prof")
	assert.False(t, f.Ready())

	boom := errors.New("cosmic rays")
	b.TriggerCommitError("commit1", boom)

	_, err := f.Get(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestGetRootTreeMissingCommitPassesThrough(t *testing.T) {
	s, b := newStore()
	b.SetReady()

	_, err := s.GetRootTree(context.Background(), "gone:prof").Get(context.Background())
	var nf *backing.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "commit", nf.Kind)
	assert.Equal(t, "gone", nf.ID)
}

func TestGetTreeFiltersAndReencodes(t *testing.T) {
	s, b := newStore()

	readmeHash := oid.Sum([]byte("readme"))
	toolHash := oid.Sum([]byte("tool"))
	srcHash := oid.Sum([]byte("src tree"))
	secretHash := oid.Sum([]byte("secret"))
	secretDirHash := oid.Sum([]byte("secret dir"))

	underlying := mustTree(t, []tree.Entry{
		{Name: "README", ID: readmeHash.ID(), Type: tree.EntryRegular},
		{Name: "secret.txt", ID: secretHash.ID(), Type: tree.EntryRegular},
		{Name: "secrets", ID: secretDirHash.ID(), Type: tree.EntryTree},
		{Name: "src", ID: srcHash.ID(), Type: tree.EntryTree},
		{Name: "tool", ID: toolHash.ID(), Type: tree.EntryExecutable},
	})

	rootHash := oid.Sum([]byte("root"))
	b.PutTree(rootHash, underlying)
	b.SetReady()

	id, err := oid.EncodeTree("", "secret", rootHash)
	require.NoError(t, err)

	got, err := s.GetTree(context.Background(), id).Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)

	// The filtered tree keeps the requested identity.
	assert.True(t, got.ID().Equal(id))

	// Excluded entries are gone; order and types of the rest are intact.
	entries := got.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "README", entries[0].Name)
	assert.Equal(t, tree.EntryRegular, entries[0].Type)
	assert.Equal(t, "src", entries[1].Name)
	assert.Equal(t, tree.EntryTree, entries[1].Type)
	assert.Equal(t, "tool", entries[2].Name)
	assert.Equal(t, tree.EntryExecutable, entries[2].Type)

	// Non-tree children are re-encoded as blob shapes on the raw hash.
	bi, err := oid.DecodeBlob(entries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, readmeHash, bi.Hash)

	// Tree children carry the child path and the parent's profile.
	ti, err := oid.DecodeTree(entries[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "src", ti.Path)
	assert.Equal(t, "secret", ti.Profile)
	assert.Equal(t, srcHash, ti.Hash)
}

func TestGetTreeNestedPaths(t *testing.T) {
	s, b := newStore()

	subHash := oid.Sum([]byte("sub"))
	hideHash := oid.Sum([]byte("hide"))
	underlying := mustTree(t, []tree.Entry{
		{Name: "hideme", ID: hideHash.ID(), Type: tree.EntryRegular},
		{Name: "sub", ID: subHash.ID(), Type: tree.EntryTree},
	})
	srcHash := oid.Sum([]byte("src tree"))
	b.PutTree(srcHash, underlying)
	b.SetReady()

	id, err := oid.EncodeTree("src", "hideme", srcHash)
	require.NoError(t, err)

	got, err := s.GetTree(context.Background(), id).Get(context.Background())
	require.NoError(t, err)

	// "src/hideme" matches the profile; "src/sub" does not.
	entries := got.Entries()
	require.Len(t, entries, 1)
	ti, err := oid.DecodeTree(entries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "src/sub", ti.Path)
}

// Filtering is a view: the same underlying tree yields different entry sets
// under different profiles, and the stored tree itself is never mutated.
func TestFilteringIsPureView(t *testing.T) {
	s, b := newStore()

	underlying := mustTree(t, []tree.Entry{
		{Name: "beta.txt", ID: oid.Sum([]byte("beta")).ID(), Type: tree.EntryRegular},
		{Name: "keep.txt", ID: oid.Sum([]byte("keep")).ID(), Type: tree.EntryRegular},
	})
	rootHash := oid.Sum([]byte("shared root"))
	b.PutTree(rootHash, underlying)
	b.SetReady()

	ctx := context.Background()

	unfiltered, err := oid.EncodeTree("", "", rootHash)
	require.NoError(t, err)
	filtering, err := oid.EncodeTree("", "beta", rootHash)
	require.NoError(t, err)

	full, err := s.GetTree(ctx, unfiltered).Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, full.Len())

	partial, err := s.GetTree(ctx, filtering).Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, partial.Len())
	assert.Equal(t, "keep.txt", partial.Entries()[0].Name)

	// The backend's stored tree is untouched by either fetch.
	stored, err := b.GetTree(ctx, rootHash).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, underlying.Entries(), stored.Entries())

	// And the wide view is unaffected by the narrow one having run.
	fullAgain, err := s.GetTree(ctx, unfiltered).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, full.Entries(), fullAgain.Entries())
}

func TestGetTreeBlobShapeFails(t *testing.T) {
	s, _ := newStore()

	id := oid.EncodeBlob(oid.Sum([]byte("x")))
	_, err := s.GetTree(context.Background(), id).Get(context.Background())

	var nf *backing.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "tree", nf.Kind)
}

func TestGetTreeMalformedID(t *testing.T) {
	s, _ := newStore()

	_, err := s.GetTree(context.Background(), oid.ID("garbage")).Get(context.Background())
	assert.ErrorIs(t, err, oid.ErrMalformedID)
}

func TestGetTreeResolvesOnTrigger(t *testing.T) {
	s, b := newStore()

	rootHash := oid.Sum([]byte("root"))
	b.PutTree(rootHash, mustTree(t, []tree.Entry{
		{Name: "keep", ID: oid.Sum([]byte("keep")).ID(), Type: tree.EntryRegular},
	}))

	id, err := oid.EncodeTree("", "prof", rootHash)
	require.NoError(t, err)

	f := s.GetTree(context.Background(), id)
	assert.False(t, f.Ready())

	b.TriggerTree(rootHash)
	require.True(t, f.Ready())

	got, err := f.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
}

func TestGetTreeErrorsPassThrough(t *testing.T) {
	s, b := newStore()

	rootHash := oid.Sum([]byte("root"))
	id, err := oid.EncodeTree("", "prof", rootHash)
	require.NoError(t, err)

	f := s.GetTree(context.Background(), id)
	boom := errors.New("cosmic rays")
	b.TriggerTreeError(rootHash, boom)

	_, err = f.Get(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestGetBlobDelegates(t *testing.T) {
	s, b := newStore()

	content := []byte("foobar")
	h := oid.Sum(content)
	b.PutBlob(h, blob.New(content))
	b.SetReady()

	got, err := s.GetBlob(context.Background(), oid.EncodeBlob(h)).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, content, got.Bytes())
}

func TestGetBlobTreeShapeFails(t *testing.T) {
	s, _ := newStore()

	id, err := oid.EncodeTree("a/b", "prof", oid.Sum([]byte("x")))
	require.NoError(t, err)

	_, err = s.GetBlob(context.Background(), id).Get(context.Background())
	var nf *backing.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "blob", nf.Kind)
}

func TestGetBlobErrorsPassThrough(t *testing.T) {
	s, b := newStore()

	h := oid.Sum([]byte("blob"))
	f := s.GetBlob(context.Background(), oid.EncodeBlob(h))

	boom := errors.New("cosmic rays")
	b.TriggerBlobError(h, boom)

	_, err := f.Get(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestCompareObjectsByID(t *testing.T) {
	s, _ := newStore()

	h1 := oid.Sum([]byte("one"))
	h2 := oid.Sum([]byte("two"))

	treeID := func(path, profile string, h oid.Hash) oid.ID {
		id, err := oid.EncodeTree(path, profile, h)
		require.NoError(t, err)
		return id
	}

	// Equal underlying hashes are identical regardless of shape, path or
	// profile.
	assert.Equal(t, backing.Identical, comparisonOf(t, s, treeID("a", "p1", h1), treeID("b", "p2", h1)))
	assert.Equal(t, backing.Identical, comparisonOf(t, s, oid.EncodeBlob(h1), treeID("a", "p1", h1)))
	assert.Equal(t, backing.Identical, comparisonOf(t, s, oid.EncodeBlob(h1), oid.EncodeBlob(h1)))

	// Blob shapes with different hashes defer to the backend, which knows
	// distinct hashes mean distinct content.
	assert.Equal(t, backing.Different, comparisonOf(t, s, oid.EncodeBlob(h1), oid.EncodeBlob(h2)))

	// Trees with different hashes may still filter to the same result.
	assert.Equal(t, backing.Unknown, comparisonOf(t, s, treeID("a", "p", h1), treeID("a", "p", h2)))
	assert.Equal(t, backing.Unknown, comparisonOf(t, s, treeID("a", "p", h1), oid.EncodeBlob(h2)))
}

func TestCompareObjectsByIDMalformed(t *testing.T) {
	s, _ := newStore()

	_, err := s.CompareObjectsByID(oid.ID("junk"), oid.EncodeBlob(oid.Sum([]byte("x"))))
	assert.ErrorIs(t, err, oid.ErrMalformedID)

	_, err = s.CompareObjectsByID(oid.EncodeBlob(oid.Sum([]byte("x"))), oid.ID("junk"))
	assert.ErrorIs(t, err, oid.ErrMalformedID)
}

func comparisonOf(t *testing.T, s *Store, a, b oid.ID) backing.Comparison {
	t.Helper()
	c, err := s.CompareObjectsByID(a, b)
	require.NoError(t, err)
	return c
}
