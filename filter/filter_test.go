package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuncAdapter(t *testing.T) {
	f := Func(func(path, profileID string) bool {
		return path == "secret" && profileID == "p"
	})

	assert.True(t, f.IsPathExcluded("secret", "p"))
	assert.False(t, f.IsPathExcluded("secret", "other"))
	assert.False(t, f.IsPathExcluded("public", "p"))
}

func TestNoneExcludesNothing(t *testing.T) {
	assert.False(t, None.IsPathExcluded("anything/at/all", "any-profile"))
}

func TestProfileSetRegister(t *testing.T) {
	ps := NewProfileSet()
	ps.Register("docs-only", "*.go", "build/")

	assert.True(t, ps.IsPathExcluded("main.go", "docs-only"))
	assert.True(t, ps.IsPathExcluded("pkg/util.go", "docs-only"))
	assert.True(t, ps.IsPathExcluded("build/out.bin", "docs-only"))
	assert.False(t, ps.IsPathExcluded("README.md", "docs-only"))
}

func TestProfileSetUnknownProfile(t *testing.T) {
	ps := NewProfileSet()
	ps.Register("known", "*")

	assert.False(t, ps.IsPathExcluded("main.go", "unknown"))
	assert.True(t, ps.IsPathExcluded("main.go", "known"))
}

func TestProfileSetRootNeverExcluded(t *testing.T) {
	ps := NewProfileSet()
	ps.Register("all", "*")

	assert.False(t, ps.IsPathExcluded("", "all"))
}

func TestProfileSetNegation(t *testing.T) {
	ps := NewProfileSet()
	ps.Register("logs", "*.log", "!important.log")

	assert.True(t, ps.IsPathExcluded("debug.log", "logs"))
	assert.False(t, ps.IsPathExcluded("important.log", "logs"))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "no-tests.filter"), []byte("*_test.go\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a profile\n"), 0o644))

	ps := NewProfileSet()
	require.NoError(t, ps.LoadDir(dir))

	assert.True(t, ps.IsPathExcluded("pkg/foo_test.go", "no-tests"))
	assert.False(t, ps.IsPathExcluded("pkg/foo.go", "no-tests"))
	// The .txt file must not have become a profile.
	assert.False(t, ps.IsPathExcluded("pkg/foo_test.go", "notes"))
}

func TestLoadDirMissing(t *testing.T) {
	ps := NewProfileSet()
	assert.Error(t, ps.LoadDir(filepath.Join(t.TempDir(), "does-not-exist")))
}
