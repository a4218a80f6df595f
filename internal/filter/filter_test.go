package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_BareNameMatchesAnyComponent(t *testing.T) {
	s, err := New([]string{"node_modules"}, false)
	require.NoError(t, err)

	assert.True(t, s.Excluded("/src/node_modules", "node_modules", true))
	assert.True(t, s.Excluded("/src/a/node_modules", "a/node_modules", true))
	assert.True(t, s.Excluded("/src/a/node_modules/x.js", "a/node_modules/x.js", false))
	assert.False(t, s.Excluded("/src/a/node_modules2", "a/node_modules2", true))
}

func TestSet_WildcardName(t *testing.T) {
	s, err := New([]string{"*.tmp"}, false)
	require.NoError(t, err)

	assert.True(t, s.Excluded("/src/a.tmp", "a.tmp", false))
	assert.True(t, s.Excluded("/src/deep/b.tmp", "deep/b.tmp", false))
	assert.False(t, s.Excluded("/src/a.tmpx", "a.tmpx", false))
	assert.False(t, s.Excluded("/src/a.txt", "a.txt", false))
}

func TestSet_QuestionMark(t *testing.T) {
	s, err := New([]string{"log?"}, false)
	require.NoError(t, err)

	assert.True(t, s.Excluded("/s/log1", "log1", false))
	assert.False(t, s.Excluded("/s/log12", "log12", false))
	assert.False(t, s.Excluded("/s/log", "log", false))
}

func TestSet_AnchoredPath(t *testing.T) {
	s, err := New([]string{"build/out"}, false)
	require.NoError(t, err)

	assert.True(t, s.Excluded("/src/build/out", "build/out", true))
	assert.True(t, s.Excluded("/src/x/build/out", "x/build/out", true))
	assert.False(t, s.Excluded("/src/build", "build", true))
	assert.False(t, s.Excluded("/src/out", "out", true))
}

func TestSet_TrailingStarPrunesDirectory(t *testing.T) {
	// A trailing-star pattern like "*/sub/*" must keep the walk from even
	// creating the sub directory.
	s, err := New([]string{"*/sub/*"}, false)
	require.NoError(t, err)

	assert.True(t, s.Excluded("/root/sub", "sub", true), "directory itself prunes")
	assert.True(t, s.Excluded("/root/sub/f.txt", "sub/f.txt", false))
	assert.False(t, s.Excluded("/root/a.txt", "a.txt", false))
	// Only directories prune; a plain file named sub is not matched by */sub/*.
	assert.False(t, s.Excluded("/root/sub", "sub", false))
}

func TestSet_AbsolutePattern(t *testing.T) {
	s, err := New([]string{"/mnt/src/skipme"}, false)
	require.NoError(t, err)

	assert.True(t, s.Excluded("/mnt/src/skipme", "skipme", true))
	assert.False(t, s.Excluded("/mnt/src/keep", "keep", true))
}

func TestSet_CaseFolding(t *testing.T) {
	folded, err := New([]string{"Pagefile.sys"}, true)
	require.NoError(t, err)
	exact, err := New([]string{"Pagefile.sys"}, false)
	require.NoError(t, err)

	assert.True(t, folded.Excluded("/c/PAGEFILE.SYS", "PAGEFILE.SYS", false))
	assert.True(t, folded.Excluded("/c/pagefile.sys", "pagefile.sys", false))
	assert.False(t, exact.Excluded("/c/PAGEFILE.SYS", "PAGEFILE.SYS", false))
}

func TestSet_CharClass(t *testing.T) {
	s, err := New([]string{"file[0-9].dat"}, false)
	require.NoError(t, err)

	assert.True(t, s.Excluded("/s/file3.dat", "file3.dat", false))
	assert.False(t, s.Excluded("/s/fileX.dat", "fileX.dat", false))
}

func TestSet_Empty(t *testing.T) {
	s, err := New(nil, false)
	require.NoError(t, err)

	assert.True(t, s.Empty())
	assert.False(t, s.Excluded("/any/path", "path", false))

	require.NoError(t, s.Add("*.bak"))
	assert.False(t, s.Empty())
	assert.Equal(t, 1, s.Len())
}

func TestSet_WindowsSeparatorsNormalized(t *testing.T) {
	s, err := New([]string{`temp\cache`}, false)
	require.NoError(t, err)

	assert.True(t, s.Excluded("/d/temp/cache", "temp/cache", true))
}
