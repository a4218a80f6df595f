package engine

import (
	"context"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"
)

func hashBytes(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	h := blake3.Sum256(data)
	return h[:]
}

func TestRun_FullReplication(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")

	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub", "deep"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "root.txt"), []byte("root file"), 0o644))

	bigData := make([]byte, 2*1024*1024)
	_, err := rand.Read(bigData)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "big.bin"), bigData, 0o644))
	require.NoError(t, os.Symlink("big.bin", filepath.Join(src, "sub", "link")))

	result, err := Run(context.Background(), Config{
		Source: src,
		Dest:   dst,
		Verify: true,
	})
	require.NoError(t, err)
	require.NoError(t, result.Report.Fatal)

	assert.Equal(t, int64(2), result.Report.Dirs)
	assert.Equal(t, int64(2), result.Report.FilesCopied)
	assert.Equal(t, int64(1), result.Report.Links)
	assert.Equal(t, result.Totals.Files, result.Report.FilesCopied)

	assert.Equal(t, int64(2), result.Verify.Verified)
	assert.Zero(t, result.Verify.Failed)

	assert.Equal(t, hashBytes(t, filepath.Join(src, "sub", "big.bin")),
		hashBytes(t, filepath.Join(dst, "sub", "big.bin")))
}

func TestRun_ExcludePatterns(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")

	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "keep.txt"), []byte("k"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "drop.tmp"), []byte("d"), 0o644))

	result, err := Run(context.Background(), Config{
		Source:  src,
		Dest:    dst,
		Exclude: []string{"*.tmp"},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.Report.FilesCopied)
	assert.FileExists(t, filepath.Join(dst, "keep.txt"))
	assert.NoFileExists(t, filepath.Join(dst, "drop.tmp"))
}

func TestRun_BadExcludePattern(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))

	_, err := Run(context.Background(), Config{
		Source:  src,
		Dest:    filepath.Join(dir, "dst"),
		Exclude: []string{"[z-a]"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exclude patterns")
}

func TestRun_ResumeSkipsCompleted(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")

	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("aaa"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "b.txt"), []byte("bbb"), 0o644))

	first, err := Run(context.Background(), Config{Source: src, Dest: dst})
	require.NoError(t, err)
	require.True(t, first.Report.Ok())

	// Clean runs drop their journal, so seed one by hand before resuming.
	j, err := OpenJournal(src, dst)
	require.NoError(t, err)
	for _, name := range []string{"a.txt", "b.txt"} {
		info, err := os.Lstat(filepath.Join(src, name))
		require.NoError(t, err)
		require.NoError(t, j.Record(name, info.Size(), info.ModTime().UnixNano()))
	}
	require.NoError(t, j.Close())

	resumed, err := Run(context.Background(), Config{
		Source: src,
		Dest:   dst,
		Resume: true,
	})
	require.NoError(t, err)
	assert.Zero(t, resumed.Report.FilesCopied)
	assert.Equal(t, int64(2), resumed.Report.Skipped)
}

func TestRun_DryRun(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")

	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "f.txt"), []byte("data"), 0o644))

	result, err := Run(context.Background(), Config{Source: src, Dest: dst, DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.Report.FilesCopied)
	assert.NoDirExists(t, dst)
}

func TestRun_SourceMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := Run(context.Background(), Config{
		Source: filepath.Join(dir, "nope"),
		Dest:   filepath.Join(dir, "dst"),
	})
	require.Error(t, err)
}
