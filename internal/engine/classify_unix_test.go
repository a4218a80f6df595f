//go:build !windows

package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestClassify_DenyList(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "swapfile"), []byte{0}, 0o600))

	c := classifierForRoot(t, root)
	info, err := os.Lstat(filepath.Join(root, "swapfile"))
	require.NoError(t, err)

	_, verdict, reason := c.Classify(filepath.Join(root, "swapfile"), "swapfile", info)
	assert.Equal(t, VerdictSkipped, verdict)
	assert.Equal(t, "os-reserved path", reason)
}

func TestClassify_SpecialFileSkipped(t *testing.T) {
	root := t.TempDir()
	fifo := filepath.Join(root, "pipe")
	require.NoError(t, unix.Mkfifo(fifo, 0o644))

	c := classifierForRoot(t, root)
	info, err := os.Lstat(fifo)
	require.NoError(t, err)

	_, verdict, reason := c.Classify(fifo, "pipe", info)
	assert.Equal(t, VerdictSkipped, verdict)
	assert.Equal(t, "special file", reason)
}
