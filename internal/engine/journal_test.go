package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal_OpenClose(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	j, err := OpenJournal("/src", "/dst")
	require.NoError(t, err)
	require.NotNil(t, j)

	assert.FileExists(t, j.Path())
	require.NoError(t, j.Close())
}

func TestJournal_RecordAndCheck(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	j, err := OpenJournal("/src", "/dst")
	require.NoError(t, err)
	defer j.Close()

	assert.False(t, j.Completed("file.txt", 100, 12345))

	require.NoError(t, j.Record("file.txt", 100, 12345))
	require.NoError(t, j.Flush())

	assert.True(t, j.Completed("file.txt", 100, 12345))

	// Any divergence means the file must be re-copied.
	assert.False(t, j.Completed("file.txt", 200, 12345))
	assert.False(t, j.Completed("file.txt", 100, 99999))
	assert.False(t, j.Completed("other.txt", 100, 12345))
}

func TestJournal_BatchFlush(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	j, err := OpenJournal("/src", "/dst")
	require.NoError(t, err)
	defer j.Close()

	// 150 entries auto-flush at the batch threshold.
	for i := range 150 {
		require.NoError(t, j.Record(fmt.Sprintf("dir/file_%d.txt", i), int64(i*100), int64(i*1000)))
	}
	require.NoError(t, j.Flush())

	assert.True(t, j.Completed("dir/file_0.txt", 0, 0))
	assert.True(t, j.Completed("dir/file_149.txt", 14900, 149000))
}

func TestJournal_SurvivesReopen(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	j, err := OpenJournal("/src", "/dst")
	require.NoError(t, err)
	require.NoError(t, j.Record("kept.txt", 10, 20))
	require.NoError(t, j.Close())

	j2, err := OpenJournal("/src", "/dst")
	require.NoError(t, err)
	defer j2.Close()
	assert.True(t, j2.Completed("kept.txt", 10, 20))
}

func TestJournal_JobIDDeterminism(t *testing.T) {
	id1 := journalJobID("/src/a", "/dst/b")
	id2 := journalJobID("/src/a", "/dst/b")
	assert.Equal(t, id1, id2)

	// Different pairs, different journals.
	assert.NotEqual(t, id1, journalJobID("/src/a", "/dst/c"))
	assert.NotEqual(t, id1, journalJobID("/src/c", "/dst/b"))
}

func TestJournal_Remove(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())

	j, err := OpenJournal("/src", "/dst")
	require.NoError(t, err)
	path := j.Path()
	require.NoError(t, j.Close())
	require.NoError(t, j.Remove())
	assert.NoFileExists(t, path)
}
