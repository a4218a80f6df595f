package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_LoadOrRecord(t *testing.T) {
	r := NewRegistry()
	id := FileID{Dev: 1, Ino: 42}

	path, existed := r.LoadOrRecord(id, "/dst/a.txt")
	assert.False(t, existed)
	assert.Equal(t, "/dst/a.txt", path)

	path, existed = r.LoadOrRecord(id, "/dst/b.txt")
	assert.True(t, existed)
	assert.Equal(t, "/dst/a.txt", path, "first writer wins")

	got, ok := r.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, "/dst/a.txt", got)
}

func TestRegistry_Forget(t *testing.T) {
	r := NewRegistry()
	id := FileID{Dev: 1, Ino: 7}

	r.LoadOrRecord(id, "/dst/x")
	r.Forget(id)

	_, ok := r.Lookup(id)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_ConcurrentFirstWriterWins(t *testing.T) {
	r := NewRegistry()
	id := FileID{Dev: 3, Ino: 99}

	const n = 64
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	paths := make(map[string]struct{})

	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, existed := r.LoadOrRecord(id, fmt.Sprintf("/dst/%d", i))
			mu.Lock()
			defer mu.Unlock()
			if !existed {
				winners++
			}
			paths[p] = struct{}{}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners, "exactly one goroutine registers")
	assert.Len(t, paths, 1, "losers all see the winner's path")
}

func TestFromFileInfo_HardLinkedFilesShareIdentity(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	c := filepath.Join(dir, "c.txt")

	require.NoError(t, os.WriteFile(a, []byte("payload"), 0644))
	require.NoError(t, os.Link(a, b))
	require.NoError(t, os.WriteFile(c, []byte("other"), 0644))

	infoA, err := os.Lstat(a)
	require.NoError(t, err)
	infoB, err := os.Lstat(b)
	require.NoError(t, err)
	infoC, err := os.Lstat(c)
	require.NoError(t, err)

	idA, nlinkA, ok := FromFileInfo(a, infoA)
	require.True(t, ok)
	idB, nlinkB, ok := FromFileInfo(b, infoB)
	require.True(t, ok)
	idC, _, ok := FromFileInfo(c, infoC)
	require.True(t, ok)

	assert.Equal(t, idA, idB)
	assert.NotEqual(t, idA, idC)
	assert.EqualValues(t, 2, nlinkA)
	assert.EqualValues(t, 2, nlinkB)
}
