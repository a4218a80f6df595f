// Package identity tracks platform file identities across a replication run
// so that hard-link aliases are recreated as links to a single destination
// file instead of independent copies.
package identity

import "sync"

// FileID is a platform-stable identifier for file content: device id plus
// inode on POSIX systems, volume serial plus file index on Windows. It is
// equal for all hard-link aliases of the same file and differs across
// distinct files.
type FileID struct {
	Dev uint64
	Ino uint64
}

// Registry maps a FileID to the first destination path materialized for it.
// It is scoped to a single replication run. Registration is atomic: when two
// callers race on the same identity, exactly one wins and the other receives
// the winner's path to hard-link against.
type Registry struct {
	mu sync.Mutex
	m  map[FileID]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{m: make(map[FileID]string)}
}

// Lookup returns the destination path recorded for id, if any.
func (r *Registry) Lookup(id FileID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.m[id]
	return p, ok
}

// LoadOrRecord records dstPath for id unless the identity was seen earlier
// in this run. It returns the path that is now registered and whether it was
// already present (true means the caller lost the race and should hard-link
// against the returned path).
func (r *Registry) LoadOrRecord(id FileID, dstPath string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.m[id]; ok {
		return existing, true
	}
	r.m[id] = dstPath
	return dstPath, false
}

// Forget removes id from the registry. Used when the copy that registered
// the identity subsequently fails, so later aliases fall back to a full copy
// instead of linking against a path that was never created.
func (r *Registry) Forget(id FileID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, id)
}

// Len returns the number of registered identities.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.m)
}
