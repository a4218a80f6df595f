//go:build !windows

package identity

import (
	"os"
	"syscall"
)

// FromFileInfo extracts the file identity and hard-link count from a
// Lstat result. ok is false when the platform stat type is unavailable.
func FromFileInfo(_ string, info os.FileInfo) (id FileID, nlink uint64, ok bool) {
	stat, sok := info.Sys().(*syscall.Stat_t)
	if !sok {
		return FileID{}, 0, false
	}
	//nolint:unconvert // Dev/Ino/Nlink widths vary across unix platforms
	return FileID{Dev: uint64(stat.Dev), Ino: uint64(stat.Ino)}, uint64(stat.Nlink), true
}
