//go:build darwin

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// copyFile tries clonefile for a CoW whole-file copy, then falls back to
// read/write on macOS. clonefile refuses to overwrite, so it only applies
// when the destination is still empty (the engine copies into a fresh tmp
// file, which it is — but the fallback keeps this safe regardless).
func copyFile(srcPath string, dst *os.File, size int64) (Result, error) {
	err := unix.Clonefile(srcPath, dst.Name(), unix.CLONE_NOFOLLOW)
	if err == nil {
		return Result{BytesWritten: size, Method: Clonefile}, nil
	}
	if !isFallbackCloneErr(err) {
		return Result{}, err
	}

	return copyReadWrite(srcPath, dst, size)
}

func isFallbackCloneErr(err error) bool {
	switch err {
	case unix.ENOTSUP, unix.EXDEV, unix.EEXIST:
		return true
	}
	return false
}
