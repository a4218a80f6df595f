//go:build !linux && !darwin

package platform

import "os"

// copyFile falls back to plain read/write where no kernel fast path exists.
func copyFile(srcPath string, dst *os.File, size int64) (Result, error) {
	return copyReadWrite(srcPath, dst, size)
}
