//go:build linux

package platform

import (
	"os"

	"golang.org/x/sys/unix"
)

// copyFile tries the most efficient copy method available on Linux,
// falling through on unsupported/cross-device errors.
func copyFile(srcPath string, dst *os.File, size int64) (Result, error) {
	result, err := copyFileRange(srcPath, dst, size)
	if err == nil {
		return result, nil
	}
	if !isFallbackErr(err) {
		return result, err
	}

	result, err = copySendfile(srcPath, dst, size)
	if err == nil {
		return result, nil
	}
	if !isFallbackErr(err) {
		return result, err
	}

	return copyReadWrite(srcPath, dst, size)
}

func copyFileRange(srcPath string, dst *os.File, size int64) (Result, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return Result{}, err
	}
	defer src.Close()

	var roff, woff int64
	remaining := size
	var total int64
	for remaining > 0 {
		n, err := unix.CopyFileRange(int(src.Fd()), &roff, int(dst.Fd()), &woff, int(remaining), 0)
		if err != nil {
			if total == 0 {
				return Result{}, err
			}
			return Result{BytesWritten: total, Method: CopyFileRange}, err
		}
		if n == 0 {
			break
		}
		remaining -= int64(n)
		total += int64(n)
	}

	return Result{BytesWritten: total, Method: CopyFileRange}, nil
}

func copySendfile(srcPath string, dst *os.File, size int64) (Result, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return Result{}, err
	}
	defer src.Close()

	var offset int64
	remaining := size
	var total int64
	for remaining > 0 {
		n, err := unix.Sendfile(int(dst.Fd()), int(src.Fd()), &offset, int(remaining))
		if err != nil {
			if total == 0 {
				return Result{}, err
			}
			return Result{BytesWritten: total, Method: Sendfile}, err
		}
		if n == 0 {
			break
		}
		remaining -= int64(n)
		total += int64(n)
	}

	return Result{BytesWritten: total, Method: Sendfile}, nil
}

// isFallbackErr reports whether err should trigger the next copy strategy.
func isFallbackErr(err error) bool {
	switch err {
	case unix.ENOSYS, unix.EXDEV, unix.EINVAL, unix.ENOTSUP, unix.EBADF:
		return true
	}
	if e, ok := err.(*os.PathError); ok {
		return isFallbackErr(e.Err)
	}
	return false
}
