// Package platform selects the fastest byte-copy primitive the host kernel
// offers and provides the link primitives the engine recreates entries with.
package platform

import "os"

// Method identifies which syscall/strategy performed a copy.
type Method int

const (
	ReadWrite     Method = iota
	CopyFileRange        // Linux copy_file_range(2)
	Sendfile             // Linux sendfile(2)
	Clonefile            // macOS clonefile(2)
)

func (m Method) String() string {
	switch m {
	case ReadWrite:
		return "read_write"
	case CopyFileRange:
		return "copy_file_range"
	case Sendfile:
		return "sendfile"
	case Clonefile:
		return "clonefile"
	default:
		return "unknown"
	}
}

// Result reports the outcome of a copy operation.
type Result struct {
	BytesWritten int64
	Method       Method
}

// Copy copies size bytes of the file at srcPath into dst, which must be open
// for writing and positioned at the start. The concrete strategy is chosen
// per platform with graceful fallback to plain read/write.
func Copy(srcPath string, dst *os.File, size int64) (Result, error) {
	return copyFile(srcPath, dst, size)
}
