//go:build windows

package engine

import (
	"os"

	"github.com/mkoval-dev/replica/internal/platform"
)

// isJunctionMode is a cheap pre-filter before the FindFirstFile probe:
// depending on the Go version junctions surface as symlinks or irregular
// entries, never as plain directories.
func isJunctionMode(mode os.FileMode) bool {
	return mode&(os.ModeSymlink|os.ModeIrregular) != 0
}

func isJunction(path string) bool {
	return platform.IsJunction(path)
}

func readJunctionTarget(path string) (string, error) {
	return platform.ReadJunction(path)
}
