//go:build !windows

package engine

import "os"

// Reparse points do not exist here; the junction branch of the classifier
// is dead code on this platform.
func isJunctionMode(os.FileMode) bool { return false }

func isJunction(string) bool { return false }

func readJunctionTarget(string) (string, error) { return "", nil }
