//go:build !windows

package platform

import "errors"

// ErrNoJunctions marks platforms without reparse-point support; the engine
// degrades junction recreation to a directory symlink.
var ErrNoJunctions = errors.New("junctions not supported on this platform")

// IsJunction always reports false where reparse points do not exist.
func IsJunction(string) bool { return false }

// ReadJunction is unsupported on this platform.
func ReadJunction(string) (string, error) { return "", ErrNoJunctions }

// CreateJunction is unsupported on this platform.
func CreateJunction(_, _ string) error { return ErrNoJunctions }
