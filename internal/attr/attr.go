// Package attr reads and restores filesystem metadata: permission bits,
// ownership, platform attribute flags, and timestamps.
package attr

import (
	"os"
	"strings"
	"time"
)

// Flag is a platform attribute flag tracked across replication.
type Flag uint8

const (
	Readonly Flag = 1 << iota
	Hidden
	Archive
	System
)

var flagNames = map[Flag]string{
	Readonly: "readonly",
	Hidden:   "hidden",
	Archive:  "archive",
	System:   "system",
}

// Flags is the set of tracked attribute flags on one entry.
type Flags uint8

// Has reports whether f is set.
func (fs Flags) Has(f Flag) bool { return fs&Flags(f) != 0 }

// Set returns fs with f set.
func (fs Flags) Set(f Flag) Flags { return fs | Flags(f) }

func (fs Flags) String() string {
	if fs == 0 {
		return "none"
	}
	var parts []string
	for _, f := range []Flag{Readonly, Hidden, Archive, System} {
		if fs.Has(f) {
			parts = append(parts, flagNames[f])
		}
	}
	return strings.Join(parts, ",")
}

// Attributes holds the source metadata restored onto a destination entry.
// CreateTime is zero on platforms that do not report birth time.
type Attributes struct {
	Mode       os.FileMode
	UID        uint32
	GID        uint32
	HaveOwner  bool
	Flags      Flags
	ModTime    time.Time
	AccTime    time.Time
	CreateTime time.Time
}

// Applied reports the outcome of restoring attributes onto one entry.
// Dropped lists flags with no analogue on this platform; Errs collects
// best-effort failures. Either makes the entry's outcome partial, never
// failed.
type Applied struct {
	Dropped []Flag
	Errs    []error
}

// Partial reports whether any attribute could not be fully restored.
func (a Applied) Partial() bool {
	return len(a.Dropped) > 0 || len(a.Errs) > 0
}

// Read extracts the tracked attributes of the entry at path. info must come
// from Lstat so that symlink metadata is not resolved through the link.
func Read(path string, info os.FileInfo) Attributes {
	return readAttributes(path, info)
}

// Supports reports whether this platform can represent flag f on an entry
// with the given base name. The name matters on platforms where a flag is
// carried by naming convention rather than metadata (dot-prefix hiding).
func Supports(f Flag, baseName string) bool {
	return supportsFlag(f, baseName)
}

// Apply restores attributes onto the destination entry. Permission bits and
// attribute flags are applied before timestamps: every other mutation of the
// path dirties its mtime, so timestamp restoration must come last.
func Apply(dstPath string, a Attributes, isSymlink bool) Applied {
	return applyAttributes(dstPath, a, isSymlink)
}
