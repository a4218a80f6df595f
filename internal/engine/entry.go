package engine

import (
	"os"

	"github.com/mkoval-dev/replica/internal/attr"
	"github.com/mkoval-dev/replica/internal/identity"
)

// EntryKind is the raw OS classification of a source entry, before identity
// deduplication decides whether a regular file becomes a copy or a hard link.
type EntryKind int

const (
	KindDirectory EntryKind = iota
	KindRegularFile
	KindSymlink
	KindJunction
)

func (k EntryKind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindRegularFile:
		return "file"
	case KindSymlink:
		return "symlink"
	case KindJunction:
		return "junction"
	default:
		return "unknown"
	}
}

// SourceEntry is one filesystem object encountered during traversal.
type SourceEntry struct {
	Path string // absolute source path
	Rel  string // path relative to the source root
	Kind EntryKind
	Size int64

	// Identity is defined for entries that support hard-link semantics;
	// never for symlinks or junctions.
	ID    identity.FileID
	HasID bool
	Nlink uint64

	Attrs attr.Attributes

	// LinkTarget is the raw, unresolved target for symlinks and junctions.
	// It may be relative, absolute, or point at nothing.
	LinkTarget string
}

// Verdict is the classifier's terminal decision for an entry.
type Verdict int

const (
	// VerdictReplicate means the entry proceeds to planning.
	VerdictReplicate Verdict = iota
	// VerdictExcluded means a user exclusion pattern matched; for
	// directories the walk must not descend.
	VerdictExcluded
	// VerdictSkipped covers the built-in deny-list, foreign filesystems,
	// and entry types that cannot be replicated (sockets, devices).
	VerdictSkipped
)

func (v Verdict) String() string {
	switch v {
	case VerdictReplicate:
		return "replicate"
	case VerdictExcluded:
		return "excluded"
	case VerdictSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// isSpecial reports whether mode describes an entry with no destination
// representation (device, socket, fifo).
func isSpecial(mode os.FileMode) bool {
	return mode&(os.ModeDevice|os.ModeCharDevice|os.ModeSocket|os.ModeNamedPipe|os.ModeIrregular) != 0
}
