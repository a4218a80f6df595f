package engine

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// FailureKind partitions per-entry failures for the report.
type FailureKind int

const (
	AccessDenied FailureKind = iota
	SourceUnreadable
	DestinationWriteFailed
	// AttributeUnsupported covers flags with no platform analogue. The
	// walker itself downgrades these to partial outcomes, never failures.
	AttributeUnsupported
	LinkCreationUnsupported
	CyclicOrInvalidPath
)

func (k FailureKind) String() string {
	switch k {
	case AccessDenied:
		return "access denied"
	case SourceUnreadable:
		return "source unreadable"
	case DestinationWriteFailed:
		return "destination write failed"
	case AttributeUnsupported:
		return "attribute unsupported"
	case LinkCreationUnsupported:
		return "link creation unsupported"
	case CyclicOrInvalidPath:
		return "cyclic or invalid path"
	default:
		return "unknown"
	}
}

// Failure records one entry that could not be fully replicated. Traversal
// continues past failures; they surface in the report.
type Failure struct {
	Path string
	Kind FailureKind
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %s: %v", f.Path, f.Kind, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// classifyReadErr maps a source-side error to a failure kind.
func classifyReadErr(err error) FailureKind {
	switch {
	case errors.Is(err, os.ErrPermission):
		return AccessDenied
	case errors.Is(err, syscall.ELOOP), errors.Is(err, syscall.ENAMETOOLONG):
		return CyclicOrInvalidPath
	default:
		return SourceUnreadable
	}
}

// classifyWriteErr maps a destination-side error to a failure kind.
func classifyWriteErr(err error) FailureKind {
	switch {
	case errors.Is(err, os.ErrPermission):
		return AccessDenied
	case errors.Is(err, syscall.ENAMETOOLONG):
		return CyclicOrInvalidPath
	default:
		return DestinationWriteFailed
	}
}

// classifyLinkErr maps a link-creation error to a failure kind.
func classifyLinkErr(err error) FailureKind {
	switch {
	case errors.Is(err, syscall.EPERM), errors.Is(err, syscall.ENOTSUP),
		errors.Is(err, syscall.EOPNOTSUPP), errors.Is(err, syscall.EMLINK):
		return LinkCreationUnsupported
	default:
		return classifyWriteErr(err)
	}
}
