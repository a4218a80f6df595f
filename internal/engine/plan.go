package engine

// Op is the decided action for one source entry, produced before any
// destination I/O happens.
type Op int

const (
	OpMkdir Op = iota
	OpCopyFile
	OpHardlink
	OpSymlink
	OpJunction
	OpSkip
)

func (o Op) String() string {
	switch o {
	case OpMkdir:
		return "mkdir"
	case OpCopyFile:
		return "copy"
	case OpHardlink:
		return "hardlink"
	case OpSymlink:
		return "symlink"
	case OpJunction:
		return "junction"
	case OpSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// Plan pairs a source entry with its destination action.
type Plan struct {
	Op      Op
	Entry   SourceEntry
	DstPath string

	// LinkDst is the already-materialized destination path this entry
	// hard-links against (OpHardlink only).
	LinkDst string

	// Reason explains an OpSkip.
	Reason string
}

// plan decides the destination action for a classified entry. For regular
// files the identity registry is the single atomic check-then-insert
// region: the first occurrence of an identity reserves the destination
// path, later occurrences become hard links against it.
func (w *Walker) plan(entry SourceEntry, dstPath string) Plan {
	p := Plan{Entry: entry, DstPath: dstPath}

	switch entry.Kind {
	case KindDirectory:
		p.Op = OpMkdir
	case KindSymlink:
		p.Op = OpSymlink
	case KindJunction:
		p.Op = OpJunction
	case KindRegularFile:
		if entry.HasID && entry.Nlink > 1 {
			if existing, seen := w.registry.LoadOrRecord(entry.ID, dstPath); seen {
				p.Op = OpHardlink
				p.LinkDst = existing
				return p
			}
		}
		p.Op = OpCopyFile
	default:
		p.Op = OpSkip
		p.Reason = "unknown entry kind"
	}
	return p
}
