package engine

import (
	"os"

	"github.com/mkoval-dev/replica/internal/attr"
	"github.com/mkoval-dev/replica/internal/filter"
	"github.com/mkoval-dev/replica/internal/identity"
)

// Classifier inspects raw filesystem entries and produces tagged
// SourceEntry values. Decision order: user exclusion (terminal, prunes),
// built-in deny-list, junction, symlink, directory, regular file.
type Classifier struct {
	root    string
	exclude *filter.Set
	deny    *filter.Set

	// oneFS skips entries whose device differs from the source root's.
	oneFS   bool
	rootDev uint64
	haveDev bool
}

// NewClassifier builds a classifier for one replication run. exclude may be
// nil. rootInfo is the Lstat of the source root, used for same-filesystem
// checks when oneFS is set.
func NewClassifier(root string, exclude *filter.Set, oneFS bool, rootInfo os.FileInfo) *Classifier {
	c := &Classifier{
		root:    root,
		exclude: exclude,
		deny:    denySet(),
		oneFS:   oneFS,
	}
	if rootInfo != nil {
		if id, _, ok := identity.FromFileInfo(root, rootInfo); ok {
			c.rootDev = id.Dev
			c.haveDev = true
		}
	}
	return c
}

// Classify tags the entry at path. info must come from Lstat. The returned
// reason is set for VerdictSkipped.
func (c *Classifier) Classify(path, rel string, info os.FileInfo) (SourceEntry, Verdict, string) {
	entry := SourceEntry{
		Path: path,
		Rel:  rel,
		Size: info.Size(),
	}

	isDir := info.IsDir()
	if c.exclude != nil && c.exclude.Excluded(path, rel, isDir) {
		return entry, VerdictExcluded, ""
	}
	if c.deny.Excluded(path, rel, isDir) {
		return entry, VerdictSkipped, "os-reserved path"
	}

	mode := info.Mode()

	// Junctions report as reparse points before anything else; the raw
	// target is captured, never followed. On platforms without reparse
	// points this branch is dead.
	if isJunctionMode(mode) && isJunction(path) {
		target, err := readJunctionTarget(path)
		if err != nil {
			return entry, VerdictSkipped, "unreadable junction target"
		}
		entry.Kind = KindJunction
		entry.LinkTarget = target
		entry.Attrs = attr.Read(path, info)
		return entry, VerdictReplicate, ""
	}

	if mode&os.ModeSymlink != 0 {
		target, err := os.Readlink(path)
		if err != nil {
			return entry, VerdictSkipped, "unreadable symlink target"
		}
		entry.Kind = KindSymlink
		entry.LinkTarget = target
		entry.Attrs = attr.Read(path, info)
		return entry, VerdictReplicate, ""
	}

	if isSpecial(mode) {
		return entry, VerdictSkipped, "special file"
	}

	entry.Attrs = attr.Read(path, info)
	if id, nlink, ok := identity.FromFileInfo(path, info); ok {
		entry.ID = id
		entry.HasID = true
		entry.Nlink = nlink
		if c.oneFS && c.haveDev && id.Dev != c.rootDev {
			return entry, VerdictSkipped, "different filesystem"
		}
	}

	if isDir {
		entry.Kind = KindDirectory
		return entry, VerdictReplicate, ""
	}

	entry.Kind = KindRegularFile
	return entry, VerdictReplicate, ""
}

// denySet compiles the fixed, non-configurable deny-list. Compilation of
// the built-in patterns cannot fail.
func denySet() *filter.Set {
	s, err := filter.New(denyPatterns, filter.FoldCaseDefault())
	if err != nil {
		panic("engine: invalid builtin deny pattern: " + err.Error())
	}
	return s
}
