package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/mkoval-dev/replica/internal/attr"
	"github.com/mkoval-dev/replica/internal/event"
	"github.com/mkoval-dev/replica/internal/filter"
	"github.com/mkoval-dev/replica/internal/identity"
	"github.com/mkoval-dev/replica/internal/platform"
	"github.com/mkoval-dev/replica/internal/stats"
)

// WalkerConfig describes one replication run.
type WalkerConfig struct {
	Source  string
	Dest    string
	Exclude *filter.Set

	OneFilesystem bool
	DryRun        bool
	Resume        bool
	BWLimit       int64 // bytes/sec, 0 = unlimited

	Journal *Journal
	Events  chan<- event.Event
	Stats   *stats.Collector
}

// Walker drives the replication traversal: a sequential depth-first walk
// over the source tree, creating each directory before its children and
// recreating files, hard links, and symlinks/junctions at the destination.
// Run-scoped state (identity registry, exclusion set) lives on the walker,
// so independent runs never share state.
type Walker struct {
	cfg        WalkerConfig
	classifier *Classifier
	registry   *identity.Registry
	limiter    *rate.Limiter
	report     Report
}

// frame is one directory on the explicit walk stack. Directories are
// visited twice: once to create the destination directory and enqueue
// children, and once — after all children finished — to restore attributes,
// since creating children dirties the directory's mtime.
type frame struct {
	src, dst, rel string
	attrs         attr.Attributes
	entered       bool
}

// NewWalker validates the run configuration and builds a walker.
func NewWalker(cfg WalkerConfig) (*Walker, error) {
	rootInfo, err := os.Lstat(cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	if !rootInfo.IsDir() {
		return nil, fmt.Errorf("source %s is not a directory", cfg.Source)
	}

	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}

	w := &Walker{
		cfg:        cfg,
		classifier: NewClassifier(cfg.Source, cfg.Exclude, cfg.OneFilesystem, rootInfo),
		registry:   identity.NewRegistry(),
	}
	if cfg.BWLimit > 0 {
		w.limiter = NewBWLimiter(cfg.BWLimit)
	}
	return w, nil
}

// Run executes the traversal and returns the aggregated report. Per-entry
// failures are recorded and never abort the run; only a missing destination
// root (or its loss mid-run) is fatal.
func (w *Walker) Run(ctx context.Context) *Report {
	rootInfo, err := os.Lstat(w.cfg.Source)
	if err != nil {
		w.report.Fatal = fmt.Errorf("source root: %w", err)
		return &w.report
	}

	if !w.cfg.DryRun {
		if err := os.MkdirAll(w.cfg.Dest, 0o755); err != nil {
			w.report.Fatal = fmt.Errorf("create destination root: %w", err)
			return &w.report
		}
	}

	stack := []*frame{{
		src:   w.cfg.Source,
		dst:   w.cfg.Dest,
		rel:   ".",
		attrs: attr.Read(w.cfg.Source, rootInfo),
	}}

	for len(stack) > 0 {
		if w.report.Fatal != nil {
			break
		}
		if err := ctx.Err(); err != nil {
			// Stop scheduling new entries; whatever single-entry work was
			// in flight has already completed or failed with a record.
			w.report.Fatal = err
			break
		}

		f := stack[len(stack)-1]
		if f.entered {
			stack = stack[:len(stack)-1]
			w.stampDir(f)
			continue
		}
		f.entered = true
		stack = w.enterDir(ctx, f, stack)
	}

	return &w.report
}

// Report returns the report accumulated so far.
func (w *Walker) Report() *Report { return &w.report }

// enterDir enumerates one directory and dispatches every child; child
// directories are pushed onto the stack rather than recursed into, keeping
// stack depth bounded on deep trees.
func (w *Walker) enterDir(ctx context.Context, f *frame, stack []*frame) []*frame {
	entries, err := os.ReadDir(f.src)
	if err != nil {
		w.fail(f.src, classifyReadErr(err), err)
		return stack
	}

	for _, de := range entries {
		if ctx.Err() != nil || w.report.Fatal != nil {
			return stack
		}

		srcPath := filepath.Join(f.src, de.Name())
		dstPath := filepath.Join(f.dst, de.Name())
		relPath := de.Name()
		if f.rel != "." {
			relPath = f.rel + "/" + de.Name()
		}

		info, err := de.Info()
		if err != nil {
			w.fail(srcPath, classifyReadErr(err), err)
			continue
		}

		entry, verdict, reason := w.classifier.Classify(srcPath, relPath, info)
		switch verdict {
		case VerdictExcluded:
			w.skip(relPath, "excluded")
			continue
		case VerdictSkipped:
			w.skip(relPath, reason)
			continue
		}

		p := w.plan(entry, dstPath)
		switch p.Op {
		case OpMkdir:
			if w.execMkdir(p) {
				stack = append(stack, &frame{
					src:   srcPath,
					dst:   dstPath,
					rel:   relPath,
					attrs: entry.Attrs,
				})
			}
		case OpCopyFile:
			w.execCopy(ctx, p)
		case OpHardlink:
			w.execHardlink(p)
		case OpSymlink, OpJunction:
			w.execLink(p)
		case OpSkip:
			w.skip(relPath, p.Reason)
		}
	}

	return stack
}

func (w *Walker) execMkdir(p Plan) bool {
	w.report.Dirs++
	w.cfg.Stats.AddDirsCreated(1)

	if w.cfg.DryRun {
		return true
	}

	if err := w.clearMismatch(p.DstPath, true); err != nil {
		w.report.Dirs--
		w.cfg.Stats.AddDirsCreated(-1)
		w.failWrite(p.Entry.Rel, classifyWriteErr(err), err)
		return false
	}
	if err := os.MkdirAll(p.DstPath, 0o755); err != nil {
		w.report.Dirs--
		w.cfg.Stats.AddDirsCreated(-1)
		w.failWrite(p.Entry.Rel, classifyWriteErr(err), err)
		return false
	}

	w.emit(event.Event{Type: event.DirCreated, Path: p.Entry.Rel})
	return true
}

// stampDir restores directory attributes after all children are done, so
// child creation cannot dirty the restored timestamps.
func (w *Walker) stampDir(f *frame) {
	if w.cfg.DryRun {
		return
	}
	applied := attr.Apply(f.dst, f.attrs, false)
	if applied.Partial() {
		w.partial(f.rel)
	}
}

func (w *Walker) execCopy(ctx context.Context, p Plan) {
	entry := p.Entry
	reserved := entry.HasID && entry.Nlink > 1

	// Resume: an entry the journal knows, with unchanged size and mtime
	// and still present at the destination, is not re-copied. The identity
	// stays reserved so later aliases hard-link correctly.
	if w.cfg.Resume && w.cfg.Journal != nil &&
		w.cfg.Journal.Completed(entry.Rel, entry.Size, entry.Attrs.ModTime.UnixNano()) {
		if _, err := os.Lstat(p.DstPath); err == nil {
			w.skip(entry.Rel, "up to date")
			return
		}
	}

	if w.cfg.DryRun {
		w.report.FilesCopied++
		w.report.BytesCopied += entry.Size
		w.cfg.Stats.AddFilesCopied(1)
		w.cfg.Stats.AddBytesCopied(entry.Size)
		return
	}

	written, err := w.copyFileContents(ctx, entry, p.DstPath)
	if err != nil {
		if reserved {
			w.registry.Forget(entry.ID)
		}
		w.failWrite(entry.Rel, classifyCopyErr(err, entry.Path), err)
		return
	}

	applied := attr.Apply(p.DstPath, entry.Attrs, false)
	if applied.Partial() {
		w.partial(entry.Rel)
	}

	if w.cfg.Journal != nil {
		if err := w.cfg.Journal.Record(entry.Rel, entry.Size, entry.Attrs.ModTime.UnixNano()); err != nil {
			w.emit(event.Event{Type: event.FilePartial, Path: entry.Rel, Error: err})
		}
	}

	w.report.FilesCopied++
	w.report.BytesCopied += written
	w.cfg.Stats.AddFilesCopied(1)
	w.cfg.Stats.AddBytesCopied(written)
	w.emit(event.Event{Type: event.FileCopied, Path: entry.Rel, Size: written})
}

// copyFileContents copies into a temp file in the destination directory and
// renames it into place, so a crash never leaves a half-written file under
// the final name. The temp file is removed on every failure path.
func (w *Walker) copyFileContents(ctx context.Context, entry SourceEntry, dstPath string) (int64, error) {
	if err := w.clearMismatch(dstPath, false); err != nil {
		return 0, err
	}

	dir := filepath.Dir(dstPath)
	base := filepath.Base(dstPath)
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.replica-tmp", base, uuid.New().String()[:8]))

	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, entry.Attrs.Mode.Perm()|0o200)
	if err != nil {
		return 0, fmt.Errorf("create temp %s: %w", tmpPath, err)
	}
	defer func() {
		_ = os.Remove(tmpPath) // no-op once the rename succeeded
	}()

	var written int64
	if entry.Size > 0 {
		if w.limiter != nil {
			written, err = copyWithLimit(ctx, entry.Path, tmp, w.limiter)
		} else {
			var result platform.Result
			result, err = platform.Copy(entry.Path, tmp, entry.Size)
			written = result.BytesWritten
		}
		if err != nil {
			tmp.Close()
			return 0, fmt.Errorf("copy %s: %w", entry.Path, err)
		}
	}

	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, dstPath); err != nil {
		return 0, fmt.Errorf("rename into place: %w", err)
	}
	return written, nil
}

func (w *Walker) execHardlink(p Plan) {
	if w.cfg.DryRun {
		w.report.Hardlinks++
		w.cfg.Stats.AddHardlinks(1)
		return
	}

	if err := w.removeExisting(p.DstPath); err != nil {
		w.failWrite(p.Entry.Rel, classifyWriteErr(err), err)
		return
	}
	if err := os.Link(p.LinkDst, p.DstPath); err != nil {
		w.failWrite(p.Entry.Rel, classifyLinkErr(err), err)
		return
	}

	w.report.Hardlinks++
	w.cfg.Stats.AddHardlinks(1)
	w.emit(event.Event{Type: event.HardlinkCreated, Path: p.Entry.Rel})
}

// execLink recreates a symlink or junction with the raw captured target.
// The target is never resolved or validated: a broken source link is
// faithfully reproduced as a broken destination link.
func (w *Walker) execLink(p Plan) {
	if w.cfg.DryRun {
		w.report.Links++
		w.cfg.Stats.AddLinks(1)
		return
	}

	if err := w.removeExisting(p.DstPath); err != nil {
		w.failWrite(p.Entry.Rel, classifyWriteErr(err), err)
		return
	}

	degraded := false
	var err error
	if p.Op == OpJunction {
		err = platform.CreateJunction(p.DstPath, p.Entry.LinkTarget)
		if errors.Is(err, platform.ErrNoJunctions) {
			// Closest primitive on this platform: a directory symlink.
			err = os.Symlink(p.Entry.LinkTarget, p.DstPath)
			degraded = true
		}
	} else {
		err = os.Symlink(p.Entry.LinkTarget, p.DstPath)
	}
	if err != nil {
		w.failWrite(p.Entry.Rel, classifyLinkErr(err), err)
		return
	}

	applied := attr.Apply(p.DstPath, p.Entry.Attrs, true)
	if applied.Partial() || degraded {
		w.partial(p.Entry.Rel)
	}

	w.report.Links++
	w.cfg.Stats.AddLinks(1)
	w.emit(event.Event{Type: event.LinkCreated, Path: p.Entry.Rel})
}

// clearMismatch removes a pre-existing destination entry whose kind
// conflicts with what is about to be created (file where a directory goes,
// or vice versa). Same-kind entries are left for overwrite.
func (w *Walker) clearMismatch(dstPath string, wantDir bool) error {
	info, err := os.Lstat(dstPath)
	if err != nil {
		return nil // nothing there
	}
	if info.IsDir() == wantDir && info.Mode()&os.ModeSymlink == 0 {
		return nil
	}
	if info.IsDir() {
		return os.RemoveAll(dstPath)
	}
	return os.Remove(dstPath)
}

// removeExisting clears the destination path for link recreation; links are
// always recreated rather than overwritten in place.
func (w *Walker) removeExisting(dstPath string) error {
	info, err := os.Lstat(dstPath)
	if err != nil {
		return nil
	}
	if info.IsDir() {
		return os.RemoveAll(dstPath)
	}
	return os.Remove(dstPath)
}

func (w *Walker) skip(rel, reason string) {
	w.report.Skipped++
	w.cfg.Stats.AddSkipped(1)
	w.emit(event.Event{Type: event.FileSkipped, Path: rel, Error: errors.New(reason)})
}

func (w *Walker) partial(rel string) {
	w.report.Partial++
	w.cfg.Stats.AddPartial(1)
	w.emit(event.Event{Type: event.FilePartial, Path: rel})
}

func (w *Walker) fail(path string, kind FailureKind, err error) {
	w.report.Failed++
	w.report.Failures = append(w.report.Failures, Failure{Path: path, Kind: kind, Err: err})
	w.cfg.Stats.AddFailed(1)
	w.emit(event.Event{Type: event.FileFailed, Path: path, Error: err})
}

// failWrite records a destination-side failure and then probes whether the
// destination root itself is gone — losing the destination volume mid-run
// aborts the traversal instead of producing one failure per entry.
func (w *Walker) failWrite(rel string, kind FailureKind, err error) {
	w.fail(rel, kind, err)
	if _, statErr := os.Stat(w.cfg.Dest); statErr != nil {
		w.report.Fatal = fmt.Errorf("destination root lost: %w", statErr)
	}
}

// classifyCopyErr attributes a copy failure to the source or destination
// side by inspecting which path the underlying error names.
func classifyCopyErr(err error, srcPath string) FailureKind {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && pathErr.Path == srcPath {
		return classifyReadErr(err)
	}
	return classifyWriteErr(err)
}

func (w *Walker) emit(e event.Event) {
	if w.cfg.Events == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case w.cfg.Events <- e:
	default:
	}
}
