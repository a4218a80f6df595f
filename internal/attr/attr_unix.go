//go:build !windows

package attr

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

func readAttributes(path string, info os.FileInfo) Attributes {
	a := Attributes{
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
	}

	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		a.UID = stat.Uid
		a.GID = stat.Gid
		a.HaveOwner = true
		a.AccTime = atimeFromStat(stat)
	}

	// Unix carries the tracked flags by convention, not metadata: a file is
	// hidden by its dot prefix and readonly when no write bit is set.
	if strings.HasPrefix(filepath.Base(path), ".") {
		a.Flags = a.Flags.Set(Hidden)
	}
	if info.Mode()&0o222 == 0 && info.Mode()&os.ModeSymlink == 0 {
		a.Flags = a.Flags.Set(Readonly)
	}

	return a
}

func supportsFlag(f Flag, baseName string) bool {
	switch f {
	case Readonly:
		return true
	case Hidden:
		// Hidden is a naming convention here; an entry whose name already
		// starts with "." round-trips for free, anything else has no
		// analogue short of renaming the destination.
		return strings.HasPrefix(baseName, ".")
	default:
		// Archive and System have no Unix analogue.
		return false
	}
}

func applyAttributes(dstPath string, a Attributes, isSymlink bool) Applied {
	var out Applied

	for _, f := range []Flag{Readonly, Hidden, Archive, System} {
		if a.Flags.Has(f) && !supportsFlag(f, filepath.Base(dstPath)) {
			out.Dropped = append(out.Dropped, f)
		}
	}

	// Symlink modes are immutable on Linux; skip chmod for links.
	if !isSymlink {
		mode := a.Mode.Perm()
		if a.Flags.Has(Readonly) {
			mode &^= 0o222
		}
		if err := os.Chmod(dstPath, mode); err != nil {
			out.Errs = append(out.Errs, fmt.Errorf("chmod: %w", err))
		}
	}

	// Ownership is best-effort: fails without CAP_CHOWN. A failed chown
	// only degrades the entry when the destination owner actually differs,
	// so unprivileged same-owner copies stay clean.
	if a.HaveOwner {
		if err := unix.Lchown(dstPath, int(a.UID), int(a.GID)); err != nil {
			var st unix.Stat_t
			if lerr := unix.Lstat(dstPath, &st); lerr != nil || st.Uid != a.UID || st.Gid != a.GID {
				out.Errs = append(out.Errs, fmt.Errorf("lchown: %w", err))
			}
		}
	}

	// Timestamps last.
	atime := a.AccTime
	if atime.IsZero() {
		atime = a.ModTime
	}
	times := []unix.Timespec{
		unix.NsecToTimespec(atime.UnixNano()),
		unix.NsecToTimespec(a.ModTime.UnixNano()),
	}
	flags := 0
	if isSymlink {
		flags = unix.AT_SYMLINK_NOFOLLOW
	}
	if err := unix.UtimesNanoAt(unix.AT_FDCWD, dstPath, times, flags); err != nil {
		out.Errs = append(out.Errs, fmt.Errorf("utimensat: %w", err))
	}

	return out
}
