//go:build windows

package attr

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/windows"
)

func readAttributes(_ string, info os.FileInfo) Attributes {
	a := Attributes{
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
	}

	if stat, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		a.AccTime = time.Unix(0, stat.LastAccessTime.Nanoseconds())
		a.CreateTime = time.Unix(0, stat.CreationTime.Nanoseconds())

		if stat.FileAttributes&windows.FILE_ATTRIBUTE_READONLY != 0 {
			a.Flags = a.Flags.Set(Readonly)
		}
		if stat.FileAttributes&windows.FILE_ATTRIBUTE_HIDDEN != 0 {
			a.Flags = a.Flags.Set(Hidden)
		}
		if stat.FileAttributes&windows.FILE_ATTRIBUTE_ARCHIVE != 0 {
			a.Flags = a.Flags.Set(Archive)
		}
		if stat.FileAttributes&windows.FILE_ATTRIBUTE_SYSTEM != 0 {
			a.Flags = a.Flags.Set(System)
		}
	}

	return a
}

func supportsFlag(Flag, string) bool {
	// NTFS carries all four tracked flags natively.
	return true
}

func applyAttributes(dstPath string, a Attributes, isSymlink bool) Applied {
	var out Applied

	p, err := windows.UTF16PtrFromString(dstPath)
	if err != nil {
		out.Errs = append(out.Errs, fmt.Errorf("encode path: %w", err))
		return out
	}

	// Timestamps need a writable handle, and setting READONLY first would
	// block opening it: restore times, then stamp the final attribute bits.
	if err := setFileTimes(p, a, isSymlink); err != nil {
		out.Errs = append(out.Errs, err)
	}

	var bits uint32 = windows.FILE_ATTRIBUTE_NORMAL
	if a.Flags != 0 {
		bits = 0
		if a.Flags.Has(Readonly) {
			bits |= windows.FILE_ATTRIBUTE_READONLY
		}
		if a.Flags.Has(Hidden) {
			bits |= windows.FILE_ATTRIBUTE_HIDDEN
		}
		if a.Flags.Has(Archive) {
			bits |= windows.FILE_ATTRIBUTE_ARCHIVE
		}
		if a.Flags.Has(System) {
			bits |= windows.FILE_ATTRIBUTE_SYSTEM
		}
	}
	if err := windows.SetFileAttributes(p, bits); err != nil {
		out.Errs = append(out.Errs, fmt.Errorf("set attributes: %w", err))
	}

	return out
}

func setFileTimes(p *uint16, a Attributes, isSymlink bool) error {
	flags := uint32(windows.FILE_FLAG_BACKUP_SEMANTICS)
	if isSymlink {
		flags |= windows.FILE_FLAG_OPEN_REPARSE_POINT
	}

	h, err := windows.CreateFile(p, windows.FILE_WRITE_ATTRIBUTES,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil, windows.OPEN_EXISTING, flags, 0)
	if err != nil {
		return fmt.Errorf("open for times: %w", err)
	}
	defer windows.CloseHandle(h)

	var cft, aft, mft windows.Filetime
	if !a.CreateTime.IsZero() {
		cft = windows.NsecToFiletime(a.CreateTime.UnixNano())
	}
	atime := a.AccTime
	if atime.IsZero() {
		atime = a.ModTime
	}
	aft = windows.NsecToFiletime(atime.UnixNano())
	mft = windows.NsecToFiletime(a.ModTime.UnixNano())

	if err := windows.SetFileTime(h, &cft, &aft, &mft); err != nil {
		return fmt.Errorf("set times: %w", err)
	}
	return nil
}
