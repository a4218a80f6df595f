//go:build windows

package platform

import (
	"fmt"
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

// IsJunction reports whether path is an NTFS junction (mount point reparse
// tag). Symbolic links carry a different tag and return false.
func IsJunction(path string) bool {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false
	}

	var fd windows.Win32finddata
	h, err := windows.FindFirstFile(p, &fd)
	if err != nil {
		return false
	}
	windows.FindClose(h)

	return fd.FileAttributes&windows.FILE_ATTRIBUTE_REPARSE_POINT != 0 &&
		fd.Reserved0 == windows.IO_REPARSE_TAG_MOUNT_POINT
}

// ReadJunction returns the junction's raw substitute target, unresolved.
func ReadJunction(path string) (string, error) {
	h, err := openReparsePoint(path, windows.GENERIC_READ)
	if err != nil {
		return "", err
	}
	defer windows.CloseHandle(h)

	buf := make([]byte, windows.MAXIMUM_REPARSE_DATA_BUFFER_SIZE)
	var returned uint32
	err = windows.DeviceIoControl(h, windows.FSCTL_GET_REPARSE_POINT,
		nil, 0, &buf[0], uint32(len(buf)), &returned, nil)
	if err != nil {
		return "", fmt.Errorf("get reparse point %s: %w", path, err)
	}

	rdb := (*windows.REPARSE_DATA_BUFFER)(unsafe.Pointer(&buf[0]))
	if rdb.ReparseTag != windows.IO_REPARSE_TAG_MOUNT_POINT {
		return "", fmt.Errorf("%s: not a junction", path)
	}

	mp := (*windows.MountPointReparseBuffer)(unsafe.Pointer(&rdb.DUMMYUNIONNAME))
	target := mp.Path()

	// Strip the NT namespace prefix the filesystem stores.
	return strings.TrimPrefix(target, `\??\`), nil
}

// CreateJunction creates an NTFS junction at path pointing at target.
// target must be an absolute path; the directory backing the junction is
// created first, as mount points attach to an existing directory.
func CreateJunction(path, target string) error {
	if err := os.Mkdir(path, 0o777); err != nil && !os.IsExist(err) {
		return fmt.Errorf("create junction dir %s: %w", path, err)
	}

	h, err := openReparsePoint(path, windows.GENERIC_WRITE)
	if err != nil {
		return err
	}
	defer windows.CloseHandle(h)

	substitute := target
	if !strings.HasPrefix(substitute, `\??\`) {
		substitute = `\??\` + substitute
	}

	subU, err := windows.UTF16FromString(substitute)
	if err != nil {
		return fmt.Errorf("encode target: %w", err)
	}
	printU, err := windows.UTF16FromString(target)
	if err != nil {
		return fmt.Errorf("encode target: %w", err)
	}
	// Drop the NUL terminators; lengths below are in bytes without them.
	subU = subU[:len(subU)-1]
	printU = printU[:len(printU)-1]

	subBytes := uint16(len(subU) * 2)
	printBytes := uint16(len(printU) * 2)

	// REPARSE_DATA_BUFFER header + MountPointReparseBuffer with both names,
	// each NUL-terminated, laid out back to back in PathBuffer.
	const headerSize = 8
	const mpFixedSize = 8
	dataLen := mpFixedSize + int(subBytes) + 2 + int(printBytes) + 2

	buf := make([]byte, headerSize+dataLen)
	le := func(off int, v uint32) {
		buf[off] = byte(v)
		buf[off+1] = byte(v >> 8)
		buf[off+2] = byte(v >> 16)
		buf[off+3] = byte(v >> 24)
	}
	le16 := func(off int, v uint16) {
		buf[off] = byte(v)
		buf[off+1] = byte(v >> 8)
	}

	le(0, windows.IO_REPARSE_TAG_MOUNT_POINT)
	le16(4, uint16(dataLen)) // ReparseDataLength
	le16(8, 0)               // SubstituteNameOffset
	le16(10, subBytes)       // SubstituteNameLength
	le16(12, subBytes+2)     // PrintNameOffset
	le16(14, printBytes)     // PrintNameLength

	off := headerSize + mpFixedSize
	for _, u := range subU {
		le16(off, u)
		off += 2
	}
	off += 2 // NUL
	for _, u := range printU {
		le16(off, u)
		off += 2
	}

	var returned uint32
	err = windows.DeviceIoControl(h, windows.FSCTL_SET_REPARSE_POINT,
		&buf[0], uint32(len(buf)), nil, 0, &returned, nil)
	if err != nil {
		return fmt.Errorf("set reparse point %s: %w", path, err)
	}
	return nil
}

func openReparsePoint(path string, access uint32) (windows.Handle, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, fmt.Errorf("encode path: %w", err)
	}
	h, err := windows.CreateFile(p, access,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil, windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS|windows.FILE_FLAG_OPEN_REPARSE_POINT, 0)
	if err != nil {
		return 0, fmt.Errorf("open reparse point %s: %w", path, err)
	}
	return h, nil
}
