//go:build windows

package identity

import (
	"os"

	"golang.org/x/sys/windows"
)

// FromFileInfo extracts the file identity and hard-link count. Windows does
// not surface the volume serial or file index through os.FileInfo, so the
// file is opened briefly with backup semantics to query its handle.
func FromFileInfo(path string, _ os.FileInfo) (id FileID, nlink uint64, ok bool) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return FileID{}, 0, false
	}

	// FILE_FLAG_BACKUP_SEMANTICS is required to open directories;
	// no access rights are needed to read handle information.
	h, err := windows.CreateFile(p, 0,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil, windows.OPEN_EXISTING, windows.FILE_FLAG_BACKUP_SEMANTICS, 0)
	if err != nil {
		return FileID{}, 0, false
	}
	defer windows.CloseHandle(h)

	var info windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(h, &info); err != nil {
		return FileID{}, 0, false
	}

	id = FileID{
		Dev: uint64(info.VolumeSerialNumber),
		Ino: uint64(info.FileIndexHigh)<<32 | uint64(info.FileIndexLow),
	}
	return id, uint64(info.NumberOfLinks), true
}
