//go:build windows

package diskspace

import (
	"path/filepath"

	"golang.org/x/sys/windows"
)

// GetAvailableSpace returns the bytes available to the current user on the
// volume containing path. Returns 0 if unable to determine.
func GetAvailableSpace(path string) int64 {
	_, free := volumeSpace(filepath.Dir(path))
	return free
}

// volumeSpace returns total and user-available bytes for the volume
// containing path. Both are 0 when the API call fails.
func volumeSpace(path string) (total, free int64) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, 0
	}
	var freeBytesAvailable, totalBytes, totalFreeBytes uint64
	if err := windows.GetDiskFreeSpaceEx(p, &freeBytesAvailable, &totalBytes, &totalFreeBytes); err != nil {
		return 0, 0
	}
	return int64(totalBytes), int64(freeBytesAvailable)
}
