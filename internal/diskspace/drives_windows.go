//go:build windows

package diskspace

import (
	"golang.org/x/sys/windows"

	"github.com/twinpane/twinpane/internal/models"
)

// ListDrives enumerates logical drives fresh on every call, with volume
// labels and space figures where the drive is ready. Unready drives (empty
// card readers, disconnected network shares) are skipped.
func ListDrives() []models.DriveItem {
	buf := make([]uint16, 254)
	n, err := windows.GetLogicalDriveStrings(uint32(len(buf)), &buf[0])
	if err != nil || n == 0 {
		return nil
	}

	var drives []models.DriveItem
	for _, root := range splitDriveStrings(buf[:n]) {
		total, free := volumeSpace(root)
		if total == 0 {
			// Drive not ready; leave it out rather than show a dead entry.
			continue
		}
		drives = append(drives, models.DriveItem{
			Root:       root,
			Label:      volumeLabel(root),
			TotalBytes: total,
			FreeBytes:  free,
		})
	}
	return drives
}

// splitDriveStrings decodes the double-NUL-terminated UTF-16 list returned
// by GetLogicalDriveStrings ("C:\\\x00D:\\\x00\x00").
func splitDriveStrings(buf []uint16) []string {
	var roots []string
	start := 0
	for i, c := range buf {
		if c == 0 {
			if i > start {
				roots = append(roots, windows.UTF16ToString(buf[start:i]))
			}
			start = i + 1
		}
	}
	return roots
}

func volumeLabel(root string) string {
	p, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return ""
	}
	label := make([]uint16, windows.MAX_PATH+1)
	err = windows.GetVolumeInformation(p, &label[0], uint32(len(label)), nil, nil, nil, nil, 0)
	if err != nil {
		return ""
	}
	return windows.UTF16ToString(label)
}
