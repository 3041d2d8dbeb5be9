//go:build !windows

package diskspace

import (
	"path/filepath"
	"syscall"
)

// GetAvailableSpace returns the bytes available to the current user on the
// filesystem containing path. Returns 0 if unable to determine.
func GetAvailableSpace(path string) int64 {
	_, free := volumeSpace(filepath.Dir(path))
	return free
}

// volumeSpace returns total and user-available bytes for the filesystem
// mounted at (or containing) path. Both are 0 when the statfs call fails.
func volumeSpace(path string) (total, free int64) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, 0
	}
	// Bavail = blocks available to non-root users.
	return int64(stat.Blocks) * int64(stat.Bsize), int64(stat.Bavail) * int64(stat.Bsize)
}
