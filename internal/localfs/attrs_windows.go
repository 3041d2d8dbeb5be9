//go:build windows

package localfs

import "golang.org/x/sys/windows"

// platformAttrs returns the hidden/system attribute bits for a path.
// Unreadable paths report neither bit; the caller already handles stat
// failures separately.
func platformAttrs(path string) (hidden, system bool) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false, false
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return false, false
	}
	return attrs&windows.FILE_ATTRIBUTE_HIDDEN != 0,
		attrs&windows.FILE_ATTRIBUTE_SYSTEM != 0
}
