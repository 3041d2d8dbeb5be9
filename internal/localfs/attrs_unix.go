//go:build !windows

package localfs

// platformAttrs returns the hidden/system attributes for a path.
// Unix has no attribute bits; hiddenness is purely the dotfile convention
// and nothing is "system".
func platformAttrs(path string) (hidden, system bool) {
	return false, false
}
