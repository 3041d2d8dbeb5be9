// Package localfs provides local filesystem listing and traversal for the
// twinpane engines. Hidden-entry detection, directory listing, and walking
// live here so panes, engines, and CLI behave identically.
package localfs

import (
	"path/filepath"
	"strings"
)

// IsHidden returns true if the entry at the given path is hidden.
// The path can be relative or absolute.
func IsHidden(path string) bool {
	if IsHiddenName(filepath.Base(path)) {
		return true
	}
	hidden, _ := platformAttrs(path)
	return hidden
}

// IsHiddenName returns true if the bare filename represents a hidden entry
// by naming convention (leading dot). Special entries "." and ".." are not
// considered hidden.
func IsHiddenName(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}
