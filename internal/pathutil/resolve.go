// Package pathutil provides path resolution helpers shared by the file and
// archive engines. Both panes and the CLI resolve user input through the
// same function so a path means the same thing regardless of entry point.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolve converts user input to an absolute path. Symlinks and junctions in
// the existing portion of the path are resolved, then any not-yet-existing
// components are appended verbatim. This handles destinations whose parent
// exists behind a link but whose final directory has not been created yet.
//
// An empty path resolves to the working directory. A leading ~ expands to
// the user's home directory.
func Resolve(path string) (string, error) {
	if path == "" {
		return os.Getwd()
	}

	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = home + path[1:]
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	// Fast path: the whole thing exists.
	resolved, err := filepath.EvalSymlinks(absPath)
	if err == nil {
		return resolved, nil
	}

	// Walk up to the deepest existing ancestor, resolve links there, then
	// re-append the non-existent remainder.
	current := absPath
	var remainder []string

	for {
		if _, err := os.Stat(current); err == nil {
			resolved, err := filepath.EvalSymlinks(current)
			if err != nil {
				resolved = current
			}
			for i := len(remainder) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, remainder[i])
			}
			return resolved, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return absPath, nil
		}
		remainder = append(remainder, filepath.Base(current))
		current = parent
	}
}

// Contains reports whether child is parent itself or lies underneath it.
// Both paths must already be absolute and cleaned. Used to reject copying
// a directory into itself.
func Contains(parent, child string) bool {
	parent = filepath.Clean(parent)
	child = filepath.Clean(child)
	if parent == child {
		return true
	}
	sep := string(filepath.Separator)
	if !strings.HasSuffix(parent, sep) {
		parent += sep
	}
	return strings.HasPrefix(child, parent)
}
