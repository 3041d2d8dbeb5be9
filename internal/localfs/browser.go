package localfs

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/twinpane/twinpane/internal/models"
)

// ListDirectory returns the immediate children of a directory as fresh
// snapshots, filtered by options. Ordering follows the filesystem's native
// order and is stable within a single call. Nothing is cached: every call
// re-reads the directory.
func ListDirectory(path string, opts ListOptions) ([]models.FileSystemItem, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	result := make([]models.FileSystemItem, 0, len(entries)+1)

	if opts.IncludeParent {
		if parent := filepath.Dir(path); parent != path {
			result = append(result, models.FileSystemItem{
				Name:  models.ParentDirName,
				Path:  parent,
				IsDir: true,
			})
		}
	}

	for _, entry := range entries {
		name := entry.Name()
		full := filepath.Join(path, name)

		hidden, system := platformAttrs(full)
		hidden = hidden || IsHiddenName(name)

		if !opts.IncludeHidden && (hidden || system) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Entry vanished or is unstat-able; skip rather than fail
			// the whole listing.
			continue
		}

		result = append(result, models.FileSystemItem{
			Name:    name,
			Path:    full,
			IsDir:   entry.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Hidden:  hidden,
			System:  system,
		})
	}

	return result, nil
}

// WalkFunc is the callback signature for Walk.
// Return filepath.SkipDir to skip a directory, or any other error to stop.
type WalkFunc func(item models.FileSystemItem) error

// Walk traverses a directory tree depth-first, calling fn for each file and
// directory. Directories are visited before their contents.
func Walk(root string, opts WalkOptions, fn WalkFunc) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entry; skip it and keep walking.
			return nil
		}

		name := d.Name()

		// IsHidden also consults platform attributes, so the walk filter
		// matches ListDirectory's.
		if !opts.IncludeHidden && IsHidden(path) {
			if d.IsDir() && opts.SkipHiddenDirs {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		hidden, system := platformAttrs(path)
		return fn(models.FileSystemItem{
			Name:    name,
			Path:    path,
			IsDir:   d.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Hidden:  hidden || IsHiddenName(name),
			System:  system,
		})
	})
}

// WalkFiles is a convenience wrapper around Walk that only visits regular
// files. Useful for collecting files before a bulk copy or archive build.
func WalkFiles(root string, opts WalkOptions, fn WalkFunc) error {
	return Walk(root, opts, func(item models.FileSystemItem) error {
		if item.IsDir {
			return nil
		}
		return fn(item)
	})
}

// TreeSize returns the total byte count and file count under path. A plain
// file counts as itself. Used by the engines to size progress reporting
// before a bulk operation starts.
func TreeSize(path string) (bytes int64, files int, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, err
	}
	if !info.IsDir() {
		return info.Size(), 1, nil
	}
	err = WalkFiles(path, WalkOptions{IncludeHidden: true}, func(item models.FileSystemItem) error {
		bytes += item.Size
		files++
		return nil
	})
	return bytes, files, err
}
