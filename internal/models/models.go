// Package models defines the value types shared across the twinpane engines.
// All types are plain snapshots: they are produced fresh on each query and
// never cached between operations.
package models

import "time"

// FileSystemItem represents one directory entry at the moment it was listed.
type FileSystemItem struct {
	Name    string    // Base name of the entry
	Path    string    // Full path on disk
	IsDir   bool      // True for directories
	Size    int64     // Size in bytes; meaningless for directories
	ModTime time.Time // Last modification time
	Hidden  bool      // Platform hidden attribute (dotfile on unix)
	System  bool      // Platform system attribute (windows only)
}

// ParentDirName is the name of the pseudo-entry pointing at the parent
// directory. It is only produced when explicitly requested and is excluded
// from content counts.
const ParentDirName = ".."

// IsParentRef reports whether the item is the parent-directory pseudo-entry.
func (i FileSystemItem) IsParentRef() bool {
	return i.Name == ParentDirName
}

// DriveItem represents a mounted volume.
type DriveItem struct {
	Root       string // Mount point / drive root
	Label      string // Volume label or filesystem type, best effort
	TotalBytes int64  // Total capacity; 0 if unknown
	FreeBytes  int64  // Bytes available to the current user; 0 if unknown
}

// ArchiveEntry represents one record inside an archive. Path is the
// forward-slash-separated key regardless of the host path separator.
type ArchiveEntry struct {
	Name           string    // Base name of the entry
	Path           string    // Entry key within the archive
	IsDir          bool      // True for directory records
	Size           int64     // Uncompressed size in bytes
	CompressedSize int64     // Stored size in bytes
	ModTime        time.Time // Entry modification time
}

// ItemFailure records one failed item of a bulk operation.
type ItemFailure struct {
	Path string // Source path of the failed item
	Err  error  // Classified error (see internal/fserr)
}

// BatchReport aggregates the per-item outcomes of a bulk operation.
// Bulk operations keep going after a per-item failure, so partial success
// is the normal case, not an exception.
type BatchReport struct {
	Succeeded []string      // Items that completed
	Skipped   []string      // Items skipped by conflict policy
	Failures  []ItemFailure // Items that failed, with their errors
}

// AllSucceeded reports whether every item completed without a skip or failure.
func (r BatchReport) AllSucceeded() bool {
	return len(r.Skipped) == 0 && len(r.Failures) == 0
}

// Err returns the first failure's error, or nil. Convenient for callers
// that only care whether anything went wrong.
func (r BatchReport) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return r.Failures[0].Err
}
