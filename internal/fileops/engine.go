// Package fileops implements the bulk file-operation engine: copy, move,
// delete, rename and directory management with progress reporting,
// cooperative cancellation and conflict resolution.
//
// Engine calls are synchronous and process their path list sequentially.
// Parallelism across disjoint trees belongs to the caller (see
// internal/transfer). Bulk operations keep going after a per-item failure
// and aggregate outcomes into a BatchReport.
package fileops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/twinpane/twinpane/internal/diskspace"
	"github.com/twinpane/twinpane/internal/fserr"
	"github.com/twinpane/twinpane/internal/localfs"
	"github.com/twinpane/twinpane/internal/logging"
	"github.com/twinpane/twinpane/internal/models"
	"github.com/twinpane/twinpane/internal/pathutil"
)

// partialSuffix marks in-flight destination files. A file carrying this
// suffix is never a valid result: it is renamed into place on success and
// removed on failure or cancellation.
const partialSuffix = ".twinpane-partial"

// copyBufSize is the chunk size for streaming copies. Cancellation is
// checked between chunks.
const copyBufSize = 1024 * 1024

// Engine performs filesystem operations. Safe for concurrent use as long as
// concurrent calls target disjoint source/destination trees.
type Engine struct {
	log *logging.Logger
}

// NewEngine creates a file operation engine.
func NewEngine(log *logging.Logger) *Engine {
	if log == nil {
		log = logging.NewDefaultLogger()
	}
	return &Engine{log: log}
}

// GetDirectoryContents lists the immediate children of path as fresh
// snapshots. Hidden and system entries are filtered unless showHidden is
// set. A ".." pseudo-entry is prepended when path has a parent.
func (e *Engine) GetDirectoryContents(path string, showHidden bool) ([]models.FileSystemItem, error) {
	resolved, err := pathutil.Resolve(path)
	if err != nil {
		return nil, fserr.Classifyf(err, "list %s", path)
	}
	items, err := localfs.ListDirectory(resolved, localfs.ListOptions{
		IncludeHidden: showHidden,
		IncludeParent: true,
	})
	if err != nil {
		return nil, fserr.Classifyf(err, "list %s", path)
	}
	return items, nil
}

// GetDrives enumerates mounted volumes. Never empty on a functioning host.
func (e *Engine) GetDrives() ([]models.DriveItem, error) {
	drives := diskspace.ListDrives()
	if len(drives) == 0 {
		return nil, fmt.Errorf("no mounted volumes visible")
	}
	return drives, nil
}

// CreateDirectory creates path and all missing intermediate segments.
// A path that already exists as a directory is a no-op; a non-directory
// entry occupying the path is an error.
func (e *Engine) CreateDirectory(path string) error {
	resolved, err := pathutil.Resolve(path)
	if err != nil {
		return fserr.Classifyf(err, "mkdir %s", path)
	}
	if info, err := os.Stat(resolved); err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("mkdir %s: %w: path occupied by a file", path, fserr.ErrAlreadyExists)
	}
	if err := os.MkdirAll(resolved, 0755); err != nil {
		return fserr.Classifyf(err, "mkdir %s", path)
	}
	e.log.Debug().Str("path", resolved).Msg("created directory")
	return nil
}

// Rename moves the entry at oldPath to newPath atomically. After a
// successful return the entry exists only at newPath; on failure oldPath is
// unchanged. Directory renames carry all descendants implicitly.
func (e *Engine) Rename(oldPath, newPath string) error {
	oldResolved, err := pathutil.Resolve(oldPath)
	if err != nil {
		return fserr.Classifyf(err, "rename %s", oldPath)
	}
	newResolved, err := pathutil.Resolve(newPath)
	if err != nil {
		return fserr.Classifyf(err, "rename %s", oldPath)
	}
	if _, err := os.Stat(newResolved); err == nil {
		return fmt.Errorf("rename %s: %w: %s", oldPath, fserr.ErrAlreadyExists, newPath)
	}
	if err := os.Rename(oldResolved, newResolved); err != nil {
		return fserr.Classifyf(err, "rename %s", oldPath)
	}
	e.log.Debug().Str("from", oldResolved).Str("to", newResolved).Msg("renamed")
	return nil
}

// Delete removes the given paths. With permanent set, files are removed
// directly and directories recursively; otherwise items move to the
// platform trash. Already-absent paths count as success (idempotent).
// Cancellation is checked between entries; per-item failures are aggregated
// and do not stop the batch.
func (e *Engine) Delete(ctx context.Context, paths []string, permanent bool, opts Options) (models.BatchReport, error) {
	var report models.BatchReport

	tr := &progressTracker{opts: opts, totalItems: len(paths)}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return report, fserr.Classify(err)
		}

		resolved, err := pathutil.Resolve(p)
		if err != nil {
			report.Failures = append(report.Failures, models.ItemFailure{Path: p, Err: fserr.Classify(err)})
			continue
		}

		if _, err := os.Lstat(resolved); os.IsNotExist(err) {
			// Already gone; deletion is idempotent at the top level.
			report.Succeeded = append(report.Succeeded, p)
			tr.finishItem(p)
			continue
		}

		if permanent {
			err = e.removeTree(ctx, resolved, tr)
		} else {
			err = trashPut(resolved)
		}
		if err != nil {
			if fserr.IsCancelled(err) {
				return report, fserr.Classify(err)
			}
			report.Failures = append(report.Failures, models.ItemFailure{Path: p, Err: fserr.Classify(err)})
			e.log.Warn().Str("path", p).Err(err).Msg("delete failed")
			continue
		}
		report.Succeeded = append(report.Succeeded, p)
		tr.finishItem(p)
	}

	opts.report(100, "")
	return report, nil
}

// removeTree deletes path depth-first with a cancellation check per entry.
func (e *Engine) removeTree(ctx context.Context, path string, tr *progressTracker) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := e.removeTree(ctx, filepath.Join(path, entry.Name()), tr); err != nil {
				return err
			}
		}
	}

	if err := os.Remove(path); err != nil {
		return err
	}
	tr.note(info.Name())
	return nil
}
