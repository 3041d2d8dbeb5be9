package fileops

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/twinpane/twinpane/internal/conflict"
	"github.com/twinpane/twinpane/internal/diskspace"
	"github.com/twinpane/twinpane/internal/fserr"
	"github.com/twinpane/twinpane/internal/localfs"
	"github.com/twinpane/twinpane/internal/models"
	"github.com/twinpane/twinpane/internal/pathutil"
)

// Copy copies each source path into destDir, preserving names and directory
// subtrees. Sources are processed in order; a per-item failure is recorded
// and the batch continues. The returned error is non-nil only when the
// batch could not run at all (bad destination, insufficient space) or was
// cancelled.
func (e *Engine) Copy(ctx context.Context, sources []string, destDir string, opts Options) (models.BatchReport, error) {
	var report models.BatchReport

	dest, err := e.prepareDest(destDir)
	if err != nil {
		return report, err
	}

	// Pre-scan for byte-weighted progress and the up-front space check.
	// Sources that fail to scan will fail again, properly, when copied.
	tr := &progressTracker{opts: opts, totalItems: len(sources)}
	for _, src := range sources {
		if resolved, rerr := pathutil.Resolve(src); rerr == nil {
			if bytes, _, terr := localfs.TreeSize(resolved); terr == nil {
				tr.totalBytes += bytes
			}
		}
	}
	if err := diskspace.CheckAvailableSpace(filepath.Join(dest, "x"), tr.totalBytes, opts.margin()); err != nil {
		return report, err
	}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return report, fserr.Classify(err)
		}
		e.copyItem(ctx, src, dest, opts, tr, &report)
	}

	opts.report(100, "")
	return report, nil
}

// Move transfers each source into destDir and removes the original.
// Same-volume moves use an atomic rename; everything else degrades to
// copy-then-delete. The source of an item is only deleted after its copy
// fully materialized, so a failure partway through one item never loses
// data.
func (e *Engine) Move(ctx context.Context, sources []string, destDir string, opts Options) (models.BatchReport, error) {
	var report models.BatchReport

	dest, err := e.prepareDest(destDir)
	if err != nil {
		return report, err
	}

	tr := &progressTracker{opts: opts, totalItems: len(sources)}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return report, fserr.Classify(err)
		}

		resolved, err := pathutil.Resolve(src)
		if err != nil {
			report.Failures = append(report.Failures, models.ItemFailure{Path: src, Err: fserr.Classify(err)})
			continue
		}
		info, err := os.Lstat(resolved)
		if err != nil {
			report.Failures = append(report.Failures, models.ItemFailure{Path: src, Err: fserr.Classify(err)})
			continue
		}

		target := filepath.Join(dest, filepath.Base(resolved))
		if info.IsDir() && pathutil.Contains(resolved, target) {
			report.Failures = append(report.Failures, models.ItemFailure{
				Path: src,
				Err:  fmt.Errorf("move %s: destination lies inside the source directory", src),
			})
			continue
		}

		if _, err := os.Lstat(target); err == nil {
			target = e.resolveOrSkip(target, filepath.Base(resolved), opts, src, &report, tr)
			if target == "" {
				continue
			}
		}

		// Same-volume fast path. Rename only when the final target slot is
		// free; renaming over an occupied path has platform-dependent
		// semantics we do not want.
		if _, err := os.Lstat(target); os.IsNotExist(err) {
			if os.Rename(resolved, target) == nil {
				report.Succeeded = append(report.Succeeded, src)
				tr.finishItem(src)
				e.log.Debug().Str("from", resolved).Str("to", target).Msg("moved via rename")
				continue
			}
		}

		// Cross-volume (or occupied-target overwrite): copy then delete.
		failuresBefore := len(report.Failures) + len(report.Skipped)
		e.copyResolvedItem(ctx, src, resolved, info, target, opts, tr, &report)
		if len(report.Failures)+len(report.Skipped) != failuresBefore {
			// The copy did not fully materialize; keep the source.
			continue
		}
		if err := e.removeTree(ctx, resolved, &progressTracker{}); err != nil {
			if fserr.IsCancelled(err) {
				return report, fserr.Classify(err)
			}
			// Destination is complete; only the source cleanup failed.
			report.Failures = append(report.Failures, models.ItemFailure{
				Path: src,
				Err:  fserr.Classifyf(err, "remove source after move"),
			})
			// Copy succeeded: drop it from Succeeded since the move as a
			// whole did not complete.
			report.Succeeded = report.Succeeded[:len(report.Succeeded)-1]
		}
	}

	opts.report(100, "")
	return report, nil
}

// prepareDest resolves the destination directory and verifies it exists and
// is a directory.
func (e *Engine) prepareDest(destDir string) (string, error) {
	dest, err := pathutil.Resolve(destDir)
	if err != nil {
		return "", fserr.Classifyf(err, "destination %s", destDir)
	}
	info, err := os.Stat(dest)
	if err != nil {
		return "", fserr.Classifyf(err, "destination %s", destDir)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("destination %s: not a directory", destDir)
	}
	return dest, nil
}

// resolveOrSkip runs conflict resolution for an occupied target. Returns the
// final target path, or "" when the item was skipped (already recorded).
func (e *Engine) resolveOrSkip(existing, incomingName string, opts Options, src string, report *models.BatchReport, tr *progressTracker) string {
	target, proceed := conflict.Resolve(existing, incomingName, opts.Conflict, opts.OnConflict)
	if !proceed {
		report.Skipped = append(report.Skipped, src)
		tr.finishItem(src)
		e.log.Debug().Str("path", src).Msg("skipped on conflict")
		return ""
	}
	return target
}

// copyItem copies one top-level source into dest, recording the outcome.
func (e *Engine) copyItem(ctx context.Context, src, dest string, opts Options, tr *progressTracker, report *models.BatchReport) {
	resolved, err := pathutil.Resolve(src)
	if err != nil {
		report.Failures = append(report.Failures, models.ItemFailure{Path: src, Err: fserr.Classify(err)})
		return
	}
	info, err := os.Lstat(resolved)
	if err != nil {
		report.Failures = append(report.Failures, models.ItemFailure{Path: src, Err: fserr.Classify(err)})
		return
	}

	target := filepath.Join(dest, filepath.Base(resolved))
	if info.IsDir() && pathutil.Contains(resolved, target) {
		report.Failures = append(report.Failures, models.ItemFailure{
			Path: src,
			Err:  fmt.Errorf("copy %s: destination lies inside the source directory", src),
		})
		return
	}

	if existing, err := os.Lstat(target); err == nil {
		if info.IsDir() && existing.IsDir() {
			// Directory onto directory merges; conflicts surface per file
			// inside the subtree.
		} else {
			target = e.resolveOrSkip(target, filepath.Base(resolved), opts, src, report, tr)
			if target == "" {
				return
			}
		}
	}

	e.copyResolvedItem(ctx, src, resolved, info, target, opts, tr, report)
}

// copyResolvedItem copies a stat-ed source to an exact target path.
func (e *Engine) copyResolvedItem(ctx context.Context, src, resolved string, info os.FileInfo, target string, opts Options, tr *progressTracker, report *models.BatchReport) {
	var err error
	if info.IsDir() {
		err = e.copyTree(ctx, resolved, target, opts, tr, report)
	} else {
		tr.note(filepath.Base(resolved))
		err = e.copyFile(ctx, resolved, target, info, tr)
	}
	if err != nil {
		report.Failures = append(report.Failures, models.ItemFailure{Path: src, Err: fserr.Classify(err)})
		if !fserr.IsCancelled(err) {
			e.log.Warn().Str("path", src).Err(err).Msg("copy failed")
		}
		return
	}
	report.Succeeded = append(report.Succeeded, src)
	tr.finishItem(src)
}

// copyTree recursively copies a directory. The destination directory is
// created (or merged into) and every immediate child recursed, preserving
// the full subtree structure. Per-file conflicts inside a merged tree go
// through the same resolution as top-level ones.
func (e *Engine) copyTree(ctx context.Context, src, dst string, opts Options, tr *progressTracker, report *models.BatchReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		childSrc := filepath.Join(src, entry.Name())
		childDst := filepath.Join(dst, entry.Name())

		info, err := entry.Info()
		if err != nil {
			return err
		}

		if entry.IsDir() {
			if err := e.copyTree(ctx, childSrc, childDst, opts, tr, report); err != nil {
				return err
			}
			continue
		}

		if _, err := os.Lstat(childDst); err == nil {
			resolved, proceed := conflict.Resolve(childDst, entry.Name(), opts.Conflict, opts.OnConflict)
			if !proceed {
				report.Skipped = append(report.Skipped, childSrc)
				continue
			}
			childDst = resolved
		}

		tr.note(entry.Name())
		if err := e.copyFile(ctx, childSrc, childDst, info, tr); err != nil {
			return err
		}
	}
	return nil
}

// copyFile streams src to dst through a partial-suffixed sibling, renaming
// into place only after all bytes landed. Cancellation or failure removes
// the partial file, so dst is never left half-written under its real name.
// Timestamps are preserved.
func (e *Engine) copyFile(ctx context.Context, src, dst string, info os.FileInfo, tr *progressTracker) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	partial := dst + partialSuffix
	out, err := os.OpenFile(partial, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	cleanup := func() {
		out.Close()
		os.Remove(partial)
	}

	buf := make([]byte, copyBufSize)
	for {
		if err := ctx.Err(); err != nil {
			cleanup()
			return err
		}

		n, rerr := in.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				cleanup()
				return werr
			}
			tr.addBytes(int64(n), info.Name())
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			cleanup()
			return rerr
		}
	}

	if err := out.Close(); err != nil {
		os.Remove(partial)
		return err
	}
	if err := os.Rename(partial, dst); err != nil {
		os.Remove(partial)
		return err
	}
	// Metadata after the bytes: preserve the source modification time.
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
