// Package archive implements the ZIP side of the file manager: packing,
// listing, extracting and in-place editing of .zip archives. Edits buffer
// the member list in memory and rewrite the archive through a temp file,
// so a failed or cancelled save never damages the original.
package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/twinpane/twinpane/internal/conflict"
	"github.com/twinpane/twinpane/internal/fserr"
	"github.com/twinpane/twinpane/internal/logging"
	"github.com/twinpane/twinpane/internal/models"
	"github.com/twinpane/twinpane/internal/pathutil"
)

// ProgressFunc receives percent complete (0-100) and the entry currently
// being processed.
type ProgressFunc func(percent int, currentItem string)

// Options tunes a single archive operation.
type Options struct {
	// Conflict decides what happens when extraction would overwrite an
	// existing file. Nil falls back to OnConflict.
	Conflict conflict.Handler

	// OnConflict is the blanket decision when no handler is set. The zero
	// value skips colliding entries.
	OnConflict conflict.Decision

	// Level selects the compression level for operations that write an
	// archive. The zero value is LevelStore; callers wanting Deflate pass
	// LevelNormal (the config default).
	Level CompressionLevel

	// Progress, when set, is invoked as entries complete.
	Progress ProgressFunc
}

func (o *Options) report(percent int, item string) {
	if o.Progress == nil {
		return
	}
	if percent > 100 {
		percent = 100
	}
	o.Progress(percent, item)
}

// Engine performs archive operations.
type Engine struct {
	log *logging.Logger
}

func NewEngine(log *logging.Logger) *Engine {
	if log == nil {
		log = logging.NewDefaultLogger()
	}
	return &Engine{log: log}
}

// ListEntries returns the members of the zip at archivePath, sorted by
// path. The archive is opened read-only and closed before returning.
func (e *Engine) ListEntries(archivePath string) ([]models.ArchiveEntry, error) {
	a, err := Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	return a.Entries(), nil
}

// CreateArchive packs sourcePaths into a new zip at archivePath. Each
// source lands at the archive root under its base name; directories are
// packed recursively. An existing file at archivePath is replaced only
// after the new archive is fully written.
func (e *Engine) CreateArchive(ctx context.Context, archivePath string, sourcePaths []string, opts Options) error {
	if len(sourcePaths) == 0 {
		return fmt.Errorf("create archive %s: no sources", archivePath)
	}
	a := New(archivePath)
	total := len(sourcePaths)
	for i, src := range sourcePaths {
		if err := ctx.Err(); err != nil {
			return fserr.Classify(err)
		}
		opts.report(i*100/total, filepath.Base(src))
		if err := a.AddPath(ctx, src, ""); err != nil {
			return err
		}
	}
	if err := a.SaveTo(ctx, archivePath, opts.Level); err != nil {
		return err
	}
	opts.report(100, "")
	e.log.Info().Str("path", archivePath).Int("entries", len(a.entries)).Msg("created archive")
	return nil
}

// AddToArchive inserts sourcePaths into an existing archive under prefix
// ("" for the root). Members whose key collides with a new entry are
// replaced. The archive on disk is rewritten atomically.
func (e *Engine) AddToArchive(ctx context.Context, archivePath string, sourcePaths []string, prefix string, opts Options) error {
	a, err := Open(archivePath)
	if err != nil {
		return err
	}
	defer a.Close()
	total := len(sourcePaths)
	for i, src := range sourcePaths {
		if err := ctx.Err(); err != nil {
			return fserr.Classify(err)
		}
		opts.report(i*100/total, filepath.Base(src))
		if err := a.AddPath(ctx, src, prefix); err != nil {
			return err
		}
	}
	if err := a.Save(ctx, opts.Level); err != nil {
		return err
	}
	opts.report(100, "")
	return nil
}

// DeleteEntries removes the named members (directories recursively) and
// rewrites the archive. A key that matches nothing fails the whole call
// before anything is written.
func (e *Engine) DeleteEntries(ctx context.Context, archivePath string, keys []string, opts Options) error {
	a, err := Open(archivePath)
	if err != nil {
		return err
	}
	defer a.Close()
	total := len(keys)
	for i, key := range keys {
		opts.report(i*100/total, key)
		if err := a.Remove([]string{key}); err != nil {
			return err
		}
	}
	if err := a.Save(ctx, opts.Level); err != nil {
		return err
	}
	opts.report(100, "")
	return nil
}

// ExtractAll unpacks every member of the archive into destDir, recreating
// the member tree. Collisions go through the conflict policy; per-entry
// failures are collected and extraction continues.
func (e *Engine) ExtractAll(ctx context.Context, archivePath, destDir string, opts Options) (models.BatchReport, error) {
	return e.extract(ctx, archivePath, nil, destDir, opts)
}

// ExtractEntries unpacks only the named members (directories recursively).
// Keys that match nothing are reported as ErrNotFound failures rather than
// silently skipped.
func (e *Engine) ExtractEntries(ctx context.Context, archivePath string, keys []string, destDir string, opts Options) (models.BatchReport, error) {
	return e.extract(ctx, archivePath, keys, destDir, opts)
}

func (e *Engine) extract(ctx context.Context, archivePath string, keys []string, destDir string, opts Options) (models.BatchReport, error) {
	var report models.BatchReport
	a, err := Open(archivePath)
	if err != nil {
		return report, err
	}
	defer a.Close()
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return report, fserr.Classifyf(err, "create %s", destDir)
	}

	selected := a.entries
	if keys != nil {
		selected, report = selectEntries(a, keys)
	}

	var totalBytes, doneBytes int64
	for _, en := range selected {
		totalBytes += en.size
	}

	for _, en := range selected {
		if err := ctx.Err(); err != nil {
			return report, fserr.Classify(err)
		}
		err := e.extractEntry(ctx, en, destDir, opts, &report)
		switch {
		case err == nil:
		case fserr.IsCancelled(err):
			return report, err
		default:
			e.log.Warn().Str("entry", en.key).Err(err).Msg("extract failed")
			report.Failures = append(report.Failures, models.ItemFailure{Path: en.key, Err: err})
		}
		doneBytes += en.size
		if totalBytes > 0 {
			opts.report(int(doneBytes*100/totalBytes), en.key)
		}
	}
	opts.report(100, "")
	return report, nil
}

// selectEntries resolves keys against the archive. Directory keys select
// their whole subtree. Missing keys land in the report as failures.
func selectEntries(a *Archive, keys []string) ([]*entry, models.BatchReport) {
	var report models.BatchReport
	var out []*entry
	seen := make(map[string]bool)
	for _, raw := range keys {
		key := normKey(raw)
		hit := false
		for _, en := range a.entries {
			if en.key == key || (len(en.key) > len(key) && en.key[:len(key)] == key && en.key[len(key)] == '/') {
				if !seen[en.key] {
					seen[en.key] = true
					out = append(out, en)
				}
				hit = true
			}
		}
		if !hit {
			report.Failures = append(report.Failures, models.ItemFailure{
				Path: raw,
				Err:  fmt.Errorf("%w: no such entry: %s", fserr.ErrNotFound, raw),
			})
		}
	}
	return out, report
}

func (e *Engine) extractEntry(ctx context.Context, en *entry, destDir string, opts Options, report *models.BatchReport) error {
	target := filepath.Join(destDir, filepath.FromSlash(en.key))
	// Reject entries that would escape destDir via .. components.
	if !pathutil.Contains(destDir, target) {
		return fmt.Errorf("entry %s escapes destination: %w", en.key, fserr.ErrAccessDenied)
	}
	if en.isDir {
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fserr.Classify(err)
		}
		report.Succeeded = append(report.Succeeded, target)
		return nil
	}
	if _, err := os.Lstat(target); err == nil {
		resolved, proceed := conflict.Resolve(target, filepath.Base(target), opts.Conflict, opts.OnConflict)
		if !proceed {
			report.Skipped = append(report.Skipped, target)
			return nil
		}
		target = resolved
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fserr.Classify(err)
	}
	if err := writeEntryFile(ctx, en, target); err != nil {
		return err
	}
	report.Succeeded = append(report.Succeeded, target)
	return nil
}

// writeEntryFile streams one member to target through a partial file so a
// failure mid-entry leaves no truncated result.
func writeEntryFile(ctx context.Context, en *entry, target string) error {
	r, err := en.zf.Open()
	if err != nil {
		return fserr.Classifyf(err, "read entry %s", en.key)
	}
	defer r.Close()

	tmp := target + partialSuffix
	mode := en.mode.Perm()
	if mode == 0 {
		mode = 0o644
	}
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fserr.Classify(err)
	}
	if err := copyChunked(ctx, f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return fserr.Classifyf(err, "extract %s", en.key)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fserr.Classify(err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fserr.Classify(err)
	}
	if !en.modTime.IsZero() {
		os.Chtimes(target, en.modTime, en.modTime)
	}
	return nil
}

const copyBufSize = 1 << 20

func copyChunked(ctx context.Context, dst io.Writer, src io.Reader) error {
	buf := make([]byte, copyBufSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}

// TestArchive verifies the archive's structure and every member's CRC.
// A file that is damaged but still parseable as a zip returns (false, nil);
// an unreadable file returns the underlying error.
func (e *Engine) TestArchive(archivePath string) (bool, error) {
	rc, err := zip.OpenReader(archivePath)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return false, nil
		}
		return false, fserr.Classifyf(err, "open archive %s", archivePath)
	}
	defer rc.Close()
	for _, zf := range rc.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		r, err := zf.Open()
		if err != nil {
			if errors.Is(err, zip.ErrFormat) || errors.Is(err, zip.ErrChecksum) || errors.Is(err, zip.ErrAlgorithm) {
				return false, nil
			}
			return false, fserr.Classifyf(err, "entry %s", zf.Name)
		}
		_, err = io.Copy(io.Discard, r)
		r.Close()
		if err != nil {
			if errors.Is(err, zip.ErrFormat) || errors.Is(err, zip.ErrChecksum) {
				return false, nil
			}
			return false, fserr.Classifyf(err, "entry %s", zf.Name)
		}
	}
	return true, nil
}
