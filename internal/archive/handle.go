package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/twinpane/twinpane/internal/fserr"
	"github.com/twinpane/twinpane/internal/models"
)

// partialSuffix marks an in-flight rewrite of an archive. Saves go to this
// temp file first and only replace the real archive on success, so a crash
// or cancellation never leaves a half-written zip behind.
const partialSuffix = ".twinpane-partial"

// entry is one buffered archive member. Exactly one of zf and diskPath is
// set for file entries; directory entries carry neither.
type entry struct {
	key     string // forward-slash path inside the archive, no trailing slash
	isDir   bool
	size    int64
	csize   int64
	mode    fs.FileMode
	modTime time.Time

	zf       *zip.File // existing member of the source archive
	diskPath string    // file on disk queued for addition
}

// Archive is an open zip with its member list buffered in memory.
// Mutations (Add, Remove) touch only the buffer; nothing is written to
// disk until Save or SaveTo.
type Archive struct {
	path    string
	rc      *zip.ReadCloser
	entries []*entry
	index   map[string]int
}

// normKey normalizes an archive member path to the canonical form used as
// map key: forward slashes, no leading "./" or "/", no trailing slash.
func normKey(name string) string {
	k := strings.ReplaceAll(name, "\\", "/")
	k = strings.TrimPrefix(k, "./")
	k = strings.TrimPrefix(k, "/")
	return strings.TrimSuffix(k, "/")
}

// Open reads the member list of the zip at path. The file stays open for
// streaming existing members during Save; callers must Close.
func Open(p string) (*Archive, error) {
	rc, err := zip.OpenReader(p)
	if err != nil {
		return nil, fserr.Classifyf(err, "open archive %s", p)
	}
	a := &Archive{path: p, rc: rc, index: make(map[string]int)}
	for _, zf := range rc.File {
		key := normKey(zf.Name)
		if key == "" {
			continue
		}
		e := &entry{
			key:     key,
			isDir:   zf.FileInfo().IsDir(),
			size:    int64(zf.UncompressedSize64),
			csize:   int64(zf.CompressedSize64),
			mode:    zf.Mode(),
			modTime: zf.Modified,
			zf:      zf,
		}
		a.put(e)
	}
	return a, nil
}

// New returns an empty in-memory archive that will be written to path on
// Save. No file is created until then.
func New(p string) *Archive {
	return &Archive{path: p, index: make(map[string]int)}
}

func (a *Archive) put(e *entry) {
	if i, ok := a.index[e.key]; ok {
		a.entries[i] = e
		return
	}
	a.index[e.key] = len(a.entries)
	a.entries = append(a.entries, e)
}

// Close releases the underlying zip file. Buffered changes not yet saved
// are discarded.
func (a *Archive) Close() error {
	if a.rc == nil {
		return nil
	}
	err := a.rc.Close()
	a.rc = nil
	return err
}

// Path returns the archive's on-disk location.
func (a *Archive) Path() string { return a.path }

// Entries lists the buffered members sorted by key. Compressed sizes are
// zero for members queued from disk but not yet saved.
func (a *Archive) Entries() []models.ArchiveEntry {
	out := make([]models.ArchiveEntry, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, models.ArchiveEntry{
			Name:           path.Base(e.key),
			Path:           e.key,
			IsDir:          e.isDir,
			Size:           e.size,
			CompressedSize: e.csize,
			ModTime:        e.modTime,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Lookup reports whether key names a buffered member.
func (a *Archive) Lookup(key string) bool {
	_, ok := a.index[normKey(key)]
	return ok
}

// AddPath queues the file or directory at src under prefix. A file lands
// at prefix/base; a directory is walked and each descendant lands at
// prefix/base/relative. An existing member with the same key is replaced.
func (a *Archive) AddPath(ctx context.Context, src, prefix string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return fserr.Classifyf(err, "stat %s", src)
	}
	base := normKey(path.Join(normKey(prefix), filepath.Base(src)))
	if !info.IsDir() {
		a.put(fileEntry(base, src, info))
		return nil
	}
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fserr.Classify(err)
		}
		if err := ctx.Err(); err != nil {
			return fserr.Classify(err)
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		key := base
		if rel != "." {
			key = path.Join(base, filepath.ToSlash(rel))
		}
		fi, err := d.Info()
		if err != nil {
			return fserr.Classify(err)
		}
		if d.IsDir() {
			a.put(&entry{key: key, isDir: true, mode: fi.Mode(), modTime: fi.ModTime()})
			return nil
		}
		a.put(fileEntry(key, p, fi))
		return nil
	})
}

func fileEntry(key, diskPath string, info fs.FileInfo) *entry {
	return &entry{
		key:      key,
		size:     info.Size(),
		mode:     info.Mode(),
		modTime:  info.ModTime(),
		diskPath: diskPath,
	}
}

// Remove drops the named members from the buffer. Removing a directory key
// also drops everything beneath it. Keys that match nothing make Remove
// fail without changing the buffer.
func (a *Archive) Remove(keys []string) error {
	var missing []string
	drop := make(map[string]bool)
	for _, raw := range keys {
		key := normKey(raw)
		hit := false
		for _, e := range a.entries {
			if e.key == key || strings.HasPrefix(e.key, key+"/") {
				drop[e.key] = true
				hit = true
			}
		}
		if !hit {
			missing = append(missing, raw)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: no such entry: %s", fserr.ErrNotFound, strings.Join(missing, ", "))
	}
	kept := a.entries[:0]
	a.index = make(map[string]int)
	for _, e := range a.entries {
		if drop[e.key] {
			continue
		}
		a.index[e.key] = len(kept)
		kept = append(kept, e)
	}
	a.entries = kept
	return nil
}

// Save writes the buffered members back over the archive's own path,
// replacing it only once the new file is complete.
func (a *Archive) Save(ctx context.Context, level CompressionLevel) error {
	return a.SaveTo(ctx, a.path, level)
}

// SaveTo writes the buffered members to dst via a temp file in the same
// directory. On any failure the original file at dst is left untouched.
func (a *Archive) SaveTo(ctx context.Context, dst string, level CompressionLevel) error {
	tmp := dst + partialSuffix
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fserr.Classifyf(err, "create %s", tmp)
	}
	if err := a.writeAll(ctx, f, level); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fserr.Classifyf(err, "close %s", tmp)
	}
	// The source must be released before rename can replace it on Windows.
	if dst == a.path {
		if err := a.Close(); err != nil {
			os.Remove(tmp)
			return err
		}
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fserr.Classifyf(err, "replace %s", dst)
	}
	return nil
}

func (a *Archive) writeAll(ctx context.Context, w io.Writer, level CompressionLevel) error {
	zw := level.newWriter(w)
	for _, e := range a.entries {
		if err := ctx.Err(); err != nil {
			return fserr.Classify(err)
		}
		if err := a.writeEntry(zw, e, level); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fserr.Classifyf(err, "finalize archive")
	}
	return nil
}

func (a *Archive) writeEntry(zw *zip.Writer, e *entry, level CompressionLevel) error {
	hdr := &zip.FileHeader{
		Name:     e.key,
		Method:   level.method(),
		Modified: e.modTime,
	}
	hdr.SetMode(e.mode)
	if e.isDir {
		hdr.Name += "/"
		hdr.Method = zip.Store
		_, err := zw.CreateHeader(hdr)
		return err
	}
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("write entry %s: %w", e.key, err)
	}
	var r io.ReadCloser
	switch {
	case e.diskPath != "":
		r, err = os.Open(e.diskPath)
	case e.zf != nil:
		r, err = e.zf.Open()
	default:
		return nil // empty placeholder
	}
	if err != nil {
		return fserr.Classifyf(err, "read entry %s", e.key)
	}
	defer r.Close()
	if _, err := io.Copy(w, r); err != nil {
		return fserr.Classifyf(err, "write entry %s", e.key)
	}
	return nil
}
