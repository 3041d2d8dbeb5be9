package fileops

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/twinpane/twinpane/internal/conflict"
	"github.com/twinpane/twinpane/internal/fserr"
)

func newTestEngine() *Engine {
	return NewEngine(nil)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestCopyFiles(t *testing.T) {
	e := newTestEngine()
	src := t.TempDir()
	dst := t.TempDir()

	contents := map[string]string{"a.txt": "alpha", "b.dat": "bravo bytes", "c": "charlie"}
	var sources []string
	for name, content := range contents {
		p := filepath.Join(src, name)
		writeFile(t, p, content)
		sources = append(sources, p)
	}

	report, err := e.Copy(context.Background(), sources, dst, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !report.AllSucceeded() || len(report.Succeeded) != 3 {
		t.Fatalf("unexpected report: %+v", report)
	}

	for name, content := range contents {
		got := readFile(t, filepath.Join(dst, name))
		if got != content {
			t.Errorf("%s content = %q, want %q", name, got, content)
		}
	}
}

func TestCopyDirectoryTree(t *testing.T) {
	e := newTestEngine()
	src := t.TempDir()
	dst := t.TempDir()

	root := filepath.Join(src, "project")
	writeFile(t, filepath.Join(root, "top.txt"), "top")
	writeFile(t, filepath.Join(root, "sub", "mid.txt"), "mid")
	writeFile(t, filepath.Join(root, "sub", "deeper", "leaf.txt"), "leaf")
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0755); err != nil {
		t.Fatal(err)
	}

	report, err := e.Copy(context.Background(), []string{root}, dst, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !report.AllSucceeded() {
		t.Fatalf("unexpected report: %+v", report)
	}

	base := filepath.Join(dst, "project")
	for rel, want := range map[string]string{
		"top.txt":                             "top",
		filepath.Join("sub", "mid.txt"):       "mid",
		filepath.Join("sub", "deeper", "leaf.txt"): "leaf",
	} {
		if got := readFile(t, filepath.Join(base, rel)); got != want {
			t.Errorf("%s = %q, want %q", rel, got, want)
		}
	}
	if info, err := os.Stat(filepath.Join(base, "empty")); err != nil || !info.IsDir() {
		t.Error("empty subdirectory not reproduced")
	}
}

func TestCopyPreservesModTime(t *testing.T) {
	e := newTestEngine()
	src := t.TempDir()
	dst := t.TempDir()

	p := filepath.Join(src, "old.txt")
	writeFile(t, p, "data")
	srcInfo, _ := os.Stat(p)

	if _, err := e.Copy(context.Background(), []string{p}, dst, Options{}); err != nil {
		t.Fatal(err)
	}

	dstInfo, err := os.Stat(filepath.Join(dst, "old.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !dstInfo.ModTime().Equal(srcInfo.ModTime()) {
		t.Errorf("mod time not preserved: %v vs %v", dstInfo.ModTime(), srcInfo.ModTime())
	}
}

func TestCopyIntoItselfRejected(t *testing.T) {
	e := newTestEngine()
	src := t.TempDir()
	dir := filepath.Join(src, "d")
	writeFile(t, filepath.Join(dir, "f.txt"), "x")

	report, err := e.Copy(context.Background(), []string{dir}, dir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Failures) != 1 {
		t.Fatalf("expected one failure, got %+v", report)
	}
}

func TestCopyBatchContinuesAfterFailure(t *testing.T) {
	e := newTestEngine()
	src := t.TempDir()
	dst := t.TempDir()

	good1 := filepath.Join(src, "one.txt")
	good2 := filepath.Join(src, "two.txt")
	writeFile(t, good1, "1")
	writeFile(t, good2, "2")
	missing := filepath.Join(src, "ghost.txt")

	report, err := e.Copy(context.Background(), []string{good1, missing, good2}, dst, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if len(report.Succeeded) != 2 {
		t.Errorf("succeeded = %v, want both good files", report.Succeeded)
	}
	if len(report.Failures) != 1 {
		t.Fatalf("failures = %+v, want one", report.Failures)
	}
	if !errors.Is(report.Failures[0].Err, fserr.ErrNotFound) {
		t.Errorf("failure should classify as NotFound, got %v", report.Failures[0].Err)
	}
	// The item after the failure must still have been copied.
	if readFile(t, filepath.Join(dst, "two.txt")) != "2" {
		t.Error("file after the failing item was not copied")
	}
}

func TestCopyCancelledMidBatchLeavesNoPartial(t *testing.T) {
	e := newTestEngine()
	src := t.TempDir()
	dst := t.TempDir()

	// Big enough for several copy chunks.
	big := filepath.Join(src, "big.bin")
	if err := os.WriteFile(big, bytes.Repeat([]byte{0xAB}, 3*copyBufSize), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	opts := Options{
		Progress: func(percent int, item string) {
			if percent >= 30 {
				cancel()
			}
		},
	}

	report, _ := e.Copy(ctx, []string{big}, dst, opts)
	if len(report.Succeeded) != 0 {
		t.Errorf("cancelled copy must not claim success: %+v", report)
	}

	if _, err := os.Stat(filepath.Join(dst, "big.bin")); !os.IsNotExist(err) {
		t.Error("destination file exists despite cancellation")
	}
	if _, err := os.Stat(filepath.Join(dst, "big.bin"+partialSuffix)); !os.IsNotExist(err) {
		t.Error("partial file left behind after cancellation")
	}
}

func TestCopyCancelledBeforeStart(t *testing.T) {
	e := newTestEngine()
	src := t.TempDir()
	dst := t.TempDir()
	p := filepath.Join(src, "f.txt")
	writeFile(t, p, "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Copy(ctx, []string{p}, dst, Options{})
	if !fserr.IsCancelled(err) {
		t.Errorf("expected cancellation, got %v", err)
	}
}

func TestCopyProgressPerItem(t *testing.T) {
	e := newTestEngine()
	src := t.TempDir()
	dst := t.TempDir()

	var sources []string
	for _, name := range []string{"a", "b", "c"} {
		p := filepath.Join(src, name)
		writeFile(t, p, "data-"+name)
		sources = append(sources, p)
	}

	seen := make(map[string]bool)
	var last int
	opts := Options{Progress: func(percent int, item string) {
		if percent < last {
			t.Errorf("progress went backwards: %d after %d", percent, last)
		}
		last = percent
		if item != "" {
			seen[item] = true
		}
	}}

	if _, err := e.Copy(context.Background(), sources, dst, opts); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a", "b", "c"} {
		if !seen[name] {
			t.Errorf("no progress callback mentioned item %q", name)
		}
	}
	if last != 100 {
		t.Errorf("final progress = %d, want 100", last)
	}
}

func TestMoveFile(t *testing.T) {
	e := newTestEngine()
	src := t.TempDir()
	dst := t.TempDir()

	p := filepath.Join(src, "move-me.txt")
	writeFile(t, p, "payload")

	report, err := e.Move(context.Background(), []string{p}, dst, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !report.AllSucceeded() {
		t.Fatalf("unexpected report: %+v", report)
	}

	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Error("source still exists after move")
	}
	if got := readFile(t, filepath.Join(dst, "move-me.txt")); got != "payload" {
		t.Errorf("moved content = %q", got)
	}
}

func TestMoveDirectory(t *testing.T) {
	e := newTestEngine()
	src := t.TempDir()
	dst := t.TempDir()

	root := filepath.Join(src, "tree")
	writeFile(t, filepath.Join(root, "a", "f.txt"), "f")
	writeFile(t, filepath.Join(root, "g.txt"), "g")

	report, err := e.Move(context.Background(), []string{root}, dst, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !report.AllSucceeded() {
		t.Fatalf("unexpected report: %+v", report)
	}

	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Error("source subtree still exists after move")
	}
	if readFile(t, filepath.Join(dst, "tree", "a", "f.txt")) != "f" {
		t.Error("nested file missing after move")
	}
}

func TestMoveMissingSourceKeepsBatchGoing(t *testing.T) {
	e := newTestEngine()
	src := t.TempDir()
	dst := t.TempDir()

	good := filepath.Join(src, "ok.txt")
	writeFile(t, good, "ok")

	report, err := e.Move(context.Background(), []string{filepath.Join(src, "nope"), good}, dst, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Failures) != 1 || len(report.Succeeded) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestMoveConflictSkipKeepsSource(t *testing.T) {
	e := newTestEngine()
	src := t.TempDir()
	dst := t.TempDir()

	p := filepath.Join(src, "f.txt")
	writeFile(t, p, "incoming")
	writeFile(t, filepath.Join(dst, "f.txt"), "existing")

	report, err := e.Move(context.Background(), []string{p}, dst, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Skipped) != 1 {
		t.Fatalf("expected skip, got %+v", report)
	}
	// Skip must leave both sides untouched.
	if readFile(t, p) != "incoming" {
		t.Error("source modified by skipped move")
	}
	if readFile(t, filepath.Join(dst, "f.txt")) != "existing" {
		t.Error("destination modified by skipped move")
	}
}

func TestMoveOverwriteReplacesOccupiedTarget(t *testing.T) {
	e := newTestEngine()
	src := t.TempDir()
	dst := t.TempDir()

	p := filepath.Join(src, "f.txt")
	writeFile(t, p, "incoming")
	writeFile(t, filepath.Join(dst, "f.txt"), "existing")

	// The occupied target rules out the rename fast path, so this goes
	// through copy-then-delete.
	report, err := e.Move(context.Background(), []string{p}, dst, Options{OnConflict: conflict.Overwrite})
	if err != nil {
		t.Fatal(err)
	}
	if !report.AllSucceeded() || len(report.Succeeded) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if readFile(t, filepath.Join(dst, "f.txt")) != "incoming" {
		t.Error("destination still holds the old content")
	}
	if _, err := os.Lstat(p); !os.IsNotExist(err) {
		t.Error("source survived a completed move")
	}
}

func TestMoveFailedItemKeepsSource(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation needs privileges on windows")
	}
	e := newTestEngine()
	src := t.TempDir()
	dst := t.TempDir()

	root := filepath.Join(src, "tree")
	good := filepath.Join(root, "good.txt")
	writeFile(t, good, "good")
	broken := filepath.Join(root, "broken")
	if err := os.Symlink(filepath.Join(src, "no-such-target"), broken); err != nil {
		t.Fatal(err)
	}
	// Occupy the destination slot so the move cannot rename the whole
	// tree in one shot and has to copy item by item.
	if err := os.MkdirAll(filepath.Join(dst, "tree"), 0755); err != nil {
		t.Fatal(err)
	}

	report, err := e.Move(context.Background(), []string{root}, dst, Options{OnConflict: conflict.Overwrite})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Failures) != 1 {
		t.Fatalf("expected one failure, got %+v", report)
	}
	if len(report.Succeeded) != 0 {
		t.Fatalf("partially moved item reported as succeeded: %+v", report)
	}

	// The copy did not fully materialize, so the source tree must be intact.
	if readFile(t, good) != "good" {
		t.Error("source file lost after failed move")
	}
	if _, err := os.Lstat(broken); err != nil {
		t.Errorf("source symlink lost after failed move: %v", err)
	}
}

func TestDeletePermanentRecursive(t *testing.T) {
	e := newTestEngine()
	dir := t.TempDir()

	root := filepath.Join(dir, "victim")
	writeFile(t, filepath.Join(root, "a", "b", "deep.txt"), "x")
	writeFile(t, filepath.Join(root, "top.txt"), "y")

	report, err := e.Delete(context.Background(), []string{root}, true, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !report.AllSucceeded() {
		t.Fatalf("unexpected report: %+v", report)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Error("directory still exists after permanent delete")
	}
}

func TestDeleteAbsentPathIsIdempotent(t *testing.T) {
	e := newTestEngine()
	dir := t.TempDir()

	report, err := e.Delete(context.Background(), []string{filepath.Join(dir, "never-existed")}, true, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Succeeded) != 1 || len(report.Failures) != 0 {
		t.Fatalf("deleting an absent path should succeed: %+v", report)
	}
}

func TestDeleteToTrash(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("trash is unsupported on windows")
	}
	e := newTestEngine()
	dir := t.TempDir()

	// Point the freedesktop data dir at a temp location. The trash rename
	// requires same-volume, which two temp dirs satisfy.
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "xdg"))

	victim := filepath.Join(dir, "junk.txt")
	writeFile(t, victim, "junk")

	report, err := e.Delete(context.Background(), []string{victim}, false, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !report.AllSucceeded() {
		t.Fatalf("unexpected report: %+v", report)
	}
	if _, err := os.Stat(victim); !os.IsNotExist(err) {
		t.Error("file still at original path after trashing")
	}
	trashed := filepath.Join(dir, "xdg", "Trash", "files", "junk.txt")
	if readFile(t, trashed) != "junk" {
		t.Error("file not found in trash")
	}
	info := filepath.Join(dir, "xdg", "Trash", "info", "junk.txt.trashinfo")
	if _, err := os.Stat(info); err != nil {
		t.Error("trashinfo record missing")
	}
}

func TestRenameFile(t *testing.T) {
	e := newTestEngine()
	dir := t.TempDir()

	oldPath := filepath.Join(dir, "before.txt")
	newPath := filepath.Join(dir, "after.txt")
	writeFile(t, oldPath, "same bytes")

	if err := e.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Error("old path still exists")
	}
	if readFile(t, newPath) != "same bytes" {
		t.Error("content changed across rename")
	}
}

func TestRenameDirectoryCarriesDescendants(t *testing.T) {
	e := newTestEngine()
	dir := t.TempDir()

	oldPath := filepath.Join(dir, "olddir")
	writeFile(t, filepath.Join(oldPath, "sub", "x.txt"), "x")

	newPath := filepath.Join(dir, "newdir")
	if err := e.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}
	if readFile(t, filepath.Join(newPath, "sub", "x.txt")) != "x" {
		t.Error("descendants not carried by directory rename")
	}
}

func TestRenameOntoExistingFails(t *testing.T) {
	e := newTestEngine()
	dir := t.TempDir()

	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	writeFile(t, a, "a")
	writeFile(t, b, "b")

	err := e.Rename(a, b)
	if !errors.Is(err, fserr.ErrAlreadyExists) {
		t.Errorf("expected AlreadyExists, got %v", err)
	}
	// Failure must leave the source unchanged.
	if readFile(t, a) != "a" || readFile(t, b) != "b" {
		t.Error("failed rename modified files")
	}
}

func TestCreateDirectory(t *testing.T) {
	e := newTestEngine()
	dir := t.TempDir()

	t.Run("nested creation", func(t *testing.T) {
		target := filepath.Join(dir, "x", "y", "z")
		if err := e.CreateDirectory(target); err != nil {
			t.Fatal(err)
		}
		if info, err := os.Stat(target); err != nil || !info.IsDir() {
			t.Error("nested directory not created")
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		target := filepath.Join(dir, "x", "y", "z")
		if err := e.CreateDirectory(target); err != nil {
			t.Errorf("re-creating existing directory should be a no-op: %v", err)
		}
	})

	t.Run("occupied by file", func(t *testing.T) {
		occupied := filepath.Join(dir, "file-here")
		writeFile(t, occupied, "x")
		err := e.CreateDirectory(occupied)
		if !errors.Is(err, fserr.ErrAlreadyExists) {
			t.Errorf("expected AlreadyExists, got %v", err)
		}
	})
}

func TestGetDirectoryContents(t *testing.T) {
	e := newTestEngine()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "seen.txt"), "1")
	writeFile(t, filepath.Join(dir, ".unseen"), "2")

	t.Run("hidden filtered", func(t *testing.T) {
		items, err := e.GetDirectoryContents(dir, false)
		if err != nil {
			t.Fatal(err)
		}
		for _, item := range items {
			if item.Name == ".unseen" {
				t.Error("hidden entry listed with showHidden=false")
			}
		}
	})

	t.Run("hidden included", func(t *testing.T) {
		items, err := e.GetDirectoryContents(dir, true)
		if err != nil {
			t.Fatal(err)
		}
		found := false
		for _, item := range items {
			if item.Name == ".unseen" {
				found = true
			}
		}
		if !found {
			t.Error("hidden entry missing with showHidden=true")
		}
	})

	t.Run("parent pseudo-entry present", func(t *testing.T) {
		items, err := e.GetDirectoryContents(dir, false)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) == 0 || !items[0].IsParentRef() {
			t.Error("expected .. pseudo-entry first")
		}
	})
}

func TestGetDrives(t *testing.T) {
	e := newTestEngine()
	drives, err := e.GetDrives()
	if err != nil {
		t.Fatal(err)
	}
	if len(drives) == 0 {
		t.Fatal("GetDrives returned empty on a functioning host")
	}
}
