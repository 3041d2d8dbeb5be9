package fileops

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/twinpane/twinpane/internal/conflict"
)

// The default decision with no handler wired is Skip. This is the
// data-loss-determining behavior, so it gets its own explicit coverage.
func TestDefaultConflictDecisionIsSkip(t *testing.T) {
	e := newTestEngine()
	src := t.TempDir()
	dst := t.TempDir()

	p := filepath.Join(src, "f.txt")
	writeFile(t, p, "incoming")
	writeFile(t, filepath.Join(dst, "f.txt"), "existing")

	report, err := e.Copy(context.Background(), []string{p}, dst, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if len(report.Skipped) != 1 || len(report.Succeeded) != 0 {
		t.Fatalf("expected the colliding item to be skipped: %+v", report)
	}
	if readFile(t, filepath.Join(dst, "f.txt")) != "existing" {
		t.Error("existing destination was modified under the default policy")
	}
}

func TestConflictOverwrite(t *testing.T) {
	e := newTestEngine()
	src := t.TempDir()
	dst := t.TempDir()

	p := filepath.Join(src, "f.txt")
	writeFile(t, p, "incoming")
	writeFile(t, filepath.Join(dst, "f.txt"), "existing")

	report, err := e.Copy(context.Background(), []string{p}, dst, Options{OnConflict: conflict.Overwrite})
	if err != nil {
		t.Fatal(err)
	}
	if !report.AllSucceeded() {
		t.Fatalf("unexpected report: %+v", report)
	}
	if readFile(t, filepath.Join(dst, "f.txt")) != "incoming" {
		t.Error("destination not overwritten")
	}
}

func TestConflictAutoRename(t *testing.T) {
	e := newTestEngine()
	src := t.TempDir()
	dst := t.TempDir()

	p := filepath.Join(src, "report.txt")
	writeFile(t, p, "incoming")
	writeFile(t, filepath.Join(dst, "report.txt"), "existing")
	writeFile(t, filepath.Join(dst, "report (2).txt"), "second")

	report, err := e.Copy(context.Background(), []string{p}, dst, Options{OnConflict: conflict.Rename})
	if err != nil {
		t.Fatal(err)
	}
	if !report.AllSucceeded() {
		t.Fatalf("unexpected report: %+v", report)
	}
	// (2) is taken, so the engine must have picked (3).
	if readFile(t, filepath.Join(dst, "report (3).txt")) != "incoming" {
		t.Error("auto-rename did not pick the next free suffix")
	}
	if readFile(t, filepath.Join(dst, "report.txt")) != "existing" {
		t.Error("existing file modified by rename decision")
	}
}

func TestConflictHandlerInvokedWithPaths(t *testing.T) {
	e := newTestEngine()
	src := t.TempDir()
	dst := t.TempDir()

	p := filepath.Join(src, "f.txt")
	writeFile(t, p, "incoming")
	existing := filepath.Join(dst, "f.txt")
	writeFile(t, existing, "existing")

	var gotExisting, gotName string
	handler := func(existingPath, incomingName string) conflict.Resolution {
		gotExisting = existingPath
		gotName = incomingName
		return conflict.Resolution{Decision: conflict.Rename, NewName: "picked-by-caller.txt"}
	}

	report, err := e.Copy(context.Background(), []string{p}, dst, Options{Conflict: handler})
	if err != nil {
		t.Fatal(err)
	}
	if !report.AllSucceeded() {
		t.Fatalf("unexpected report: %+v", report)
	}

	if gotExisting != existing || gotName != "f.txt" {
		t.Errorf("handler got (%q, %q), want (%q, %q)", gotExisting, gotName, existing, "f.txt")
	}
	if readFile(t, filepath.Join(dst, "picked-by-caller.txt")) != "incoming" {
		t.Error("caller-chosen name not honored")
	}
}

func TestConflictInsideMergedTree(t *testing.T) {
	e := newTestEngine()
	src := t.TempDir()
	dst := t.TempDir()

	root := filepath.Join(src, "dir")
	writeFile(t, filepath.Join(root, "clash.txt"), "incoming")
	writeFile(t, filepath.Join(root, "fresh.txt"), "fresh")
	// Destination already has dir/clash.txt.
	writeFile(t, filepath.Join(dst, "dir", "clash.txt"), "existing")

	report, err := e.Copy(context.Background(), []string{root}, dst, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if len(report.Skipped) != 1 {
		t.Fatalf("expected the nested collision to be skipped: %+v", report)
	}
	if readFile(t, filepath.Join(dst, "dir", "clash.txt")) != "existing" {
		t.Error("nested existing file overwritten under default policy")
	}
	if readFile(t, filepath.Join(dst, "dir", "fresh.txt")) != "fresh" {
		t.Error("non-colliding file in merged tree not copied")
	}
}

