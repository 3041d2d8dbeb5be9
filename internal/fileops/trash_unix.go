//go:build !windows

package fileops

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// trashPut moves path into the user trash following the freedesktop.org
// layout: $XDG_DATA_HOME/Trash/files holds the entry, Trash/info holds a
// .trashinfo record naming the original location and deletion time.
//
// The move is a rename, so trashing only works within the home volume;
// cross-volume trashing surfaces the rename error and the caller can fall
// back to permanent deletion.
func trashPut(path string) error {
	trashDir, err := trashRoot()
	if err != nil {
		return err
	}
	filesDir := filepath.Join(trashDir, "files")
	infoDir := filepath.Join(trashDir, "info")
	for _, d := range []string{filesDir, infoDir} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return fmt.Errorf("prepare trash: %w", err)
		}
	}

	name := trashName(filesDir, filepath.Base(path))

	info := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		url.PathEscape(path), time.Now().Format("2006-01-02T15:04:05"))
	infoPath := filepath.Join(infoDir, name+".trashinfo")
	if err := os.WriteFile(infoPath, []byte(info), 0600); err != nil {
		return fmt.Errorf("write trash info: %w", err)
	}

	if err := os.Rename(path, filepath.Join(filesDir, name)); err != nil {
		os.Remove(infoPath)
		return fmt.Errorf("move to trash: %w", err)
	}
	return nil
}

func trashRoot() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "Trash"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "Trash"), nil
}

// trashName picks a free name in the trash files directory, suffixing with
// increasing counters on collision.
func trashName(filesDir, base string) string {
	name := base
	for i := 2; ; i++ {
		if _, err := os.Lstat(filepath.Join(filesDir, name)); os.IsNotExist(err) {
			return name
		}
		name = fmt.Sprintf("%s.%d", base, i)
	}
}
