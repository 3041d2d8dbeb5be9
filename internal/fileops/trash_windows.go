//go:build windows

package fileops

import (
	"fmt"

	"github.com/twinpane/twinpane/internal/fserr"
)

// trashPut is not implemented on windows: recycling requires the shell COM
// API, which lives with the UI layer. Callers get a typed error and can
// offer permanent deletion instead.
func trashPut(path string) error {
	return fmt.Errorf("trash %s: %w", path, fserr.ErrUnsupported)
}
