// Package conflict implements the destination-collision policy shared by
// the file and archive engines. Whenever a destination entry already
// exists, the policy decides between overwriting, skipping, and renaming —
// either through a caller-supplied handler or a fixed fallback decision.
package conflict

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Decision is the outcome of a destination conflict.
type Decision int

const (
	// Skip leaves the existing destination untouched and drops the
	// incoming item. This is the zero value: a batch with no handler
	// wired never destroys data.
	Skip Decision = iota
	Overwrite
	Rename
)

func (d Decision) String() string {
	switch d {
	case Skip:
		return "skip"
	case Overwrite:
		return "overwrite"
	case Rename:
		return "rename"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// ParseDecision maps the config/flag spelling onto a Decision.
func ParseDecision(s string) (Decision, error) {
	switch s {
	case "skip", "":
		return Skip, nil
	case "overwrite":
		return Overwrite, nil
	case "rename":
		return Rename, nil
	default:
		return Skip, fmt.Errorf("unknown conflict decision %q", s)
	}
}

// Resolution is a conflict decision plus the replacement name used when the
// decision is Rename. An empty NewName asks the engine to pick a free
// "name (2)" style name itself.
type Resolution struct {
	Decision Decision
	NewName  string
}

// Handler is invoked synchronously for every destination collision.
// existingPath is the occupied destination; incomingName is the base name
// the incoming item wants. The handler must not block indefinitely; any
// modal wait belongs to the UI layer above.
type Handler func(existingPath, incomingName string) Resolution

// Resolve applies the handler, falling back to the default decision when
// handler is nil. It returns the final destination path and whether to
// proceed; proceed == false means the item was skipped.
func Resolve(existingPath, incomingName string, handler Handler, fallback Decision) (dest string, proceed bool) {
	res := Resolution{Decision: fallback}
	if handler != nil {
		res = handler(existingPath, incomingName)
	}

	destDir := filepath.Dir(existingPath)
	switch res.Decision {
	case Overwrite:
		return existingPath, true
	case Rename:
		name := res.NewName
		if name == "" {
			name = NextFreeName(destDir, incomingName)
		}
		return filepath.Join(destDir, name), true
	default:
		return "", false
	}
}

// NextFreeName generates "name (2).ext", "name (3).ext", ... until a free
// destination is found in dir.
func NextFreeName(dir, name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, i, ext)
		if _, err := os.Stat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
	}
}
