// Package fserr defines the error taxonomy for file and archive operations.
// Engines classify raw os/archive failures into these sentinels so callers
// can branch with errors.Is without caring which syscall produced them.
package fserr

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

var (
	// ErrNotFound indicates a source path or archive entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAccessDenied indicates a permission failure.
	ErrAccessDenied = errors.New("access denied")

	// ErrAlreadyExists indicates a destination collision that the conflict
	// policy did not resolve.
	ErrAlreadyExists = errors.New("already exists")

	// ErrCancelled indicates the operation stopped at a cancellation
	// checkpoint before completing.
	ErrCancelled = errors.New("cancelled")

	// ErrCorruptArchive indicates an archive whose container structure
	// could not be parsed.
	ErrCorruptArchive = errors.New("corrupt archive")

	// ErrUnsupported indicates the platform has no implementation for the
	// requested collaborator (e.g. trash on windows).
	ErrUnsupported = errors.New("unsupported on this platform")
)

// Classify wraps err with the matching taxonomy sentinel. The original error
// remains in the chain. A nil error stays nil; an error that already carries
// a sentinel is returned unchanged.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrAccessDenied),
		errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrCancelled),
		errors.Is(err, ErrCorruptArchive),
		errors.Is(err, ErrUnsupported):
		return err
	case errors.Is(err, os.ErrNotExist), errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, os.ErrPermission), errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w", ErrAccessDenied, err)
	case errors.Is(err, os.ErrExist), errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%w: %w", ErrAlreadyExists, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	case errors.Is(err, zip.ErrFormat), errors.Is(err, zip.ErrChecksum):
		return fmt.Errorf("%w: %w", ErrCorruptArchive, err)
	default:
		// Generic transient I/O failure (disk full, device error, ...).
		return err
	}
}

// Classifyf is Classify plus a context prefix, matching the engines'
// "operation: detail" message style.
func Classifyf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, Classify(err))...)
}

// IsCancelled reports whether err is (or wraps) a cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}
