package fserr

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"not exist", os.ErrNotExist, ErrNotFound},
		{"permission", os.ErrPermission, ErrAccessDenied},
		{"exist", os.ErrExist, ErrAlreadyExists},
		{"context canceled", context.Canceled, ErrCancelled},
		{"zip format", zip.ErrFormat, ErrCorruptArchive},
		{"zip checksum", zip.ErrChecksum, ErrCorruptArchive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.in)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("Classify(nil) = %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("Classify(%v) = %v, want wrapped %v", tt.in, got, tt.want)
			}
			// Original error must stay in the chain.
			if !errors.Is(got, tt.in) {
				t.Errorf("Classify(%v) lost the original error", tt.in)
			}
		})
	}
}

func TestClassifyWrappedOSError(t *testing.T) {
	raw := &os.PathError{Op: "open", Path: "/no/such", Err: os.ErrNotExist}
	got := Classify(raw)
	if !errors.Is(got, ErrNotFound) {
		t.Errorf("PathError wrapping ErrNotExist should classify as NotFound, got %v", got)
	}
}

func TestClassifyIdempotent(t *testing.T) {
	once := Classify(os.ErrNotExist)
	twice := Classify(once)
	if twice != once {
		t.Errorf("re-classifying should return the error unchanged")
	}
}

func TestClassifyPassesThroughGenericIO(t *testing.T) {
	generic := errors.New("device error")
	if got := Classify(generic); got != generic {
		t.Errorf("generic I/O errors should pass through, got %v", got)
	}
}

func TestClassifyf(t *testing.T) {
	err := Classifyf(os.ErrPermission, "copy %s", "/tmp/x")
	if !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Classifyf should classify, got %v", err)
	}
	want := fmt.Sprintf("copy %s: %v", "/tmp/x", Classify(os.ErrPermission))
	if err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}
}

func TestIsCancelled(t *testing.T) {
	if !IsCancelled(context.Canceled) {
		t.Error("context.Canceled should count as cancelled")
	}
	if !IsCancelled(Classify(context.Canceled)) {
		t.Error("classified cancellation should count as cancelled")
	}
	if IsCancelled(os.ErrNotExist) {
		t.Error("unrelated error should not count as cancelled")
	}
}
