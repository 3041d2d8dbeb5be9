package diskspace

import (
	"strings"
	"testing"
)

func TestGetAvailableSpace(t *testing.T) {
	tmpDir := t.TempDir()

	available := GetAvailableSpace(tmpDir + "/file.dat")
	if available <= 0 {
		t.Errorf("expected positive available space for temp dir, got %d", available)
	}
}

func TestCheckAvailableSpace(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("small requirement passes", func(t *testing.T) {
		if err := CheckAvailableSpace(tmpDir+"/file.dat", 1024, 1.1); err != nil {
			t.Errorf("1 KB requirement should pass: %v", err)
		}
	})

	t.Run("absurd requirement fails", func(t *testing.T) {
		// An exabyte should exceed any test host.
		err := CheckAvailableSpace(tmpDir+"/file.dat", 1<<60, 1.0)
		if err == nil {
			t.Skip("filesystem reports no size information")
		}
		if !IsInsufficientSpaceError(err) {
			t.Errorf("expected InsufficientSpaceError, got %T: %v", err, err)
		}
	})
}

func TestInsufficientSpaceErrorMessage(t *testing.T) {
	err := &InsufficientSpaceError{
		Path:           "/data/out.bin",
		RequiredBytes:  10 * 1024 * 1024,
		AvailableBytes: 1024 * 1024,
	}
	msg := err.Error()
	if msg == "" {
		t.Fatal("empty error message")
	}
	for _, want := range []string{"/data/out.bin", "10.00 MB", "1.00 MB"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestListDrivesNotEmpty(t *testing.T) {
	drives := ListDrives()
	if len(drives) == 0 {
		t.Fatal("ListDrives returned no volumes on a functioning host")
	}
	for _, d := range drives {
		if d.Root == "" {
			t.Errorf("drive with empty root: %+v", d)
		}
	}
}

func TestListDrivesFresh(t *testing.T) {
	// Two calls must both enumerate; the package holds no cache.
	a := ListDrives()
	b := ListDrives()
	if len(a) != len(b) {
		t.Errorf("back-to-back enumerations differ: %d vs %d", len(a), len(b))
	}
}
