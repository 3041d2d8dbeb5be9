//go:build !windows

package diskspace

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/twinpane/twinpane/internal/models"
)

// Pseudo filesystems that should not show up as browsable drives.
var ignoredFSTypes = map[string]bool{
	"proc": true, "sysfs": true, "devtmpfs": true, "devpts": true,
	"tmpfs": true, "cgroup": true, "cgroup2": true, "securityfs": true,
	"debugfs": true, "tracefs": true, "pstore": true, "bpf": true,
	"overlay": true, "squashfs": true, "autofs": true, "mqueue": true,
	"hugetlbfs": true, "fusectl": true, "configfs": true, "binfmt_misc": true,
	"rpc_pipefs": true, "nsfs": true, "ramfs": true, "efivarfs": true,
}

// ListDrives enumerates mounted volumes fresh on every call. On Linux it
// reads /proc/self/mounts and filters pseudo filesystems; elsewhere it falls
// back to the root filesystem plus /Volumes children (macOS). The result is
// never empty on a functioning host: the root filesystem is always included.
func ListDrives() []models.DriveItem {
	drives := mountsFromProc()

	if len(drives) == 0 {
		drives = append(drives, driveAt("/", "root"))
		if vols, err := os.ReadDir("/Volumes"); err == nil {
			for _, v := range vols {
				if !v.IsDir() {
					continue
				}
				mount := filepath.Join("/Volumes", v.Name())
				drives = append(drives, driveAt(mount, v.Name()))
			}
		}
	}

	return drives
}

func mountsFromProc() []models.DriveItem {
	f, err := os.Open("/proc/self/mounts")
	if err != nil {
		return nil
	}
	defer f.Close()

	var drives []models.DriveItem
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		// device mountpoint fstype options ...
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mount, fstype := fields[1], fields[2]
		if ignoredFSTypes[fstype] || seen[mount] {
			continue
		}
		// Octal escapes in mount paths (e.g. \040 for space).
		mount = unescapeMount(mount)
		seen[mount] = true
		drives = append(drives, driveAt(mount, fstype))
	}

	// Root first, then by path, preserving scan order otherwise.
	for i, d := range drives {
		if d.Root == "/" && i != 0 {
			drives[0], drives[i] = drives[i], drives[0]
			break
		}
	}
	return drives
}

func driveAt(mount, label string) models.DriveItem {
	total, free := volumeSpace(mount)
	return models.DriveItem{
		Root:       mount,
		Label:      label,
		TotalBytes: total,
		FreeBytes:  free,
	}
}

func unescapeMount(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	replacer := strings.NewReplacer(`\040`, " ", `\011`, "\t", `\012`, "\n", `\134`, `\`)
	return replacer.Replace(s)
}
