package util

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MountInfo describes the filesystem holding a path
type MountInfo struct {
	MountPoint string
	FSType     string
}

// IsNetwork reports whether the filesystem is network-mounted
func (m *MountInfo) IsNetwork() bool {
	fsType := strings.ToLower(m.FSType)
	for _, kind := range []string{"nfs", "cifs", "smb", "ncpfs", "fuse.sshfs", "fuse.rclone"} {
		if strings.Contains(fsType, kind) {
			return true
		}
	}
	return false
}

// mountsFile is the kernel mount table; absent outside Linux
var mountsFile = "/proc/mounts"

// DetectMount finds the mount holding path. The path itself need not exist.
func DetectMount(path string) (*MountInfo, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	file, err := os.Open(mountsFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	mounts, err := parseMounts(file)
	if err != nil {
		return nil, err
	}
	return findMount(mounts, absPath), nil
}

// IsNetworkPath checks if a path is on a network filesystem
func IsNetworkPath(path string) bool {
	info, err := DetectMount(path)
	return err == nil && info != nil && info.IsNetwork()
}

// parseMounts reads "device mountpoint fstype options dump pass" lines
func parseMounts(r io.Reader) (map[string]string, error) {
	mounts := make(map[string]string)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mounts[fields[1]] = fields[2]
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return mounts, nil
}

// findMount returns the longest mount point containing absPath
func findMount(mounts map[string]string, absPath string) *MountInfo {
	var best *MountInfo
	for mountPoint, fsType := range mounts {
		if !withinMount(absPath, mountPoint) {
			continue
		}
		if best == nil || len(mountPoint) > len(best.MountPoint) {
			best = &MountInfo{MountPoint: mountPoint, FSType: fsType}
		}
	}
	return best
}

func withinMount(path, mountPoint string) bool {
	if mountPoint == "/" || path == mountPoint {
		return strings.HasPrefix(path, "/")
	}
	return strings.HasPrefix(path, strings.TrimRight(mountPoint, "/")+"/")
}
