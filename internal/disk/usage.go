package disk

import (
	"io/fs"
	"os"
	"path/filepath"
)

// PathStats describes what a delete target holds
type PathStats struct {
	UsedBytes int64 // Total bytes of regular files at or below the path
	FileCount int64 // Total number of regular files
}

// ScanPath measures a file or directory tree without following symlinks.
// Unreadable entries are skipped, so the result is a lower bound.
func ScanPath(path string) (*PathStats, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}

	stats := &PathStats{}
	if !info.IsDir() {
		if info.Mode().IsRegular() {
			stats.UsedBytes = info.Size()
			stats.FileCount = 1
		}
		return stats, nil
	}

	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors
		}

		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return nil
			}
			stats.UsedBytes += info.Size()
			stats.FileCount++
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}
