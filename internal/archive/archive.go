// Package archive sets a reviewed segment directory aside so the next
// session starts from an empty one.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ArchiveSegments moves the segment directory into an "archive" directory
// next to it, named after the directory and a timestamp. It returns the
// archive path.
func ArchiveSegments(segmentsDir string) (string, error) {
	segmentsDir = filepath.Clean(segmentsDir)

	info, err := os.Stat(segmentsDir)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("segments directory does not exist: %s", segmentsDir)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat segments directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", segmentsDir)
	}

	parentDir := filepath.Dir(segmentsDir)
	archiveDir := filepath.Join(parentDir, "archive")

	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	base := filepath.Base(segmentsDir)
	archivePath := filepath.Join(archiveDir, fmt.Sprintf("%s-%s", base, time.Now().Format("20060102-150405")))

	// Check if archive already exists (unlikely but possible)
	if _, err := os.Stat(archivePath); err == nil {
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("%s-%s", base, time.Now().Format("20060102-150405.000000")))
	}

	if err := os.Rename(segmentsDir, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive segments directory: %w", err)
	}

	return archivePath, nil
}
