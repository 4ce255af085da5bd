package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// SegmentFixture describes one segment written by WriteSegment
type SegmentFixture struct {
	ID       string // metadata file name, e.g. "a.json"
	Text     string
	Language string
	Media    string // media file name under <dir>/media; empty writes no media_path
}

// CreateTestFile creates a test file with content
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// WriteSegment writes a metadata record and its media payload into dir and
// returns both paths. The media path in the record is absolute.
func WriteSegment(t *testing.T, dir string, seg SegmentFixture) (metadataPath, mediaPath string) {
	t.Helper()

	record := map[string]string{"text": seg.Text}
	if seg.Language != "" {
		record["language"] = seg.Language
	}
	if seg.Media != "" {
		mediaPath = filepath.Join(dir, "media", seg.Media)
		CreateTestFile(t, mediaPath, []byte{0x00, 0x00, 0x00, 0x18, 0x66, 0x74, 0x79, 0x70})
		record["media_path"] = mediaPath
	}

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("Failed to marshal segment %s: %v", seg.ID, err)
	}

	metadataPath = filepath.Join(dir, seg.ID)
	CreateTestFile(t, metadataPath, data)
	return metadataPath, mediaPath
}

// CreateSegmentDirectory writes one segment per id ("a.json" -> media
// "a.mp4") with the given language and returns the directory.
func CreateSegmentDirectory(t *testing.T, language string, ids ...string) string {
	t.Helper()

	dir := t.TempDir()
	for _, id := range ids {
		base := strings.TrimSuffix(id, filepath.Ext(id))
		WriteSegment(t, dir, SegmentFixture{
			ID:       id,
			Text:     "subtitle " + base,
			Language: language,
			Media:    base + ".mp4",
		})
	}
	return dir
}

// AssertFileExists checks if a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Expected file to exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does not exist
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); err == nil {
		t.Errorf("Expected file to not exist: %s", path)
	}
}

// AssertFileContains checks if a file contains a substring
func AssertFileContains(t *testing.T, path string, substring string) {
	t.Helper()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}

	if !strings.Contains(string(content), substring) {
		t.Errorf("File %s does not contain expected substring: %q", path, substring)
	}
}
