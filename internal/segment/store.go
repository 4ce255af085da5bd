// Package segment reads and deletes the per-clip metadata records of a
// segment directory.
package segment

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/snonux/cliprecall/internal/lang"
	"codeberg.org/snonux/cliprecall/internal/logger"
)

// MetadataExt is the extension of segment metadata records
const MetadataExt = ".json"

// Record is one reviewable clip
type Record struct {
	ID        string // metadata file name, unique within the directory
	Text      string // subtitle in the source language
	Language  string // normalised base language code, may be empty
	MediaPath string // absolute path of the media payload
}

// Entry is a listed record before it is loaded
type Entry struct {
	ID      string
	ModTime time.Time
}

// metadata is the on-disk record format
type metadata struct {
	Text      string `json:"text"`
	MediaPath string `json:"media_path"`
	Language  string `json:"language"`
}

// Options configures how records are interpreted
type Options struct {
	// DefaultLanguage is used when a record has no language and none
	// could be detected.
	DefaultLanguage string

	// DetectLanguage enables language detection from the subtitle text
	// for records without a language.
	DetectLanguage bool
}

// Store is a directory of segment metadata records
type Store struct {
	dir    string
	opts   Options
	log    *logger.Logger
	remove func(string) error
}

// NewStore creates a store rooted at dir
func NewStore(dir string, opts Options) *Store {
	return &Store{
		dir:    dir,
		opts:   opts,
		log:    logger.Default().With("segment"),
		remove: os.Remove,
	}
}

// Dir returns the directory the store reads from
func (s *Store) Dir() string {
	return s.dir
}

// List enumerates the metadata records of the directory. The order of the
// result is unspecified.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !strings.EqualFold(filepath.Ext(name), MetadataExt) {
			continue
		}

		info, err := de.Info()
		if err != nil {
			// Removed between ReadDir and Info
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		entries = append(entries, Entry{ID: name, ModTime: info.ModTime()})
	}

	s.log.Debug("listed %d segments in %s", len(entries), s.dir)
	return entries, nil
}

// Load reads and parses the record with the given id
func (s *Store) Load(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	path, err := s.metadataPath(id)
	if err != nil {
		return Record{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, &CorruptRecordError{ID: id, Reason: "metadata file missing", Err: err}
		}
		return Record{}, fmt.Errorf("read segment %s: %w", id, err)
	}

	var md metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return Record{}, &CorruptRecordError{ID: id, Reason: "invalid JSON", Err: err}
	}

	if strings.TrimSpace(md.MediaPath) == "" {
		return Record{}, &CorruptRecordError{ID: id, Reason: "missing media_path"}
	}

	return Record{
		ID:        id,
		Text:      md.Text,
		Language:  s.resolveLanguage(md),
		MediaPath: s.resolveMedia(md.MediaPath),
	}, nil
}

// Delete removes a record and the media it references as one logical
// unit: media first, then metadata. A record that is already gone is not
// an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.metadataPath(id)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("delete segment %s: %w", id, err)
	}

	var media string
	var md metadata
	if json.Unmarshal(data, &md) == nil && strings.TrimSpace(md.MediaPath) != "" {
		media = s.resolveMedia(md.MediaPath)
	}

	if media != "" {
		if err := s.remove(media); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("delete media of segment %s: %w", id, err)
		}
	}

	if err := s.remove(path); err != nil && !os.IsNotExist(err) {
		if media == "" {
			return fmt.Errorf("delete segment %s: %w", id, err)
		}
		return &PartialDeleteError{ID: id, MediaPath: media, MetadataPath: path, Err: err}
	}

	s.log.Info("deleted segment %s", id)
	return nil
}

func (s *Store) metadataPath(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || id == "." || id == ".." {
		return "", &CorruptRecordError{ID: id, Reason: "invalid id"}
	}
	return filepath.Join(s.dir, id), nil
}

func (s *Store) resolveMedia(ref string) string {
	ref = strings.TrimSpace(ref)
	if filepath.IsAbs(ref) {
		return filepath.Clean(ref)
	}
	return filepath.Join(s.dir, ref)
}

func (s *Store) resolveLanguage(md metadata) string {
	if code := lang.Normalize(md.Language); code != "" {
		return code
	}
	if s.opts.DetectLanguage {
		if code, ok := lang.Detect(md.Text); ok {
			return code
		}
	}
	return lang.Normalize(s.opts.DefaultLanguage)
}
