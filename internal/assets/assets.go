// Package assets indexes downloaded audio files in the work directory so
// repeated runs can reuse them instead of fetching again.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bdetect/internal/fileutil"
)

// audioExtensions lists the container formats a download can land in,
// in match-priority order.
var audioExtensions = []string{".opus", ".m4a", ".mp3", ".mp4"}

// HasAudioExtension reports whether the filename ends in one of the known
// audio container extensions.
func HasAudioExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, candidate := range audioExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

// Index maps identifiers to cached audio files under a single directory.
type Index struct {
	dir   string
	files map[string]string
}

// NewIndex returns an empty index rooted at dir.
func NewIndex(dir string) *Index {
	return &Index{dir: dir, files: make(map[string]string)}
}

// Scan builds an index of the directory. A file belongs to an identifier when
// its name contains the identifier; the first match in directory order wins.
func Scan(dir string, identifiers []string) (*Index, error) {
	index := &Index{dir: dir, files: make(map[string]string, len(identifiers))}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return index, nil
		}
		return nil, fmt.Errorf("scan asset directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !HasAudioExtension(entry.Name()) {
			continue
		}
		for _, id := range identifiers {
			if id == "" {
				continue
			}
			if _, taken := index.files[id]; taken {
				continue
			}
			if strings.Contains(entry.Name(), id) {
				index.files[id] = filepath.Join(dir, entry.Name())
			}
		}
	}

	return index, nil
}

// Cached reports whether an audio file exists for the identifier.
func (ix *Index) Cached(identifier string) bool {
	_, ok := ix.files[identifier]
	return ok
}

// Path returns the cached file path for the identifier, or "" when absent.
func (ix *Index) Path(identifier string) string {
	return ix.files[identifier]
}

// Record registers a freshly downloaded file for the identifier.
func (ix *Index) Record(identifier, path string) {
	ix.files[identifier] = path
}

// Invalidate removes the identifier's cache entry without touching the file.
func (ix *Index) Invalidate(identifier string) {
	delete(ix.files, identifier)
}

// Find rescans the directory for a file matching the identifier. Used after a
// download when the exact output name isn't known in advance.
func Find(dir, identifier string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("scan asset directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !HasAudioExtension(entry.Name()) {
			continue
		}
		if strings.Contains(entry.Name(), identifier) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", nil
}

// Remove deletes the cached file for an identifier and drops the index entry.
func (ix *Index) Remove(identifier string) error {
	path, ok := ix.files[identifier]
	if !ok {
		return nil
	}
	if err := fileutil.RemoveIfExists(path); err != nil {
		return fmt.Errorf("remove stale asset: %w", err)
	}
	delete(ix.files, identifier)
	return nil
}
