package imagestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DiskStore persists uploaded image binaries on local disk. Each upload is
// assigned an opaque random identifier; the catalog stores only that
// identifier and never interprets it.
type DiskStore struct {
	root string
}

// NewDiskStore creates the storage directory if needed.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory %s: %w", root, err)
	}
	return &DiskStore{root: root}, nil
}

// Save persists the binary and returns its generated identifier. The original
// filename contributes only its extension; everything else is discarded.
func (s *DiskStore) Save(r io.Reader, originalName string) (string, error) {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".jpg"
	}

	f, err := os.Create(filepath.Join(s.root, id+ext))
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	return id, nil
}

// Path resolves an identifier back to the stored file. The extension is not
// part of the identifier, so the directory is probed for id.*.
func (s *DiskStore) Path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, "/\\.") {
		return "", fmt.Errorf("invalid image identifier")
	}
	matches, err := filepath.Glob(filepath.Join(s.root, id+".*"))
	if err != nil || len(matches) == 0 {
		return "", fmt.Errorf("image %s not found", id)
	}
	return matches[0], nil
}

// Remove deletes the stored binary for the identifier, ignoring a missing file.
func (s *DiskStore) Remove(id string) error {
	path, err := s.Path(id)
	if err != nil {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove image %s: %w", id, err)
	}
	return nil
}
