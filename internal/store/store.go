package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Well-known artifact names inside an item directory.
const (
	RawHTMLName = "raw.html"
	RawTextName = "raw.txt"
	IndexName   = "index.json"
)

// ItemStore manages the per-item directory layout under a base directory:
//
//	<base>/<item-id>/<original artifact>
//	<base>/<item-id>/raw.txt
//	<base>/<item-id>/index.json
//	<base>/<item-id>/extraction_<type>.txt
//
// Components address these paths by convention, never by per-call lookup.
// Each item's files are written only by the pipeline acting on that item id.
type ItemStore struct {
	base string
}

func NewItemStore(base string) (*ItemStore, error) {
	if base == "" {
		return nil, fmt.Errorf("item store base directory is empty")
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &ItemStore{base: base}, nil
}

// Dir returns the item's directory path; it is not created until a write.
func (s *ItemStore) Dir(id string) string {
	return filepath.Join(s.base, id)
}

func (s *ItemStore) Path(id, name string) string {
	return filepath.Join(s.base, id, filepath.Base(name))
}

func (s *ItemStore) IndexPath(id string) string {
	return s.Path(id, IndexName)
}

func (s *ItemStore) ExtractionPath(id, extractionType string) string {
	return s.Path(id, fmt.Sprintf("extraction_%s.txt", extractionType))
}

// SaveArtifact streams the original uploaded artifact into the item directory
// and returns the stored path.
func (s *ItemStore) SaveArtifact(id, name string, r io.Reader) (string, error) {
	path := s.Path(id, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFile writes an artifact atomically: the bytes land in a temp file in
// the item directory and are renamed into place, so readers never observe a
// partially-written artifact.
func (s *ItemStore) WriteFile(id, name string, data []byte) error {
	path := s.Path(id, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return WriteAtomic(path, data)
}

func (s *ItemStore) ReadFile(id, name string) ([]byte, error) {
	return os.ReadFile(s.Path(id, name))
}

// Exists reports whether the named artifact exists for the item.
func (s *ItemStore) Exists(id, name string) bool {
	_, err := os.Stat(s.Path(id, name))
	return err == nil
}

// Remove deletes the whole item directory, best effort.
func (s *ItemStore) Remove(id string) error {
	return os.RemoveAll(s.Dir(id))
}

// WriteAtomic writes data to a temp file next to path and renames it into
// place. Rename within one directory is atomic on POSIX filesystems, so
// concurrent or retried writers leave the last complete version, never a
// torn file.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}
