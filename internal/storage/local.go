// Package storage persists raw document bytes on the local filesystem.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"tenderquote/internal/model"
)

type LocalStore struct {
	uploadDir    string
	generatedDir string
}

// NewLocalStore creates the storage directories if they do not exist yet.
func NewLocalStore(uploadDir, generatedDir string) (*LocalStore, error) {
	for _, dir := range []string{uploadDir, generatedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir %s failed: %w", dir, err)
		}
	}
	return &LocalStore{
		uploadDir:    uploadDir,
		generatedDir: generatedDir,
	}, nil
}

// Save writes data under a fresh uuid-hex filename and returns the stored
// filename and its full path. Generated offers land in their own directory.
func (s *LocalStore) Save(category, ext string, data []byte) (filename, path string, err error) {
	dir := s.uploadDir
	if category == model.DocumentTypeGenerated {
		dir = s.generatedDir
	}

	filename = uuid.New().String() + strings.ToLower(ext)
	path = filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write document file failed: %w", err)
	}
	return filename, path, nil
}

// Remove deletes the stored file; a missing file is not an error.
func (s *LocalStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove document file failed: %w", err)
	}
	return nil
}
