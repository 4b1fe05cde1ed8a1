package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrExtensionNotAllowed = errors.New("file type is not allowed")
	ErrFileTooLarge        = errors.New("file is too large")
)

// Store keeps uploaded files of one kind (documents, receipts) under a
// directory, renamed to random names that keep the original extension.
type Store struct {
	dir        string
	extensions []string
	maxSize    int64
}

func NewStore(root, kind string, extensions []string, maxSize int64) (*Store, error) {
	dir := filepath.Join(root, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	normalized := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		normalized = append(normalized, strings.ToLower(strings.TrimPrefix(ext, ".")))
	}

	return &Store{dir: dir, extensions: normalized, maxSize: maxSize}, nil
}

// Allowed reports whether the filename's extension is on the store's allow-list.
func (s *Store) Allowed(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	return ext != "" && slices.Contains(s.extensions, ext)
}

// Save copies r into the store and returns the stored name.
func (s *Store) Save(filename string, r io.Reader) (string, error) {
	if !s.Allowed(filename) {
		return "", fmt.Errorf("%w: %s", ErrExtensionNotAllowed, filepath.Ext(filename))
	}

	storedName := uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(s.dir, storedName)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}

	n, err := io.Copy(f, io.LimitReader(r, s.maxSize+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && n > s.maxSize {
		err = ErrFileTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}

	return storedName, nil
}

func (s *Store) path(storedName string) string {
	return filepath.Join(s.dir, filepath.Base(storedName))
}

func (s *Store) Open(storedName string) (*os.File, error) {
	return os.Open(s.path(storedName))
}

// Remove deletes a stored file. A file that is already gone is not an error.
func (s *Store) Remove(storedName string) error {
	if storedName == "" {
		return nil
	}
	if err := os.Remove(s.path(storedName)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
