// Package upload stores uploaded label images on local disk.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrEmptyFilename is returned when the client sent a file part with no name.
var ErrEmptyFilename = errors.New("empty filename")

// maxExtLen bounds the extension kept from the client's filename, dot included.
const maxExtLen = 6

// Store writes uploads into a single directory under random names.
//
// Client filenames are never used as paths: only a sanitized extension is
// kept, so "../../etc/passwd.png" becomes "<uuid>.png".
type Store struct {
	dir    string
	retain bool
}

// NewStore creates dir if needed. When retain is false, Release deletes files.
func NewStore(dir string, retain bool) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Store{dir: dir, retain: retain}, nil
}

// Dir returns the upload directory.
func (s *Store) Dir() string { return s.dir }

// Save copies the uploaded file to the store and returns its path.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	if fh == nil || strings.TrimSpace(fh.Filename) == "" {
		return "", ErrEmptyFilename
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	path := filepath.Join(s.dir, uuid.New().String()+Ext(fh.Filename))
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	return path, nil
}

// Release removes a stored file unless the store retains uploads. Removing a
// file that is already gone is not an error.
func (s *Store) Release(path string) error {
	if s.retain {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove upload: %w", err)
	}
	return nil
}

// Ext returns the lowercase extension of name if it is short and purely
// alphanumeric, otherwise "".
func Ext(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) < 2 || len(ext) > maxExtLen {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
