// Package media stores post attachments on the local filesystem.
package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

//go:generate mockgen -destination=./mock/media.go -package=mock -source=media.go

// ErrNotFound ...
var ErrNotFound = errors.New("not found")

// ErrInvalidKey ...
var ErrInvalidKey = errors.New("invalid media key")

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9-]`)

// Extension ...
type Extension string

const (
	// JPG ...
	JPG Extension = "jpg"
	// MP4 ...
	MP4 Extension = "mp4"
)

// Store keeps media assets referenced by posts.
type Store interface {
	// Save writes asset and returns its reference.
	Save(name string, ext Extension, r io.Reader) (string, error)
	// Open opens asset by public key in form "<name>-<ext>".
	Open(key string) (io.ReadCloser, Extension, error)
	// Remove deletes asset by reference. Missing asset is not an error.
	Remove(ref string) error
}

// Key returns public key for asset name.
func Key(name string, ext Extension) string {
	return SanitizeKey(name) + "-" + string(ext)
}

// SanitizeKey drops everything except alphanumeric characters and hyphens.
func SanitizeKey(s string) string {
	return unsafeKeyChars.ReplaceAllString(s, "")
}

type fsStore struct {
	dir string
}

// NewFS creates Store rooted at dir.
func NewFS(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}

	return fsStore{dir: dir}, nil
}

func (s fsStore) path(name string, ext Extension) string {
	return filepath.Join(s.dir, SanitizeKey(name)+"."+string(ext))
}

func (s fsStore) Save(name string, ext Extension, r io.Reader) (string, error) {
	if SanitizeKey(name) == "" {
		return "", ErrInvalidKey
	}

	p := s.path(name, ext)
	tmp := p + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmp, p); err != nil {
		return "", fmt.Errorf("failed to rename file: %w", err)
	}

	return p, nil
}

func (s fsStore) Open(key string) (io.ReadCloser, Extension, error) {
	key = SanitizeKey(key)

	i := strings.LastIndex(key, "-")
	if i <= 0 {
		return nil, "", ErrInvalidKey
	}

	ext := Extension(key[i+1:])
	if ext != JPG && ext != MP4 {
		return nil, "", ErrInvalidKey
	}

	f, err := os.Open(s.path(key[:i], ext))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}

	return f, ext, nil
}

func (s fsStore) Remove(ref string) error {
	if ref == "" {
		return nil
	}

	if err := os.Remove(ref); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}

	return nil
}
