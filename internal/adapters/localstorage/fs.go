package localstorage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"albumgrab/internal/core/domain"
)

// LocalStorage implements ports.Storage over an afero filesystem.
type LocalStorage struct {
	fs      afero.Fs
	BaseDir string
}

// NewLocalStorage creates a LocalStorage on the OS filesystem.
func NewLocalStorage(baseDir string) *LocalStorage {
	return NewLocalStorageFs(afero.NewOsFs(), baseDir)
}

// NewLocalStorageFs creates a LocalStorage on the given filesystem.
func NewLocalStorageFs(fs afero.Fs, baseDir string) *LocalStorage {
	return &LocalStorage{fs: fs, BaseDir: filepath.Clean(baseDir)}
}

// EnsureDir creates the output directory and any missing parents.
func (s *LocalStorage) EnsureDir(ctx context.Context) error {
	if err := s.fs.MkdirAll(s.BaseDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", s.BaseDir, err)
	}
	return nil
}

// Create creates or truncates the named file inside the output directory.
func (s *LocalStorage) Create(name string) (io.WriteCloser, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	path := s.Path(name)

	file, err := s.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", path, err)
	}
	return file, nil
}

// Path returns the path of the named file.
func (s *LocalStorage) Path(name string) string {
	return filepath.Join(s.BaseDir, name)
}

// Dir returns the output directory.
func (s *LocalStorage) Dir() string {
	return s.BaseDir
}

func checkName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", domain.ErrUnsafeName, name)
	case strings.ContainsAny(name, `/\`), strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q", domain.ErrUnsafeName, name)
	}
	return nil
}
