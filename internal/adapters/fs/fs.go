package fs

import (
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/neja/internal/core/domain"
	"go.trai.ch/neja/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.FileSystem = (*FileSystem)(nil)

// FileSystem implements ports.FileSystem on the os package.
type FileSystem struct{}

// NewFileSystem creates a new FileSystem.
func NewFileSystem() *FileSystem {
	return &FileSystem{}
}

// trim drops the trailing separator of directory paths, which some syscalls reject.
func trim(path string) string {
	if len(path) > 1 {
		return strings.TrimSuffix(path, string(filepath.Separator))
	}
	return path
}

// Exists reports whether anything exists at path. Broken symlinks count as existing.
func (f *FileSystem) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Lstat(trim(path))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, iofs.ErrNotExist):
		return false, nil
	default:
		return false, zerr.With(zerr.Wrap(err, "failed to stat path"), "path", path)
	}
}

// ReadFile reads a whole file.
func (f *FileSystem) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read file"), "path", path)
	}
	return data, nil
}

// WriteFile writes data to path with the given permissions.
func (f *FileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := os.WriteFile(path, data, perm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write file"), "path", path)
	}
	return nil
}

// Mkdir creates a directory.
func (f *FileSystem) Mkdir(path string, perm os.FileMode, recursive, failIfExists bool) error {
	path = trim(path)
	var err error
	switch {
	case failIfExists:
		if recursive {
			if err = os.MkdirAll(filepath.Dir(path), perm); err != nil {
				break
			}
		}
		err = os.Mkdir(path, perm)
	case recursive:
		err = os.MkdirAll(path, perm)
	default:
		err = os.Mkdir(path, perm)
		if errors.Is(err, iofs.ErrExist) {
			err = nil
		}
	}
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create directory"), "path", path)
	}
	return nil
}

// Symlink points link at target. Missing parents are created and an existing symlink
// is replaced; any other existing entry is an error.
func (f *FileSystem) Symlink(target, link string) error {
	target, link = trim(target), trim(link)
	if err := os.MkdirAll(filepath.Dir(link), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create directory"), "path", filepath.Dir(link))
	}

	if info, err := os.Lstat(link); err == nil {
		if info.Mode()&os.ModeSymlink == 0 {
			return zerr.With(zerr.Wrap(iofs.ErrExist, "refusing to replace a non-link"), "path", link)
		}
		if current, err := os.Readlink(link); err == nil && current == target {
			return nil
		}
		if err := os.Remove(link); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to replace link"), "path", link)
		}
	}

	if err := os.Symlink(target, link); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create link"), "path", link)
	}
	return nil
}

// CreateTemp creates a new temporary file in dir.
func (f *FileSystem) CreateTemp(dir, pattern string) (ports.TempFile, error) {
	file, err := os.CreateTemp(trim(dir), pattern)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to create temporary file"), "dir", dir)
	}
	return file, nil
}

// Rename moves a file into place.
func (f *FileSystem) Rename(oldPath, newPath string) error {
	if err := os.Rename(oldPath, newPath); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to rename file"), "path", newPath)
	}
	return nil
}

// Remove deletes a file. Missing files are not an error.
func (f *FileSystem) Remove(path string) error {
	if err := os.Remove(trim(path)); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, "failed to remove file"), "path", path)
	}
	return nil
}
