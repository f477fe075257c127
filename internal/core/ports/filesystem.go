package ports

import (
	"context"
	"io"
	"os"
)

// FileSystem is the filesystem surface used by pipes and by output writing.
//
//go:generate mockgen -source=filesystem.go -destination=mocks/mock_filesystem.go -package=mocks
type FileSystem interface {
	// Exists reports whether a file or directory exists at path.
	Exists(ctx context.Context, path string) (bool, error)
	// ReadFile reads a whole file.
	ReadFile(path string) ([]byte, error)
	// WriteFile writes data to path with the given permissions.
	WriteFile(path string, data []byte, perm os.FileMode) error
	// Mkdir creates a directory, and its parents when recursive is set.
	// An existing directory is only an error when failIfExists is set.
	Mkdir(path string, perm os.FileMode, recursive, failIfExists bool) error
	// Symlink points link at target, replacing link if it already is a symlink.
	Symlink(target, link string) error
	// CreateTemp creates a new temporary file in dir.
	CreateTemp(dir, pattern string) (TempFile, error)
	// Rename moves a file into place.
	Rename(oldPath, newPath string) error
	// Remove deletes a file. Missing files are not an error.
	Remove(path string) error
}

// TempFile is a writable file created by FileSystem.CreateTemp.
type TempFile interface {
	io.WriteCloser
	Name() string
}
