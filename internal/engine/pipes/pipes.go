// Package pipes provides the pipes that touch the filesystem.
package pipes

import (
	"context"
	"os"

	"fortio.org/safecast"
	"go.trai.ch/neja/internal/core/domain"
	"go.trai.ch/neja/internal/core/ports"
	"go.trai.ch/zerr"
)

// Write returns a pipe that writes spec.Content to each received file.
// Existing files are left alone unless spec.Overwrite is set.
func Write(fsys ports.FileSystem, spec domain.WriteSpec) domain.Pipe {
	return domain.PipeFunc(func(_ context.Context, item *domain.FileItem) (domain.Deferred, error) {
		if item.Kind() != domain.KindFile {
			return nil, zerr.With(domain.Mark(domain.ErrNotAFile), "path", string(item.Path()))
		}
		mode, err := FileMode(spec.Mode, domain.FilePerm)
		if err != nil {
			return nil, zerr.With(err, "path", string(item.Path()))
		}

		return func(ctx context.Context) error {
			path := string(item.Path())
			if !spec.Overwrite {
				exists, err := fsys.Exists(ctx, path)
				if err != nil {
					return err
				}
				if exists {
					return nil
				}
			}
			if spec.CreateParents {
				if err := fsys.Mkdir(string(item.Parent().Path()), domain.DirPerm, true, false); err != nil {
					return err
				}
			}
			return fsys.WriteFile(path, spec.Content, mode)
		}, nil
	})
}

// Symlink returns a pipe that links each received item to target, creating missing parents.
// An existing link at the item's path is replaced.
func Symlink(fsys ports.FileSystem, target domain.Path) domain.Pipe {
	return domain.PipeFunc(func(_ context.Context, item *domain.FileItem) (domain.Deferred, error) {
		return func(context.Context) error {
			return fsys.Symlink(string(target), string(item.Path()))
		}, nil
	})
}

// Mkdir returns a pipe that creates each received directory.
func Mkdir(fsys ports.FileSystem, spec domain.MkdirSpec) domain.Pipe {
	return domain.PipeFunc(func(_ context.Context, item *domain.FileItem) (domain.Deferred, error) {
		if item.Kind() != domain.KindDir {
			return nil, zerr.With(domain.Mark(domain.ErrNotADirectory), "path", string(item.Path()))
		}
		return func(context.Context) error {
			return fsys.Mkdir(string(item.Path()), domain.DirPerm, spec.Recursive, spec.FailIfExists)
		}, nil
	})
}

// FileMode converts a declared permission to an os.FileMode. Zero selects fallback.
func FileMode(mode int64, fallback os.FileMode) (os.FileMode, error) {
	if mode == 0 {
		return fallback, nil
	}
	perm, err := safecast.Conv[uint32](mode)
	if err != nil || perm > uint32(os.ModePerm) {
		return 0, zerr.With(domain.Mark(domain.ErrInvalidFileMode), "mode", mode)
	}
	return os.FileMode(perm), nil
}
