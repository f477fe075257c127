// Package fs provides the OS filesystem, content hashing and source-tree walking.
package fs

import (
	iofs "io/fs"
	"iter"
	"path/filepath"
	"slices"

	"go.trai.ch/neja/internal/core/ports"
)

// Walker walks source trees.
type Walker struct{}

var _ ports.Walker = (*Walker)(nil)

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields the files below root whose base name is one of names, in lexical order.
// Version control directories and directories matching a skip pattern are not entered.
// Symlinked directories are not followed.
func (w *Walker) WalkFiles(root string, names, skip []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable entries are skipped
			}
			if d.IsDir() {
				if path != root && skipDir(d.Name(), skip) {
					return filepath.SkipDir
				}
				return nil
			}
			if !slices.Contains(names, d.Name()) {
				return nil
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func skipDir(name string, skip []string) bool {
	if name == ".git" || name == ".jj" {
		return true
	}
	for _, pattern := range skip {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}
