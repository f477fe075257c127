// Package manifest stores the record of the last successful generation run.
package manifest

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
	"go.trai.ch/neja/internal/core/domain"
	"go.trai.ch/neja/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ManifestStore = (*Store)(nil)

// Store implements ports.ManifestStore with one msgpack file in the build directory.
type Store struct{}

// NewStore creates a new Store.
func NewStore() *Store {
	return &Store{}
}

func path(buildDir string) string {
	return filepath.Join(filepath.Clean(buildDir), domain.ManifestFileName)
}

// Load reads the manifest of buildDir.
func (s *Store) Load(buildDir string) (*domain.Manifest, error) {
	p := path(buildDir)
	data, err := os.ReadFile(p) //nolint:gosec // Path is cleaned and provided by trusted caller
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(domain.Mark(domain.ErrNoManifest), "build_dir", buildDir)
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrManifestReadFailed.Error()), "path", p)
	}

	var m domain.Manifest
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrManifestDecodeFailed.Error()), "path", p)
	}
	return &m, nil
}

// Save writes m to buildDir, replacing any previous manifest.
func (s *Store) Save(buildDir string, m *domain.Manifest) error {
	data, err := msgpack.Marshal(m)
	if err != nil {
		return zerr.Wrap(err, domain.ErrManifestEncodeFailed.Error())
	}

	p := path(buildDir)
	if err := os.MkdirAll(filepath.Dir(p), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrManifestWriteFailed.Error()), "path", p)
	}

	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrManifestWriteFailed.Error()), "path", p)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return zerr.With(zerr.Wrap(err, domain.ErrManifestWriteFailed.Error()), "path", p)
	}
	return nil
}

// Remove deletes the manifest of buildDir, if present.
func (s *Store) Remove(buildDir string) error {
	p := path(buildDir)
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, "failed to remove run manifest"), "path", p)
	}
	return nil
}
