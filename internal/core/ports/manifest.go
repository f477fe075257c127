package ports

import "go.trai.ch/neja/internal/core/domain"

// ManifestStore persists the record of the last successful run.
//
//go:generate mockgen -source=manifest.go -destination=mocks/mock_manifest.go -package=mocks
type ManifestStore interface {
	// Load reads the manifest from the build directory. It returns domain.ErrNoManifest if none exists.
	Load(buildDir string) (*domain.Manifest, error)
	// Save writes the manifest to the build directory.
	Save(buildDir string, m *domain.Manifest) error
	// Remove deletes the manifest, if present.
	Remove(buildDir string) error
}
