// Package units loads definition units written in YAML, HCL or TOML.
package units

import (
	"context"
	"strings"

	"go.trai.ch/neja/internal/core/domain"
	"go.trai.ch/neja/internal/core/ports"
)

var _ ports.UnitLoader = (*Loader)(nil)

type parser func(unit domain.Path, data []byte) (*document, error)

// Loader implements ports.UnitLoader for neja.yaml, neja.hcl and flags.neja.toml units and
// their *.neja.<ext> variants.
type Loader struct {
	fs ports.FileSystem
}

// NewLoader creates a Loader that reads units through fsys.
func NewLoader(fsys ports.FileSystem) *Loader {
	return &Loader{fs: fsys}
}

func parserFor(path domain.Path) parser {
	base := path.Base()
	switch {
	case base == domain.UnitFileName || strings.HasSuffix(base, ".neja.yaml"):
		return parseYAML
	case base == domain.HCLUnitFileName || strings.HasSuffix(base, ".neja.hcl"):
		return parseHCL
	case strings.HasSuffix(base, ".neja.toml"):
		return parseTOML
	default:
		return nil
	}
}

// Supports reports whether path names a unit this loader can parse.
func (l *Loader) Supports(path domain.Path) bool {
	return parserFor(path) != nil
}

// Load parses the unit at path and runs its declarations against d.
func (l *Loader) Load(ctx context.Context, path domain.Path, d ports.Declarer) (domain.Exports, error) {
	parse := parserFor(path)
	if parse == nil {
		return nil, domain.ErrUnsupportedUnit
	}
	data, err := l.fs.ReadFile(string(path))
	if err != nil {
		return nil, err
	}
	doc, err := parse(path, data)
	if err != nil {
		return nil, err
	}
	return run(ctx, d, path, doc)
}
