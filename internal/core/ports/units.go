package ports

import (
	"context"

	"go.trai.ch/neja/internal/core/domain"
)

// UnitLoader executes definition units. Loading a unit runs its declarations against
// the given Declarer and returns the unit's exported bindings.
//
//go:generate mockgen -source=units.go -destination=mocks/mock_units.go -package=mocks
type UnitLoader interface {
	// Supports reports whether the loader understands the unit at path.
	Supports(path domain.Path) bool
	// Load executes the unit at path.
	Load(ctx context.Context, path domain.Path, d Declarer) (domain.Exports, error)
}
