// Package ports defines the interfaces the engine consumes and the adapters implement.
package ports

import (
	"context"

	"go.trai.ch/neja/internal/core/domain"
)

// Declarer is the declaration API that definition units call while they are loaded.
type Declarer interface {
	// SourceRoot returns the project source root.
	SourceRoot() *domain.FileItem
	// BuildRoot returns the reserved build root.
	BuildRoot() *domain.FileItem
	// OutRoot returns the build products root.
	OutRoot() *domain.FileItem
	// BinRoot returns the executables root.
	BinRoot() *domain.FileItem

	// Declare returns the item at the resolved path, creating it and any missing ancestors.
	Declare(kind domain.ItemKind, seed domain.Path, mods ...domain.PathModifier) (*domain.FileItem, error)
	// Query returns the item at the resolved path if it was declared.
	Query(kind domain.ItemKind, seed domain.Path, mods ...domain.PathModifier) (*domain.FileItem, error)
	// Pipe attaches a pipe to an item.
	Pipe(ctx context.Context, item *domain.FileItem, p domain.Pipe) error
	// Tree declares a tree of items below root, attaching the pipes it names.
	Tree(ctx context.Context, root *domain.FileItem, tree domain.Tree) error

	// AddTarget registers a target for resolution.
	AddTarget(t domain.Target) error
	// Var returns the placeholder for one of a target's fields.
	Var(t domain.Target, field string) (domain.RuleVar, error)

	// Import returns the pipe that loads the definition unit inside each received directory.
	Import() domain.Pipe
	// NinjaVar returns a pipe that binds received items to a header variable.
	NinjaVar(name string, overwrite bool) domain.Pipe
	// Write returns a pipe that writes literal content to each received file.
	Write(spec domain.WriteSpec) domain.Pipe
	// Symlink returns a pipe that links each received item to target.
	Symlink(target domain.Path) domain.Pipe
	// Mkdir returns a pipe that creates each received directory.
	Mkdir(spec domain.MkdirSpec) domain.Pipe

	// ResolveFlags runs the flag handshake for the unit's schema.
	ResolveFlags(ctx context.Context, unit domain.Path, schema domain.FlagSchema) (map[string]any, error)
	// ProvideFlags supplies flag values.
	ProvideFlags(values []domain.FlagValue) error

	// CurrentSourceDir returns the source directory containing unit.
	CurrentSourceDir(unit domain.Path) (*domain.FileItem, error)
	// CurrentOutDir returns the out-root counterpart of CurrentSourceDir.
	CurrentOutDir(unit domain.Path) (*domain.FileItem, error)

	// Load executes another definition unit, at most once per path.
	Load(ctx context.Context, unit domain.Path) (domain.Exports, error)
}
