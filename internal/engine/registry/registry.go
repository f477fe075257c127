// Package registry owns the file items of a compilation session and attaches pipes to them.
package registry

import (
	"context"
	"strings"

	"go.trai.ch/neja/internal/core/domain"
	"go.trai.ch/neja/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// Registry maps every declared path to its single FileItem.
type Registry struct {
	sched *scheduler.Scheduler
	items map[domain.Path]*domain.FileItem

	source *domain.FileItem
	build  *domain.FileItem
	out    *domain.FileItem
	bin    *domain.FileItem

	ninjaVars []*domain.FileItem
}

// New creates a Registry with the four predefined virtual roots.
// The source directory must not be nested in the build directory.
func New(ctx context.Context, sched *scheduler.Scheduler, sourceDir, buildDir string) (*Registry, error) {
	sourcePath, err := domain.NormalizeAs(domain.KindDir, sourceDir)
	if err != nil {
		return nil, err
	}
	buildPath, err := domain.NormalizeAs(domain.KindDir, buildDir)
	if err != nil {
		return nil, err
	}
	if domain.IsDescendant(buildPath, sourcePath, true) {
		err = zerr.With(domain.Mark(domain.ErrSourceInsideBuild), "source_dir", string(sourcePath))
		return nil, zerr.With(err, "build_dir", string(buildPath))
	}

	r := &Registry{
		sched: sched,
		items: make(map[domain.Path]*domain.FileItem),
	}

	if r.source, err = r.root(ctx, sourcePath, domain.SourceDirVar); err != nil {
		return nil, err
	}
	if r.build, err = r.root(ctx, buildPath, domain.BuildDirVar); err != nil {
		return nil, err
	}
	if r.out, err = r.root(ctx, domain.Resolve(buildPath, domain.Seg(domain.OutDirName)), ""); err != nil {
		return nil, err
	}
	if r.bin, err = r.root(ctx, domain.Resolve(buildPath, domain.Seg(domain.BinDirName)), ""); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) root(ctx context.Context, path domain.Path, ninjaVar string) (*domain.FileItem, error) {
	item, err := r.declarePath(path, true)
	if err != nil {
		return nil, err
	}
	pipes := domain.Pipes{domain.VirtualRoot()}
	if ninjaVar != "" {
		pipes = append(pipes, r.NinjaVar(ninjaVar, false))
	}
	if err := r.Attach(ctx, item, pipes); err != nil {
		return nil, err
	}
	return item, nil
}

// SourceRoot returns the project source root.
func (r *Registry) SourceRoot() *domain.FileItem { return r.source }

// BuildRoot returns the reserved build root.
func (r *Registry) BuildRoot() *domain.FileItem { return r.build }

// OutRoot returns the build products root.
func (r *Registry) OutRoot() *domain.FileItem { return r.out }

// BinRoot returns the executables root.
func (r *Registry) BinRoot() *domain.FileItem { return r.bin }

// NinjaVarItems returns the items carrying a ninja variable, in the order the variables were attached.
func (r *Registry) NinjaVarItems() []*domain.FileItem { return r.ninjaVars }

// Len returns the number of declared items.
func (r *Registry) Len() int { return len(r.items) }

// Declare returns the item at the resolved path, creating it and its missing ancestors.
// Paths directly inside the build root are reserved.
func (r *Registry) Declare(kind domain.ItemKind, seed domain.Path, mods ...domain.PathModifier) (*domain.FileItem, error) {
	path, err := domain.ResolveAs(kind, seed, mods...)
	if err != nil {
		return nil, err
	}
	return r.declarePath(path, false)
}

// DeclareInternal is Declare relative to the build root, bypassing the reservation.
func (r *Registry) DeclareInternal(kind domain.ItemKind, mods ...domain.PathModifier) (*domain.FileItem, error) {
	path, err := domain.ResolveAs(kind, r.build.Path(), mods...)
	if err != nil {
		return nil, err
	}
	return r.declarePath(path, true)
}

// Query returns the item at the resolved path, or nil if it was never declared.
func (r *Registry) Query(kind domain.ItemKind, seed domain.Path, mods ...domain.PathModifier) (*domain.FileItem, error) {
	path, err := domain.ResolveAs(kind, seed, mods...)
	if err != nil {
		return nil, err
	}
	return r.items[path], nil
}

// declarePath walks up to the nearest declared ancestor, then creates the missing items downward.
func (r *Registry) declarePath(path domain.Path, allowBuildRoot bool) (*domain.FileItem, error) {
	var missing []domain.Path
	var anchor *domain.FileItem

	current := path
	for {
		if err := r.checkKind(current); err != nil {
			return nil, err
		}
		if existing, ok := r.items[current]; ok {
			if existing == r.build && !allowBuildRoot {
				return nil, zerr.With(domain.Mark(domain.ErrBuildRootReserved), "path", string(path))
			}
			anchor = existing
			break
		}
		parent := current.Parent()
		if parent == current {
			break
		}
		missing = append(missing, current)
		current = parent
	}

	if anchor == nil {
		root, err := domain.NewRootItem(current)
		if err != nil {
			return nil, err
		}
		r.items[current] = root
		anchor = root
	}

	for i := len(missing) - 1; i >= 0; i-- {
		child, err := domain.NewChildItem(anchor, missing[i])
		if err != nil {
			return nil, err
		}
		r.items[missing[i]] = child
		anchor = child
	}
	return anchor, nil
}

// checkKind fails if path is already registered with the other kind.
func (r *Registry) checkKind(path domain.Path) error {
	var other domain.Path
	if path.Kind() == domain.KindDir {
		other = domain.Path(strings.TrimSuffix(string(path), domain.Sep))
	} else {
		other = path + domain.Path(domain.Sep)
	}
	existing, ok := r.items[other]
	if !ok {
		return nil
	}
	err := zerr.With(domain.Mark(domain.ErrItemTypeMismatch), "path", string(path))
	return zerr.With(err, "existing", existing.Kind().String())
}

// Attach queues each pipe of p on item, in order.
func (r *Registry) Attach(ctx context.Context, item *domain.FileItem, p domain.Pipe) error {
	for _, pipe := range domain.Flatten(p) {
		err := r.sched.Submit(ctx, item, func(ctx context.Context) (domain.Deferred, error) {
			return pipe.OnItem(ctx, item)
		})
		if err != nil {
			return zerr.With(err, "path", string(item.Path()))
		}
	}
	return nil
}

// Tree declares every entry of tree below root and attaches the entries' pipes.
func (r *Registry) Tree(ctx context.Context, root *domain.FileItem, tree domain.Tree) error {
	for _, entry := range tree {
		child, err := r.Declare(domain.KindAny, root.Path(), domain.Seg(entry.Name))
		if err != nil {
			return err
		}
		if entry.Pipe != nil {
			if err := r.Attach(ctx, child, entry.Pipe); err != nil {
				return err
			}
		}
		if entry.Children == nil {
			continue
		}
		if child.Kind() != domain.KindDir {
			return zerr.With(domain.Mark(domain.ErrNotADirectory), "path", string(child.Path()))
		}
		if err := r.Tree(ctx, child, entry.Children); err != nil {
			return err
		}
	}
	return nil
}

// SettleTree runs the outstanding pipe work of item and all its declared descendants.
func (r *Registry) SettleTree(ctx context.Context, item *domain.FileItem, includeSelf bool) error {
	for d := range item.Descendants(includeSelf) {
		if err := r.sched.Settle(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// NinjaVar returns a pipe that binds each received item to a header variable.
func (r *Registry) NinjaVar(name string, overwrite bool) domain.Pipe {
	return domain.PipeFunc(func(_ context.Context, item *domain.FileItem) (domain.Deferred, error) {
		hadVar := item.NinjaVar() != nil
		if err := item.SetNinjaVar(name, overwrite); err != nil {
			return nil, err
		}
		if !hadVar {
			r.ninjaVars = append(r.ninjaVars, item)
		}
		return nil, nil
	})
}

// Counterpart returns the path under root with the same virtual path as item.
func Counterpart(root, item *domain.FileItem) domain.Path {
	return domain.Resolve(root.Path(), item)
}
