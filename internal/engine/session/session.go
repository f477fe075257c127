// Package session runs one compilation: it loads definition units against a shared
// declaration state and turns the settled graph into a Ninja graph.
package session

import (
	"context"
	"maps"
	"slices"

	"go.trai.ch/neja/internal/core/domain"
	"go.trai.ch/neja/internal/core/ports"
	"go.trai.ch/neja/internal/engine/flags"
	"go.trai.ch/neja/internal/engine/pipes"
	"go.trai.ch/neja/internal/engine/registry"
	"go.trai.ch/neja/internal/engine/rules"
	"go.trai.ch/neja/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Config locates a compilation.
type Config struct {
	// RootUnit is the absolute path of the main definition unit. Its directory is the source root.
	RootUnit string
	// BuildDir is the absolute build directory.
	BuildDir string
	// Exe is the command line prefix that reruns neja. Empty disables the regeneration target.
	Exe string
	// LinkBuildDir creates the build directory link inside the source root.
	LinkBuildDir bool
}

type unitState struct {
	item    *domain.FileItem
	exports domain.Exports
	loading bool
}

// Session owns the declaration state of one compilation and implements ports.Declarer.
type Session struct {
	cfg      Config
	rootUnit domain.Path

	sched   *scheduler.Scheduler
	reg     *registry.Registry
	flags   *flags.Exchange
	targets *rules.Set

	fs      ports.FileSystem
	loaders []ports.UnitLoader
	logger  ports.Logger

	units     map[domain.Path]*unitState
	resolved  map[string]any
	generator *rules.Generator
	ninjaFile *domain.FileItem
}

var _ ports.Declarer = (*Session)(nil)

// New prepares a session. Nothing is loaded until Load or Compile is called.
func New(
	ctx context.Context,
	cfg Config,
	fsys ports.FileSystem,
	logger ports.Logger,
	loaders ...ports.UnitLoader,
) (*Session, error) {
	rootUnit, err := domain.NormalizeAs(domain.KindFile, cfg.RootUnit)
	if err != nil {
		return nil, zerr.With(err, "unit", cfg.RootUnit)
	}

	sched := scheduler.NewScheduler()
	reg, err := registry.New(ctx, sched, string(rootUnit.Parent()), cfg.BuildDir)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:      cfg,
		rootUnit: rootUnit,
		sched:    sched,
		reg:      reg,
		flags:    flags.NewExchange(),
		fs:       fsys,
		loaders:  loaders,
		logger:   logger,
		units:    make(map[domain.Path]*unitState),
		resolved: make(map[string]any),
	}
	s.targets = rules.NewSet(s.globalVars)

	if s.ninjaFile, err = reg.DeclareInternal(domain.KindFile, domain.Seg(domain.NinjaFileName)); err != nil {
		return nil, err
	}
	if cfg.Exe != "" {
		s.generator = rules.NewGenerator(cfg.Exe)
		if err := s.targets.Add(s.generator); err != nil {
			return nil, err
		}
		if err := reg.Attach(ctx, s.ninjaFile, s.generator.Outs); err != nil {
			return nil, err
		}
	}
	if cfg.LinkBuildDir {
		link, err := reg.Declare(domain.KindDir, reg.SourceRoot().Path(), domain.Seg(domain.BuildDirLinkName))
		if err != nil {
			return nil, err
		}
		if err := reg.Attach(ctx, link, s.Symlink(reg.BuildRoot().Path())); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Session) globalVars() []string {
	items := s.reg.NinjaVarItems()
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.NinjaVar().Name()
	}
	return names
}

// RootUnit returns the path of the main definition unit.
func (s *Session) RootUnit() domain.Path { return s.rootUnit }

// NinjaFile returns the output item.
func (s *Session) NinjaFile() *domain.FileItem { return s.ninjaFile }

// Units returns the paths of every loaded unit, sorted.
func (s *Session) Units() []domain.Path {
	paths := make([]domain.Path, 0, len(s.units))
	for p := range s.units {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Flags returns every flag value handed out so far.
func (s *Session) Flags() map[string]any { return maps.Clone(s.resolved) }

// Targets returns the declared targets in declaration order.
func (s *Session) Targets() []domain.Target { return s.targets.Targets() }

// SourceRoot implements ports.Declarer.
func (s *Session) SourceRoot() *domain.FileItem { return s.reg.SourceRoot() }

// BuildRoot implements ports.Declarer.
func (s *Session) BuildRoot() *domain.FileItem { return s.reg.BuildRoot() }

// OutRoot implements ports.Declarer.
func (s *Session) OutRoot() *domain.FileItem { return s.reg.OutRoot() }

// BinRoot implements ports.Declarer.
func (s *Session) BinRoot() *domain.FileItem { return s.reg.BinRoot() }

// Declare implements ports.Declarer.
func (s *Session) Declare(kind domain.ItemKind, seed domain.Path, mods ...domain.PathModifier) (*domain.FileItem, error) {
	return s.reg.Declare(kind, seed, mods...)
}

// Query implements ports.Declarer.
func (s *Session) Query(kind domain.ItemKind, seed domain.Path, mods ...domain.PathModifier) (*domain.FileItem, error) {
	return s.reg.Query(kind, seed, mods...)
}

// Pipe implements ports.Declarer.
func (s *Session) Pipe(ctx context.Context, item *domain.FileItem, p domain.Pipe) error {
	return s.reg.Attach(ctx, item, p)
}

// Tree implements ports.Declarer.
func (s *Session) Tree(ctx context.Context, root *domain.FileItem, tree domain.Tree) error {
	return s.reg.Tree(ctx, root, tree)
}

// AddTarget implements ports.Declarer.
func (s *Session) AddTarget(t domain.Target) error {
	return s.targets.Add(t)
}

// Var implements ports.Declarer.
func (s *Session) Var(t domain.Target, field string) (domain.RuleVar, error) {
	return s.targets.Var(t, field)
}

// NinjaVar implements ports.Declarer.
func (s *Session) NinjaVar(name string, overwrite bool) domain.Pipe {
	return s.reg.NinjaVar(name, overwrite)
}

// Write implements ports.Declarer.
func (s *Session) Write(spec domain.WriteSpec) domain.Pipe {
	return pipes.Write(s.fs, spec)
}

// Symlink implements ports.Declarer.
func (s *Session) Symlink(target domain.Path) domain.Pipe {
	return pipes.Symlink(s.fs, target)
}

// Mkdir implements ports.Declarer.
func (s *Session) Mkdir(spec domain.MkdirSpec) domain.Pipe {
	return pipes.Mkdir(s.fs, spec)
}

// CurrentSourceDir implements ports.Declarer.
func (s *Session) CurrentSourceDir(unit domain.Path) (*domain.FileItem, error) {
	if !domain.IsDescendant(s.reg.SourceRoot().Path(), unit, false) {
		return nil, zerr.With(domain.Mark(domain.ErrUnitOutsideSource), "unit", string(unit))
	}
	return s.reg.Declare(domain.KindDir, unit.Parent())
}

// CurrentOutDir implements ports.Declarer.
func (s *Session) CurrentOutDir(unit domain.Path) (*domain.FileItem, error) {
	dir, err := s.CurrentSourceDir(unit)
	if err != nil {
		return nil, err
	}
	return s.reg.Declare(domain.KindDir, registry.Counterpart(s.reg.OutRoot(), dir))
}

// Load implements ports.Declarer. Each unit runs at most once; loading a unit that is
// still being loaded is an import cycle.
func (s *Session) Load(ctx context.Context, unit domain.Path) (domain.Exports, error) {
	path, err := domain.NormalizeAs(domain.KindFile, string(unit))
	if err != nil {
		return nil, zerr.With(err, "unit", string(unit))
	}
	if st, ok := s.units[path]; ok {
		if st.loading {
			return nil, zerr.With(domain.Mark(domain.ErrImportCycle), "unit", string(path))
		}
		return st.exports, nil
	}
	if !domain.IsDescendant(s.reg.SourceRoot().Path(), path, false) {
		return nil, zerr.With(domain.Mark(domain.ErrUnitOutsideSource), "unit", string(path))
	}

	loader := s.loaderFor(path)
	if loader == nil {
		return nil, zerr.With(domain.Mark(domain.ErrUnsupportedUnit), "unit", string(path))
	}

	item, err := s.reg.Declare(domain.KindFile, path)
	if err != nil {
		return nil, err
	}
	st := &unitState{item: item, loading: true}
	s.units[path] = st

	s.logger.Debug("loading " + string(path))
	exports, err := loader.Load(ctx, path, s)
	st.loading = false
	if err != nil {
		return nil, zerr.With(err, "unit", string(path))
	}
	st.exports = exports
	return exports, nil
}

func (s *Session) loaderFor(path domain.Path) ports.UnitLoader {
	for _, l := range s.loaders {
		if l.Supports(path) {
			return l
		}
	}
	return nil
}

// Import implements ports.Declarer. The returned pipe loads the definition unit of each
// received directory below the source root. Directories without one are skipped.
func (s *Session) Import() domain.Pipe {
	return domain.PipeFunc(func(_ context.Context, item *domain.FileItem) (domain.Deferred, error) {
		if item.Kind() != domain.KindDir {
			return nil, zerr.With(domain.Mark(domain.ErrNotADirectory), "path", string(item.Path()))
		}
		if !domain.IsDescendant(s.reg.SourceRoot().Path(), item.Path(), false) {
			return nil, zerr.With(domain.Mark(domain.ErrImportOutsideSource), "path", string(item.Path()))
		}
		return func(ctx context.Context) error {
			candidates := make([]domain.Path, len(domain.UnitFileNames))
			for i, name := range domain.UnitFileNames {
				candidates[i] = domain.Resolve(item.Path(), domain.Seg(name))
			}
			found, err := s.probe(ctx, candidates)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				s.logger.Debug("no definition unit in " + string(item.Path()))
				return nil
			}
			_, err = s.Load(ctx, found[0])
			return err
		}, nil
	})
}

// probe checks candidates concurrently and returns the existing ones in candidate order.
func (s *Session) probe(ctx context.Context, candidates []domain.Path) ([]domain.Path, error) {
	exists := make([]bool, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range candidates {
		g.Go(func() error {
			ok, err := s.fs.Exists(gctx, string(c))
			if err != nil {
				return zerr.With(err, "path", string(c))
			}
			exists[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var found []domain.Path
	for i, c := range candidates {
		if exists[i] {
			found = append(found, c)
		}
	}
	return found, nil
}

// ResolveFlags implements ports.Declarer. It requests every key of schema, loads the flag
// units next to the source root and next to unit, then consumes the values.
func (s *Session) ResolveFlags(ctx context.Context, unit domain.Path, schema domain.FlagSchema) (map[string]any, error) {
	for _, key := range schema.Keys() {
		if err := s.flags.Request(key); err != nil {
			return nil, zerr.With(err, "unit", string(unit))
		}
	}

	dirs := []domain.Path{s.reg.SourceRoot().Path()}
	if unitDir := unit.Parent(); unitDir != dirs[0] {
		dirs = append(dirs, unitDir)
	}
	var candidates []domain.Path
	for _, dir := range dirs {
		for _, name := range domain.FlagsUnitFileNames {
			candidates = append(candidates, domain.Resolve(dir, domain.Seg(name)))
		}
	}
	found, err := s.probe(ctx, candidates)
	if err != nil {
		return nil, err
	}
	for _, flagUnit := range found {
		if _, err := s.Load(ctx, flagUnit); err != nil {
			return nil, err
		}
	}

	values := make(map[string]any, len(schema))
	for _, spec := range schema {
		v, err := s.flags.Consume(spec)
		if err != nil {
			return nil, zerr.With(err, "unit", string(unit))
		}
		values[spec.Key] = v
		s.resolved[spec.Key] = v
	}
	return values, nil
}

// ProvideFlags implements ports.Declarer.
func (s *Session) ProvideFlags(values []domain.FlagValue) error {
	for _, v := range values {
		if err := s.flags.Provide(v.Key, v.Value); err != nil {
			return err
		}
	}
	return nil
}
