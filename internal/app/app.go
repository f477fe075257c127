// Package app implements the application layer for neja.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"go.trai.ch/neja/internal/build"
	"go.trai.ch/neja/internal/core/domain"
	"go.trai.ch/neja/internal/core/ports"
	"go.trai.ch/neja/internal/engine/ninja"
	"go.trai.ch/neja/internal/engine/session"
	"go.trai.ch/neja/internal/ui/output"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	logger  ports.Logger
	fs      ports.FileSystem
	hasher  ports.Hasher
	walker  ports.Walker
	store   ports.ManifestStore
	tracer  ports.Tracer
	loaders []ports.UnitLoader

	printer *output.Printer
	now     func() time.Time
}

// New creates a new App instance.
func New(
	log ports.Logger,
	fsys ports.FileSystem,
	hasher ports.Hasher,
	walker ports.Walker,
	store ports.ManifestStore,
	tracer ports.Tracer,
	loaders ...ports.UnitLoader,
) *App {
	return &App{
		logger:  log,
		fs:      fsys,
		hasher:  hasher,
		walker:  walker,
		store:   store,
		tracer:  tracer,
		loaders: loaders,
		printer: output.NewPrinter(os.Stdout),
		now:     time.Now,
	}
}

// WithOutput redirects the status lines printed by Clean and Status.
func (a *App) WithOutput(w io.Writer) *App {
	a.printer = output.NewPrinter(w)
	return a
}

// WithClock replaces the clock used to stamp the run manifest.
func (a *App) WithClock(now func() time.Time) *App {
	a.now = now
	return a
}

// GenerateOptions configuration for the Generate method.
type GenerateOptions struct {
	// RootUnit is the main definition unit. Relative paths are resolved against the working directory.
	RootUnit string
	// BuildDir receives build.ninja. Empty means the working directory.
	BuildDir string
	// Exe is the command line prefix of the regeneration rule. Empty disables regeneration.
	Exe string
}

// GenerateResult summarizes a successful run.
type GenerateResult struct {
	Output  string
	Changed bool
	Units   int
	Rules   int
	Targets int
}

// Generate compiles the root unit into build.ninja.
//
//nolint:cyclop // orchestration function
func (a *App) Generate(ctx context.Context, opts GenerateOptions) (*GenerateResult, error) {
	if opts.RootUnit == "" {
		return nil, domain.ErrMissingUnitFile
	}
	rootUnit, err := filepath.Abs(opts.RootUnit)
	if err != nil {
		return nil, zerr.With(err, "unit", opts.RootUnit)
	}
	buildDir, err := absDir(opts.BuildDir)
	if err != nil {
		return nil, err
	}

	ctx, span := a.tracer.Start(ctx, "generate")
	defer span.End()

	s, err := session.New(ctx, session.Config{
		RootUnit:     rootUnit,
		BuildDir:     buildDir,
		Exe:          opts.Exe,
		LinkBuildDir: true,
	}, a.fs, a.logger, a.loaders...)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var graph ninja.Graph
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"load", s.LoadRoot},
		{"drain", s.Drain},
		{"effects", s.RunEffects},
		{"resolve", func(context.Context) error {
			var err error
			graph, err = s.Resolve()
			return err
		}},
	}
	for _, step := range steps {
		if err := a.phase(ctx, step.name, step.run); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	out := string(s.NinjaFile().Path())
	var outHash string
	var changed bool
	err = a.phase(ctx, "emit", func(ctx context.Context) error {
		var err error
		outHash, changed, err = a.writeOutput(ctx, out, graph)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	units := s.Units()
	m := &domain.Manifest{
		Version:     build.Version,
		GeneratedAt: a.now().UTC(),
		RootUnit:    string(s.RootUnit()),
		SourceDir:   string(s.SourceRoot().Path()),
		Output:      out,
		OutputHash:  outHash,
		Units:       make([]domain.UnitDigest, 0, len(units)),
		Rules:       len(graph.Rules),
		Targets:     len(graph.Builds),
		Flags:       s.Flags(),
	}
	for _, unit := range units {
		hash, err := a.hasher.HashFile(string(unit))
		if err != nil {
			return nil, err
		}
		m.Units = append(m.Units, domain.UnitDigest{Path: string(unit), Hash: hash})
	}
	if err := a.store.Save(buildDir, m); err != nil {
		return nil, err
	}

	span.SetAttribute("units", len(units))
	span.SetAttribute("rules", m.Rules)
	span.SetAttribute("targets", m.Targets)

	if changed {
		a.logger.Info(fmt.Sprintf("wrote %s (%d rules, %d targets)", out, m.Rules, m.Targets))
	} else {
		a.logger.Info(out + " is up to date")
	}

	return &GenerateResult{
		Output:  out,
		Changed: changed,
		Units:   len(units),
		Rules:   m.Rules,
		Targets: m.Targets,
	}, nil
}

func (a *App) phase(ctx context.Context, name string, run func(context.Context) error) error {
	ctx, span := a.tracer.Start(ctx, name)
	defer span.End()
	if err := run(ctx); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// writeOutput streams g into a temporary file next to path and moves it into place.
// An existing file with the same digest is left untouched.
func (a *App) writeOutput(ctx context.Context, path string, g ninja.Graph) (string, bool, error) {
	dir := filepath.Dir(path)
	if err := a.fs.Mkdir(dir, domain.DirPerm, true, false); err != nil {
		return "", false, zerr.With(zerr.Wrap(err, domain.ErrOutputWriteFailed.Error()), "path", path)
	}
	tmp, err := a.fs.CreateTemp(dir, "."+domain.NinjaFileName+"-*")
	if err != nil {
		return "", false, zerr.With(zerr.Wrap(err, domain.ErrOutputWriteFailed.Error()), "path", path)
	}
	committed := false
	defer func() {
		if !committed {
			_ = a.fs.Remove(tmp.Name())
		}
	}()

	if err := ninja.Emit(tmp, g); err != nil {
		_ = tmp.Close()
		return "", false, zerr.With(err, "path", path)
	}
	if err := tmp.Close(); err != nil {
		return "", false, zerr.With(zerr.Wrap(err, domain.ErrOutputWriteFailed.Error()), "path", path)
	}

	hash, err := a.hasher.HashFile(tmp.Name())
	if err != nil {
		return "", false, err
	}
	exists, err := a.fs.Exists(ctx, path)
	if err != nil {
		return "", false, err
	}
	if exists {
		if old, err := a.hasher.HashFile(path); err == nil && old == hash {
			return hash, false, nil
		}
	}

	if err := a.fs.Rename(tmp.Name(), path); err != nil {
		return "", false, zerr.With(zerr.Wrap(err, domain.ErrOutputWriteFailed.Error()), "path", path)
	}
	committed = true
	return hash, true, nil
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	// BuildDir is the build directory to clean. Empty means the working directory.
	BuildDir string
	// Link also removes the build directory link in the source root.
	Link bool
}

// Clean removes build.ninja and the run manifest.
func (a *App) Clean(_ context.Context, opts CleanOptions) error {
	buildDir, err := absDir(opts.BuildDir)
	if err != nil {
		return err
	}

	var errs error
	remove := func(path, name string, rm func() error) {
		a.logger.Debug(fmt.Sprintf("removing %s...", name))
		if err := rm(); err != nil {
			errs = errors.Join(errs, zerr.With(zerr.Wrap(err, "failed to remove "+name), "path", path))
			return
		}
		a.printer.Success("removed %s", name)
	}

	if opts.Link {
		m, err := a.store.Load(buildDir)
		switch {
		case err == nil:
			link := filepath.Join(m.SourceDir, domain.BuildDirLinkName)
			remove(link, "build directory link", func() error { return a.fs.Remove(filepath.Clean(link)) })
		case !errors.Is(err, domain.ErrNoManifest):
			errs = errors.Join(errs, err)
		}
	}

	out := filepath.Join(buildDir, domain.NinjaFileName)
	remove(out, domain.NinjaFileName, func() error { return a.fs.Remove(out) })
	remove(filepath.Join(buildDir, domain.ManifestFileName), "run manifest", func() error {
		return a.store.Remove(buildDir)
	})

	return errs
}

// StatusOptions configuration for the Status method.
type StatusOptions struct {
	// BuildDir holds the manifest of the last run. Empty means the working directory.
	BuildDir string
}

// StatusReport compares the source tree with the last successful run.
type StatusReport struct {
	Manifest      *domain.Manifest
	Units         []domain.UnitChange
	OutputChanged bool
}

// Stale reports whether build.ninja needs to be regenerated.
func (r *StatusReport) Stale() bool {
	if r.OutputChanged {
		return true
	}
	return slices.ContainsFunc(r.Units, func(c domain.UnitChange) bool {
		return c.Status != domain.UnitUnchanged
	})
}

// Status reports the units changed since the last successful run.
func (a *App) Status(ctx context.Context, opts StatusOptions) (*StatusReport, error) {
	buildDir, err := absDir(opts.BuildDir)
	if err != nil {
		return nil, err
	}
	m, err := a.store.Load(buildDir)
	if err != nil {
		return nil, err
	}

	report := &StatusReport{Manifest: m}
	known := make(map[string]bool, len(m.Units))
	for _, unit := range m.Units {
		known[unit.Path] = true
		status, err := a.unitStatus(ctx, unit)
		if err != nil {
			return nil, err
		}
		report.Units = append(report.Units, domain.UnitChange{Path: unit.Path, Status: status})
	}

	names := append(slices.Clone(domain.UnitFileNames), domain.FlagsUnitFileNames...)
	skip := []string{filepath.Clean(domain.BuildDirLinkName), filepath.Base(buildDir)}
	for path := range a.walker.WalkFiles(filepath.Clean(m.SourceDir), names, skip) {
		if !known[path] {
			report.Units = append(report.Units, domain.UnitChange{Path: path, Status: domain.UnitUntracked})
		}
	}

	exists, err := a.fs.Exists(ctx, m.Output)
	if err != nil {
		return nil, err
	}
	if !exists {
		report.OutputChanged = true
	} else if hash, err := a.hasher.HashFile(m.Output); err != nil || hash != m.OutputHash {
		report.OutputChanged = true
	}

	a.printStatus(report)
	return report, nil
}

func (a *App) unitStatus(ctx context.Context, unit domain.UnitDigest) (domain.UnitStatus, error) {
	exists, err := a.fs.Exists(ctx, unit.Path)
	if err != nil {
		return "", err
	}
	if !exists {
		return domain.UnitMissing, nil
	}
	hash, err := a.hasher.HashFile(unit.Path)
	if err != nil {
		return "", err
	}
	if hash != unit.Hash {
		return domain.UnitModified, nil
	}
	return domain.UnitUnchanged, nil
}

func (a *App) printStatus(r *StatusReport) {
	a.printer.Info("last run %s by neja %s", r.Manifest.GeneratedAt.Local().Format(time.DateTime), r.Manifest.Version)
	for _, c := range r.Units {
		switch c.Status {
		case domain.UnitUnchanged:
			a.printer.Success("%s", c.Path)
		case domain.UnitModified, domain.UnitUntracked:
			a.printer.Changed("%s (%s)", c.Path, c.Status)
		case domain.UnitMissing:
			a.printer.Failure("%s (%s)", c.Path, c.Status)
		}
	}
	switch {
	case r.OutputChanged:
		a.printer.Failure("%s was modified or removed", r.Manifest.Output)
	case r.Stale():
		a.printer.Changed("%s is stale", r.Manifest.Output)
	default:
		a.printer.Success("%s is up to date", r.Manifest.Output)
	}
}

func absDir(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", zerr.With(err, "build_dir", dir)
	}
	return abs, nil
}
