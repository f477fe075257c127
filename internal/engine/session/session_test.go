package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/neja/internal/core/domain"
	"go.trai.ch/neja/internal/core/ports"
	"go.trai.ch/neja/internal/core/ports/mocks"
	"go.trai.ch/neja/internal/engine/session"
	"go.uber.org/mock/gomock"
)

type unitFunc func(ctx context.Context, d ports.Declarer) (domain.Exports, error)

type fixture struct {
	units  map[domain.Path]unitFunc
	files  map[string]bool
	loads  map[domain.Path]int
	fs     *mocks.MockFileSystem
	loader *mocks.MockUnitLoader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		units:  make(map[domain.Path]unitFunc),
		files:  make(map[string]bool),
		loads:  make(map[domain.Path]int),
		fs:     mocks.NewMockFileSystem(ctrl),
		loader: mocks.NewMockUnitLoader(ctrl),
	}
	f.fs.EXPECT().Exists(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, path string) (bool, error) { return f.files[path], nil },
	).AnyTimes()
	f.loader.EXPECT().Supports(gomock.Any()).Return(true).AnyTimes()
	f.loader.EXPECT().Load(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, path domain.Path, d ports.Declarer) (domain.Exports, error) {
			f.loads[path]++
			fn, ok := f.units[path]
			if !ok {
				return nil, nil
			}
			return fn(ctx, d)
		},
	).AnyTimes()
	return f
}

func (f *fixture) unit(path string, fn unitFunc) {
	f.files[path] = true
	f.units[domain.Path(path)] = fn
}

func (f *fixture) session(t *testing.T, exe string) *session.Session {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()

	s, err := session.New(context.Background(), session.Config{
		RootUnit: "/proj/neja.yaml",
		BuildDir: "/proj/.build",
		Exe:      exe,
	}, f.fs, logger, f.loader)
	require.NoError(t, err)
	return s
}

type copyTarget struct {
	domain.TargetBase
}

func newCopy() *copyTarget { return &copyTarget{TargetBase: domain.NewTargetBase()} }

func (c *copyTarget) Kind() string             { return "copy" }
func (c *copyTarget) Base() *domain.TargetBase { return &c.TargetBase }
func (c *copyTarget) Fields() []string         { return nil }
func (c *copyTarget) Field(string) any         { return nil }
func (c *copyTarget) Command() (domain.Command, error) {
	return domain.Command{Command: "cp ${in} ${out}"}, nil
}

func TestCompile_ImportsSubUnit(t *testing.T) {
	f := newFixture(t)
	sub := newCopy()

	f.unit("/proj/neja.yaml", func(ctx context.Context, d ports.Declarer) (domain.Exports, error) {
		return nil, d.Tree(ctx, d.SourceRoot(), domain.Tree{
			{Name: "sub/", Pipe: d.Import()},
		})
	})
	f.unit("/proj/sub/neja.yaml", func(ctx context.Context, d ports.Declarer) (domain.Exports, error) {
		unit := domain.Path("/proj/sub/neja.yaml")
		src, err := d.CurrentSourceDir(unit)
		if err != nil {
			return nil, err
		}
		out, err := d.CurrentOutDir(unit)
		if err != nil {
			return nil, err
		}
		if err := d.AddTarget(sub); err != nil {
			return nil, err
		}
		err = d.Tree(ctx, src, domain.Tree{{Name: "in.txt", Pipe: sub.Ins}})
		if err != nil {
			return nil, err
		}
		err = d.Tree(ctx, out, domain.Tree{{Name: "in.txt", Pipe: sub.Outs}})
		if err != nil {
			return nil, err
		}
		return domain.Exports{{Name: "copied", Value: sub}}, nil
	})

	s := f.session(t, "/usr/bin/neja")
	graph, err := s.Compile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.Path{"/proj/neja.yaml", "/proj/sub/neja.yaml"}, s.Units())
	assert.Equal(t, "copied", sub.ExportName)

	require.Len(t, graph.Rules, 2)
	assert.Equal(t, "regenerate", graph.Rules[0].UniqueName)
	assert.Equal(t, "copy", graph.Rules[1].UniqueName)

	require.Len(t, graph.Builds, 2)
	gen := graph.Builds[0]
	assert.Equal(t, []string{"${builddir}/build.ninja"}, gen.Outs)
	assert.Equal(t, []string{"${sourcedir}/neja.yaml"}, gen.Ins)
	assert.Equal(t, []string{"${sourcedir}/neja.yaml", "${sourcedir}/sub/neja.yaml"}, gen.ImplicitIns)

	cp := graph.Builds[1]
	assert.Equal(t, "copied", cp.Alias)
	assert.Equal(t, []string{"${builddir}/out/sub/in.txt"}, cp.Outs)
	assert.Equal(t, []string{"${sourcedir}/sub/in.txt"}, cp.Ins)
}

func TestLoad_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.unit("/proj/neja.yaml", func(ctx context.Context, d ports.Declarer) (domain.Exports, error) {
		if _, err := d.Load(ctx, "/proj/lib/neja.yaml"); err != nil {
			return nil, err
		}
		_, err := d.Load(ctx, "/proj/lib/neja.yaml")
		return nil, err
	})
	f.unit("/proj/lib/neja.yaml", func(context.Context, ports.Declarer) (domain.Exports, error) {
		return domain.Exports{{Name: "x", Value: 1}}, nil
	})

	s := f.session(t, "")
	require.NoError(t, s.LoadRoot(context.Background()))
	assert.Equal(t, 1, f.loads["/proj/lib/neja.yaml"])
}

func TestLoad_ImportCycle(t *testing.T) {
	f := newFixture(t)
	f.unit("/proj/neja.yaml", func(ctx context.Context, d ports.Declarer) (domain.Exports, error) {
		_, err := d.Load(ctx, "/proj/a/neja.yaml")
		return nil, err
	})
	f.unit("/proj/a/neja.yaml", func(ctx context.Context, d ports.Declarer) (domain.Exports, error) {
		_, err := d.Load(ctx, "/proj/neja.yaml")
		return nil, err
	})

	s := f.session(t, "")
	err := s.LoadRoot(context.Background())
	require.ErrorIs(t, err, domain.ErrImportCycle)
}

func TestLoad_OutsideSource(t *testing.T) {
	f := newFixture(t)
	f.unit("/proj/neja.yaml", func(ctx context.Context, d ports.Declarer) (domain.Exports, error) {
		_, err := d.Load(ctx, "/elsewhere/neja.yaml")
		return nil, err
	})

	s := f.session(t, "")
	err := s.LoadRoot(context.Background())
	require.ErrorIs(t, err, domain.ErrUnitOutsideSource)
}

func TestImport_Errors(t *testing.T) {
	tests := []struct {
		name string
		tree domain.Tree
		want error
	}{
		{name: "file", tree: domain.Tree{{Name: "file.txt"}}, want: domain.ErrNotADirectory},
		{name: "source root", tree: domain.Tree{{Name: "."}}, want: domain.ErrImportOutsideSource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.unit("/proj/neja.yaml", func(ctx context.Context, d ports.Declarer) (domain.Exports, error) {
				tree := make(domain.Tree, len(tt.tree))
				copy(tree, tt.tree)
				tree[0].Pipe = d.Import()
				return nil, d.Tree(ctx, d.SourceRoot(), tree)
			})

			s := f.session(t, "")
			_, err := s.Compile(context.Background())
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestImport_SkipsDirectoryWithoutUnit(t *testing.T) {
	f := newFixture(t)
	f.files["/proj/assets/logo.png"] = true
	f.unit("/proj/neja.yaml", func(ctx context.Context, d ports.Declarer) (domain.Exports, error) {
		return nil, d.Tree(ctx, d.SourceRoot(), domain.Tree{{Name: "assets/", Pipe: d.Import()}})
	})

	s := f.session(t, "")
	_, err := s.Compile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Path{"/proj/neja.yaml"}, s.Units())
	assert.Len(t, f.loads, 1)
}

func TestImport_PrefersYAML(t *testing.T) {
	f := newFixture(t)
	f.unit("/proj/neja.yaml", func(ctx context.Context, d ports.Declarer) (domain.Exports, error) {
		return nil, d.Tree(ctx, d.SourceRoot(), domain.Tree{{Name: "lib/", Pipe: d.Import()}})
	})
	f.unit("/proj/lib/neja.yaml", func(context.Context, ports.Declarer) (domain.Exports, error) { return nil, nil })
	f.unit("/proj/lib/neja.hcl", func(context.Context, ports.Declarer) (domain.Exports, error) { return nil, nil })

	s := f.session(t, "")
	_, err := s.Compile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.loads["/proj/lib/neja.yaml"])
	assert.Zero(t, f.loads["/proj/lib/neja.hcl"])
}

func TestResolveFlags(t *testing.T) {
	f := newFixture(t)
	var got map[string]any
	f.unit("/proj/neja.yaml", func(ctx context.Context, d ports.Declarer) (domain.Exports, error) {
		var err error
		got, err = d.ResolveFlags(ctx, "/proj/neja.yaml", domain.FlagSchema{
			{Key: "opt", Default: "O0", HasDefault: true},
			{Key: "target"},
		})
		return nil, err
	})
	f.unit("/proj/flags.neja.yaml", func(_ context.Context, d ports.Declarer) (domain.Exports, error) {
		return nil, d.ProvideFlags([]domain.FlagValue{{Key: "target", Value: "wasm"}})
	})

	s := f.session(t, "")
	require.NoError(t, s.LoadRoot(context.Background()))
	assert.Equal(t, map[string]any{"opt": "O0", "target": "wasm"}, got)
	assert.Equal(t, got, s.Flags())
}

func TestResolveFlags_RequiredMissing(t *testing.T) {
	f := newFixture(t)
	f.unit("/proj/neja.yaml", func(ctx context.Context, d ports.Declarer) (domain.Exports, error) {
		_, err := d.ResolveFlags(ctx, "/proj/neja.yaml", domain.FlagSchema{{Key: "target"}})
		return nil, err
	})

	s := f.session(t, "")
	err := s.LoadRoot(context.Background())
	require.ErrorIs(t, err, domain.ErrRequiredFlagMissing)
}

func TestResolveFlags_DuplicateRequest(t *testing.T) {
	f := newFixture(t)
	f.unit("/proj/neja.yaml", func(ctx context.Context, d ports.Declarer) (domain.Exports, error) {
		schema := domain.FlagSchema{{Key: "opt", HasDefault: true}}
		if _, err := d.ResolveFlags(ctx, "/proj/neja.yaml", schema); err != nil {
			return nil, err
		}
		_, err := d.ResolveFlags(ctx, "/proj/neja.yaml", schema)
		return nil, err
	})

	s := f.session(t, "")
	err := s.LoadRoot(context.Background())
	require.ErrorIs(t, err, domain.ErrDuplicateFlagRequest)
}

func TestResolve_Exports(t *testing.T) {
	f := newFixture(t)
	named, grouped, single := newCopy(), newCopy(), newCopy()

	f.unit("/proj/neja.yaml", func(_ context.Context, d ports.Declarer) (domain.Exports, error) {
		for _, target := range []*copyTarget{named, grouped, single} {
			if err := d.AddTarget(target); err != nil {
				return nil, err
			}
		}
		return domain.Exports{
			{Name: domain.DefaultExport, Value: domain.Exports{
				{Name: "fromDefault", Value: named},
				{Name: "grouped", Value: grouped},
			}},
			{Name: "primary", Value: named},
			{Name: "single", Value: single},
		}, nil
	})

	s := f.session(t, "")
	graph, err := s.Compile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "primary", named.ExportName)
	assert.Equal(t, "grouped", grouped.ExportName)
	assert.Equal(t, "single", single.ExportName)
	assert.Equal(t, []string{"primary", "grouped"}, graph.Defaults)
}

func TestResolve_AnonymousNames(t *testing.T) {
	f := newFixture(t)
	first, second := newCopy(), newCopy()
	f.unit("/proj/neja.yaml", func(_ context.Context, d ports.Declarer) (domain.Exports, error) {
		if err := d.AddTarget(first); err != nil {
			return nil, err
		}
		return nil, d.AddTarget(second)
	})

	s := f.session(t, "")
	graph, err := s.Compile(context.Background())
	require.NoError(t, err)

	require.Len(t, graph.Builds, 2)
	assert.Equal(t, []string{"copy"}, graph.Builds[0].Outs)
	assert.Equal(t, []string{"copy_1"}, graph.Builds[1].Outs)
}

func TestCurrentDirs(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, "")

	src, err := s.CurrentSourceDir("/proj/a/b/neja.yaml")
	require.NoError(t, err)
	assert.Equal(t, domain.Path("/proj/a/b/"), src.Path())

	out, err := s.CurrentOutDir("/proj/a/b/neja.yaml")
	require.NoError(t, err)
	assert.Equal(t, domain.Path("/proj/.build/out/a/b/"), out.Path())
	assert.Equal(t, "${builddir}/out/a/b/", out.String())

	_, err = s.CurrentSourceDir("/other/neja.yaml")
	require.ErrorIs(t, err, domain.ErrUnitOutsideSource)
}

func TestNew_LinksBuildDir(t *testing.T) {
	f := newFixture(t)
	f.fs.EXPECT().Symlink("/proj/.build/", "/proj/.neja-build/").Return(nil)

	logger := mocks.NewMockLogger(gomock.NewController(t))
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	s, err := session.New(context.Background(), session.Config{
		RootUnit:     "/proj/neja.yaml",
		BuildDir:     "/proj/.build",
		LinkBuildDir: true,
	}, f.fs, logger, f.loader)
	require.NoError(t, err)
	require.NoError(t, s.Drain(context.Background()))
}
