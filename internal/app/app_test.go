package app_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/neja/internal/adapters/fs"
	"go.trai.ch/neja/internal/adapters/manifest"
	"go.trai.ch/neja/internal/adapters/telemetry"
	"go.trai.ch/neja/internal/adapters/units"
	"go.trai.ch/neja/internal/app"
	"go.trai.ch/neja/internal/core/domain"
	"go.trai.ch/neja/internal/core/ports"
	"go.trai.ch/neja/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

const poemYAML = `rules:
  cat:
    command: "cat ${in} > ${out}"
    description: "CAT ${out}"
targets:
  - name: poem
    rule: cat
    default: true
    ins: [poem.txt]
    outs: [poem.out]
`

var fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

type fixture struct {
	src, build string
	recorder   *tracetest.SpanRecorder
	out        *bytes.Buffer
	app        *app.App
}

func newFixture(t *testing.T, store ports.ManifestStore) *fixture {
	t.Helper()
	f := &fixture{
		src:      t.TempDir(),
		build:    t.TempDir(),
		recorder: tracetest.NewSpanRecorder(),
		out:      new(bytes.Buffer),
	}
	f.write(t, domain.UnitFileName, poemYAML)

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any()).AnyTimes()

	if store == nil {
		store = manifest.NewStore()
	}
	tracer := telemetry.NewOTelTracer(f.recorder)
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })

	fsys := fs.NewFileSystem()
	f.app = app.New(log, fsys, fs.NewHasher(), fs.NewWalker(), store, tracer, units.NewLoader(fsys)).
		WithOutput(f.out).
		WithClock(func() time.Time { return fixedNow })
	return f
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(f.src, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	require.NoError(t, os.WriteFile(path, []byte(content), domain.FilePerm))
}

func (f *fixture) generate(t *testing.T) *app.GenerateResult {
	t.Helper()
	res, err := f.app.Generate(context.Background(), app.GenerateOptions{
		RootUnit: filepath.Join(f.src, domain.UnitFileName),
		BuildDir: f.build,
		Exe:      "/usr/bin/neja",
	})
	require.NoError(t, err)
	return res
}

func TestGenerate_WritesNinjaAndManifest(t *testing.T) {
	f := newFixture(t, nil)

	res := f.generate(t)
	assert.True(t, res.Changed)
	assert.Equal(t, filepath.Join(f.build, domain.NinjaFileName), res.Output)
	assert.Equal(t, 1, res.Units)
	assert.Equal(t, 2, res.Rules)

	content, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	assert.Contains(t, string(content), "default poem\n")
	assert.Contains(t, string(content), "/usr/bin/neja gen --file ${in} --chdir ${builddir}")
	assert.Contains(t, string(content), "cat ${in} > ${out}")

	m, err := manifest.NewStore().Load(f.build)
	require.NoError(t, err)
	assert.True(t, fixedNow.Equal(m.GeneratedAt), "generated at %s", m.GeneratedAt)
	assert.Equal(t, res.Output, m.Output)
	require.Len(t, m.Units, 1)
	assert.Equal(t, filepath.Join(f.src, domain.UnitFileName), m.Units[0].Path)
	hash, err := fs.NewHasher().HashFile(res.Output)
	require.NoError(t, err)
	assert.Equal(t, hash, m.OutputHash)

	target, err := os.Readlink(filepath.Join(f.src, filepath.Clean(domain.BuildDirLinkName)))
	require.NoError(t, err)
	assert.Equal(t, f.build, filepath.Clean(target))

	var names []string
	for _, span := range f.recorder.Ended() {
		names = append(names, span.Name())
	}
	assert.Equal(t, []string{"load", "drain", "effects", "resolve", "emit", "generate"}, names)
}

func TestGenerate_UnchangedOutputIsKept(t *testing.T) {
	f := newFixture(t, nil)
	first := f.generate(t)

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(first.Output, past, past))

	second := f.generate(t)
	assert.False(t, second.Changed)

	info, err := os.Stat(second.Output)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(past))

	entries, err := os.ReadDir(f.build)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), "."+domain.NinjaFileName+"-"), e.Name())
	}
}

func TestGenerate_FailureWritesNothing(t *testing.T) {
	f := newFixture(t, nil)
	f.write(t, domain.UnitFileName, "targets:\n  - rule: missing\n")

	_, err := f.app.Generate(context.Background(), app.GenerateOptions{
		RootUnit: filepath.Join(f.src, domain.UnitFileName),
		BuildDir: f.build,
	})
	require.ErrorIs(t, err, domain.ErrUnknownRuleKind)

	_, err = os.Stat(filepath.Join(f.build, domain.NinjaFileName))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(f.build, domain.ManifestFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerate_MissingUnitFile(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.app.Generate(context.Background(), app.GenerateOptions{})
	require.ErrorIs(t, err, domain.ErrMissingUnitFile)
}

func TestGenerate_ManifestSaveError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockManifestStore(ctrl)
	f := newFixture(t, store)

	saveErr := errors.New("disk full")
	store.EXPECT().Save(f.build, gomock.Any()).Return(saveErr)

	_, err := f.app.Generate(context.Background(), app.GenerateOptions{
		RootUnit: filepath.Join(f.src, domain.UnitFileName),
		BuildDir: f.build,
	})
	require.ErrorIs(t, err, saveErr)
}

func TestStatus(t *testing.T) {
	f := newFixture(t, nil)
	f.generate(t)

	report, err := f.app.Status(context.Background(), app.StatusOptions{BuildDir: f.build})
	require.NoError(t, err)
	assert.False(t, report.Stale())
	assert.Contains(t, f.out.String(), "is up to date")

	f.write(t, domain.UnitFileName, poemYAML+"# edited\n")
	f.write(t, "sub/"+domain.HCLUnitFileName, "")

	report, err = f.app.Status(context.Background(), app.StatusOptions{BuildDir: f.build})
	require.NoError(t, err)
	assert.True(t, report.Stale())
	assert.False(t, report.OutputChanged)
	assert.Equal(t, []domain.UnitChange{
		{Path: filepath.Join(f.src, domain.UnitFileName), Status: domain.UnitModified},
		{Path: filepath.Join(f.src, "sub", domain.HCLUnitFileName), Status: domain.UnitUntracked},
	}, report.Units)

	require.NoError(t, os.Remove(filepath.Join(f.src, domain.UnitFileName)))
	require.NoError(t, os.Remove(filepath.Join(f.build, domain.NinjaFileName)))

	report, err = f.app.Status(context.Background(), app.StatusOptions{BuildDir: f.build})
	require.NoError(t, err)
	assert.True(t, report.OutputChanged)
	assert.Equal(t, domain.UnitMissing, report.Units[0].Status)
}

func TestStatus_NoManifest(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.app.Status(context.Background(), app.StatusOptions{BuildDir: f.build})
	require.ErrorIs(t, err, domain.ErrNoManifest)
}

func TestClean(t *testing.T) {
	f := newFixture(t, nil)
	f.generate(t)

	require.NoError(t, f.app.Clean(context.Background(), app.CleanOptions{BuildDir: f.build, Link: true}))

	for _, path := range []string{
		filepath.Join(f.build, domain.NinjaFileName),
		filepath.Join(f.build, domain.ManifestFileName),
		filepath.Join(f.src, filepath.Clean(domain.BuildDirLinkName)),
	} {
		_, err := os.Lstat(path)
		assert.True(t, os.IsNotExist(err), path)
	}
	assert.Contains(t, f.out.String(), "removed "+domain.NinjaFileName)

	require.NoError(t, f.app.Clean(context.Background(), app.CleanOptions{BuildDir: f.build, Link: true}))
}
