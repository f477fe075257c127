package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/neja/internal/core/domain"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		seed domain.Path
		mods []domain.PathModifier
		want domain.Path
	}{
		{"seed only", "/src/", nil, "/src/"},
		{"file segment", "/src/", []domain.PathModifier{domain.Seg("a.txt")}, "/src/a.txt"},
		{"dir segment", "/src/", []domain.PathModifier{domain.Seg("lib/")}, "/src/lib/"},
		{"dot is dir-like", "/src/lib/", []domain.PathModifier{domain.Seg(".")}, "/src/lib/"},
		{"dotdot is dir-like", "/src/lib/", []domain.PathModifier{domain.Seg("..")}, "/src/"},
		{"trailing dotdot", "/src/", []domain.PathModifier{domain.Seg("a/b/..")}, "/src/a/"},
		{"absolute restarts", "/src/", []domain.PathModifier{domain.Seg("lib/"), domain.Seg("/etc/hosts")}, "/etc/hosts"},
		{"root stays root", "/", []domain.PathModifier{domain.Seg(".")}, "/"},
		{"several segments", "/src/", []domain.PathModifier{domain.Seg("a"), domain.Seg("b"), domain.Seg("c.go")}, "/src/a/b/c.go"},
		{
			"rewrite flushes",
			"/src/",
			[]domain.PathModifier{
				domain.Seg("main.c"),
				domain.Rewrite(func(p domain.Path) string { return string(p) + ".o" }),
			},
			"/src/main.c.o",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.Resolve(tt.seed, tt.mods...))
		})
	}
}

func TestResolveAs(t *testing.T) {
	p, err := domain.ResolveAs(domain.KindFile, "/src/", domain.Seg("a.txt"))
	require.NoError(t, err)
	assert.Equal(t, domain.Path("/src/a.txt"), p)

	_, err = domain.ResolveAs(domain.KindFile, "/src/", domain.Seg("lib/"))
	require.ErrorIs(t, err, domain.ErrPathKindMismatch)

	_, err = domain.ResolveAs(domain.KindDir, "/src/", domain.Seg("a.txt"))
	require.ErrorIs(t, err, domain.ErrPathKindMismatch)
}

func TestNormalizeAs(t *testing.T) {
	p, err := domain.NormalizeAs(domain.KindDir, "/a/b/../c")
	require.NoError(t, err)
	assert.Equal(t, domain.Path("/a/c/"), p)

	p, err = domain.NormalizeAs(domain.KindFile, "/a//b.txt")
	require.NoError(t, err)
	assert.Equal(t, domain.Path("/a/b.txt"), p)

	_, err = domain.NormalizeAs(domain.KindFile, "/a/b/")
	require.ErrorIs(t, err, domain.ErrPathKindMismatch)

	_, err = domain.NormalizeAs(domain.KindDir, "relative/")
	require.ErrorIs(t, err, domain.ErrPathNotAbsolute)
}

func TestIsDirLike(t *testing.T) {
	for _, p := range []string{"/", "a/", "a/.", "a/..", ".", ".."} {
		assert.True(t, domain.IsDirLike(p), p)
	}
	for _, p := range []string{"a", "a/b", "a.", "..a", "/a/.hidden"} {
		assert.False(t, domain.IsDirLike(p), p)
	}
}

func TestPath_BaseAndParent(t *testing.T) {
	tests := []struct {
		path   domain.Path
		base   string
		parent domain.Path
		kind   domain.ItemKind
	}{
		{"/a/b.txt", "b.txt", "/a/", domain.KindFile},
		{"/a/b/", "b/", "/a/", domain.KindDir},
		{"/a/", "a/", "/", domain.KindDir},
		{"/", "/", "/", domain.KindDir},
	}
	for _, tt := range tests {
		t.Run(string(tt.path), func(t *testing.T) {
			assert.Equal(t, tt.base, tt.path.Base())
			assert.Equal(t, tt.parent, tt.path.Parent())
			assert.Equal(t, tt.kind, tt.path.Kind())
		})
	}
}

func TestRelativeDescendant(t *testing.T) {
	rel, ok := domain.RelativeDescendant("/src/", "/src/lib/a.c", false)
	assert.True(t, ok)
	assert.Equal(t, "lib/a.c", rel)

	_, ok = domain.RelativeDescendant("/src/", "/src/", false)
	assert.False(t, ok)

	rel, ok = domain.RelativeDescendant("/src/", "/src/", true)
	assert.True(t, ok)
	assert.Equal(t, "./", rel)

	_, ok = domain.RelativeDescendant("/src/", "/srcx/a", false)
	assert.False(t, ok)

	// Only directories have descendants.
	_, ok = domain.RelativeDescendant("/src/a", "/src/a", true)
	assert.False(t, ok)

	_, err := domain.ExpectRelativeDescendant("/src/", "/other/", false)
	require.ErrorIs(t, err, domain.ErrNotADescendant)

	assert.True(t, domain.IsDescendant("/", "/anything", false))
}
