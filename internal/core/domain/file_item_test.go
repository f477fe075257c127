package domain_test

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/neja/internal/core/domain"
)

func TestFileItem_RootAndChildren(t *testing.T) {
	root, err := domain.NewRootItem("/")
	require.NoError(t, err)
	assert.Same(t, root, root.Parent())
	assert.Same(t, root, root.VirtualRoot())
	assert.Equal(t, "/", root.String())

	src, err := domain.NewChildItem(root, "/src/")
	require.NoError(t, err)
	require.NoError(t, src.PromoteToVirtualRoot())
	require.NoError(t, src.SetNinjaVar("sourcedir", false))

	lib, err := domain.NewChildItem(src, "/src/lib/")
	require.NoError(t, err)
	file, err := domain.NewChildItem(lib, "/src/lib/a.c")
	require.NoError(t, err)

	assert.Equal(t, "a.c", file.Name())
	assert.Equal(t, "lib/", lib.Name())
	assert.Equal(t, "lib/a.c", file.VirtualPath())
	assert.Same(t, src, file.VirtualRoot())
	assert.Equal(t, "${sourcedir}/lib/a.c", file.String())
	assert.Equal(t, "${sourcedir}/lib/", lib.String())
	assert.Equal(t, "${sourcedir}", src.String())
	assert.Equal(t, "/src/", src.Literal())
}

func TestFileItem_NonDirRoot(t *testing.T) {
	_, err := domain.NewRootItem("/file")
	require.ErrorIs(t, err, domain.ErrNotADirectory)
}

func TestFileItem_ChildOfFile(t *testing.T) {
	root, _ := domain.NewRootItem("/")
	f, err := domain.NewChildItem(root, "/f")
	require.NoError(t, err)

	_, err = domain.NewChildItem(f, "/f/x")
	require.ErrorIs(t, err, domain.ErrNotADirectory)
}

func TestFileItem_Promote(t *testing.T) {
	root, _ := domain.NewRootItem("/")
	dir, _ := domain.NewChildItem(root, "/d/")
	_, _ = domain.NewChildItem(dir, "/d/x")

	require.ErrorIs(t, dir.PromoteToVirtualRoot(), domain.ErrVirtualRootNotEmpty)
	assert.Same(t, root, dir.VirtualRoot())

	f, _ := domain.NewChildItem(root, "/f")
	require.ErrorIs(t, f.PromoteToVirtualRoot(), domain.ErrNotADirectory)
}

func TestFileItem_SetNinjaVar(t *testing.T) {
	root, _ := domain.NewRootItem("/")
	dir, _ := domain.NewChildItem(root, "/d/")

	require.NoError(t, dir.SetNinjaVar("d", false))
	require.ErrorIs(t, dir.SetNinjaVar("e", false), domain.ErrNinjaVarAssigned)
	require.NoError(t, dir.SetNinjaVar("e", true))
	assert.Equal(t, "${e}", dir.String())
	assert.Equal(t, "e", dir.NinjaVar().Name())
}

func TestFileItem_EscapesDollarInLiteralParts(t *testing.T) {
	root, _ := domain.NewRootItem("/")
	src, _ := domain.NewChildItem(root, "/src$1/")
	require.NoError(t, src.PromoteToVirtualRoot())
	file, err := domain.NewChildItem(src, "/src$1/a$b.txt")
	require.NoError(t, err)

	assert.Equal(t, "/src$$1/", src.Literal())
	assert.Equal(t, "/src$$1/a$$b.txt", file.String())

	require.NoError(t, src.SetNinjaVar("sourcedir", false))
	assert.Equal(t, "${sourcedir}/a$$b.txt", file.String())
	assert.Equal(t, "a$b.txt", file.VirtualPath())
}

func TestFileItem_Descendants(t *testing.T) {
	root, _ := domain.NewRootItem("/")
	a, _ := domain.NewChildItem(root, "/a/")
	b, _ := domain.NewChildItem(a, "/a/b")
	c, _ := domain.NewChildItem(root, "/c")

	assert.Equal(t, []*domain.FileItem{root, a, b, c}, slices.Collect(root.Descendants(true)))
	assert.Equal(t, []*domain.FileItem{a, b, c}, slices.Collect(root.Descendants(false)))

	var first []*domain.FileItem
	for d := range root.Descendants(false) {
		first = append(first, d)
		break
	}
	assert.Equal(t, []*domain.FileItem{a}, first)
}

func TestCollectors(t *testing.T) {
	ctx := context.Background()
	root, _ := domain.NewRootItem("/")
	dir, _ := domain.NewChildItem(root, "/d/")
	file, _ := domain.NewChildItem(root, "/f")

	files := domain.NewFileArray(domain.KindFile)
	_, err := files.OnItem(ctx, dir)
	require.ErrorIs(t, err, domain.ErrNotAFile)

	var hooked []*domain.FileItem
	files.OnAppend = domain.PipeFunc(func(_ context.Context, item *domain.FileItem) (domain.Deferred, error) {
		hooked = append(hooked, item)
		return nil, nil
	})
	_, err = files.OnItem(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, []*domain.FileItem{file}, files.Items())
	assert.Equal(t, []*domain.FileItem{file}, hooked)

	single := domain.NewSingleItem(domain.KindDir)
	_, err = single.Item()
	require.ErrorIs(t, err, domain.ErrSingleItemMissing)
	_, err = single.OnItem(ctx, file)
	require.ErrorIs(t, err, domain.ErrNotADirectory)
	_, err = single.OnItem(ctx, dir)
	require.NoError(t, err)
	_, err = single.OnItem(ctx, dir)
	require.ErrorIs(t, err, domain.ErrSingleItemReassigned)

	optional := &domain.SingleItem{}
	got, err := optional.Item()
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, optional.String())
}

func TestFlatten(t *testing.T) {
	a := domain.VirtualRoot()
	b := domain.NewFileArray(domain.KindAny)
	c := domain.NewSingleItem(domain.KindAny)

	flat := domain.Flatten(domain.Pipes{a, domain.Pipes{b, domain.Pipes{c}}})
	require.Len(t, flat, 3)
	assert.Same(t, b, flat[1])
	assert.Same(t, c, flat[2])
	assert.Nil(t, domain.Flatten(nil))
}
