package domain

import (
	"iter"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

// FileItem is the single identity-bearing handle for one file or directory path.
// Items are created by the registry, never directly.
type FileItem struct {
	kind        ItemKind
	name        string
	path        Path
	parent      *FileItem
	virtualRoot *FileItem
	virtualPath string
	children    []*FileItem
	ninjaVar    *RuleVar
}

// NewRootItem creates a root directory item. It is its own parent and its own virtual root.
func NewRootItem(path Path) (*FileItem, error) {
	if path.Kind() != KindDir {
		return nil, zerr.With(Mark(ErrNotADirectory), "path", string(path))
	}
	item := &FileItem{
		kind: KindDir,
		name: path.Base(),
		path: path,
	}
	item.parent = item
	item.virtualRoot = item
	item.virtualPath = "." + Sep
	return item, nil
}

// NewChildItem creates an item under parent, inheriting its virtual root.
// The item is appended to the parent's children.
func NewChildItem(parent *FileItem, path Path) (*FileItem, error) {
	if parent.kind != KindDir {
		return nil, zerr.With(Mark(ErrNotADirectory), "path", string(parent.path))
	}
	rel, err := ExpectRelativeDescendant(parent.virtualRoot.path, path, false)
	if err != nil {
		return nil, err
	}
	item := &FileItem{
		kind:        path.Kind(),
		name:        path.Base(),
		path:        path,
		parent:      parent,
		virtualRoot: parent.virtualRoot,
		virtualPath: rel,
	}
	parent.children = append(parent.children, item)
	return item, nil
}

// Kind returns whether the item is a file or a directory.
func (f *FileItem) Kind() ItemKind { return f.kind }

// Name returns the base name, slash-suffixed for directories.
func (f *FileItem) Name() string { return f.name }

// Path returns the absolute normalized path.
func (f *FileItem) Path() Path { return f.path }

// Parent returns the containing directory. Roots return themselves.
func (f *FileItem) Parent() *FileItem { return f.parent }

// VirtualRoot returns the nearest ancestor promoted to a virtual root.
func (f *FileItem) VirtualRoot() *FileItem { return f.virtualRoot }

// VirtualPath returns the path relative to the virtual root.
func (f *FileItem) VirtualPath() string { return f.virtualPath }

// NinjaVar returns the attached ninja variable, or nil.
func (f *FileItem) NinjaVar() *RuleVar { return f.ninjaVar }

// IsVirtualRoot reports whether the item anchors its own subtree.
func (f *FileItem) IsVirtualRoot() bool { return f.virtualRoot == f }

// Children returns the children declared so far, in declaration order.
func (f *FileItem) Children() []*FileItem { return f.children }

// PromoteToVirtualRoot makes the directory its own virtual root.
// Virtual roots must be declared before any of their children.
func (f *FileItem) PromoteToVirtualRoot() error {
	if f.kind != KindDir {
		return zerr.With(Mark(ErrNotADirectory), "path", string(f.path))
	}
	if len(f.children) > 0 {
		return zerr.With(Mark(ErrVirtualRootNotEmpty), "path", string(f.path))
	}
	f.virtualRoot = f
	f.virtualPath = "." + Sep
	return nil
}

// SetNinjaVar attaches a ninja variable used in place of the literal path when rendering.
func (f *FileItem) SetNinjaVar(name string, overwrite bool) error {
	if f.ninjaVar != nil && !overwrite {
		err := zerr.With(Mark(ErrNinjaVarAssigned), "path", string(f.path))
		return zerr.With(err, "var", f.ninjaVar.Name())
	}
	v := NewRuleVar(name)
	f.ninjaVar = &v
	return nil
}

// String renders the item for Ninja: its ninja variable if any, else a
// virtual-root-relative join that bottoms out in a variable or a literal root.
func (f *FileItem) String() string {
	if f.ninjaVar != nil {
		return f.ninjaVar.String()
	}
	return f.Literal()
}

// Literal renders the item as String does, but ignores the item's own ninja variable.
func (f *FileItem) Literal() string {
	switch {
	case f.virtualRoot != f:
		return joinRendered(f.virtualRoot.String(), dollarEscaper.Replace(f.virtualPath))
	case f.parent != f:
		return joinRendered(f.parent.String(), dollarEscaper.Replace(f.name))
	default:
		return dollarEscaper.Replace(string(f.path))
	}
}

// dollarEscaper escapes literal path text. Rendered variable references are joined in
// after escaping.
var dollarEscaper = strings.NewReplacer("$", "$$")

// joinRendered joins like filepath.Join but keeps a trailing separator.
func joinRendered(base, rel string) string {
	joined := filepath.Join(base, rel)
	if strings.HasSuffix(rel, Sep) && !strings.HasSuffix(joined, Sep) {
		joined += Sep
	}
	return joined
}

// Descendants iterates the item and its declared descendants depth first.
func (f *FileItem) Descendants(includeSelf bool) iter.Seq[*FileItem] {
	return func(yield func(*FileItem) bool) {
		if includeSelf {
			if !yield(f) {
				return
			}
		}
		f.walkChildren(yield)
	}
}

func (f *FileItem) walkChildren(yield func(*FileItem) bool) bool {
	for _, child := range f.children {
		if !yield(child) {
			return false
		}
		if !child.walkChildren(yield) {
			return false
		}
	}
	return true
}

func (f *FileItem) modifyPath(parts []string) []string {
	return append(parts, f.virtualPath)
}

// Items adapts a slice of items for rendering as one space-separated Ninja value.
type Items []*FileItem

func (items Items) String() string {
	rendered := make([]string, len(items))
	for i, item := range items {
		rendered[i] = item.String()
	}
	return strings.Join(rendered, " ")
}
