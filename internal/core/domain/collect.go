package domain

import (
	"context"

	"go.trai.ch/zerr"
)

// FileArray collects every item piped into it, in the order the pipes ran.
type FileArray struct {
	// Kind restricts accepted items; KindAny accepts both.
	Kind ItemKind
	// OnAppend runs after each item is collected.
	OnAppend Pipe

	items []*FileItem
}

// NewFileArray creates a collector for the given kind.
func NewFileArray(kind ItemKind) *FileArray {
	return &FileArray{Kind: kind}
}

// OnItem implements Pipe.
func (a *FileArray) OnItem(ctx context.Context, item *FileItem) (Deferred, error) {
	if err := checkKind(a.Kind, item); err != nil {
		return nil, err
	}
	a.items = append(a.items, item)
	if a.OnAppend != nil {
		return a.OnAppend.OnItem(ctx, item)
	}
	return nil, nil
}

// Items returns the collected items.
func (a *FileArray) Items() []*FileItem { return a.items }

// Len returns the number of collected items.
func (a *FileArray) Len() int { return len(a.items) }

// Set replaces the collected items.
func (a *FileArray) Set(items []*FileItem) { a.items = items }

// String renders the items as a space-separated Ninja value.
func (a *FileArray) String() string { return Items(a.items).String() }

// SingleItem holds exactly one item.
type SingleItem struct {
	Kind ItemKind
	// Required makes Item fail when nothing was assigned.
	Required bool
	// AllowReassign permits later items to replace the first.
	AllowReassign bool
	// OnAssign runs after each assignment.
	OnAssign Pipe

	item *FileItem
}

// NewSingleItem creates a required single-item collector for the given kind.
func NewSingleItem(kind ItemKind) *SingleItem {
	return &SingleItem{Kind: kind, Required: true}
}

// OnItem implements Pipe.
func (s *SingleItem) OnItem(ctx context.Context, item *FileItem) (Deferred, error) {
	if err := checkKind(s.Kind, item); err != nil {
		return nil, err
	}
	if s.item != nil && !s.AllowReassign {
		err := zerr.With(Mark(ErrSingleItemReassigned), "assigned", s.item.String())
		return nil, zerr.With(err, "received", item.String())
	}
	s.item = item
	if s.OnAssign != nil {
		return s.OnAssign.OnItem(ctx, item)
	}
	return nil, nil
}

// Item returns the assigned item. It fails for required collectors without one.
func (s *SingleItem) Item() (*FileItem, error) {
	if s.item == nil && s.Required {
		return nil, ErrSingleItemMissing
	}
	return s.item, nil
}

// Peek returns the assigned item or nil without checking Required.
func (s *SingleItem) Peek() *FileItem { return s.item }

// String renders the assigned item, or the empty string.
func (s *SingleItem) String() string {
	if s.item == nil {
		return ""
	}
	return s.item.String()
}

func checkKind(kind ItemKind, item *FileItem) error {
	if kind == KindAny || item.Kind() == kind {
		return nil
	}
	if kind == KindDir {
		return zerr.With(Mark(ErrNotADirectory), "path", string(item.Path()))
	}
	return zerr.With(Mark(ErrNotAFile), "path", string(item.Path()))
}

// VirtualRoot promotes each received directory to a virtual root.
func VirtualRoot() Pipe {
	return PipeFunc(func(_ context.Context, item *FileItem) (Deferred, error) {
		return nil, item.PromoteToVirtualRoot()
	})
}
