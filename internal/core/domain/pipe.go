package domain

import "context"

// Deferred is the part of a pipe invocation that runs later, during discovery draining.
type Deferred func(ctx context.Context) error

// Pipe receives file items. A pipe may finish synchronously by returning a nil Deferred, or
// hand back a Deferred that the scheduler runs in order with other pipes on the same item.
type Pipe interface {
	OnItem(ctx context.Context, item *FileItem) (Deferred, error)
}

// PipeFunc adapts a function to the Pipe interface.
type PipeFunc func(ctx context.Context, item *FileItem) (Deferred, error)

// OnItem calls f.
func (f PipeFunc) OnItem(ctx context.Context, item *FileItem) (Deferred, error) {
	return f(ctx, item)
}

// Pipes applies each pipe to an item in order. Attaching Pipes is the same as
// attaching every member separately.
type Pipes []Pipe

// OnItem is only reached when Pipes is invoked directly instead of being attached.
func (ps Pipes) OnItem(ctx context.Context, item *FileItem) (Deferred, error) {
	var deferred []Deferred
	for _, p := range ps {
		d, err := p.OnItem(ctx, item)
		if err != nil {
			return nil, err
		}
		if d != nil {
			deferred = append(deferred, d)
		}
	}
	if len(deferred) == 0 {
		return nil, nil
	}
	return func(ctx context.Context) error {
		for _, d := range deferred {
			if err := d(ctx); err != nil {
				return err
			}
		}
		return nil
	}, nil
}

// Flatten expands nested Pipes into a flat list in application order.
func Flatten(p Pipe) []Pipe {
	group, ok := p.(Pipes)
	if !ok {
		if p == nil {
			return nil
		}
		return []Pipe{p}
	}
	var flat []Pipe
	for _, sub := range group {
		flat = append(flat, Flatten(sub)...)
	}
	return flat
}

// TreeEntry is one named node in a declared file tree. A name ending in a
// separator declares a directory; "." refers to the tree's own root.
type TreeEntry struct {
	Name     string
	Pipe     Pipe
	Children Tree
}

// Tree is an ordered file tree declaration. Entry order is declaration order.
type Tree []TreeEntry

// WriteSpec configures the write pipe.
type WriteSpec struct {
	Content []byte
	// Mode is the octal permission of the written file; zero means FilePerm.
	Mode int64
	// Overwrite replaces files that already exist.
	Overwrite bool
	// CreateParents creates missing parent directories.
	CreateParents bool
}

// MkdirSpec configures the mkdir pipe.
type MkdirSpec struct {
	Recursive    bool
	FailIfExists bool
}
