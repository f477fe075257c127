package ports

import "iter"

// Walker enumerates files below a directory.
//
//go:generate mockgen -source=walker.go -destination=mocks/mock_walker.go -package=mocks
type Walker interface {
	// WalkFiles yields the files below root whose base name is one of names, skipping
	// directories matching any of the skip patterns.
	WalkFiles(root string, names, skip []string) iter.Seq[string]
}
