// Package domain holds the declaration model: paths, file items, pipes, targets and the errors they raise.
package domain

import (
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

// Sep is the host path separator as a string.
const Sep = string(filepath.Separator)

// Path is an absolute, normalized path. Directory paths end with Sep, file paths never do.
// It carries no identity; two equal strings denote the same location.
type Path string

// ItemKind distinguishes files from directories.
type ItemKind uint8

const (
	// KindAny matches both files and directories.
	KindAny ItemKind = iota
	// KindFile is a regular file.
	KindFile
	// KindDir is a directory.
	KindDir
)

func (k ItemKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	default:
		return "any"
	}
}

// ParseItemKind parses "file" or "dir". Anything else yields KindAny.
func ParseItemKind(s string) ItemKind {
	switch s {
	case "file":
		return KindFile
	case "dir":
		return KindDir
	default:
		return KindAny
	}
}

// PathModifier transforms a path during Resolve.
type PathModifier interface {
	modifyPath(parts []string) []string
}

// Seg is a literal path segment. Absolute segments replace everything before them.
type Seg string

func (s Seg) modifyPath(parts []string) []string {
	return append(parts, string(s))
}

// Rewrite is an arbitrary path rewrite applied to the path resolved so far.
type Rewrite func(Path) string

func (r Rewrite) modifyPath(parts []string) []string {
	flushed := flush(parts)
	return []string{string(NormalizePath(r(flushed)))}
}

// NormalizePath cleans an absolute path and keeps its trailing separator, if any.
func NormalizePath(p string) Path {
	cleaned := filepath.Clean(p)
	if IsDirLike(p) && !strings.HasSuffix(cleaned, Sep) {
		cleaned += Sep
	}
	return Path(cleaned)
}

// NormalizeAs normalizes p and enforces the trailing-separator rule for kind.
func NormalizeAs(kind ItemKind, p string) (Path, error) {
	if !filepath.IsAbs(p) {
		return "", zerr.With(Mark(ErrPathNotAbsolute), "path", p)
	}
	normalized := NormalizePath(p)
	switch kind {
	case KindDir:
		if !strings.HasSuffix(string(normalized), Sep) {
			normalized += Path(Sep)
		}
	case KindFile:
		if strings.HasSuffix(string(normalized), Sep) {
			return "", zerr.With(zerr.With(Mark(ErrPathKindMismatch), "expected", kind.String()), "path", p)
		}
	}
	return normalized, nil
}

// Resolve joins seed with the modifiers and normalizes the result.
// The result is a directory path if the last joined segment is directory-like.
func Resolve(seed Path, mods ...PathModifier) Path {
	parts := []string{string(seed)}
	for _, m := range mods {
		if m == nil {
			continue
		}
		parts = m.modifyPath(parts)
	}
	return flush(parts)
}

// ResolveAs is Resolve followed by a check that the result has the expected kind.
func ResolveAs(kind ItemKind, seed Path, mods ...PathModifier) (Path, error) {
	p := Resolve(seed, mods...)
	if kind != KindAny && p.Kind() != kind {
		err := zerr.With(Mark(ErrPathKindMismatch), "expected", kind.String())
		return "", zerr.With(err, "path", string(p))
	}
	return p, nil
}

func flush(parts []string) Path {
	if len(parts) == 1 {
		return Path(parts[0])
	}
	base := ""
	for _, part := range parts {
		if part == "" {
			continue
		}
		if filepath.IsAbs(part) || base == "" {
			base = part
			continue
		}
		base = base + Sep + part
	}
	joined := filepath.Clean(base)
	if IsDirLike(parts[len(parts)-1]) && filepath.Dir(joined) != joined {
		joined += Sep
	}
	return Path(joined)
}

// IsDirLike reports whether p, absolute or relative, unambiguously points to a directory.
func IsDirLike(p string) bool {
	return strings.HasSuffix(p, "/") ||
		strings.HasSuffix(p, Sep) ||
		strings.HasSuffix(p, Sep+".") ||
		strings.HasSuffix(p, Sep+"..") ||
		p == "." ||
		p == ".."
}

// Kind reports whether p names a file or a directory.
func (p Path) Kind() ItemKind {
	if strings.HasSuffix(string(p), Sep) {
		return KindDir
	}
	return KindFile
}

// Base returns the last element of p, including the trailing separator for directories.
// A root path is returned as is.
func (p Path) Base() string {
	i := lastSep(p)
	if i == -1 {
		return string(p)
	}
	return string(p[i+1:])
}

// Parent returns the directory containing p. A root path is its own parent.
func (p Path) Parent() Path {
	i := lastSep(p)
	if i == -1 {
		return p
	}
	return p[:i+1]
}

// lastSep finds the last separator, ignoring a trailing one.
func lastSep(p Path) int {
	if len(p) < 2 {
		return -1
	}
	return strings.LastIndex(string(p[:len(p)-1]), Sep)
}

// RelativeDescendant returns the path of to relative to the directory from.
// With includeSelf, a path equal to from yields "./".
func RelativeDescendant(from, to Path, includeSelf bool) (string, bool) {
	if from.Kind() != KindDir || !strings.HasPrefix(string(to), string(from)) {
		return "", false
	}
	rel := string(to[len(from):])
	if rel != "" {
		return rel, true
	}
	if includeSelf {
		return "." + Sep, true
	}
	return "", false
}

// ExpectRelativeDescendant is RelativeDescendant failing with ErrNotADescendant.
func ExpectRelativeDescendant(from, to Path, includeSelf bool) (string, error) {
	rel, ok := RelativeDescendant(from, to, includeSelf)
	if !ok {
		err := zerr.With(Mark(ErrNotADescendant), "ancestor", string(from))
		return "", zerr.With(err, "path", string(to))
	}
	return rel, nil
}

// IsDescendant reports whether to lies under the directory from.
func IsDescendant(from, to Path, includeSelf bool) bool {
	_, ok := RelativeDescendant(from, to, includeSelf)
	return ok
}
