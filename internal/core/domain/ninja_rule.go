package domain

import "strconv"

// NinjaRule is a deduplicated Ninja rule. Targets whose commands are byte-identical share one.
type NinjaRule struct {
	BaseName    string
	UniqueName  string
	Command     string
	Description string
	Depfile     string
	// Vars are the sorted, deduplicated field names referenced by the templates.
	Vars      []string
	Generator bool
}

// UniqueNames hands out collision-free names derived from base names.
type UniqueNames struct {
	next map[string]int
}

// NewUniqueNames creates an empty resolver.
func NewUniqueNames() *UniqueNames {
	return &UniqueNames{next: make(map[string]int)}
}

// Claim returns base on its first claim and base_N afterwards, skipping
// candidates that were claimed verbatim.
func (u *UniqueNames) Claim(base string) string {
	n, taken := u.next[base]
	if !taken {
		u.next[base] = 1
		return base
	}
	name := base
	for {
		name = base + "_" + strconv.Itoa(n)
		n++
		if _, conflict := u.next[name]; !conflict {
			break
		}
	}
	u.next[base] = n
	u.next[name] = 1
	return name
}
