package domain

import "unique"

// RuleVar is a symbolic Ninja variable reference. Names are interned since the
// same handful of names (in, out, sourcedir, ...) repeat across every target.
type RuleVar struct {
	h unique.Handle[string]
}

// NewRuleVar creates a RuleVar for the given Ninja variable name.
func NewRuleVar(name string) RuleVar {
	return RuleVar{h: unique.Make(name)}
}

// Name returns the bare variable name.
func (v RuleVar) Name() string {
	var zero unique.Handle[string]
	if v.h == zero {
		return ""
	}
	return v.h.Value()
}

// String renders the variable as a placeholder, e.g. "${in}".
func (v RuleVar) String() string {
	return "${" + v.Name() + "}"
}

// MarshalText implements encoding.TextMarshaler.
func (v RuleVar) MarshalText() ([]byte, error) {
	return []byte(v.Name()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *RuleVar) UnmarshalText(text []byte) error {
	v.h = unique.Make(string(text))
	return nil
}
