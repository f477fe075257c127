package domain

// DefaultExport is the export binding whose targets become Ninja defaults.
const DefaultExport = "default"

// Export is a named binding exposed by a definition unit.
// Value is a Target, or, for the default export, a Target or an Exports group.
type Export struct {
	Name  string
	Value any
}

// Exports is the ordered set of bindings a unit exposes.
type Exports []Export
