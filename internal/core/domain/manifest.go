package domain

import "time"

// Manifest records a successful generation run.
type Manifest struct {
	Version     string         `msgpack:"version"`
	GeneratedAt time.Time      `msgpack:"generated_at"`
	RootUnit    string         `msgpack:"root_unit"`
	SourceDir   string         `msgpack:"source_dir"`
	Output      string         `msgpack:"output"`
	OutputHash  string         `msgpack:"output_hash"`
	Units       []UnitDigest   `msgpack:"units"`
	Rules       int            `msgpack:"rules"`
	Targets     int            `msgpack:"targets"`
	Flags       map[string]any `msgpack:"flags,omitempty"`
}

// UnitDigest is the content hash of one loaded definition unit.
type UnitDigest struct {
	Path string `msgpack:"path"`
	Hash string `msgpack:"hash"`
}

// UnitChange describes how a unit differs from the last recorded run.
type UnitChange struct {
	Path   string
	Status UnitStatus
}

// UnitStatus classifies a UnitChange.
type UnitStatus string

const (
	// UnitUnchanged means the unit's content hash matches the manifest.
	UnitUnchanged UnitStatus = "unchanged"
	// UnitModified means the unit's content changed.
	UnitModified UnitStatus = "modified"
	// UnitMissing means the unit no longer exists.
	UnitMissing UnitStatus = "missing"
	// UnitUntracked means a unit file exists in the source tree but the last run did not load it.
	UnitUntracked UnitStatus = "untracked"
)
