package domain

// FlagStage is the handshake state of one flag key.
type FlagStage uint8

const (
	// FlagRequested means a unit declared the flag and is waiting for a value.
	FlagRequested FlagStage = iota + 1
	// FlagProvided means a flags unit supplied a value.
	FlagProvided
	// FlagConsumed means the value was handed to the requesting unit.
	FlagConsumed
)

func (s FlagStage) String() string {
	switch s {
	case FlagRequested:
		return "requested"
	case FlagProvided:
		return "provided"
	case FlagConsumed:
		return "consumed"
	default:
		return "unknown"
	}
}

// FlagSpec declares one flag a unit needs. A flag without a default is required.
type FlagSpec struct {
	Key        string
	Default    any
	HasDefault bool
}

// FlagSchema is an ordered set of flag declarations.
type FlagSchema []FlagSpec

// Keys returns the declared keys in order.
func (s FlagSchema) Keys() []string {
	keys := make([]string, len(s))
	for i, spec := range s {
		keys[i] = spec.Key
	}
	return keys
}

// FlagValue is one provided flag.
type FlagValue struct {
	Key   string
	Value any
}
