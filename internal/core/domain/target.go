package domain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Command is what a target produces once all discovery has settled.
// Templates reference variables as ${name}.
type Command struct {
	Command     string
	Name        string
	Description string
	Depfile     string
	Generator   bool
}

// Target is one declared build step.
type Target interface {
	// Kind names the target's type. It is the base name of anonymous targets and rules.
	Kind() string
	// Base returns the fields every target has.
	Base() *TargetBase
	// Fields lists the target's own substitutable fields in a stable order.
	Fields() []string
	// Field returns the value of a field from Fields, or nil when undefined.
	Field(name string) any
	// Command returns the rule templates for this target.
	Command() (Command, error)
}

// TypeKeyer is implemented by targets whose Kind is not unique across declarations, such as
// rules that carry the same name in different definition units. Targets with equal keys
// share one var table.
type TypeKeyer interface {
	TypeKey() any
}

// TypeKey returns the var table key of t: its TypeKey when it has one, its Kind otherwise.
func TypeKey(t Target) any {
	if k, ok := t.(TypeKeyer); ok {
		return k.TypeKey()
	}
	return t.Kind()
}

// Effecter is implemented by targets that need to adjust themselves after discovery
// has drained but before their command is resolved.
type Effecter interface {
	Effect(ctx context.Context) error
}

// TargetBase holds the inputs, outputs and naming shared by all targets.
type TargetBase struct {
	Ins         *FileArray
	Outs        *FileArray
	ImplicitIns *FileArray
	ExportName  string
	AlwaysDirty bool
}

// NewTargetBase returns a TargetBase with empty collectors.
func NewTargetBase() TargetBase {
	return TargetBase{
		Ins:         NewFileArray(KindAny),
		Outs:        NewFileArray(KindAny),
		ImplicitIns: NewFileArray(KindAny),
	}
}

// Base field names as they appear in command templates.
const (
	FieldIns         = "ins"
	FieldOuts        = "outs"
	FieldImplicitIns = "implicitIns"
	FieldExportName  = "exportName"
	FieldAlwaysDirty = "alwaysDirty"
)

// Reserved Ninja variables bound by every build statement.
const (
	VarIn  = "in"
	VarOut = "out"
)

// BaseFields lists the fields every target exposes.
var BaseFields = []string{FieldIns, FieldOuts, FieldImplicitIns, FieldExportName, FieldAlwaysDirty}

// BaseField returns the value of one of the BaseFields.
func (b *TargetBase) BaseField(name string) (any, bool) {
	switch name {
	case FieldIns:
		return b.Ins, true
	case FieldOuts:
		return b.Outs, true
	case FieldImplicitIns:
		return b.ImplicitIns, true
	case FieldExportName:
		return b.ExportName, true
	case FieldAlwaysDirty:
		return b.AlwaysDirty, true
	default:
		return nil, false
	}
}

// VarName maps a field name to the Ninja variable it binds.
func VarName(field string) string {
	switch field {
	case FieldIns:
		return VarIn
	case FieldOuts:
		return VarOut
	default:
		return field
	}
}

// FormatValue renders a field value for a Ninja variable assignment.
// It reports false for values that are undefined and must not be emitted.
func FormatValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case *FileItem:
		if val == nil {
			return "", false
		}
		return val.String(), true
	case *SingleItem:
		if val == nil || val.Peek() == nil {
			return "", false
		}
		return val.String(), true
	case *FileArray:
		if val == nil {
			return "", false
		}
		return val.String(), true
	case []*FileItem:
		return Items(val).String(), true
	case string:
		return val, true
	case []string:
		return strings.Join(val, " "), true
	case bool:
		return strconv.FormatBool(val), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return fmt.Sprint(val), true
	}
}
