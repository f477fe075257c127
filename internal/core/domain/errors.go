package domain

import "go.trai.ch/zerr"

var (
	// ErrPathNotAbsolute is returned when a path that must be absolute is relative.
	ErrPathNotAbsolute = zerr.New("expected an absolute path")

	// ErrPathKindMismatch is returned when a resolved path's trailing-slash shape disagrees with the expected kind.
	ErrPathKindMismatch = zerr.New("path kind mismatch")

	// ErrNotADescendant is returned when a path is required to lie under a directory but does not.
	ErrNotADescendant = zerr.New("path is not a descendant")

	// ErrItemTypeMismatch is returned when a path is declared as a file and as a directory.
	ErrItemTypeMismatch = zerr.New("file item declared with a different type")

	// ErrNotADirectory is returned when an operation that needs a directory receives a file.
	ErrNotADirectory = zerr.New("expected a directory")

	// ErrNotAFile is returned when an operation that needs a file receives a directory.
	ErrNotAFile = zerr.New("expected a file")

	// ErrVirtualRootNotEmpty is returned when a directory with children is promoted to a virtual root.
	ErrVirtualRootNotEmpty = zerr.New("virtual roots must be declared before their children")

	// ErrBuildRootReserved is returned when a path is declared in the build root outside of its predefined subdirectories.
	ErrBuildRootReserved = zerr.New("cannot declare a path in the build directory outside of a predefined virtual root")

	// ErrSourceInsideBuild is returned when the source root is nested in the build root.
	ErrSourceInsideBuild = zerr.New("source directory must not be inside the build directory")

	// ErrNinjaVarAssigned is returned when a ninja variable is attached to an item that already has one.
	ErrNinjaVarAssigned = zerr.New("file item already has a ninja variable")

	// ErrSingleItemReassigned is returned when a single-item collector receives a second item without permission.
	ErrSingleItemReassigned = zerr.New("expected only one item, but got multiple")

	// ErrSingleItemMissing is returned when a required single-item collector is read before receiving an item.
	ErrSingleItemMissing = zerr.New("expected a file item, but none was assigned")

	// ErrUnitOutsideSource is returned when a definition unit lives outside the project source root.
	ErrUnitOutsideSource = zerr.New("definition unit is outside the source directory")

	// ErrImportOutsideSource is returned when the import pipe is applied to a directory outside the source root.
	ErrImportOutsideSource = zerr.New("can only import directories below the source root")

	// ErrImportCycle is returned when a definition unit is loaded while it is still being loaded.
	ErrImportCycle = zerr.New("definition unit import cycle")

	// ErrUnsupportedUnit is returned when no loader understands a definition unit's format.
	ErrUnsupportedUnit = zerr.New("unsupported definition unit format")

	// ErrUnitParseFailed is returned when a definition unit cannot be parsed.
	ErrUnitParseFailed = zerr.New("failed to parse definition unit")

	// ErrUnknownRuleKind is returned when a target references a rule kind that is not defined.
	ErrUnknownRuleKind = zerr.New("unknown rule kind")

	// ErrDuplicateRuleKind is returned when a rule kind is defined twice.
	ErrDuplicateRuleKind = zerr.New("duplicate rule kind")

	// ErrUnknownTarget is returned when a pipe references a target that is not declared in the unit.
	ErrUnknownTarget = zerr.New("unknown target")

	// ErrDuplicateTarget is returned when a unit names two targets alike.
	ErrDuplicateTarget = zerr.New("duplicate target name")

	// ErrInvalidExpansion is returned when an expansion suffix is empty or contains a separator.
	ErrInvalidExpansion = zerr.New("expansion suffix must be a non-empty file name suffix")

	// ErrUnknownSlot is returned when a pipe references a target slot that does not exist.
	ErrUnknownSlot = zerr.New("unknown target slot")

	// ErrInvalidPipe is returned when a pipe specification cannot be understood.
	ErrInvalidPipe = zerr.New("invalid pipe specification")

	// ErrInvalidFileMode is returned when a declared file mode is not a valid octal permission.
	ErrInvalidFileMode = zerr.New("invalid file mode")

	// ErrTemplateFailed is returned when a command template cannot be rendered.
	ErrTemplateFailed = zerr.New("failed to render command template")

	// ErrUnrecognizedVariable is returned when a command references an unknown ${variable}.
	ErrUnrecognizedVariable = zerr.New("unrecognized variable")

	// ErrReservedField is returned when a target declares a field named "in" or "out".
	ErrReservedField = zerr.New(`fields "in" and "out" are reserved`)

	// ErrRuleMismatch is returned when targets sharing one command disagree on rule metadata.
	ErrRuleMismatch = zerr.New("ninja rule metadata mismatch for the same command")

	// ErrAmbiguousExportName is returned when an export name equals one of several outputs.
	ErrAmbiguousExportName = zerr.New("export name coincides with one of several outputs")

	// ErrTargetsGrew is returned when new targets are declared while targets are being resolved.
	ErrTargetsGrew = zerr.New("new targets were added while resolving targets")

	// ErrTargetsFrozen is returned when a target is declared after resolution has finished.
	ErrTargetsFrozen = zerr.New("targets can no longer be declared")

	// ErrDuplicateFlagRequest is returned when a flag is requested twice.
	ErrDuplicateFlagRequest = zerr.New("duplicate flag declaration")

	// ErrDuplicateFlagProvision is returned when a flag value is provided twice.
	ErrDuplicateFlagProvision = zerr.New("duplicate flag provision")

	// ErrRequiredFlagMissing is returned when a required flag was not provided.
	ErrRequiredFlagMissing = zerr.New("required flag was not provided")

	// ErrFlagAlreadyConsumed is returned when a flag is consumed twice.
	ErrFlagAlreadyConsumed = zerr.New("internal error: flag already consumed")

	// ErrFlagNotRequested is returned when a flag is consumed without having been requested.
	ErrFlagNotRequested = zerr.New("internal error: no flag exchange for key")

	// ErrGeneratorIncomplete is returned when the regeneration target lacks its unit or command line.
	ErrGeneratorIncomplete = zerr.New("regeneration target requires the root unit and the command line")

	// ErrOutputWriteFailed is returned when the ninja file cannot be written.
	ErrOutputWriteFailed = zerr.New("failed to write ninja file")

	// ErrManifestReadFailed is returned when the run manifest cannot be read.
	ErrManifestReadFailed = zerr.New("failed to read run manifest")

	// ErrManifestDecodeFailed is returned when the run manifest cannot be decoded.
	ErrManifestDecodeFailed = zerr.New("failed to decode run manifest")

	// ErrManifestEncodeFailed is returned when the run manifest cannot be encoded.
	ErrManifestEncodeFailed = zerr.New("failed to encode run manifest")

	// ErrManifestWriteFailed is returned when the run manifest cannot be written.
	ErrManifestWriteFailed = zerr.New("failed to write run manifest")

	// ErrNoManifest is returned when status is requested before any successful run.
	ErrNoManifest = zerr.New("no previous run found, run 'neja gen' first")

	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")

	// ErrOutputStale is returned by status checks when build.ninja needs to be regenerated.
	ErrOutputStale = zerr.New("build.ninja is stale")

	// ErrLoggerNotConfigurable is returned when the wired logger cannot switch formats.
	ErrLoggerNotConfigurable = zerr.New("logger does not support format settings")

	// ErrMissingUnitFile is returned when the CLI is invoked without a root definition unit.
	ErrMissingUnitFile = zerr.New("must provide the path to the root definition unit")
)

// Mark returns an error whose chain ends in sentinel. zerr.With copies the error it is given,
// so metadata must be attached to a Mark result for errors.Is to keep matching the sentinel.
func Mark(sentinel error) error {
	return zerr.Wrap(sentinel, "")
}
