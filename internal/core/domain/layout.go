package domain

const (
	// UnitFileName is the definition unit looked up in imported directories.
	UnitFileName = "neja.yaml"

	// HCLUnitFileName is the HCL definition unit looked up when no YAML unit exists.
	HCLUnitFileName = "neja.hcl"

	// FlagsUnitFileName is the YAML flags unit looked up next to the source root and the requesting unit.
	FlagsUnitFileName = "flags.neja.yaml"

	// TOMLFlagsUnitFileName is the TOML flags unit looked up after the YAML one.
	TOMLFlagsUnitFileName = "flags.neja.toml"

	// OutDirName is the build-root subdirectory for build products.
	OutDirName = "out/"

	// BinDirName is the build-root subdirectory for executables.
	BinDirName = "bin/"

	// NinjaFileName is the generated build graph.
	NinjaFileName = "build.ninja"

	// ManifestFileName is the record of the last successful run, kept in the build root.
	ManifestFileName = ".neja_manifest"

	// BuildDirLinkName is the link in the source root pointing at the build root.
	BuildDirLinkName = ".neja-build/"

	// SourceDirVar is the ninja variable bound to the source root.
	SourceDirVar = "sourcedir"

	// BuildDirVar is the ninja variable bound to the build root.
	BuildDirVar = "builddir"

	// AlwaysDirtyTarget is the phony target that forces a rebuild when used as an input.
	AlwaysDirtyTarget = "always_dirty"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// UnitFileNames lists the names the import pipe tries, in order.
var UnitFileNames = []string{UnitFileName, HCLUnitFileName}

// FlagsUnitFileNames lists the flags unit names, in order.
var FlagsUnitFileNames = []string{FlagsUnitFileName, TOMLFlagsUnitFileName}
