// Package detector inspects the environment to choose how logs are rendered.
package detector

import (
	"os"

	"golang.org/x/term"
)

// LogFormat is the rendering of log records.
type LogFormat int

const (
	// FormatAuto picks a format from the environment.
	FormatAuto LogFormat = iota
	// FormatPretty renders colored, human-readable lines.
	FormatPretty
	// FormatJSON renders one JSON object per record.
	FormatJSON
)

func (f LogFormat) String() string {
	switch f {
	case FormatPretty:
		return "pretty"
	case FormatJSON:
		return "json"
	default:
		return "auto"
	}
}

// DetectFormat returns JSON when stderr is not a terminal or a CI environment is detected.
func DetectFormat() LogFormat {
	isTTY := term.IsTerminal(int(os.Stderr.Fd()))
	if !isTTY || IsCI() {
		return FormatJSON
	}
	return FormatPretty
}

// IsCI reports whether the CI environment variable is set to a truthy value.
func IsCI() bool {
	ci := os.Getenv("CI")
	return ci == "true" || ci == "1"
}

// ResolveFormat applies the user's --log-format flag to the detected format.
// userFlag should be one of: "auto", "pretty", "json", or empty.
func ResolveFormat(detected LogFormat, userFlag string) LogFormat {
	switch userFlag {
	case "pretty", "text":
		return FormatPretty
	case "json":
		return FormatJSON
	default:
		return detected
	}
}
