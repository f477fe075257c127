// Package output creates terminal outputs and prints command results.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/neja/internal/ui/style"
)

// ColorProfile returns the profile for w's terminal. NO_COLOR disables colors and
// CI environments get plain ANSI.
func ColorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	if ci := os.Getenv("CI"); ci == "true" || ci == "1" {
		return termenv.ANSI
	}
	return termenv.EnvColorProfile()
}

// New creates a termenv.Output using ColorProfile.
func New(w io.Writer, opts ...termenv.OutputOption) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}
	opts = append(opts,
		termenv.WithProfile(ColorProfile()),
		termenv.WithTTY(true),
	)
	return termenv.NewOutput(w, opts...)
}

// Printer writes one status line per call, prefixed with an icon.
type Printer struct {
	out *termenv.Output
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{out: New(w)}
}

// Success prints a line marked with a check.
func (p *Printer) Success(format string, args ...any) {
	p.line(style.Check, style.Green, format, args...)
}

// Changed prints a line marked with a tilde.
func (p *Printer) Changed(format string, args ...any) {
	p.line(style.Tilde, style.Yellow, format, args...)
}

// Failure prints a line marked with a cross.
func (p *Printer) Failure(format string, args ...any) {
	p.line(style.Cross, style.Red, format, args...)
}

// Info prints a muted line marked with a dot.
func (p *Printer) Info(format string, args ...any) {
	p.line(style.Dot, style.Muted, format, args...)
}

func (p *Printer) line(icon string, color lipgloss.Color, format string, args ...any) {
	text := icon + " " + fmt.Sprintf(format, args...)
	styled := p.out.String(text).Foreground(termenv.RGBColor(string(color)))
	_, _ = p.out.WriteString(styled.String() + "\n")
}
