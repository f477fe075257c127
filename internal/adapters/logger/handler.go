package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/neja/internal/ui/output"
	"go.trai.ch/neja/internal/ui/style"
)

// marker is the icon and color of one level band.
type marker struct {
	icon  string
	color lipgloss.Color
}

func markerFor(level slog.Level) marker {
	switch {
	case level >= slog.LevelError:
		return marker{style.Cross, style.Red}
	case level >= slog.LevelWarn:
		return marker{style.Warning, style.Yellow}
	case level < slog.LevelInfo:
		return marker{style.Dot, style.Muted}
	default:
		return marker{"", style.Accent}
	}
}

// PrettyHandler is a slog.Handler for terminals. Leading indentation of a message is kept
// in front of the level icon, so nested phase timings stay aligned.
type PrettyHandler struct {
	out    *termenv.Output
	level  slog.Leveler
	attrs  []string
	prefix string
}

// NewPrettyHandler creates a PrettyHandler writing to w, or stderr when w is nil.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &PrettyHandler{out: output.New(w), level: level}
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	m := markerFor(r.Level)
	body := strings.TrimLeft(r.Message, " ")
	indent := r.Message[:len(r.Message)-len(body)]

	var line strings.Builder
	line.WriteString(indent)
	if m.icon != "" {
		line.WriteString(m.icon + " ")
	}
	line.WriteString(body)
	for _, a := range h.attrs {
		line.WriteString(" " + a)
	}
	r.Attrs(func(a slog.Attr) bool {
		line.WriteString(" " + h.prefix + a.Key + "=" + a.Value.String())
		return true
	})

	styled := h.out.String(line.String()).Foreground(termenv.RGBColor(string(m.color)))
	_, err := h.out.WriteString(styled.String() + "\n")
	return err
}

// WithAttrs qualifies attrs with the current group path.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]string, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, h.prefix+a.Key+"="+a.Value.String())
	}
	return &next
}

// WithGroup nests name below the current group path.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}
