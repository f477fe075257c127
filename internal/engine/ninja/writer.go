// Package ninja serializes a resolved build graph into a Ninja file.
package ninja

import (
	"bufio"
	"io"
	"strings"
)

const indent = "  "

var pathEscaper = strings.NewReplacer(" ", "$ ", ":", "$:", "\n", "$\n")

// Writer emits Ninja statements to a buffered sink. Writes block while the sink is full.
// The first error is sticky and reported by every later call.
type Writer struct {
	w   *bufio.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (n *Writer) write(parts ...string) error {
	for _, p := range parts {
		if n.err != nil {
			return n.err
		}
		_, n.err = n.w.WriteString(p)
	}
	return n.err
}

// Comment writes each line of text prefixed with "# ".
func (n *Writer) Comment(text string) error {
	for line := range strings.SplitSeq(text, "\n") {
		if err := n.write("# ", line, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Assign writes a top-level variable binding.
func (n *Writer) Assign(name, value string) error {
	return n.write(name, " = ", value, "\n")
}

// ScopedAssign writes an indented binding that belongs to the preceding rule or build.
func (n *Writer) ScopedAssign(name, value string) error {
	return n.write(indent, name, " = ", value, "\n")
}

// Rule opens a rule block.
func (n *Writer) Rule(name string) error {
	return n.write("rule ", name, "\n")
}

// Build writes a build line. Implicit inputs follow a "|" separator.
func (n *Writer) Build(outs []string, rule string, ins, implicit []string) error {
	if err := n.write("build ", paths(outs), ": ", rule); err != nil {
		return err
	}
	if len(ins) > 0 {
		if err := n.write(" ", paths(ins)); err != nil {
			return err
		}
	}
	if len(implicit) > 0 {
		if err := n.write(" | ", paths(implicit)); err != nil {
			return err
		}
	}
	return n.write("\n")
}

// Default writes a default statement.
func (n *Writer) Default(targets []string) error {
	return n.write("default ", paths(targets), "\n")
}

// BlankLine writes an empty line.
func (n *Writer) BlankLine() error {
	return n.write("\n")
}

// Flush pushes buffered output to the sink.
func (n *Writer) Flush() error {
	if n.err != nil {
		return n.err
	}
	n.err = n.w.Flush()
	return n.err
}

// paths joins a path list, escaping the characters that separate Ninja paths.
// Variable references are kept as they are.
func paths(list []string) string {
	escaped := make([]string, len(list))
	for i, p := range list {
		escaped[i] = pathEscaper.Replace(p)
	}
	return strings.Join(escaped, " ")
}
