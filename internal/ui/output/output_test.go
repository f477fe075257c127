package output_test

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/neja/internal/ui/output"
)

func TestColorProfile(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, termenv.Ascii, output.ColorProfile())

	t.Setenv("NO_COLOR", "")
	t.Setenv("CI", "true")
	assert.Equal(t, termenv.ANSI, output.ColorProfile())

	t.Setenv("CI", "")
	p := output.ColorProfile()
	assert.True(t, p >= termenv.TrueColor && p <= termenv.Ascii)
}

func TestNew_NilWriter(t *testing.T) {
	assert.NotNil(t, output.New(nil))
}

func TestPrinter(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	p := output.NewPrinter(&buf)
	p.Success("wrote %s", "build.ninja")
	p.Changed("modified %s", "neja.yaml")
	p.Failure("missing %s", "lib/neja.yaml")
	p.Info("%d units", 3)

	assert.Equal(t,
		"✓ wrote build.ninja\n"+
			"~ modified neja.yaml\n"+
			"✗ missing lib/neja.yaml\n"+
			"● 3 units\n",
		buf.String())
}
