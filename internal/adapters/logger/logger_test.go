package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/neja/internal/adapters/logger"
	"go.trai.ch/zerr"
)

func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New()
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Levels(t *testing.T) {
	lg, buf := newTestLogger(t)

	lg.Info("loaded 3 units")
	lg.Warn("no default targets")
	lg.Debug("hidden")

	assert.Equal(t, "loaded 3 units\n! no default targets\n", buf.String())
}

func TestLogger_Verbose(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetVerbose(true)

	lg.Debug("drain took 2ms")
	assert.Equal(t, "● drain took 2ms\n", buf.String())

	buf.Reset()
	lg.SetVerbose(false)
	lg.Debug("gone")
	assert.Empty(t, buf.String())
}

func TestLogger_ErrorChain(t *testing.T) {
	lg, buf := newTestLogger(t)

	inner := zerr.With(zerr.New("definition unit not found"), "dir", "/p/lib/")
	outer := zerr.With(zerr.Wrap(inner, "import failed"), "unit", "/p/neja.yaml")
	lg.Error(outer)

	g := goldie.New(t)
	g.Assert(t, "error_chain", buf.Bytes())
}

func TestLogger_ErrorNil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_JSON(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)

	lg.Error(errors.New("disk full"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "generation failed", record["msg"])
	assert.Equal(t, "disk full", record["error"])
}

func TestLogger_JSONKeepsOutput(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)
	lg.SetJSON(false)

	lg.Info("back to pretty")
	assert.Equal(t, "back to pretty\n", buf.String())
}

func TestSplitChain(t *testing.T) {
	entries := logger.SplitChain(zerr.Wrap(
		zerr.With(zerr.Wrap(errors.New("root cause"), "middle"), "k", 1),
		"outer",
	))

	require.Len(t, entries, 3)
	assert.Equal(t, "outer", entries[0].Message)
	assert.Equal(t, "middle", entries[1].Message)
	assert.Equal(t, map[string]any{"k": 1}, entries[1].Metadata)
	assert.Equal(t, "root cause", entries[2].Message)
	assert.Nil(t, entries[2].Metadata)

	assert.Empty(t, logger.SplitChain(nil))
}

func TestSplitChain_MergesEmptyLinks(t *testing.T) {
	sentinel := zerr.New("unit not found")
	entries := logger.SplitChain(zerr.With(zerr.Wrap(sentinel, ""), "dir", "/p/lib/"))

	require.Len(t, entries, 1)
	assert.Equal(t, "unit not found", entries[0].Message)
	assert.Equal(t, map[string]any{"dir": "/p/lib/"}, entries[0].Metadata)

	entries = logger.SplitChain(zerr.With(errors.New("permission denied"), "path", "/x"))
	require.Len(t, entries, 1)
	assert.Equal(t, "permission denied", entries[0].Message)
	assert.Equal(t, map[string]any{"path": "/x"}, entries[0].Metadata)
}

func TestRenderChain(t *testing.T) {
	tests := []struct {
		name    string
		entries []logger.ErrorEntry
		want    string
	}{
		{
			name:    "single",
			entries: []logger.ErrorEntry{{Message: "single error"}},
			want:    "Error: single error",
		},
		{
			name:    "causes",
			entries: []logger.ErrorEntry{{Message: "first"}, {Message: "second"}, {Message: "third"}},
			want:    "Error: first\n\n  Caused by:\n    → second\n    → third",
		},
		{
			name: "sorted metadata",
			entries: []logger.ErrorEntry{{
				Message:  "rule mismatch",
				Metadata: map[string]any{"rule": "cc", "field": "description"},
			}},
			want: "Error: rule mismatch\n       field: description\n       rule: cc",
		},
		{
			name:    "multiline cause",
			entries: []logger.ErrorEntry{{Message: "main"}, {Message: "line1\nline2"}},
			want:    "Error: main\n\n  Caused by:\n    → line1\n      line2",
		},
		{
			name:    "empty",
			entries: nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.RenderChain(tt.entries))
		})
	}
}
