package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/neja/internal/core/ports"
)

// errPhaseFailed stands in for a failed phase that recorded no description.
var errPhaseFailed = errors.New("phase failed")

// Bridge is an sdktrace.SpanProcessor that turns the spans of InstrumentationName into
// compilation phase events. Spans from other tracers are ignored.
type Bridge struct {
	reporter ports.PhaseReporter
}

// NewBridge returns a Bridge reporting to reporter. A nil reporter drops every phase.
func NewBridge(reporter ports.PhaseReporter) *Bridge {
	return &Bridge{reporter: reporter}
}

// OnStart reports the start of a phase together with its enclosing phase.
func (b *Bridge) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	id, ok := b.phaseID(s)
	if !ok {
		return
	}
	var parentID string
	if sc := trace.SpanContextFromContext(parent); sc.IsValid() {
		parentID = sc.SpanID().String()
	}
	b.reporter.OnPhaseStart(id, parentID, s.Name(), s.StartTime())
}

// OnEnd reports the outcome of a phase and the counts attached to it.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	id, ok := b.phaseID(s)
	if !ok {
		return
	}
	b.reporter.OnPhaseComplete(ports.PhaseResult{
		ID:     id,
		End:    s.EndTime(),
		Counts: phaseCounts(s.Attributes()),
		Err:    phaseErr(s.Status()),
	})
}

func (b *Bridge) phaseID(s sdktrace.ReadOnlySpan) (string, bool) {
	if b.reporter == nil || s.InstrumentationScope().Name != InstrumentationName {
		return "", false
	}
	sc := s.SpanContext()
	if !sc.IsValid() {
		return "", false
	}
	return sc.SpanID().String(), true
}

func phaseCounts(attrs []attribute.KeyValue) map[string]int64 {
	var counts map[string]int64
	for _, kv := range attrs {
		if kv.Value.Type() != attribute.INT64 {
			continue
		}
		if counts == nil {
			counts = make(map[string]int64)
		}
		counts[string(kv.Key)] = kv.Value.AsInt64()
	}
	return counts
}

func phaseErr(status sdktrace.Status) error {
	if status.Code != codes.Error {
		return nil
	}
	if status.Description == "" {
		return errPhaseFailed
	}
	return errors.New(status.Description)
}

// ForceFlush is a no-op; phases are reported synchronously.
func (b *Bridge) ForceFlush(context.Context) error { return nil }

// Shutdown is a no-op.
func (b *Bridge) Shutdown(context.Context) error { return nil }
