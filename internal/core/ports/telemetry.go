package ports

import (
	"context"
	"time"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string) (context.Context, Span)
}

// Span represents one phase of a run.
type Span interface {
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}

// PhaseResult describes a finished compilation phase.
type PhaseResult struct {
	ID  string
	End time.Time
	// Counts holds the integer attributes of the phase, such as units or rules.
	Counts map[string]int64
	// Err is set when the phase failed.
	Err error
}

// PhaseReporter receives compilation phase events.
type PhaseReporter interface {
	OnPhaseStart(id, parentID, name string, start time.Time)
	OnPhaseComplete(result PhaseResult)
}
