package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/neja/internal/adapters/telemetry"
	"go.trai.ch/neja/internal/core/ports"
	"go.trai.ch/neja/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestOTelTracer_RecordsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tracer := telemetry.NewOTelTracer(sr)
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })

	ctx, root := tracer.Start(context.Background(), "generate")
	_, child := tracer.Start(ctx, "resolve")
	child.SetAttribute("rules", 3)
	child.SetAttribute("units", []string{"neja.yaml"})
	child.SetAttribute("generator", true)
	child.SetAttribute("ratio", 0.5)
	child.SetAttribute("other", time.Second)
	child.RecordError(errors.New("rule mismatch"))
	child.End()
	root.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)

	resolve := spans[0]
	assert.Equal(t, "resolve", resolve.Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), resolve.Parent().SpanID())
	assert.Equal(t, codes.Error, resolve.Status().Code)
	assert.Equal(t, "rule mismatch", resolve.Status().Description)
	assert.Contains(t, resolve.Attributes(), attribute.Int("rules", 3))
	assert.Contains(t, resolve.Attributes(), attribute.StringSlice("units", []string{"neja.yaml"}))
	assert.Contains(t, resolve.Attributes(), attribute.Bool("generator", true))
	assert.Contains(t, resolve.Attributes(), attribute.Float64("ratio", 0.5))
	assert.Contains(t, resolve.Attributes(), attribute.String("other", "1s"))
}

func TestBridge_ForwardsPhases(t *testing.T) {
	ctrl := gomock.NewController(t)
	reporter := mocks.NewMockPhaseReporter(ctrl)

	var rootID string
	gomock.InOrder(
		reporter.EXPECT().OnPhaseStart(gomock.Any(), "", "generate", gomock.Any()).
			Do(func(id, _, _ string, _ time.Time) { rootID = id }),
		reporter.EXPECT().OnPhaseStart(gomock.Any(), gomock.Any(), "drain", gomock.Any()).
			Do(func(_, parentID, _ string, _ time.Time) { assert.Equal(t, rootID, parentID) }),
		reporter.EXPECT().OnPhaseComplete(gomock.Any()).Do(func(r ports.PhaseResult) {
			require.Error(t, r.Err)
			assert.Equal(t, "import cycle", r.Err.Error())
			assert.Nil(t, r.Counts)
		}),
		reporter.EXPECT().OnPhaseComplete(gomock.Any()).Do(func(r ports.PhaseResult) {
			assert.Equal(t, rootID, r.ID)
			assert.NoError(t, r.Err)
			assert.Equal(t, map[string]int64{"rules": 2, "units": 1}, r.Counts)
		}),
	)

	tracer := telemetry.NewOTelTracer(telemetry.NewBridge(reporter))
	ctx, root := tracer.Start(context.Background(), "generate")
	_, drain := tracer.Start(ctx, "drain")
	drain.RecordError(errors.New("import cycle"))
	drain.End()
	root.SetAttribute("units", 1)
	root.SetAttribute("rules", 2)
	root.SetAttribute("output", "/b/build.ninja")
	root.End()
}

func TestBridge_IgnoresForeignSpans(t *testing.T) {
	ctrl := gomock.NewController(t)
	reporter := mocks.NewMockPhaseReporter(ctrl)

	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(telemetry.NewBridge(reporter)))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	_, span := provider.Tracer("other").Start(context.Background(), "http")
	span.End()
}

func TestBridge_NilReporter(t *testing.T) {
	tracer := telemetry.NewOTelTracer(telemetry.NewBridge(nil))
	_, span := tracer.Start(context.Background(), "load")
	span.End()
	require.NoError(t, tracer.Shutdown(context.Background()))
}

func TestPhaseLog(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	gomock.InOrder(
		log.EXPECT().Debug("  drain done in 2ms"),
		log.EXPECT().Debug("generate failed in 5ms (rules=3 units=2)"),
	)

	p := telemetry.NewPhaseLog(log)
	p.OnPhaseStart("a", "", "generate", start)
	p.OnPhaseStart("b", "a", "drain", start)
	p.OnPhaseComplete(ports.PhaseResult{ID: "b", End: start.Add(2 * time.Millisecond)})
	p.OnPhaseComplete(ports.PhaseResult{
		ID:     "a",
		End:    start.Add(5 * time.Millisecond),
		Counts: map[string]int64{"units": 2, "rules": 3},
		Err:    errors.New("boom"),
	})
	p.OnPhaseComplete(ports.PhaseResult{ID: "unknown", End: start})
}
