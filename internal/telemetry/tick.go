// Package telemetry wraps per-tick tracing: a span per unit of work,
// events for notable state transitions, and RecordError/SetStatus on
// failure.
package telemetry

import (
	"context"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TickSpan wraps the span covering one simulated tick.
type TickSpan struct {
	span trace.Span
}

// StartTick starts a span named "tick.N" on tracer. tracer may be nil, in
// which case every operation is a no-op (TickSpan is still safe to call
// Event/End on).
func StartTick(ctx context.Context, tracer trace.Tracer, tick int) (context.Context, *TickSpan) {
	if tracer == nil {
		return ctx, &TickSpan{}
	}
	spanCtx, span := tracer.Start(ctx, "tick."+strconv.Itoa(tick),
		trace.WithAttributes(attribute.Int("faultsim.tick", tick)))
	return spanCtx, &TickSpan{span: span}
}

// Event records a named event on the tick's span, if tracing is active.
func (t *TickSpan) Event(name string, attrs ...attribute.KeyValue) {
	if t == nil || t.span == nil {
		return
	}
	t.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// End closes the span, recording err if non-nil.
func (t *TickSpan) End(err error) {
	if t == nil || t.span == nil {
		return
	}
	if err != nil {
		t.span.RecordError(err)
		t.span.SetStatus(codes.Error, fmt.Sprint(err))
	}
	t.span.End()
}
