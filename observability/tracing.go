package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer provides OpenTelemetry tracing for the gate.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer on the global tracer provider.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(instrumentationName),
	}
}

// NewTracerWith creates a tracer from provider.
func NewTracerWith(provider trace.TracerProvider) *Tracer {
	return &Tracer{
		tracer: provider.Tracer(instrumentationName),
	}
}

// StartGateSpan starts the span for one CheckAndReserve call.
func (t *Tracer) StartGateSpan(ctx context.Context, gateway, eventID, eventType string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "hookgate.gate",
		trace.WithAttributes(
			attribute.String("hookgate.gateway", gateway),
			attribute.String("hookgate.event_id", eventID),
			attribute.String("hookgate.event_type", eventType),
		),
	)
}

// StartTransitionSpan starts the span for one status transition.
func (t *Tracer) StartTransitionSpan(ctx context.Context, gateway, eventID, status string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "hookgate.transition",
		trace.WithAttributes(
			attribute.String("hookgate.gateway", gateway),
			attribute.String("hookgate.event_id", eventID),
			attribute.String("hookgate.status", status),
		),
	)
}

// EndSpan ends span with the outcome attribute and, when errMsg is set,
// an error status.
func (t *Tracer) EndSpan(span trace.Span, outcome, errMsg string) {
	span.SetAttributes(attribute.String("hookgate.outcome", outcome))
	if errMsg != "" {
		span.SetStatus(codes.Error, errMsg)
		span.SetAttributes(attribute.String("hookgate.error", errMsg))
	}
	span.End()
}
