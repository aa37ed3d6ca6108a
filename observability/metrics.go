// Package observability records hookgate metrics and spans with OpenTelemetry.
package observability

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/mahmoodhamdi/hookgate"

// Recorder records gate and transition outcomes.
// Use NewMetrics() for OTel metrics or NoopMetrics{} when disabled.
type Recorder interface {
	// RecordGateResult counts one CheckAndReserve outcome (new, duplicate, error).
	RecordGateResult(ctx context.Context, gateway, result string)

	// RecordTransition counts one status transition attempt.
	RecordTransition(ctx context.Context, gateway, status string, err error)

	// RecordStoreOp records the latency of a store call.
	RecordStoreOp(ctx context.Context, op string, duration time.Duration, err error)
}

// Metrics implements Recorder using OpenTelemetry instruments.
type Metrics struct {
	gateResults      metric.Int64Counter
	transitions      metric.Int64Counter
	transitionErrors metric.Int64Counter
	storeLatency     metric.Float64Histogram
	storeErrors      metric.Int64Counter
}

// NewMetrics creates instruments on the global meter provider. Configure the
// provider with otel.SetMeterProvider before calling it.
func NewMetrics() (*Metrics, error) {
	return NewMetricsWith(otel.Meter(instrumentationName))
}

// NewMetricsWith creates instruments on meter.
func NewMetricsWith(meter metric.Meter) (*Metrics, error) {
	gateResults, err := meter.Int64Counter("hookgate.gate.results",
		metric.WithDescription("Idempotency gate outcomes by gateway and result"),
	)
	if err != nil {
		return nil, err
	}

	transitions, err := meter.Int64Counter("hookgate.transitions",
		metric.WithDescription("Status transitions by gateway and target status"),
	)
	if err != nil {
		return nil, err
	}

	transitionErrors, err := meter.Int64Counter("hookgate.transition.errors",
		metric.WithDescription("Status transitions that failed or matched no record"),
	)
	if err != nil {
		return nil, err
	}

	storeLatency, err := meter.Float64Histogram("hookgate.store.latency_ms",
		metric.WithDescription("Event store call latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	storeErrors, err := meter.Int64Counter("hookgate.store.errors",
		metric.WithDescription("Event store calls that returned an error"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gateResults:      gateResults,
		transitions:      transitions,
		transitionErrors: transitionErrors,
		storeLatency:     storeLatency,
		storeErrors:      storeErrors,
	}, nil
}

// NewRecorder returns OTel metrics, or NoopMetrics if the instruments
// cannot be created.
func NewRecorder() Recorder {
	m, err := NewMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordGateResult implements Recorder.
func (m *Metrics) RecordGateResult(ctx context.Context, gateway, result string) {
	m.gateResults.Add(ctx, 1, metric.WithAttributes(
		attribute.String("gateway", gateway),
		attribute.String("result", result),
	))
}

// RecordTransition implements Recorder.
func (m *Metrics) RecordTransition(ctx context.Context, gateway, status string, err error) {
	attrs := metric.WithAttributes(
		attribute.String("gateway", gateway),
		attribute.String("status", status),
	)
	m.transitions.Add(ctx, 1, attrs)
	if err != nil {
		m.transitionErrors.Add(ctx, 1, attrs)
	}
}

// RecordStoreOp implements Recorder.
func (m *Metrics) RecordStoreOp(ctx context.Context, op string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("op", op))
	m.storeLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		m.storeErrors.Add(ctx, 1, attrs)
	}
}
