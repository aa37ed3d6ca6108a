package observability

import (
	"context"
	"time"
)

// NoopMetrics discards every measurement.
type NoopMetrics struct{}

// RecordGateResult implements Recorder.
func (NoopMetrics) RecordGateResult(context.Context, string, string) {}

// RecordTransition implements Recorder.
func (NoopMetrics) RecordTransition(context.Context, string, string, error) {}

// RecordStoreOp implements Recorder.
func (NoopMetrics) RecordStoreOp(context.Context, string, time.Duration, error) {}
