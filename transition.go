package hookgate

import (
	"context"
	"time"

	"github.com/mahmoodhamdi/hookgate/event"
	"github.com/mahmoodhamdi/hookgate/gateway"
)

// The Mark* methods close out a record reserved by CheckAndReserve. They
// are fire-and-forget: none returns an error. A missing record or a storage
// failure is logged at error level and otherwise ignored, so callers cannot
// tell success from failure without inspecting logs. No status precondition
// is checked; marking an already terminal record overwrites it.

// MarkProcessed moves the record to processed, refreshes processedAt and
// merges metadata into the stored metadata.
func (g *Gate) MarkProcessed(ctx context.Context, gw gateway.Gateway, eventID string, metadata map[string]any) {
	now := g.now().UTC()
	g.transition(ctx, gw, eventID, event.Transition{
		Status:      event.StatusProcessed,
		ProcessedAt: &now,
		Metadata:    metadata,
		At:          now,
	})
}

// MarkFailed moves the record to failed and records errMsg.
func (g *Gate) MarkFailed(ctx context.Context, gw gateway.Gateway, eventID, errMsg string) {
	g.transition(ctx, gw, eventID, event.Transition{
		Status: event.StatusFailed,
		Error:  &errMsg,
		At:     g.now().UTC(),
	})
}

// MarkSkipped moves the record to skipped. A non-empty reason is recorded
// as the record's error.
func (g *Gate) MarkSkipped(ctx context.Context, gw gateway.Gateway, eventID, reason string) {
	t := event.Transition{
		Status: event.StatusSkipped,
		At:     g.now().UTC(),
	}
	if reason != "" {
		t.Error = &reason
	}
	g.transition(ctx, gw, eventID, t)
}

func (g *Gate) transition(ctx context.Context, gw gateway.Gateway, eventID string, t event.Transition) {
	ctx, span := g.tracer.StartTransitionSpan(ctx, string(gw), eventID, string(t.Status))

	start := time.Now()
	err := g.store.UpdateStatus(ctx, gw, eventID, t)
	g.metrics.RecordStoreOp(ctx, "update", time.Since(start), err)
	g.metrics.RecordTransition(ctx, string(gw), string(t.Status), err)

	if err != nil {
		g.logger.ErrorContext(ctx, "webhook event status update failed",
			"gateway", string(gw),
			"event_id", eventID,
			"status", string(t.Status),
			"error", err.Error(),
		)
		g.tracer.EndSpan(span, "error", err.Error())
		return
	}

	g.logger.DebugContext(ctx, "webhook event status updated",
		"gateway", string(gw),
		"event_id", eventID,
		"status", string(t.Status),
	)
	g.tracer.EndSpan(span, string(t.Status), "")
}
