package hookgate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mahmoodhamdi/hookgate/event"
	"github.com/mahmoodhamdi/hookgate/gateway"
	"github.com/mahmoodhamdi/hookgate/id"
	"github.com/mahmoodhamdi/hookgate/internal/entity"
	"github.com/mahmoodhamdi/hookgate/store"
)

// ResultStatus is the outcome of CheckAndReserve.
type ResultStatus string

// Gate outcomes.
const (
	StatusNew       ResultStatus = "new"
	StatusDuplicate ResultStatus = "duplicate"
	StatusError     ResultStatus = "error"
)

// Result is returned by CheckAndReserve. Callers branch on Status; errors
// are reported here rather than returned.
type Result struct {
	IsNew  bool         `json:"is_new"`
	Status ResultStatus `json:"status"`

	// Event is the reserved record for StatusNew and the existing record
	// for a sequential duplicate. It is nil when the duplicate was detected
	// by the insert losing a race, and for StatusError.
	Event *event.Event `json:"event,omitempty"`

	Error string `json:"error,omitempty"`
}

// CheckAndReserve decides whether (gw, eventID) is observed for the first
// time. A first observation is persisted in the processing state and
// reported as StatusNew; any later observation is StatusDuplicate and
// writes nothing.
//
// Across any number of concurrent callers presenting the same pair, at
// most one receives StatusNew. The store's uniqueness constraint enforces
// this: an insert rejected with ErrDuplicateEvent is folded into the
// duplicate path. Other storage failures yield StatusError so the caller
// can ask the gateway to redeliver.
//
// Every call emits exactly one log record.
func (g *Gate) CheckAndReserve(ctx context.Context, gw gateway.Gateway, eventID, eventType string, payload any) Result {
	ctx, span := g.tracer.StartGateSpan(ctx, string(gw), eventID, eventType)
	res := g.checkAndReserve(ctx, gw, eventID, eventType, payload)
	g.tracer.EndSpan(span, string(res.Status), res.Error)
	g.metrics.RecordGateResult(ctx, string(gw), string(res.Status))
	return res
}

func (g *Gate) checkAndReserve(ctx context.Context, gw gateway.Gateway, eventID, eventType string, payload any) Result {
	log := g.logger.With(
		"gateway", string(gw),
		"event_id", eventID,
		"event_type", eventType,
	)

	if err := validate(gw, eventID); err != nil {
		log.ErrorContext(ctx, "webhook event rejected", "error", err.Error())
		return errorResult(err)
	}

	existing, err := g.findEvent(ctx, gw, eventID)
	switch {
	case err == nil:
		log.InfoContext(ctx, "duplicate webhook event",
			"original_status", string(existing.Status),
			"processed_at", existing.ProcessedAt,
		)
		return Result{Status: StatusDuplicate, Event: existing}
	case !errors.Is(err, ErrEventNotFound):
		log.ErrorContext(ctx, "webhook event lookup failed", "error", err.Error())
		return errorResult(err)
	}

	now := g.now().UTC()
	evt := &event.Event{
		Entity:      entity.At(now),
		ID:          id.NewWebhookEventID(),
		Gateway:     gw,
		EventID:     eventID,
		EventType:   eventType,
		Payload:     payload,
		Status:      event.StatusProcessing,
		ProcessedAt: &now,
	}

	start := time.Now()
	err = g.store.InsertEvent(ctx, evt)
	g.metrics.RecordStoreOp(ctx, "insert", time.Since(start), ignoreDuplicate(err))
	switch {
	case err == nil:
		log.InfoContext(ctx, "processing new webhook event", "id", evt.ID.String())
		return Result{IsNew: true, Status: StatusNew, Event: evt}
	case errors.Is(err, ErrDuplicateEvent):
		log.InfoContext(ctx, "duplicate webhook event", "race", true)
		return Result{Status: StatusDuplicate}
	default:
		log.ErrorContext(ctx, "webhook event insert failed", "error", err.Error())
		return errorResult(err)
	}
}

// findEvent wraps Store.FindEvent with latency metrics. A miss is not
// counted as a store error.
func (g *Gate) findEvent(ctx context.Context, gw gateway.Gateway, eventID string) (*event.Event, error) {
	start := time.Now()
	e, err := g.store.FindEvent(ctx, gw, eventID)
	recErr := err
	if errors.Is(err, ErrEventNotFound) {
		recErr = nil
	}
	g.metrics.RecordStoreOp(ctx, "find", time.Since(start), recErr)
	return e, err
}

func validate(gw gateway.Gateway, eventID string) error {
	if !gw.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownGateway, string(gw))
	}
	if eventID == "" {
		return ErrEmptyEventID
	}
	return nil
}

func ignoreDuplicate(err error) error {
	if errors.Is(err, ErrDuplicateEvent) {
		return nil
	}
	return err
}

func errorResult(err error) Result {
	return Result{Status: StatusError, Error: err.Error()}
}

// Store returns the underlying store.
func (g *Gate) Store() store.Store {
	return g.store
}
