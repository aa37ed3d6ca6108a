// Package dispatch routes reserved webhook events to per-type handlers and
// closes each record out according to the handler's outcome.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mahmoodhamdi/hookgate"
	"github.com/mahmoodhamdi/hookgate/event"
	"github.com/mahmoodhamdi/hookgate/gateway"
)

// ReasonUnhandled is the skip reason recorded when no route matches.
const ReasonUnhandled = "unhandled event type"

// ErrPayloadInvalid wraps schema validation failures.
var ErrPayloadInvalid = errors.New("hookgate: payload failed schema validation")

// Handler performs the side effects of one event. The returned metadata is
// merged into the record when it is marked processed.
type Handler func(ctx context.Context, evt *event.Event) (map[string]any, error)

// Route binds a handler to a gateway and event type pattern.
type Route struct {
	// Gateway restricts the route to one gateway; empty matches all.
	Gateway gateway.Gateway
	Pattern string
	Schema  any
	Handler Handler
}

// RouteOption configures a Route.
type RouteOption func(*Route)

// WithSchema validates payloads against a JSON Schema before the handler runs.
func WithSchema(schema any) RouteOption {
	return func(r *Route) { r.Schema = schema }
}

// Gate is the part of *hookgate.Gate the router drives.
type Gate interface {
	CheckAndReserve(ctx context.Context, gw gateway.Gateway, eventID, eventType string, payload any) hookgate.Result
	MarkProcessed(ctx context.Context, gw gateway.Gateway, eventID string, metadata map[string]any)
	MarkFailed(ctx context.Context, gw gateway.Gateway, eventID, errMsg string)
	MarkSkipped(ctx context.Context, gw gateway.Gateway, eventID, reason string)
}

var _ Gate = (*hookgate.Gate)(nil)

// Outcome reports what Process did with one callback.
type Outcome struct {
	// Result is the gate decision.
	Result hookgate.Result

	// Status is the terminal status recorded for a new event. Empty for
	// duplicates and gate errors.
	Status event.Status

	// Err is the validation or handler error behind a failed status.
	Err error
}

// Router holds the registered routes. It is safe for concurrent use.
type Router struct {
	mu        sync.RWMutex
	routes    []Route
	validator *Validator
	logger    *slog.Logger
}

// NewRouter creates an empty router.
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		validator: NewValidator(),
		logger:    logger,
	}
}

// Handle registers h for events of gw (empty for any gateway) whose type
// matches pattern.
func (r *Router) Handle(gw gateway.Gateway, pattern string, h Handler, opts ...RouteOption) {
	route := Route{Gateway: gw, Pattern: pattern, Handler: h}
	for _, opt := range opts {
		opt(&route)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

// Route returns the most specific route for (gw, eventType). Exact patterns
// beat wildcards, gateway-bound routes beat unbound ones, and among equals
// the first registered wins.
func (r *Router) Route(gw gateway.Gateway, eventType string) (Route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	best, bestScore := -1, -1
	for i, rt := range r.routes {
		if rt.Gateway != "" && rt.Gateway != gw {
			continue
		}
		if !Match(rt.Pattern, eventType) {
			continue
		}
		score := specificity(rt.Pattern) * 2
		if rt.Gateway != "" {
			score++
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return Route{}, false
	}
	return r.routes[best], true
}

// Process runs one callback through the gate and, when it is new, through
// its route:
//
//   - duplicate or gate error: returned as is, nothing else happens
//   - no route: marked skipped with ReasonUnhandled
//   - schema or handler failure: marked failed with the error message
//   - success: marked processed with the handler's metadata
func (r *Router) Process(ctx context.Context, g Gate, cb *gateway.Callback) Outcome {
	payload := payloadOf(cb)
	res := g.CheckAndReserve(ctx, cb.Gateway, cb.EventID, cb.EventType, payload)
	if res.Status != hookgate.StatusNew {
		return Outcome{Result: res}
	}

	route, ok := r.Route(cb.Gateway, cb.EventType)
	if !ok {
		g.MarkSkipped(ctx, cb.Gateway, cb.EventID, ReasonUnhandled)
		return Outcome{Result: res, Status: event.StatusSkipped}
	}

	if err := r.validator.Validate(route.Schema, payload); err != nil {
		err = fmt.Errorf("%w: %v", ErrPayloadInvalid, err)
		g.MarkFailed(ctx, cb.Gateway, cb.EventID, err.Error())
		return Outcome{Result: res, Status: event.StatusFailed, Err: err}
	}

	metadata, err := r.run(ctx, route.Handler, res.Event)
	if err != nil {
		r.logger.WarnContext(ctx, "webhook handler failed",
			"gateway", string(cb.Gateway),
			"event_id", cb.EventID,
			"event_type", cb.EventType,
			"error", err.Error(),
		)
		g.MarkFailed(ctx, cb.Gateway, cb.EventID, err.Error())
		return Outcome{Result: res, Status: event.StatusFailed, Err: err}
	}

	g.MarkProcessed(ctx, cb.Gateway, cb.EventID, metadata)
	return Outcome{Result: res, Status: event.StatusProcessed}
}

// run calls h, turning a panic into an error so the record is closed out.
func (r *Router) run(ctx context.Context, h Handler, evt *event.Event) (metadata map[string]any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return h(ctx, evt)
}

// payloadOf keeps a nil payload map a nil interface, so stores record no
// payload rather than a typed nil.
func payloadOf(cb *gateway.Callback) any {
	if cb.Payload == nil {
		return nil
	}
	return cb.Payload
}
