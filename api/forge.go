package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/mahmoodhamdi/hookgate"
	"github.com/mahmoodhamdi/hookgate/event"
	"github.com/mahmoodhamdi/hookgate/gateway"
)

// ForgeAPI registers the read-only event routes on a Forge router with
// OpenAPI metadata. Callback ingestion stays on Handler, which needs the
// raw request body for signature checks.
type ForgeAPI struct {
	gate *hookgate.Gate
	log  forge.Logger
}

// NewForgeAPI creates a ForgeAPI over a gate.
func NewForgeAPI(g *hookgate.Gate, log forge.Logger) *ForgeAPI {
	return &ForgeAPI{gate: g, log: log}
}

// RegisterRoutes registers all hookgate query routes into the given Forge
// router.
func (a *ForgeAPI) RegisterRoutes(router forge.Router) {
	a.registerEventRoutes(router)
	a.registerHealthRoutes(router)
}

// ---------------------------------------------------------------------------
// Event routes
// ---------------------------------------------------------------------------

func (a *ForgeAPI) registerEventRoutes(router forge.Router) {
	g := router.Group("", forge.WithGroupTags("events"))

	if err := g.GET("/events", a.listEvents,
		forge.WithSummary("List recent webhook events"),
		forge.WithDescription("Returns the newest webhook event records, optionally for one gateway."),
		forge.WithOperationID("listWebhookEvents"),
		forge.WithRequestSchema(ListEventsForgeRequest{}),
		forge.WithListResponse(event.Event{}, http.StatusOK),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register listWebhookEvents route", forge.Error(err))
	}

	if err := g.GET("/events/stats", a.getStats,
		forge.WithSummary("Webhook event statistics"),
		forge.WithDescription("Counts records created in a trailing window by status and by event type."),
		forge.WithOperationID("getWebhookEventStats"),
		forge.WithRequestSchema(StatsForgeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Event statistics", event.Stats{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register getWebhookEventStats route", forge.Error(err))
	}

	if err := g.GET("/events/:gateway/:eventId", a.getEvent,
		forge.WithSummary("Get webhook event"),
		forge.WithDescription("Returns the record for one gateway event id."),
		forge.WithOperationID("getWebhookEvent"),
		forge.WithResponseSchema(http.StatusOK, "Event details", event.Event{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register getWebhookEvent route", forge.Error(err))
	}
}

func (a *ForgeAPI) listEvents(ctx forge.Context, req *ListEventsForgeRequest) ([]*event.Event, error) {
	gw, err := gatewayParam(req.Gateway)
	if err != nil {
		return nil, mapError(err)
	}

	events, err := a.gate.RecentEvents(ctx.Context(), gw, req.Limit)
	if err != nil {
		return nil, mapError(err)
	}

	return events, nil
}

func (a *ForgeAPI) getStats(ctx forge.Context, req *StatsForgeRequest) (*event.Stats, error) {
	gw, err := gatewayParam(req.Gateway)
	if err != nil {
		return nil, mapError(err)
	}

	stats, err := a.gate.EventStats(ctx.Context(), gw, req.Hours)
	if err != nil {
		return nil, mapError(err)
	}

	return stats, nil
}

func (a *ForgeAPI) getEvent(ctx forge.Context, req *GetEventForgeRequest) (*event.Event, error) {
	gw, err := gateway.Parse(req.Gateway)
	if err != nil {
		return nil, forge.BadRequest(err.Error())
	}

	evt, err := a.gate.FindEvent(ctx.Context(), gw, req.EventID)
	if err != nil {
		return nil, mapError(err)
	}

	return evt, nil
}

// ---------------------------------------------------------------------------
// Health routes
// ---------------------------------------------------------------------------

func (a *ForgeAPI) registerHealthRoutes(router forge.Router) {
	g := router.Group("", forge.WithGroupTags("health"))

	if err := g.GET("/healthz", a.healthz,
		forge.WithSummary("Store health"),
		forge.WithDescription("Pings the event store."),
		forge.WithOperationID("hookgateHealth"),
		forge.WithResponseSchema(http.StatusOK, "Store reachable", HealthForgeResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register hookgateHealth route", forge.Error(err))
	}
}

func (a *ForgeAPI) healthz(ctx forge.Context, _ *HealthForgeRequest) (*HealthForgeResponse, error) {
	if err := a.gate.Ping(ctx.Context()); err != nil {
		return nil, mapError(err)
	}
	return &HealthForgeResponse{Status: "ok"}, nil
}
