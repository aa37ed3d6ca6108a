package api

import (
	"net/http"

	"github.com/mahmoodhamdi/hookgate/gateway"
)

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	gw, err := gatewayParam(r.URL.Query().Get("gateway"))
	if err != nil {
		writeErr(w, err)
		return
	}

	events, err := h.gate.RecentEvents(r.Context(), gw, queryInt(r, "limit", 0))
	if err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) getEvent(w http.ResponseWriter, r *http.Request) {
	gw, err := gateway.Parse(r.PathValue("gateway"))
	if err != nil {
		writeErr(w, err)
		return
	}

	evt, err := h.gate.FindEvent(r.Context(), gw, r.PathValue("eventId"))
	if err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, evt)
}

// gatewayParam parses an optional gateway filter. Empty means all gateways.
func gatewayParam(raw string) (gateway.Gateway, error) {
	if raw == "" {
		return "", nil
	}
	return gateway.Parse(raw)
}
