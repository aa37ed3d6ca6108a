package api

import (
	"net/http"
)

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	gw, err := gatewayParam(r.URL.Query().Get("gateway"))
	if err != nil {
		writeErr(w, err)
		return
	}

	stats, err := h.gate.EventStats(r.Context(), gw, queryInt(r, "hours", 0))
	if err != nil {
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

type healthResponse struct {
	Status string `json:"status"`
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
