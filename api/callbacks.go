package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mahmoodhamdi/hookgate"
	"github.com/mahmoodhamdi/hookgate/gateway"
)

// CallbackResponse is returned to the payment gateway.
type CallbackResponse struct {
	Received bool   `json:"received"`
	Status   string `json:"status"`
	EventID  string `json:"event_id,omitempty"`
}

// receiveCallback verifies a gateway callback and runs it through the
// router. Anything other than a gate error is acknowledged with 200 so the
// gateway stops redelivering; a gate error returns 500 so it retries.
func (h *Handler) receiveCallback(w http.ResponseWriter, r *http.Request) {
	gw, err := gateway.Parse(r.PathValue("gateway"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	parser, ok := h.registry.Lookup(gw)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("gateway %q is not configured", gw))
		return
	}

	if !h.limiter.Allow(string(gw), h.rateLimit) {
		writeErr(w, hookgate.ErrRateLimited)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "read request body")
		return
	}

	cb, err := parser.Parse(r, body)
	if err != nil {
		h.logger.WarnContext(r.Context(), "webhook callback rejected",
			"gateway", string(gw),
			"error", err.Error(),
			"request_id", RequestID(r.Context()),
		)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out := h.router.Process(r.Context(), h.gate, cb)
	if out.Result.Status == hookgate.StatusError {
		writeError(w, http.StatusInternalServerError, out.Result.Error)
		return
	}

	status := string(out.Result.Status)
	if out.Status != "" {
		status = string(out.Status)
	}
	writeJSON(w, http.StatusOK, CallbackResponse{
		Received: true,
		Status:   status,
		EventID:  cb.EventID,
	})
}
