package api

import (
	"errors"
	"net/http"

	"github.com/mahmoodhamdi/hookgate"
	"github.com/mahmoodhamdi/hookgate/dispatch"
)

// statusFor maps hookgate sentinel errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, hookgate.ErrEventNotFound):
		return http.StatusNotFound
	case errors.Is(err, hookgate.ErrUnknownGateway),
		errors.Is(err, hookgate.ErrEmptyEventID),
		errors.Is(err, hookgate.ErrInvalidSignature),
		errors.Is(err, dispatch.ErrPayloadInvalid):
		return http.StatusBadRequest
	case errors.Is(err, hookgate.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, hookgate.ErrStoreClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}
