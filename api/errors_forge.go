package api

import (
	"errors"
	"net/http"

	"github.com/xraph/forge"

	"github.com/mahmoodhamdi/hookgate"
)

// mapError converts hookgate sentinel errors to Forge HTTP errors.
func mapError(err error) error {
	switch {
	case errors.Is(err, hookgate.ErrEventNotFound):
		return forge.NotFound(err.Error())
	case errors.Is(err, hookgate.ErrUnknownGateway):
		return forge.BadRequest(err.Error())
	case errors.Is(err, hookgate.ErrEmptyEventID):
		return forge.BadRequest(err.Error())
	case errors.Is(err, hookgate.ErrStoreClosed):
		return forge.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return forge.InternalError(err)
	}
}
