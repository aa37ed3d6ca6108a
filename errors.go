package hookgate

import (
	"errors"

	"github.com/mahmoodhamdi/hookgate/gateway"
	"github.com/mahmoodhamdi/hookgate/signature"
)

// Sentinel errors returned by hookgate operations and store backends.
var (
	// ErrNoStore is returned when a Gate is created without a store.
	ErrNoStore = errors.New("hookgate: store is required")

	// ErrEventNotFound is returned when no record exists for a (gateway, event id) pair.
	ErrEventNotFound = errors.New("hookgate: webhook event not found")

	// ErrDuplicateEvent is returned by a store when the (gateway, event id)
	// uniqueness constraint rejects an insert.
	ErrDuplicateEvent = errors.New("hookgate: duplicate webhook event")

	// ErrUnknownGateway is returned for a gateway outside the supported set.
	ErrUnknownGateway = gateway.ErrUnknownGateway

	// ErrEmptyEventID is returned when an event id is empty.
	ErrEmptyEventID = errors.New("hookgate: event id is required")

	// ErrStoreClosed is returned when a store operation is attempted after the store is closed.
	ErrStoreClosed = errors.New("hookgate: store is closed")

	// ErrMigrationFailed is returned when a database migration fails.
	ErrMigrationFailed = errors.New("hookgate: migration failed")

	// ErrInvalidSignature is returned when a callback fails signature verification.
	ErrInvalidSignature = signature.ErrInvalidSignature

	// ErrRateLimited is returned when a gateway exceeds its ingest rate.
	ErrRateLimited = errors.New("hookgate: rate limited")
)
