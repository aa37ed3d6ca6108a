package event

import (
	"context"

	"github.com/mahmoodhamdi/hookgate/gateway"
)

// Store defines the persistence contract for webhook events.
type Store interface {
	// FindEvent returns the record for (gw, eventID), or
	// hookgate.ErrEventNotFound.
	FindEvent(ctx context.Context, gw gateway.Gateway, eventID string) (*Event, error)

	// InsertEvent persists a new record. It must be an atomic unique insert
	// on (gateway, event id) and return hookgate.ErrDuplicateEvent when the
	// constraint rejects it.
	InsertEvent(ctx context.Context, evt *Event) error

	// UpdateStatus applies t to the record for (gw, eventID), or returns
	// hookgate.ErrEventNotFound when nothing matched.
	UpdateStatus(ctx context.Context, gw gateway.Gateway, eventID string, t Transition) error

	// ListRecent returns records newest first, capped at opts.Limit.
	ListRecent(ctx context.Context, opts ListOpts) ([]*Event, error)

	// CountByStatus groups the records selected by f by status. Only
	// observed statuses are present.
	CountByStatus(ctx context.Context, f StatsFilter) (map[Status]int64, error)

	// CountByType groups the records selected by f by event type.
	CountByType(ctx context.Context, f StatsFilter) (map[string]int64, error)
}
