// Package store defines the composite Store interface for hookgate persistence.
//
// Backends live in subpackages: memory, mongo, postgres, sqlite, redis and
// gormstore. Every backend enforces the (gateway, event id) uniqueness
// constraint in storage, never by read-then-write.
package store

import (
	"context"

	"github.com/mahmoodhamdi/hookgate/event"
)

// Store is the aggregate persistence interface.
type Store interface {
	event.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}

// TableName is the table or collection every backend stores events in.
const TableName = "hookgate_webhook_events"
