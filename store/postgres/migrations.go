package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the hookgate store.
// It can be registered with the grove extension for orchestrated migration
// management (locking, version tracking, rollback support).
var Migrations = migrate.NewGroup("hookgate")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_hookgate_webhook_events",
			Version: "20260101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS hookgate_webhook_events (
    id           TEXT PRIMARY KEY,
    gateway      TEXT NOT NULL,
    event_id     TEXT NOT NULL,
    event_type   TEXT NOT NULL DEFAULT '',
    payload      JSONB,
    status       TEXT NOT NULL DEFAULT 'processing',
    processed_at TIMESTAMPTZ,
    error        TEXT NOT NULL DEFAULT '',
    metadata     JSONB,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT uq_hookgate_webhook_events_gateway_event UNIQUE (gateway, event_id)
);

CREATE INDEX IF NOT EXISTS idx_hookgate_webhook_events_created ON hookgate_webhook_events (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_hookgate_webhook_events_gateway_created ON hookgate_webhook_events (gateway, created_at DESC);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS hookgate_webhook_events`)
				return err
			},
		},
	)
}
