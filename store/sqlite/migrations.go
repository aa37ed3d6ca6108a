package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the hookgate store (SQLite).
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
    payload      TEXT NOT NULL DEFAULT '',
    status       TEXT NOT NULL DEFAULT 'processing',
    processed_at DATETIME,
    error        TEXT NOT NULL DEFAULT '',
    metadata     TEXT NOT NULL DEFAULT '',
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (gateway, event_id)
);

CREATE INDEX IF NOT EXISTS idx_hookgate_webhook_events_created ON hookgate_webhook_events (created_at);
CREATE INDEX IF NOT EXISTS idx_hookgate_webhook_events_gateway_created ON hookgate_webhook_events (gateway, created_at);
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
