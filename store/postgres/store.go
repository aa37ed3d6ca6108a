// Package postgres implements store.Store on PostgreSQL through Grove's pg
// driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/mahmoodhamdi/hookgate"
	"github.com/mahmoodhamdi/hookgate/event"
	"github.com/mahmoodhamdi/hookgate/gateway"
	hgstore "github.com/mahmoodhamdi/hookgate/store"
)

// compile-time interface check
var _ hgstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("hookgate/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: %w", hookgate.ErrMigrationFailed, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) FindEvent(ctx context.Context, gw gateway.Gateway, eventID string) (*event.Event, error) {
	m := new(eventModel)
	err := s.pg.NewSelect(m).
		Where("gateway = $1", string(gw)).
		Where("event_id = $2", eventID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, hookgate.ErrEventNotFound
		}
		return nil, fmt.Errorf("hookgate/postgres: find event: %w", err)
	}
	return fromEventModel(m)
}

// InsertEvent relies on the (gateway, event_id) constraint: a conflicting
// insert affects no rows.
func (s *Store) InsertEvent(ctx context.Context, evt *event.Event) error {
	m, err := toEventModel(evt)
	if err != nil {
		return fmt.Errorf("hookgate/postgres: insert event: %w", err)
	}

	res, err := s.pg.NewInsert(m).
		OnConflict("(gateway, event_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("hookgate/postgres: insert event: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("hookgate/postgres: insert event: %w", err)
	}
	if rows == 0 {
		return hookgate.ErrDuplicateEvent
	}
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, gw gateway.Gateway, eventID string, t event.Transition) error {
	sets, args, err := updateSets(t)
	if err != nil {
		return fmt.Errorf("hookgate/postgres: update status: %w", err)
	}

	q := s.pg.NewUpdate((*eventModel)(nil))
	for i, set := range sets {
		q = q.Set(set, args[i])
	}
	n := len(sets)
	res, err := q.
		Where(fmt.Sprintf("gateway = $%d", n+1), string(gw)).
		Where(fmt.Sprintf("event_id = $%d", n+2), eventID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("hookgate/postgres: update status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("hookgate/postgres: update status: %w", err)
	}
	if rows == 0 {
		return hookgate.ErrEventNotFound
	}
	return nil
}

// updateSets returns one SET clause per argument, numbered from $1.
// Metadata is merged with the jsonb concatenation operator.
func updateSets(t event.Transition) ([]string, []any, error) {
	sets := []string{"status = $1", "updated_at = $2"}
	args := []any{string(t.Status), t.At.UTC()}

	if t.ProcessedAt != nil {
		args = append(args, t.ProcessedAt.UTC())
		sets = append(sets, fmt.Sprintf("processed_at = $%d", len(args)))
	}
	if t.Error != nil {
		args = append(args, *t.Error)
		sets = append(sets, fmt.Sprintf("error = $%d", len(args)))
	}
	if len(t.Metadata) > 0 {
		raw, err := json.Marshal(t.Metadata)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal metadata: %w", err)
		}
		args = append(args, string(raw))
		sets = append(sets, fmt.Sprintf("metadata = COALESCE(metadata, '{}'::jsonb) || $%d::jsonb", len(args)))
	}
	return sets, args, nil
}

func (s *Store) ListRecent(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	var models []eventModel
	q := s.pg.NewSelect(&models)

	if opts.Gateway != "" {
		q = q.Where("gateway = $1", string(opts.Gateway))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	q = q.OrderExpr("created_at DESC, id DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("hookgate/postgres: list recent: %w", err)
	}

	result := make([]*event.Event, len(models))
	for i := range models {
		evt, err := fromEventModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = evt
	}
	return result, nil
}

func (s *Store) CountByStatus(ctx context.Context, f event.StatsFilter) (map[event.Status]int64, error) {
	rows, err := s.group(ctx, "status", f)
	if err != nil {
		return nil, fmt.Errorf("hookgate/postgres: count by status: %w", err)
	}
	out := make(map[event.Status]int64, len(rows))
	for _, r := range rows {
		out[event.Status(r.Key)] = r.Count
	}
	return out, nil
}

func (s *Store) CountByType(ctx context.Context, f event.StatsFilter) (map[string]int64, error) {
	rows, err := s.group(ctx, "event_type", f)
	if err != nil {
		return nil, fmt.Errorf("hookgate/postgres: count by type: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Count
	}
	return out, nil
}

func (s *Store) group(ctx context.Context, column string, f event.StatsFilter) ([]groupRow, error) {
	query, args := groupQuery(column, f)
	var rows []groupRow
	if err := s.pg.NewRaw(query, args...).Scan(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// groupQuery builds the windowed GROUP BY for column, which must be a
// trusted column name.
func groupQuery(column string, f event.StatsFilter) (string, []any) {
	query := fmt.Sprintf(
		"SELECT %s AS key, COUNT(*) AS count FROM hookgate_webhook_events WHERE created_at >= $1", column)
	args := []any{f.Since.UTC()}
	if f.Gateway != "" {
		query += " AND gateway = $2"
		args = append(args, string(f.Gateway))
	}
	return query + fmt.Sprintf(" GROUP BY %s", column), args
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
