// Package sqlite implements store.Store on SQLite through Grove's sqlite
// driver. Payload and metadata are kept as JSON text.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/mahmoodhamdi/hookgate"
	"github.com/mahmoodhamdi/hookgate/event"
	"github.com/mahmoodhamdi/hookgate/gateway"
	hgstore "github.com/mahmoodhamdi/hookgate/store"
)

// compile-time interface check
var _ hgstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// DefaultBusyTimeout is how long a connection opened with DSN waits on a
// locked database before failing with SQLITE_BUSY.
const DefaultBusyTimeout = 5 * time.Second

// DSN returns a data source name for path with a busy timeout set on every
// pooled connection. Without one, concurrent inserts of the same pair fail
// with SQLITE_BUSY instead of reaching ON CONFLICT DO NOTHING, and the
// losing callers see a storage error rather than a duplicate.
func DSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", path, sep, DefaultBusyTimeout.Milliseconds())
}

// New creates a new SQLite store backed by Grove ORM. The database should
// be opened with DSN (or a DSN carrying its own busy_timeout pragma), and
// the application must register grove's SQLite migration executor before
// calling Migrate.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("hookgate/sqlite: create migration executor: %w", err)
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
	err := s.sdb.NewSelect(m).
		Where("gateway = ?", string(gw)).
		Where("event_id = ?", eventID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, hookgate.ErrEventNotFound
		}
		return nil, fmt.Errorf("hookgate/sqlite: find event: %w", err)
	}
	return fromEventModel(m)
}

func (s *Store) InsertEvent(ctx context.Context, evt *event.Event) error {
	m, err := toEventModel(evt)
	if err != nil {
		return fmt.Errorf("hookgate/sqlite: insert event: %w", err)
	}

	res, err := s.sdb.NewInsert(m).
		OnConflict("(gateway, event_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("hookgate/sqlite: insert event: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("hookgate/sqlite: insert event: %w", err)
	}
	if rows == 0 {
		return hookgate.ErrDuplicateEvent
	}
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, gw gateway.Gateway, eventID string, t event.Transition) error {
	sets, args, err := updateSets(t)
	if err != nil {
		return fmt.Errorf("hookgate/sqlite: update status: %w", err)
	}

	q := s.sdb.NewUpdate((*eventModel)(nil))
	for i, set := range sets {
		q = q.Set(set, args[i])
	}
	res, err := q.
		Where("gateway = ?", string(gw)).
		Where("event_id = ?", eventID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("hookgate/sqlite: update status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("hookgate/sqlite: update status: %w", err)
	}
	if rows == 0 {
		return hookgate.ErrEventNotFound
	}
	return nil
}

// updateSets returns one SET clause per argument. Metadata is merged with
// json_patch.
func updateSets(t event.Transition) ([]string, []any, error) {
	sets := []string{"status = ?", "updated_at = ?"}
	args := []any{string(t.Status), t.At.UTC()}

	if t.ProcessedAt != nil {
		sets = append(sets, "processed_at = ?")
		args = append(args, t.ProcessedAt.UTC())
	}
	if t.Error != nil {
		sets = append(sets, "error = ?")
		args = append(args, *t.Error)
	}
	if len(t.Metadata) > 0 {
		raw, err := jsonText(t.Metadata)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal metadata: %w", err)
		}
		sets = append(sets, "metadata = json_patch(CASE WHEN metadata = '' THEN '{}' ELSE metadata END, ?)")
		args = append(args, raw)
	}
	return sets, args, nil
}

func (s *Store) ListRecent(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	var models []eventModel
	q := s.sdb.NewSelect(&models)

	if opts.Gateway != "" {
		q = q.Where("gateway = ?", string(opts.Gateway))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	q = q.OrderExpr("created_at DESC, id DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("hookgate/sqlite: list recent: %w", err)
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
		return nil, fmt.Errorf("hookgate/sqlite: count by status: %w", err)
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
		return nil, fmt.Errorf("hookgate/sqlite: count by type: %w", err)
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
	if err := s.sdb.NewRaw(query, args...).Scan(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func groupQuery(column string, f event.StatsFilter) (string, []any) {
	query := fmt.Sprintf(
		"SELECT %s AS key, COUNT(*) AS count FROM hookgate_webhook_events WHERE created_at >= ?", column)
	args := []any{f.Since.UTC()}
	if f.Gateway != "" {
		query += " AND gateway = ?"
		args = append(args, string(f.Gateway))
	}
	return query + fmt.Sprintf(" GROUP BY %s", column), args
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
