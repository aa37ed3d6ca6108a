// Package gormstore implements store.Store with GORM, for MySQL and
// PostgreSQL deployments that already run GORM.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/mahmoodhamdi/hookgate"
	"github.com/mahmoodhamdi/hookgate/event"
	"github.com/mahmoodhamdi/hookgate/gateway"
	hgstore "github.com/mahmoodhamdi/hookgate/store"
)

var _ hgstore.Store = (*Store)(nil)

// Store implements store.Store on a *gorm.DB.
type Store struct {
	db *gorm.DB
}

// New wraps an open GORM connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// OpenPostgres opens a PostgreSQL connection from a DSN or URL.
func OpenPostgres(dsn string) (*Store, error) {
	return open(postgres.Open(dsn))
}

// OpenMySQL opens a MySQL connection. The DSN must set parseTime=true and
// loc=UTC.
func OpenMySQL(dsn string) (*Store, error) {
	return open(mysql.New(mysql.Config{
		DSN:               dsn,
		DefaultStringSize: 256,
	}))
}

func open(dialector gorm.Dialector) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("hookgate/gorm: open: %w", err)
	}
	return New(db), nil
}

// DB returns the underlying GORM handle.
func (s *Store) DB() *gorm.DB { return s.db }

// Migrate creates or updates the events table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&eventRow{}); err != nil {
		return fmt.Errorf("%w: %w", hookgate.ErrMigrationFailed, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) FindEvent(ctx context.Context, gw gateway.Gateway, eventID string) (*event.Event, error) {
	var row eventRow
	err := s.db.WithContext(ctx).
		Where("gateway = ? AND event_id = ?", string(gw), eventID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, hookgate.ErrEventNotFound
		}
		return nil, fmt.Errorf("hookgate/gorm: find event: %w", err)
	}
	return fromRow(&row)
}

// InsertEvent inserts with ON CONFLICT DO NOTHING; zero affected rows means
// the pair already exists.
func (s *Store) InsertEvent(ctx context.Context, evt *event.Event) error {
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "gateway"},
			{Name: "event_id"},
		},
		DoNothing: true,
	}).Create(toRow(evt))
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrDuplicatedKey) {
			return hookgate.ErrDuplicateEvent
		}
		return fmt.Errorf("hookgate/gorm: insert event: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return hookgate.ErrDuplicateEvent
	}
	return nil
}

// UpdateStatus locks the row, applies t and saves it, so concurrent
// metadata merges do not lose keys.
func (s *Store) UpdateStatus(ctx context.Context, gw gateway.Gateway, eventID string, t event.Transition) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row eventRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("gateway = ? AND event_id = ?", string(gw), eventID).
			First(&row).Error
		if err != nil {
			return err
		}

		evt, err := fromRow(&row)
		if err != nil {
			return err
		}
		t.Apply(evt)

		updated := toRow(evt)
		return tx.Model(&eventRow{}).
			Where("id = ?", row.ID).
			Select("status", "processed_at", "error", "metadata", "updated_at").
			Updates(updated).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return hookgate.ErrEventNotFound
		}
		return fmt.Errorf("hookgate/gorm: update status: %w", err)
	}
	return nil
}

func (s *Store) ListRecent(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if opts.Gateway != "" {
		q = q.Where("gateway = ?", string(opts.Gateway))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	var rows []eventRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("hookgate/gorm: list recent: %w", err)
	}

	result := make([]*event.Event, len(rows))
	for i := range rows {
		evt, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		result[i] = evt
	}
	return result, nil
}

type groupRow struct {
	Name  string
	Total int64
}

func (s *Store) CountByStatus(ctx context.Context, f event.StatsFilter) (map[event.Status]int64, error) {
	rows, err := s.group(ctx, "status", f)
	if err != nil {
		return nil, fmt.Errorf("hookgate/gorm: count by status: %w", err)
	}
	out := make(map[event.Status]int64, len(rows))
	for _, r := range rows {
		out[event.Status(r.Name)] = r.Total
	}
	return out, nil
}

func (s *Store) CountByType(ctx context.Context, f event.StatsFilter) (map[string]int64, error) {
	rows, err := s.group(ctx, "event_type", f)
	if err != nil {
		return nil, fmt.Errorf("hookgate/gorm: count by type: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Name] = r.Total
	}
	return out, nil
}

// group counts windowed rows by column, which must be a trusted name.
func (s *Store) group(ctx context.Context, column string, f event.StatsFilter) ([]groupRow, error) {
	q := s.db.WithContext(ctx).Model(&eventRow{}).
		Select(column+" AS name, COUNT(*) AS total").
		Where("created_at >= ?", f.Since.UTC())
	if f.Gateway != "" {
		q = q.Where("gateway = ?", string(f.Gateway))
	}

	var rows []groupRow
	if err := q.Group(column).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
