// Package mongo implements store.Store on MongoDB through Grove's mongo
// driver.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/mahmoodhamdi/hookgate/store"
)

const colEvents = store.TableName

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the collection indexes. The unique compound index is what
// makes InsertEvent atomic.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.mdb.Collection(colEvents).Indexes().CreateMany(ctx, migrationIndexes())
	if err != nil {
		return fmt.Errorf("hookgate/mongo: migrate %s indexes: %w", colEvents, err)
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

func migrationIndexes() []mongod.IndexModel {
	return []mongod.IndexModel{
		{
			Keys:    bson.D{{Key: "gateway", Value: 1}, {Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "gateway", Value: 1}, {Key: "created_at", Value: -1}}},
	}
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}
