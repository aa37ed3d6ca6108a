package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/mahmoodhamdi/hookgate"
	"github.com/mahmoodhamdi/hookgate/event"
	"github.com/mahmoodhamdi/hookgate/gateway"
)

// FindEvent returns the record for (gw, eventID).
func (s *Store) FindEvent(ctx context.Context, gw gateway.Gateway, eventID string) (*event.Event, error) {
	var m eventModel

	err := s.mdb.NewFind(&m).
		Filter(bson.M{"gateway": string(gw), "event_id": eventID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, hookgate.ErrEventNotFound
		}

		return nil, fmt.Errorf("hookgate/mongo: find event: %w", err)
	}

	return fromEventModel(&m)
}

// InsertEvent persists a new record. The unique index on
// (gateway, event_id) rejects a second insert.
func (s *Store) InsertEvent(ctx context.Context, evt *event.Event) error {
	m := toEventModel(evt)

	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return hookgate.ErrDuplicateEvent
		}

		return fmt.Errorf("hookgate/mongo: insert event: %w", err)
	}

	return nil
}

// UpdateStatus applies t with a single $set. Metadata keys are set
// individually so existing keys survive.
func (s *Store) UpdateStatus(ctx context.Context, gw gateway.Gateway, eventID string, t event.Transition) error {
	q := s.mdb.NewUpdate((*eventModel)(nil)).
		Filter(bson.M{"gateway": string(gw), "event_id": eventID}).
		Set("status", string(t.Status)).
		Set("updated_at", t.At.UTC())

	if t.ProcessedAt != nil {
		q = q.Set("processed_at", t.ProcessedAt.UTC())
	}
	if t.Error != nil {
		q = q.Set("error", *t.Error)
	}
	for k, v := range t.Metadata {
		q = q.Set("metadata."+k, v)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("hookgate/mongo: update status: %w", err)
	}

	if res.MatchedCount() == 0 {
		return hookgate.ErrEventNotFound
	}

	return nil
}

// ListRecent returns records newest first.
func (s *Store) ListRecent(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	var models []eventModel

	filter := bson.M{}
	if opts.Gateway != "" {
		filter["gateway"] = string(opts.Gateway)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("hookgate/mongo: list recent: %w", err)
	}

	result := make([]*event.Event, 0, len(models))

	for i := range models {
		evt, err := fromEventModel(&models[i])
		if err != nil {
			return nil, err
		}

		result = append(result, evt)
	}

	return result, nil
}

// CountByStatus groups the windowed records by status.
func (s *Store) CountByStatus(ctx context.Context, f event.StatsFilter) (map[event.Status]int64, error) {
	rows, err := s.group(ctx, f, "$status")
	if err != nil {
		return nil, fmt.Errorf("hookgate/mongo: count by status: %w", err)
	}

	out := make(map[event.Status]int64, len(rows))
	for k, n := range rows {
		out[event.Status(k)] = n
	}
	return out, nil
}

// CountByType groups the windowed records by event type.
func (s *Store) CountByType(ctx context.Context, f event.StatsFilter) (map[string]int64, error) {
	rows, err := s.group(ctx, f, "$event_type")
	if err != nil {
		return nil, fmt.Errorf("hookgate/mongo: count by type: %w", err)
	}
	return rows, nil
}

type groupRow struct {
	Key   string `bson:"_id"`
	Count int64  `bson:"count"`
}

func (s *Store) group(ctx context.Context, f event.StatsFilter, field string) (map[string]int64, error) {
	cur, err := s.mdb.Collection(colEvents).Aggregate(ctx, groupPipeline(f, field))
	if err != nil {
		return nil, err
	}

	var rows []groupRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Count
	}
	return out, nil
}

func statsMatch(f event.StatsFilter) bson.M {
	match := bson.M{"created_at": bson.M{"$gte": f.Since.UTC()}}
	if f.Gateway != "" {
		match["gateway"] = string(f.Gateway)
	}
	return match
}

func groupPipeline(f event.StatsFilter, field string) mongod.Pipeline {
	return mongod.Pipeline{
		{{Key: "$match", Value: statsMatch(f)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
}
