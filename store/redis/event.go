package redis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mahmoodhamdi/hookgate"
	"github.com/mahmoodhamdi/hookgate/event"
	"github.com/mahmoodhamdi/hookgate/gateway"
	"github.com/mahmoodhamdi/hookgate/id"
	"github.com/mahmoodhamdi/hookgate/internal/entity"
)

// eventModel is the JSON representation stored in Redis.
type eventModel struct {
	ID          string         `json:"id"`
	Gateway     string         `json:"gateway"`
	EventID     string         `json:"event_id"`
	EventType   string         `json:"event_type"`
	Payload     any            `json:"payload,omitempty"`
	Status      string         `json:"status"`
	ProcessedAt *time.Time     `json:"processed_at,omitempty"`
	Error       string         `json:"error,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func toEventModel(evt *event.Event) *eventModel {
	return &eventModel{
		ID:          evt.ID.String(),
		Gateway:     string(evt.Gateway),
		EventID:     evt.EventID,
		EventType:   evt.EventType,
		Payload:     evt.Payload,
		Status:      string(evt.Status),
		ProcessedAt: evt.ProcessedAt,
		Error:       evt.Error,
		Metadata:    evt.Metadata,
		CreatedAt:   evt.CreatedAt,
		UpdatedAt:   evt.UpdatedAt,
	}
}

func fromEventModel(m *eventModel) (*event.Event, error) {
	evtID, err := id.ParseWebhookEventID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse webhook event ID %q: %w", m.ID, err)
	}
	var processedAt *time.Time
	if m.ProcessedAt != nil {
		at := m.ProcessedAt.UTC()
		processedAt = &at
	}
	return &event.Event{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: m.UpdatedAt.UTC(),
		},
		ID:          evtID,
		Gateway:     gateway.Gateway(m.Gateway),
		EventID:     m.EventID,
		EventType:   m.EventType,
		Payload:     m.Payload,
		Status:      event.Status(m.Status),
		ProcessedAt: processedAt,
		Error:       m.Error,
		Metadata:    m.Metadata,
	}, nil
}

// recordID resolves (gw, eventID) to the stored record id.
func (s *Store) recordID(ctx context.Context, gw gateway.Gateway, eventID string) (string, error) {
	recID, err := s.rdb.Get(ctx, uniqueKey(string(gw), eventID)).Result()
	if err != nil {
		if isRedisNil(err) {
			return "", hookgate.ErrEventNotFound
		}
		return "", err
	}
	return recID, nil
}

func (s *Store) load(ctx context.Context, gw gateway.Gateway, eventID string) (*eventModel, error) {
	recID, err := s.recordID(ctx, gw, eventID)
	if err != nil {
		return nil, err
	}
	var m eventModel
	if err := s.getEntity(ctx, entityKey(prefixEvent, recID), &m); err != nil {
		// The unique key is claimed before the record is written.
		if isNotFound(err) {
			return nil, hookgate.ErrEventNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *Store) FindEvent(ctx context.Context, gw gateway.Gateway, eventID string) (*event.Event, error) {
	m, err := s.load(ctx, gw, eventID)
	if err != nil {
		if errors.Is(err, hookgate.ErrEventNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("hookgate/redis: find event: %w", err)
	}
	return fromEventModel(m)
}

// InsertEvent claims the pair with SETNX, then writes the record and its
// indexes. A failed write releases the claim.
func (s *Store) InsertEvent(ctx context.Context, evt *event.Event) error {
	m := toEventModel(evt)
	claim := uniqueKey(m.Gateway, m.EventID)

	ok, err := s.rdb.SetNX(ctx, claim, m.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("hookgate/redis: insert event claim: %w", err)
	}
	if !ok {
		return hookgate.ErrDuplicateEvent
	}

	if err := s.setEntity(ctx, entityKey(prefixEvent, m.ID), m); err != nil {
		return errors.Join(
			fmt.Errorf("hookgate/redis: insert event: %w", err),
			s.releaseClaim(ctx, claim),
		)
	}

	score := scoreFromTime(m.CreatedAt)
	_, err = s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.ZAdd(ctx, zEventAll, goredis.Z{Score: score, Member: m.ID})
		pipe.ZAdd(ctx, gatewayIndexKey(m.Gateway), goredis.Z{Score: score, Member: m.ID})
		return nil
	})
	if err != nil {
		return errors.Join(
			fmt.Errorf("hookgate/redis: insert event indexes: %w", err),
			s.releaseClaim(ctx, claim),
		)
	}
	return nil
}

// releaseClaim undoes a claim whose record could not be fully written, so a
// redelivery can reserve the pair again. The orphaned document, if any, is
// unreachable without the claim.
func (s *Store) releaseClaim(ctx context.Context, claim string) error {
	if err := s.rdb.Del(ctx, claim).Err(); err != nil {
		return fmt.Errorf("hookgate/redis: release claim %s: %w", claim, err)
	}
	return nil
}

// UpdateStatus is a read-modify-write of the record. Only the caller that
// reserved the pair transitions it, so writes do not interleave.
func (s *Store) UpdateStatus(ctx context.Context, gw gateway.Gateway, eventID string, t event.Transition) error {
	m, err := s.load(ctx, gw, eventID)
	if err != nil {
		if errors.Is(err, hookgate.ErrEventNotFound) {
			return err
		}
		return fmt.Errorf("hookgate/redis: update status get: %w", err)
	}

	evt, err := fromEventModel(m)
	if err != nil {
		return err
	}
	t.Apply(evt)

	if err := s.setEntity(ctx, entityKey(prefixEvent, m.ID), toEventModel(evt)); err != nil {
		return fmt.Errorf("hookgate/redis: update status: %w", err)
	}
	return nil
}

func (s *Store) ListRecent(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	key := zEventAll
	if opts.Gateway != "" {
		key = gatewayIndexKey(string(opts.Gateway))
	}

	stop := int64(-1)
	if opts.Limit > 0 {
		stop = int64(opts.Limit) - 1
	}
	ids, err := s.rdb.ZRevRange(ctx, key, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("hookgate/redis: list recent: %w", err)
	}

	result := make([]*event.Event, 0, len(ids))
	for _, recID := range ids {
		var m eventModel
		if err := s.getEntity(ctx, entityKey(prefixEvent, recID), &m); err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("hookgate/redis: list recent: %w", err)
		}
		evt, err := fromEventModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, evt)
	}
	return result, nil
}

func (s *Store) CountByStatus(ctx context.Context, f event.StatsFilter) (map[event.Status]int64, error) {
	out := make(map[event.Status]int64)
	err := s.scanWindow(ctx, f, func(m *eventModel) {
		out[event.Status(m.Status)]++
	})
	if err != nil {
		return nil, fmt.Errorf("hookgate/redis: count by status: %w", err)
	}
	return out, nil
}

func (s *Store) CountByType(ctx context.Context, f event.StatsFilter) (map[string]int64, error) {
	out := make(map[string]int64)
	err := s.scanWindow(ctx, f, func(m *eventModel) {
		out[m.EventType]++
	})
	if err != nil {
		return nil, fmt.Errorf("hookgate/redis: count by type: %w", err)
	}
	return out, nil
}

// scanWindow calls fn for every record created at or after f.Since.
func (s *Store) scanWindow(ctx context.Context, f event.StatsFilter, fn func(*eventModel)) error {
	key := zEventAll
	if f.Gateway != "" {
		key = gatewayIndexKey(string(f.Gateway))
	}

	ids, err := s.zRangeByScoreIDs(ctx, key, scoreFromTime(f.Since), math.Inf(1))
	if err != nil {
		return err
	}
	for _, recID := range ids {
		var m eventModel
		if err := s.getEntity(ctx, entityKey(prefixEvent, recID), &m); err != nil {
			if isNotFound(err) {
				continue
			}
			return err
		}
		fn(&m)
	}
	return nil
}
