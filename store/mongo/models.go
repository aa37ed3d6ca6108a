package mongo

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/grove"

	"github.com/mahmoodhamdi/hookgate/event"
	"github.com/mahmoodhamdi/hookgate/gateway"
	"github.com/mahmoodhamdi/hookgate/id"
	"github.com/mahmoodhamdi/hookgate/internal/entity"
)

type eventModel struct {
	grove.BaseModel `grove:"table:hookgate_webhook_events"`

	ID          string         `grove:"id,pk"        bson:"_id"`
	Gateway     string         `grove:"gateway"      bson:"gateway"`
	EventID     string         `grove:"event_id"     bson:"event_id"`
	EventType   string         `grove:"event_type"   bson:"event_type"`
	Payload     any            `grove:"payload"      bson:"payload,omitempty"`
	Status      string         `grove:"status"       bson:"status"`
	ProcessedAt *time.Time     `grove:"processed_at" bson:"processed_at,omitempty"`
	Error       string         `grove:"error"        bson:"error,omitempty"`
	Metadata    map[string]any `grove:"metadata"     bson:"metadata,omitempty"`
	CreatedAt   time.Time      `grove:"created_at"   bson:"created_at"`
	UpdatedAt   time.Time      `grove:"updated_at"   bson:"updated_at"`
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

	var metadata map[string]any
	if m.Metadata != nil {
		metadata, _ = plain(m.Metadata).(map[string]any)
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
		Payload:     plain(m.Payload),
		Status:      event.Status(m.Status),
		ProcessedAt: processedAt,
		Error:       m.Error,
		Metadata:    metadata,
	}, nil
}

// plain converts decoded BSON containers into the map[string]any and []any
// shapes the other backends return.
func plain(v any) any {
	switch t := v.(type) {
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = plain(e.Value)
		}
		return m
	case bson.M:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = plain(e)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = plain(e)
		}
		return m
	case bson.A:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = plain(e)
		}
		return s
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = plain(e)
		}
		return s
	default:
		return v
	}
}
