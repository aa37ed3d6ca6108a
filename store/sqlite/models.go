package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/mahmoodhamdi/hookgate/event"
	"github.com/mahmoodhamdi/hookgate/gateway"
	"github.com/mahmoodhamdi/hookgate/id"
	"github.com/mahmoodhamdi/hookgate/internal/entity"
)

type eventModel struct {
	grove.BaseModel `grove:"table:hookgate_webhook_events"`

	ID          string     `grove:"id,pk"`
	Gateway     string     `grove:"gateway"`
	EventID     string     `grove:"event_id"`
	EventType   string     `grove:"event_type"`
	Payload     string     `grove:"payload"` // JSON text
	Status      string     `grove:"status"`
	ProcessedAt *time.Time `grove:"processed_at"`
	Error       string     `grove:"error"`
	Metadata    string     `grove:"metadata"` // JSON text
	CreatedAt   time.Time  `grove:"created_at"`
	UpdatedAt   time.Time  `grove:"updated_at"`
}

type groupRow struct {
	Key   string `grove:"key"`
	Count int64  `grove:"count"`
}

func toEventModel(evt *event.Event) (*eventModel, error) {
	payload, err := jsonText(evt.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	var metadata string
	if len(evt.Metadata) > 0 {
		if metadata, err = jsonText(evt.Metadata); err != nil {
			return nil, fmt.Errorf("marshal metadata: %w", err)
		}
	}

	return &eventModel{
		ID:          evt.ID.String(),
		Gateway:     string(evt.Gateway),
		EventID:     evt.EventID,
		EventType:   evt.EventType,
		Payload:     payload,
		Status:      string(evt.Status),
		ProcessedAt: evt.ProcessedAt,
		Error:       evt.Error,
		Metadata:    metadata,
		CreatedAt:   evt.CreatedAt,
		UpdatedAt:   evt.UpdatedAt,
	}, nil
}

func fromEventModel(m *eventModel) (*event.Event, error) {
	evtID, err := id.ParseWebhookEventID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse webhook event ID %q: %w", m.ID, err)
	}

	var payload any
	if m.Payload != "" {
		if err := json.Unmarshal([]byte(m.Payload), &payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
	}

	var metadata map[string]any
	if m.Metadata != "" {
		if err := json.Unmarshal([]byte(m.Metadata), &metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
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
		Payload:     payload,
		Status:      event.Status(m.Status),
		ProcessedAt: processedAt,
		Error:       m.Error,
		Metadata:    metadata,
	}, nil
}

func jsonText(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
