package gormstore

import (
	"fmt"
	"time"

	"github.com/mahmoodhamdi/hookgate/event"
	"github.com/mahmoodhamdi/hookgate/gateway"
	"github.com/mahmoodhamdi/hookgate/id"
	"github.com/mahmoodhamdi/hookgate/internal/entity"
	"github.com/mahmoodhamdi/hookgate/store"
)

// eventRow is the GORM model. The composite unique index on
// (gateway, event_id) backs InsertEvent.
type eventRow struct {
	ID          string         `gorm:"type:varchar(64);primaryKey"`
	Gateway     string         `gorm:"type:varchar(32);not null;index:ux_hookgate_gateway_event,unique,priority:1;index:idx_hookgate_gateway_created,priority:1"`
	EventID     string         `gorm:"type:varchar(191);not null;index:ux_hookgate_gateway_event,unique,priority:2"`
	EventType   string         `gorm:"type:varchar(100);not null;default:''"`
	Payload     any            `gorm:"type:text;serializer:json"`
	Status      string         `gorm:"type:varchar(16);not null"`
	ProcessedAt *time.Time     `gorm:"default:null"`
	Error       string         `gorm:"type:text"`
	Metadata    map[string]any `gorm:"type:text;serializer:json"`
	CreatedAt   time.Time      `gorm:"not null;index;index:idx_hookgate_gateway_created,priority:2"`
	UpdatedAt   time.Time      `gorm:"not null"`
}

// TableName pins the table name shared with the other SQL backends.
func (eventRow) TableName() string { return store.TableName }

func toRow(evt *event.Event) *eventRow {
	return &eventRow{
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

func fromRow(r *eventRow) (*event.Event, error) {
	evtID, err := id.ParseWebhookEventID(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parse webhook event ID %q: %w", r.ID, err)
	}
	var processedAt *time.Time
	if r.ProcessedAt != nil {
		at := r.ProcessedAt.UTC()
		processedAt = &at
	}
	return &event.Event{
		Entity: entity.Entity{
			CreatedAt: r.CreatedAt.UTC(),
			UpdatedAt: r.UpdatedAt.UTC(),
		},
		ID:          evtID,
		Gateway:     gateway.Gateway(r.Gateway),
		EventID:     r.EventID,
		EventType:   r.EventType,
		Payload:     r.Payload,
		Status:      event.Status(r.Status),
		ProcessedAt: processedAt,
		Error:       r.Error,
		Metadata:    r.Metadata,
	}, nil
}
