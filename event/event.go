// Package event defines the webhook event record and its persistence contract.
package event

import (
	"time"

	"github.com/mahmoodhamdi/hookgate/gateway"
	"github.com/mahmoodhamdi/hookgate/id"
	"github.com/mahmoodhamdi/hookgate/internal/entity"
)

// Status is the processing state of a webhook event record.
type Status string

// Record states. A record is created in StatusProcessing and moves at most
// once more, to one of the terminal states.
const (
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// IsTerminal reports whether s is processed, failed or skipped.
func (s Status) IsTerminal() bool {
	return s == StatusProcessed || s == StatusFailed || s == StatusSkipped
}

// Event is one observed gateway callback. At most one Event exists per
// (Gateway, EventID) pair.
type Event struct {
	entity.Entity

	// ID is the store-local record id.
	ID id.ID `json:"id"`

	Gateway   gateway.Gateway `json:"gateway"`
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`

	// Payload is the original callback body, stored verbatim for audit.
	Payload any `json:"payload,omitempty"`

	Status      Status     `json:"status"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`

	// Error holds the failure message or skip reason.
	Error string `json:"error,omitempty"`

	// Metadata is attached when processing succeeds.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Transition describes a status update applied by Store.UpdateStatus.
// Nil pointer fields leave the stored value unchanged; Metadata keys are
// merged into the stored metadata.
type Transition struct {
	Status      Status
	ProcessedAt *time.Time
	Error       *string
	Metadata    map[string]any
	At          time.Time
}

// Apply mutates e in place. Backends that update by read-modify-write
// share it so every store applies the same field rules.
func (t Transition) Apply(e *Event) {
	e.Status = t.Status
	if t.ProcessedAt != nil {
		at := t.ProcessedAt.UTC()
		e.ProcessedAt = &at
	}
	if t.Error != nil {
		e.Error = *t.Error
	}
	if len(t.Metadata) > 0 {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any, len(t.Metadata))
		}
		for k, v := range t.Metadata {
			e.Metadata[k] = v
		}
	}
	e.UpdatedAt = t.At.UTC()
}

// ListOpts configures ListRecent.
type ListOpts struct {
	// Gateway filters by gateway when non-empty.
	Gateway gateway.Gateway
	Limit   int
}

// StatsFilter selects the records aggregated by CountByStatus and CountByType.
type StatsFilter struct {
	// Gateway filters by gateway when non-empty.
	Gateway gateway.Gateway

	// Since is the inclusive lower bound on CreatedAt.
	Since time.Time
}

// Stats summarizes the records created inside a trailing window.
type Stats struct {
	Total      int64            `json:"total"`
	Processing int64            `json:"processing"`
	Processed  int64            `json:"processed"`
	Failed     int64            `json:"failed"`
	Skipped    int64            `json:"skipped"`
	ByType     map[string]int64 `json:"by_type"`
	Since      time.Time        `json:"since"`
}

// MergeCounts builds Stats from the two independent aggregations. Statuses
// missing from byStatus count as zero, and Total is the sum of the
// per-status counts.
func MergeCounts(since time.Time, byStatus map[Status]int64, byType map[string]int64) *Stats {
	st := &Stats{
		Processing: byStatus[StatusProcessing],
		Processed:  byStatus[StatusProcessed],
		Failed:     byStatus[StatusFailed],
		Skipped:    byStatus[StatusSkipped],
		ByType:     make(map[string]int64, len(byType)),
		Since:      since,
	}
	st.Total = st.Processing + st.Processed + st.Failed + st.Skipped
	for k, v := range byType {
		st.ByType[k] = v
	}
	return st
}
