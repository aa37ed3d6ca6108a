// Package storetest is a conformance suite every store backend runs.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mahmoodhamdi/hookgate"
	"github.com/mahmoodhamdi/hookgate/event"
	"github.com/mahmoodhamdi/hookgate/gateway"
	"github.com/mahmoodhamdi/hookgate/id"
	"github.com/mahmoodhamdi/hookgate/internal/entity"
	"github.com/mahmoodhamdi/hookgate/store"
)

// Factory returns an empty, migrated store. Cleanup is the factory's job.
type Factory func(t *testing.T) store.Store

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"InsertFind", testInsertFind},
		{"DuplicateInsert", testDuplicateInsert},
		{"ConcurrentInsert", testConcurrentInsert},
		{"UpdateStatus", testUpdateStatus},
		{"UpdateMissing", testUpdateMissing},
		{"ListRecent", testListRecent},
		{"Counts", testCounts},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func ctx() context.Context { return context.Background() }

// NewEvent builds a processing record created at createdAt.
func NewEvent(gw gateway.Gateway, eventID, eventType string, createdAt time.Time) *event.Event {
	createdAt = createdAt.UTC().Truncate(time.Millisecond)
	return &event.Event{
		Entity:      entity.At(createdAt),
		ID:          id.NewWebhookEventID(),
		Gateway:     gw,
		EventID:     eventID,
		EventType:   eventType,
		Payload:     map[string]any{"id": eventID, "type": eventType},
		Status:      event.StatusProcessing,
		ProcessedAt: &createdAt,
	}
}

func mustInsert(t *testing.T, s store.Store, e *event.Event) {
	t.Helper()
	if err := s.InsertEvent(ctx(), e); err != nil {
		t.Fatalf("insert %s/%s: %v", e.Gateway, e.EventID, err)
	}
}

func testInsertFind(t *testing.T, s store.Store) {
	now := time.Now()
	e := NewEvent(gateway.Stripe, "evt_123", "invoice.paid", now)
	mustInsert(t, s, e)

	got, err := s.FindEvent(ctx(), gateway.Stripe, "evt_123")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID.String() != e.ID.String() {
		t.Fatalf("id: got %q, want %q", got.ID, e.ID)
	}
	if got.Status != event.StatusProcessing {
		t.Fatalf("status: got %q", got.Status)
	}
	if got.EventType != "invoice.paid" {
		t.Fatalf("event type: got %q", got.EventType)
	}
	if got.ProcessedAt == nil || !got.ProcessedAt.Equal(*e.ProcessedAt) {
		t.Fatalf("processed_at: got %v, want %v", got.ProcessedAt, e.ProcessedAt)
	}
	if !got.CreatedAt.Equal(e.CreatedAt) {
		t.Fatalf("created_at: got %v, want %v", got.CreatedAt, e.CreatedAt)
	}
	payload, ok := got.Payload.(map[string]any)
	if !ok || payload["id"] != "evt_123" {
		t.Fatalf("payload: got %#v", got.Payload)
	}

	if _, err := s.FindEvent(ctx(), gateway.Paddle, "evt_123"); !errors.Is(err, hookgate.ErrEventNotFound) {
		t.Fatalf("other gateway: expected ErrEventNotFound, got %v", err)
	}
	if _, err := s.FindEvent(ctx(), gateway.Stripe, "evt_missing"); !errors.Is(err, hookgate.ErrEventNotFound) {
		t.Fatalf("missing: expected ErrEventNotFound, got %v", err)
	}
}

func testDuplicateInsert(t *testing.T, s store.Store) {
	now := time.Now()
	mustInsert(t, s, NewEvent(gateway.Paymob, "tx_1", "transaction.success", now))

	err := s.InsertEvent(ctx(), NewEvent(gateway.Paymob, "tx_1", "transaction.success", now))
	if !errors.Is(err, hookgate.ErrDuplicateEvent) {
		t.Fatalf("expected ErrDuplicateEvent, got %v", err)
	}

	// Same event id under another gateway is a different pair.
	mustInsert(t, s, NewEvent(gateway.PayTabs, "tx_1", "payment.authorized", now))
}

func testConcurrentInsert(t *testing.T, s store.Store) {
	const workers = 16
	now := time.Now()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		dup     int
		other   []error
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.InsertEvent(ctx(), NewEvent(gateway.Paddle, "sub_race", "subscription.updated", now))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, hookgate.ErrDuplicateEvent):
				dup++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	if len(other) > 0 {
		t.Fatalf("unexpected errors: %v", other)
	}
	if success != 1 || dup != workers-1 {
		t.Fatalf("expected 1 success and %d duplicates, got %d and %d", workers-1, success, dup)
	}
}

func testUpdateStatus(t *testing.T, s store.Store) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	mustInsert(t, s, NewEvent(gateway.Stripe, "evt_upd", "invoice.paid", now.Add(-time.Minute)))

	if err := s.UpdateStatus(ctx(), gateway.Stripe, "evt_upd", event.Transition{
		Status:      event.StatusProcessed,
		ProcessedAt: &now,
		Metadata:    map[string]any{"foo": "bar"},
		At:          now,
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateStatus(ctx(), gateway.Stripe, "evt_upd", event.Transition{
		Status:   event.StatusProcessed,
		Metadata: map[string]any{"baz": "qux"},
		At:       now,
	}); err != nil {
		t.Fatal(err)
	}

	got, err := s.FindEvent(ctx(), gateway.Stripe, "evt_upd")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != event.StatusProcessed {
		t.Fatalf("status: got %q", got.Status)
	}
	if got.ProcessedAt == nil || !got.ProcessedAt.Equal(now) {
		t.Fatalf("processed_at: got %v, want %v", got.ProcessedAt, now)
	}
	if got.Metadata["foo"] != "bar" || got.Metadata["baz"] != "qux" {
		t.Fatalf("metadata not merged: %#v", got.Metadata)
	}

	reason := "card declined"
	if err := s.UpdateStatus(ctx(), gateway.Stripe, "evt_upd", event.Transition{
		Status: event.StatusFailed,
		Error:  &reason,
		At:     now,
	}); err != nil {
		t.Fatal(err)
	}
	got, err = s.FindEvent(ctx(), gateway.Stripe, "evt_upd")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != event.StatusFailed || got.Error != reason {
		t.Fatalf("expected failed with %q, got %q with %q", reason, got.Status, got.Error)
	}
}

func testUpdateMissing(t *testing.T, s store.Store) {
	err := s.UpdateStatus(ctx(), gateway.Stripe, "evt_never", event.Transition{
		Status: event.StatusFailed,
		At:     time.Now(),
	})
	if !errors.Is(err, hookgate.ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
	if _, err := s.FindEvent(ctx(), gateway.Stripe, "evt_never"); !errors.Is(err, hookgate.ErrEventNotFound) {
		t.Fatalf("update must not create a record, got %v", err)
	}
}

func testListRecent(t *testing.T, s store.Store) {
	base := time.Now().Add(-time.Hour)
	for i := range 5 {
		gw := gateway.Stripe
		if i%2 == 1 {
			gw = gateway.Paddle
		}
		mustInsert(t, s, NewEvent(gw, fmt.Sprintf("evt_%d", i), "invoice.paid", base.Add(time.Duration(i)*time.Minute)))
	}

	all, err := s.ListRecent(ctx(), event.ListOpts{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 events, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Fatalf("not newest first at %d: %v after %v", i, all[i].CreatedAt, all[i-1].CreatedAt)
		}
	}
	if all[0].EventID != "evt_4" {
		t.Fatalf("expected evt_4 first, got %q", all[0].EventID)
	}

	limited, err := s.ListRecent(ctx(), event.ListOpts{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 events, got %d", len(limited))
	}

	paddle, err := s.ListRecent(ctx(), event.ListOpts{Gateway: gateway.Paddle, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(paddle) != 2 {
		t.Fatalf("expected 2 paddle events, got %d", len(paddle))
	}
	for _, e := range paddle {
		if e.Gateway != gateway.Paddle {
			t.Fatalf("expected paddle, got %q", e.Gateway)
		}
	}
}

func testCounts(t *testing.T, s store.Store) {
	now := time.Now()
	mustInsert(t, s, NewEvent(gateway.Stripe, "recent_1", "invoice.paid", now.Add(-time.Hour)))
	mustInsert(t, s, NewEvent(gateway.Stripe, "recent_2", "invoice.failed", now.Add(-2*time.Hour)))
	mustInsert(t, s, NewEvent(gateway.Paddle, "recent_3", "invoice.paid", now.Add(-3*time.Hour)))
	mustInsert(t, s, NewEvent(gateway.Stripe, "old_1", "invoice.paid", now.Add(-25*time.Hour)))

	if err := s.UpdateStatus(ctx(), gateway.Stripe, "recent_1", event.Transition{Status: event.StatusProcessed, At: now}); err != nil {
		t.Fatal(err)
	}

	f := event.StatsFilter{Since: now.Add(-24 * time.Hour)}

	byStatus, err := s.CountByStatus(ctx(), f)
	if err != nil {
		t.Fatal(err)
	}
	if byStatus[event.StatusProcessed] != 1 || byStatus[event.StatusProcessing] != 2 {
		t.Fatalf("by status: %v", byStatus)
	}
	if _, ok := byStatus[event.StatusFailed]; ok {
		t.Fatalf("unobserved status present: %v", byStatus)
	}

	byType, err := s.CountByType(ctx(), f)
	if err != nil {
		t.Fatal(err)
	}
	if byType["invoice.paid"] != 2 || byType["invoice.failed"] != 1 {
		t.Fatalf("by type: %v", byType)
	}

	f.Gateway = gateway.Stripe
	byStatus, err = s.CountByStatus(ctx(), f)
	if err != nil {
		t.Fatal(err)
	}
	var total int64
	for _, n := range byStatus {
		total += n
	}
	if total != 2 {
		t.Fatalf("stripe window total: expected 2, got %d (%v)", total, byStatus)
	}
}
