package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mahmoodhamdi/hookgate"
	"github.com/mahmoodhamdi/hookgate/gateway"
	"github.com/mahmoodhamdi/hookgate/store"
	"github.com/mahmoodhamdi/hookgate/store/storetest"
)

func ctx() context.Context { return context.Background() }

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New()
	})
}

func TestLifecycle(t *testing.T) {
	s := New()

	if err := s.Migrate(ctx()); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(ctx()); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(ctx()); !errors.Is(err, hookgate.ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed, got %v", err)
	}
	e := storetest.NewEvent(gateway.Stripe, "evt_1", "invoice.paid", time.Now())
	if err := s.InsertEvent(ctx(), e); !errors.Is(err, hookgate.ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed on insert, got %v", err)
	}
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	s := New()
	e := storetest.NewEvent(gateway.Stripe, "evt_1", "invoice.paid", time.Now())
	if err := s.InsertEvent(ctx(), e); err != nil {
		t.Fatal(err)
	}
	e.EventType = "mutated"

	got, err := s.FindEvent(ctx(), gateway.Stripe, "evt_1")
	if err != nil {
		t.Fatal(err)
	}
	if got.EventType != "invoice.paid" {
		t.Fatalf("stored record aliased caller value: %q", got.EventType)
	}
	got.Status = "tampered"

	again, err := s.FindEvent(ctx(), gateway.Stripe, "evt_1")
	if err != nil {
		t.Fatal(err)
	}
	if again.Status == "tampered" {
		t.Fatal("FindEvent returned the stored pointer")
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", s.Len())
	}
}
