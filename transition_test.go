package hookgate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmoodhamdi/hookgate"
	"github.com/mahmoodhamdi/hookgate/event"
	"github.com/mahmoodhamdi/hookgate/gateway"
)

func TestMarkProcessed(t *testing.T) {
	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g, s, _ := setup(t, hookgate.WithClock(func() time.Time { return clock }))

	res := g.CheckAndReserve(ctx(), gateway.Stripe, "evt_123", "invoice.paid", nil)
	require.Equal(t, hookgate.StatusNew, res.Status)

	clock = clock.Add(2 * time.Second)
	g.MarkProcessed(ctx(), gateway.Stripe, "evt_123", map[string]any{"foo": 1})

	got, err := s.FindEvent(ctx(), gateway.Stripe, "evt_123")
	require.NoError(t, err)
	assert.Equal(t, event.StatusProcessed, got.Status)
	assert.Equal(t, 1, got.Metadata["foo"])
	assert.Equal(t, clock, *got.ProcessedAt, "processedAt is refreshed")
	assert.Empty(t, got.Error)
}

func TestMarkFailed(t *testing.T) {
	g, s, _ := setup(t)

	g.CheckAndReserve(ctx(), gateway.Paymob, "tx_1", "transaction.success", nil)
	g.MarkFailed(ctx(), gateway.Paymob, "tx_1", "subscription not found")

	got, err := s.FindEvent(ctx(), gateway.Paymob, "tx_1")
	require.NoError(t, err)
	assert.Equal(t, event.StatusFailed, got.Status)
	assert.Equal(t, "subscription not found", got.Error)
}

func TestMarkSkipped(t *testing.T) {
	g, s, _ := setup(t)

	g.CheckAndReserve(ctx(), gateway.Paddle, "evt_a", "customer.created", nil)
	g.MarkSkipped(ctx(), gateway.Paddle, "evt_a", "")

	got, err := s.FindEvent(ctx(), gateway.Paddle, "evt_a")
	require.NoError(t, err)
	assert.Equal(t, event.StatusSkipped, got.Status)
	assert.Empty(t, got.Error, "no reason leaves error unset")

	g.CheckAndReserve(ctx(), gateway.Paddle, "evt_b", "customer.created", nil)
	g.MarkSkipped(ctx(), gateway.Paddle, "evt_b", "unhandled event type")

	got, err = s.FindEvent(ctx(), gateway.Paddle, "evt_b")
	require.NoError(t, err)
	assert.Equal(t, "unhandled event type", got.Error)
}

func TestMarkMissingRecordIsSwallowed(t *testing.T) {
	g, s, logs := setup(t)

	assert.NotPanics(t, func() {
		g.MarkFailed(ctx(), gateway.Stripe, "evt_never", "boom")
		g.MarkProcessed(ctx(), gateway.Stripe, "evt_never", nil)
		g.MarkSkipped(ctx(), gateway.Stripe, "evt_never", "reason")
	})
	assert.Equal(t, 0, s.Len(), "transitions never create records")

	recs := logs.records(t)
	require.Len(t, recs, 3)
	for _, rec := range recs {
		assert.Equal(t, "ERROR", rec["level"])
		assert.Equal(t, "evt_never", rec["event_id"])
		assert.Contains(t, rec["error"], "not found")
	}
}

func TestMarkStorageErrorIsSwallowed(t *testing.T) {
	g, s, logs := setup(t)
	g.CheckAndReserve(ctx(), gateway.Stripe, "evt_1", "invoice.paid", nil)
	require.NoError(t, s.Close())

	g.MarkProcessed(ctx(), gateway.Stripe, "evt_1", nil)

	recs := logs.records(t)
	require.Len(t, recs, 2)
	assert.Equal(t, "ERROR", recs[1]["level"])
	assert.Equal(t, hookgate.ErrStoreClosed.Error(), recs[1]["error"])
}

func TestMarkOverwritesTerminalState(t *testing.T) {
	g, s, _ := setup(t)

	g.CheckAndReserve(ctx(), gateway.Stripe, "evt_1", "invoice.paid", nil)
	g.MarkFailed(ctx(), gateway.Stripe, "evt_1", "timeout")
	g.MarkProcessed(ctx(), gateway.Stripe, "evt_1", nil)

	got, err := s.FindEvent(ctx(), gateway.Stripe, "evt_1")
	require.NoError(t, err)
	assert.Equal(t, event.StatusProcessed, got.Status)
}
