package hookgate

import (
	"context"
	"fmt"
	"time"

	"github.com/mahmoodhamdi/hookgate/event"
	"github.com/mahmoodhamdi/hookgate/gateway"
)

// RecentEvents returns the most recently created records, newest first,
// optionally filtered by gateway (empty means all). limit <= 0 uses
// Config.DefaultRecentLimit.
func (g *Gate) RecentEvents(ctx context.Context, gw gateway.Gateway, limit int) ([]*event.Event, error) {
	if err := validateFilter(gw); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = g.config.DefaultRecentLimit
	}

	start := time.Now()
	events, err := g.store.ListRecent(ctx, event.ListOpts{Gateway: gw, Limit: limit})
	g.metrics.RecordStoreOp(ctx, "list", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("hookgate: recent events: %w", err)
	}
	return events, nil
}

// EventStats counts the records created in the trailing window of hours
// (hours <= 0 uses Config.DefaultStatsWindow), optionally filtered by
// gateway. Status and type counts come from two independent aggregations
// over the same window; statuses with no records count as zero and Total
// is the sum of the per-status counts.
func (g *Gate) EventStats(ctx context.Context, gw gateway.Gateway, hours int) (*event.Stats, error) {
	if err := validateFilter(gw); err != nil {
		return nil, err
	}
	window := g.config.DefaultStatsWindow
	if hours > 0 {
		window = time.Duration(hours) * time.Hour
	}

	f := event.StatsFilter{
		Gateway: gw,
		Since:   g.now().UTC().Add(-window),
	}

	start := time.Now()
	byStatus, err := g.store.CountByStatus(ctx, f)
	g.metrics.RecordStoreOp(ctx, "count_status", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("hookgate: event stats by status: %w", err)
	}

	start = time.Now()
	byType, err := g.store.CountByType(ctx, f)
	g.metrics.RecordStoreOp(ctx, "count_type", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("hookgate: event stats by type: %w", err)
	}

	return event.MergeCounts(f.Since, byStatus, byType), nil
}

// FindEvent returns the record for (gw, eventID), or ErrEventNotFound.
func (g *Gate) FindEvent(ctx context.Context, gw gateway.Gateway, eventID string) (*event.Event, error) {
	if err := validate(gw, eventID); err != nil {
		return nil, err
	}
	return g.findEvent(ctx, gw, eventID)
}

// Ping checks store connectivity.
func (g *Gate) Ping(ctx context.Context) error {
	return g.store.Ping(ctx)
}

func validateFilter(gw gateway.Gateway) error {
	if gw != "" && !gw.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownGateway, string(gw))
	}
	return nil
}
