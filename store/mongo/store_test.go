package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/mahmoodhamdi/hookgate/event"
	"github.com/mahmoodhamdi/hookgate/gateway"
	"github.com/mahmoodhamdi/hookgate/store/storetest"
)

func TestPlainConvertsBSONContainers(t *testing.T) {
	in := bson.D{
		{Key: "id", Value: "evt_1"},
		{Key: "data", Value: bson.D{
			{Key: "object", Value: bson.M{"amount": int32(100)}},
			{Key: "lines", Value: bson.A{bson.D{{Key: "sku", Value: "pro"}}, "x"}},
		}},
	}

	out, ok := plain(in).(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", plain(in))
	}
	data := out["data"].(map[string]any)
	obj := data["object"].(map[string]any)
	if obj["amount"] != int32(100) {
		t.Fatalf("amount: %#v", obj["amount"])
	}
	lines := data["lines"].([]any)
	if lines[0].(map[string]any)["sku"] != "pro" || lines[1] != "x" {
		t.Fatalf("lines: %#v", lines)
	}

	if plain(nil) != nil {
		t.Fatal("nil should stay nil")
	}
	if plain("raw") != "raw" {
		t.Fatal("scalars pass through")
	}
}

func TestModelRoundTrip(t *testing.T) {
	e := storetest.NewEvent(gateway.Paymob, "42:transaction.success", "transaction.success", time.Now())
	e.Metadata = map[string]any{"order": bson.D{{Key: "id", Value: "o1"}}}

	got, err := fromEventModel(toEventModel(e))
	if err != nil {
		t.Fatal(err)
	}
	if got.ID.String() != e.ID.String() || got.Gateway != gateway.Paymob {
		t.Fatalf("identity lost: %+v", got)
	}
	order, ok := got.Metadata["order"].(map[string]any)
	if !ok || order["id"] != "o1" {
		t.Fatalf("metadata: %#v", got.Metadata)
	}
}

func TestFromEventModelBadID(t *testing.T) {
	if _, err := fromEventModel(&eventModel{ID: "not-an-id"}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestStatsMatch(t *testing.T) {
	since := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	m := statsMatch(event.StatsFilter{Since: since})
	if _, ok := m["gateway"]; ok {
		t.Fatal("gateway filter should be absent")
	}
	if m["created_at"].(bson.M)["$gte"] != since {
		t.Fatalf("created_at: %#v", m["created_at"])
	}

	m = statsMatch(event.StatsFilter{Gateway: gateway.Stripe, Since: since})
	if m["gateway"] != "stripe" {
		t.Fatalf("gateway: %#v", m["gateway"])
	}
}

func TestGroupPipeline(t *testing.T) {
	p := groupPipeline(event.StatsFilter{Since: time.Now()}, "$status")
	if len(p) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(p))
	}
	if p[0][0].Key != "$match" || p[1][0].Key != "$group" {
		t.Fatalf("stages: %v", p)
	}
	group := p[1][0].Value.(bson.D)
	if group[0].Value != "$status" {
		t.Fatalf("group key: %v", group[0].Value)
	}
}

func TestMigrationIndexes(t *testing.T) {
	idx := migrationIndexes()
	if len(idx) != 3 {
		t.Fatalf("expected 3 indexes, got %d", len(idx))
	}
	keys := idx[0].Keys.(bson.D)
	if keys[0].Key != "gateway" || keys[1].Key != "event_id" {
		t.Fatalf("first index must be the (gateway, event_id) pair: %v", keys)
	}
	if idx[0].Options == nil {
		t.Fatal("pair index must carry options")
	}
}
