package redis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mahmoodhamdi/hookgate/gateway"
	"github.com/mahmoodhamdi/hookgate/store"
	"github.com/mahmoodhamdi/hookgate/store/storetest"
)

func startRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	addr, err := c.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("redis endpoint: %v", err)
	}
	return addr
}

func TestRedisStore(t *testing.T) {
	addr := startRedis(t)

	storetest.Run(t, func(t *testing.T) store.Store {
		rdb := goredis.NewClient(&goredis.Options{Addr: addr})
		if err := rdb.FlushDB(context.Background()).Err(); err != nil {
			t.Fatalf("flush: %v", err)
		}
		s := NewFromClient(rdb)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

// refusePipelines fails every pipelined command batch.
type refusePipelines struct{}

func (refusePipelines) DialHook(next goredis.DialHook) goredis.DialHook { return next }

func (refusePipelines) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook { return next }

func (refusePipelines) ProcessPipelineHook(goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(context.Context, []goredis.Cmder) error {
		return errors.New("index write refused")
	}
}

func TestInsertReleasesClaimOnIndexFailure(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	plain := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = plain.Close() })

	failing := goredis.NewClient(&goredis.Options{Addr: addr})
	failing.AddHook(refusePipelines{})
	s := NewFromClient(failing)
	t.Cleanup(func() { _ = s.Close() })

	evt := storetest.NewEvent(gateway.Paddle, "evt_idx", "subscription.created", time.Now())
	err := s.InsertEvent(ctx, evt)
	if err == nil || !strings.Contains(err.Error(), "index write refused") {
		t.Fatalf("expected index failure, got %v", err)
	}

	n, err := plain.Exists(ctx, uniqueKey(string(gateway.Paddle), "evt_idx")).Result()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatal("claim must be released after a failed index write")
	}

	// The pair can be reserved again once the indexes are writable.
	if err := NewFromClient(plain).InsertEvent(ctx, storetest.NewEvent(gateway.Paddle, "evt_idx", "subscription.created", time.Now())); err != nil {
		t.Fatalf("re-reserve: %v", err)
	}
}

func TestKeys(t *testing.T) {
	if got := uniqueKey(string(gateway.Paymob), "42:transaction.success"); got != "hookgate:u:paymob:42:transaction.success" {
		t.Fatalf("unique key: %s", got)
	}
	if got := gatewayIndexKey("stripe"); got != "hookgate:z:evt:gw:stripe" {
		t.Fatalf("gateway index: %s", got)
	}
	if got := entityKey(prefixEvent, "whevt_01"); got != "hookgate:evt:whevt_01" {
		t.Fatalf("entity key: %s", got)
	}
}

func TestScoreKeepsMillisecondOrder(t *testing.T) {
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	if scoreFromTime(base.Add(time.Millisecond)) <= scoreFromTime(base) {
		t.Fatal("scores must order by millisecond")
	}
}
