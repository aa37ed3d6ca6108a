package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mahmoodhamdi/hookgate"
	"github.com/mahmoodhamdi/hookgate/api"
	"github.com/mahmoodhamdi/hookgate/dispatch"
	"github.com/mahmoodhamdi/hookgate/event"
	"github.com/mahmoodhamdi/hookgate/gateway"
	"github.com/mahmoodhamdi/hookgate/signature"
	"github.com/mahmoodhamdi/hookgate/store/memory"
)

const (
	paddleSecret  = "pdl_ntfset_test"
	paytabsServer = "SJJNLK9-TEST"
)

type fixture struct {
	srv   *httptest.Server
	store *memory.Store
	calls int
}

func newFixture(t *testing.T, opts ...api.Option) *fixture {
	t.Helper()

	f := &fixture{store: memory.New()}
	g, err := hookgate.New(hookgate.WithStore(f.store), hookgate.WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		t.Fatalf("new gate: %v", err)
	}

	rt := dispatch.NewRouter(slog.New(slog.DiscardHandler))
	rt.Handle(gateway.Paddle, "subscription.*", func(context.Context, *event.Event) (map[string]any, error) {
		f.calls++
		return map[string]any{"synced": true}, nil
	})

	reg := gateway.NewRegistry(
		&gateway.PaddleParser{Secret: paddleSecret},
		&gateway.PayTabsParser{ServerKey: paytabsServer},
	)

	f.srv = httptest.NewServer(api.NewHandler(g, rt, reg, slog.New(slog.DiscardHandler), opts...))
	t.Cleanup(f.srv.Close)
	return f
}

func paddleRequest(t *testing.T, url, eventID, eventType string) *http.Request {
	t.Helper()
	body := fmt.Sprintf(`{"event_id":%q,"event_type":%q,"data":{"id":"sub_01"}}`, eventID, eventType)
	ts := time.Now().Unix()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url+"/callbacks/paddle", strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	sig := signature.Timestamped(paddleSecret, ts, []byte(body))
	req.Header.Set("Paddle-Signature", fmt.Sprintf("ts=%d;h1=%s", ts, sig))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func paytabsRequest(t *testing.T, url, tranRef, sig string) *http.Request {
	t.Helper()
	body := []byte(fmt.Sprintf(`{"tran_ref":%q,"tran_type":"Sale","cart_id":"c1","payment_result":{"response_status":"A"}}`, tranRef))
	if sig == "" {
		sig = signature.SHA256(paytabsServer, body)
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url+"/callbacks/paytabs", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Signature", sig)
	return req
}

func do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	return do(t, req)
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("expected %d, got %d: %s", want, resp.StatusCode, b)
	}
}

// --- Callbacks ---

func TestCallback_NewThenDuplicate(t *testing.T) {
	f := newFixture(t)

	resp := do(t, paddleRequest(t, f.srv.URL, "evt_01", "subscription.updated"))
	expectStatus(t, resp, http.StatusOK)
	var first api.CallbackResponse
	decodeBody(t, resp, &first)
	if !first.Received || first.Status != string(event.StatusProcessed) || first.EventID != "evt_01" {
		t.Fatalf("unexpected first response: %+v", first)
	}

	resp = do(t, paddleRequest(t, f.srv.URL, "evt_01", "subscription.updated"))
	expectStatus(t, resp, http.StatusOK)
	var second api.CallbackResponse
	decodeBody(t, resp, &second)
	if second.Status != string(hookgate.StatusDuplicate) {
		t.Fatalf("expected duplicate, got %q", second.Status)
	}
	if f.calls != 1 {
		t.Fatalf("handler ran %d times, want 1", f.calls)
	}

	evt, err := f.store.FindEvent(context.Background(), gateway.Paddle, "evt_01")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if evt.Metadata["synced"] != true {
		t.Fatalf("metadata not merged: %v", evt.Metadata)
	}
}

func TestCallback_Unhandled(t *testing.T) {
	f := newFixture(t)

	resp := do(t, paytabsRequest(t, f.srv.URL, "TST2401", ""))
	expectStatus(t, resp, http.StatusOK)
	var out api.CallbackResponse
	decodeBody(t, resp, &out)
	if out.Status != string(event.StatusSkipped) {
		t.Fatalf("expected skipped, got %q", out.Status)
	}
}

func TestCallback_InvalidSignature(t *testing.T) {
	f := newFixture(t)

	resp := do(t, paytabsRequest(t, f.srv.URL, "TST2402", "deadbeef"))
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	if _, err := f.store.FindEvent(context.Background(), gateway.PayTabs, "TST2402"); err == nil {
		t.Fatal("rejected callback must not be recorded")
	}
}

func TestCallback_UnknownGateway(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/callbacks/square", "/callbacks/stripe"} {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, f.srv.URL+path, strings.NewReader("{}"))
		if err != nil {
			t.Fatal(err)
		}
		resp := do(t, req)
		expectStatus(t, resp, http.StatusNotFound)
		resp.Body.Close()
	}
}

func TestCallback_BodyTooLarge(t *testing.T) {
	f := newFixture(t, api.WithMaxBodyBytes(16))

	resp := do(t, paddleRequest(t, f.srv.URL, "evt_big", "subscription.created"))
	expectStatus(t, resp, http.StatusRequestEntityTooLarge)
	resp.Body.Close()
}

func TestCallback_RateLimited(t *testing.T) {
	f := newFixture(t, api.WithRateLimit(1))

	resp := do(t, paddleRequest(t, f.srv.URL, "evt_r1", "subscription.created"))
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = do(t, paddleRequest(t, f.srv.URL, "evt_r2", "subscription.created"))
	expectStatus(t, resp, http.StatusTooManyRequests)
	resp.Body.Close()
}

func TestCallback_StoreUnavailable(t *testing.T) {
	f := newFixture(t)
	if err := f.store.Close(); err != nil {
		t.Fatal(err)
	}

	resp := do(t, paddleRequest(t, f.srv.URL, "evt_down", "subscription.created"))
	expectStatus(t, resp, http.StatusInternalServerError)
	resp.Body.Close()

	resp = get(t, f.srv.URL+"/healthz")
	expectStatus(t, resp, http.StatusServiceUnavailable)
	resp.Body.Close()
}

// --- Events ---

func TestEvents_Queries(t *testing.T) {
	f := newFixture(t)

	for _, id := range []string{"evt_a", "evt_b"} {
		resp := do(t, paddleRequest(t, f.srv.URL, id, "subscription.created"))
		expectStatus(t, resp, http.StatusOK)
		resp.Body.Close()
		time.Sleep(2 * time.Millisecond)
	}
	resp := do(t, paytabsRequest(t, f.srv.URL, "TST2403", ""))
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// List, newest first.
	resp = get(t, f.srv.URL+"/events?gateway=paddle&limit=1")
	expectStatus(t, resp, http.StatusOK)
	var list []event.Event
	decodeBody(t, resp, &list)
	if len(list) != 1 || list[0].EventID != "evt_b" {
		t.Fatalf("unexpected list: %+v", list)
	}

	resp = get(t, f.srv.URL+"/events")
	expectStatus(t, resp, http.StatusOK)
	decodeBody(t, resp, &list)
	if len(list) != 3 {
		t.Fatalf("expected 3 events, got %d", len(list))
	}

	resp = get(t, f.srv.URL+"/events?gateway=square")
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	// Stats.
	resp = get(t, f.srv.URL+"/events/stats?hours=1")
	expectStatus(t, resp, http.StatusOK)
	var stats event.Stats
	decodeBody(t, resp, &stats)
	if stats.Total != 3 || stats.Processed != 2 || stats.Skipped != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.ByType["subscription.created"] != 2 || stats.ByType["payment.authorized"] != 1 {
		t.Fatalf("unexpected by_type: %v", stats.ByType)
	}

	// Get.
	resp = get(t, f.srv.URL+"/events/paytabs/TST2403")
	expectStatus(t, resp, http.StatusOK)
	var evt event.Event
	decodeBody(t, resp, &evt)
	if evt.Status != event.StatusSkipped || evt.Error != dispatch.ReasonUnhandled {
		t.Fatalf("unexpected event: %+v", evt)
	}

	resp = get(t, f.srv.URL+"/events/paytabs/missing")
	expectStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

// --- Health & middleware ---

func TestHealthz(t *testing.T) {
	f := newFixture(t)

	resp := get(t, f.srv.URL+"/healthz")
	expectStatus(t, resp, http.StatusOK)
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["status"] != "ok" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestRequestIDHeader(t *testing.T) {
	f := newFixture(t)

	resp := get(t, f.srv.URL+"/healthz")
	resp.Body.Close()
	if resp.Header.Get(api.RequestIDHeader) == "" {
		t.Fatal("expected generated request id")
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, f.srv.URL+"/healthz", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set(api.RequestIDHeader, "req-42")
	resp = do(t, req)
	resp.Body.Close()
	if got := resp.Header.Get(api.RequestIDHeader); got != "req-42" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
}
