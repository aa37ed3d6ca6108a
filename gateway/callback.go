package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// Callback is a verified gateway callback reduced to the tuple the
// idempotency gate works on.
type Callback struct {
	Gateway   Gateway
	EventID   string
	EventType string
	Payload   map[string]any
	Raw       []byte
}

// Parser verifies and decodes the callbacks of one gateway.
type Parser interface {
	// Gateway returns the gateway this parser handles.
	Gateway() Gateway

	// Parse verifies r's signature over body and extracts the callback.
	// Signature failures wrap signature.ErrInvalidSignature.
	Parse(r *http.Request, body []byte) (*Callback, error)
}

// Registry maps gateways to their parsers. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	parsers map[Gateway]Parser
}

// NewRegistry returns a Registry holding the given parsers.
func NewRegistry(parsers ...Parser) *Registry {
	r := &Registry{parsers: make(map[Gateway]Parser, len(parsers))}
	for _, p := range parsers {
		r.Register(p)
	}
	return r
}

// Register adds or replaces the parser for p.Gateway().
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[p.Gateway()] = p
}

// Lookup returns the parser registered for g.
func (r *Registry) Lookup(g Gateway) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[g]
	return p, ok
}

// Gateways returns the gateways that have a parser, in All() order.
func (r *Registry) Gateways() []Gateway {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Gateway, 0, len(r.parsers))
	for _, g := range All() {
		if _, ok := r.parsers[g]; ok {
			out = append(out, g)
		}
	}
	return out
}

func decodeObject(gw Gateway, body []byte) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("gateway/%s: decode body: %w", gw, err)
	}
	return payload, nil
}
