package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/mahmoodhamdi/hookgate/signature"
)

// DefaultPaddleTolerance bounds the age of a Paddle-Signature timestamp.
const DefaultPaddleTolerance = 5 * time.Minute

// PaddleParser verifies Paddle Billing notifications. The Paddle-Signature
// header has the form "ts=<unix>;h1=<hex hmac-sha256 of ts:body>".
type PaddleParser struct {
	Secret string

	// Tolerance is the maximum accepted timestamp skew. Zero uses
	// DefaultPaddleTolerance; a negative value disables the check.
	Tolerance time.Duration
}

type paddleNotification struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
}

// Gateway implements Parser.
func (p *PaddleParser) Gateway() Gateway { return Paddle }

// Parse implements Parser.
func (p *PaddleParser) Parse(r *http.Request, body []byte) (*Callback, error) {
	parts := signature.ParseHeader(r.Header.Get("Paddle-Signature"))
	ts, err := strconv.ParseInt(parts["ts"], 10, 64)
	if err != nil || parts["h1"] == "" {
		return nil, fmt.Errorf("%w: paddle: malformed Paddle-Signature header", signature.ErrInvalidSignature)
	}

	tolerance := p.Tolerance
	if tolerance == 0 {
		tolerance = DefaultPaddleTolerance
	}
	if tolerance > 0 {
		if skew := now().Sub(time.Unix(ts, 0)); skew > tolerance || skew < -tolerance {
			return nil, fmt.Errorf("%w: paddle: timestamp outside tolerance", signature.ErrInvalidSignature)
		}
	}

	if !signature.Equal(signature.Timestamped(p.Secret, ts, body), parts["h1"]) {
		return nil, fmt.Errorf("%w: paddle: h1 mismatch", signature.ErrInvalidSignature)
	}

	var n paddleNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return nil, fmt.Errorf("gateway/paddle: decode body: %w", err)
	}
	payload, err := decodeObject(Paddle, body)
	if err != nil {
		return nil, err
	}

	return &Callback{
		Gateway:   Paddle,
		EventID:   n.EventID,
		EventType: n.EventType,
		Payload:   payload,
		Raw:       body,
	}, nil
}
