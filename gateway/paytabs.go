package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mahmoodhamdi/hookgate/signature"
)

// PayTabsParser verifies PayTabs IPN callbacks signed with the profile's
// server key (hex HMAC-SHA256 of the body in the "Signature" header).
type PayTabsParser struct {
	ServerKey string
}

type payTabsCallback struct {
	TranRef       string `json:"tran_ref"`
	TranType      string `json:"tran_type"`
	CartID        string `json:"cart_id"`
	PaymentResult struct {
		ResponseStatus  string `json:"response_status"`
		ResponseMessage string `json:"response_message"`
	} `json:"payment_result"`
}

var payTabsStatuses = map[string]string{
	"A": "authorized",
	"H": "hold",
	"P": "pending",
	"V": "voided",
	"E": "error",
	"D": "declined",
	"X": "expired",
}

func (c *payTabsCallback) eventType() string {
	kind := "payment"
	if tt := strings.ToLower(strings.TrimSpace(c.TranType)); tt != "" && tt != "sale" {
		kind = tt
	}
	status, ok := payTabsStatuses[strings.ToUpper(c.PaymentResult.ResponseStatus)]
	if !ok {
		status = "unknown"
	}
	return kind + "." + status
}

// Gateway implements Parser.
func (p *PayTabsParser) Gateway() Gateway { return PayTabs }

// Parse implements Parser. The transaction reference is the event id.
func (p *PayTabsParser) Parse(r *http.Request, body []byte) (*Callback, error) {
	if !signature.Equal(signature.SHA256(p.ServerKey, body), r.Header.Get("Signature")) {
		return nil, fmt.Errorf("%w: paytabs: signature mismatch", signature.ErrInvalidSignature)
	}

	var cb payTabsCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, fmt.Errorf("gateway/paytabs: decode body: %w", err)
	}
	payload, err := decodeObject(PayTabs, body)
	if err != nil {
		return nil, err
	}

	return &Callback{
		Gateway:   PayTabs,
		EventID:   cb.TranRef,
		EventType: cb.eventType(),
		Payload:   payload,
		Raw:       body,
	}, nil
}
