package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mahmoodhamdi/hookgate/signature"
)

// PaymobParser verifies Paymob transaction processed callbacks. Paymob signs
// a fixed concatenation of transaction fields with HMAC-SHA512 and sends the
// digest in the "hmac" query parameter.
type PaymobParser struct {
	HMACSecret string
}

type paymobCallback struct {
	Type string            `json:"type"`
	Obj  paymobTransaction `json:"obj"`
}

type paymobTransaction struct {
	ID                   int64  `json:"id"`
	AmountCents          int64  `json:"amount_cents"`
	CreatedAt            string `json:"created_at"`
	Currency             string `json:"currency"`
	ErrorOccured         bool   `json:"error_occured"`
	HasParentTransaction bool   `json:"has_parent_transaction"`
	IntegrationID        int64  `json:"integration_id"`
	Is3DSecure           bool   `json:"is_3d_secure"`
	IsAuth               bool   `json:"is_auth"`
	IsCapture            bool   `json:"is_capture"`
	IsRefunded           bool   `json:"is_refunded"`
	IsStandalonePayment  bool   `json:"is_standalone_payment"`
	IsVoided             bool   `json:"is_voided"`
	Order                struct {
		ID int64 `json:"id"`
	} `json:"order"`
	Owner      int64 `json:"owner"`
	Pending    bool  `json:"pending"`
	SourceData struct {
		Pan     string `json:"pan"`
		SubType string `json:"sub_type"`
		Type    string `json:"type"`
	} `json:"source_data"`
	Success bool `json:"success"`
}

// hmacContent concatenates the signed fields in Paymob's documented order.
func (t *paymobTransaction) hmacContent() string {
	fields := []string{
		strconv.FormatInt(t.AmountCents, 10),
		t.CreatedAt,
		t.Currency,
		strconv.FormatBool(t.ErrorOccured),
		strconv.FormatBool(t.HasParentTransaction),
		strconv.FormatInt(t.ID, 10),
		strconv.FormatInt(t.IntegrationID, 10),
		strconv.FormatBool(t.Is3DSecure),
		strconv.FormatBool(t.IsAuth),
		strconv.FormatBool(t.IsCapture),
		strconv.FormatBool(t.IsRefunded),
		strconv.FormatBool(t.IsStandalonePayment),
		strconv.FormatBool(t.IsVoided),
		strconv.FormatInt(t.Order.ID, 10),
		strconv.FormatInt(t.Owner, 10),
		strconv.FormatBool(t.Pending),
		t.SourceData.Pan,
		t.SourceData.SubType,
		t.SourceData.Type,
		strconv.FormatBool(t.Success),
	}
	return strings.Join(fields, "")
}

func (t *paymobTransaction) eventType() string {
	switch {
	case t.IsRefunded:
		return "transaction.refunded"
	case t.IsVoided:
		return "transaction.voided"
	case t.Pending:
		return "transaction.pending"
	case t.Success:
		return "transaction.success"
	default:
		return "transaction.failed"
	}
}

// Gateway implements Parser.
func (p *PaymobParser) Gateway() Gateway { return Paymob }

// Parse implements Parser. Paymob callbacks carry no event id, so the
// transaction id and derived event type form one. A callback without a
// transaction id falls back to GenerateEventID over the order id.
func (p *PaymobParser) Parse(r *http.Request, body []byte) (*Callback, error) {
	var cb paymobCallback
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, fmt.Errorf("gateway/paymob: decode body: %w", err)
	}

	if !signature.Equal(signature.SHA512(p.HMACSecret, []byte(cb.Obj.hmacContent())), r.URL.Query().Get("hmac")) {
		return nil, fmt.Errorf("%w: paymob: hmac mismatch", signature.ErrInvalidSignature)
	}

	payload, err := decodeObject(Paymob, body)
	if err != nil {
		return nil, err
	}

	eventType := cb.Obj.eventType()
	var eventID string
	if cb.Obj.ID != 0 {
		eventID = strconv.FormatInt(cb.Obj.ID, 10) + ":" + eventType
	} else {
		eventID = GenerateEventID(Paymob, strconv.FormatInt(cb.Obj.Order.ID, 10), eventType)
	}

	return &Callback{
		Gateway:   Paymob,
		EventID:   eventID,
		EventType: eventType,
		Payload:   payload,
		Raw:       body,
	}, nil
}
