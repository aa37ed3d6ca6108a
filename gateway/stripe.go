package gateway

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/mahmoodhamdi/hookgate/signature"
)

// StripeParser verifies Stripe-Signature headers with the endpoint secret.
type StripeParser struct {
	Secret string
}

// Gateway implements Parser.
func (p *StripeParser) Gateway() Gateway { return Stripe }

// Parse implements Parser. Event id and type come from the Stripe event.
func (p *StripeParser) Parse(r *http.Request, body []byte) (*Callback, error) {
	sigHeader := r.Header.Get("Stripe-Signature")
	if strings.TrimSpace(sigHeader) == "" {
		return nil, fmt.Errorf("%w: stripe: missing Stripe-Signature header", signature.ErrInvalidSignature)
	}

	evt, err := webhook.ConstructEventWithOptions(body, sigHeader, p.Secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: stripe: %v", signature.ErrInvalidSignature, err)
	}

	payload, err := decodeObject(Stripe, body)
	if err != nil {
		return nil, err
	}

	return &Callback{
		Gateway:   Stripe,
		EventID:   evt.ID,
		EventType: string(evt.Type),
		Payload:   payload,
		Raw:       body,
	}, nil
}
