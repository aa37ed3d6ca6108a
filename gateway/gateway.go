// Package gateway enumerates the payment providers whose callbacks hookgate
// ingests, and turns their raw HTTP callbacks into (gateway, event id,
// event type, payload) tuples.
package gateway

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownGateway is returned for a gateway outside the supported set.
var ErrUnknownGateway = errors.New("hookgate: unknown gateway")

// Gateway identifies an external payment provider.
type Gateway string

// Supported gateways.
const (
	Stripe  Gateway = "stripe"
	Paymob  Gateway = "paymob"
	PayTabs Gateway = "paytabs"
	Paddle  Gateway = "paddle"
)

// All returns every supported gateway in a stable order.
func All() []Gateway {
	return []Gateway{Stripe, Paymob, PayTabs, Paddle}
}

// Valid reports whether g is one of the supported gateways.
func (g Gateway) Valid() bool {
	switch g {
	case Stripe, Paymob, PayTabs, Paddle:
		return true
	}
	return false
}

func (g Gateway) String() string { return string(g) }

// Parse converts s (case-insensitive) into a Gateway.
func Parse(s string) (Gateway, error) {
	g := Gateway(strings.ToLower(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownGateway, s)
	}
	return g, nil
}
