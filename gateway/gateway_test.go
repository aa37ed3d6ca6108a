package gateway

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Gateway
		wantErr bool
	}{
		{"stripe", Stripe, false},
		{"Paymob", Paymob, false},
		{" PAYTABS ", PayTabs, false},
		{"paddle", Paddle, false},
		{"paypal", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknownGateway))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllValid(t *testing.T) {
	all := All()
	require.Len(t, all, 4)
	for _, g := range all {
		assert.True(t, g.Valid(), "gateway %q should be valid", g)
	}
	assert.False(t, Gateway("square").Valid())
}

func TestGenerateEventID(t *testing.T) {
	fixed := time.UnixMilli(1700000000123)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = time.Now })

	got := GenerateEventID(Paymob, "tx_42", "transaction.success")
	assert.Equal(t, "paymob:tx_42:transaction.success:1700000000123", got)
}

func TestGenerateEventIDVariesOverTime(t *testing.T) {
	tick := time.UnixMilli(1700000000000)
	now = func() time.Time {
		tick = tick.Add(time.Millisecond)
		return tick
	}
	t.Cleanup(func() { now = time.Now })

	a := GenerateEventID(PayTabs, "TST1", "payment.authorized")
	b := GenerateEventID(PayTabs, "TST1", "payment.authorized")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "paytabs:TST1:payment.authorized:"))
	assert.True(t, strings.HasPrefix(b, "paytabs:TST1:payment.authorized:"))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(&StripeParser{Secret: "whsec_x"}, &PaddleParser{Secret: "pdl"})

	p, ok := r.Lookup(Stripe)
	require.True(t, ok)
	assert.Equal(t, Stripe, p.Gateway())

	_, ok = r.Lookup(Paymob)
	assert.False(t, ok)

	r.Register(&PaymobParser{HMACSecret: "pm"})
	assert.Equal(t, []Gateway{Stripe, Paymob, Paddle}, r.Gateways())
}
