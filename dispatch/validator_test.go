package dispatch_test

import (
	"testing"

	"github.com/mahmoodhamdi/hookgate/dispatch"
)

func invoiceSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"amount_cents": map[string]any{"type": "number"},
			"currency":     map[string]any{"type": "string"},
		},
		"required": []any{"amount_cents", "currency"},
	}
}

func TestValidatorNilSchema(t *testing.T) {
	v := dispatch.NewValidator()
	if err := v.Validate(nil, map[string]any{"key": "value"}); err != nil {
		t.Fatal("nil schema should skip validation, got:", err)
	}
}

func TestValidatorValidPayload(t *testing.T) {
	v := dispatch.NewValidator()
	data := map[string]any{"amount_cents": 10000.0, "currency": "EGP"}
	if err := v.Validate(invoiceSchema(), data); err != nil {
		t.Fatal("valid payload should pass, got:", err)
	}
}

func TestValidatorMissingRequired(t *testing.T) {
	v := dispatch.NewValidator()
	if err := v.Validate(invoiceSchema(), map[string]any{"currency": "EGP"}); err == nil {
		t.Fatal("expected validation error for missing required field")
	}
}

func TestValidatorWrongType(t *testing.T) {
	v := dispatch.NewValidator()
	data := map[string]any{"amount_cents": "ten", "currency": "EGP"}
	if err := v.Validate(invoiceSchema(), data); err == nil {
		t.Fatal("expected validation error for wrong type")
	}
}

func TestValidatorCachesCompiledSchema(t *testing.T) {
	v := dispatch.NewValidator()
	data := map[string]any{"amount_cents": 1.0, "currency": "USD"}
	for range 3 {
		if err := v.Validate(invoiceSchema(), data); err != nil {
			t.Fatal(err)
		}
	}
}

func TestValidatorInvalidSchema(t *testing.T) {
	v := dispatch.NewValidator()
	bad := map[string]any{"type": 12}
	if err := v.Validate(bad, map[string]any{}); err == nil {
		t.Fatal("expected compilation error for invalid schema")
	}
}
