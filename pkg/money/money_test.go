package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"pcb_bistro_backend/pkg/money"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBreakdown(t *testing.T) {
	tests := []struct {
		name    string
		gross   string
		wantNet string
		wantVAT string
	}{
		{name: "typical_order_total", gross: "15.50", wantNet: "12.55", wantVAT: "2.95"},
		{name: "pickup_scenario_total", gross: "20.40", wantNet: "16.52", wantVAT: "3.88"},
		{name: "zero", gross: "0", wantNet: "0.00", wantVAT: "0.00"},
		{name: "one_cent", gross: "0.01", wantNet: "0.01", wantVAT: "0.00"},
		{name: "tie_rounds_up", gross: "2.50", wantNet: "2.02", wantVAT: "0.48"}, // 0.475 -> 0.48
		{name: "large_amount", gross: "1234.56", wantNet: "999.99", wantVAT: "234.57"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := money.Breakdown(dec(tt.gross))
			assert.True(t, dec(tt.wantNet).Equal(b.NetAmount), "net: want %s, got %s", tt.wantNet, b.NetAmount)
			assert.True(t, dec(tt.wantVAT).Equal(b.VATAmount), "vat: want %s, got %s", tt.wantVAT, b.VATAmount)
			assert.True(t, dec(tt.gross).Equal(b.GrossAmount), "gross: want %s, got %s", tt.gross, b.GrossAmount)
		})
	}
}

// Net + VAT must reconstruct the gross for any amount, post-rounding.
func TestBreakdownRoundTrip(t *testing.T) {
	for cents := int64(0); cents <= 5000; cents++ {
		gross := decimal.New(cents, -2)
		b := money.Breakdown(gross)
		assert.True(t, b.NetAmount.Add(b.VATAmount).Equal(b.GrossAmount),
			"gross %s: %s + %s != %s", gross, b.NetAmount, b.VATAmount, b.GrossAmount)
	}
}

func TestBreakdownDeterministic(t *testing.T) {
	g := dec("47.83")
	first := money.Breakdown(g)
	second := money.Breakdown(g)
	assert.True(t, first.NetAmount.Equal(second.NetAmount))
	assert.True(t, first.VATAmount.Equal(second.VATAmount))
	assert.True(t, first.GrossAmount.Equal(second.GrossAmount))
}
