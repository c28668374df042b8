package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricing_Breakdown(t *testing.T) {
	tests := []struct {
		name         string
		rate         string
		total        string
		wantSubtotal string
		wantTax      string
	}{
		{name: "round total", rate: "0.15", total: "115.00", wantSubtotal: "100.00", wantTax: "15.00"},
		{name: "fractional", rate: "0.15", total: "10", wantSubtotal: "8.70", wantTax: "1.30"},
		{name: "small amount", rate: "0.15", total: "0.01", wantSubtotal: "0.01", wantTax: "0"},
		{name: "zero rate", rate: "0", total: "42.50", wantSubtotal: "42.50", wantTax: "0"},
		{name: "other rate", rate: "0.05", total: "105", wantSubtotal: "100", wantTax: "5"},
		{name: "total rounded to cents", rate: "0.15", total: "115.004", wantSubtotal: "100.00", wantTax: "15.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Pricing{TaxRate: decimal.RequireFromString(tt.rate), Currency: "SAR"}

			subtotal, tax := p.Breakdown(decimal.RequireFromString(tt.total))
			assert.True(t, decimal.RequireFromString(tt.wantSubtotal).Equal(subtotal), "subtotal: got %s", subtotal)
			assert.True(t, decimal.RequireFromString(tt.wantTax).Equal(tax), "tax: got %s", tax)
		})
	}
}

func TestPricing_BreakdownSumsToTotal(t *testing.T) {
	p := DefaultPricing()
	for _, s := range []string{"1", "3.33", "9.99", "57.10", "115", "1234.56", "99999.99"} {
		total := decimal.RequireFromString(s)
		subtotal, tax := p.Breakdown(total)

		assert.True(t, subtotal.Add(tax).Equal(total.Round(2)), "total %s: %s + %s", s, subtotal, tax)

		exact := total.Div(decimal.RequireFromString("1.15"))
		assert.True(t, subtotal.Sub(exact).Abs().LessThanOrEqual(decimal.RequireFromString("0.005")),
			"total %s: subtotal %s too far from %s", s, subtotal, exact)
	}
}

func TestPricing_Validate(t *testing.T) {
	require.NoError(t, DefaultPricing().Validate())

	err := Pricing{TaxRate: decimal.NewFromInt(-1), Currency: "SAR"}.Validate()
	require.Error(t, err)

	err = Pricing{TaxRate: decimal.Zero}.Validate()
	require.Error(t, err)
}
