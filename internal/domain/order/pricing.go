package order

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Default pricing parameters.
const (
	DefaultCurrency = "SAR"
	DefaultTaxRate  = "0.15"
)

// Pricing derives the monetary breakdown of a tax-inclusive total.
type Pricing struct {
	TaxRate  decimal.Decimal
	Currency string
}

// DefaultPricing returns 15% inclusive tax in SAR.
func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:  decimal.RequireFromString(DefaultTaxRate),
		Currency: DefaultCurrency,
	}
}

// Validate checks that the pricing parameters are usable.
func (p Pricing) Validate() error {
	if p.TaxRate.IsNegative() {
		return errors.Errorf("tax rate %s must not be negative", p.TaxRate)
	}
	if p.Currency == "" {
		return errors.New("currency is required")
	}
	return nil
}

// Breakdown splits total into subtotal and tax. Subtotal is rounded to cents
// and tax takes the remainder, so subtotal+tax always equals the rounded total.
func (p Pricing) Breakdown(total decimal.Decimal) (subtotal, tax decimal.Decimal) {
	total = total.Round(2)
	subtotal = total.Div(decimal.NewFromInt(1).Add(p.TaxRate)).Round(2)
	tax = total.Sub(subtotal)
	return subtotal, tax
}
