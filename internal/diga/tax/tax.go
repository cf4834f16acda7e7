// Package tax computes VAT amounts for DiGA invoices.
package tax

import "github.com/shopspring/decimal"

// Category codes mandated by the invoice schema (UNTDID 5305).
const (
	// CategoryStandard marks a line taxed at the standard domestic rate.
	CategoryStandard = "S"
	// CategoryReverseCharge marks a line where VAT liability shifts to the
	// buyer.
	CategoryReverseCharge = "AE"
)

var oneHundred = decimal.NewFromInt(100)

// Result holds the computed tax figures for one invoice. All monetary values
// are rounded half-even to two fractional digits; render them with
// StringFixed(2) so trailing zeros survive.
type Result struct {
	// TaxAmount is the VAT owed on the net price.
	TaxAmount decimal.Decimal
	// GrandTotal is the rounded net price plus TaxAmount.
	GrandTotal decimal.Decimal
	// CategoryCode is the schema tax category, CategoryStandard or
	// CategoryReverseCharge.
	CategoryCode string
	// EffectiveRate is the VAT percentage actually applied; zero under
	// reverse charge.
	EffectiveRate decimal.Decimal
}

// Compute derives the tax amount and grand total for a net price. Under
// reverse charge the line is zero-rated and categorized AE; otherwise the
// configured VAT percentage applies with category S. Pure function, no
// error path.
func Compute(netPrice, vatPercent decimal.Decimal, reverseCharge bool) Result {
	if reverseCharge {
		taxAmount := decimal.Zero.Round(2)
		return Result{
			TaxAmount:     taxAmount,
			GrandTotal:    netPrice.Add(taxAmount).RoundBank(2),
			CategoryCode:  CategoryReverseCharge,
			EffectiveRate: decimal.Zero,
		}
	}

	taxAmount := netPrice.Mul(vatPercent).Div(oneHundred).RoundBank(2)
	return Result{
		TaxAmount:     taxAmount,
		GrandTotal:    netPrice.Add(taxAmount).RoundBank(2),
		CategoryCode:  CategoryStandard,
		EffectiveRate: vatPercent,
	}
}
