package tax

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeStandardRate(t *testing.T) {
	cases := []struct {
		name       string
		netPrice   string
		vatPercent string
		wantTax    string
		wantTotal  string
	}{
		{"nineteen percent", "49.90", "19", "9.48", "59.38"},
		{"seven percent", "100.00", "7", "7.00", "107.00"},
		{"zero price", "0", "19", "0.00", "0.00"},
		{"half rounds to even", "10.00", "1.25", "0.12", "10.12"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res := Compute(dec(c.netPrice), dec(c.vatPercent), false)

			if res.TaxAmount.StringFixed(2) != c.wantTax {
				t.Errorf("tax = %s, want %s", res.TaxAmount, c.wantTax)
			}
			if res.GrandTotal.StringFixed(2) != c.wantTotal {
				t.Errorf("grand total = %s, want %s", res.GrandTotal, c.wantTotal)
			}
			if res.CategoryCode != CategoryStandard {
				t.Errorf("category = %s, want %s", res.CategoryCode, CategoryStandard)
			}
			if !res.EffectiveRate.Equal(dec(c.vatPercent)) {
				t.Errorf("rate = %s, want %s", res.EffectiveRate, c.vatPercent)
			}
		})
	}
}

func TestComputeReverseCharge(t *testing.T) {
	res := Compute(dec("49.90"), dec("19"), true)

	if res.TaxAmount.StringFixed(2) != "0.00" {
		t.Errorf("tax = %s, want 0.00", res.TaxAmount)
	}
	if res.GrandTotal.StringFixed(2) != "49.90" {
		t.Errorf("grand total = %s, want 49.90", res.GrandTotal)
	}
	if res.CategoryCode != CategoryReverseCharge {
		t.Errorf("category = %s, want %s", res.CategoryCode, CategoryReverseCharge)
	}
	if !res.EffectiveRate.IsZero() {
		t.Errorf("rate = %s, want 0", res.EffectiveRate)
	}
}

func TestComputeZeroPriceReverseCharge(t *testing.T) {
	res := Compute(decimal.Zero, dec("19"), true)
	if res.TaxAmount.StringFixed(2) != "0.00" || res.GrandTotal.StringFixed(2) != "0.00" {
		t.Errorf("got tax %s total %s, want 0.00 each", res.TaxAmount, res.GrandTotal)
	}
}
