package xrechnung

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewAmountRoundsHalfEven(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"9.481", "9.48"},
		{"0.125", "0.12"},
		{"0.135", "0.14"},
		{"49.9", "49.90"},
		{"0", "0.00"},
	}

	for _, c := range cases {
		d, err := decimal.NewFromString(c.in)
		if err != nil {
			t.Fatalf("parse %q: %v", c.in, err)
		}
		if got := NewAmount(d).Value; got != c.want {
			t.Errorf("NewAmount(%s) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNewAmountWithCurrency(t *testing.T) {
	a := NewAmountWithCurrency(decimal.RequireFromString("9.48"), "EUR")
	if a.Value != "9.48" || a.CurrencyID != "EUR" {
		t.Errorf("got %+v, want value 9.48 currency EUR", a)
	}
}

func TestNewDateTimeCompactFormat(t *testing.T) {
	d := NewDateTime(time.Date(2023, 4, 7, 12, 30, 0, 0, time.Local))
	if d.DateTimeString.Format != DateFormatCompact {
		t.Errorf("format = %q, want %q", d.DateTimeString.Format, DateFormatCompact)
	}
	if d.DateTimeString.Value != "20230407" {
		t.Errorf("value = %q, want 20230407", d.DateTimeString.Value)
	}
}

func TestNewIDWithScheme(t *testing.T) {
	id := NewIDWithScheme("ABCDEFGH", SchemeBuyerAssignedID)
	if id.Value != "ABCDEFGH" || id.SchemeID != "XR02" {
		t.Errorf("got %+v", id)
	}
}
