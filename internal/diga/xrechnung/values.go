package xrechnung

import (
	"time"

	"github.com/shopspring/decimal"
)

// ID is an identifier with an optional scheme qualifier.
type ID struct {
	Value    string `xml:",chardata"`
	SchemeID string `xml:"schemeID,attr,omitempty"`
}

// Text is a plain text value.
type Text struct {
	Value string `xml:",chardata"`
}

// Code is a coded value drawn from an external code list.
type Code struct {
	Value string `xml:",chardata"`
}

// Amount is a monetary value, rendered with exactly two fractional digits.
// The currency attribute appears only where the schema requires it.
type Amount struct {
	Value      string `xml:",chardata"`
	CurrencyID string `xml:"currencyID,attr,omitempty"`
}

// Percent is a percentage rate.
type Percent struct {
	Value string `xml:",chardata"`
}

// Quantity is a quantity with a unit code.
type Quantity struct {
	Value    string `xml:",chardata"`
	UnitCode string `xml:"unitCode,attr"`
}

// DateTime wraps a qualified date string.
type DateTime struct {
	DateTimeString DateTimeString `xml:"udt:DateTimeString"`
}

// DateTimeString is a date in the format named by its qualifier.
type DateTimeString struct {
	Value  string `xml:",chardata"`
	Format string `xml:"format,attr"`
}

// NewID builds an unqualified identifier.
func NewID(value string) ID {
	return ID{Value: value}
}

// NewIDWithScheme builds an identifier qualified by a scheme code.
func NewIDWithScheme(value, schemeID string) ID {
	return ID{Value: value, SchemeID: schemeID}
}

// NewText builds a text value.
func NewText(value string) Text {
	return Text{Value: value}
}

// NewCode builds a coded value.
func NewCode(value string) Code {
	return Code{Value: value}
}

// NewAmount builds a monetary value rounded half-even to two fractional
// digits. A value never reaches serialization un-rounded.
func NewAmount(value decimal.Decimal) Amount {
	return Amount{Value: value.RoundBank(2).StringFixed(2)}
}

// NewAmountWithCurrency builds a monetary value carrying a currency code.
func NewAmountWithCurrency(value decimal.Decimal, currencyID string) Amount {
	return Amount{Value: value.RoundBank(2).StringFixed(2), CurrencyID: currencyID}
}

// NewPercent builds a percentage rate.
func NewPercent(value decimal.Decimal) Percent {
	return Percent{Value: value.String()}
}

// NewQuantity builds a quantity with its unit code.
func NewQuantity(value decimal.Decimal, unitCode string) Quantity {
	return Quantity{Value: value.String(), UnitCode: unitCode}
}

// FormatCompactDate renders a calendar date as yyyyMMdd in the process's
// local time zone.
func FormatCompactDate(t time.Time) string {
	return t.In(time.Local).Format("20060102")
}

// NewDateTime builds a format-102 compact date value.
func NewDateTime(t time.Time) DateTime {
	return DateTime{DateTimeString: DateTimeString{
		Value:  FormatCompactDate(t),
		Format: DateFormatCompact,
	}}
}
