// Package model holds the input records for the DiGA billing engine.
// All values are plain immutable structs; nothing in this package is
// mutated after construction.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DigaInformation is the static, process-lifetime configuration describing
// the DiGA being served and the manufacturing company issuing invoices.
// It is loaded once by the caller and treated as read-only here.
type DigaInformation struct {
	// DigaID is the five-character DiGA directory identifier.
	DigaID string
	// DigaName is the display name of the DiGA, used as the invoiced
	// product name.
	DigaName string
	// DigaDescription is free text describing the DiGA. When empty, a
	// default description is generated at assembly time.
	DigaDescription string
	// ManufacturingCompanyIK is the manufacturer's IK number, with or
	// without the "IK" prefix.
	ManufacturingCompanyIK string
	// ManufacturingCompanyName is the registered company name.
	ManufacturingCompanyName string
	// CompanyVATRegistration is the VAT registration id (e.g. DE123456789).
	// Optional; omitted from invoices when empty.
	CompanyVATRegistration string
	// ContactPersonForBilling is the billing contact. Optional.
	ContactPersonForBilling *ContactPerson
	// CompanyTradeAddress is the manufacturer's postal address. Optional.
	CompanyTradeAddress *PostalAddress
	// NetPricePerPrescription is the net price billed per dispensed
	// prescription, currency-agnostic.
	NetPricePerPrescription decimal.Decimal
	// ApplicableVATPercent is the VAT rate applied when ReverseChargeVAT
	// is false, e.g. 19.
	ApplicableVATPercent decimal.Decimal
	// ReverseChargeVAT marks the manufacturer as billing under the
	// reverse-charge regime (buyer remits VAT).
	ReverseChargeVAT bool
}

// ContactPerson identifies a billing contact at the manufacturer.
type ContactPerson struct {
	FullName     string
	PhoneNumber  string
	EmailAddress string
}

// PostalAddress is a postal address as it appears on invoices.
type PostalAddress struct {
	AddressLine string
	PostalCode  string
	City        string
	CountryCode string
}

// DigaCodeInformation carries one prescription code to be validated against
// an insurer. Transient; one per validation call.
type DigaCodeInformation struct {
	// FullDigaCode is the complete Freischaltcode as handed in by the
	// patient.
	FullDigaCode string
	// InsuranceCompanyIK is the target insurer's IK number.
	InsuranceCompanyIK string
}

// DigaInvoice carries the per-invoice data for billing one dispensed
// prescription. Transient; one per billing call.
type DigaInvoice struct {
	// InvoiceID is the caller-assigned invoice number. It must be unique
	// across invoices; uniqueness is not enforced here.
	InvoiceID string
	// IssueDate is the date the invoice is issued.
	IssueDate time.Time
	// DateOfServiceProvision is the date the DiGA was dispensed.
	DateOfServiceProvision time.Time
	// DigavEID is the dispensation id assigned when the code was validated.
	DigavEID string
	// ValidatedDigaCode is the prescription code that was validated.
	ValidatedDigaCode string
	// InvoiceCurrencyCode is the ISO 4217 currency, e.g. "EUR".
	InvoiceCurrencyCode string
}

// DigaBillingInformation identifies the insurer being billed on a specific
// invoice. Transient.
type DigaBillingInformation struct {
	InsuranceCompanyIK      string
	InsuranceCompanyName    string
	InsuranceCompanyAddress PostalAddress
}
