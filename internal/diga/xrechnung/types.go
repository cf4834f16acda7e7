// Package xrechnung provides the Cross Industry Invoice XML structures used
// for DiGA billing, profiled for XRechnung 2.2. Receiving systems validate
// strictly against the external schema; element order and the fixed code
// values in this package are load-bearing.
package xrechnung

import "encoding/xml"

// XML namespace constants for the Cross Industry Invoice D16B vocabulary.
const (
	NamespaceRSM = "urn:un:unece:uncefact:data:standard:CrossIndustryInvoice:100"
	NamespaceRAM = "urn:un:unece:uncefact:data:standard:ReusableAggregateBusinessInformationEntity:100"
	NamespaceUDT = "urn:un:unece:uncefact:data:standard:UnqualifiedDataType:100"
)

// GuidelineXRechnung22 declares conformance to the XRechnung 2.2 profile.
// The value is mandated by the receiving validators and never varies.
const GuidelineXRechnung22 = "urn:cen.eu:en16931:2017#compliant#urn:xoev-de:kosit:standard:xrechnung_2.2#conformant#urn:xoev-de:kosit:extension:xrechnung_2.2"

// Scheme identifiers qualifying what kind of code an identifier carries.
const (
	SchemeProductGlobalID = "XR01" // dispensation id (digavEid)
	SchemeBuyerAssignedID = "XR02" // validated Freischaltcode
	SchemePartyID         = "XR03" // legal-organization / party id
	SchemeVATRegistration = "VA"   // tax registration id
)

// Externally mandated document codes.
const (
	// DocumentTypeCommercialInvoice is UNTDID 1001 code 380.
	DocumentTypeCommercialInvoice = "380"
	// PaymentMeansStandingAgreement is UNTDID 4461 code 57.
	PaymentMeansStandingAgreement = "57"
	// UnitCodeEach is UN/ECE Recommendation 20 code C62 ("one").
	UnitCodeEach = "C62"
	// TaxTypeVAT is the UNTDID 5153 duty/tax type for value added tax.
	TaxTypeVAT = "VAT"
	// DateFormatCompact is the qualifier for yyyyMMdd date strings.
	DateFormatCompact = "102"
)

// BuyerReferencePlaceholder fills the mandatory buyer reference; DiGA
// invoices carry no routing id, but the element may not be absent.
const BuyerReferencePlaceholder = "Leitweg-ID"

// CrossIndustryInvoice is the invoice document root.
type CrossIndustryInvoice struct {
	XMLName                     xml.Name                    `xml:"rsm:CrossIndustryInvoice"`
	XmlnsRSM                    string                      `xml:"xmlns:rsm,attr"`
	XmlnsRAM                    string                      `xml:"xmlns:ram,attr"`
	XmlnsUDT                    string                      `xml:"xmlns:udt,attr"`
	ExchangedDocumentContext    ExchangedDocumentContext    `xml:"rsm:ExchangedDocumentContext"`
	ExchangedDocument           ExchangedDocument           `xml:"rsm:ExchangedDocument"`
	SupplyChainTradeTransaction SupplyChainTradeTransaction `xml:"rsm:SupplyChainTradeTransaction"`
}

// ExchangedDocumentContext declares which guideline the document conforms to.
type ExchangedDocumentContext struct {
	GuidelineSpecifiedDocumentContextParameter []DocumentContextParameter `xml:"ram:GuidelineSpecifiedDocumentContextParameter"`
}

// DocumentContextParameter carries one guideline identifier.
type DocumentContextParameter struct {
	ID ID `xml:"ram:ID"`
}

// ExchangedDocument is the invoice header: number, type code and issue date.
type ExchangedDocument struct {
	ID            ID       `xml:"ram:ID"`
	TypeCode      Code     `xml:"ram:TypeCode"`
	IssueDateTime DateTime `xml:"ram:IssueDateTime"`
}

// SupplyChainTradeTransaction holds the invoiced transaction: line items,
// parties, delivery and settlement.
type SupplyChainTradeTransaction struct {
	IncludedSupplyChainTradeLineItem []LineItem            `xml:"ram:IncludedSupplyChainTradeLineItem"`
	ApplicableHeaderTradeAgreement   HeaderTradeAgreement  `xml:"ram:ApplicableHeaderTradeAgreement"`
	ApplicableHeaderTradeDelivery    HeaderTradeDelivery   `xml:"ram:ApplicableHeaderTradeDelivery"`
	ApplicableHeaderTradeSettlement  HeaderTradeSettlement `xml:"ram:ApplicableHeaderTradeSettlement"`
}

// LineItem is one invoiced position. DiGA invoices carry exactly one.
type LineItem struct {
	AssociatedDocumentLineDocument DocumentLineDocument `xml:"ram:AssociatedDocumentLineDocument"`
	SpecifiedTradeProduct          TradeProduct         `xml:"ram:SpecifiedTradeProduct"`
	SpecifiedLineTradeAgreement    LineTradeAgreement   `xml:"ram:SpecifiedLineTradeAgreement"`
	SpecifiedLineTradeDelivery     LineTradeDelivery    `xml:"ram:SpecifiedLineTradeDelivery"`
	SpecifiedLineTradeSettlement   LineTradeSettlement  `xml:"ram:SpecifiedLineTradeSettlement"`
}

// DocumentLineDocument assigns the line sequence id.
type DocumentLineDocument struct {
	LineID ID `xml:"ram:LineID"`
}

// TradeProduct identifies what was dispensed.
type TradeProduct struct {
	GlobalID        *ID    `xml:"ram:GlobalID,omitempty"`
	BuyerAssignedID *ID    `xml:"ram:BuyerAssignedID,omitempty"`
	Name            []Text `xml:"ram:Name"`
	Description     *Text  `xml:"ram:Description,omitempty"`
}

// LineTradeAgreement carries the agreed net unit price.
type LineTradeAgreement struct {
	NetPriceProductTradePrice TradePrice `xml:"ram:NetPriceProductTradePrice"`
}

// TradePrice is a price expressed as one or more charge amounts.
type TradePrice struct {
	ChargeAmount []Amount `xml:"ram:ChargeAmount"`
}

// LineTradeDelivery carries the billed quantity.
type LineTradeDelivery struct {
	BilledQuantity Quantity `xml:"ram:BilledQuantity"`
}

// LineTradeSettlement carries the line-level tax and totals.
type LineTradeSettlement struct {
	ApplicableTradeTax                            []TradeTax          `xml:"ram:ApplicableTradeTax"`
	SpecifiedTradeSettlementLineMonetarySummation LineMonetarySummary `xml:"ram:SpecifiedTradeSettlementLineMonetarySummation"`
}

// LineMonetarySummary totals one line.
type LineMonetarySummary struct {
	LineTotalAmount []Amount `xml:"ram:LineTotalAmount"`
}

// TradeTax describes one applicable tax. Element order follows the schema
// sequence; CalculatedAmount and BasisAmount appear only at settlement level.
type TradeTax struct {
	CalculatedAmount      []Amount `xml:"ram:CalculatedAmount,omitempty"`
	TypeCode              Code     `xml:"ram:TypeCode"`
	BasisAmount           []Amount `xml:"ram:BasisAmount,omitempty"`
	CategoryCode          Code     `xml:"ram:CategoryCode"`
	RateApplicablePercent Percent  `xml:"ram:RateApplicablePercent"`
}

// HeaderTradeAgreement names the trading parties.
type HeaderTradeAgreement struct {
	BuyerReference   Text       `xml:"ram:BuyerReference"`
	SellerTradeParty TradeParty `xml:"ram:SellerTradeParty"`
	BuyerTradeParty  TradeParty `xml:"ram:BuyerTradeParty"`
}

// TradeParty is a seller, buyer or payee. Optional blocks are omitted from
// serialization when absent.
type TradeParty struct {
	ID                         []ID               `xml:"ram:ID"`
	Name                       Text               `xml:"ram:Name"`
	SpecifiedLegalOrganization *LegalOrganization `xml:"ram:SpecifiedLegalOrganization,omitempty"`
	DefinedTradeContact        []TradeContact     `xml:"ram:DefinedTradeContact,omitempty"`
	PostalTradeAddress         *TradeAddress      `xml:"ram:PostalTradeAddress,omitempty"`
	SpecifiedTaxRegistration   []TaxRegistration  `xml:"ram:SpecifiedTaxRegistration,omitempty"`
}

// LegalOrganization is attached to the buyer under reverse-charge VAT.
type LegalOrganization struct {
	ID                  ID   `xml:"ram:ID"`
	TradingBusinessName Text `xml:"ram:TradingBusinessName"`
}

// TradeContact is a billing contact person.
type TradeContact struct {
	PersonName                      Text                    `xml:"ram:PersonName"`
	TelephoneUniversalCommunication *UniversalCommunication `xml:"ram:TelephoneUniversalCommunication,omitempty"`
	EmailURIUniversalCommunication  *UniversalCommunication `xml:"ram:EmailURIUniversalCommunication,omitempty"`
}

// UniversalCommunication is a phone number or an email URI.
type UniversalCommunication struct {
	URIID          *ID   `xml:"ram:URIID,omitempty"`
	CompleteNumber *Text `xml:"ram:CompleteNumber,omitempty"`
}

// TradeAddress is a postal address.
type TradeAddress struct {
	PostcodeCode Code `xml:"ram:PostcodeCode"`
	LineOne      Text `xml:"ram:LineOne"`
	CityName     Text `xml:"ram:CityName"`
	CountryID    Code `xml:"ram:CountryID"`
}

// TaxRegistration carries a VAT registration id with scheme VA.
type TaxRegistration struct {
	ID ID `xml:"ram:ID"`
}

// HeaderTradeDelivery records the single delivery event.
type HeaderTradeDelivery struct {
	ActualDeliverySupplyChainEvent SupplyChainEvent `xml:"ram:ActualDeliverySupplyChainEvent"`
}

// SupplyChainEvent is the delivery occurrence.
type SupplyChainEvent struct {
	OccurrenceDateTime DateTime `xml:"ram:OccurrenceDateTime"`
}

// HeaderTradeSettlement carries payment means, taxes, terms and totals.
type HeaderTradeSettlement struct {
	InvoiceCurrencyCode                             Code                  `xml:"ram:InvoiceCurrencyCode"`
	PayeeTradeParty                                 *TradeParty           `xml:"ram:PayeeTradeParty,omitempty"`
	SpecifiedTradeSettlementPaymentMeans            []PaymentMeans        `xml:"ram:SpecifiedTradeSettlementPaymentMeans"`
	ApplicableTradeTax                              []TradeTax            `xml:"ram:ApplicableTradeTax"`
	SpecifiedTradePaymentTerms                      []PaymentTerms        `xml:"ram:SpecifiedTradePaymentTerms"`
	SpecifiedTradeSettlementHeaderMonetarySummation HeaderMonetarySummary `xml:"ram:SpecifiedTradeSettlementHeaderMonetarySummation"`
}

// PaymentMeans declares how the invoice is settled.
type PaymentMeans struct {
	TypeCode Code `xml:"ram:TypeCode"`
}

// PaymentTerms must be present with an empty description; downstream
// validators reject both a missing terms block and a populated one.
type PaymentTerms struct {
	Description []Text `xml:"ram:Description"`
}

// HeaderMonetarySummary totals the document.
type HeaderMonetarySummary struct {
	LineTotalAmount     []Amount `xml:"ram:LineTotalAmount"`
	TaxBasisTotalAmount []Amount `xml:"ram:TaxBasisTotalAmount"`
	TaxTotalAmount      []Amount `xml:"ram:TaxTotalAmount"`
	GrandTotalAmount    []Amount `xml:"ram:GrandTotalAmount"`
	DuePayableAmount    []Amount `xml:"ram:DuePayableAmount"`
}
