package writer

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/digahealth/go-diga/internal/diga/codevalidation"
	"github.com/digahealth/go-diga/internal/diga/model"
	"github.com/digahealth/go-diga/internal/diga/tax"
	"github.com/digahealth/go-diga/internal/diga/xrechnung"
)

// CodeClassifier decides whether a Freischaltcode is a test code. The
// classifier is deterministic and supplied by the surrounding system.
type CodeClassifier func(code string) bool

// XMLRequestWriter builds code validation requests and billing invoices for
// one DiGA. All methods are pure functions of their inputs plus the static
// DigaInformation; the writer holds no mutable state and may be shared across
// goroutines.
type XMLRequestWriter struct {
	info       model.DigaInformation
	serializer DocumentSerializer
	isTestCode CodeClassifier
}

// Option configures an XMLRequestWriter.
type Option func(*XMLRequestWriter)

// WithSerializer replaces the default XML serializer.
func WithSerializer(s DocumentSerializer) Option {
	return func(w *XMLRequestWriter) { w.serializer = s }
}

// WithCodeClassifier replaces the default test-code classifier.
func WithCodeClassifier(fn CodeClassifier) Option {
	return func(w *XMLRequestWriter) { w.isTestCode = fn }
}

// New creates a writer for the given static DiGA configuration.
func New(info model.DigaInformation, opts ...Option) *XMLRequestWriter {
	w := &XMLRequestWriter{
		info:       info,
		serializer: NewXMLSerializer(),
		isTestCode: model.IsTestCode,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// CreateCodeValidationRequest builds the Pruefung_Freischaltcode request for
// one prescription code and renders it to bytes.
func (w *XMLRequestWriter) CreateCodeValidationRequest(code model.DigaCodeInformation) ([]byte, error) {
	processIdentifier := codevalidation.ProcessProduction
	if w.isTestCode(code.FullDigaCode) {
		processIdentifier = codevalidation.ProcessTest
	}

	manufacturerIK := model.IKWithoutPrefix(w.info.ManufacturingCompanyIK)
	insurerIK := model.IKWithoutPrefix(code.InsuranceCompanyIK)

	request := codevalidation.Request{
		Xmlns:             codevalidation.Namespace,
		ProcessIdentifier: processIdentifier,
		Sender:            manufacturerIK,
		Receiver:          insurerIK,
		MessageType:       codevalidation.MessageTypeRequest,
		Version:           codevalidation.SchemaVersion,
		ValidFrom:         codevalidation.ValidFrom,
		Anfrage: codevalidation.Anfrage{
			IKDiGAHersteller: manufacturerIK,
			IKKrankenkasse:   insurerIK,
			DiGAID:           w.info.DigaID,
			Freischaltcode:   code.FullDigaCode,
		},
	}

	out, err := w.serializer.Serialize(&request)
	if err != nil {
		return nil, &WriterError{Op: "code validation request", Cause: err}
	}
	return out, nil
}

// CreateBillingRequest builds the full XRechnung invoice for one dispensed
// prescription and renders it to bytes.
func (w *XMLRequestWriter) CreateBillingRequest(invoice model.DigaInvoice, billing model.DigaBillingInformation) ([]byte, error) {
	doc := xrechnung.CrossIndustryInvoice{
		XmlnsRSM:                    xrechnung.NamespaceRSM,
		XmlnsRAM:                    xrechnung.NamespaceRAM,
		XmlnsUDT:                    xrechnung.NamespaceUDT,
		ExchangedDocumentContext:    w.buildDocumentContext(),
		ExchangedDocument:           w.buildExchangedDocument(invoice),
		SupplyChainTradeTransaction: w.buildTradeTransaction(invoice, billing),
	}

	out, err := w.serializer.Serialize(&doc)
	if err != nil {
		return nil, &WriterError{Op: "billing request", Cause: err}
	}
	return out, nil
}

// buildDocumentContext declares XRechnung 2.2 conformance.
func (w *XMLRequestWriter) buildDocumentContext() xrechnung.ExchangedDocumentContext {
	return xrechnung.ExchangedDocumentContext{
		GuidelineSpecifiedDocumentContextParameter: []xrechnung.DocumentContextParameter{
			{ID: xrechnung.NewID(xrechnung.GuidelineXRechnung22)},
		},
	}
}

// buildExchangedDocument is the invoice header. The invoice id is taken as
// supplied; uniqueness is the caller's responsibility.
func (w *XMLRequestWriter) buildExchangedDocument(invoice model.DigaInvoice) xrechnung.ExchangedDocument {
	return xrechnung.ExchangedDocument{
		ID:            xrechnung.NewID(invoice.InvoiceID),
		TypeCode:      xrechnung.NewCode(xrechnung.DocumentTypeCommercialInvoice),
		IssueDateTime: xrechnung.NewDateTime(invoice.IssueDate),
	}
}

func (w *XMLRequestWriter) buildTradeTransaction(invoice model.DigaInvoice, billing model.DigaBillingInformation) xrechnung.SupplyChainTradeTransaction {
	taxed := tax.Compute(w.info.NetPricePerPrescription, w.info.ApplicableVATPercent, w.info.ReverseChargeVAT)

	return xrechnung.SupplyChainTradeTransaction{
		IncludedSupplyChainTradeLineItem: []xrechnung.LineItem{w.buildLineItem(invoice, taxed)},
		ApplicableHeaderTradeAgreement:   w.buildTradeAgreement(billing),
		ApplicableHeaderTradeDelivery:    w.buildTradeDelivery(invoice),
		ApplicableHeaderTradeSettlement:  w.buildTradeSettlement(invoice, taxed),
	}
}

// buildLineItem bills the single dispensation. One invoice is sent per
// validated code, so the quantity is always one and the line id is always 1.
func (w *XMLRequestWriter) buildLineItem(invoice model.DigaInvoice, taxed tax.Result) xrechnung.LineItem {
	globalID := xrechnung.NewIDWithScheme(invoice.DigavEID, xrechnung.SchemeProductGlobalID)
	buyerAssignedID := xrechnung.NewIDWithScheme(invoice.ValidatedDigaCode, xrechnung.SchemeBuyerAssignedID)

	description := w.info.DigaDescription
	if description == "" {
		description = "A " + w.info.DigaName + " prescription."
	}
	descriptionText := xrechnung.NewText(description)

	return xrechnung.LineItem{
		AssociatedDocumentLineDocument: xrechnung.DocumentLineDocument{
			LineID: xrechnung.NewID("1"),
		},
		SpecifiedTradeProduct: xrechnung.TradeProduct{
			GlobalID:        &globalID,
			BuyerAssignedID: &buyerAssignedID,
			Name:            []xrechnung.Text{xrechnung.NewText(w.info.DigaName)},
			Description:     &descriptionText,
		},
		SpecifiedLineTradeAgreement: xrechnung.LineTradeAgreement{
			NetPriceProductTradePrice: xrechnung.TradePrice{
				ChargeAmount: []xrechnung.Amount{xrechnung.NewAmount(w.info.NetPricePerPrescription)},
			},
		},
		SpecifiedLineTradeDelivery: xrechnung.LineTradeDelivery{
			BilledQuantity: xrechnung.NewQuantity(decimal.NewFromInt(1), xrechnung.UnitCodeEach),
		},
		SpecifiedLineTradeSettlement: xrechnung.LineTradeSettlement{
			ApplicableTradeTax: []xrechnung.TradeTax{{
				TypeCode:              xrechnung.NewCode(xrechnung.TaxTypeVAT),
				CategoryCode:          xrechnung.NewCode(taxed.CategoryCode),
				RateApplicablePercent: xrechnung.NewPercent(taxed.EffectiveRate),
			}},
			// The line total is the configured net price, not price times
			// quantity. Quantity is fixed at one, so the values coincide.
			SpecifiedTradeSettlementLineMonetarySummation: xrechnung.LineMonetarySummary{
				LineTotalAmount: []xrechnung.Amount{xrechnung.NewAmount(w.info.NetPricePerPrescription)},
			},
		},
	}
}

// tradeParty is the assembly-time view of a seller, buyer or payee. Optional
// associations are omitted from the output tree when absent.
type tradeParty struct {
	companyIK       string // bare IK, serialized as the XR03 party id
	companyName     string
	taxRegistration string
	contactPerson   *model.ContactPerson
	postalAddress   *model.PostalAddress
}

func (w *XMLRequestWriter) buildTradeAgreement(billing model.DigaBillingInformation) xrechnung.HeaderTradeAgreement {
	seller := w.buildTradeParty(tradeParty{
		companyIK:       model.IKWithoutPrefix(w.info.ManufacturingCompanyIK),
		companyName:     w.info.ManufacturingCompanyName,
		taxRegistration: w.info.CompanyVATRegistration,
		contactPerson:   w.info.ContactPersonForBilling,
		postalAddress:   w.info.CompanyTradeAddress,
	})

	insurerAddress := billing.InsuranceCompanyAddress
	buyer := w.buildTradeParty(tradeParty{
		companyIK:     model.IKWithoutPrefix(billing.InsuranceCompanyIK),
		companyName:   billing.InsuranceCompanyName,
		postalAddress: &insurerAddress,
	})

	if w.info.ReverseChargeVAT {
		buyer.SpecifiedLegalOrganization = w.buildBuyerLegalOrganization(billing)
	}

	return xrechnung.HeaderTradeAgreement{
		BuyerReference:   xrechnung.NewText(xrechnung.BuyerReferencePlaceholder),
		SellerTradeParty: seller,
		BuyerTradeParty:  buyer,
	}
}

func (w *XMLRequestWriter) buildTradeParty(party tradeParty) xrechnung.TradeParty {
	out := xrechnung.TradeParty{
		ID:   []xrechnung.ID{xrechnung.NewIDWithScheme(party.companyIK, xrechnung.SchemePartyID)},
		Name: xrechnung.NewText(party.companyName),
	}

	if party.contactPerson != nil {
		contact := xrechnung.TradeContact{
			PersonName: xrechnung.NewText(party.contactPerson.FullName),
		}
		if party.contactPerson.PhoneNumber != "" {
			number := xrechnung.NewText(party.contactPerson.PhoneNumber)
			contact.TelephoneUniversalCommunication = &xrechnung.UniversalCommunication{CompleteNumber: &number}
		}
		if party.contactPerson.EmailAddress != "" {
			uri := xrechnung.NewID(party.contactPerson.EmailAddress)
			contact.EmailURIUniversalCommunication = &xrechnung.UniversalCommunication{URIID: &uri}
		}
		out.DefinedTradeContact = []xrechnung.TradeContact{contact}
	}

	if party.postalAddress != nil {
		out.PostalTradeAddress = &xrechnung.TradeAddress{
			PostcodeCode: xrechnung.NewCode(party.postalAddress.PostalCode),
			LineOne:      xrechnung.NewText(party.postalAddress.AddressLine),
			CityName:     xrechnung.NewText(party.postalAddress.City),
			CountryID:    xrechnung.NewCode(party.postalAddress.CountryCode),
		}
	}

	if party.taxRegistration != "" {
		out.SpecifiedTaxRegistration = []xrechnung.TaxRegistration{
			{ID: xrechnung.NewIDWithScheme(party.taxRegistration, xrechnung.SchemeVATRegistration)},
		}
	}

	return out
}

// buildBuyerLegalOrganization attaches the legal-organization block required
// on the buyer when billing under reverse charge.
func (w *XMLRequestWriter) buildBuyerLegalOrganization(billing model.DigaBillingInformation) *xrechnung.LegalOrganization {
	return &xrechnung.LegalOrganization{
		ID: xrechnung.NewIDWithScheme(
			model.IKWithoutPrefix(billing.InsuranceCompanyIK),
			xrechnung.SchemePartyID,
		),
		TradingBusinessName: xrechnung.NewText(strings.TrimSpace(billing.InsuranceCompanyName)),
	}
}

func (w *XMLRequestWriter) buildTradeDelivery(invoice model.DigaInvoice) xrechnung.HeaderTradeDelivery {
	return xrechnung.HeaderTradeDelivery{
		ActualDeliverySupplyChainEvent: xrechnung.SupplyChainEvent{
			OccurrenceDateTime: xrechnung.NewDateTime(invoice.DateOfServiceProvision),
		},
	}
}

func (w *XMLRequestWriter) buildTradeSettlement(invoice model.DigaInvoice, taxed tax.Result) xrechnung.HeaderTradeSettlement {
	netPrice := w.info.NetPricePerPrescription

	payee := w.buildTradeParty(tradeParty{
		companyIK:   model.IKWithoutPrefix(w.info.ManufacturingCompanyIK),
		companyName: w.info.ManufacturingCompanyName,
	})

	return xrechnung.HeaderTradeSettlement{
		InvoiceCurrencyCode: xrechnung.NewCode(invoice.InvoiceCurrencyCode),
		PayeeTradeParty:     &payee,
		SpecifiedTradeSettlementPaymentMeans: []xrechnung.PaymentMeans{
			{TypeCode: xrechnung.NewCode(xrechnung.PaymentMeansStandingAgreement)},
		},
		ApplicableTradeTax: []xrechnung.TradeTax{{
			CalculatedAmount:      []xrechnung.Amount{xrechnung.NewAmount(taxed.TaxAmount)},
			TypeCode:              xrechnung.NewCode(xrechnung.TaxTypeVAT),
			BasisAmount:           []xrechnung.Amount{xrechnung.NewAmount(netPrice)},
			CategoryCode:          xrechnung.NewCode(taxed.CategoryCode),
			RateApplicablePercent: xrechnung.NewPercent(taxed.EffectiveRate),
		}},
		// Downstream validators require a terms block whose description is
		// empty text; neither a due date nor a real description is allowed.
		SpecifiedTradePaymentTerms: []xrechnung.PaymentTerms{
			{Description: []xrechnung.Text{xrechnung.NewText("")}},
		},
		SpecifiedTradeSettlementHeaderMonetarySummation: xrechnung.HeaderMonetarySummary{
			LineTotalAmount:     []xrechnung.Amount{xrechnung.NewAmount(netPrice)},
			TaxBasisTotalAmount: []xrechnung.Amount{xrechnung.NewAmount(netPrice)},
			TaxTotalAmount: []xrechnung.Amount{
				xrechnung.NewAmountWithCurrency(taxed.TaxAmount, invoice.InvoiceCurrencyCode),
			},
			GrandTotalAmount: []xrechnung.Amount{xrechnung.NewAmount(taxed.GrandTotal)},
			DuePayableAmount: []xrechnung.Amount{xrechnung.NewAmount(taxed.GrandTotal)},
		},
	}
}
