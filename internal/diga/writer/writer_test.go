package writer

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/digahealth/go-diga/internal/diga/model"
	"github.com/digahealth/go-diga/internal/diga/tax"
	"github.com/digahealth/go-diga/internal/diga/xrechnung"
)

func testDigaInformation() model.DigaInformation {
	return model.DigaInformation{
		DigaID:                   "12345",
		DigaName:                 "Calmaria",
		ManufacturingCompanyIK:   "IK123456789",
		ManufacturingCompanyName: "Digahealth GmbH",
		CompanyVATRegistration:   "DE123456789",
		ContactPersonForBilling: &model.ContactPerson{
			FullName:     "Erika Musterfrau",
			PhoneNumber:  "+49 30 1234567",
			EmailAddress: "billing@digahealth.example",
		},
		CompanyTradeAddress: &model.PostalAddress{
			AddressLine: "Friedrichstr. 1",
			PostalCode:  "10117",
			City:        "Berlin",
			CountryCode: "DE",
		},
		NetPricePerPrescription: decimal.RequireFromString("49.90"),
		ApplicableVATPercent:    decimal.RequireFromString("19"),
	}
}

func testInvoice() model.DigaInvoice {
	return model.DigaInvoice{
		InvoiceID:              "INV-2023-0001",
		IssueDate:              time.Date(2023, 4, 7, 10, 0, 0, 0, time.Local),
		DateOfServiceProvision: time.Date(2023, 3, 30, 10, 0, 0, 0, time.Local),
		DigavEID:               "12345077",
		ValidatedDigaCode:      "DE12345678901234AB",
		InvoiceCurrencyCode:    "EUR",
	}
}

func testBillingInformation() model.DigaBillingInformation {
	return model.DigaBillingInformation{
		InsuranceCompanyIK:   "IK987654321",
		InsuranceCompanyName: "Testkasse",
		InsuranceCompanyAddress: model.PostalAddress{
			AddressLine: "Kassenweg 9",
			PostalCode:  "44135",
			City:        "Dortmund",
			CountryCode: "DE",
		},
	}
}

func TestCodeValidationRequestProductionCode(t *testing.T) {
	w := New(testDigaInformation())

	out, err := w.CreateCodeValidationRequest(model.DigaCodeInformation{
		FullDigaCode:       "DE12345678901234AB",
		InsuranceCompanyIK: "IK987654321",
	})
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}

	xml := string(out)
	for _, want := range []string{
		`Verfahrenskennung="EDFC_0"`,
		`Nachrichtentyp="ANF"`,
		`Absender="123456789"`,
		`Empfaenger="987654321"`,
		`Version="002.000.000"`,
		`Gueltigab="2020-07-01"`,
		"<IKDiGAHersteller>123456789</IKDiGAHersteller>",
		"<IKKrankenkasse>987654321</IKKrankenkasse>",
		"<DiGAID>12345</DiGAID>",
		"<Freischaltcode>DE12345678901234AB</Freischaltcode>",
	} {
		if !strings.Contains(xml, want) {
			t.Errorf("request missing %s\n%s", want, xml)
		}
	}
}

func TestCodeValidationRequestTestCode(t *testing.T) {
	w := New(testDigaInformation())

	out, err := w.CreateCodeValidationRequest(model.DigaCodeInformation{
		FullDigaCode:       "77AAAAAAAAAAAAAAAX",
		InsuranceCompanyIK: "987654321",
	})
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	if !strings.Contains(string(out), `Verfahrenskennung="TDFC_0"`) {
		t.Errorf("expected test process identifier, got:\n%s", out)
	}
}

func TestCodeValidationRequestCustomClassifier(t *testing.T) {
	w := New(testDigaInformation(), WithCodeClassifier(func(string) bool { return true }))

	out, err := w.CreateCodeValidationRequest(model.DigaCodeInformation{
		FullDigaCode:       "DE12345678901234AB",
		InsuranceCompanyIK: "987654321",
	})
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	if !strings.Contains(string(out), `Verfahrenskennung="TDFC_0"`) {
		t.Error("classifier override not applied")
	}
}

func TestBillingRequestStandardVAT(t *testing.T) {
	w := New(testDigaInformation())

	out, err := w.CreateBillingRequest(testInvoice(), testBillingInformation())
	if err != nil {
		t.Fatalf("create billing request failed: %v", err)
	}

	xml := string(out)
	for _, want := range []string{
		xrechnung.GuidelineXRechnung22,
		"<ram:TypeCode>380</ram:TypeCode>",
		"<ram:ID>INV-2023-0001</ram:ID>",
		`schemeID="XR01">12345077<`,
		`schemeID="XR02">DE12345678901234AB<`,
		"<ram:Name>Calmaria</ram:Name>",
		`unitCode="C62">1<`,
		"<ram:CategoryCode>S</ram:CategoryCode>",
		"<ram:RateApplicablePercent>19</ram:RateApplicablePercent>",
		"<ram:CalculatedAmount>9.48</ram:CalculatedAmount>",
		`currencyID="EUR">9.48<`,
		"<ram:GrandTotalAmount>59.38</ram:GrandTotalAmount>",
		"<ram:DuePayableAmount>59.38</ram:DuePayableAmount>",
		"<ram:BuyerReference>Leitweg-ID</ram:BuyerReference>",
		"<ram:TypeCode>57</ram:TypeCode>",
		`schemeID="VA">DE123456789<`,
		`format="102">20230407<`,
		`format="102">20230330<`,
	} {
		if !strings.Contains(xml, want) {
			t.Errorf("invoice missing %s", want)
		}
	}

	// No legal-organization block outside reverse charge.
	if strings.Contains(xml, "SpecifiedLegalOrganization") {
		t.Error("unexpected legal organization block")
	}
}

func TestBillingRequestPartyIDs(t *testing.T) {
	w := New(testDigaInformation())

	out, err := w.CreateBillingRequest(testInvoice(), testBillingInformation())
	if err != nil {
		t.Fatalf("create billing request failed: %v", err)
	}

	xml := string(out)

	// Each party carries exactly one id: the bare IK qualified XR03. The
	// prefixed form never serializes.
	if !strings.Contains(xml, `schemeID="XR03">123456789<`) {
		t.Error("seller party id missing or not the bare IK")
	}
	if !strings.Contains(xml, `schemeID="XR03">987654321<`) {
		t.Error("buyer party id missing or not the bare IK")
	}
	if strings.Contains(xml, ">IK123456789<") || strings.Contains(xml, ">IK987654321<") {
		t.Error("prefixed IK serialized as a party id")
	}

	// Seller appears as seller and payee; buyer once.
	sellerIDs := strings.Count(xml, `schemeID="XR03">123456789<`)
	buyerIDs := strings.Count(xml, `schemeID="XR03">987654321<`)
	if sellerIDs != 2 {
		t.Errorf("seller/payee id count = %d, want 2", sellerIDs)
	}
	if buyerIDs != 1 {
		t.Errorf("buyer id count = %d, want 1", buyerIDs)
	}
}

func TestBillingRequestReverseCharge(t *testing.T) {
	info := testDigaInformation()
	info.ReverseChargeVAT = true
	w := New(info)

	billing := testBillingInformation()
	billing.InsuranceCompanyName = "  Testkasse  "

	out, err := w.CreateBillingRequest(testInvoice(), billing)
	if err != nil {
		t.Fatalf("create billing request failed: %v", err)
	}

	xml := string(out)
	for _, want := range []string{
		"<ram:CategoryCode>AE</ram:CategoryCode>",
		"<ram:RateApplicablePercent>0</ram:RateApplicablePercent>",
		"<ram:CalculatedAmount>0.00</ram:CalculatedAmount>",
		"<ram:GrandTotalAmount>49.90</ram:GrandTotalAmount>",
		"<ram:TradingBusinessName>Testkasse</ram:TradingBusinessName>",
		`schemeID="XR03">987654321<`,
	} {
		if !strings.Contains(xml, want) {
			t.Errorf("invoice missing %s", want)
		}
	}
}

func TestBillingRequestDefaultDescription(t *testing.T) {
	info := testDigaInformation()
	info.DigaDescription = ""
	w := New(info)

	out, err := w.CreateBillingRequest(testInvoice(), testBillingInformation())
	if err != nil {
		t.Fatalf("create billing request failed: %v", err)
	}
	if !strings.Contains(string(out), "<ram:Description>A Calmaria prescription.</ram:Description>") {
		t.Error("expected generated default description")
	}
}

func TestBillingRequestDeterministic(t *testing.T) {
	w := New(testDigaInformation())

	first, err := w.CreateBillingRequest(testInvoice(), testBillingInformation())
	if err != nil {
		t.Fatalf("first assembly failed: %v", err)
	}
	second, err := w.CreateBillingRequest(testInvoice(), testBillingInformation())
	if err != nil {
		t.Fatalf("second assembly failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("identical inputs produced different bytes")
	}
}

func TestBillingRequestOmitsOptionalBlocks(t *testing.T) {
	info := testDigaInformation()
	info.CompanyVATRegistration = ""
	info.ContactPersonForBilling = nil
	info.CompanyTradeAddress = nil
	w := New(info)

	out, err := w.CreateBillingRequest(testInvoice(), testBillingInformation())
	if err != nil {
		t.Fatalf("create billing request failed: %v", err)
	}

	xml := string(out)
	if strings.Contains(xml, "SpecifiedTaxRegistration") {
		t.Error("tax registration should be omitted")
	}
	if strings.Contains(xml, "DefinedTradeContact") {
		t.Error("trade contact should be omitted")
	}
}

type failingSerializer struct{}

func (failingSerializer) Serialize(any) ([]byte, error) {
	return nil, errors.New("tree violates schema")
}

func TestWriterErrorPropagation(t *testing.T) {
	w := New(testDigaInformation(), WithSerializer(failingSerializer{}))

	_, err := w.CreateBillingRequest(testInvoice(), testBillingInformation())
	var werr *WriterError
	if !errors.As(err, &werr) {
		t.Fatalf("expected WriterError, got %v", err)
	}
	if werr.Op != "billing request" {
		t.Errorf("op = %q", werr.Op)
	}
}

func TestLineTotalEqualsNetPrice(t *testing.T) {
	w := New(testDigaInformation())
	taxed := tax.Compute(w.info.NetPricePerPrescription, w.info.ApplicableVATPercent, false)

	line := w.buildLineItem(testInvoice(), taxed)
	total := line.SpecifiedLineTradeSettlement.SpecifiedTradeSettlementLineMonetarySummation.LineTotalAmount
	if len(total) != 1 || total[0].Value != "49.90" {
		t.Errorf("line total = %+v, want one amount of 49.90", total)
	}
	price := line.SpecifiedLineTradeAgreement.NetPriceProductTradePrice.ChargeAmount
	if len(price) != 1 || price[0].Value != total[0].Value {
		t.Errorf("line total %v should equal net unit price %v", total, price)
	}
}

func TestSettlementCurrencyOnlyOnTaxTotal(t *testing.T) {
	w := New(testDigaInformation())
	taxed := tax.Compute(w.info.NetPricePerPrescription, w.info.ApplicableVATPercent, false)

	settlement := w.buildTradeSettlement(testInvoice(), taxed)
	summary := settlement.SpecifiedTradeSettlementHeaderMonetarySummation

	if summary.TaxTotalAmount[0].CurrencyID != "EUR" {
		t.Error("tax total should carry the invoice currency")
	}
	for name, amounts := range map[string][]xrechnung.Amount{
		"line total":      summary.LineTotalAmount,
		"tax basis total": summary.TaxBasisTotalAmount,
		"grand total":     summary.GrandTotalAmount,
		"due payable":     summary.DuePayableAmount,
	} {
		if amounts[0].CurrencyID != "" {
			t.Errorf("%s should not carry a currency code", name)
		}
	}
}
