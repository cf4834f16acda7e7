// Package integration provides integration tests for the billing pipeline.
package integration

import (
	"encoding/json"
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/digahealth/go-diga/internal/diga/model"
	"github.com/digahealth/go-diga/internal/diga/writer"
	"github.com/digahealth/go-diga/internal/domain/invoice"
	"github.com/digahealth/go-diga/pkg/idempotency"
)

func testDigaInfo() model.DigaInformation {
	return model.DigaInformation{
		DigaID:                   "12345",
		DigaName:                 "Calmaria",
		ManufacturingCompanyIK:   "IK123456789",
		ManufacturingCompanyName: "Calmaria Health GmbH",
		CompanyVATRegistration:   "DE123456789",
		NetPricePerPrescription:  decimal.RequireFromString("239.96"),
		ApplicableVATPercent:     decimal.RequireFromString("19"),
	}
}

// parsedInvoice is the subset of the invoice tree the pipeline asserts on.
// It re-parses the serialized bytes, so it exercises the full render path.
type parsedInvoice struct {
	XMLName  xml.Name `xml:"CrossIndustryInvoice"`
	Document struct {
		ID       string `xml:"ID"`
		TypeCode string `xml:"TypeCode"`
	} `xml:"ExchangedDocument"`
	Transaction struct {
		Settlement struct {
			Currency  string `xml:"InvoiceCurrencyCode"`
			Summation struct {
				LineTotal  string `xml:"LineTotalAmount"`
				GrandTotal string `xml:"GrandTotalAmount"`
				DuePayable string `xml:"DuePayableAmount"`
			} `xml:"SpecifiedTradeSettlementHeaderMonetarySummation"`
		} `xml:"ApplicableHeaderTradeSettlement"`
	} `xml:"SupplyChainTradeTransaction"`
}

func TestInvoiceRenderRoundTrip(t *testing.T) {
	w := writer.New(testDigaInfo())

	doc, err := w.CreateBillingRequest(
		model.DigaInvoice{
			InvoiceID:              "INV-2026-0042",
			IssueDate:              time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			DateOfServiceProvision: time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
			DigavEID:               "12345010",
			ValidatedDigaCode:      "ABCDEFGHIJKLMNOP",
			InvoiceCurrencyCode:    "EUR",
		},
		model.DigaBillingInformation{
			InsuranceCompanyIK:   "IK987654321",
			InsuranceCompanyName: "Test Kasse",
			InsuranceCompanyAddress: model.PostalAddress{
				AddressLine: "Kassenweg 1",
				PostalCode:  "10115",
				City:        "Berlin",
				CountryCode: "DE",
			},
		},
	)
	if err != nil {
		t.Fatalf("CreateBillingRequest: %v", err)
	}

	var parsed parsedInvoice
	if err := xml.Unmarshal(doc, &parsed); err != nil {
		t.Fatalf("rendered invoice does not parse: %v", err)
	}

	if parsed.Document.ID != "INV-2026-0042" {
		t.Errorf("invoice id = %q", parsed.Document.ID)
	}
	if parsed.Document.TypeCode != "380" {
		t.Errorf("type code = %q, want 380", parsed.Document.TypeCode)
	}
	if parsed.Transaction.Settlement.Currency != "EUR" {
		t.Errorf("currency = %q", parsed.Transaction.Settlement.Currency)
	}
	if parsed.Transaction.Settlement.Summation.LineTotal != "239.96" {
		t.Errorf("line total = %q, want 239.96", parsed.Transaction.Settlement.Summation.LineTotal)
	}
	// 239.96 * 19% = 45.5924, rounds to 45.59; grand total 285.55.
	if parsed.Transaction.Settlement.Summation.GrandTotal != "285.55" {
		t.Errorf("grand total = %q, want 285.55", parsed.Transaction.Settlement.Summation.GrandTotal)
	}
	if parsed.Transaction.Settlement.Summation.DuePayable != parsed.Transaction.Settlement.Summation.GrandTotal {
		t.Error("due payable differs from grand total")
	}
}

func TestCodeValidationRenderParses(t *testing.T) {
	w := writer.New(testDigaInfo())

	doc, err := w.CreateCodeValidationRequest(model.DigaCodeInformation{
		FullDigaCode:       "ABCDEFGHIJKLMNOP",
		InsuranceCompanyIK: "987654321",
	})
	if err != nil {
		t.Fatalf("CreateCodeValidationRequest: %v", err)
	}

	var parsed struct {
		XMLName xml.Name `xml:"Pruefung_Freischaltcode"`
		Anfrage struct {
			DiGAID         string `xml:"DiGAID"`
			Freischaltcode string `xml:"Freischaltcode"`
		} `xml:"Anfrage"`
	}
	if err := xml.Unmarshal(doc, &parsed); err != nil {
		t.Fatalf("rendered request does not parse: %v", err)
	}
	if parsed.Anfrage.DiGAID != "12345" {
		t.Errorf("DiGAID = %q", parsed.Anfrage.DiGAID)
	}
	if parsed.Anfrage.Freischaltcode != "ABCDEFGHIJKLMNOP" {
		t.Errorf("Freischaltcode = %q", parsed.Anfrage.Freischaltcode)
	}
}

func TestRenderedDocumentSurvivesEventRoundTrip(t *testing.T) {
	w := writer.New(testDigaInfo())

	doc, err := w.CreateBillingRequest(
		model.DigaInvoice{
			InvoiceID:              "INV-2026-0099",
			IssueDate:              time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			DateOfServiceProvision: time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC),
			DigavEID:               "12345010",
			ValidatedDigaCode:      "ABCDEFGHIJKLMNOP",
			InvoiceCurrencyCode:    "EUR",
		},
		model.DigaBillingInformation{
			InsuranceCompanyIK:   "987654321",
			InsuranceCompanyName: "Test Kasse",
		},
	)
	if err != nil {
		t.Fatalf("CreateBillingRequest: %v", err)
	}

	agg := invoice.NewAggregate("inv-itest-1")
	if err := agg.Create(&invoice.InvoiceCreatedData{
		InvoiceID:      "inv-itest-1",
		InvoiceNumber:  "INV-2026-0099",
		ManufacturerIK: "123456789",
		InsurerIK:      "987654321",
		CurrencyCode:   "EUR",
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := agg.AttachDocument(doc); err != nil {
		t.Fatalf("AttachDocument: %v", err)
	}

	// Rebuild from the recorded events, as the dispatch service does.
	rebuilt := invoice.NewAggregate("inv-itest-1")
	rebuilt.LoadFromHistory(agg.Changes())

	if string(rebuilt.Document()) != string(doc) {
		t.Error("document after event round trip differs from rendered bytes")
	}
	if !strings.Contains(string(rebuilt.Document()), "INV-2026-0099") {
		t.Error("rebuilt document is missing the invoice number")
	}
}

func TestDispatchIdempotencyKey(t *testing.T) {
	key1 := idempotency.GenerateKey("ABCDEFGHIJKLMNOP", "987654321", "INV-2026-0042")
	key2 := idempotency.GenerateKey("ABCDEFGHIJKLMNOP", "987654321", "INV-2026-0042")
	key3 := idempotency.GenerateKey("ABCDEFGHIJKLMNOP", "987654321", "INV-2026-0043")

	key4 := idempotency.GenerateKey("QRSTUVWXYZ123456", "987654321", "INV-2026-0042")

	if key1 != key2 {
		t.Error("same billing attempt should produce the same key")
	}
	if key1 == key3 {
		t.Error("different invoice numbers should produce different keys")
	}
	if key1 == key4 {
		t.Error("different validated codes should produce different keys")
	}
}

func TestDispatchPayloadCarriesValidatedCode(t *testing.T) {
	// Payload shape written by the billing API's outbox entry and decoded
	// by the dispatch service. The validated code must survive the round
	// trip so the dispatch idempotency key hashes the documented parts.
	payload, err := json.Marshal(map[string]interface{}{
		"invoice_id":     "inv-itest-2",
		"invoice_number": "INV-2026-0100",
		"validated_code": "ABCDEFGHIJKLMNOP",
		"insurer_ik":     "987654321",
		"document":       []byte("<doc/>"),
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	var req struct {
		InvoiceID     string `json:"invoice_id"`
		InvoiceNumber string `json:"invoice_number"`
		ValidatedCode string `json:"validated_code"`
		InsurerIK     string `json:"insurer_ik"`
		Document      []byte `json:"document"`
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	if req.ValidatedCode != "ABCDEFGHIJKLMNOP" {
		t.Errorf("validated code = %q after round trip", req.ValidatedCode)
	}

	got := idempotency.GenerateKey(req.ValidatedCode, req.InsurerIK, req.InvoiceNumber)
	want := idempotency.GenerateKey("ABCDEFGHIJKLMNOP", "987654321", "INV-2026-0100")
	if got != want {
		t.Error("key from decoded payload differs from key at creation time")
	}
}
