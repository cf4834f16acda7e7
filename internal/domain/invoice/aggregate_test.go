package invoice

import (
	"testing"
	"time"
)

func createdData() *InvoiceCreatedData {
	return &InvoiceCreatedData{
		InvoiceID:         "inv-1",
		InvoiceNumber:     "INV-2023-0001",
		DigaID:            "12345",
		DigavEID:          "12345077",
		ValidatedDigaCode: "DE12345678901234AB",
		ManufacturerIK:    "123456789",
		InsurerIK:         "987654321",
		InsurerName:       "Testkasse",
		NetAmount:         "49.90",
		TaxAmount:         "9.48",
		GrandTotal:        "59.38",
		TaxCategory:       "S",
		CurrencyCode:      "EUR",
		IssueDate:         time.Now().UTC(),
		ServiceDate:       time.Now().UTC(),
	}
}

func TestAggregateLifecycle(t *testing.T) {
	agg := NewAggregate("inv-1")

	if agg.Status() != StatusDraft {
		t.Fatalf("new aggregate status = %s", agg.Status())
	}

	if err := agg.Create(createdData()); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if agg.Status() != StatusCreated {
		t.Errorf("status = %s, want %s", agg.Status(), StatusCreated)
	}
	if agg.InvoiceNumber() != "INV-2023-0001" {
		t.Errorf("invoice number = %s", agg.InvoiceNumber())
	}

	if err := agg.AttachDocument([]byte("<rsm:CrossIndustryInvoice/>")); err != nil {
		t.Fatalf("attach document failed: %v", err)
	}
	if agg.Status() != StatusRendered {
		t.Errorf("status = %s, want %s", agg.Status(), StatusRendered)
	}
	if len(agg.Document()) == 0 {
		t.Error("document not recorded")
	}

	if err := agg.MarkDispatched("https://insurer.example/diga"); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if err := agg.MarkAccepted(); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if agg.Status() != StatusAccepted {
		t.Errorf("status = %s, want %s", agg.Status(), StatusAccepted)
	}

	if agg.Version() != 4 {
		t.Errorf("version = %d, want 4", agg.Version())
	}
	if len(agg.Changes()) != 4 {
		t.Errorf("uncommitted events = %d, want 4", len(agg.Changes()))
	}
}

func TestAggregateGuards(t *testing.T) {
	agg := NewAggregate("inv-2")

	if err := agg.AttachDocument([]byte("x")); err == nil {
		t.Error("expected error attaching document to draft invoice")
	}
	if err := agg.MarkDispatched("endpoint"); err == nil {
		t.Error("expected error dispatching unrendered invoice")
	}

	if err := agg.Create(createdData()); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := agg.Create(createdData()); err == nil {
		t.Error("expected error on double create")
	}
	if err := agg.MarkAccepted(); err == nil {
		t.Error("expected error accepting undispatched invoice")
	}
}

func TestLoadFromHistory(t *testing.T) {
	source := NewAggregate("inv-3")
	if err := source.Create(createdData()); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := source.AttachDocument([]byte("doc")); err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	rebuilt := NewAggregate("inv-3")
	rebuilt.LoadFromHistory(source.Changes())

	if rebuilt.Status() != StatusRendered {
		t.Errorf("rebuilt status = %s, want %s", rebuilt.Status(), StatusRendered)
	}
	if rebuilt.Version() != source.Version() {
		t.Errorf("rebuilt version = %d, want %d", rebuilt.Version(), source.Version())
	}
	if string(rebuilt.Document()) != "doc" {
		t.Errorf("rebuilt document = %q", rebuilt.Document())
	}
}
