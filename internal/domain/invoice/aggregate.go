// Package invoice implements the invoice aggregate.
package invoice

import (
	"encoding/json"
	"errors"
	"time"
)

// Status represents invoice status
type Status string

const (
	StatusDraft      Status = "draft"
	StatusCreated    Status = "created"
	StatusRendered   Status = "rendered"
	StatusDispatched Status = "dispatched"
	StatusAccepted   Status = "accepted"
	StatusRejected   Status = "rejected"
	StatusCancelled  Status = "cancelled"
)

// Aggregate represents the invoice aggregate root
type Aggregate struct {
	id                string
	version           int
	status            Status
	invoiceNumber     string
	digaID            string
	digavEID          string
	validatedDigaCode string
	manufacturerIK    string
	insurerIK         string
	insurerName       string
	netAmount         string
	taxAmount         string
	grandTotal        string
	currencyCode      string
	document          []byte
	rejectionReason   string
	issueDate         time.Time
	createdAt         time.Time
	updatedAt         time.Time
	changes           []*Event
}

// NewAggregate creates a new invoice aggregate
func NewAggregate(id string) *Aggregate {
	return &Aggregate{
		id:        id,
		status:    StatusDraft,
		createdAt: time.Now().UTC(),
		updatedAt: time.Now().UTC(),
		changes:   make([]*Event, 0),
	}
}

// ID returns the aggregate ID
func (a *Aggregate) ID() string { return a.id }

// Version returns the current version
func (a *Aggregate) Version() int { return a.version }

// Status returns the current status
func (a *Aggregate) Status() Status { return a.status }

// InvoiceNumber returns the caller-assigned invoice number
func (a *Aggregate) InvoiceNumber() string { return a.invoiceNumber }

// InsurerIK returns the billed insurer's IK number
func (a *Aggregate) InsurerIK() string { return a.insurerIK }

// Document returns the rendered XRechnung document, if any
func (a *Aggregate) Document() []byte { return a.document }

// Changes returns uncommitted events
func (a *Aggregate) Changes() []*Event { return a.changes }

// ClearChanges clears uncommitted events
func (a *Aggregate) ClearChanges() { a.changes = make([]*Event, 0) }

// Create initializes the invoice
func (a *Aggregate) Create(data *InvoiceCreatedData) error {
	if a.status != StatusDraft {
		return errors.New("invoice already created")
	}

	event, err := NewEvent(a.id, EventInvoiceCreated, data)
	if err != nil {
		return err
	}
	event.WithAuditInfo(data.ManufacturerIK, data.InsurerIK)

	a.apply(event)
	a.changes = append(a.changes, event)
	return nil
}

// AttachDocument records the rendered invoice document
func (a *Aggregate) AttachDocument(document []byte) error {
	if a.status != StatusCreated {
		return errors.New("invoice not ready for rendering")
	}

	data := &InvoiceRenderedData{
		InvoiceID:  a.id,
		Document:   document,
		RenderedAt: time.Now().UTC(),
	}

	event, err := NewEvent(a.id, EventInvoiceRendered, data)
	if err != nil {
		return err
	}
	event.WithAuditInfo(a.manufacturerIK, a.insurerIK)

	a.apply(event)
	a.changes = append(a.changes, event)
	return nil
}

// MarkDispatched records successful delivery to the insurer endpoint
func (a *Aggregate) MarkDispatched(endpoint string) error {
	if a.status != StatusRendered {
		return errors.New("invoice not rendered")
	}

	data := &InvoiceDispatchedData{
		InvoiceID:    a.id,
		InsurerIK:    a.insurerIK,
		Endpoint:     endpoint,
		DispatchedAt: time.Now().UTC(),
	}

	event, err := NewEvent(a.id, EventInvoiceDispatched, data)
	if err != nil {
		return err
	}
	event.WithAuditInfo(a.manufacturerIK, a.insurerIK)

	a.apply(event)
	a.changes = append(a.changes, event)
	return nil
}

// MarkAccepted records the insurer's acceptance
func (a *Aggregate) MarkAccepted() error {
	if a.status != StatusDispatched {
		return errors.New("invoice not dispatched")
	}

	event, err := NewEvent(a.id, EventInvoiceAccepted, map[string]string{"invoice_id": a.id})
	if err != nil {
		return err
	}

	a.apply(event)
	a.changes = append(a.changes, event)
	return nil
}

// MarkRejected records the insurer's rejection
func (a *Aggregate) MarkRejected(reason string) error {
	if a.status != StatusDispatched {
		return errors.New("invoice not dispatched")
	}

	data := &InvoiceRejectedData{
		InvoiceID:  a.id,
		Reason:     reason,
		RejectedAt: time.Now().UTC(),
	}

	event, err := NewEvent(a.id, EventInvoiceRejected, data)
	if err != nil {
		return err
	}

	a.apply(event)
	a.changes = append(a.changes, event)
	return nil
}

// apply applies an event to update state
func (a *Aggregate) apply(event *Event) {
	a.version++
	a.updatedAt = event.Timestamp

	switch event.EventType {
	case EventInvoiceCreated:
		a.applyCreated(event)
	case EventInvoiceRendered:
		a.applyRendered(event)
	case EventInvoiceDispatched:
		a.status = StatusDispatched
	case EventInvoiceAccepted:
		a.status = StatusAccepted
	case EventInvoiceRejected:
		a.applyRejected(event)
	case EventInvoiceCancelled:
		a.status = StatusCancelled
	}
}

func (a *Aggregate) applyCreated(event *Event) {
	var data InvoiceCreatedData
	if err := json.Unmarshal(event.EventData, &data); err != nil {
		return
	}
	a.status = StatusCreated
	a.invoiceNumber = data.InvoiceNumber
	a.digaID = data.DigaID
	a.digavEID = data.DigavEID
	a.validatedDigaCode = data.ValidatedDigaCode
	a.manufacturerIK = data.ManufacturerIK
	a.insurerIK = data.InsurerIK
	a.insurerName = data.InsurerName
	a.netAmount = data.NetAmount
	a.taxAmount = data.TaxAmount
	a.grandTotal = data.GrandTotal
	a.currencyCode = data.CurrencyCode
	a.issueDate = data.IssueDate
}

func (a *Aggregate) applyRendered(event *Event) {
	var data InvoiceRenderedData
	if err := json.Unmarshal(event.EventData, &data); err != nil {
		return
	}
	a.status = StatusRendered
	a.document = data.Document
}

func (a *Aggregate) applyRejected(event *Event) {
	var data InvoiceRejectedData
	if err := json.Unmarshal(event.EventData, &data); err != nil {
		return
	}
	a.status = StatusRejected
	a.rejectionReason = data.Reason
}

// LoadFromHistory rebuilds state from events
func (a *Aggregate) LoadFromHistory(events []*Event) {
	for _, event := range events {
		a.apply(event)
	}
}
