// Package invoice implements the billing invoice aggregate and domain events.
package invoice

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of domain event
type EventType string

const (
	EventInvoiceCreated    EventType = "InvoiceCreated"
	EventInvoiceRendered   EventType = "InvoiceRendered"
	EventInvoiceDispatched EventType = "InvoiceDispatched"
	EventInvoiceAccepted   EventType = "InvoiceAccepted"
	EventInvoiceRejected   EventType = "InvoiceRejected"
	EventInvoiceCancelled  EventType = "InvoiceCancelled"
)

// Event represents a domain event
type Event struct {
	ID             string          `json:"id"`
	AggregateID    string          `json:"aggregate_id"`
	AggregateType  string          `json:"aggregate_type"`
	EventType      EventType       `json:"event_type"`
	EventData      json.RawMessage `json:"event_data"`
	Version        int             `json:"version"`
	Timestamp      time.Time       `json:"timestamp"`
	ManufacturerIK string          `json:"manufacturer_ik,omitempty"`
	InsurerIK      string          `json:"insurer_ik,omitempty"`
	CorrelationID  string          `json:"correlation_id,omitempty"`
}

// NewEvent creates a new event
func NewEvent(aggregateID string, eventType EventType, data interface{}) (*Event, error) {
	eventData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: "Invoice",
		EventType:     eventType,
		EventData:     eventData,
		Timestamp:     time.Now().UTC(),
	}, nil
}

// InvoiceCreatedData contains invoice creation details
type InvoiceCreatedData struct {
	InvoiceID         string    `json:"invoice_id"`
	InvoiceNumber     string    `json:"invoice_number"`
	DigaID            string    `json:"diga_id"`
	DigavEID          string    `json:"digav_eid"`
	ValidatedDigaCode string    `json:"validated_diga_code"`
	ManufacturerIK    string    `json:"manufacturer_ik"`
	InsurerIK         string    `json:"insurer_ik"`
	InsurerName       string    `json:"insurer_name"`
	NetAmount         string    `json:"net_amount"`
	TaxAmount         string    `json:"tax_amount"`
	GrandTotal        string    `json:"grand_total"`
	TaxCategory       string    `json:"tax_category"`
	CurrencyCode      string    `json:"currency_code"`
	IssueDate         time.Time `json:"issue_date"`
	ServiceDate       time.Time `json:"service_date"`
}

// InvoiceRenderedData records the rendered XRechnung document
type InvoiceRenderedData struct {
	InvoiceID  string    `json:"invoice_id"`
	Document   []byte    `json:"document"`
	RenderedAt time.Time `json:"rendered_at"`
}

// InvoiceDispatchedData contains dispatch details
type InvoiceDispatchedData struct {
	InvoiceID    string    `json:"invoice_id"`
	InsurerIK    string    `json:"insurer_ik"`
	Endpoint     string    `json:"endpoint"`
	DispatchedAt time.Time `json:"dispatched_at"`
}

// InvoiceRejectedData contains the insurer's rejection details
type InvoiceRejectedData struct {
	InvoiceID  string    `json:"invoice_id"`
	Reason     string    `json:"reason"`
	RejectedAt time.Time `json:"rejected_at"`
}

// WithAuditInfo sets audit fields
func (e *Event) WithAuditInfo(manufacturerIK, insurerIK string) *Event {
	e.ManufacturerIK = manufacturerIK
	e.InsurerIK = insurerIK
	return e
}
