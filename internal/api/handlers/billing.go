// Package handlers provides HTTP handlers for the billing API.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/digahealth/go-diga/internal/api/middleware"
	"github.com/digahealth/go-diga/internal/diga/model"
	"github.com/digahealth/go-diga/internal/diga/tax"
	"github.com/digahealth/go-diga/internal/diga/writer"
	"github.com/digahealth/go-diga/internal/domain/invoice"
	"github.com/digahealth/go-diga/internal/infrastructure/postgres"
	"github.com/digahealth/go-diga/internal/infrastructure/redpanda"
	"github.com/digahealth/go-diga/internal/observability/metrics"
)

// BillingHandler handles code validation and invoice endpoints
type BillingHandler struct {
	pool    *pgxpool.Pool
	repo    *invoice.Repository
	writer  *writer.XMLRequestWriter
	info    model.DigaInformation
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewBillingHandler creates a new handler
func NewBillingHandler(pool *pgxpool.Pool, repo *invoice.Repository, w *writer.XMLRequestWriter, info model.DigaInformation, m *metrics.Metrics, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{
		pool:    pool,
		repo:    repo,
		writer:  w,
		info:    info,
		metrics: m,
		logger:  logger,
	}
}

// Routes returns the handler routes
func (h *BillingHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/codes/validate", h.ValidateCode)
	r.Post("/invoices", h.CreateInvoice)
	r.Get("/invoices/{id}", h.GetInvoice)
	r.Get("/invoices/{id}/events", h.GetInvoiceEvents)
	r.Get("/invoices/{id}/document", h.GetInvoiceDocument)
	return r
}

// ValidateCodeRequest is the request body for building a code validation request
type ValidateCodeRequest struct {
	Code      string `json:"code"`
	InsurerIK string `json:"insurer_ik"`
}

// ValidateCode handles POST /codes/validate. It assembles the
// Pruefung_Freischaltcode XML for the given code and returns it; transmission
// to the insurer endpoint happens via the dispatch pipeline.
func (h *BillingHandler) ValidateCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("billing-handler")
	_, span := tracer.Start(ctx, "validate_code")
	defer span.End()

	var req ValidateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Code == "" || req.InsurerIK == "" {
		h.jsonError(w, "code and insurer_ik are required", http.StatusBadRequest)
		return
	}

	doc, err := h.writer.CreateCodeValidationRequest(model.DigaCodeInformation{
		FullDigaCode:       req.Code,
		InsuranceCompanyIK: req.InsurerIK,
	})
	if err != nil {
		h.logger.Error("code validation assembly failed", zap.Error(err))
		h.jsonError(w, "failed to build validation request", http.StatusInternalServerError)
		return
	}

	h.metrics.CodeValidationRequests.Inc()
	if model.IsTestCode(req.Code) {
		h.metrics.TestCodeRequests.Inc()
	}
	span.SetAttributes(attribute.String("insurer_ik", model.IKWithoutPrefix(req.InsurerIK)))

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// CreateInvoiceRequest is the request body for creating an invoice
type CreateInvoiceRequest struct {
	InvoiceNumber          string    `json:"invoice_number"`
	DigavEID               string    `json:"digav_eid"`
	ValidatedCode          string    `json:"validated_code"`
	InsurerIK              string    `json:"insurer_ik"`
	InsurerName            string    `json:"insurer_name"`
	InsurerAddressLine     string    `json:"insurer_address_line"`
	InsurerPostalCode      string    `json:"insurer_postal_code"`
	InsurerCity            string    `json:"insurer_city"`
	InsurerCountryCode     string    `json:"insurer_country_code"`
	DateOfServiceProvision time.Time `json:"date_of_service_provision"`
	CurrencyCode           string    `json:"currency_code,omitempty"`
}

// CreateInvoiceResponse is the response for creating an invoice
type CreateInvoiceResponse struct {
	ID            string    `json:"id"`
	InvoiceNumber string    `json:"invoice_number"`
	Status        string    `json:"status"`
	GrandTotal    string    `json:"grand_total"`
	CurrencyCode  string    `json:"currency_code"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateInvoice handles POST /invoices. It renders the XRechnung document,
// records the created and rendered events, and enqueues the invoice for
// dispatch through the transactional outbox. The event store write and the
// outbox write commit together.
func (h *BillingHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tracer := otel.Tracer("billing-handler")
	ctx, span := tracer.Start(ctx, "create_invoice")
	defer span.End()

	var req CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.InvoiceNumber == "" || req.DigavEID == "" || req.ValidatedCode == "" || req.InsurerIK == "" {
		h.jsonError(w, "invoice_number, digav_eid, validated_code and insurer_ik are required", http.StatusBadRequest)
		return
	}

	currency := req.CurrencyCode
	if currency == "" {
		currency = "EUR"
	}
	issueDate := time.Now().UTC()
	serviceDate := req.DateOfServiceProvision
	if serviceDate.IsZero() {
		serviceDate = issueDate
	}

	invoiceID := uuid.New().String()
	span.SetAttributes(
		attribute.String("invoice_id", invoiceID),
		attribute.String("invoice_number", req.InvoiceNumber),
	)

	renderStart := time.Now()
	document, err := h.writer.CreateBillingRequest(
		model.DigaInvoice{
			InvoiceID:              req.InvoiceNumber,
			IssueDate:              issueDate,
			DateOfServiceProvision: serviceDate,
			DigavEID:               req.DigavEID,
			ValidatedDigaCode:      req.ValidatedCode,
			InvoiceCurrencyCode:    currency,
		},
		model.DigaBillingInformation{
			InsuranceCompanyIK:   req.InsurerIK,
			InsuranceCompanyName: req.InsurerName,
			InsuranceCompanyAddress: model.PostalAddress{
				AddressLine: req.InsurerAddressLine,
				PostalCode:  req.InsurerPostalCode,
				City:        req.InsurerCity,
				CountryCode: req.InsurerCountryCode,
			},
		},
	)
	if err != nil {
		h.logger.Error("invoice assembly failed", zap.Error(err))
		h.jsonError(w, "failed to build invoice document", http.StatusInternalServerError)
		return
	}
	h.metrics.RenderDuration.Observe(time.Since(renderStart).Seconds())

	taxed := tax.Compute(h.info.NetPricePerPrescription, h.info.ApplicableVATPercent, h.info.ReverseChargeVAT)

	agg := invoice.NewAggregate(invoiceID)
	createData := &invoice.InvoiceCreatedData{
		InvoiceID:         invoiceID,
		InvoiceNumber:     req.InvoiceNumber,
		DigaID:            h.info.DigaID,
		DigavEID:          req.DigavEID,
		ValidatedDigaCode: req.ValidatedCode,
		ManufacturerIK:    model.IKWithoutPrefix(h.info.ManufacturingCompanyIK),
		InsurerIK:         model.IKWithoutPrefix(req.InsurerIK),
		InsurerName:       req.InsurerName,
		NetAmount:         h.info.NetPricePerPrescription.RoundBank(2).StringFixed(2),
		TaxAmount:         taxed.TaxAmount.StringFixed(2),
		GrandTotal:        taxed.GrandTotal.StringFixed(2),
		TaxCategory:       taxed.CategoryCode,
		CurrencyCode:      currency,
		IssueDate:         issueDate,
	}

	if err := agg.Create(createData); err != nil {
		h.logger.Error("aggregate create failed", zap.Error(err))
		h.jsonError(w, "failed to create invoice", http.StatusInternalServerError)
		return
	}
	if err := agg.AttachDocument(document); err != nil {
		h.logger.Error("attach document failed", zap.Error(err))
		h.jsonError(w, "failed to create invoice", http.StatusInternalServerError)
		return
	}

	// Persist events and the outbox entry in one transaction.
	tx, err := h.pool.Begin(ctx)
	if err != nil {
		h.logger.Error("begin transaction failed", zap.Error(err))
		h.jsonError(w, "failed to save invoice", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback(ctx)

	if err := h.repo.SaveTx(ctx, tx, agg); err != nil {
		h.logger.Error("save failed", zap.Error(err))
		h.jsonError(w, "failed to save invoice", http.StatusInternalServerError)
		return
	}

	dispatchPayload, _ := json.Marshal(map[string]interface{}{
		"invoice_id":     invoiceID,
		"invoice_number": req.InvoiceNumber,
		"validated_code": req.ValidatedCode,
		"insurer_ik":     model.IKWithoutPrefix(req.InsurerIK),
		"document":       document,
	})
	entry := &postgres.OutboxEntry{
		InvoiceID: invoiceID,
		EventType: string(invoice.EventInvoiceRendered),
		Payload:   dispatchPayload,
		Topic:     redpanda.TopicDispatchRequests,
		Key:       invoiceID,
	}
	if err := postgres.WriteEntry(ctx, tx, entry); err != nil {
		h.logger.Error("outbox write failed", zap.Error(err))
		h.jsonError(w, "failed to save invoice", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.logger.Error("commit failed", zap.Error(err))
		h.jsonError(w, "failed to save invoice", http.StatusInternalServerError)
		return
	}

	h.metrics.InvoicesCreated.Inc()
	h.logger.Info("invoice created",
		zap.String("id", invoiceID),
		zap.String("invoice_number", req.InvoiceNumber),
		zap.String("insurer_ik", model.IKWithoutPrefix(req.InsurerIK)),
		zap.String("request_id", middleware.GetRequestID(ctx)),
	)

	resp := CreateInvoiceResponse{
		ID:            invoiceID,
		InvoiceNumber: req.InvoiceNumber,
		Status:        string(agg.Status()),
		GrandTotal:    taxed.GrandTotal.StringFixed(2),
		CurrencyCode:  currency,
		CreatedAt:     issueDate,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// GetInvoice handles GET /invoices/{id}
func (h *BillingHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	agg, err := h.repo.Load(ctx, id)
	if err != nil {
		h.jsonError(w, "invoice not found", http.StatusNotFound)
		return
	}

	resp := map[string]interface{}{
		"id":             agg.ID(),
		"invoice_number": agg.InvoiceNumber(),
		"insurer_ik":     agg.InsurerIK(),
		"status":         agg.Status(),
		"version":        agg.Version(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetInvoiceEvents handles GET /invoices/{id}/events
func (h *BillingHandler) GetInvoiceEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	events, err := h.repo.GetEvents(ctx, id)
	if err != nil {
		h.jsonError(w, "failed to get events", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}

// GetInvoiceDocument handles GET /invoices/{id}/document and returns the
// rendered XRechnung XML.
func (h *BillingHandler) GetInvoiceDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	agg, err := h.repo.Load(ctx, id)
	if err != nil {
		h.jsonError(w, "invoice not found", http.StatusNotFound)
		return
	}
	if len(agg.Document()) == 0 {
		h.jsonError(w, "invoice has no rendered document", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write(agg.Document())
}

func (h *BillingHandler) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
