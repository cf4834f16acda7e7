// Package insurer provides the HTTP client used to deliver code validation
// requests and invoices to insurer billing endpoints (Kopfstellen).
package insurer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/digahealth/go-diga/internal/diga/model"
	"github.com/digahealth/go-diga/pkg/circuitbreaker"
)

// ErrUnknownInsurer is returned when no endpoint is registered for an IK.
var ErrUnknownInsurer = errors.New("no endpoint registered for insurer IK")

// Endpoint describes one insurer's billing endpoint.
type Endpoint struct {
	// IK is the insurer's IK number, stored without prefix.
	IK string
	// Name is the insurer's display name.
	Name string
	// ValidationURL receives Pruefung_Freischaltcode requests.
	ValidationURL string
	// BillingURL receives XRechnung invoices.
	BillingURL string
}

// Directory resolves insurer IK numbers to endpoints. It mirrors the
// published insurance company index: a static snapshot loaded at startup.
type Directory struct {
	byIK map[string]Endpoint
}

// NewDirectory builds a directory from a list of endpoints. IK numbers are
// normalized, so entries may carry the prefix or not.
func NewDirectory(endpoints []Endpoint) *Directory {
	byIK := make(map[string]Endpoint, len(endpoints))
	for _, ep := range endpoints {
		ep.IK = model.IKWithoutPrefix(ep.IK)
		byIK[ep.IK] = ep
	}
	return &Directory{byIK: byIK}
}

// Resolve returns the endpoint for an IK number.
func (d *Directory) Resolve(ik string) (Endpoint, error) {
	ep, ok := d.byIK[model.IKWithoutPrefix(ik)]
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: %s", ErrUnknownInsurer, model.IKWithoutPrefix(ik))
	}
	return ep, nil
}

// Len returns the number of registered insurers.
func (d *Directory) Len() int { return len(d.byIK) }

// ClientConfig holds configuration for the insurer client
type ClientConfig struct {
	// RequestTimeout bounds a single round trip to an endpoint.
	RequestTimeout time.Duration
	// UserAgent is sent on every request.
	UserAgent string
}

// DefaultClientConfig returns defaults for insurer endpoints.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		RequestTimeout: 30 * time.Second,
		UserAgent:      "go-diga-billing/1.0",
	}
}

// Response is the insurer's reply to a delivered document.
type Response struct {
	StatusCode int
	Body       []byte
	Endpoint   string
}

// Accepted reports whether the insurer acknowledged the document.
func (r *Response) Accepted() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client posts XML documents to insurer endpoints. Each insurer gets its own
// circuit breaker, so one failing Kopfstelle does not block deliveries to the
// others.
type Client struct {
	httpClient *http.Client
	directory  *Directory
	breakers   *circuitbreaker.Manager
	config     ClientConfig
	logger     *zap.Logger
	tracer     trace.Tracer
}

// NewClient creates a new insurer client.
func NewClient(directory *Directory, cfg ClientConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		directory:  directory,
		breakers:   circuitbreaker.NewManager(logger),
		config:     cfg,
		logger:     logger,
		tracer:     otel.Tracer("insurer-client"),
	}
}

// SendCodeValidation delivers a Pruefung_Freischaltcode request to the
// insurer identified by ik.
func (c *Client) SendCodeValidation(ctx context.Context, ik string, document []byte) (*Response, error) {
	ep, err := c.directory.Resolve(ik)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, ep, ep.ValidationURL, "code_validation", document)
}

// SendInvoice delivers an XRechnung invoice to the insurer identified by ik.
func (c *Client) SendInvoice(ctx context.Context, ik string, document []byte) (*Response, error) {
	ep, err := c.directory.Resolve(ik)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, ep, ep.BillingURL, "invoice", document)
}

func (c *Client) post(ctx context.Context, ep Endpoint, url, kind string, document []byte) (*Response, error) {
	ctx, span := c.tracer.Start(ctx, "insurer_post",
		trace.WithAttributes(
			attribute.String("insurer_ik", ep.IK),
			attribute.String("document_kind", kind),
			attribute.Int("document_size", len(document)),
		))
	defer span.End()

	breaker, err := c.breakers.GetOrCreate(ep.IK, circuitbreaker.DefaultConfig(ep.IK))
	if err != nil {
		return nil, fmt.Errorf("breaker init: %w", err)
	}

	result, err := breaker.Execute(ctx, func() (interface{}, error) {
		return c.doPost(ctx, url, document)
	})
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("insurer delivery failed",
			zap.String("insurer_ik", ep.IK),
			zap.String("kind", kind),
			zap.Error(err))
		return nil, err
	}

	resp := result.(*Response)
	resp.Endpoint = url
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	return resp, nil
}

func (c *Client) doPost(ctx context.Context, url string, document []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/xml; charset=utf-8")
	req.Header.Set("User-Agent", c.config.UserAgent)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("round trip: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// 5xx counts as a breaker failure; 4xx is the insurer rejecting this
	// document, which is a business outcome, not an endpoint fault.
	if httpResp.StatusCode >= 500 {
		return nil, fmt.Errorf("endpoint error: status %d", httpResp.StatusCode)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
	}, nil
}

// BreakerHealth exposes per-insurer circuit state for health endpoints.
func (c *Client) BreakerHealth() []circuitbreaker.HealthStatus {
	return c.breakers.GetHealthStatus()
}
