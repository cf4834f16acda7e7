package insurer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestDirectory(validationURL, billingURL string) *Directory {
	return NewDirectory([]Endpoint{
		{
			IK:            "IK109500969",
			Name:          "Test Kasse",
			ValidationURL: validationURL,
			BillingURL:    billingURL,
		},
	})
}

func TestDirectoryNormalizesIK(t *testing.T) {
	d := newTestDirectory("http://example.invalid/v", "http://example.invalid/b")

	for _, ik := range []string{"109500969", "IK109500969"} {
		ep, err := d.Resolve(ik)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", ik, err)
		}
		if ep.IK != "109500969" {
			t.Errorf("Resolve(%q).IK = %q, want bare IK", ik, ep.IK)
		}
	}
}

func TestResolveUnknownInsurer(t *testing.T) {
	d := newTestDirectory("http://example.invalid/v", "http://example.invalid/b")

	_, err := d.Resolve("999999999")
	if !errors.Is(err, ErrUnknownInsurer) {
		t.Fatalf("Resolve: err = %v, want ErrUnknownInsurer", err)
	}
}

func TestSendInvoiceDeliversDocument(t *testing.T) {
	var gotBody []byte
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient(newTestDirectory(srv.URL, srv.URL), DefaultClientConfig(), nil)

	doc := []byte(`<?xml version="1.0"?><rsm:CrossIndustryInvoice/>`)
	resp, err := c.SendInvoice(context.Background(), "109500969", doc)
	if err != nil {
		t.Fatalf("SendInvoice: %v", err)
	}

	if !resp.Accepted() {
		t.Errorf("Accepted() = false, status %d", resp.StatusCode)
	}
	if string(gotBody) != string(doc) {
		t.Errorf("delivered body = %q, want original document", gotBody)
	}
	if gotContentType != "application/xml; charset=utf-8" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if string(resp.Body) != "ok" {
		t.Errorf("response body = %q", resp.Body)
	}
}

func TestSendInvoiceRejectionIsNotABreakerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte("invalid invoice"))
	}))
	defer srv.Close()

	c := NewClient(newTestDirectory(srv.URL, srv.URL), DefaultClientConfig(), nil)

	resp, err := c.SendInvoice(context.Background(), "109500969", []byte("<doc/>"))
	if err != nil {
		t.Fatalf("SendInvoice: %v", err)
	}
	if resp.Accepted() {
		t.Error("Accepted() = true for a 422 rejection")
	}
	if string(resp.Body) != "invalid invoice" {
		t.Errorf("response body = %q", resp.Body)
	}
}

func TestSendInvoiceServerErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(newTestDirectory(srv.URL, srv.URL), DefaultClientConfig(), nil)

	if _, err := c.SendInvoice(context.Background(), "109500969", []byte("<doc/>")); err == nil {
		t.Fatal("SendInvoice: expected error for 502 response")
	}
}

func TestSendCodeValidationUsesValidationURL(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(newTestDirectory(srv.URL+"/diga/validate", srv.URL+"/diga/bill"), DefaultClientConfig(), nil)

	if _, err := c.SendCodeValidation(context.Background(), "109500969", []byte("<doc/>")); err != nil {
		t.Fatalf("SendCodeValidation: %v", err)
	}
	if gotPath != "/diga/validate" {
		t.Errorf("request path = %q, want /diga/validate", gotPath)
	}
}
