// Package writer assembles the two request documents of the DiGA
// reimbursement workflow: the code validation request and the XRechnung
// invoice. Assembly is all-or-nothing; no bytes are returned unless
// serialization fully succeeds.
package writer

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// DocumentSerializer renders an assembled document tree to schema-conformant
// bytes, or fails if the tree cannot be rendered. Implementations must be
// safe for concurrent use, or callers keep one instance per worker.
type DocumentSerializer interface {
	Serialize(doc any) ([]byte, error)
}

// WriterError is the single error kind surfaced at the writer boundary. It
// wraps either a structural violation detected during serialization or a
// buffering failure while producing bytes.
type WriterError struct {
	Op    string
	Cause error
}

func (e *WriterError) Error() string {
	return fmt.Sprintf("diga writer: %s: %s", e.Op, e.Cause.Error())
}

func (e *WriterError) Unwrap() error {
	return e.Cause
}

// XMLSerializer is the default DocumentSerializer. It renders indented UTF-8
// XML with a document declaration. Stateless and safe for concurrent use.
type XMLSerializer struct{}

// NewXMLSerializer creates the default serializer.
func NewXMLSerializer() *XMLSerializer {
	return &XMLSerializer{}
}

// Serialize marshals the document tree to UTF-8 XML bytes.
func (s *XMLSerializer) Serialize(doc any) ([]byte, error) {
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.WriteString(xml.Header); err != nil {
		return nil, fmt.Errorf("write declaration: %w", err)
	}
	if _, err := buf.Write(body); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	return buf.Bytes(), nil
}
