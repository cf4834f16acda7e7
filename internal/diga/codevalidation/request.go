// Package codevalidation provides the Pruefung_Freischaltcode XML structures
// for validating DiGA prescription codes against an insurer.
package codevalidation

import "encoding/xml"

// Namespace is the schema namespace for the code validation exchange.
const Namespace = "http://www.gkv-datenaustausch.de/XML-Schema/EDFC0_Pruefung/2.0.0"

// Process identifiers (Verfahrenskennung) selecting the insurer-side
// validation process.
const (
	ProcessTest       = "TDFC_0"
	ProcessProduction = "EDFC_0"
)

// Fixed envelope constants mandated by the exchange schema.
const (
	// MessageTypeRequest marks the message as a validation request (Anfrage).
	MessageTypeRequest = "ANF"
	// SchemaVersion is the supported schema version.
	SchemaVersion = "002.000.000"
	// ValidFrom is the schema-mandated effective date carried in every
	// request.
	ValidFrom = "2020-07-01"
)

// Request is the Pruefung_Freischaltcode envelope. Sender and receiver are
// bare IK numbers, never the prefixed form.
type Request struct {
	XMLName           xml.Name `xml:"Pruefung_Freischaltcode"`
	Xmlns             string   `xml:"xmlns,attr"`
	ProcessIdentifier string   `xml:"Verfahrenskennung,attr"`
	Sender            string   `xml:"Absender,attr"`
	Receiver          string   `xml:"Empfaenger,attr"`
	MessageType       string   `xml:"Nachrichtentyp,attr"`
	Version           string   `xml:"Version,attr"`
	ValidFrom         string   `xml:"Gueltigab,attr"`
	Anfrage           Anfrage  `xml:"Anfrage"`
}

// Anfrage is the inner request payload.
type Anfrage struct {
	IKDiGAHersteller string `xml:"IKDiGAHersteller"`
	IKKrankenkasse   string `xml:"IKKrankenkasse"`
	DiGAID           string `xml:"DiGAID"`
	Freischaltcode   string `xml:"Freischaltcode"`
}
