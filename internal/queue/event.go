// Package queue defines message payloads exchanged over the message broker.
package queue

// CertificateIssuedEvent is published when a certificate PDF is generated
// and handed to the client. It carries enough information for downstream
// consumers to log or run analytics without querying the record store. The
// event is a convenience stream: losing it never loses vaccination data.
type CertificateIssuedEvent struct {
	CertificateID   string `json:"certificate_id"`
	UserID          string `json:"user_id"`
	PatientName     string `json:"patient_name"`
	DocumentID      string `json:"document_id"`
	VaccineCount    int    `json:"vaccine_count"`
	PageCount       int    `json:"page_count"`
	VerificationURL string `json:"verification_url"`
	IssuedAt        string `json:"issued_at"`
}
