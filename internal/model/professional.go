package model

// ProfessionalRecord is a health professional registered under a medical
// center account. The roster lives entirely inside the owning UserRecord;
// professionals have no standalone login.
type ProfessionalRecord struct {
	ID                 string `json:"id"`
	FullName           string `json:"fullName"`
	DocumentID         string `json:"documentId"`
	RegistrationNumber string `json:"registrationNumber"`
}
