package model

// CertificateEntry is the denormalized "certificate issued" convenience
// record kept per user, one row upserted on each issuance. It is not a
// source of truth; the vaccine list on the UserRecord is.
type CertificateEntry struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	PatientName string `json:"patientName"`
	DocumentID  string `json:"documentId"`
	VaccineName string `json:"vaccineName"`
	Dose        string `json:"dose"`
	IssueDate   string `json:"issueDate"`
	Downloaded  bool   `json:"downloaded"`
}
