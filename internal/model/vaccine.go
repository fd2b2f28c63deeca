package model

// Dose labels accepted on a vaccine entry. The set is fixed; the UI and the
// certificate table print these labels verbatim.
const (
	DoseFirst      = "1st Dose"
	DoseSecond     = "2nd Dose"
	DoseThird      = "3rd Dose"
	DoseSingle     = "Single Dose"
	DoseBooster    = "Booster"
	DoseAdditional = "Additional"
)

// ValidDose reports whether the given label belongs to the fixed dose set.
func ValidDose(label string) bool {
	switch label {
	case DoseFirst, DoseSecond, DoseThird, DoseSingle, DoseBooster, DoseAdditional:
		return true
	}
	return false
}

// VaccineRecord is a vaccine entry nested inside a UserRecord. It never
// exists detached from a parent record; the store assigns its id at
// insertion time and ids are not reused within the same parent after a
// deletion.
type VaccineRecord struct {
	ID                 string `json:"id"`
	VaccineName        string `json:"vaccineName"`
	Dose               string `json:"dose"`
	VaccinationDate    string `json:"vaccinationDate"`
	VaccinationPlace   string `json:"vaccinationPlace"`
	HealthProfessional string `json:"healthProfessional"`
	VaccineLot         string `json:"vaccineLot,omitempty"`
	VaccineProofURL    string `json:"vaccineProofUrl,omitempty"`
}
