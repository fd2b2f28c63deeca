package model

// Role names stored on a UserRecord. The reserved admin address receives
// RoleAdmin at registration time; everything else defaults to RoleUser
// unless the caller asks for a medical center account.
const (
	RoleUser          = "user"
	RoleAdmin         = "admin"
	RoleMedicalCenter = "medical_center"
)

// ActingRole identifies which logical actor triggered a mutation. The store
// uses it to decide whether the session mirror must be refreshed: only
// mutations performed by the account itself (or through the converted
// dependent path) touch the session copy; admin and medical center edits on
// someone else's record leave the session alone.
type ActingRole string

const (
	ActingUser               ActingRole = "user"
	ActingAdmin              ActingRole = "admin"
	ActingMedicalCenter      ActingRole = "medical_center"
	ActingConvertedDependent ActingRole = "dependent_converted"
)

// RefreshesSession reports whether a mutation performed under this acting
// role should refresh the session mirror when it targets the session user.
func (a ActingRole) RefreshesSession() bool {
	return a == ActingUser || a == ActingConvertedDependent
}

// UserRecord is one row of the persisted user collection. Every account is a
// full record, including dependents: a dependent is a standalone user row
// flagged with IsConvertedDependent and linked back to its owner through
// MainAccountID, while the owner lists the dependent's id in Dependents.
// The json tags match the field names of the stored collection so that data
// written by earlier versions of the system stays readable.
//
// Fields:
//
//	ID                   – opaque unique identifier, assigned at registration.
//	Email                – unique among records that carry one; defaults to
//	                       <documentId>@vacun.org when absent.
//	DocumentID           – identity document number, unique across all records.
//	Password             – credential. New records store a bcrypt hash; records
//	                       written by the legacy system hold plaintext and are
//	                       still accepted at login (see utils.VerifyPassword).
//	Role                 – user | admin | medical_center.
//	Relationship         – label describing a dependent's relation to its owner.
//	Vaccines             – ordered vaccine list; insertion order is report order.
//	Dependents           – ids of owned dependent records (non-dependent accounts).
//	HealthProfessionals  – professional roster, medical_center accounts only.
//	IsConvertedDependent – true when this record was created through AddDependent.
//	MainAccountID        – owning account id for dependent records, empty otherwise.
type UserRecord struct {
	ID                   string               `json:"id"`
	Email                string               `json:"email,omitempty"`
	DocumentID           string               `json:"documentId"`
	Password             string               `json:"password,omitempty"`
	FirstName            string               `json:"firstName"`
	LastName             string               `json:"lastName"`
	BirthDate            string               `json:"birthDate,omitempty"`
	Country              string               `json:"country,omitempty"`
	Phone                string               `json:"phone,omitempty"`
	Role                 string               `json:"role"`
	Relationship         string               `json:"relationship,omitempty"`
	CreatedAt            string               `json:"createdAt,omitempty"`
	Vaccines             []VaccineRecord      `json:"vaccines"`
	Dependents           []string             `json:"dependents,omitempty"`
	HealthProfessionals  []ProfessionalRecord `json:"healthProfessionals,omitempty"`
	IsConvertedDependent bool                 `json:"isConvertedDependent,omitempty"`
	MainAccountID        string               `json:"mainAccountId,omitempty"`
}

// FullName joins first and last name for display and certificate rendering.
func (u *UserRecord) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// WithoutPassword returns a copy of the record with the credential removed.
// The session mirror and every API response carry password-stripped records.
func (u UserRecord) WithoutPassword() UserRecord {
	u.Password = ""
	return u
}

// VaccineIndex returns the position of the vaccine with the given id in the
// record's list, or -1 when absent.
func (u *UserRecord) VaccineIndex(id string) int {
	for i := range u.Vaccines {
		if u.Vaccines[i].ID == id {
			return i
		}
	}
	return -1
}

// HasDependent reports whether the given id appears in the Dependents list.
func (u *UserRecord) HasDependent(id string) bool {
	for _, d := range u.Dependents {
		if d == id {
			return true
		}
	}
	return false
}
