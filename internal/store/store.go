package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vacunorg/vaccination-records/internal/model"
	"github.com/vacunorg/vaccination-records/internal/storage"
	"github.com/vacunorg/vaccination-records/internal/utils"
)

// ReservedAdminEmail receives the admin role automatically at registration.
const ReservedAdminEmail = "admin@vacun.org"

// defaultEmailDomain is used to synthesize an email for records registered
// with a document id only (dependents, walk-in registrations).
const defaultEmailDomain = "vacun.org"

// Store keeps the whole user collection and the session mirror as JSON
// documents in a storage backend. Every mutating operation is a full
// read-modify-write cycle over the collection, serialized by one mutex:
// operations are not atomic at the granularity of backend writes, so the
// mutex is the transactional boundary.
type Store struct {
	mu         sync.Mutex
	backend    storage.Storage
	bcryptCost int
	newID      func() string
	now        func() time.Time
}

// New returns a Store over the given backend. bcryptCost applies to newly
// stored credentials.
func New(backend storage.Storage, bcryptCost int) *Store {
	return &Store{
		backend:    backend,
		bcryptCost: bcryptCost,
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// RegisterInput carries the fields accepted when creating a record, either
// through self-service registration or through the admin / dependent paths.
type RegisterInput struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	DocumentID           string `json:"documentId"`
	FirstName            string `json:"firstName"`
	LastName             string `json:"lastName"`
	BirthDate            string `json:"birthDate"`
	Country              string `json:"country"`
	Phone                string `json:"phone"`
	Role                 string `json:"role"`
	Relationship         string `json:"relationship"`
	IsConvertedDependent bool   `json:"-"`
	MainAccountID        string `json:"-"`
}

// UserPatch is a shallow merge applied to an existing record: nil fields are
// left untouched, non-nil fields win. A non-nil Password is hashed before it
// is stored.
type UserPatch struct {
	Email        *string `json:"email"`
	Password     *string `json:"password"`
	FirstName    *string `json:"firstName"`
	LastName     *string `json:"lastName"`
	BirthDate    *string `json:"birthDate"`
	Country      *string `json:"country"`
	Phone        *string `json:"phone"`
	Role         *string `json:"role"`
	Relationship *string `json:"relationship"`
}

// VaccinePatch is a shallow merge applied to a vaccine entry.
type VaccinePatch struct {
	VaccineName        *string `json:"vaccineName"`
	Dose               *string `json:"dose"`
	VaccinationDate    *string `json:"vaccinationDate"`
	VaccinationPlace   *string `json:"vaccinationPlace"`
	HealthProfessional *string `json:"healthProfessional"`
	VaccineLot         *string `json:"vaccineLot"`
	VaccineProofURL    *string `json:"vaccineProofUrl"`
}

// ProfessionalPatch is a shallow merge applied to a roster entry.
type ProfessionalPatch struct {
	FullName           *string `json:"fullName"`
	DocumentID         *string `json:"documentId"`
	RegistrationNumber *string `json:"registrationNumber"`
}

// ----- collection plumbing -----

func (s *Store) loadUsers(ctx context.Context) ([]model.UserRecord, error) {
	b, err := s.backend.Get(ctx, storage.KeyUsers)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []model.UserRecord{}, nil
		}
		return nil, fmt.Errorf("load users: %w", err)
	}
	var users []model.UserRecord
	if err := json.Unmarshal(b, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (s *Store) saveUsers(ctx context.Context, users []model.UserRecord) error {
	b, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	if err := s.backend.Put(ctx, storage.KeyUsers, b); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	return nil
}

func findUser(users []model.UserRecord, id string) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}
	return -1
}

// ----- session mirror -----

func (s *Store) loadSession(ctx context.Context) (model.UserRecord, bool, error) {
	b, err := s.backend.Get(ctx, storage.KeySession)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.UserRecord{}, false, nil
		}
		return model.UserRecord{}, false, fmt.Errorf("load session: %w", err)
	}
	var u model.UserRecord
	if err := json.Unmarshal(b, &u); err != nil {
		return model.UserRecord{}, false, fmt.Errorf("decode session: %w", err)
	}
	return u, true, nil
}

func (s *Store) saveSession(ctx context.Context, u model.UserRecord) error {
	b, err := json.Marshal(u.WithoutPassword())
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.backend.Put(ctx, storage.KeySession, b); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// refreshSessionIf rewrites the session mirror with the latest copy of the
// record when the session currently points at it. Every mutation that can
// change the logged-in identity funnels through here so the mirror never
// goes stale.
func (s *Store) refreshSessionIf(ctx context.Context, users []model.UserRecord, userID string) error {
	sess, ok, err := s.loadSession(ctx)
	if err != nil || !ok || sess.ID != userID {
		return err
	}
	if i := findUser(users, userID); i != -1 {
		return s.saveSession(ctx, users[i])
	}
	return nil
}

// ----- registration and authentication -----

// Register creates a new record. The email must be unique among records that
// carry one and the document id unique across all records. When no email is
// supplied one is synthesized from the document id. The new record becomes
// the active session unless it is an admin, a medical center, or a dependent
// created on someone's behalf.
func (s *Store) Register(ctx context.Context, in RegisterInput) (model.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registerLocked(ctx, in)
}

func (s *Store) registerLocked(ctx context.Context, in RegisterInput) (model.UserRecord, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.DocumentID = strings.TrimSpace(in.DocumentID)
	switch {
	case in.DocumentID == "":
		return model.UserRecord{}, fmt.Errorf("%w: documentId", ErrValidation)
	case in.FirstName == "":
		return model.UserRecord{}, fmt.Errorf("%w: firstName", ErrValidation)
	case in.Password == "":
		return model.UserRecord{}, fmt.Errorf("%w: password", ErrValidation)
	}

	users, err := s.loadUsers(ctx)
	if err != nil {
		return model.UserRecord{}, err
	}
	for i := range users {
		if in.Email != "" && users[i].Email == in.Email {
			return model.UserRecord{}, ErrDuplicateEmail
		}
		if users[i].DocumentID == in.DocumentID {
			return model.UserRecord{}, ErrDuplicateDocument
		}
	}

	role := in.Role
	if role == "" {
		if in.Email == ReservedAdminEmail {
			role = model.RoleAdmin
		} else {
			role = model.RoleUser
		}
	}
	email := in.Email
	if email == "" {
		email = in.DocumentID + "@" + defaultEmailDomain
	}
	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return model.UserRecord{}, fmt.Errorf("hash password: %w", err)
	}

	rec := model.UserRecord{
		ID:                   s.newID(),
		Email:                email,
		DocumentID:           in.DocumentID,
		Password:             hash,
		FirstName:            in.FirstName,
		LastName:             in.LastName,
		BirthDate:            in.BirthDate,
		Country:              in.Country,
		Phone:                in.Phone,
		Role:                 role,
		Relationship:         in.Relationship,
		CreatedAt:            s.now().UTC().Format(time.RFC3339),
		Vaccines:             []model.VaccineRecord{},
		Dependents:           []string{},
		IsConvertedDependent: in.IsConvertedDependent,
		MainAccountID:        in.MainAccountID,
	}
	if role == model.RoleMedicalCenter {
		rec.HealthProfessionals = []model.ProfessionalRecord{}
	}

	users = append(users, rec)
	if err := s.saveUsers(ctx, users); err != nil {
		return model.UserRecord{}, err
	}

	if role != model.RoleMedicalCenter && role != model.RoleAdmin && !in.IsConvertedDependent {
		if err := s.saveSession(ctx, rec); err != nil {
			return model.UserRecord{}, err
		}
	}
	return rec.WithoutPassword(), nil
}

// Login matches a record whose email or document id equals the identifier
// and whose credential verifies. On success the record becomes the session.
func (s *Store) Login(ctx context.Context, identifier, password string) (model.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	identifier = strings.TrimSpace(identifier)
	users, err := s.loadUsers(ctx)
	if err != nil {
		return model.UserRecord{}, err
	}
	for i := range users {
		u := &users[i]
		if u.Email != strings.ToLower(identifier) && u.DocumentID != identifier {
			continue
		}
		if !utils.VerifyPassword(u.Password, password) {
			continue
		}
		if err := s.saveSession(ctx, *u); err != nil {
			return model.UserRecord{}, err
		}
		return u.WithoutPassword(), nil
	}
	return model.UserRecord{}, ErrInvalidCredentials
}

// Logout clears the session mirror. Logging out with no session is not an
// error.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Delete(ctx, storage.KeySession)
}

// CurrentUser returns the session record, if any.
func (s *Store) CurrentUser(ctx context.Context) (model.UserRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadSession(ctx)
}

// ----- user record CRUD -----

// GetUser returns the record with the given id, password stripped.
func (s *Store) GetUser(ctx context.Context, id string) (model.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return model.UserRecord{}, err
	}
	i := findUser(users, id)
	if i == -1 {
		return model.UserRecord{}, ErrUserNotFound
	}
	return users[i].WithoutPassword(), nil
}

// ListUsers returns every record, passwords stripped, in insertion order.
func (s *Store) ListUsers(ctx context.Context) ([]model.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.UserRecord, 0, len(users))
	for i := range users {
		out = append(out, users[i].WithoutPassword())
	}
	return out, nil
}

// UpdateUser merges the patch into the record with the given id and refreshes
// the session mirror when the record is the session user.
func (s *Store) UpdateUser(ctx context.Context, id string, patch UserPatch) (model.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return model.UserRecord{}, err
	}
	i := findUser(users, id)
	if i == -1 {
		return model.UserRecord{}, ErrUserNotFound
	}
	if err := s.applyUserPatch(&users[i], patch); err != nil {
		return model.UserRecord{}, err
	}
	if err := s.saveUsers(ctx, users); err != nil {
		return model.UserRecord{}, err
	}
	if err := s.refreshSessionIf(ctx, users, id); err != nil {
		return model.UserRecord{}, err
	}
	return users[i].WithoutPassword(), nil
}

func (s *Store) applyUserPatch(u *model.UserRecord, patch UserPatch) error {
	if patch.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*patch.Email))
	}
	if patch.Password != nil && *patch.Password != "" {
		hash, err := utils.HashPassword(*patch.Password, s.bcryptCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		u.Password = hash
	}
	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = *patch.LastName
	}
	if patch.BirthDate != nil {
		u.BirthDate = *patch.BirthDate
	}
	if patch.Country != nil {
		u.Country = *patch.Country
	}
	if patch.Phone != nil {
		u.Phone = *patch.Phone
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if patch.Relationship != nil {
		u.Relationship = *patch.Relationship
	}
	return nil
}

// DeleteUser removes the record with the given id. When the record is the
// session user the session is cleared as well. Dependents of a deleted main
// account are NOT cascaded: they remain as standalone records with a dangling
// MainAccountID. That matches the behavior of the data this system inherits;
// DeleteDependent is the path that cleans up both sides.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteUserLocked(ctx, id)
}

func (s *Store) deleteUserLocked(ctx context.Context, id string) error {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}
	i := findUser(users, id)
	if i == -1 {
		return ErrUserNotFound
	}
	users = append(users[:i], users[i+1:]...)
	if err := s.saveUsers(ctx, users); err != nil {
		return err
	}
	sess, ok, err := s.loadSession(ctx)
	if err != nil {
		return err
	}
	if ok && sess.ID == id {
		return s.backend.Delete(ctx, storage.KeySession)
	}
	return nil
}

// ----- vaccine operations -----

// AddVaccine appends a vaccine entry to the user's list, assigning its id.
// The session mirror is refreshed only when the target is the session user
// and the acting role is a self-service one; admin and medical center edits
// on another account must not clobber the editor's own session view.
func (s *Store) AddVaccine(ctx context.Context, userID string, v model.VaccineRecord, acting model.ActingRole) (model.VaccineRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.VaccineName == "" {
		return model.VaccineRecord{}, fmt.Errorf("%w: vaccineName", ErrValidation)
	}
	if v.Dose != "" && !model.ValidDose(v.Dose) {
		return model.VaccineRecord{}, fmt.Errorf("%w: dose", ErrValidation)
	}
	users, err := s.loadUsers(ctx)
	if err != nil {
		return model.VaccineRecord{}, err
	}
	i := findUser(users, userID)
	if i == -1 {
		return model.VaccineRecord{}, ErrUserNotFound
	}
	v.ID = s.newID()
	users[i].Vaccines = append(users[i].Vaccines, v)
	if err := s.saveUsers(ctx, users); err != nil {
		return model.VaccineRecord{}, err
	}
	if acting.RefreshesSession() {
		if err := s.refreshSessionIf(ctx, users, userID); err != nil {
			return model.VaccineRecord{}, err
		}
	}
	return v, nil
}

// UpdateVaccine merges the patch into one vaccine entry.
func (s *Store) UpdateVaccine(ctx context.Context, userID, vaccineID string, patch VaccinePatch, acting model.ActingRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}
	i := findUser(users, userID)
	if i == -1 {
		return ErrUserNotFound
	}
	j := users[i].VaccineIndex(vaccineID)
	if j == -1 {
		return ErrVaccineNotFound
	}
	v := &users[i].Vaccines[j]
	if patch.VaccineName != nil {
		v.VaccineName = *patch.VaccineName
	}
	if patch.Dose != nil {
		if !model.ValidDose(*patch.Dose) {
			return fmt.Errorf("%w: dose", ErrValidation)
		}
		v.Dose = *patch.Dose
	}
	if patch.VaccinationDate != nil {
		v.VaccinationDate = *patch.VaccinationDate
	}
	if patch.VaccinationPlace != nil {
		v.VaccinationPlace = *patch.VaccinationPlace
	}
	if patch.HealthProfessional != nil {
		v.HealthProfessional = *patch.HealthProfessional
	}
	if patch.VaccineLot != nil {
		v.VaccineLot = *patch.VaccineLot
	}
	if patch.VaccineProofURL != nil {
		v.VaccineProofURL = *patch.VaccineProofURL
	}
	if err := s.saveUsers(ctx, users); err != nil {
		return err
	}
	if acting.RefreshesSession() {
		return s.refreshSessionIf(ctx, users, userID)
	}
	return nil
}

// DeleteVaccine removes one vaccine entry.
func (s *Store) DeleteVaccine(ctx context.Context, userID, vaccineID string, acting model.ActingRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}
	i := findUser(users, userID)
	if i == -1 {
		return ErrUserNotFound
	}
	j := users[i].VaccineIndex(vaccineID)
	if j == -1 {
		return ErrVaccineNotFound
	}
	users[i].Vaccines = append(users[i].Vaccines[:j], users[i].Vaccines[j+1:]...)
	if err := s.saveUsers(ctx, users); err != nil {
		return err
	}
	if acting.RefreshesSession() {
		return s.refreshSessionIf(ctx, users, userID)
	}
	return nil
}

// ----- dependent operations -----

// AddDependent registers a dependent as a full standalone user record with a
// deterministic temporary password derived from its document id, then links
// it to the owning account. It returns the new record (password stripped)
// and the temporary password in clear so the owner can relay it. A failed
// nested registration propagates its error and leaves the owner untouched.
func (s *Store) AddDependent(ctx context.Context, mainUserID string, in RegisterInput) (model.UserRecord, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return model.UserRecord{}, "", err
	}
	if findUser(users, mainUserID) == -1 {
		return model.UserRecord{}, "", ErrUserNotFound
	}

	tempPassword := utils.TemporaryPassword(strings.TrimSpace(in.DocumentID))
	in.Email = ""
	in.Password = tempPassword
	in.Role = model.RoleUser
	in.IsConvertedDependent = true
	in.MainAccountID = mainUserID

	dep, err := s.registerLocked(ctx, in)
	if err != nil {
		return model.UserRecord{}, "", err
	}

	// Reload: registerLocked rewrote the collection.
	users, err = s.loadUsers(ctx)
	if err != nil {
		return model.UserRecord{}, "", err
	}
	i := findUser(users, mainUserID)
	if i == -1 {
		return model.UserRecord{}, "", ErrUserNotFound
	}
	users[i].Dependents = append(users[i].Dependents, dep.ID)
	if err := s.saveUsers(ctx, users); err != nil {
		return model.UserRecord{}, "", err
	}
	if err := s.refreshSessionIf(ctx, users, mainUserID); err != nil {
		return model.UserRecord{}, "", err
	}
	return dep, tempPassword, nil
}

// GetDependent returns the dependent record matching both ids.
func (s *Store) GetDependent(ctx context.Context, mainUserID, dependentID string) (model.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return model.UserRecord{}, err
	}
	i := findUser(users, dependentID)
	if i == -1 || users[i].MainAccountID != mainUserID {
		return model.UserRecord{}, ErrDependentNotFound
	}
	return users[i].WithoutPassword(), nil
}

// UpdateDependent merges the patch into the record matching both the
// dependent id and the owning account id, then refreshes the owner's session
// mirror so the dependents view stays current.
func (s *Store) UpdateDependent(ctx context.Context, mainUserID, dependentID string, patch UserPatch) (model.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return model.UserRecord{}, err
	}
	i := findUser(users, dependentID)
	if i == -1 || users[i].MainAccountID != mainUserID {
		return model.UserRecord{}, ErrDependentNotFound
	}
	if err := s.applyUserPatch(&users[i], patch); err != nil {
		return model.UserRecord{}, err
	}
	if err := s.saveUsers(ctx, users); err != nil {
		return model.UserRecord{}, err
	}
	if err := s.refreshSessionIf(ctx, users, mainUserID); err != nil {
		return model.UserRecord{}, err
	}
	return users[i].WithoutPassword(), nil
}

// DeleteDependent removes the dependent record and the owner's back-reference
// in one collection write, so either both sides change or neither does.
func (s *Store) DeleteDependent(ctx context.Context, mainUserID, dependentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}
	di := findUser(users, dependentID)
	if di == -1 || users[di].MainAccountID != mainUserID {
		return ErrDependentNotFound
	}
	mi := findUser(users, mainUserID)
	if mi == -1 {
		return ErrUserNotFound
	}

	users = append(users[:di], users[di+1:]...)
	mi = findUser(users, mainUserID) // index may have shifted
	kept := users[mi].Dependents[:0]
	for _, id := range users[mi].Dependents {
		if id != dependentID {
			kept = append(kept, id)
		}
	}
	users[mi].Dependents = kept

	if err := s.saveUsers(ctx, users); err != nil {
		return err
	}
	sess, ok, err := s.loadSession(ctx)
	if err != nil {
		return err
	}
	if ok && sess.ID == dependentID {
		return s.backend.Delete(ctx, storage.KeySession)
	}
	return s.refreshSessionIf(ctx, users, mainUserID)
}

// ----- medical center roster -----

func findMedicalCenter(users []model.UserRecord, id string) int {
	i := findUser(users, id)
	if i == -1 || users[i].Role != model.RoleMedicalCenter {
		return -1
	}
	return i
}

// AddProfessional appends a professional to a medical center's roster.
func (s *Store) AddProfessional(ctx context.Context, medicalCenterID string, p model.ProfessionalRecord) (model.ProfessionalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.FullName == "" {
		return model.ProfessionalRecord{}, fmt.Errorf("%w: fullName", ErrValidation)
	}
	users, err := s.loadUsers(ctx)
	if err != nil {
		return model.ProfessionalRecord{}, err
	}
	i := findMedicalCenter(users, medicalCenterID)
	if i == -1 {
		return model.ProfessionalRecord{}, ErrMedicalCenterNotFound
	}
	p.ID = "prof-" + s.newID()
	users[i].HealthProfessionals = append(users[i].HealthProfessionals, p)
	if err := s.saveUsers(ctx, users); err != nil {
		return model.ProfessionalRecord{}, err
	}
	if err := s.refreshSessionIf(ctx, users, medicalCenterID); err != nil {
		return model.ProfessionalRecord{}, err
	}
	return p, nil
}

// UpdateProfessional merges the patch into one roster entry.
func (s *Store) UpdateProfessional(ctx context.Context, medicalCenterID, professionalID string, patch ProfessionalPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}
	i := findMedicalCenter(users, medicalCenterID)
	if i == -1 {
		return ErrMedicalCenterNotFound
	}
	for j := range users[i].HealthProfessionals {
		p := &users[i].HealthProfessionals[j]
		if p.ID != professionalID {
			continue
		}
		if patch.FullName != nil {
			p.FullName = *patch.FullName
		}
		if patch.DocumentID != nil {
			p.DocumentID = *patch.DocumentID
		}
		if patch.RegistrationNumber != nil {
			p.RegistrationNumber = *patch.RegistrationNumber
		}
		if err := s.saveUsers(ctx, users); err != nil {
			return err
		}
		return s.refreshSessionIf(ctx, users, medicalCenterID)
	}
	return ErrProfessionalNotFound
}

// DeleteProfessional removes one roster entry.
func (s *Store) DeleteProfessional(ctx context.Context, medicalCenterID, professionalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}
	i := findMedicalCenter(users, medicalCenterID)
	if i == -1 {
		return ErrMedicalCenterNotFound
	}
	found := false
	kept := users[i].HealthProfessionals[:0]
	for _, p := range users[i].HealthProfessionals {
		if p.ID == professionalID {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return ErrProfessionalNotFound
	}
	users[i].HealthProfessionals = kept
	if err := s.saveUsers(ctx, users); err != nil {
		return err
	}
	return s.refreshSessionIf(ctx, users, medicalCenterID)
}

// ----- certificate issuance log -----

// RecordCertificate upserts the denormalized issuance entry for a user. The
// entry is a convenience record for the admin panel; losing it never loses
// vaccination data.
func (s *Store) RecordCertificate(ctx context.Context, entry model.CertificateEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []model.CertificateEntry
	b, err := s.backend.Get(ctx, storage.KeyCertificates)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load certificates: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(b, &entries); err != nil {
			return fmt.Errorf("decode certificates: %w", err)
		}
	}

	replaced := false
	for i := range entries {
		if entries[i].UserID == entry.UserID {
			entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}

	out, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode certificates: %w", err)
	}
	if err := s.backend.Put(ctx, storage.KeyCertificates, out); err != nil {
		return fmt.Errorf("save certificates: %w", err)
	}
	return nil
}

// ListCertificates returns the issuance log in insertion order.
func (s *Store) ListCertificates(ctx context.Context) ([]model.CertificateEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.backend.Get(ctx, storage.KeyCertificates)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []model.CertificateEntry{}, nil
		}
		return nil, fmt.Errorf("load certificates: %w", err)
	}
	var entries []model.CertificateEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("decode certificates: %w", err)
	}
	return entries, nil
}
