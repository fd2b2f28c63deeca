package store

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/vacunorg/vaccination-records/internal/model"
	"github.com/vacunorg/vaccination-records/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	backend, err := storage.NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("open file storage: %v", err)
	}
	return New(backend, bcrypt.MinCost)
}

func registerUser(t *testing.T, s *Store, doc, email string) model.UserRecord {
	t.Helper()
	rec, err := s.Register(context.Background(), RegisterInput{
		Email:      email,
		Password:   "secret123",
		DocumentID: doc,
		FirstName:  "Ana",
		LastName:   "García",
		BirthDate:  "1990-05-04",
		Country:    "Colombia",
	})
	if err != nil {
		t.Fatalf("register %s: %v", doc, err)
	}
	return rec
}

func TestRegisterDuplicateLeavesCollectionUnchanged(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	registerUser(t, s, "D1", "a@x.com")

	cases := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"duplicate email", RegisterInput{Email: "a@x.com", Password: "p", DocumentID: "D9", FirstName: "B"}, ErrDuplicateEmail},
		{"duplicate document", RegisterInput{Email: "b@x.com", Password: "p", DocumentID: "D1", FirstName: "B"}, ErrDuplicateDocument},
	}
	for _, tc := range cases {
		if _, err := s.Register(ctx, tc.in); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("collection changed after failed registrations: %d records", len(users))
	}
}

func TestRegisterDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Register(ctx, RegisterInput{Password: "p", DocumentID: "D7", FirstName: "Luis"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if rec.Email != "D7@vacun.org" {
		t.Errorf("default email = %q, want D7@vacun.org", rec.Email)
	}
	if rec.Role != model.RoleUser {
		t.Errorf("default role = %q, want user", rec.Role)
	}
	if rec.Password != "" {
		t.Error("register returned a record with its credential attached")
	}

	admin, err := s.Register(ctx, RegisterInput{Email: ReservedAdminEmail, Password: "p", DocumentID: "D8", FirstName: "Root"})
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}
	if admin.Role != model.RoleAdmin {
		t.Errorf("reserved address role = %q, want admin", admin.Role)
	}
	// Admin registration must not claim the session.
	sess, ok, err := s.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if !ok || sess.ID != rec.ID {
		t.Errorf("session = %+v, want the plain user registration", sess)
	}
}

func TestRegisterMissingFields(t *testing.T) {
	s := newTestStore(t)
	for _, in := range []RegisterInput{
		{Password: "p", FirstName: "X"},    // no document
		{Password: "p", DocumentID: "D1"},  // no first name
		{DocumentID: "D1", FirstName: "X"}, // no password
	} {
		if _, err := s.Register(context.Background(), in); !errors.Is(err, ErrValidation) {
			t.Errorf("register %+v: got %v, want ErrValidation", in, err)
		}
	}
}

func TestLoginByEmailAndDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	registerUser(t, s, "D1", "a@x.com")

	for _, ident := range []string{"a@x.com", "D1"} {
		rec, err := s.Login(ctx, ident, "secret123")
		if err != nil {
			t.Fatalf("login by %q: %v", ident, err)
		}
		if rec.DocumentID != "D1" {
			t.Errorf("login by %q returned document %q", ident, rec.DocumentID)
		}
	}
}

func TestLoginWrongPasswordLeavesSessionUnset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	registerUser(t, s, "D1", "a@x.com")
	if err := s.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := s.Login(ctx, "D1", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("login: got %v, want ErrInvalidCredentials", err)
	}
	if _, ok, err := s.CurrentUser(ctx); err != nil || ok {
		t.Fatalf("session after failed login: ok=%v err=%v, want unset", ok, err)
	}
}

func TestLegacyPlaintextCredentialStillVerifies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := registerUser(t, s, "D1", "a@x.com")

	// Simulate a record written by the legacy system: plaintext credential.
	users, err := s.loadUsers(ctx)
	if err != nil {
		t.Fatalf("load users: %v", err)
	}
	users[findUser(users, rec.ID)].Password = "oldplain"
	if err := s.saveUsers(ctx, users); err != nil {
		t.Fatalf("save users: %v", err)
	}

	if _, err := s.Login(ctx, "D1", "oldplain"); err != nil {
		t.Fatalf("legacy login: %v", err)
	}
}

func TestVaccineAddDeleteRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := registerUser(t, s, "D1", "a@x.com")

	before, err := s.GetUser(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}

	added, err := s.AddVaccine(ctx, rec.ID, model.VaccineRecord{
		VaccineName:      "Hepatitis B",
		Dose:             model.DoseFirst,
		VaccinationDate:  "2024-01-01",
		VaccinationPlace: "Clínica Central",
	}, model.ActingUser)
	if err != nil {
		t.Fatalf("add vaccine: %v", err)
	}
	if added.ID == "" {
		t.Fatal("store did not assign a vaccine id")
	}

	if err := s.DeleteVaccine(ctx, rec.ID, added.ID, model.ActingUser); err != nil {
		t.Fatalf("delete vaccine: %v", err)
	}
	after, err := s.GetUser(ctx, rec.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if len(after.Vaccines) != len(before.Vaccines) {
		t.Errorf("vaccine list did not round-trip: before=%d after=%d", len(before.Vaccines), len(after.Vaccines))
	}
}

func TestVaccineNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := registerUser(t, s, "D1", "a@x.com")

	if err := s.DeleteVaccine(ctx, rec.ID, "missing", model.ActingUser); !errors.Is(err, ErrVaccineNotFound) {
		t.Errorf("delete: got %v, want ErrVaccineNotFound", err)
	}
	if _, err := s.AddVaccine(ctx, "missing", model.VaccineRecord{VaccineName: "X"}, model.ActingUser); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("add to missing user: got %v, want ErrUserNotFound", err)
	}
}

func TestActingRoleControlsSessionRefresh(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := registerUser(t, s, "D1", "a@x.com") // session user
	bob := registerUser(t, s, "D2", "b@x.com")   // registration moves the session here

	if _, err := s.Login(ctx, "a@x.com", "secret123"); err != nil {
		t.Fatalf("login alice: %v", err)
	}

	// An admin adding a vaccine to bob must not touch alice's session.
	if _, err := s.AddVaccine(ctx, bob.ID, model.VaccineRecord{VaccineName: "Polio"}, model.ActingAdmin); err != nil {
		t.Fatalf("admin add vaccine: %v", err)
	}
	sess, ok, err := s.CurrentUser(ctx)
	if err != nil || !ok {
		t.Fatalf("current user: ok=%v err=%v", ok, err)
	}
	if sess.ID != alice.ID {
		t.Fatalf("session moved to %s", sess.ID)
	}

	// A self-service mutation on the session user refreshes the mirror.
	if _, err := s.AddVaccine(ctx, alice.ID, model.VaccineRecord{VaccineName: "Tetanus"}, model.ActingUser); err != nil {
		t.Fatalf("self add vaccine: %v", err)
	}
	sess, _, err = s.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if len(sess.Vaccines) != 1 || sess.Vaccines[0].VaccineName != "Tetanus" {
		t.Errorf("session mirror not refreshed: %+v", sess.Vaccines)
	}
}

func TestAddDependentBidirectionalLink(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	main := registerUser(t, s, "D1", "a@x.com")

	dep, tempPassword, err := s.AddDependent(ctx, main.ID, RegisterInput{
		DocumentID:   "D2",
		FirstName:    "Niño",
		LastName:     "García",
		Relationship: "child",
	})
	if err != nil {
		t.Fatalf("add dependent: %v", err)
	}
	if tempPassword != "vacunD2" {
		t.Errorf("temp password = %q, want vacunD2", tempPassword)
	}
	if dep.MainAccountID != main.ID {
		t.Errorf("dependent mainAccountId = %q, want %q", dep.MainAccountID, main.ID)
	}
	if !dep.IsConvertedDependent {
		t.Error("dependent not flagged as converted")
	}

	got, err := s.GetUser(ctx, main.ID)
	if err != nil {
		t.Fatalf("get main: %v", err)
	}
	if !got.HasDependent(dep.ID) {
		t.Errorf("main account dependents = %v, missing %s", got.Dependents, dep.ID)
	}
}

func TestDependentCanLoginWithTempPassword(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	main := registerUser(t, s, "D1", "a@x.com")

	_, tempPassword, err := s.AddDependent(ctx, main.ID, RegisterInput{DocumentID: "D2", FirstName: "Niño"})
	if err != nil {
		t.Fatalf("add dependent: %v", err)
	}

	rec, err := s.Login(ctx, "D2", tempPassword)
	if err != nil {
		t.Fatalf("dependent login: %v", err)
	}
	if !rec.IsConvertedDependent {
		t.Error("logged-in dependent record not flagged as converted")
	}
}

func TestAddDependentDoesNotStealSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	main := registerUser(t, s, "D1", "a@x.com")

	if _, _, err := s.AddDependent(ctx, main.ID, RegisterInput{DocumentID: "D2", FirstName: "Niño"}); err != nil {
		t.Fatalf("add dependent: %v", err)
	}
	sess, ok, err := s.CurrentUser(ctx)
	if err != nil || !ok {
		t.Fatalf("current user: ok=%v err=%v", ok, err)
	}
	if sess.ID != main.ID {
		t.Errorf("session = %s, want the main account", sess.ID)
	}
	// And the mirror already sees the new dependent.
	if len(sess.Dependents) != 1 {
		t.Errorf("session mirror dependents = %v", sess.Dependents)
	}
}

func TestDeleteDependentAllOrNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	main := registerUser(t, s, "D1", "a@x.com")
	other := registerUser(t, s, "D3", "c@x.com")

	dep, _, err := s.AddDependent(ctx, main.ID, RegisterInput{DocumentID: "D2", FirstName: "Niño"})
	if err != nil {
		t.Fatalf("add dependent: %v", err)
	}

	// Wrong owner: nothing changes on either side.
	if err := s.DeleteDependent(ctx, other.ID, dep.ID); !errors.Is(err, ErrDependentNotFound) {
		t.Fatalf("delete with wrong owner: got %v, want ErrDependentNotFound", err)
	}
	if _, err := s.GetUser(ctx, dep.ID); err != nil {
		t.Fatalf("dependent vanished after failed delete: %v", err)
	}
	got, _ := s.GetUser(ctx, main.ID)
	if !got.HasDependent(dep.ID) {
		t.Fatal("back-reference vanished after failed delete")
	}

	// Correct owner: both sides go together.
	if err := s.DeleteDependent(ctx, main.ID, dep.ID); err != nil {
		t.Fatalf("delete dependent: %v", err)
	}
	if _, err := s.GetUser(ctx, dep.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("dependent still present: %v", err)
	}
	got, _ = s.GetUser(ctx, main.ID)
	if got.HasDependent(dep.ID) {
		t.Fatal("back-reference still present after delete")
	}
}

func TestUpdateDependentKeepsRelationship(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	main := registerUser(t, s, "D1", "a@x.com")
	dep, _, err := s.AddDependent(ctx, main.ID, RegisterInput{DocumentID: "D2", FirstName: "Niño", Relationship: "child"})
	if err != nil {
		t.Fatalf("add dependent: %v", err)
	}

	rel := "grandchild"
	first := "Nieta"
	got, err := s.UpdateDependent(ctx, main.ID, dep.ID, UserPatch{FirstName: &first, Relationship: &rel})
	if err != nil {
		t.Fatalf("update dependent: %v", err)
	}
	if got.Relationship != "grandchild" || got.FirstName != "Nieta" {
		t.Errorf("patch not applied: %+v", got)
	}
	if got.MainAccountID != main.ID {
		t.Errorf("ownership changed: %q", got.MainAccountID)
	}
}

func TestDeleteUserDoesNotCascadeDependents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	main := registerUser(t, s, "D1", "a@x.com")
	dep, _, err := s.AddDependent(ctx, main.ID, RegisterInput{DocumentID: "D2", FirstName: "Niño"})
	if err != nil {
		t.Fatalf("add dependent: %v", err)
	}

	if err := s.DeleteUser(ctx, main.ID); err != nil {
		t.Fatalf("delete main: %v", err)
	}
	// The dependent survives as a standalone record with a dangling owner id.
	got, err := s.GetUser(ctx, dep.ID)
	if err != nil {
		t.Fatalf("dependent removed by cascade: %v", err)
	}
	if got.MainAccountID != main.ID {
		t.Errorf("dangling mainAccountId rewritten to %q", got.MainAccountID)
	}
}

func TestDeleteSessionUserClearsSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := registerUser(t, s, "D1", "a@x.com")

	if err := s.DeleteUser(ctx, rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, err := s.CurrentUser(ctx); err != nil || ok {
		t.Fatalf("session survives deleted user: ok=%v err=%v", ok, err)
	}
}

func TestProfessionalRosterScopedToMedicalCenter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	plain := registerUser(t, s, "D1", "a@x.com")
	center, err := s.Register(ctx, RegisterInput{
		Email: "clinic@x.com", Password: "p", DocumentID: "MC1",
		FirstName: "Clínica", Role: model.RoleMedicalCenter,
	})
	if err != nil {
		t.Fatalf("register center: %v", err)
	}

	if _, err := s.AddProfessional(ctx, plain.ID, model.ProfessionalRecord{FullName: "Dr. X"}); !errors.Is(err, ErrMedicalCenterNotFound) {
		t.Fatalf("add to plain user: got %v, want ErrMedicalCenterNotFound", err)
	}

	p, err := s.AddProfessional(ctx, center.ID, model.ProfessionalRecord{
		FullName: "Dra. Pérez", DocumentID: "P1", RegistrationNumber: "RM-100",
	})
	if err != nil {
		t.Fatalf("add professional: %v", err)
	}
	if p.ID == "" || p.ID[:5] != "prof-" {
		t.Errorf("professional id = %q, want prof- prefix", p.ID)
	}

	reg := "RM-200"
	if err := s.UpdateProfessional(ctx, center.ID, p.ID, ProfessionalPatch{RegistrationNumber: &reg}); err != nil {
		t.Fatalf("update professional: %v", err)
	}
	if err := s.DeleteProfessional(ctx, center.ID, p.ID); err != nil {
		t.Fatalf("delete professional: %v", err)
	}
	if err := s.DeleteProfessional(ctx, center.ID, p.ID); !errors.Is(err, ErrProfessionalNotFound) {
		t.Fatalf("second delete: got %v, want ErrProfessionalNotFound", err)
	}
}

func TestRecordCertificateUpserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := model.CertificateEntry{ID: "u1-1", UserID: "u1", PatientName: "Ana"}
	second := model.CertificateEntry{ID: "u1-2", UserID: "u1", PatientName: "Ana"}
	other := model.CertificateEntry{ID: "u2-1", UserID: "u2", PatientName: "Luis"}
	for _, e := range []model.CertificateEntry{first, second, other} {
		if err := s.RecordCertificate(ctx, e); err != nil {
			t.Fatalf("record certificate: %v", err)
		}
	}

	entries, err := s.ListCertificates(ctx)
	if err != nil {
		t.Fatalf("list certificates: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want one per user", len(entries))
	}
	if entries[0].ID != "u1-2" {
		t.Errorf("entry for u1 not replaced: %+v", entries[0])
	}
}
