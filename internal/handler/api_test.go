package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/vacunorg/vaccination-records/internal/certificate"
	"github.com/vacunorg/vaccination-records/internal/config"
	"github.com/vacunorg/vaccination-records/internal/handler"
	"github.com/vacunorg/vaccination-records/internal/middleware"
	"github.com/vacunorg/vaccination-records/internal/router"
	"github.com/vacunorg/vaccination-records/internal/storage"
	"github.com/vacunorg/vaccination-records/internal/store"
)

func newTestAPI(t *testing.T) *echo.Echo {
	t.Helper()
	backend, err := storage.NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("open file storage: %v", err)
	}
	s := store.New(backend, bcrypt.MinCost)
	cfg := config.Config{JWTSecret: "test-secret", AccessTTLMin: 15, VerifyBaseURL: "https://vacun.org/verify"}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	e := echo.New()
	router.Register(e, router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, s),
		User:         handler.NewUserHandler(s),
		Dependent:    handler.NewDependentHandler(s),
		Professional: handler.NewProfessionalHandler(s),
		Certificate:  handler.NewCertificateHandler(cfg, s, certificate.New(log), log),
		Admin:        handler.NewAdminHandler(s),
	}, cfg.JWTSecret,
		middleware.RateLimit(config.RateLimitConfig{}, nil),
		middleware.ResponseCache(config.CacheConfig{}, nil),
	)
	return e
}

func do(t *testing.T, e *echo.Echo, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type authPayload struct {
	User struct {
		ID         string `json:"id"`
		Email      string `json:"email"`
		DocumentID string `json:"documentId"`
		Role       string `json:"role"`
		Password   string `json:"password"`
	} `json:"user"`
	Access struct {
		Token string `json:"token"`
	} `json:"access"`
}

func register(t *testing.T, e *echo.Echo, doc, email string) authPayload {
	t.Helper()
	rec := do(t, e, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email": email, "password": "secret123", "documentId": doc,
		"firstName": "Ana", "lastName": "García", "birthDate": "1990-05-04", "country": "Colombia",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", doc, rec.Code, rec.Body.String())
	}
	var out authPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return out
}

func TestRegisterLoginFlow(t *testing.T) {
	e := newTestAPI(t)
	out := register(t, e, "D1", "a@x.com")
	if out.User.Role != "user" {
		t.Errorf("role = %q, want user", out.User.Role)
	}
	if out.User.Password != "" {
		t.Error("response leaked the stored credential")
	}
	if out.Access.Token == "" {
		t.Fatal("no access token issued")
	}

	// Duplicate registration conflicts.
	rec := do(t, e, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email": "a@x.com", "password": "p", "documentId": "D9", "firstName": "B",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register: status %d", rec.Code)
	}

	// Login by document id.
	rec = do(t, e, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"identifier": "D1", "password": "secret123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}

	// Wrong password is unauthorized.
	rec = do(t, e, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"identifier": "D1", "password": "nope",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login: status %d", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newTestAPI(t)
	if rec := do(t, e, http.MethodGet, "/v1/me", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("/v1/me without token: status %d", rec.Code)
	}
	if rec := do(t, e, http.MethodGet, "/v1/me", "not-a-jwt", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("/v1/me with garbage token: status %d", rec.Code)
	}
}

func TestMeReflectsVaccineMutations(t *testing.T) {
	e := newTestAPI(t)
	out := register(t, e, "D1", "a@x.com")
	token := out.Access.Token

	rec := do(t, e, http.MethodPost, "/v1/users/"+out.User.ID+"/vaccines", token, map[string]string{
		"vaccineName": "Hepatitis B", "dose": "1st Dose", "vaccinationDate": "2024-01-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add vaccine: status %d body %s", rec.Code, rec.Body.String())
	}
	var vac struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &vac); err != nil {
		t.Fatalf("decode vaccine: %v", err)
	}

	rec = do(t, e, http.MethodGet, "/v1/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("/v1/me: status %d", rec.Code)
	}
	var me struct {
		Vaccines []struct {
			VaccineName string `json:"vaccineName"`
		} `json:"vaccines"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if len(me.Vaccines) != 1 || me.Vaccines[0].VaccineName != "Hepatitis B" {
		t.Errorf("vaccines = %+v", me.Vaccines)
	}

	if rec = do(t, e, http.MethodDelete, "/v1/users/"+out.User.ID+"/vaccines/"+vac.ID, token, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete vaccine: status %d", rec.Code)
	}
	if rec = do(t, e, http.MethodDelete, "/v1/users/"+out.User.ID+"/vaccines/"+vac.ID, token, nil); rec.Code != http.StatusNotFound {
		t.Errorf("delete missing vaccine: status %d", rec.Code)
	}
}

func TestUserCannotTouchOtherAccounts(t *testing.T) {
	e := newTestAPI(t)
	alice := register(t, e, "D1", "a@x.com")
	bob := register(t, e, "D2", "b@x.com")

	rec := do(t, e, http.MethodPost, "/v1/users/"+bob.User.ID+"/vaccines", alice.Access.Token, map[string]string{
		"vaccineName": "Polio",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("cross-account vaccine write: status %d", rec.Code)
	}
}

func TestDependentLifecycleOverHTTP(t *testing.T) {
	e := newTestAPI(t)
	main := register(t, e, "D1", "a@x.com")
	token := main.Access.Token

	rec := do(t, e, http.MethodPost, "/v1/dependents", token, map[string]string{
		"documentId": "D2", "firstName": "Niño", "relationship": "child",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add dependent: status %d body %s", rec.Code, rec.Body.String())
	}
	var dep struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		TempPassword string `json:"tempPassword"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &dep); err != nil {
		t.Fatalf("decode dependent: %v", err)
	}
	if dep.TempPassword != "vacunD2" {
		t.Errorf("temp password = %q", dep.TempPassword)
	}

	// Another account cannot see the dependent.
	other := register(t, e, "D3", "c@x.com")
	if rec = do(t, e, http.MethodGet, "/v1/dependents/"+dep.User.ID, other.Access.Token, nil); rec.Code != http.StatusNotFound {
		t.Errorf("foreign dependent read: status %d", rec.Code)
	}

	if rec = do(t, e, http.MethodDelete, "/v1/dependents/"+dep.User.ID, token, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete dependent: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestProfessionalRoutesRequireMedicalCenterRole(t *testing.T) {
	e := newTestAPI(t)
	plain := register(t, e, "D1", "a@x.com")
	if rec := do(t, e, http.MethodGet, "/v1/professionals", plain.Access.Token, nil); rec.Code != http.StatusForbidden {
		t.Errorf("plain user on roster routes: status %d", rec.Code)
	}
}

func TestCertificateEndpoint(t *testing.T) {
	e := newTestAPI(t)
	out := register(t, e, "D1", "a@x.com")
	token := out.Access.Token

	// No vaccines yet: nothing to certify.
	rec := do(t, e, http.MethodGet, "/v1/users/"+out.User.ID+"/certificate", token, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("certificate for empty history: status %d", rec.Code)
	}

	for i := 0; i < 3; i++ {
		r := do(t, e, http.MethodPost, "/v1/users/"+out.User.ID+"/vaccines", token, map[string]string{
			"vaccineName": fmt.Sprintf("Vacuna %d", i), "dose": "1st Dose",
		})
		if r.Code != http.StatusCreated {
			t.Fatalf("add vaccine %d: status %d", i, r.Code)
		}
	}

	rec = do(t, e, http.MethodGet, "/v1/users/"+out.User.ID+"/certificate?locale=en", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("certificate: status %d body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); cd == "" {
		t.Error("missing content disposition")
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("body is not a PDF document")
	}
}
