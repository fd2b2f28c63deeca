package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vacunorg/vaccination-records/internal/model"
	"github.com/vacunorg/vaccination-records/internal/store"
)

// AdminHandler serves the administration panel endpoints. The routes are
// registered behind RequireRole(admin).
type AdminHandler struct {
	Store *store.Store
}

func NewAdminHandler(s *store.Store) *AdminHandler {
	return &AdminHandler{Store: s}
}

// ListUsers returns every record, passwords stripped.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Store.ListUsers(ctx)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// CreateUser registers an account on someone's behalf, including admin and
// medical_center accounts. The store keeps its usual session rules: only a
// plain user registration claims the session mirror.
func (h *AdminHandler) CreateUser(c echo.Context) error {
	var req store.RegisterInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	switch req.Role {
	case "", model.RoleUser, model.RoleAdmin, model.RoleMedicalCenter:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rec, err := h.Store.Register(ctx, req)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

// ListCertificates returns the denormalized issuance log for the admin
// panel's stats view.
func (h *AdminHandler) ListCertificates(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	entries, err := h.Store.ListCertificates(ctx)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}
