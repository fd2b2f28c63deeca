package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vacunorg/vaccination-records/internal/model"
	"github.com/vacunorg/vaccination-records/internal/store"
)

// reqCtx bounds a store call with the standard per-request timeout. Store
// operations are local read-modify-write cycles, but the Redis backend makes
// them network calls; mutating calls are never retried.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// storeError translates a store sentinel error into the matching HTTP
// response. Unknown errors become a 500 without leaking internals.
func storeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrVaccineNotFound),
		errors.Is(err, store.ErrDependentNotFound),
		errors.Is(err, store.ErrMedicalCenterNotFound),
		errors.Is(err, store.ErrProfessionalNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, store.ErrDuplicateEmail),
		errors.Is(err, store.ErrDuplicateDocument):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, store.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
	case errors.Is(err, store.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "operation failed"})
	}
}

// authUserID returns the record id the JWT middleware stored in the context.
func authUserID(c echo.Context) string {
	id, _ := c.Get("user_id").(string)
	return id
}

// authRole returns the role claim stored in the context.
func authRole(c echo.Context) string {
	role, _ := c.Get("role").(string)
	return role
}

// actingFrom maps the authenticated role onto the acting-role parameter the
// store uses for session refresh decisions. Dependent-path handlers pass
// model.ActingConvertedDependent explicitly instead.
func actingFrom(c echo.Context) model.ActingRole {
	switch authRole(c) {
	case model.RoleAdmin:
		return model.ActingAdmin
	case model.RoleMedicalCenter:
		return model.ActingMedicalCenter
	default:
		return model.ActingUser
	}
}

// canManage reports whether the authenticated account may mutate the target
// record: itself, or anyone when the account is an admin or medical center.
func canManage(c echo.Context, targetID string) bool {
	if authUserID(c) == targetID {
		return true
	}
	role := authRole(c)
	return role == model.RoleAdmin || role == model.RoleMedicalCenter
}
