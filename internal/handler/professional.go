package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vacunorg/vaccination-records/internal/model"
	"github.com/vacunorg/vaccination-records/internal/store"
)

// ProfessionalHandler serves the health-professional roster of the
// authenticated medical center account. The routes are registered behind
// RequireRole(medical_center), so the acting account is always the roster
// owner.
type ProfessionalHandler struct {
	Store *store.Store
}

func NewProfessionalHandler(s *store.Store) *ProfessionalHandler {
	return &ProfessionalHandler{Store: s}
}

// List returns the roster of the authenticated medical center.
func (h *ProfessionalHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	rec, err := h.Store.GetUser(ctx, authUserID(c))
	if err != nil {
		return storeError(c, err)
	}
	if rec.Role != model.RoleMedicalCenter {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	pros := rec.HealthProfessionals
	if pros == nil {
		pros = []model.ProfessionalRecord{}
	}
	return c.JSON(http.StatusOK, pros)
}

// Add registers a professional on the roster.
func (h *ProfessionalHandler) Add(c echo.Context) error {
	var p model.ProfessionalRecord
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	added, err := h.Store.AddProfessional(ctx, authUserID(c), p)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusCreated, added)
}

// Update merges a patch into one roster entry.
func (h *ProfessionalHandler) Update(c echo.Context) error {
	var patch store.ProfessionalPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Store.UpdateProfessional(ctx, authUserID(c), c.Param("professionalId"), patch); err != nil {
		return storeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes one roster entry.
func (h *ProfessionalHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Store.DeleteProfessional(ctx, authUserID(c), c.Param("professionalId")); err != nil {
		return storeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
