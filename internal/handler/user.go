package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vacunorg/vaccination-records/internal/model"
	"github.com/vacunorg/vaccination-records/internal/store"
)

// UserHandler serves profile and vaccine mutations on user records.
type UserHandler struct {
	Store *store.Store
}

func NewUserHandler(s *store.Store) *UserHandler {
	return &UserHandler{Store: s}
}

// Update merges a patch into the target record. Accounts may edit
// themselves; admins and medical centers may edit anyone.
func (h *UserHandler) Update(c echo.Context) error {
	id := c.Param("id")
	if !canManage(c, id) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var patch store.UserPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if authRole(c) != model.RoleAdmin {
		patch.Role = nil // only admins may reassign roles
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rec, err := h.Store.UpdateUser(ctx, id, patch)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// Delete removes the target record. Dependents of a deleted main account are
// left in place; only the dependent routes clean up both sides of the link.
func (h *UserHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if !canManage(c, id) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Store.DeleteUser(ctx, id); err != nil {
		return storeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AddVaccine appends a vaccine entry to the target record.
func (h *UserHandler) AddVaccine(c echo.Context) error {
	id := c.Param("id")
	if !canManage(c, id) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var v model.VaccineRecord
	if err := c.Bind(&v); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	added, err := h.Store.AddVaccine(ctx, id, v, actingFrom(c))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusCreated, added)
}

// UpdateVaccine merges a patch into one vaccine entry.
func (h *UserHandler) UpdateVaccine(c echo.Context) error {
	id := c.Param("id")
	if !canManage(c, id) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	var patch store.VaccinePatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Store.UpdateVaccine(ctx, id, c.Param("vaccineId"), patch, actingFrom(c)); err != nil {
		return storeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteVaccine removes one vaccine entry.
func (h *UserHandler) DeleteVaccine(c echo.Context) error {
	id := c.Param("id")
	if !canManage(c, id) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Store.DeleteVaccine(ctx, id, c.Param("vaccineId"), actingFrom(c)); err != nil {
		return storeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
