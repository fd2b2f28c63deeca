package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vacunorg/vaccination-records/internal/model"
	"github.com/vacunorg/vaccination-records/internal/store"
)

// DependentHandler serves the family-dependent routes. A dependent is a full
// standalone record linked to the authenticated main account; every route
// here operates on the pair (main account, dependent id), and vaccine
// mutations run under the converted-dependent acting role so the main
// session mirror is the one refreshed.
type DependentHandler struct {
	Store *store.Store
}

func NewDependentHandler(s *store.Store) *DependentHandler {
	return &DependentHandler{Store: s}
}

type addDependentResp struct {
	User         model.UserRecord `json:"user"`
	TempPassword string           `json:"tempPassword"`
}

// Add registers a dependent under the authenticated account and returns the
// record together with its deterministic temporary password, which the owner
// relays to the dependent for an independent login.
func (h *DependentHandler) Add(c echo.Context) error {
	var req store.RegisterInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	dep, tempPassword, err := h.Store.AddDependent(ctx, authUserID(c), req)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusCreated, addDependentResp{User: dep, TempPassword: tempPassword})
}

// Get returns one dependent of the authenticated account.
func (h *DependentHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	dep, err := h.Store.GetDependent(ctx, authUserID(c), c.Param("dependentId"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, dep)
}

// Update merges a patch into a dependent record, including the relationship
// label.
func (h *DependentHandler) Update(c echo.Context) error {
	var patch store.UserPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	patch.Role = nil // a dependent stays a user-role record

	ctx, cancel := reqCtx(c)
	defer cancel()

	dep, err := h.Store.UpdateDependent(ctx, authUserID(c), c.Param("dependentId"), patch)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, dep)
}

// Delete removes a dependent record and the owner's back-reference together.
func (h *DependentHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Store.DeleteDependent(ctx, authUserID(c), c.Param("dependentId")); err != nil {
		return storeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// dependentOf loads the dependent and verifies ownership before a nested
// vaccine mutation.
func (h *DependentHandler) dependentOf(c echo.Context) (model.UserRecord, error) {
	ctx, cancel := reqCtx(c)
	defer cancel()
	return h.Store.GetDependent(ctx, authUserID(c), c.Param("dependentId"))
}

// AddVaccine appends a vaccine to a dependent's list.
func (h *DependentHandler) AddVaccine(c echo.Context) error {
	dep, err := h.dependentOf(c)
	if err != nil {
		return storeError(c, err)
	}
	var v model.VaccineRecord
	if err := c.Bind(&v); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	added, err := h.Store.AddVaccine(ctx, dep.ID, v, model.ActingConvertedDependent)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusCreated, added)
}

// UpdateVaccine merges a patch into one of a dependent's vaccine entries.
func (h *DependentHandler) UpdateVaccine(c echo.Context) error {
	dep, err := h.dependentOf(c)
	if err != nil {
		return storeError(c, err)
	}
	var patch store.VaccinePatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Store.UpdateVaccine(ctx, dep.ID, c.Param("vaccineId"), patch, model.ActingConvertedDependent); err != nil {
		return storeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteVaccine removes one of a dependent's vaccine entries.
func (h *DependentHandler) DeleteVaccine(c echo.Context) error {
	dep, err := h.dependentOf(c)
	if err != nil {
		return storeError(c, err)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Store.DeleteVaccine(ctx, dep.ID, c.Param("vaccineId"), model.ActingConvertedDependent); err != nil {
		return storeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
