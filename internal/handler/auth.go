package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vacunorg/vaccination-records/internal/config"
	"github.com/vacunorg/vaccination-records/internal/model"
	"github.com/vacunorg/vaccination-records/internal/store"
	"github.com/vacunorg/vaccination-records/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Store *store.Store
}

func NewAuthHandler(cfg config.Config, s *store.Store) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Store: s}
}

// ----- DTOs -----

type loginReq struct {
	Identifier string `json:"identifier"` // email or document id
	Password   string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	User   model.UserRecord `json:"user"`
	Access tokenPart        `json:"access"`
}

// Register creates a record through the store and returns it with an access
// token. Admin and medical center accounts can also be created here by an
// already-authenticated admin through the admin routes; this public endpoint
// only ever produces regular user accounts.
func (h *AuthHandler) Register(c echo.Context) error {
	var req store.RegisterInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Role = "" // public registration never chooses its role

	ctx, cancel := reqCtx(c)
	defer cancel()

	rec, err := h.Store.Register(ctx, req)
	if err != nil {
		return storeError(c, err)
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, rec.ID, rec.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusCreated, authResp{
		User:   rec,
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Login verifies the identifier/password pair and returns the record with a
// fresh access token. The store records the session mirror as a side effect.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Identifier) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "identifier/password required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rec, err := h.Store.Login(ctx, req.Identifier, req.Password)
	if err != nil {
		return storeError(c, err)
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, rec.ID, rec.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, authResp{
		User:   rec,
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Logout clears the session mirror. Always succeeds.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Store.Logout(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated account's current record.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	rec, err := h.Store.GetUser(ctx, authUserID(c))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}
