// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/vacunorg/vaccination-records/internal/handler"
	"github.com/vacunorg/vaccination-records/internal/middleware"
	"github.com/vacunorg/vaccination-records/internal/model"
)

// Handlers bundles everything the router wires up.
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Dependent    *handler.DependentHandler
	Professional *handler.ProfessionalHandler
	Certificate  *handler.CertificateHandler
	Admin        *handler.AdminHandler
}

// Register wires every route. Unauthenticated operations live under
// /v1/auth; everything else requires a valid access token, with role
// middleware narrowing the medical-center and admin groups. rateLimit
// throttles the credential endpoints and cache fronts the admin list reads;
// both constructors degrade to pass-throughs when their subsystem is off.
func Register(e *echo.Echo, h Handlers, jwtSecret string, rateLimit, cache echo.MiddlewareFunc) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	// Registration, login and logout issue or clear sessions; no token yet.
	// These take credentials, so they sit behind the rate limiter.
	g := e.Group("/v1/auth", rateLimit)
	g.POST("/register", h.Auth.Register)
	g.POST("/login", h.Auth.Login)
	g.POST("/logout", h.Auth.Logout)

	// Every route below requires a valid access token.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleUser, model.RoleAdmin, model.RoleMedicalCenter))

	auth.GET("/me", h.Auth.Me)

	// Profile and vaccine mutations. Handlers enforce that a plain user may
	// only touch its own record.
	auth.PATCH("/users/:id", h.User.Update)
	auth.DELETE("/users/:id", h.User.Delete)
	auth.POST("/users/:id/vaccines", h.User.AddVaccine)
	auth.PATCH("/users/:id/vaccines/:vaccineId", h.User.UpdateVaccine)
	auth.DELETE("/users/:id/vaccines/:vaccineId", h.User.DeleteVaccine)
	auth.GET("/users/:id/certificate", h.Certificate.ForUser)

	// Dependent management always acts on behalf of the authenticated main
	// account.
	auth.POST("/dependents", h.Dependent.Add)
	auth.GET("/dependents/:dependentId", h.Dependent.Get)
	auth.PATCH("/dependents/:dependentId", h.Dependent.Update)
	auth.DELETE("/dependents/:dependentId", h.Dependent.Delete)
	auth.POST("/dependents/:dependentId/vaccines", h.Dependent.AddVaccine)
	auth.PATCH("/dependents/:dependentId/vaccines/:vaccineId", h.Dependent.UpdateVaccine)
	auth.DELETE("/dependents/:dependentId/vaccines/:vaccineId", h.Dependent.DeleteVaccine)
	auth.GET("/dependents/:dependentId/certificate", h.Certificate.ForDependent)

	// Health-professional roster, medical centers only.
	medical := e.Group("/v1/professionals")
	medical.Use(middleware.JWTAuth(jwtSecret))
	medical.Use(middleware.RequireRole(model.RoleMedicalCenter))
	medical.GET("", h.Professional.List)
	medical.POST("", h.Professional.Add)
	medical.PATCH("/:professionalId", h.Professional.Update)
	medical.DELETE("/:professionalId", h.Professional.Delete)

	// Administration panel. The list reads are cacheable; the cache key is
	// the request line, which is safe because every caller behind the role
	// check sees the same payload.
	admin := e.Group("/v1/admin")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.GET("/users", h.Admin.ListUsers, cache)
	admin.GET("/certificates", h.Admin.ListCertificates, cache)
	admin.POST("/users", h.Admin.CreateUser)
}
