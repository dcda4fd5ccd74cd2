// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/bugzot/backend/internal/auth"
	"github.com/bugzot/backend/internal/handler"
	"github.com/bugzot/backend/internal/middleware"
	"github.com/bugzot/backend/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints.  Unauthenticated
// operations (register, login, verify) live under /v1/auth; everything else
// sits behind the JWT + principal-loading middleware chain, so a revoked or
// expired token never reaches a handler.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, tokens *auth.TokenService, users middleware.UserSource) *echo.Group {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.GET("/verify", a.Verify)

	authed := e.Group("/v1")
	authed.Use(middleware.JWTAuth(tokens))
	authed.Use(middleware.LoadUser(users))
	authed.POST("/auth/logout", a.Logout)
	authed.GET("/auth/me", a.Me)
	// /v1/me is kept as a short alias for the same principal echo.
	authed.GET("/me", a.Me)
	return authed
}

// RegisterDirectory registers the user/role listing and administration
// endpoints on the authenticated group returned by RegisterAuth.  Role
// listings are open to any authenticated user; user administration requires
// the admin role.
func RegisterDirectory(authed *echo.Group, u *handler.UserHandler, r *handler.RoleHandler) {
	authed.GET("/roles", r.List)

	admin := authed.Group("/users")
	admin.Use(middleware.RequireRole(model.AdminRoleName))
	admin.GET("", u.List)
	admin.GET("/:id", u.Get)
	admin.PATCH("/:id", u.Update)
	admin.DELETE("/:id", u.Delete)
}
