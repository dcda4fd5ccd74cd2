package middleware

// identity.go resolves the authenticated principal behind a validated token.
// JWTAuth only proves possession of a signed, unrevoked token; LoadUser
// additionally confirms the subject still maps to an active, non-deleted
// user, so a token outlives neither a soft delete nor a deactivation.

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bugzot/backend/internal/model"
	"github.com/bugzot/backend/internal/repository"
)

// UserSource is the lookup LoadUser needs; *repository.UserRepo satisfies it.
type UserSource interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// LoadUser fetches the user identified by the token subject and stores the
// record and role name in the context.  A subject that no longer resolves to
// a live, active user is rejected as 401; handlers downstream can rely on
// CtxUser being present.
func LoadUser(users UserSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := c.Get(CtxUserID).(uint64)
			if !ok || id == 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_token", "message": "invalid or expired token"})
			}
			user, err := users.GetByID(c.Request().Context(), id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_token", "message": "invalid or expired token"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "user lookup failed"})
			}
			c.Set(CtxUser, user)
			c.Set(CtxRole, user.RoleName)
			return next(c)
		}
	}
}
