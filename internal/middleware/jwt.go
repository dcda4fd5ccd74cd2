package middleware // middleware provides shared request processing for handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bugzot/backend/internal/auth"
)

// Context keys populated by the auth middleware chain.
const (
	CtxUserID = "user_id" // uint64, from the token's subject
	CtxJTI    = "jti"     // string, the token identifier
	CtxToken  = "token"   // string, the raw bearer token
	CtxUser   = "user"    // model.User, set by LoadUser
	CtxRole   = "role"    // string, role name, set by LoadUser
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the subject, jti and raw token into the request context.
// Validation includes the blacklist check, so a revoked token is rejected on
// every use, not just at logout.  Malformed, expired and revoked tokens all
// collapse into 401 at this boundary; the distinction stays in the logs.  A
// revocation-store outage is the one exception and surfaces as 503, since
// letting possibly-revoked tokens through would mask a security-control
// failure.
func JWTAuth(tokens *auth.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_token", "message": "missing bearer token"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			claims, err := tokens.Decode(c.Request().Context(), raw)
			if err != nil {
				kind := auth.KindOf(err)
				log.Printf("[AUTH_FAIL] token rejected | kind=%s ip=%s", kind, c.RealIP())
				if kind == auth.KindUnavailable {
					return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "service_unavailable", "message": "token validation temporarily unavailable"})
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_token", "message": "invalid or expired token"})
			}

			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxJTI, claims.JTI)
			c.Set(CtxToken, raw)
			return next(c)
		}
	}
}
