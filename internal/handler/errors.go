package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bugzot/backend/internal/auth"
)

// respondError translates an orchestrator failure into an HTTP response.
// This is the only place error kinds become status codes; everything above
// works with auth.Kind values.  Unknown errors become an opaque 500; no
// stack traces or internal identifiers ever reach the body.
func respondError(c echo.Context, err error) error {
	kind := auth.KindOf(err)
	status, message := http.StatusInternalServerError, "internal server error"
	switch kind {
	case auth.KindBotDetected, auth.KindInvalidEmailDomain, auth.KindInvalidActivationKey:
		status = http.StatusBadRequest
	case auth.KindEmailExists:
		status = http.StatusConflict
	case auth.KindWeakPassword:
		status = http.StatusUnprocessableEntity
	case auth.KindRateLimited:
		status = http.StatusTooManyRequests
	case auth.KindInvalidCredentials:
		status = http.StatusUnauthorized
	case auth.KindAccountInactive:
		status = http.StatusForbidden
	case auth.KindInvalidToken, auth.KindRevokedToken, auth.KindTokenMissingClaim:
		// All token-decode failures collapse to 401 at the API boundary so
		// callers cannot probe why a token was rejected.
		status = http.StatusUnauthorized
	case auth.KindUnavailable:
		status = http.StatusServiceUnavailable
	}
	var ae *auth.Error
	if errors.As(err, &ae) {
		return c.JSON(status, echo.Map{"error": string(kind), "message": ae.Detail})
	}
	return c.JSON(status, echo.Map{"error": "internal", "message": message})
}
