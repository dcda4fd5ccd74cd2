package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bugzot/backend/internal/auth"
	"github.com/bugzot/backend/internal/middleware"
	"github.com/bugzot/backend/internal/model"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{Auth: svc}
}

// ----- DTOs -----

// registerReq carries the registration body.  Website is the honeypot: a
// hidden form field that humans leave blank.
type registerReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"omitempty,max=255"`
	Website  string `json:"website"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Register runs the full validation pipeline and creates the user.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "validation_failed", "message": "email must be valid and password at least 8 characters"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	user, err := h.Auth.Register(ctx, auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Honeypot: req.Website,
		IP:       c.RealIP(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toUserResp(user))
}

// Login verifies credentials and returns a bearer access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "validation_failed", "message": "email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	token, _, err := h.Auth.Login(ctx, auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		IP:       c.RealIP(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, tokenResp{AccessToken: token, TokenType: "bearer"})
}

// Logout blacklists the presented token for its remaining lifetime.  The
// JWT middleware already rejected invalid or expired tokens, so by the time
// this runs the token decodes cleanly; calling logout twice is a no-op
// success both times.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw, _ := c.Get(middleware.CtxToken).(string)
	if strings.TrimSpace(raw) == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_token", "message": "missing bearer token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Auth.Logout(ctx, raw); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me echoes the authenticated principal resolved by the middleware chain.
func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := c.Get(middleware.CtxUser).(model.User)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_token", "message": "invalid or expired token"})
	}
	return c.JSON(http.StatusOK, toUserResp(user))
}

// Verify consumes an activation key from the emailed link.
func (h *AuthHandler) Verify(c echo.Context) error {
	key := strings.TrimSpace(c.QueryParam("token"))
	if key == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_activation_key", "message": "token query parameter required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Auth.Verify(ctx, key); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "account verified"})
}
