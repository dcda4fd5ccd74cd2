package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bugzot/backend/internal/auth"
	"github.com/bugzot/backend/internal/model"
	"github.com/bugzot/backend/internal/repository"
)

// UserDirectory is the store surface the admin endpoints need;
// *repository.UserRepo satisfies it.
type UserDirectory interface {
	List(ctx context.Context, offset, limit int) ([]model.User, int, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, id uint64, email string, fullName *string, roleID uint8, active bool) error
	SoftDelete(ctx context.Context, id uint64) error
}

// UserHandler serves the admin-only user management endpoints.
type UserHandler struct {
	Users UserDirectory
}

func NewUserHandler(users UserDirectory) *UserHandler {
	return &UserHandler{Users: users}
}

// updateUserReq carries a partial profile update; nil fields are untouched.
type updateUserReq struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
	RoleID   *uint8  `json:"role_id"`
	IsActive *bool   `json:"is_active"`
}

type userListResp struct {
	Users []userResp `json:"users"`
	Total int        `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

// List returns a page of non-deleted users.
func (h *UserHandler) List(c echo.Context) error {
	p := readPageParams(c.QueryParam("page"), c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, total, err := h.Users.List(ctx, p.Offset, p.Limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "list users failed"})
	}
	out := make([]userResp, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResp(u))
	}
	return c.JSON(http.StatusOK, userListResp{Users: out, Total: total, Page: p.Page, Limit: p.Limit})
}

// Get returns a single active, non-deleted user.
func (h *UserHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "user lookup failed"})
	}
	return c.JSON(http.StatusOK, toUserResp(user))
}

// Update applies a partial profile update.  Email changes are re-normalized
// and re-checked for uniqueness among live users; names are sanitized the
// same way registration sanitizes them.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": "invalid user id"})
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "validation_failed", "message": "email must be valid"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "user lookup failed"})
	}

	email := user.Email
	if req.Email != nil {
		email = auth.NormalizeEmail(*req.Email)
		if email != user.Email {
			taken, err := h.Users.EmailTaken(ctx, email)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "email check failed"})
			}
			if taken {
				return c.JSON(http.StatusConflict, echo.Map{"error": "email_already_registered", "message": "email already registered"})
			}
		}
	}
	fullName := user.FullName
	if req.FullName != nil {
		clean := auth.SanitizeText(*req.FullName)
		if clean == "" {
			fullName = nil
		} else {
			fullName = &clean
		}
	}
	roleID := user.RoleID
	if req.RoleID != nil {
		roleID = *req.RoleID
	}
	active := user.IsActive
	if req.IsActive != nil {
		active = *req.IsActive
	}

	if err := h.Users.Update(ctx, id, email, fullName, roleID, active); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return c.JSON(http.StatusConflict, echo.Map{"error": "email_already_registered", "message": "email already registered"})
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "user not found"})
		case errors.Is(err, repository.ErrConstraint):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "constraint_violation", "message": "unknown role id"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "update failed"})
		}
	}

	updated, err := h.Users.GetByID(ctx, id)
	if err != nil {
		// Deactivating a user makes GetByID miss it; report the write anyway.
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, toUserResp(updated))
}

// Delete soft-deletes a user: the row stays for audit, the email becomes
// reusable.  Deleting twice yields 404 the second time.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
