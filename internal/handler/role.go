package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bugzot/backend/internal/model"
)

// RoleDirectory is the store surface the role endpoints need;
// *repository.RoleRepo satisfies it.
type RoleDirectory interface {
	List(ctx context.Context, offset, limit int) ([]model.Role, int, error)
}

// RoleHandler serves read-only role listings to authenticated users.
type RoleHandler struct {
	Roles RoleDirectory
}

func NewRoleHandler(roles RoleDirectory) *RoleHandler {
	return &RoleHandler{Roles: roles}
}

type roleResp struct {
	ID          uint8  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type roleListResp struct {
	Roles []roleResp `json:"roles"`
	Total int        `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

// List returns a page of roles.
func (h *RoleHandler) List(c echo.Context) error {
	p := readPageParams(c.QueryParam("page"), c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	roles, total, err := h.Roles.List(ctx, p.Offset, p.Limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal", "message": "list roles failed"})
	}
	out := make([]roleResp, 0, len(roles))
	for _, r := range roles {
		out = append(out, roleResp{ID: r.ID, Name: r.Name, Description: r.Description})
	}
	return c.JSON(http.StatusOK, roleListResp{Roles: out, Total: total, Page: p.Page, Limit: p.Limit})
}
