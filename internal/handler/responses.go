package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/bugzot/backend/internal/model"
)

// userResp is the sanitized user record returned by the API.  It is built
// from model.User and deliberately has no field for the password hash.
type userResp struct {
	ID         uint64     `json:"id"`
	Email      string     `json:"email"`
	FullName   *string    `json:"full_name,omitempty"`
	Role       string     `json:"role"`
	IsActive   bool       `json:"is_active"`
	IsVerified bool       `json:"is_verified"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toUserResp(u model.User) userResp {
	return userResp{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		Role:       u.RoleName,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		LastLogin:  u.LastLogin,
		CreatedAt:  u.CreatedAt,
	}
}

// pageParams reads and clamps ?page / ?limit query values.
type pageParams struct {
	Page   int
	Limit  int
	Offset int
}

func readPageParams(pageStr, limitStr string) pageParams {
	p := pageParams{Page: 1, Limit: 20}
	if n, err := atoiPositive(pageStr); err == nil {
		p.Page = n
	}
	if n, err := atoiPositive(limitStr); err == nil {
		p.Limit = n
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	p.Offset = (p.Page - 1) * p.Limit
	return p
}

func atoiPositive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, errors.New("not positive")
	}
	return n, nil
}
