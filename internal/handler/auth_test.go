package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/bugzot/backend/internal/auth"
	"github.com/bugzot/backend/internal/handler"
	"github.com/bugzot/backend/internal/model"
	"github.com/bugzot/backend/internal/repository"
	"github.com/bugzot/backend/internal/router"
)

// ----- in-memory stores -----

type memUsers struct {
	users  map[uint64]*model.User
	nextID uint64
}

func newMemUsers() *memUsers { return &memUsers{users: map[uint64]*model.User{}} }

func (m *memUsers) Create(_ context.Context, email, hash string, fullName *string, roleID uint8) (uint64, error) {
	for _, u := range m.users {
		if u.Email == email && !u.IsDeleted {
			return 0, repository.ErrEmailExists
		}
	}
	m.nextID++
	m.users[m.nextID] = &model.User{
		ID: m.nextID, Email: email, PasswordHash: hash, FullName: fullName,
		RoleID: roleID, RoleName: model.DefaultRoleName, IsActive: true,
	}
	return m.nextID, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range m.users {
		if u.Email == email && !u.IsDeleted {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := m.users[id]
	if !ok || u.IsDeleted || !u.IsActive {
		return model.User{}, repository.ErrNotFound
	}
	return *u, nil
}

func (m *memUsers) EmailTaken(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (m *memUsers) IncrementLoginAttempts(_ context.Context, id uint64) error {
	m.users[id].LoginAttempts++
	return nil
}

func (m *memUsers) ResetLoginAttempts(_ context.Context, id uint64) error {
	m.users[id].LoginAttempts = 0
	return nil
}

func (m *memUsers) MarkVerified(_ context.Context, id uint64) error {
	m.users[id].IsVerified = true
	return nil
}

type memRoles struct{}

func (memRoles) GetByName(_ context.Context, name string) (model.Role, error) {
	return model.Role{ID: 1, Name: name}, nil
}

type memKeys struct {
	byUser map[uint64]string
}

func (m *memKeys) Issue(_ context.Context, userID uint64, key string, _ time.Time) error {
	m.byUser[userID] = key
	return nil
}

func (m *memKeys) Consume(_ context.Context, key string) (uint64, error) {
	for id, k := range m.byUser {
		if k == key {
			delete(m.byUser, id)
			return id, nil
		}
	}
	return 0, repository.ErrKeyInvalid
}

// ----- server fixture -----

type testServer struct {
	e     *echo.Echo
	users *memUsers
	keys  *memKeys
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	users := newMemUsers()
	keys := &memKeys{byUser: map[uint64]string{}}
	tokens := auth.NewTokenService("test-secret", time.Minute, auth.NewBlacklist(rdb))
	svc := auth.NewService(users, memRoles{}, keys, tokens,
		auth.NewRateLimiter(rdb, 5, time.Minute),
		nil, // no broker in tests; activation emails are skipped
		auth.ServiceConfig{
			BcryptCost:    4,
			ActivationTTL: 30 * time.Minute,
			MXTimeout:     time.Second,
			MXCheck:       func(context.Context, string) error { return nil },
		})

	e := echo.New()
	e.Validator = handler.NewBodyValidator()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(svc), tokens, users)
	return &testServer{e: e, users: users, keys: keys}
}

func (s *testServer) do(method, path, body, token, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	if ip != "" {
		req.Header.Set("X-Real-Ip", ip)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return m
}

// ----- scenarios -----

func TestAuthFlowEndToEnd(t *testing.T) {
	s := newTestServer(t)

	// Register.
	rec := s.do(http.MethodPost, "/v1/auth/register",
		`{"email":"new@example.com","password":"Str0ng!Pass","full_name":"New User"}`, "", "203.0.113.1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody(t, rec)["email"]; got != "new@example.com" {
		t.Fatalf("register email = %v", got)
	}

	// Login.
	rec = s.do(http.MethodPost, "/v1/auth/login",
		`{"email":"new@example.com","password":"Str0ng!Pass"}`, "", "203.0.113.1")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	token, _ := body["access_token"].(string)
	if token == "" || body["token_type"] != "bearer" {
		t.Fatalf("login body = %v", body)
	}

	// Authenticated identity lookup.
	rec = s.do(http.MethodGet, "/v1/me", "", token, "203.0.113.1")
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody(t, rec)["email"]; got != "new@example.com" {
		t.Fatalf("me email = %v", got)
	}

	// Logout revokes the token.
	rec = s.do(http.MethodPost, "/v1/auth/logout", "", token, "203.0.113.1")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d, body %s", rec.Code, rec.Body.String())
	}

	// The same token is refused afterwards.
	rec = s.do(http.MethodGet, "/v1/me", "", token, "203.0.113.1")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout status = %d, want 401", rec.Code)
	}
}

func TestLoginRateLimitReturns429(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/v1/auth/register",
		`{"email":"busy@example.com","password":"Str0ng!Pass"}`, "", "203.0.113.2")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}

	for i := 1; i <= 5; i++ {
		rec = s.do(http.MethodPost, "/v1/auth/login",
			`{"email":"busy@example.com","password":"Str0ng!Pass"}`, "", "203.0.113.3")
		if rec.Code != http.StatusOK {
			t.Fatalf("login %d status = %d", i, rec.Code)
		}
	}
	rec = s.do(http.MethodPost, "/v1/auth/login",
		`{"email":"busy@example.com","password":"Str0ng!Pass"}`, "", "203.0.113.3")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("sixth login status = %d, want 429", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "rate_limited" {
		t.Fatalf("error = %v, want rate_limited", got)
	}

	// A different client IP is unaffected.
	rec = s.do(http.MethodPost, "/v1/auth/login",
		`{"email":"busy@example.com","password":"Str0ng!Pass"}`, "", "203.0.113.4")
	if rec.Code != http.StatusOK {
		t.Fatalf("other-IP login status = %d, want 200", rec.Code)
	}
}

func TestRegisterRejections(t *testing.T) {
	s := newTestServer(t)

	// Malformed email is stopped by request validation.
	rec := s.do(http.MethodPost, "/v1/auth/register",
		`{"email":"not-an-email","password":"Str0ng!Pass"}`, "", "203.0.113.5")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad email status = %d, want 422", rec.Code)
	}

	// Filled honeypot field.
	rec = s.do(http.MethodPost, "/v1/auth/register",
		`{"email":"bot@example.com","password":"Str0ng!Pass","website":"http://spam"}`, "", "203.0.113.5")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("honeypot status = %d, want 400", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "bot_detected" {
		t.Fatalf("error = %v, want bot_detected", got)
	}

	// Long enough but missing character classes.
	rec = s.do(http.MethodPost, "/v1/auth/register",
		`{"email":"weak@example.com","password":"alllowercase1"}`, "", "203.0.113.5")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("weak password status = %d, want 422", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != "weak_password" {
		t.Fatalf("error = %v, want weak_password", got)
	}

	// Duplicate registration.
	body := `{"email":"dup@example.com","password":"Str0ng!Pass"}`
	if rec = s.do(http.MethodPost, "/v1/auth/register", body, "", "203.0.113.6"); rec.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", rec.Code)
	}
	if rec = s.do(http.MethodPost, "/v1/auth/register", body, "", "203.0.113.6"); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d, want 409", rec.Code)
	}
}

func TestLogoutRequiresBearerToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/v1/auth/logout", "", "", "203.0.113.7")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	rec = s.do(http.MethodGet, "/v1/me", "", "not-a-jwt", "203.0.113.7")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token status = %d, want 401", rec.Code)
	}
}

func TestVerifyActivationKeyOverHTTP(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/v1/auth/register",
		`{"email":"fresh@example.com","password":"Str0ng!Pass"}`, "", "203.0.113.8")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}
	key := s.keys.byUser[1]
	if key == "" {
		t.Fatal("no activation key issued during registration")
	}

	rec = s.do(http.MethodGet, "/v1/auth/verify?token="+key, "", "", "203.0.113.8")
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !s.users.users[1].IsVerified {
		t.Fatal("user not marked verified")
	}

	// Single use.
	rec = s.do(http.MethodGet, "/v1/auth/verify?token="+key, "", "", "203.0.113.8")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("reused key status = %d, want 400", rec.Code)
	}

	// Missing token parameter.
	rec = s.do(http.MethodGet, "/v1/auth/verify", "", "", "203.0.113.8")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing token status = %d, want 400", rec.Code)
	}
}
