package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLimiter struct {
	exceeded bool
	checkErr error
	recorded []string
	resets   int
}

func (s *stubLimiter) CheckIPRateLimitWithPurpose(_ context.Context, _, _ string) (bool, error) {
	return s.exceeded, s.checkErr
}

func (s *stubLimiter) RecordIPRequestWithPurpose(_ context.Context, ip, purpose string) error {
	s.recorded = append(s.recorded, purpose+":"+ip)
	return nil
}

func (s *stubLimiter) Reset(_ context.Context, _, _ string) error {
	s.resets++
	return nil
}

// newTestHandlerRouter mounts the account handlers behind the gate, the way
// the service router does.
func newTestHandlerRouter(t *testing.T, limiter RateLimiter) (http.Handler, *TokenCodec) {
	t.Helper()
	svc, codec := newTestService(t)
	h := NewHandler(svc, limiter)
	g := newTestGate(t, codec)
	g.routes = newTestClassifier(t, "/api/auth/register", "/api/auth/login")

	r := chi.NewRouter()
	r.Use(g.Middleware)
	r.Post("/api/auth/register", h.Register)
	r.Post("/api/auth/login", h.Login)
	r.Get("/api/auth/profile", h.Profile)
	r.Get("/api/auth/users", h.ListUsers)
	r.Get("/api/auth/user/{id}", h.GetUser)
	r.Put("/api/auth/user/{id}", h.UpdateUser)
	r.Delete("/api/auth/user/{id}", h.DeleteUser)
	r.Get("/api/auth/user/email/{email}", h.GetUserByEmail)
	return r, codec
}

func doJSON(t *testing.T, h http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.RemoteAddr = "192.0.2.1:1234"
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

const adaJSON = `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","password":"Secret123"}`

func registerAndLogin(t *testing.T, h http.Handler, body string) LoginResult {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var reg map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reg))

	var creds LoginRequest
	require.NoError(t, json.Unmarshal([]byte(body), &creds))
	loginBody, _ := json.Marshal(creds)

	rec = doJSON(t, h, http.MethodPost, "/api/auth/login", "", string(loginBody))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result LoginResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func TestHandler_RegisterLoginProfile(t *testing.T) {
	limiter := &stubLimiter{}
	h, _ := newTestHandlerRouter(t, limiter)

	result := registerAndLogin(t, h, adaJSON)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, []string{"register:192.0.2.1", "login:192.0.2.1"}, limiter.recorded)
	assert.Equal(t, 1, limiter.resets)

	rec := doJSON(t, h, http.MethodGet, "/api/auth/profile", result.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var profile map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "ada@example.com", profile["email"])
	assert.NotContains(t, profile, "passwordHash")
	assert.NotContains(t, profile, "PasswordHash")
}

func TestHandler_RegisterErrors(t *testing.T) {
	h, _ := newTestHandlerRouter(t, &stubLimiter{})

	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", "{")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/auth/register", "",
		`{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "password_policy")

	rec = doJSON(t, h, http.MethodPost, "/api/auth/register", "", adaJSON)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/auth/register", "", adaJSON)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandler_LoginInvalidCredentials(t *testing.T) {
	h, _ := newTestHandlerRouter(t, &stubLimiter{})

	rec := doJSON(t, h, http.MethodPost, "/api/auth/login", "", `{"email":"nobody@example.com","password":"Secret123"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")
}

func TestHandler_RateLimited(t *testing.T) {
	h, _ := newTestHandlerRouter(t, &stubLimiter{exceeded: true})

	rec := doJSON(t, h, http.MethodPost, "/api/auth/login", "", `{"email":"a@b.c","password":"x"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHandler_LimiterFailureDoesNotBlock(t *testing.T) {
	h, _ := newTestHandlerRouter(t, &stubLimiter{checkErr: errors.New("redis down")})

	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", adaJSON)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHandler_AccountOwnership(t *testing.T) {
	h, _ := newTestHandlerRouter(t, &stubLimiter{})

	ada := registerAndLogin(t, h, adaJSON)
	grace := registerAndLogin(t, h,
		`{"firstName":"Grace","lastName":"Hopper","email":"grace@example.com","password":"Secret123"}`)

	rec := doJSON(t, h, http.MethodPut, "/api/auth/user/"+grace.User.ID.String(), ada.Token, `{"firstName":"Mallory"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/auth/user/"+grace.User.ID.String(), ada.Token, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodPut, "/api/auth/user/"+ada.User.ID.String(), ada.Token, `{"lastName":"King"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"lastName":"King"`)

	rec = doJSON(t, h, http.MethodGet, "/api/auth/user/email/grace@example.com", ada.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), grace.User.ID.String())

	rec = doJSON(t, h, http.MethodGet, "/api/auth/users", ada.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 2)

	rec = doJSON(t, h, http.MethodDelete, "/api/auth/user/"+ada.User.ID.String(), ada.Token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/auth/user/"+ada.User.ID.String(), grace.Token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/auth/user/not-a-uuid", grace.Token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_ProtectedRoutesNeedToken(t *testing.T) {
	h, _ := newTestHandlerRouter(t, &stubLimiter{})

	for _, target := range []string{"/api/auth/profile", "/api/auth/users"} {
		rec := doJSON(t, h, http.MethodGet, target, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
		assert.JSONEq(t, `{"error":"Missing token"}`, rec.Body.String())
	}
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", getClientIP(r))

	// Forwarding headers are left to middleware.RealIP.
	r.Header.Set("X-Real-IP", "198.51.100.7")
	r.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "192.0.2.1", getClientIP(r))

	r.RemoteAddr = "[2001:db8::1]:443"
	assert.Equal(t, "2001:db8::1", getClientIP(r))

	r.RemoteAddr = "198.51.100.7"
	assert.Equal(t, "198.51.100.7", getClientIP(r))
}

func TestHandler_ForwardedForDoesNotChangeLimiterKey(t *testing.T) {
	limiter := &stubLimiter{}
	h, _ := newTestHandlerRouter(t, limiter)

	for _, xff := range []string{"203.0.113.1", "203.0.113.2"} {
		r := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"nobody@example.com","password":"Secret123"}`))
		r.RemoteAddr = "192.0.2.1:1234"
		r.Header.Set("X-Forwarded-For", xff)
		h.ServeHTTP(httptest.NewRecorder(), r)
	}

	assert.Equal(t, []string{"login:192.0.2.1", "login:192.0.2.1"}, limiter.recorded)
}
