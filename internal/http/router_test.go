package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinewave/cinewave-api/internal/auth"
	"github.com/cinewave/cinewave-api/internal/config"
	"github.com/cinewave/cinewave-api/internal/database/dbtest"
	"github.com/cinewave/cinewave-api/internal/logging"
	"github.com/cinewave/cinewave-api/internal/media"
	"github.com/cinewave/cinewave-api/internal/ratelimit"
	"github.com/cinewave/cinewave-api/internal/user"
)

type testServer struct {
	handler http.Handler
	codec   *auth.TokenCodec
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Env:            "test",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Auth: config.AuthConfig{
			SigningKey:   []byte(strings.Repeat("s", config.MinSigningKeyLength)),
			PublicRoutes: config.DefaultPublicRoutes,
		},
	}
	logger := logging.NewLogger(false)

	db := dbtest.New(t)
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	codec, err := auth.NewTokenCodec(cfg.Auth.SigningKey)
	require.NoError(t, err)
	routes, err := auth.NewRouteClassifier(cfg.Auth.PublicRoutes)
	require.NoError(t, err)
	gate, err := auth.NewGate(routes, codec)
	require.NoError(t, err)

	authService := auth.NewService(user.NewRepository(db), codec, logger)
	mediaService := media.NewService(media.NewRepository(db), 2021)

	router := NewRouter(cfg, Handlers{
		Auth:  auth.NewHandler(authService, ratelimit.NewLimiter(redisClient, 100, time.Minute)),
		Media: media.NewHandler(mediaService),
	}, gate, logger)

	return &testServer{handler: router, codec: codec}
}

func (s *testServer) do(method, target, authorization, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	if authorization != "" {
		r.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, r)
	return rec
}

func TestRouter_Scenario1_ValidTokenReachesProfile(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/auth/register", "",
		`{"firstName":"Test","lastName":"User","email":"user@example.com","password":"Secret123"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	token, err := s.codec.Issue("user@example.com")
	require.NoError(t, err)

	rec = s.do(http.MethodGet, "/api/auth/profile", "Bearer "+token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var profile map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "user@example.com", profile["email"])
}

func TestRouter_Scenario2_MissingToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/auth/profile", "", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Missing token"}`, rec.Body.String())
}

func TestRouter_Scenario3_PublicRouteWithoutToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/media/movies", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRouter_Scenario4_GarbageToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/auth/profile", "Bearer garbage", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid token"}`, rec.Body.String())
}

func TestRouter_LoginTokenOpensProtectedRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/auth/register", "",
		`{"firstName":"Test","lastName":"User","email":"user@example.com","password":"Secret123"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/login", "", `{"email":"user@example.com","password":"Secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	subject, err := s.codec.ExtractSubject(login.Token)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", subject)

	rec = s.do(http.MethodGet, "/api/auth/profile", "Bearer "+login.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"user@example.com"`)

	mediaJSON := `{"name":"Dune","synopsis":"Desert planet.","isMovie":true,"smallPosterPath":"/s","largePosterPath":"/l","releaseYear":2021,"isFeatured":true,"tag":"scifi"}`

	rec = s.do(http.MethodPost, "/api/admin/media", "", mediaJSON)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/admin/media", "Bearer "+login.Token, mediaJSON)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/media/hero", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dune")
}

func TestRouter_RejectionsAreAlways401(t *testing.T) {
	s := newTestServer(t)

	foreign, err := auth.NewTokenCodec([]byte(strings.Repeat("x", 32)))
	require.NoError(t, err)
	forged, err := foreign.Issue("user@example.com")
	require.NoError(t, err)

	for _, header := range []string{"", "Basic abc", "Bearer ", "Bearer a.b.c", "Bearer " + forged} {
		for _, target := range []string{"/api/auth/profile", "/api/auth/users", "/api/admin/media", "/does/not/exist"} {
			rec := s.do(http.MethodGet, target, header, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %q", target, header)
			assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
		}
	}
}

func TestRouter_EncodedTraversalStaysProtected(t *testing.T) {
	s := newTestServer(t)

	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/api/auth/user/email/..%2F..%2F..%2Fmedia"},
		{http.MethodGet, "/api/auth/user/..%2F..%2Fmedia"},
		{http.MethodPut, "/api/admin/media/..%2F..%2Fmedia"},
		{http.MethodDelete, "/api/admin/media/..%2F..%2Fmedia"},
		{http.MethodDelete, "/api/admin/media/%2E%2E%2F%2E%2E%2Fmedia"},
		{http.MethodGet, "/api/media/../auth/profile"},
		{http.MethodGet, "/api/media/..%2F..%2Fauth%2Fprofile"},
	} {
		rec := s.do(tc.method, tc.target, "", `{}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s: %s", tc.method, tc.target, rec.Body.String())
		assert.JSONEq(t, `{"error":"Missing token"}`, rec.Body.String(), tc.target)
	}
}

func TestRouter_PublicAndPlumbing(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	// A public route admits even with a bad token.
	rec = s.do(http.MethodGet, "/api/media/movies", "Bearer garbage", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	token, err := s.codec.Issue("user@example.com")
	require.NoError(t, err)

	rec = s.do(http.MethodGet, "/does/not/exist", "Bearer "+token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_found")

	rec = s.do(http.MethodPost, "/health", "Bearer "+token, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_Preflight(t *testing.T) {
	s := newTestServer(t)

	r := httptest.NewRequest(http.MethodOptions, "/api/auth/profile", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	r.Header.Set("Access-Control-Request-Method", http.MethodGet)
	r.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, r)

	assert.NotEqual(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	// Without CORS headers the gate still admits OPTIONS.
	rec = s.do(http.MethodOptions, "/api/auth/profile", "", "")
	assert.NotEqual(t, http.StatusUnauthorized, rec.Code)
}
