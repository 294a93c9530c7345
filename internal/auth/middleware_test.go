package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// principalEcho writes the subject the gate stored in the context, or
// "anonymous" when there is none.
func principalEcho(w http.ResponseWriter, r *http.Request) {
	subject := "anonymous"
	if p, ok := PrincipalFromContext(r.Context()); ok {
		subject = p.Subject
	}
	_, _ = w.Write([]byte(subject))
}

func serveGate(t *testing.T, g *Gate, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	g.Middleware(http.HandlerFunc(principalEcho)).ServeHTTP(rec, r)
	return rec
}

func TestMiddleware_Rejections(t *testing.T) {
	codec := newTestCodec(t)
	g := newTestGate(t, codec)

	tests := []struct {
		name        string
		header      string
		wantMessage string
		wantReason  string
	}{
		{"no header", "", "Missing token", "missing_token"},
		{"wrong scheme", "Basic abc", "Missing token", "missing_token"},
		{"garbage token", "Bearer not-a-token", "Invalid token", "invalid_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveGate(t, g, requestWithAuth(http.MethodGet, "/api/auth/profile", tt.header))

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Header().Get("WWW-Authenticate"), tt.wantReason)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, map[string]string{"error": tt.wantMessage}, body)
		})
	}
}

func TestMiddleware_VerifierPanicIs401(t *testing.T) {
	g := newTestGate(t, verifierFunc(func(string) (Principal, error) {
		panic("boom")
	}))

	rec := serveGate(t, g, requestWithAuth(http.MethodGet, "/api/auth/profile", "Bearer x"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Authentication failed"}`, rec.Body.String())
}

func TestMiddleware_AdmittedRequestCarriesPrincipal(t *testing.T) {
	codec := newTestCodec(t)
	token, err := codec.Issue("user-1")
	require.NoError(t, err)

	rec := serveGate(t, newTestGate(t, codec), requestWithAuth(http.MethodGet, "/api/auth/profile", "Bearer "+token))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())
}

func TestMiddleware_PublicRouteHasNoPrincipal(t *testing.T) {
	codec := newTestCodec(t)
	token, err := codec.Issue("user-1")
	require.NoError(t, err)

	rec := serveGate(t, newTestGate(t, codec), requestWithAuth(http.MethodGet, "/api/public/feed", "Bearer "+token))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestPrincipalFromContext_Empty(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := PrincipalFromContext(r.Context())
	assert.False(t, ok)

	ctx := WithPrincipal(r.Context(), Principal{Subject: "user-1"})
	p, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "user-1", p.Subject)
}
