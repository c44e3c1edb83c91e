package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docqr/docqr/internal/api/middleware"
	"github.com/docqr/docqr/internal/auth"
)

func setupAuthService(users ...*auth.User) (*auth.Service, *mockUserRepo) {
	repo := newMockUserRepo(users...)
	return auth.NewService(repo, auth.NewTokenCodec(""), 4), repo
}

func TestAuth_FailureResponses(t *testing.T) {
	svc, _ := setupAuthService(
		&auth.User{ID: 42, Name: "alice", IsActive: true},
		&auth.User{ID: 7, Name: "bob", IsActive: false},
	)

	tests := []struct {
		name       string
		header     string
		wantMsg    string
		wantReason string
	}{
		{name: "missing header", header: "", wantMsg: "No autorizado. Token requerido.", wantReason: "missing_token"},
		{name: "no colon", header: bearer("42"), wantMsg: "Token inválido", wantReason: "malformed_token"},
		{name: "non numeric id", header: bearer("abc:x"), wantMsg: "Token inválido", wantReason: "malformed_token"},
		{name: "unknown user", header: bearer("999:x"), wantMsg: "Usuario no encontrado o inactivo", wantReason: "user_not_found_or_inactive"},
		{name: "inactive user", header: bearer("7:x"), wantMsg: "Usuario no encontrado o inactivo", wantReason: "user_not_found_or_inactive"},
		{name: "undecodable", header: "Bearer @@@", wantMsg: "Error al verificar token", wantReason: "verification_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observer := &recordingObserver{}
			called := false
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
			handler := middleware.Auth(svc, middleware.WithObserver(observer))(inner)

			req := httptest.NewRequest(http.MethodGet, "/documents", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.False(t, called, "downstream handler must not run")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			env := parseResponse(t, w)
			assert.Equal(t, false, env["success"])
			assert.Equal(t, tt.wantMsg, env["message"])
			assert.Equal(t, []string{tt.wantReason}, observer.authReasons)
		})
	}
}

func TestAuth_ValidToken_IdentityInContext(t *testing.T) {
	svc, _ := setupAuthService(&auth.User{ID: 42, Name: "alice", Email: "alice@example.com", IsActive: true})

	var captured *auth.Identity
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = middleware.GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.Auth(svc)(inner)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer("42:anything"))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	assert.Equal(t, int64(42), captured.UserID)
	assert.Equal(t, "alice", captured.Name)
	assert.Equal(t, "alice@example.com", captured.Email)
}

func TestAuth_TokenWithoutBearerPrefix(t *testing.T) {
	svc, _ := setupAuthService(&auth.User{ID: 42, IsActive: true})
	handler := middleware.Auth(svc)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer("42:x")[len("Bearer "):])
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_StoreErrorIsVerificationError(t *testing.T) {
	svc, repo := setupAuthService(&auth.User{ID: 42, IsActive: true})
	repo.findErr = errors.New("connection reset by peer")
	handler := middleware.Auth(svc)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer("42:x"))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := parseResponse(t, w)
	assert.Equal(t, "Error al verificar token", env["message"])
	assert.NotContains(t, w.Body.String(), "connection reset", "internal errors must not leak")
}

type panickingAuthenticator struct{}

func (panickingAuthenticator) Authenticate(context.Context, string) (*auth.Identity, error) {
	panic("decoder exploded")
}

func TestAuth_PanicIsVerificationError(t *testing.T) {
	handler := middleware.Auth(panickingAuthenticator{})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer("42:x"))
	w := httptest.NewRecorder()

	require.NotPanics(t, func() { handler.ServeHTTP(w, req) })

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := parseResponse(t, w)
	assert.Equal(t, "Error al verificar token", env["message"])
}

type slowAuthenticator struct{}

func (slowAuthenticator) Authenticate(ctx context.Context, _ string) (*auth.Identity, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestAuth_LookupTimeout(t *testing.T) {
	handler := middleware.Auth(slowAuthenticator{}, middleware.WithTimeout(10*time.Millisecond))(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", bearer("42:x"))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env := parseResponse(t, w)
	assert.Equal(t, "Error al verificar token", env["message"])
}

func TestGetIdentity_EmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, middleware.GetIdentity(req.Context()))
}

func TestWithIdentity_RoundTrip(t *testing.T) {
	ctx := middleware.WithIdentity(context.Background(), &auth.Identity{UserID: 3})
	require.NotNil(t, middleware.GetIdentity(ctx))
	assert.Equal(t, int64(3), middleware.GetIdentity(ctx).UserID)
}
