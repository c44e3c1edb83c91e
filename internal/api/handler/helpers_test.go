package handler_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/docqr/docqr/internal/auth"
)

const testBcryptCost = 4

// --- Mock User Repository ---

type mockUserRepo struct {
	findActiveByIDFn func(ctx context.Context, id int64) (*auth.User, error)
	getByEmailFn     func(ctx context.Context, email string) (*auth.User, error)
	updatePasswordFn func(ctx context.Context, id int64, hash string) error
	listFn           func(ctx context.Context) ([]auth.User, error)
}

func (m *mockUserRepo) Create(_ context.Context, u *auth.User) error {
	u.ID = 1
	u.CreatedAt = time.Now().UTC()
	return nil
}

func (m *mockUserRepo) FindActiveByID(ctx context.Context, id int64) (*auth.User, error) {
	if m.findActiveByIDFn != nil {
		return m.findActiveByIDFn(ctx, id)
	}
	return nil, auth.ErrUserNotFound
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, auth.ErrUserNotFound
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, id, hash)
	}
	return nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]auth.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []auth.User{}, nil
}

func (m *mockUserRepo) CountAll(_ context.Context) (int, error) { return 0, nil }

// --- Helpers ---

func sampleUser(t *testing.T, id int64, password string, active bool) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), testBcryptCost)
	require.NoError(t, err)
	return &auth.User{
		ID:           id,
		Name:         "ana",
		Email:        "ana@example.com",
		PasswordHash: string(hash),
		IsActive:     active,
		CreatedAt:    time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func newAuthService(repo auth.UserRepository) *auth.Service {
	return auth.NewService(repo, auth.NewTokenCodec(""), testBcryptCost)
}

func parseEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}
