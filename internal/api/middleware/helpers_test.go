package middleware_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docqr/docqr/internal/auth"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func bearer(payload string) string {
	return "Bearer " + base64.StdEncoding.EncodeToString([]byte(payload))
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}

// --- Mock User Repository ---

type mockUserRepo struct {
	users   map[int64]*auth.User
	findErr error
}

func newMockUserRepo(users ...*auth.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[int64]*auth.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) Create(_ context.Context, u *auth.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) FindActiveByID(ctx context.Context, id int64) (*auth.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok || !u.IsActive {
		return nil, auth.ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, _ string) (*auth.User, error) {
	return nil, auth.ErrUserNotFound
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, _ int64, _ string) error { return nil }

func (m *mockUserRepo) List(_ context.Context) ([]auth.User, error) { return []auth.User{}, nil }

func (m *mockUserRepo) CountAll(_ context.Context) (int, error) { return len(m.users), nil }

// --- Recording Observer ---

type recordingObserver struct {
	mu          sync.Mutex
	authReasons []string
	limited     []string
}

func (o *recordingObserver) AuthFailed(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.authReasons = append(o.authReasons, reason)
}

func (o *recordingObserver) RateLimited(bucket string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.limited = append(o.limited, bucket)
}
