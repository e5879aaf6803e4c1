package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/habitmaster/internal/model"
)

type mockTokenResolver struct {
	resolveTokenFn func(ctx context.Context, tokenString string) (*model.User, error)
}

func (m *mockTokenResolver) ResolveToken(ctx context.Context, tokenString string) (*model.User, error) {
	if m.resolveTokenFn != nil {
		return m.resolveTokenFn(ctx, tokenString)
	}
	return nil, model.NewUnauthorizedError()
}

func TestAuthMiddleware_Success_InjectsUser(t *testing.T) {
	resolver := &mockTokenResolver{
		resolveTokenFn: func(ctx context.Context, tokenString string) (*model.User, error) {
			if tokenString != "valid-token" {
				t.Errorf("token = %q, want %q", tokenString, "valid-token")
			}
			return &model.User{ID: "user-1", Email: "alice@x.com"}, nil
		},
	}

	var gotUser *model.User
	handler := NewAuthMiddleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := UserFromContext(r.Context())
		if err != nil {
			t.Fatalf("UserFromContext returned error: %v", err)
		}
		gotUser = user
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/habits", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotUser == nil || gotUser.ID != "user-1" {
		t.Errorf("injected user = %+v, want user-1", gotUser)
	}
}

// ヘッダー欠落・形式不正・トークン不正がいずれも一様に401となることを検証
func TestAuthMiddleware_Failures_Uniform401(t *testing.T) {
	resolver := &mockTokenResolver{}
	handler := NewAuthMiddleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not be called")
	}))

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"empty token", "Bearer "},
		{"invalid token", "Bearer bad-token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/habits", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestAuthMiddleware_UnexpectedResolverError(t *testing.T) {
	resolver := &mockTokenResolver{
		resolveTokenFn: func(ctx context.Context, tokenString string) (*model.User, error) {
			return nil, errors.New("store unavailable")
		},
	}
	handler := NewAuthMiddleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next handler must not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/habits", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestUserFromContext_Missing(t *testing.T) {
	if _, err := UserFromContext(context.Background()); err == nil {
		t.Error("expected error when no user is stored")
	}
}

func TestContextWithUser_RoundTrip(t *testing.T) {
	user := &model.User{ID: "user-1"}
	ctx := ContextWithUser(context.Background(), user)

	got, err := UserFromContext(ctx)
	if err != nil {
		t.Fatalf("UserFromContext returned error: %v", err)
	}
	if got.ID != "user-1" {
		t.Errorf("user.ID = %q, want %q", got.ID, "user-1")
	}
}
