package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "deskbook/pkg/errors"
	"deskbook/pkg/logger"
	"deskbook/pkg/middleware"
	"deskbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockUserService struct {
	registerFunc func(ctx context.Context, reg *model.Registration) (*model.User, error)
	loginFunc    func(ctx context.Context, creds *model.Credentials) (*model.Token, error)
	loggedOut    string
}

func (m *mockUserService) Register(ctx context.Context, reg *model.Registration) (*model.User, error) {
	return m.registerFunc(ctx, reg)
}

func (m *mockUserService) Login(ctx context.Context, creds *model.Credentials) (*model.Token, error) {
	return m.loginFunc(ctx, creds)
}

func (m *mockUserService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return apperrors.NotLoggedIn()
	}
	m.loggedOut = token
	return nil
}

func (m *mockUserService) Me(ctx context.Context, user *model.User) (*model.User, error) {
	if user == nil {
		return nil, apperrors.NotLoggedIn()
	}
	return user, nil
}

func (m *mockUserService) List(ctx context.Context, user *model.User) ([]*model.User, error) {
	return []*model.User{user}, nil
}

func (m *mockUserService) DeleteMe(ctx context.Context, user *model.User) error {
	return nil
}

func (m *mockUserService) Resolve(ctx context.Context, token string) (*model.User, error) {
	return nil, nil
}

func newRouter(svc *mockUserService) *httprouter.Router {
	router := httprouter.New()
	NewUserHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func TestUserHandler_Register(t *testing.T) {
	svc := &mockUserService{
		registerFunc: func(ctx context.Context, reg *model.Registration) (*model.User, error) {
			if reg.Username == "alice" {
				return nil, apperrors.Conflict("a user with that username already exists")
			}
			return &model.User{ID: "u1", Username: reg.Username, PasswordHash: "secret-hash"}, nil
		},
	}
	router := newRouter(svc)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"created", `{"username":"bob","email":"bob@example.com","password":"correct horse"}`, http.StatusCreated},
		{"taken", `{"username":"alice","email":"a@example.com","password":"correct horse"}`, http.StatusConflict},
		{"malformed", `{"username":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(tt.body)))

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
			if strings.Contains(w.Body.String(), "secret-hash") {
				t.Error("response leaks the password hash")
			}
		})
	}
}

func TestUserHandler_Login(t *testing.T) {
	expires := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc := &mockUserService{
		loginFunc: func(ctx context.Context, creds *model.Credentials) (*model.Token, error) {
			if creds.Password != "correct horse" {
				return nil, apperrors.Unauthorized("invalid credentials")
			}
			return &model.Token{Token: "tok", ExpiresAt: expires, User: &model.User{ID: "u1"}}, nil
		},
	}
	router := newRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(`{"username":"alice","password":"correct horse"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Data model.Token `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Data.Token != "tok" {
		t.Errorf("body = %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(`{"username":"alice","password":"nope"}`)))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestUserHandler_Logout(t *testing.T) {
	svc := &mockUserService{}
	router := newRouter(svc)

	r := httptest.NewRequest(http.MethodDelete, "/api/v1/auth/token", nil)
	r.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusNoContent || svc.loggedOut != "tok" {
		t.Errorf("status = %d, logged out %q", w.Code, svc.loggedOut)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/auth/token", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status without token = %d, want 401", w.Code)
	}
}

func TestUserHandler_Me(t *testing.T) {
	router := newRouter(&mockUserService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", w.Code)
	}

	r := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	r = r.WithContext(middleware.ContextWithUser(r.Context(), &model.User{ID: "u1", Username: "alice"}))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"username":"alice"`) {
		t.Errorf("status = %d body = %s", w.Code, w.Body.String())
	}
}
