package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "deskbook/pkg/errors"
	"deskbook/pkg/logger"
	"deskbook/pkg/middleware"
	"deskbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockOfficeService struct {
	listFunc    func(ctx context.Context, user *model.User) ([]*model.Office, error)
	createFunc  func(ctx context.Context, user *model.User, input *model.OfficeInput) (*model.Office, error)
	upsertFunc  func(ctx context.Context, user *model.User, input *model.OfficeInput) (*model.Office, error)
	deleteFunc  func(ctx context.Context, user *model.User, id string) error
	lastUser    *model.User
	lastDeleted string
}

func (m *mockOfficeService) List(ctx context.Context, user *model.User) ([]*model.Office, error) {
	m.lastUser = user
	return m.listFunc(ctx, user)
}

func (m *mockOfficeService) GetByID(ctx context.Context, user *model.User, id string) (*model.Office, error) {
	return nil, apperrors.NotFoundWithID("Office", id)
}

func (m *mockOfficeService) Create(ctx context.Context, user *model.User, input *model.OfficeInput) (*model.Office, error) {
	m.lastUser = user
	return m.createFunc(ctx, user, input)
}

func (m *mockOfficeService) Upsert(ctx context.Context, user *model.User, input *model.OfficeInput) (*model.Office, error) {
	return m.upsertFunc(ctx, user, input)
}

func (m *mockOfficeService) Update(ctx context.Context, user *model.User, id string, input *model.OfficeInput) (*model.Office, error) {
	return &model.Office{ID: id, Name: input.Name}, nil
}

func (m *mockOfficeService) Delete(ctx context.Context, user *model.User, id string) error {
	m.lastDeleted = id
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, user, id)
	}
	return nil
}

func newRouter(svc *mockOfficeService) *httprouter.Router {
	router := httprouter.New()
	NewOfficeHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func TestOfficeHandler_List(t *testing.T) {
	alice := &model.User{ID: "u1"}
	svc := &mockOfficeService{
		listFunc: func(ctx context.Context, user *model.User) ([]*model.Office, error) {
			if user == nil {
				return nil, apperrors.NotLoggedIn()
			}
			return []*model.Office{{ID: "o1", Name: "HQ"}}, nil
		},
	}
	router := newRouter(svc)

	t.Run("anonymous", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/offices", nil))

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["error"] != "not logged in" {
			t.Errorf("body = %v", body)
		}
	})

	t.Run("authenticated", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/offices", nil)
		r = r.WithContext(middleware.ContextWithUser(r.Context(), alice))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if svc.lastUser != alice {
			t.Error("handler should pass the context user to the service")
		}
		var body struct {
			Data []model.Office `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || len(body.Data) != 1 {
			t.Errorf("body = %s", w.Body.String())
		}
	})
}

func TestOfficeHandler_Create(t *testing.T) {
	alice := &model.User{ID: "u1"}
	svc := &mockOfficeService{
		createFunc: func(ctx context.Context, user *model.User, input *model.OfficeInput) (*model.Office, error) {
			return &model.Office{ID: "o1", Name: input.Name}, nil
		},
	}
	router := newRouter(svc)

	tests := []struct {
		name      string
		user      *model.User
		body      string
		status    int
		wantError string
	}{
		{"valid", alice, `{"name":"HQ"}`, http.StatusCreated, ""},
		{"empty body", alice, ``, http.StatusBadRequest, "Request body cannot be empty"},
		{"unknown field", alice, `{"name":"HQ","capacity":3}`, http.StatusBadRequest, ""},
		{"malformed", alice, `{"name":`, http.StatusBadRequest, "Invalid request body"},
		{"anonymous", nil, `{"name":"HQ"}`, http.StatusUnauthorized, "not logged in"},
		{"anonymous with empty body", nil, ``, http.StatusUnauthorized, "not logged in"},
		{"anonymous with malformed body", nil, `{"name":`, http.StatusUnauthorized, "not logged in"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc.lastUser = nil
			r := httptest.NewRequest(http.MethodPost, "/api/v1/offices", strings.NewReader(tt.body))
			if tt.user != nil {
				r = r.WithContext(middleware.ContextWithUser(r.Context(), tt.user))
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, r)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
			if tt.wantError != "" {
				var body map[string]any
				_ = json.Unmarshal(w.Body.Bytes(), &body)
				if body["error"] != tt.wantError {
					t.Errorf("error = %v, want %q", body["error"], tt.wantError)
				}
			}
			if tt.user == nil && svc.lastUser != nil {
				t.Error("anonymous request reached the service")
			}
		})
	}
}

func TestOfficeHandler_AnonymousMutationsAreRejectedFirst(t *testing.T) {
	router := newRouter(&mockOfficeService{})

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPut, "/api/v1/offices", `{bad`},
		{http.MethodPut, "/api/v1/offices", ``},
		{http.MethodPatch, "/api/v1/offices/id/o1", `{"capacity":1}`},
		{http.MethodPatch, "/api/v1/offices/id/o1", ``},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.body, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))

			if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "not logged in") {
				t.Errorf("status = %d body = %s, want 401 not logged in", w.Code, w.Body.String())
			}
		})
	}
}

func TestOfficeHandler_Delete(t *testing.T) {
	svc := &mockOfficeService{}
	router := newRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/offices/id/o-123", nil))

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if svc.lastDeleted != "o-123" {
		t.Errorf("deleted id = %q", svc.lastDeleted)
	}
}

func TestOfficeHandler_InternalErrorsAreHidden(t *testing.T) {
	svc := &mockOfficeService{
		upsertFunc: func(ctx context.Context, user *model.User, input *model.OfficeInput) (*model.Office, error) {
			return nil, apperrors.Internal("Failed to save office", context.DeadlineExceeded)
		},
	}
	router := newRouter(svc)

	r := httptest.NewRequest(http.MethodPut, "/api/v1/offices", strings.NewReader(`{"name":"HQ"}`))
	r = r.WithContext(middleware.ContextWithUser(r.Context(), &model.User{ID: "u1"}))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "deadline") || !strings.Contains(w.Body.String(), "Internal server error") {
		t.Errorf("body leaks internals: %s", w.Body.String())
	}
}
