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

type mockBookingService struct {
	listFunc   func(ctx context.Context, user *model.User, filter *model.BookingFilter) (*model.BookingPage, error)
	createFunc func(ctx context.Context, user *model.User, input *model.BookingInput) (*model.Booking, error)
	upsertFunc func(ctx context.Context, user *model.User, input *model.BookingInput) (*model.Booking, error)
	updateFunc func(ctx context.Context, user *model.User, id string, update *model.BookingUpdate) (*model.Booking, error)
	deleteFunc func(ctx context.Context, user *model.User, id string) error
	lastFilter *model.BookingFilter
}

func (m *mockBookingService) List(ctx context.Context, user *model.User, filter *model.BookingFilter) (*model.BookingPage, error) {
	m.lastFilter = filter
	if m.listFunc != nil {
		return m.listFunc(ctx, user, filter)
	}
	return &model.BookingPage{Bookings: []*model.Booking{}}, nil
}

func (m *mockBookingService) GetByID(ctx context.Context, user *model.User, id string) (*model.Booking, error) {
	return nil, apperrors.NotFoundMessage("this booking does not exist")
}

func (m *mockBookingService) Create(ctx context.Context, user *model.User, input *model.BookingInput) (*model.Booking, error) {
	return m.createFunc(ctx, user, input)
}

func (m *mockBookingService) Upsert(ctx context.Context, user *model.User, input *model.BookingInput) (*model.Booking, error) {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, user, input)
	}
	if user == nil {
		return nil, apperrors.NotLoggedIn()
	}
	return &model.Booking{ID: "b1", OfficeID: input.OfficeID, Date: input.Date, UserID: user.ID}, nil
}

func (m *mockBookingService) Update(ctx context.Context, user *model.User, id string, update *model.BookingUpdate) (*model.Booking, error) {
	return m.updateFunc(ctx, user, id, update)
}

func (m *mockBookingService) Delete(ctx context.Context, user *model.User, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, user, id)
	}
	return nil
}

func newRouter(svc *mockBookingService) *httprouter.Router {
	router := httprouter.New()
	NewBookingHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func withUser(r *http.Request, user *model.User) *http.Request {
	return r.WithContext(middleware.ContextWithUser(r.Context(), user))
}

func TestBookingHandler_Create(t *testing.T) {
	alice := &model.User{ID: "u1"}
	svc := &mockBookingService{
		createFunc: func(ctx context.Context, user *model.User, input *model.BookingInput) (*model.Booking, error) {
			if user == nil {
				return nil, apperrors.NotLoggedIn()
			}
			if input.Date == "2024-05-01" {
				return nil, apperrors.Conflict("you can't book onto more than 1 office a day")
			}
			return &model.Booking{ID: "b1", OfficeID: input.OfficeID, UserID: user.ID, Date: input.Date}, nil
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
		{"created", alice, `{"office_id":"o1","date":"2024-05-02"}`, http.StatusCreated, ""},
		{"second booking that day", alice, `{"office_id":"o2","date":"2024-05-01"}`, http.StatusConflict, "you can't book onto more than 1 office a day"},
		{"anonymous", nil, `{"office_id":"o1","date":"2024-05-02"}`, http.StatusUnauthorized, "not logged in"},
		{"unknown field", alice, `{"office_id":"o1","date":"2024-05-02","seat":4}`, http.StatusBadRequest, ""},
		{"anonymous with empty body", nil, ``, http.StatusUnauthorized, "not logged in"},
		{"anonymous with malformed body", nil, `{bad`, http.StatusUnauthorized, "not logged in"},
		{"anonymous with unknown field", nil, `{"seat":1}`, http.StatusUnauthorized, "not logged in"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(tt.body))
			if tt.user != nil {
				r = withUser(r, tt.user)
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
		})
	}
}

func TestBookingHandler_ListQuery(t *testing.T) {
	svc := &mockBookingService{}
	router := newRouter(svc)

	r := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/bookings?squad=lunar&date=2024-05-01&office_id=o1", nil), &model.User{ID: "u1"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	f := svc.lastFilter
	if f.Squad != "lunar" || f.Date != "2024-05-01" || f.OfficeID != "o1" || f.Limit != 0 {
		t.Errorf("filter = %+v", f)
	}
	if strings.Contains(w.Body.String(), "next_cursor") {
		t.Errorf("unpaged response carries paging fields: %s", w.Body.String())
	}
}

func TestBookingHandler_ListPaged(t *testing.T) {
	svc := &mockBookingService{
		listFunc: func(ctx context.Context, user *model.User, filter *model.BookingFilter) (*model.BookingPage, error) {
			return &model.BookingPage{
				Bookings:   []*model.Booking{{ID: "b1"}, {ID: "b2"}},
				NextCursor: "opaque",
			}, nil
		},
	}
	router := newRouter(svc)

	r := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/bookings?limit=2&cursor=prev", nil), &model.User{ID: "u1"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if svc.lastFilter.Limit != 2 || svc.lastFilter.Cursor != "prev" {
		t.Errorf("filter = %+v", svc.lastFilter)
	}

	var body struct {
		Data       []model.Booking `json:"data"`
		Limit      int             `json:"limit"`
		NextCursor string          `json:"next_cursor"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 2 || body.Limit != 2 || body.NextCursor != "opaque" {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestBookingHandler_ListBadLimit(t *testing.T) {
	router := newRouter(&mockBookingService{})

	t.Run("authenticated", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/bookings?limit=-1", nil), &model.User{ID: "u1"}))

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/bookings?limit=-1", nil))

		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})
}

func TestBookingHandler_AnonymousMutationsAreRejectedFirst(t *testing.T) {
	called := false
	svc := &mockBookingService{
		upsertFunc: func(ctx context.Context, user *model.User, input *model.BookingInput) (*model.Booking, error) {
			called = true
			return nil, apperrors.NotLoggedIn()
		},
		updateFunc: func(ctx context.Context, user *model.User, id string, update *model.BookingUpdate) (*model.Booking, error) {
			called = true
			return nil, apperrors.NotLoggedIn()
		},
	}
	router := newRouter(svc)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"upsert empty body", http.MethodPut, "/api/v1/bookings", ``},
		{"upsert malformed body", http.MethodPut, "/api/v1/bookings", `{bad`},
		{"update unknown field", http.MethodPatch, "/api/v1/bookings/id/x", `{"seat":1}`},
		{"update empty body", http.MethodPatch, "/api/v1/bookings/id/x", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))

			if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "not logged in") {
				t.Errorf("status = %d body = %s, want 401 not logged in", w.Code, w.Body.String())
			}
			if called {
				t.Error("anonymous request reached the service")
			}
		})
	}
}

func TestBookingHandler_Update(t *testing.T) {
	var gotID string
	var gotUpdate *model.BookingUpdate
	svc := &mockBookingService{
		updateFunc: func(ctx context.Context, user *model.User, id string, update *model.BookingUpdate) (*model.Booking, error) {
			gotID, gotUpdate = id, update
			return &model.Booking{ID: id, Date: *update.Date}, nil
		},
	}
	router := newRouter(svc)

	r := withUser(httptest.NewRequest(http.MethodPatch, "/api/v1/bookings/id/b-7", strings.NewReader(`{"date":"2024-06-01"}`)), &model.User{ID: "u1"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
	}
	if gotID != "b-7" || gotUpdate.OfficeID != nil || gotUpdate.Date == nil {
		t.Errorf("update id=%q update=%+v", gotID, gotUpdate)
	}
}

func TestBookingHandler_DeleteIsNoContent(t *testing.T) {
	router := newRouter(&mockBookingService{})

	r := withUser(httptest.NewRequest(http.MethodDelete, "/api/v1/bookings/id/b-7", nil), &model.User{ID: "u1"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
}

func TestBookingHandler_GetForeignIsNotFound(t *testing.T) {
	router := newRouter(&mockBookingService{})

	r := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/bookings/id/b-7", nil), &model.User{ID: "u1"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "this booking does not exist") {
		t.Errorf("status = %d body = %s", w.Code, w.Body.String())
	}
}
