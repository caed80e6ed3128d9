package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"deskbook/pkg/client"
	"deskbook/pkg/config"
	"deskbook/pkg/logger"
	"deskbook/pkg/middleware"
	"deskbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type tokenResolver map[string]*model.User

func (t tokenResolver) Resolve(ctx context.Context, token string) (*model.User, error) {
	return t[token], nil
}

type whoamiHandler struct{}

func (whoamiHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/whoami", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		user := middleware.UserFromContext(r.Context())
		if user == nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(user.ID))
	})
	router.POST("/api/v1/echo", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.WriteHeader(http.StatusCreated)
	})
}

func newTestApplication(t *testing.T) *Application {
	t.Helper()
	cfg := &config.Config{
		ServiceName:       "deskbook-test",
		Port:              "0",
		RateLimitRequests: 2,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    time.Second,
		IdempotencyTTL:    time.Minute,
		MaxRequestSize:    64,
		ShutdownTimeout:   time.Second,
		Log:               logger.Discard(),
		Client:            client.NewClient(),
	}
	a := NewApplication(cfg, tokenResolver{"tok-alice": {ID: "alice"}, "tok-bob": {ID: "bob"}})
	a.SetApp(whoamiHandler{})
	t.Cleanup(func() {
		a.idempotencyStore.Stop()
		a.rateLimiter.Stop()
	})
	return a
}

func request(h http.Handler, method, path, token, contentType, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestApplication_Authentication(t *testing.T) {
	h := newTestApplication(t).Handler()

	if w := request(h, http.MethodGet, "/api/v1/whoami", "", "", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", w.Code)
	}
	if w := request(h, http.MethodGet, "/api/v1/whoami", "unknown", "", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("unknown token status = %d, want 401", w.Code)
	}

	w := request(h, http.MethodGet, "/api/v1/whoami", "tok-alice", "", "")
	if w.Code != http.StatusOK || w.Body.String() != "alice" {
		t.Errorf("status = %d body = %q", w.Code, w.Body.String())
	}
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("response is missing the request id")
	}
}

func TestApplication_RateLimitIsPerCaller(t *testing.T) {
	h := newTestApplication(t).Handler()

	for i := range 2 {
		if w := request(h, http.MethodGet, "/api/v1/whoami", "tok-alice", "", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, w.Code)
		}
	}
	if w := request(h, http.MethodGet, "/api/v1/whoami", "tok-alice", "", ""); w.Code != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", w.Code)
	}
	if w := request(h, http.MethodGet, "/api/v1/whoami", "tok-bob", "", ""); w.Code != http.StatusOK {
		t.Errorf("other caller status = %d, want 200", w.Code)
	}
}

func TestApplication_BodyChecks(t *testing.T) {
	h := newTestApplication(t).Handler()

	if w := request(h, http.MethodPost, "/api/v1/echo", "tok-alice", "text/plain", "hi"); w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("text body status = %d, want 415", w.Code)
	}
	if w := request(h, http.MethodPost, "/api/v1/echo", "tok-alice", "application/json", strings.Repeat("x", 65)); w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body status = %d, want 413", w.Code)
	}
	if w := request(h, http.MethodPost, "/api/v1/echo", "tok-alice", "application/json", "{}"); w.Code != http.StatusCreated {
		t.Errorf("valid body status = %d, want 201", w.Code)
	}
}

func TestApplication_Health(t *testing.T) {
	h := newTestApplication(t).Handler()

	w := request(h, http.MethodGet, "/health", "", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("status = %d body = %s", w.Code, w.Body.String())
	}
}
