package middleware

import (
	"context"
	"net/http"
	"strings"

	apperrors "deskbook/pkg/errors"
	"deskbook/pkg/logger"
	"deskbook/pkg/model"
)

type userContextKey struct{}

type IdentityResolver interface {
	// Resolve returns nil, nil for tokens that are unknown or expired.
	Resolve(ctx context.Context, token string) (*model.User, error)
}

func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the authenticated user or nil for anonymous requests.
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(userContextKey{}).(*model.User)
	return user
}

// RequireUser returns the authenticated user, or a "not logged in" error for
// anonymous requests. Handlers call it before reading the body.
func RequireUser(ctx context.Context) (*model.User, error) {
	user := UserFromContext(ctx)
	if user == nil {
		return nil, apperrors.NotLoggedIn()
	}
	return user, nil
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authentication attaches the caller to the request context. Requests without
// a valid token continue anonymously; the services decide whether that is allowed.
func Authentication(resolver IdentityResolver, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				log.Ctx(r.Context()).Error("Failed to resolve session", "error", err)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"error":"authentication is temporarily unavailable","code":"SERVICE_UNAVAILABLE"}`))
				return
			}

			if user == nil {
				log.Ctx(r.Context()).Debug("Unknown or expired session token")
				next.ServeHTTP(w, r)
				return
			}

			ctx := ContextWithUser(r.Context(), user)
			ctx = logger.WithUserID(ctx, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
