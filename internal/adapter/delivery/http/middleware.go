package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"

	"github.com/vadimbarashkov/qrlink/internal/entity"
	"github.com/vadimbarashkov/qrlink/pkg/response"
)

type ctxKey struct{}

var userCtxKey ctxKey

type authenticator interface {
	Authenticate(ctx context.Context, token string) (*entity.User, error)
	AuthenticateAPIKey(ctx context.Context, rawKey string) (*entity.User, error)
}

// requireAuth resolves the caller from a bearer token or an X-API-Key header.
func requireAuth(a authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				user *entity.User
				err  = entity.ErrUnauthorized
			)

			if key := r.Header.Get("X-API-Key"); key != "" {
				user, err = a.AuthenticateAPIKey(r.Context(), key)
			} else if token, ok := bearerToken(r); ok {
				user, err = a.Authenticate(r.Context(), token)
			}

			if err != nil {
				writeError(w, r, err)
				return
			}

			httplog.LogEntrySetField(r.Context(), "user_id", slog.Int64Value(user.ID))

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userCtxKey, user)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// userFromContext returns the caller set by requireAuth.
func userFromContext(w http.ResponseWriter, r *http.Request) (*entity.User, bool) {
	user, ok := r.Context().Value(userCtxKey).(*entity.User)
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.UnauthorizedResponse)
		return nil, false
	}
	return user, true
}

// noCache marks every response as non-cacheable.
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")

		next.ServeHTTP(w, r)
	})
}
