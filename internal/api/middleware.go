package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/IlyasAtabaev731/banking-backend/internal/domain"
	"github.com/IlyasAtabaev731/banking-backend/internal/domain/models"
)

const (
	corsAllowOrigin  = "*"
	corsAllowHeaders = "Content-Type, Authorization"
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"

	tokenScheme = "Token "
)

// Identity is the caller resolved by the auth gate. A nil User means
// anonymous.
type Identity struct {
	User *models.User
}

func (i Identity) Anonymous() bool {
	return i.User == nil
}

type identityKey struct{}

func withIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity bound to ctx, anonymous if none.
func IdentityFrom(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey{}).(Identity)
	return id
}

// cors adds CORS headers to every response and answers preflight requests
// before routing.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", corsAllowOrigin)
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *APIServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info("Request handled",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

// bearerToken extracts the token from an "Authorization: Token <id>" header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, tokenScheme) {
		return "", false
	}

	parts := strings.Split(header, " ")
	if len(parts) < 2 || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}

// authenticate resolves the presented token once per request. Unknown,
// invalid or expired tokens leave the request anonymous.
func (s *APIServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id Identity

		if token, ok := bearerToken(r); ok {
			user, err := s.auth.Authenticate(r.Context(), token)
			switch {
			case err == nil:
				id.User = user
			case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrTokenExpired):
				s.logger.Debug("Anonymous request", slog.String("reason", err.Error()))
			default:
				s.logger.Error("Failed to authenticate request", "error", err)
				writeError(w, http.StatusInternalServerError, msgInternal)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}

func (s *APIServer) requireIdentity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if IdentityFrom(r.Context()).Anonymous() {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": msgNoCredentials})
			return
		}
		next(w, r)
	}
}
