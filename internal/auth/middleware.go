package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/meridian-cms/meridian-cms/internal/platform/httpx"
	"github.com/meridian-cms/meridian-cms/internal/shared"
)

// Middleware performs full bearer-token verification and stores the
// resolved authorization record in the request context. This is the heavy
// tier of enforcement; the cheap presence-only tier lives in internal/gate.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireToken rejects requests without a valid bearer token. Token errors
// translate to 401 and are never retried.
func (m Middleware) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}
		rec, err := m.Service.VerifyAndLoad(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenExpired):
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "token expired")
			case errors.Is(err, ErrTokenInvalid):
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "token invalid")
			case errors.Is(err, ErrUserNotFound):
				// Valid token, deleted user: same as an expired session.
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "session no longer valid")
			default:
				if m.Logger != nil {
					m.Logger.Error("verify token", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			}
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithRecord(r.Context(), rec)))
	})
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
