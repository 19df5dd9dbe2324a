package rbac

import (
	"log/slog"
	"net/http"

	"github.com/meridian-cms/meridian-cms/internal/authz"
	"github.com/meridian-cms/meridian-cms/internal/platform/httpx"
	"github.com/meridian-cms/meridian-cms/internal/shared"
)

// Middleware enforces permission requirements against the authorization
// record that the bearer-token middleware placed in the request context.
// It never re-resolves permissions; the record is the per-request snapshot.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAny ensures the current user holds at least one of the required
// permissions.
func (m Middleware) RequireAny(perms ...authz.Permission) func(http.Handler) http.Handler {
	return m.require(perms, authz.ModeAny)
}

// RequireAll ensures the current user holds every required permission.
func (m Middleware) RequireAll(perms ...authz.Permission) func(http.Handler) http.Handler {
	return m.require(perms, authz.ModeAll)
}

func (m Middleware) require(perms []authz.Permission, mode authz.Mode) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			rec := shared.RecordFromContext(r.Context())
			if rec == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
				return
			}
			if !rec.Permissions.Check(perms, mode) {
				if m.Logger != nil {
					m.Logger.Warn("permission denied",
						slog.String("user", rec.Username),
						slog.String("path", r.URL.Path),
					)
				}
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
