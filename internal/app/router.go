package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-cms/meridian-cms/internal/auth"
	"github.com/meridian-cms/meridian-cms/internal/gate"
	"github.com/meridian-cms/meridian-cms/internal/observability"
	"github.com/meridian-cms/meridian-cms/internal/rbac"
	"github.com/meridian-cms/meridian-cms/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	AuthHandler    *auth.Handler
	AuthMiddleware auth.Middleware
	RBACHandler    *rbac.Handler
	UsersHandler   *users.Handler
	Gate           *gate.Gate
	Pool           *pgxpool.Pool
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with Meridian defaults.
//
// The admin prefix sits behind the edge gate, which only checks that the
// session marker cookie exists. Real enforcement happens on the /api
// routes, where every request carries a verified token and a freshly
// resolved permission set.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/api", func(r chi.Router) {
		r.Use(params.AuthMiddleware.RequireToken)
		if params.RBACHandler != nil {
			params.RBACHandler.MountRoutes(r)
		}
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
	})

	loginPath := "/login"
	if params.Config != nil && params.Config.LoginPath != "" {
		loginPath = params.Config.LoginPath
	}
	r.Get(loginPath, loginPage)

	if params.Gate != nil {
		r.Group(func(r chi.Router) {
			r.Use(params.Gate.Middleware)
			r.Get("/admin", adminShell)
			r.Get("/admin/*", adminShell)
		})
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

// adminShell serves the single-page shell for the admin area. The shell
// itself carries no data; the client fetches everything through /api with
// its bearer token.
func adminShell(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(`<!doctype html><html><head><title>Meridian Admin</title></head><body><div id="app"></div></body></html>`))
}

func loginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(`<!doctype html><html><head><title>Meridian Login</title></head><body><div id="login"></div></body></html>`))
}
