// Package gate implements the edge tier of access enforcement: a cheap,
// stateless presence check on the session-marker cookie. It deliberately
// never decodes or verifies the token, so it runs without secret material
// or database access. An expired or forged marker passes this tier and is
// rejected by the full bearer-token verification in internal/auth.
package gate

import (
	"net/http"
	"net/url"
	"strings"
)

// Gate redirects requests to protected path prefixes to the login route
// when the session marker is absent.
type Gate struct {
	CookieName string
	LoginPath  string
	Prefixes   []string
}

// New constructs a Gate.
func New(cookieName, loginPath string, prefixes []string) *Gate {
	return &Gate{CookieName: cookieName, LoginPath: loginPath, Prefixes: prefixes}
}

// Middleware enforces the presence check on matching paths. Non-protected
// paths and the login route itself pass through untouched.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.protects(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		if _, err := r.Cookie(g.CookieName); err != nil {
			target := g.LoginPath
			if r.URL.Path != "" {
				target += "?next=" + url.QueryEscape(r.URL.Path)
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gate) protects(path string) bool {
	if path == g.LoginPath {
		return false
	}
	for _, prefix := range g.Prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
