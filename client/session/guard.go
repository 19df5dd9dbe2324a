package session

import "github.com/meridian-cms/meridian-cms/internal/authz"

// Guard gates a piece of UI behind a permission check against the session
// cache. It fails closed: while the session is Unknown or Checking it
// answers false, so protected content never flashes before the check.
type Guard struct {
	Store    *Store
	Required []authz.Permission
	Mode     authz.Mode
}

// NewGuard builds a guard in any-of mode.
func NewGuard(store *Store, required ...authz.Permission) *Guard {
	return &Guard{Store: store, Required: required, Mode: authz.ModeAny}
}

// NewGuardAll builds a guard in all-of mode.
func NewGuardAll(store *Store, required ...authz.Permission) *Guard {
	return &Guard{Store: store, Required: required, Mode: authz.ModeAll}
}

// Allowed reports whether the guarded content should be shown. A guard
// with no required permissions only asks for an authenticated session.
func (g *Guard) Allowed() bool {
	rec := g.Store.Record()
	if rec == nil {
		return false
	}
	if len(g.Required) == 0 {
		return true
	}
	return rec.Permissions.Check(g.Required, g.Mode)
}

// Render picks between the guarded content and a fallback. Either value
// may be zero; this is a convenience for template-style call sites.
func Render[T any](g *Guard, content, fallback T) T {
	if g.Allowed() {
		return content
	}
	return fallback
}
