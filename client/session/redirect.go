package session

import "github.com/meridian-cms/meridian-cms/internal/authz"

// RedirectRule maps a permission to the route a user holding it should
// land on after login.
type RedirectRule struct {
	Permission authz.Permission
	Route      string
}

// RedirectPolicy resolves a post-login landing route from an ordered rule
// list. The first rule whose permission the record grants wins; order is
// the whole policy.
type RedirectPolicy struct {
	Rules    []RedirectRule
	Fallback string
}

// DefaultPolicy returns the standard landing order for the admin area.
func DefaultPolicy() RedirectPolicy {
	return RedirectPolicy{
		Rules: []RedirectRule{
			{Permission: authz.PermViewDashboard, Route: "/admin"},
			{Permission: authz.PermReadService, Route: "/admin/services"},
			{Permission: authz.PermReadNews, Route: "/admin/news"},
			{Permission: authz.PermReadJob, Route: "/admin/careers"},
			{Permission: authz.PermReadUser, Route: "/admin/users"},
			{Permission: authz.PermReadRole, Route: "/admin/roles"},
			{Permission: authz.PermViewContainer, Route: "/admin/containers"},
			{Permission: authz.PermManageSettings, Route: "/admin/settings"},
		},
		Fallback: "/admin/profile",
	}
}

// Resolve returns the landing route for rec. A nil record, or one matching
// no rule, lands on the fallback. Wildcard holders match the first rule.
func (p RedirectPolicy) Resolve(rec *authz.Record) string {
	if rec == nil {
		return p.Fallback
	}
	for _, rule := range p.Rules {
		if rec.Permissions.Has(rule.Permission) {
			return rule.Route
		}
	}
	return p.Fallback
}
