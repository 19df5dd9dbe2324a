package rbac_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/meridian-cms/meridian-cms/internal/authz"
	"github.com/meridian-cms/meridian-cms/internal/rbac"
	"github.com/meridian-cms/meridian-cms/internal/shared"
)

func requestWithRecord(perms ...authz.Permission) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/roles", nil)
	rec := &authz.Record{
		UserID:      1,
		Username:    "editor",
		RoleID:      2,
		RoleName:    "editor",
		Permissions: authz.NewSet(perms...),
	}
	return req.WithContext(shared.ContextWithRecord(req.Context(), rec))
}

func runGuard(t *testing.T, mw func(http.Handler) http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rr, req)
	return rr
}

func TestRequireAnyGrantsOnOneMatch(t *testing.T) {
	mw := rbac.Middleware{}.RequireAny(authz.PermReadRole, authz.PermManageRole)
	rr := runGuard(t, mw, requestWithRecord(authz.PermReadRole))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRequireAllDeniesOnMissingPermission(t *testing.T) {
	mw := rbac.Middleware{}.RequireAll(authz.PermReadRole, authz.PermManageRole)
	rr := runGuard(t, mw, requestWithRecord(authz.PermReadRole))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestWildcardPassesAnyGuard(t *testing.T) {
	mw := rbac.Middleware{}.RequireAll(authz.PermManageSystemConfig, authz.PermDeleteUser)
	rr := runGuard(t, mw, requestWithRecord(authz.ManageAll))
	if rr.Code != http.StatusOK {
		t.Fatalf("wildcard should pass, got %d", rr.Code)
	}
}

func TestMissingRecordIsUnauthorized(t *testing.T) {
	mw := rbac.Middleware{}.RequireAny(authz.PermReadRole)
	rr := runGuard(t, mw, httptest.NewRequest(http.MethodGet, "/roles", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
