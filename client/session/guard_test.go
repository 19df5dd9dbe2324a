package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-cms/meridian-cms/client/session"
	"github.com/meridian-cms/meridian-cms/internal/authz"
)

func authenticatedStore(t *testing.T, perms ...authz.Permission) *session.Store {
	t.Helper()
	api := &stubAPI{token: "tok-1", record: &authz.Record{
		UserID:      7,
		Username:    "editor",
		RoleID:      3,
		RoleName:    "editor",
		Permissions: authz.NewSet(perms...),
	}}
	store := session.NewStore(api, nil)
	require.NoError(t, store.Login(context.Background(), "editor", "pw"))
	return store
}

func TestGuardDeniesBeforeSessionResolves(t *testing.T) {
	store := session.NewStore(&stubAPI{}, nil)
	guard := session.NewGuard(store, authz.PermReadNews)

	// Unknown state always answers false, so guarded UI never shows
	// before the bootstrap check finishes.
	assert.Equal(t, session.StateUnknown, store.State())
	assert.False(t, guard.Allowed())
}

func TestGuardModes(t *testing.T) {
	store := authenticatedStore(t, authz.PermReadNews)

	t.Run("any-of passes on one match", func(t *testing.T) {
		guard := session.NewGuard(store, authz.PermUpdateNews, authz.PermReadNews)
		assert.True(t, guard.Allowed())
	})

	t.Run("any-of denies with no match", func(t *testing.T) {
		guard := session.NewGuard(store, authz.PermUpdateNews)
		assert.False(t, guard.Allowed())
	})

	t.Run("all-of denies on partial hold", func(t *testing.T) {
		guard := session.NewGuardAll(store, authz.PermReadNews, authz.PermUpdateNews)
		assert.False(t, guard.Allowed())
	})

	t.Run("empty requirement only needs authentication", func(t *testing.T) {
		guard := session.NewGuard(store)
		assert.True(t, guard.Allowed())
	})
}

func TestGuardWildcard(t *testing.T) {
	store := authenticatedStore(t, authz.PermManageAll)
	guard := session.NewGuardAll(store, authz.PermDeleteUser, authz.PermManageSystemConfig)
	assert.True(t, guard.Allowed())
}

func TestGuardRender(t *testing.T) {
	store := authenticatedStore(t, authz.PermReadNews)

	editGuard := session.NewGuard(store, authz.PermUpdateNews)
	assert.Equal(t, "read-only view", session.Render(editGuard, "edit form", "read-only view"))

	viewGuard := session.NewGuard(store, authz.PermReadNews)
	assert.Equal(t, "news list", session.Render(viewGuard, "news list", ""))
}
