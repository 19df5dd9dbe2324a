package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-cms/meridian-cms/client/session"
	"github.com/meridian-cms/meridian-cms/internal/authz"
)

type stubAPI struct {
	token    string
	record   *authz.Record
	loginErr error
	meErr    error

	meCalls int
}

func (s *stubAPI) Login(_ context.Context, username, password string) (string, error) {
	if s.loginErr != nil {
		return "", s.loginErr
	}
	return s.token, nil
}

func (s *stubAPI) Me(_ context.Context, token string) (*authz.Record, error) {
	s.meCalls++
	if s.meErr != nil {
		return nil, s.meErr
	}
	if token != s.token {
		return nil, errors.New("unexpected token")
	}
	return s.record, nil
}

func editorRecord() *authz.Record {
	return &authz.Record{
		UserID:      7,
		Username:    "editor",
		RoleID:      3,
		RoleName:    "editor",
		Permissions: authz.NewSet(authz.PermReadNews, authz.PermUpdateNews),
	}
}

func TestStoreLoginLifecycle(t *testing.T) {
	api := &stubAPI{token: "tok-1", record: editorRecord()}
	store := session.NewStore(api, nil)

	assert.Equal(t, session.StateUnknown, store.State())
	assert.False(t, store.HasPermission(authz.PermReadNews))

	require.NoError(t, store.Login(context.Background(), "editor", "pw"))
	assert.Equal(t, session.StateAuthenticated, store.State())
	assert.Equal(t, "tok-1", store.Token())
	assert.True(t, store.HasPermission(authz.PermReadNews))
	assert.False(t, store.HasPermission(authz.PermDeleteNews))

	store.Logout()
	assert.Equal(t, session.StateUnauthenticated, store.State())
	assert.Empty(t, store.Token())
	assert.Nil(t, store.Record())
	assert.False(t, store.HasPermission(authz.PermReadNews))

	// Logout in any state is a no-op, never an error.
	store.Logout()
	assert.Equal(t, session.StateUnauthenticated, store.State())
}

func TestStoreLoginFailure(t *testing.T) {
	api := &stubAPI{loginErr: errors.New("invalid username or password")}
	store := session.NewStore(api, nil)

	err := store.Login(context.Background(), "editor", "wrong")
	require.Error(t, err)
	assert.Equal(t, session.StateUnauthenticated, store.State())
	assert.False(t, store.HasAnyPermission(authz.PermReadNews, authz.PermReadUser))
}

func TestStoreBootstrap(t *testing.T) {
	t.Run("stored token still valid", func(t *testing.T) {
		storage := session.NewMemoryStorage()
		require.NoError(t, storage.Store("tok-1"))

		api := &stubAPI{token: "tok-1", record: editorRecord()}
		store := session.NewStore(api, storage)

		require.NoError(t, store.Bootstrap(context.Background()))
		assert.Equal(t, session.StateAuthenticated, store.State())
		assert.True(t, store.HasPermission(authz.PermUpdateNews))
	})

	t.Run("no stored token", func(t *testing.T) {
		api := &stubAPI{token: "tok-1", record: editorRecord()}
		store := session.NewStore(api, session.NewMemoryStorage())

		require.NoError(t, store.Bootstrap(context.Background()))
		assert.Equal(t, session.StateUnauthenticated, store.State())
		assert.Zero(t, api.meCalls)
	})

	t.Run("stored token rejected", func(t *testing.T) {
		storage := session.NewMemoryStorage()
		require.NoError(t, storage.Store("stale"))

		api := &stubAPI{token: "tok-1", record: editorRecord()}
		store := session.NewStore(api, storage)

		require.Error(t, store.Bootstrap(context.Background()))
		assert.Equal(t, session.StateUnauthenticated, store.State())

		// A rejected token is dropped from storage.
		left, err := storage.Load()
		require.NoError(t, err)
		assert.Empty(t, left)
	})
}

func TestStoreCacheIsStaleUntilRefresh(t *testing.T) {
	api := &stubAPI{token: "tok-1", record: editorRecord()}
	store := session.NewStore(api, nil)
	require.NoError(t, store.Login(context.Background(), "editor", "pw"))
	assert.True(t, store.HasPermission(authz.PermUpdateNews))

	// Server-side role edit: the cached record does not change until the
	// next resolution.
	api.record = &authz.Record{
		UserID:      7,
		Username:    "editor",
		RoleID:      4,
		RoleName:    "viewer",
		Permissions: authz.NewSet(authz.PermReadNews),
	}
	assert.True(t, store.HasPermission(authz.PermUpdateNews))

	require.NoError(t, store.Refresh(context.Background()))
	assert.False(t, store.HasPermission(authz.PermUpdateNews))
	assert.True(t, store.HasPermission(authz.PermReadNews))
}

func TestStorePermissionModes(t *testing.T) {
	api := &stubAPI{token: "tok-1", record: editorRecord()}
	store := session.NewStore(api, nil)
	require.NoError(t, store.Login(context.Background(), "editor", "pw"))

	assert.True(t, store.HasAnyPermission(authz.PermDeleteNews, authz.PermReadNews))
	assert.False(t, store.HasAllPermissions(authz.PermReadNews, authz.PermDeleteNews))
	assert.True(t, store.HasAllPermissions(authz.PermReadNews, authz.PermUpdateNews))
}

func TestFileStorage(t *testing.T) {
	path := t.TempDir() + "/token"
	storage := session.NewFileStorage(path)

	tok, err := storage.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, storage.Store("tok-file"))
	tok, err = storage.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-file", tok)

	require.NoError(t, storage.Clear())
	require.NoError(t, storage.Clear())
	tok, err = storage.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)
}
