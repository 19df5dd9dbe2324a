// Package session holds the client-side session cache: the current token,
// the last-resolved authorization record, and synchronous permission
// queries for UI code.
package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/meridian-cms/meridian-cms/internal/authz"
)

// State describes where the cache is in its lifecycle.
type State int

const (
	// StateUnknown is the initial state before the bootstrap check.
	StateUnknown State = iota
	// StateChecking means a stored token is being verified.
	StateChecking
	// StateAuthenticated means a record is cached and queries answer from it.
	StateAuthenticated
	// StateUnauthenticated means there is no usable session.
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateChecking:
		return "checking"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "invalid"
	}
}

// API is the server surface the store depends on.
type API interface {
	Login(ctx context.Context, username, password string) (string, error)
	Me(ctx context.Context, token string) (*authz.Record, error)
}

// Snapshot is the immutable cache content. A new snapshot replaces the old
// one atomically; nothing mutates a published snapshot in place.
type Snapshot struct {
	State  State
	Token  string
	Record *authz.Record
}

// Store is the client session cache. Reads are lock-free against the
// current snapshot; login, logout, and bootstrap are the only writers and
// serialise on an internal mutex. It is an injectable handle, not a global.
type Store struct {
	api     API
	storage TokenStorage

	mu   sync.Mutex // serialises writers
	snap atomic.Pointer[Snapshot]
}

// NewStore constructs a Store in the Unknown state. A nil storage falls
// back to in-memory.
func NewStore(api API, storage TokenStorage) *Store {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	s := &Store{api: api, storage: storage}
	s.snap.Store(&Snapshot{State: StateUnknown})
	return s
}

// Bootstrap verifies a previously stored token. It moves the cache through
// Unknown -> Checking -> Authenticated or Unauthenticated. Any failure,
// including transport errors, collapses to Unauthenticated; there is no
// partial-trust state.
func (s *Store) Bootstrap(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.Store(&Snapshot{State: StateChecking})

	token, err := s.storage.Load()
	if err != nil || token == "" {
		s.snap.Store(&Snapshot{State: StateUnauthenticated})
		return err
	}

	record, err := s.api.Me(ctx, token)
	if err != nil {
		_ = s.storage.Clear()
		s.snap.Store(&Snapshot{State: StateUnauthenticated})
		return err
	}
	s.snap.Store(&Snapshot{State: StateAuthenticated, Token: token, Record: record})
	return nil
}

// Login authenticates and caches the resolved record. On failure the cache
// ends Unauthenticated and the error is surfaced to the caller.
func (s *Store) Login(ctx context.Context, username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.api.Login(ctx, username, password)
	if err != nil {
		s.snap.Store(&Snapshot{State: StateUnauthenticated})
		return err
	}
	record, err := s.api.Me(ctx, token)
	if err != nil {
		_ = s.storage.Clear()
		s.snap.Store(&Snapshot{State: StateUnauthenticated})
		return err
	}
	if err := s.storage.Store(token); err != nil {
		return err
	}
	s.snap.Store(&Snapshot{State: StateAuthenticated, Token: token, Record: record})
	return nil
}

// Refresh re-resolves the record for the current token. This is the only
// way a cached record picks up server-side role edits before re-login.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snap.Load()
	if snap.State != StateAuthenticated {
		return nil
	}
	record, err := s.api.Me(ctx, snap.Token)
	if err != nil {
		_ = s.storage.Clear()
		s.snap.Store(&Snapshot{State: StateUnauthenticated})
		return err
	}
	s.snap.Store(&Snapshot{State: StateAuthenticated, Token: snap.Token, Record: record})
	return nil
}

// Logout clears the token and cached record. Always ends Unauthenticated;
// safe to call in any state.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.storage.Clear()
	s.snap.Store(&Snapshot{State: StateUnauthenticated})
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	return s.snap.Load().State
}

// Record returns the cached authorization record, or nil outside the
// Authenticated state. The record is a stale-tolerant cache, never the
// source of truth.
func (s *Store) Record() *authz.Record {
	snap := s.snap.Load()
	if snap.State != StateAuthenticated {
		return nil
	}
	return snap.Record
}

// Token returns the cached token, or empty outside Authenticated.
func (s *Store) Token() string {
	snap := s.snap.Load()
	if snap.State != StateAuthenticated {
		return ""
	}
	return snap.Token
}

// HasPermission is a pure synchronous lookup against the cached record. It
// never triggers a network call. Unknown and Checking states answer false.
func (s *Store) HasPermission(p authz.Permission) bool {
	rec := s.Record()
	return rec != nil && rec.Permissions.Has(p)
}

// HasAnyPermission reports whether at least one permission is granted.
func (s *Store) HasAnyPermission(perms ...authz.Permission) bool {
	rec := s.Record()
	return rec != nil && rec.Permissions.HasAny(perms...)
}

// HasAllPermissions reports whether every permission is granted.
func (s *Store) HasAllPermissions(perms ...authz.Permission) bool {
	rec := s.Record()
	return rec != nil && rec.Permissions.HasAll(perms...)
}
