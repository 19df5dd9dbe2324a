package rbac

import (
	"errors"
	"time"

	"github.com/meridian-cms/meridian-cms/internal/authz"
)

// Role represents a named permission grouping. Exactly one role is assigned
// per user.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// StoredPermission is a seeded catalog row. Identity is the (action,
// subject) pair; the surrogate ID exists only for the join table.
type StoredPermission struct {
	ID          int64
	Permission  authz.Permission
	Description string
}

var (
	// ErrNotFound indicates that the requested record does not exist.
	ErrNotFound = errors.New("rbac: not found")
	// ErrReservedRole indicates an attempt to edit or delete the admin role.
	ErrReservedRole = errors.New("rbac: the admin role cannot be modified")
)
