package users

import (
	"errors"
	"time"
)

// User represents a user account for management. Role is a single scalar
// reference, never a set.
type User struct {
	ID        int64
	Username  string
	FullName  string
	RoleID    int64
	RoleName  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	// ErrNotFound indicates the user does not exist.
	ErrNotFound = errors.New("users: not found")
	// ErrDuplicateUsername indicates the username is already taken.
	ErrDuplicateUsername = errors.New("users: username already exists")
)
