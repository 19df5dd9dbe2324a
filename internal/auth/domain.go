package auth

import "time"

// User represents a user account. Exactly one role per user; the password
// hash is only ever written through the credential-change operations.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	RoleID       int64
	FullName     string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LoginAudit records a successful token issuance. It exists purely for audit
// trails; token verification never consults it, so it is not a revocation
// list. A compromised token stays valid until its TTL elapses.
type LoginAudit struct {
	TokenID   string
	UserID    int64
	IssuedAt  time.Time
	ExpiresAt time.Time
	IP        string
	UserAgent string
}
