package auth

import "errors"

var (
	// ErrInvalidCredentials covers both unknown username and wrong password.
	// The two cases must stay indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrTokenExpired indicates a well-formed token past its expiry.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrTokenInvalid indicates a malformed, unsigned, or forged token.
	ErrTokenInvalid = errors.New("auth: token invalid")
	// ErrUserNotFound indicates a valid token whose user no longer exists.
	// Callers treat it like an expired session and force re-login.
	ErrUserNotFound = errors.New("auth: user not found")
	// ErrTooManyAttempts indicates the login throttle tripped.
	ErrTooManyAttempts = errors.New("auth: too many failed login attempts")
)
