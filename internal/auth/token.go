package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the reference session lifetime. The TTL is the only
// bound on how long a stale or compromised token stays valid; there is no
// server-side revocation.
const DefaultTokenTTL = time.Hour

// Claims is the signed token payload: user identity, role reference, and
// the issue/expiry window.
type Claims struct {
	RoleID int64 `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies session tokens with a shared HS256 secret.
// Verification is CPU-only and never touches I/O.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer constructs an Issuer. An empty secret is a configuration error;
// callers treat it as fatal at startup, never per-request.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("auth: token secret must be provided")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL exposes the configured token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a token binding the user and role for the configured TTL.
func (i *Issuer) Issue(userID, roleID int64) (token string, claims *Claims, err error) {
	now := i.now().UTC()
	claims = &Claims{
		RoleID: roleID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("auth: sign token: %w", err)
	}
	return token, claims, nil
}

// Verify checks signature and expiry. Expired tokens are reported as
// ErrTokenExpired, everything else as ErrTokenInvalid.
func (i *Issuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return i.now() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// UserID parses the subject claim back into the user identifier.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrTokenInvalid
	}
	return id, nil
}
