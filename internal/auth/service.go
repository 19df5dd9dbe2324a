package auth

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-cms/meridian-cms/internal/authz"
)

// Service wraps credential verification and token issuance. All operations
// are request-scoped; the only shared state is the connection pool behind
// the repository.
type Service struct {
	repo     Repository
	resolver RecordResolver
	issuer   *Issuer
	throttle *LoginThrottle
	logger   *slog.Logger
}

// NewService constructs a Service. The throttle is optional.
func NewService(repo Repository, resolver RecordResolver, issuer *Issuer, throttle *LoginThrottle, logger *slog.Logger) *Service {
	return &Service{repo: repo, resolver: resolver, issuer: issuer, throttle: throttle, logger: logger}
}

// TokenTTL exposes the issuer's configured token lifetime, for cookie expiry.
func (s *Service) TokenTTL() int {
	return int(s.issuer.TTL().Seconds())
}

// Authenticate validates username/password and issues a signed session
// token. Unknown username and wrong password both surface as
// ErrInvalidCredentials; nothing may leak which one happened.
func (s *Service) Authenticate(ctx context.Context, username, password, ip, userAgent string) (string, error) {
	if s.throttle != nil {
		allowed, err := s.throttle.Allow(ctx, username, ip)
		if err != nil && s.logger != nil {
			s.logger.Warn("login throttle check", slog.Any("error", err))
		}
		if err == nil && !allowed {
			return "", ErrTooManyAttempts
		}
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		s.recordFailure(ctx, username, ip)
		return "", ErrInvalidCredentials
	}
	if !user.IsActive {
		s.recordFailure(ctx, username, ip)
		return "", ErrInvalidCredentials
	}
	// bcrypt comparison is deliberately slow; never call this while holding
	// other locks.
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recordFailure(ctx, username, ip)
		return "", ErrInvalidCredentials
	}

	token, claims, err := s.issuer.Issue(user.ID, user.RoleID)
	if err != nil {
		return "", err
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, username, ip); err != nil && s.logger != nil {
			s.logger.Warn("login throttle reset", slog.Any("error", err))
		}
	}
	audit := LoginAudit{
		TokenID:   claims.ID,
		UserID:    user.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		IP:        ip,
		UserAgent: userAgent,
	}
	if err := s.repo.CreateLoginAudit(ctx, audit); err != nil && s.logger != nil {
		s.logger.Warn("record login audit", slog.Any("error", err))
	}
	return token, nil
}

// ChangePassword re-verifies the old password before writing the new hash.
func (s *Service) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, user.ID, string(hash))
}

// ResetPassword overwrites the password without old-password verification.
// Callers gate this behind a manage:user permission check at the route; the
// operation itself stays unguarded on purpose.
func (s *Service) ResetPassword(ctx context.Context, username, newPassword string) error {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, user.ID, string(hash))
}

// VerifyAndLoad verifies signature and expiry, then resolves the full
// authorization record for the token's subject.
func (s *Service) VerifyAndLoad(ctx context.Context, token string) (*authz.Record, error) {
	claims, err := s.issuer.Verify(token)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(ctx, userID)
}

func (s *Service) recordFailure(ctx context.Context, username, ip string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.RecordFailure(ctx, username, ip); err != nil && s.logger != nil {
		s.logger.Warn("login throttle record", slog.Any("error", err))
	}
}
