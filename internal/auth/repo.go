package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence operations for the credential store.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	CreateLoginAudit(ctx context.Context, audit LoginAudit) error
	PurgeExpiredLoginAudit(ctx context.Context, before time.Time) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByUsername fetches a user by username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	const query = `
		SELECT id, username, password_hash, role_id, full_name, is_active, created_at, updated_at
		FROM users WHERE username = $1`
	var user User
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.RoleID,
		&user.FullName, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdatePassword writes a new password hash for the user.
func (r *PGRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, userID, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CreateLoginAudit records a successful token issuance for auditing.
func (r *PGRepository) CreateLoginAudit(ctx context.Context, audit LoginAudit) error {
	const query = `
		INSERT INTO login_audit (token_id, user_id, issued_at, expires_at, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query,
		audit.TokenID, audit.UserID,
		pgtype.Timestamptz{Time: audit.IssuedAt.UTC(), Valid: true},
		pgtype.Timestamptz{Time: audit.ExpiresAt.UTC(), Valid: true},
		pgtype.Text{String: audit.IP, Valid: audit.IP != ""},
		pgtype.Text{String: audit.UserAgent, Valid: audit.UserAgent != ""},
	)
	return err
}

// PurgeExpiredLoginAudit deletes audit rows whose tokens expired before the
// cutoff. Returns the number of rows removed.
func (r *PGRepository) PurgeExpiredLoginAudit(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM login_audit WHERE expires_at < $1`
	tag, err := r.pool.Exec(ctx, query, pgtype.Timestamptz{Time: before.UTC(), Valid: true})
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
