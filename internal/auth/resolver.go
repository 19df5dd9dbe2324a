package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-cms/meridian-cms/internal/authz"
)

// RecordResolver turns a verified user identifier into the full
// authorization record.
type RecordResolver interface {
	Resolve(ctx context.Context, userID int64) (*authz.Record, error)
}

// Resolver loads user, role, and flattened permissions from PostgreSQL.
type Resolver struct {
	pool *pgxpool.Pool
}

// NewResolver constructs a Resolver.
func NewResolver(pool *pgxpool.Pool) *Resolver {
	return &Resolver{pool: pool}
}

// Resolve reads the user's role and permission set as one repeatable-read
// snapshot, so a concurrent role edit can never produce a record mixing the
// old role with the new permissions. A deleted user yields ErrUserNotFound,
// which callers treat as an expired session.
func (r *Resolver) Resolve(ctx context.Context, userID int64) (*authz.Record, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("auth: begin resolve tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const userQuery = `
		SELECT u.id, u.username, r.id, r.name
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1 AND u.is_active`
	rec := &authz.Record{}
	err = tx.QueryRow(ctx, userQuery, userID).Scan(&rec.UserID, &rec.Username, &rec.RoleID, &rec.RoleName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	const permQuery = `
		SELECT p.action, p.subject
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1`
	rows, err := tx.Query(ctx, permQuery, rec.RoleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	perms := authz.Set{}
	for rows.Next() {
		var action, subject string
		if err := rows.Scan(&action, &subject); err != nil {
			return nil, err
		}
		perms[authz.Permission{Action: authz.Action(action), Subject: authz.Subject(subject)}] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The reserved admin role always resolves to the wildcard; this is a
	// policy guarantee, not a schema one.
	if rec.RoleName == authz.ReservedRoleName {
		perms[authz.ManageAll] = struct{}{}
	}
	rec.Permissions = perms

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

var _ RecordResolver = (*Resolver)(nil)
