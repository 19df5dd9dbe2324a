package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-cms/meridian-cms/internal/authz"
)

// Repository defines persistence operations for roles and permission grants.
type Repository interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, name, description string) (Role, error)
	UpdateRole(ctx context.Context, id int64, name, description string) (Role, error)
	DeleteRole(ctx context.Context, id int64) error

	ListPermissions(ctx context.Context) ([]StoredPermission, error)
	EnsurePermission(ctx context.Context, p authz.Permission, description string) (StoredPermission, error)
	ListRolePermissions(ctx context.Context, roleID int64) ([]StoredPermission, error)
	ReplaceRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error

	AssignRole(ctx context.Context, userID, roleID int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ListRoles returns all roles ordered by name.
func (r *PGRepository) ListRoles(ctx context.Context) ([]Role, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM roles ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// GetRole fetches a role by ID.
func (r *PGRepository) GetRole(ctx context.Context, id int64) (Role, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM roles WHERE id = $1`
	var role Role
	err := r.pool.QueryRow(ctx, query, id).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// CreateRole inserts a new role.
func (r *PGRepository) CreateRole(ctx context.Context, name, description string) (Role, error) {
	const query = `
		INSERT INTO roles (name, description, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		RETURNING id, name, description, created_at, updated_at`
	var role Role
	err := r.pool.QueryRow(ctx, query, name, description).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

// UpdateRole updates an existing role.
func (r *PGRepository) UpdateRole(ctx context.Context, id int64, name, description string) (Role, error) {
	const query = `
		UPDATE roles SET name = $2, description = $3, updated_at = now()
		WHERE id = $1
		RETURNING id, name, description, created_at, updated_at`
	var role Role
	err := r.pool.QueryRow(ctx, query, id, name, description).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// DeleteRole removes a role by ID. Returns ErrNotFound if nothing was deleted.
func (r *PGRepository) DeleteRole(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPermissions returns the full permission catalog.
func (r *PGRepository) ListPermissions(ctx context.Context) ([]StoredPermission, error) {
	const query = `SELECT id, action, subject, description FROM permissions ORDER BY subject, action`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStoredPermissions(rows)
}

// EnsurePermission upserts a permission keyed on the (action, subject) pair.
func (r *PGRepository) EnsurePermission(ctx context.Context, p authz.Permission, description string) (StoredPermission, error) {
	const query = `
		INSERT INTO permissions (action, subject, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (action, subject) DO UPDATE SET description = EXCLUDED.description
		RETURNING id, action, subject, description`
	var stored StoredPermission
	var action, subject string
	err := r.pool.QueryRow(ctx, query, string(p.Action), string(p.Subject), description).
		Scan(&stored.ID, &action, &subject, &stored.Description)
	if err != nil {
		return StoredPermission{}, err
	}
	stored.Permission = authz.Permission{Action: authz.Action(action), Subject: authz.Subject(subject)}
	return stored, nil
}

// ListRolePermissions returns the permissions granted to a role.
func (r *PGRepository) ListRolePermissions(ctx context.Context, roleID int64) ([]StoredPermission, error) {
	const query = `
		SELECT p.id, p.action, p.subject, p.description
		FROM role_permissions rp
		JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.subject, p.action`
	rows, err := r.pool.Query(ctx, query, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStoredPermissions(rows)
}

// ReplaceRolePermissions swaps a role's grants for the given set in one
// transaction.
func (r *PGRepository) ReplaceRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return err
	}
	for _, id := range permissionIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			roleID, id); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// AssignRole points the user at a new role. Single role per user: this is
// an update of the scalar reference, never an insert into a set.
func (r *PGRepository) AssignRole(ctx context.Context, userID, roleID int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role_id = $2, updated_at = now() WHERE id = $1`, userID, roleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanStoredPermissions(rows pgx.Rows) ([]StoredPermission, error) {
	var perms []StoredPermission
	for rows.Next() {
		var stored StoredPermission
		var action, subject string
		if err := rows.Scan(&stored.ID, &action, &subject, &stored.Description); err != nil {
			return nil, err
		}
		stored.Permission = authz.Permission{Action: authz.Action(action), Subject: authz.Subject(subject)}
		perms = append(perms, stored)
	}
	return perms, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
