package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListUsers returns a page of users joined with their role names.
func (r *Repository) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	const query = `
		SELECT u.id, u.username, u.full_name, u.role_id, r.name, u.is_active, u.created_at, u.updated_at
		FROM users u
		JOIN roles r ON r.id = u.role_id
		ORDER BY u.id
		LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Username, &user.FullName, &user.RoleID, &user.RoleName,
			&user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, user)
	}
	return out, rows.Err()
}

// CountUsers returns the total number of user accounts.
func (r *Repository) CountUsers(ctx context.Context) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total)
	return total, err
}

// GetUser fetches a user by ID.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	const query = `
		SELECT u.id, u.username, u.full_name, u.role_id, r.name, u.is_active, u.created_at, u.updated_at
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1`
	var user User
	err := r.pool.QueryRow(ctx, query, id).Scan(&user.ID, &user.Username, &user.FullName, &user.RoleID,
		&user.RoleName, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// CreateUser inserts a new user with a hashed password and single role.
func (r *Repository) CreateUser(ctx context.Context, username, fullName, passwordHash string, roleID int64) (User, error) {
	const query = `
		INSERT INTO users (username, full_name, password_hash, role_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, true, now(), now())
		RETURNING id, created_at, updated_at`
	user := User{Username: username, FullName: fullName, RoleID: roleID, IsActive: true}
	err := r.pool.QueryRow(ctx, query, username, fullName, passwordHash, roleID).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return User{}, ErrDuplicateUsername
		}
		return User{}, err
	}
	return user, nil
}

// SetActive flips the account's active flag. Deactivation does not revoke
// live tokens; it takes effect on the next resolution or login.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user account.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
