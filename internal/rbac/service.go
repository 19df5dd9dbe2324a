package rbac

import (
	"context"
	"errors"
	"strings"

	"github.com/meridian-cms/meridian-cms/internal/authz"
)

// Service orchestrates role and permission administration. The reserved
// admin role is protected here by policy; the schema does not special-case
// it.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListRoles returns all roles ordered by name.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole inserts a new role. The reserved name is not creatable; it
// exists from seed time.
func (s *Service) CreateRole(ctx context.Context, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("rbac: role name required")
	}
	if name == authz.ReservedRoleName {
		return Role{}, ErrReservedRole
	}
	return s.repo.CreateRole(ctx, name, strings.TrimSpace(description))
}

// UpdateRole updates an existing role. The admin role is non-editable.
func (s *Service) UpdateRole(ctx context.Context, id int64, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("rbac: role name required")
	}
	if err := s.guardReserved(ctx, id); err != nil {
		return Role{}, err
	}
	if name == authz.ReservedRoleName {
		return Role{}, ErrReservedRole
	}
	return s.repo.UpdateRole(ctx, id, name, strings.TrimSpace(description))
}

// DeleteRole removes a role. The admin role is non-deletable.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	if err := s.guardReserved(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteRole(ctx, id)
}

// ListPermissions returns the seeded permission catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]StoredPermission, error) {
	return s.repo.ListPermissions(ctx)
}

// RolePermissions returns the grants held by a role.
func (s *Service) RolePermissions(ctx context.Context, roleID int64) ([]StoredPermission, error) {
	return s.repo.ListRolePermissions(ctx, roleID)
}

// SetRolePermissions replaces a role's grants. The admin role's grants are
// frozen: it always resolves to the wildcard regardless of stored rows.
func (s *Service) SetRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	if err := s.guardReserved(ctx, roleID); err != nil {
		return err
	}
	return s.repo.ReplaceRolePermissions(ctx, roleID, permissionIDs)
}

// AssignRole gives the user a new single role. The cached client record of
// any live session for that user stays stale until its next resolution.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) error {
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return err
	}
	return s.repo.AssignRole(ctx, userID, roleID)
}

func (s *Service) guardReserved(ctx context.Context, roleID int64) error {
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if role.Name == authz.ReservedRoleName {
		return ErrReservedRole
	}
	return nil
}
