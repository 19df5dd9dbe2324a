package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/meridian-cms/meridian-cms/internal/authz"
)

// Seed upserts the permission catalog and guarantees the reserved admin
// role exists with the wildcard grant. Safe to run repeatedly.
func (s *Service) Seed(ctx context.Context) error {
	var wildcardID int64
	for _, entry := range authz.Catalog() {
		stored, err := s.repo.EnsurePermission(ctx, entry.Permission, entry.Description)
		if err != nil {
			return fmt.Errorf("rbac: seed permission %s: %w", entry.Permission, err)
		}
		if stored.Permission == authz.ManageAll {
			wildcardID = stored.ID
		}
	}

	admin, err := s.findRoleByName(ctx, authz.ReservedRoleName)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		admin, err = s.repo.CreateRole(ctx, authz.ReservedRoleName, "Reserved administrator role")
		if err != nil {
			return fmt.Errorf("rbac: seed admin role: %w", err)
		}
	}
	if wildcardID != 0 {
		if err := s.repo.ReplaceRolePermissions(ctx, admin.ID, []int64{wildcardID}); err != nil {
			return fmt.Errorf("rbac: seed admin grants: %w", err)
		}
	}
	return nil
}

func (s *Service) findRoleByName(ctx context.Context, name string) (Role, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return Role{}, err
	}
	for _, role := range roles {
		if role.Name == name {
			return role, nil
		}
	}
	return Role{}, ErrNotFound
}
