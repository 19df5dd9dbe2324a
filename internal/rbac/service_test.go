package rbac_test

import (
	"context"
	"errors"
	"testing"

	"github.com/meridian-cms/meridian-cms/internal/authz"
	"github.com/meridian-cms/meridian-cms/internal/rbac"
)

type stubRepo struct {
	roles       map[int64]rbac.Role
	permissions map[authz.Permission]rbac.StoredPermission
	grants      map[int64][]int64
	assignments map[int64]int64
	nextRoleID  int64
	nextPermID  int64
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		roles:       make(map[int64]rbac.Role),
		permissions: make(map[authz.Permission]rbac.StoredPermission),
		grants:      make(map[int64][]int64),
		assignments: make(map[int64]int64),
	}
}

func (s *stubRepo) ListRoles(ctx context.Context) ([]rbac.Role, error) {
	out := make([]rbac.Role, 0, len(s.roles))
	for _, role := range s.roles {
		out = append(out, role)
	}
	return out, nil
}

func (s *stubRepo) GetRole(ctx context.Context, id int64) (rbac.Role, error) {
	role, ok := s.roles[id]
	if !ok {
		return rbac.Role{}, rbac.ErrNotFound
	}
	return role, nil
}

func (s *stubRepo) CreateRole(ctx context.Context, name, description string) (rbac.Role, error) {
	s.nextRoleID++
	role := rbac.Role{ID: s.nextRoleID, Name: name, Description: description}
	s.roles[role.ID] = role
	return role, nil
}

func (s *stubRepo) UpdateRole(ctx context.Context, id int64, name, description string) (rbac.Role, error) {
	role, ok := s.roles[id]
	if !ok {
		return rbac.Role{}, rbac.ErrNotFound
	}
	role.Name, role.Description = name, description
	s.roles[id] = role
	return role, nil
}

func (s *stubRepo) DeleteRole(ctx context.Context, id int64) error {
	if _, ok := s.roles[id]; !ok {
		return rbac.ErrNotFound
	}
	delete(s.roles, id)
	return nil
}

func (s *stubRepo) ListPermissions(ctx context.Context) ([]rbac.StoredPermission, error) {
	out := make([]rbac.StoredPermission, 0, len(s.permissions))
	for _, p := range s.permissions {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubRepo) EnsurePermission(ctx context.Context, p authz.Permission, description string) (rbac.StoredPermission, error) {
	if stored, ok := s.permissions[p]; ok {
		stored.Description = description
		s.permissions[p] = stored
		return stored, nil
	}
	s.nextPermID++
	stored := rbac.StoredPermission{ID: s.nextPermID, Permission: p, Description: description}
	s.permissions[p] = stored
	return stored, nil
}

func (s *stubRepo) ListRolePermissions(ctx context.Context, roleID int64) ([]rbac.StoredPermission, error) {
	var out []rbac.StoredPermission
	for _, id := range s.grants[roleID] {
		for _, stored := range s.permissions {
			if stored.ID == id {
				out = append(out, stored)
			}
		}
	}
	return out, nil
}

func (s *stubRepo) ReplaceRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	s.grants[roleID] = append([]int64(nil), permissionIDs...)
	return nil
}

func (s *stubRepo) AssignRole(ctx context.Context, userID, roleID int64) error {
	s.assignments[userID] = roleID
	return nil
}

var _ rbac.Repository = (*stubRepo)(nil)

func seededService(t *testing.T) (*rbac.Service, *stubRepo) {
	t.Helper()
	repo := newStubRepo()
	service := rbac.NewService(repo)
	if err := service.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return service, repo
}

func TestSeedCreatesAdminWithWildcard(t *testing.T) {
	service, repo := seededService(t)

	var admin rbac.Role
	for _, role := range repo.roles {
		if role.Name == authz.ReservedRoleName {
			admin = role
		}
	}
	if admin.ID == 0 {
		t.Fatal("admin role not seeded")
	}

	perms, err := service.RolePermissions(context.Background(), admin.ID)
	if err != nil {
		t.Fatalf("role permissions: %v", err)
	}
	if len(perms) != 1 || perms[0].Permission != authz.ManageAll {
		t.Fatalf("admin should hold exactly the wildcard, got %v", perms)
	}

	// Seeding twice must not duplicate anything.
	if err := service.Seed(context.Background()); err != nil {
		t.Fatalf("re-seed: %v", err)
	}
	if len(repo.permissions) != len(authz.Catalog()) {
		t.Fatalf("expected %d permissions, got %d", len(authz.Catalog()), len(repo.permissions))
	}
}

func TestReservedRoleIsProtected(t *testing.T) {
	service, repo := seededService(t)
	var adminID int64
	for id, role := range repo.roles {
		if role.Name == authz.ReservedRoleName {
			adminID = id
		}
	}

	ctx := context.Background()
	if _, err := service.UpdateRole(ctx, adminID, "superadmin", ""); !errors.Is(err, rbac.ErrReservedRole) {
		t.Fatalf("update admin: expected ErrReservedRole, got %v", err)
	}
	if err := service.DeleteRole(ctx, adminID); !errors.Is(err, rbac.ErrReservedRole) {
		t.Fatalf("delete admin: expected ErrReservedRole, got %v", err)
	}
	if err := service.SetRolePermissions(ctx, adminID, nil); !errors.Is(err, rbac.ErrReservedRole) {
		t.Fatalf("set admin grants: expected ErrReservedRole, got %v", err)
	}
	if _, err := service.CreateRole(ctx, authz.ReservedRoleName, ""); !errors.Is(err, rbac.ErrReservedRole) {
		t.Fatalf("create admin: expected ErrReservedRole, got %v", err)
	}

	// Renaming another role to the reserved name is also blocked.
	editor, err := service.CreateRole(ctx, "editor", "")
	if err != nil {
		t.Fatalf("create editor: %v", err)
	}
	if _, err := service.UpdateRole(ctx, editor.ID, authz.ReservedRoleName, ""); !errors.Is(err, rbac.ErrReservedRole) {
		t.Fatalf("rename to admin: expected ErrReservedRole, got %v", err)
	}
}

func TestAssignRoleRequiresExistingRole(t *testing.T) {
	service, repo := seededService(t)
	ctx := context.Background()

	if err := service.AssignRole(ctx, 42, 9999); !errors.Is(err, rbac.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing role, got %v", err)
	}

	editor, err := service.CreateRole(ctx, "editor", "")
	if err != nil {
		t.Fatalf("create editor: %v", err)
	}
	if err := service.AssignRole(ctx, 42, editor.ID); err != nil {
		t.Fatalf("assign role: %v", err)
	}
	if repo.assignments[42] != editor.ID {
		t.Fatalf("assignment not stored")
	}
}
