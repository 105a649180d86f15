package rbac_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/campuslink/campuslink/internal/rbac"
)

func TestRBAC(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "RBAC Suite")
}

// Mock repository for testing
type mockRepository struct {
	users       map[int64]bool
	permissions map[string]*rbac.Permission
	roles       map[string]*rbac.Role
	assignments []*rbac.RoleAssignment
	grants      []*rbac.DirectGrant
	revocations []*rbac.Revocation
	nextID      int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:       make(map[int64]bool),
		permissions: make(map[string]*rbac.Permission),
		roles:       make(map[string]*rbac.Role),
		nextID:      1,
	}
}

func (m *mockRepository) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *mockRepository) addUser(userID int64) {
	m.users[userID] = true
}

func (m *mockRepository) addPermission(key string) *rbac.Permission {
	perm := &rbac.Permission{ID: m.id(), Key: key}
	m.permissions[key] = perm
	return perm
}

func (m *mockRepository) addRole(key string, isSuper, isDefault bool, perms ...*rbac.Permission) *rbac.Role {
	role := &rbac.Role{ID: m.id(), Key: key, Name: key, IsSuperRole: isSuper, IsDefault: isDefault}
	for _, p := range perms {
		role.Permissions = append(role.Permissions, *p)
	}
	m.roles[key] = role
	return role
}

func (m *mockRepository) UserExists(_ context.Context, userID int64) (bool, error) {
	return m.users[userID], nil
}

func (m *mockRepository) PermissionByKey(_ context.Context, key string) (*rbac.Permission, error) {
	perm, ok := m.permissions[key]
	if !ok {
		return nil, rbac.ErrPermissionNotFound
	}
	return perm, nil
}

func (m *mockRepository) AllPermissions(_ context.Context) ([]*rbac.Permission, error) {
	perms := make([]*rbac.Permission, 0, len(m.permissions))
	for _, p := range m.permissions {
		perms = append(perms, p)
	}
	return perms, nil
}

func (m *mockRepository) CreatePermission(_ context.Context, perm *rbac.Permission) error {
	perm.ID = m.id()
	m.permissions[perm.Key] = perm
	return nil
}

func (m *mockRepository) RoleByKey(_ context.Context, key string) (*rbac.Role, error) {
	role, ok := m.roles[key]
	if !ok {
		return nil, rbac.ErrRoleNotFound
	}
	return role, nil
}

func (m *mockRepository) AllRoles(_ context.Context) ([]*rbac.Role, error) {
	roles := make([]*rbac.Role, 0, len(m.roles))
	for _, r := range m.roles {
		roles = append(roles, r)
	}
	return roles, nil
}

func (m *mockRepository) DefaultRoles(_ context.Context) ([]*rbac.Role, error) {
	var roles []*rbac.Role
	for _, r := range m.roles {
		if r.IsDefault {
			roles = append(roles, r)
		}
	}
	return roles, nil
}

func (m *mockRepository) CreateRole(_ context.Context, role *rbac.Role) error {
	role.ID = m.id()
	m.roles[role.Key] = role
	return nil
}

func (m *mockRepository) ReplaceRolePermissions(_ context.Context, roleID int64, perms []rbac.Permission) error {
	for _, role := range m.roles {
		if role.ID == roleID {
			role.Permissions = perms
			return nil
		}
	}
	return rbac.ErrRoleNotFound
}

func (m *mockRepository) AssignmentsForUser(_ context.Context, userID int64) ([]*rbac.RoleAssignment, error) {
	var out []*rbac.RoleAssignment
	for _, a := range m.assignments {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockRepository) FindAssignment(_ context.Context, userID, roleID int64, scope rbac.Scope) (*rbac.RoleAssignment, error) {
	for _, a := range m.assignments {
		if a.UserID == userID && a.RoleID == roleID && a.ScopeKind == scope.Kind && a.ScopeID == scope.ID {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockRepository) CreateAssignment(_ context.Context, assignment *rbac.RoleAssignment) error {
	assignment.ID = m.id()
	m.assignments = append(m.assignments, assignment)
	return nil
}

func (m *mockRepository) DeleteAssignment(_ context.Context, assignmentID int64) error {
	for i, a := range m.assignments {
		if a.ID == assignmentID {
			m.assignments = append(m.assignments[:i], m.assignments[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockRepository) GrantsForUser(_ context.Context, userID int64) ([]*rbac.DirectGrant, error) {
	var out []*rbac.DirectGrant
	for _, g := range m.grants {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *mockRepository) FindGrant(_ context.Context, userID, permissionID int64) (*rbac.DirectGrant, error) {
	for _, g := range m.grants {
		if g.UserID == userID && g.PermissionID == permissionID {
			return g, nil
		}
	}
	return nil, nil
}

func (m *mockRepository) CreateGrant(_ context.Context, grant *rbac.DirectGrant) error {
	grant.ID = m.id()
	m.grants = append(m.grants, grant)
	return nil
}

func (m *mockRepository) DeleteGrant(_ context.Context, userID, permissionID int64) error {
	for i, g := range m.grants {
		if g.UserID == userID && g.PermissionID == permissionID {
			m.grants = append(m.grants[:i], m.grants[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockRepository) RevocationsForUser(_ context.Context, userID int64) ([]*rbac.Revocation, error) {
	var out []*rbac.Revocation
	for _, r := range m.revocations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRepository) FindRevocation(_ context.Context, userID, permissionID int64) (*rbac.Revocation, error) {
	for _, r := range m.revocations {
		if r.UserID == userID && r.PermissionID == permissionID {
			return r, nil
		}
	}
	return nil, nil
}

func (m *mockRepository) CreateRevocation(_ context.Context, revocation *rbac.Revocation) error {
	revocation.ID = m.id()
	m.revocations = append(m.revocations, revocation)
	return nil
}

func (m *mockRepository) DeleteRevocation(_ context.Context, userID, permissionID int64) error {
	for i, r := range m.revocations {
		if r.UserID == userID && r.PermissionID == permissionID {
			m.revocations = append(m.revocations[:i], m.revocations[i+1:]...)
			return nil
		}
	}
	return nil
}

// Mock department resolver: department id -> owning university id.
type mockDepartmentResolver struct {
	owners map[int64]int64
}

func newMockDepartmentResolver() *mockDepartmentResolver {
	return &mockDepartmentResolver{owners: make(map[int64]int64)}
}

func (m *mockDepartmentResolver) UniversityOfDepartment(_ context.Context, departmentID int64) (int64, error) {
	universityID, ok := m.owners[departmentID]
	if !ok {
		return 0, rbac.ErrScopeNotFound
	}
	return universityID, nil
}

// Mock scope directory: every id below 1000 exists.
type mockScopeDirectory struct {
	missing map[rbac.Scope]bool
}

func newMockScopeDirectory() *mockScopeDirectory {
	return &mockScopeDirectory{missing: make(map[rbac.Scope]bool)}
}

func (m *mockScopeDirectory) UniversityExists(_ context.Context, id int64) (bool, error) {
	return !m.missing[rbac.UniversityScope(id)], nil
}

func (m *mockScopeDirectory) InstitutionExists(_ context.Context, id int64) (bool, error) {
	return !m.missing[rbac.InstitutionScope(id)], nil
}

func (m *mockScopeDirectory) DepartmentExists(_ context.Context, id int64) (bool, error) {
	return !m.missing[rbac.DepartmentScope(id)], nil
}
