package rbac

import (
	"context"
	"errors"
	"time"
)

// Permission is a unique capability key such as "job:create", grouped by
// module for display purposes. Permissions themselves are never scoped;
// scope attaches to the assignment or grant that carries them.
type Permission struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Key         string    `json:"key" gorm:"uniqueIndex;not null"`
	DisplayName string    `json:"display_name" gorm:"column:display_name"`
	Module      string    `json:"module"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (Permission) TableName() string {
	return "permissions"
}

// Role is a named bundle of permissions. Level is an informational
// hierarchy weight and is not enforced by the resolver. IsSuperRole marks
// a role as granting every registered permission; IsDefault marks roles
// auto-assigned to newly created users.
type Role struct {
	ID          int64        `json:"id" gorm:"primaryKey"`
	Key         string       `json:"key" gorm:"uniqueIndex;not null"`
	Name        string       `json:"name" gorm:"not null"`
	Description string       `json:"description"`
	Level       int          `json:"level"`
	ScopeLabel  string       `json:"scope_label" gorm:"column:scope_label"`
	IsDefault   bool         `json:"is_default" gorm:"column:is_default;default:false"`
	IsSuperRole bool         `json:"is_super_role" gorm:"column:is_super_role;default:false"`
	Permissions []Permission `json:"permissions,omitempty" gorm:"many2many:role_permissions"`
	CreatedAt   time.Time    `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Role) TableName() string {
	return "roles"
}

// HasPermissionKey reports whether the role's bundle contains the key.
// Super roles hold every permission implicitly.
func (r *Role) HasPermissionKey(key string) bool {
	if r.IsSuperRole {
		return true
	}
	for _, p := range r.Permissions {
		if p.Key == key {
			return true
		}
	}
	return false
}

// RoleAssignment binds a user to a role within at most one scope.
// ScopeKind/ScopeID of (global, 0) means the assignment is unscoped and
// reaches everything.
type RoleAssignment struct {
	ID        int64      `json:"id" gorm:"primaryKey"`
	UserID    int64      `json:"user_id" gorm:"column:user_id;not null;index"`
	RoleID    int64      `json:"role_id" gorm:"column:role_id;not null"`
	Role      *Role      `json:"role,omitempty" gorm:"foreignKey:RoleID"`
	ScopeKind ScopeKind  `json:"scope_kind" gorm:"column:scope_kind;default:''"`
	ScopeID   int64      `json:"scope_id" gorm:"column:scope_id;default:0"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" gorm:"column:expires_at"`
	CreatedAt time.Time  `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (RoleAssignment) TableName() string {
	return "role_assignments"
}

// Scope returns the assignment's scope as a value type.
func (a *RoleAssignment) Scope() Scope {
	return Scope{Kind: a.ScopeKind, ID: a.ScopeID}
}

// Expired reports whether the assignment has an expiration in the past.
// Expiry is evaluated at read time; rows are never purged eagerly.
func (a *RoleAssignment) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && a.ExpiresAt.Before(now)
}

// DirectGrant gives a user a permission outside of any role. Direct grants
// are always global; scoping them is deliberately unsupported.
type DirectGrant struct {
	ID           int64       `json:"id" gorm:"primaryKey"`
	UserID       int64       `json:"user_id" gorm:"column:user_id;not null;index"`
	PermissionID int64       `json:"permission_id" gorm:"column:permission_id;not null"`
	Permission   *Permission `json:"permission,omitempty" gorm:"foreignKey:PermissionID"`
	ExpiresAt    *time.Time  `json:"expires_at,omitempty" gorm:"column:expires_at"`
	CreatedAt    time.Time   `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (DirectGrant) TableName() string {
	return "direct_grants"
}

func (g *DirectGrant) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && g.ExpiresAt.Before(now)
}

// Revocation is an explicit denial of one permission to one user. It
// overrides every grant path and has no expiration.
type Revocation struct {
	ID           int64       `json:"id" gorm:"primaryKey"`
	UserID       int64       `json:"user_id" gorm:"column:user_id;not null;index"`
	PermissionID int64       `json:"permission_id" gorm:"column:permission_id;not null"`
	Permission   *Permission `json:"permission,omitempty" gorm:"foreignKey:PermissionID"`
	Reason       *string     `json:"reason,omitempty"`
	CreatedAt    time.Time   `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (Revocation) TableName() string {
	return "revocations"
}

// Repository is the persistence surface the resolver and the grant
// mutators depend on. Implementations live under rbac/postgres.
type Repository interface {
	UserExists(ctx context.Context, userID int64) (bool, error)

	PermissionByKey(ctx context.Context, key string) (*Permission, error)
	AllPermissions(ctx context.Context) ([]*Permission, error)
	CreatePermission(ctx context.Context, perm *Permission) error

	RoleByKey(ctx context.Context, key string) (*Role, error)
	AllRoles(ctx context.Context) ([]*Role, error)
	DefaultRoles(ctx context.Context) ([]*Role, error)
	CreateRole(ctx context.Context, role *Role) error
	ReplaceRolePermissions(ctx context.Context, roleID int64, perms []Permission) error

	AssignmentsForUser(ctx context.Context, userID int64) ([]*RoleAssignment, error)
	FindAssignment(ctx context.Context, userID, roleID int64, scope Scope) (*RoleAssignment, error)
	CreateAssignment(ctx context.Context, assignment *RoleAssignment) error
	DeleteAssignment(ctx context.Context, assignmentID int64) error

	GrantsForUser(ctx context.Context, userID int64) ([]*DirectGrant, error)
	FindGrant(ctx context.Context, userID, permissionID int64) (*DirectGrant, error)
	CreateGrant(ctx context.Context, grant *DirectGrant) error
	DeleteGrant(ctx context.Context, userID, permissionID int64) error

	RevocationsForUser(ctx context.Context, userID int64) ([]*Revocation, error)
	FindRevocation(ctx context.Context, userID, permissionID int64) (*Revocation, error)
	CreateRevocation(ctx context.Context, revocation *Revocation) error
	DeleteRevocation(ctx context.Context, userID, permissionID int64) error
}

// DepartmentResolver answers the single-hop containment question used by
// hierarchical scope matching: which university owns a department.
type DepartmentResolver interface {
	UniversityOfDepartment(ctx context.Context, departmentID int64) (int64, error)
}

// ScopeDirectory validates that the entity a scope points at exists.
// Implemented by the university package's repository.
type ScopeDirectory interface {
	UniversityExists(ctx context.Context, id int64) (bool, error)
	InstitutionExists(ctx context.Context, id int64) (bool, error)
	DepartmentExists(ctx context.Context, id int64) (bool, error)
}

// Domain errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrRoleNotFound       = errors.New("role not found")
	ErrPermissionNotFound = errors.New("permission not found")
	ErrScopeNotFound      = errors.New("scope entity not found")
	ErrGrantExists        = errors.New("permission already granted to user")
	ErrAlreadyRevoked     = errors.New("permission already revoked for user")
	ErrAssignmentExists   = errors.New("role already assigned to user in this scope")
	ErrAssignmentNotFound = errors.New("role assignment not found")
	ErrRoleExists         = errors.New("role with this key already exists")
	ErrInvalidScope       = errors.New("invalid scope")
)
