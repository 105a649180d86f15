package postgres

import (
	"context"
	"errors"

	"github.com/campuslink/campuslink/internal/rbac"
	"gorm.io/gorm"
)

// RBACRepository implements rbac.Repository using GORM.
type RBACRepository struct {
	db *gorm.DB
}

func NewRBACRepository(db *gorm.DB) rbac.Repository {
	return &RBACRepository{db: db}
}

func (r *RBACRepository) UserExists(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("users").
		Where("id = ?", userID).
		Count(&count).Error
	return count > 0, err
}

func (r *RBACRepository) PermissionByKey(ctx context.Context, key string) (*rbac.Permission, error) {
	var perm rbac.Permission
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&perm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rbac.ErrPermissionNotFound
		}
		return nil, err
	}
	return &perm, nil
}

func (r *RBACRepository) AllPermissions(ctx context.Context) ([]*rbac.Permission, error) {
	var perms []*rbac.Permission
	err := r.db.WithContext(ctx).Order("module, key").Find(&perms).Error
	return perms, err
}

func (r *RBACRepository) CreatePermission(ctx context.Context, perm *rbac.Permission) error {
	return r.db.WithContext(ctx).Create(perm).Error
}

func (r *RBACRepository) RoleByKey(ctx context.Context, key string) (*rbac.Role, error) {
	var role rbac.Role
	err := r.db.WithContext(ctx).
		Preload("Permissions").
		Where("key = ?", key).
		First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rbac.ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *RBACRepository) AllRoles(ctx context.Context) ([]*rbac.Role, error) {
	var roles []*rbac.Role
	err := r.db.WithContext(ctx).
		Preload("Permissions").
		Order("level DESC, key").
		Find(&roles).Error
	return roles, err
}

func (r *RBACRepository) DefaultRoles(ctx context.Context) ([]*rbac.Role, error) {
	var roles []*rbac.Role
	err := r.db.WithContext(ctx).
		Where("is_default = ?", true).
		Find(&roles).Error
	return roles, err
}

func (r *RBACRepository) CreateRole(ctx context.Context, role *rbac.Role) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *RBACRepository) ReplaceRolePermissions(ctx context.Context, roleID int64, perms []rbac.Permission) error {
	role := rbac.Role{ID: roleID}
	return r.db.WithContext(ctx).Model(&role).Association("Permissions").Replace(perms)
}

func (r *RBACRepository) AssignmentsForUser(ctx context.Context, userID int64) ([]*rbac.RoleAssignment, error) {
	var assignments []*rbac.RoleAssignment
	err := r.db.WithContext(ctx).
		Preload("Role").
		Preload("Role.Permissions").
		Where("user_id = ?", userID).
		Find(&assignments).Error
	return assignments, err
}

func (r *RBACRepository) FindAssignment(ctx context.Context, userID, roleID int64, scope rbac.Scope) (*rbac.RoleAssignment, error) {
	var assignment rbac.RoleAssignment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ? AND scope_kind = ? AND scope_id = ?",
			userID, roleID, scope.Kind, scope.ID).
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &assignment, nil
}

func (r *RBACRepository) CreateAssignment(ctx context.Context, assignment *rbac.RoleAssignment) error {
	return r.db.WithContext(ctx).Omit("Role").Create(assignment).Error
}

func (r *RBACRepository) DeleteAssignment(ctx context.Context, assignmentID int64) error {
	return r.db.WithContext(ctx).Delete(&rbac.RoleAssignment{}, assignmentID).Error
}

func (r *RBACRepository) GrantsForUser(ctx context.Context, userID int64) ([]*rbac.DirectGrant, error) {
	var grants []*rbac.DirectGrant
	err := r.db.WithContext(ctx).
		Preload("Permission").
		Where("user_id = ?", userID).
		Find(&grants).Error
	return grants, err
}

func (r *RBACRepository) FindGrant(ctx context.Context, userID, permissionID int64) (*rbac.DirectGrant, error) {
	var grant rbac.DirectGrant
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND permission_id = ?", userID, permissionID).
		First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &grant, nil
}

func (r *RBACRepository) CreateGrant(ctx context.Context, grant *rbac.DirectGrant) error {
	return r.db.WithContext(ctx).Omit("Permission").Create(grant).Error
}

func (r *RBACRepository) DeleteGrant(ctx context.Context, userID, permissionID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND permission_id = ?", userID, permissionID).
		Delete(&rbac.DirectGrant{}).Error
}

func (r *RBACRepository) RevocationsForUser(ctx context.Context, userID int64) ([]*rbac.Revocation, error) {
	var revocations []*rbac.Revocation
	err := r.db.WithContext(ctx).
		Preload("Permission").
		Where("user_id = ?", userID).
		Find(&revocations).Error
	return revocations, err
}

func (r *RBACRepository) FindRevocation(ctx context.Context, userID, permissionID int64) (*rbac.Revocation, error) {
	var revocation rbac.Revocation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND permission_id = ?", userID, permissionID).
		First(&revocation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &revocation, nil
}

func (r *RBACRepository) CreateRevocation(ctx context.Context, revocation *rbac.Revocation) error {
	return r.db.WithContext(ctx).Omit("Permission").Create(revocation).Error
}

func (r *RBACRepository) DeleteRevocation(ctx context.Context, userID, permissionID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND permission_id = ?", userID, permissionID).
		Delete(&rbac.Revocation{}).Error
}
