package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// keyedMutex serializes mutations per (user, permission) pair so the
// grant/revocation mutual-exclusion invariant cannot be raced. No
// cross-user locking is needed.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// RoleAssignmentSpec is the desired-state shape used by role sync.
// Assignments are identified by the composite (role key, scope).
type RoleAssignmentSpec struct {
	RoleKey   string
	Scope     Scope
	ExpiresAt *time.Time
}

// Service owns all mutations of the grant graph: direct grants,
// revocations, role assignments and the role-permission matrix.
type Service struct {
	repo      Repository
	directory ScopeDirectory
	logger    *slog.Logger
	grantLock *keyedMutex
}

func NewService(repo Repository, directory ScopeDirectory, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		logger:    logger,
		grantLock: newKeyedMutex(),
	}
}

// GrantPermission gives a user a permission directly, outside any role.
// Any standing revocation for the pair is cleared first; granting an
// already-granted permission is a conflict.
func (s *Service) GrantPermission(ctx context.Context, userID int64, permissionKey string, expiresAt *time.Time) (*DirectGrant, error) {
	perm, err := s.resolveUserAndPermission(ctx, userID, permissionKey)
	if err != nil {
		return nil, err
	}

	unlock := s.grantLock.lock(grantKey(userID, permissionKey))
	defer unlock()

	if err := s.repo.DeleteRevocation(ctx, userID, perm.ID); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindGrant(ctx, userID, perm.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrGrantExists
	}

	grant := &DirectGrant{
		UserID:       userID,
		PermissionID: perm.ID,
		Permission:   perm,
		ExpiresAt:    expiresAt,
		CreatedAt:    time.Now(),
	}
	if err := s.repo.CreateGrant(ctx, grant); err != nil {
		return nil, err
	}

	s.logger.Info("permission granted directly",
		"user_id", userID,
		"permission", permissionKey,
		"expires_at", expiresAt)
	return grant, nil
}

// RevokePermission denies a user a permission regardless of how it was
// obtained. Any standing direct grant for the pair is cleared first.
func (s *Service) RevokePermission(ctx context.Context, userID int64, permissionKey string, reason *string) (*Revocation, error) {
	perm, err := s.resolveUserAndPermission(ctx, userID, permissionKey)
	if err != nil {
		return nil, err
	}

	unlock := s.grantLock.lock(grantKey(userID, permissionKey))
	defer unlock()

	if err := s.repo.DeleteGrant(ctx, userID, perm.ID); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindRevocation(ctx, userID, perm.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyRevoked
	}

	revocation := &Revocation{
		UserID:       userID,
		PermissionID: perm.ID,
		Permission:   perm,
		Reason:       reason,
		CreatedAt:    time.Now(),
	}
	if err := s.repo.CreateRevocation(ctx, revocation); err != nil {
		return nil, err
	}

	s.logger.Info("permission revoked",
		"user_id", userID,
		"permission", permissionKey)
	return revocation, nil
}

// RemoveGrant deletes a direct grant without creating a revocation.
func (s *Service) RemoveGrant(ctx context.Context, userID int64, permissionKey string) error {
	perm, err := s.resolveUserAndPermission(ctx, userID, permissionKey)
	if err != nil {
		return err
	}

	unlock := s.grantLock.lock(grantKey(userID, permissionKey))
	defer unlock()

	return s.repo.DeleteGrant(ctx, userID, perm.ID)
}

// RemoveRevocation lifts a revocation without granting anything.
func (s *Service) RemoveRevocation(ctx context.Context, userID int64, permissionKey string) error {
	perm, err := s.resolveUserAndPermission(ctx, userID, permissionKey)
	if err != nil {
		return err
	}

	unlock := s.grantLock.lock(grantKey(userID, permissionKey))
	defer unlock()

	return s.repo.DeleteRevocation(ctx, userID, perm.ID)
}

// SyncDirectGrants reconciles the user's direct grants to exactly the
// given key set: missing grants are added (clearing matching revocations),
// grants outside the set are deleted. Unknown keys abort the whole
// operation before any write.
func (s *Service) SyncDirectGrants(ctx context.Context, userID int64, permissionKeys []string) ([]*DirectGrant, error) {
	perms, err := s.resolveUserAndPermissions(ctx, userID, permissionKeys)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.GrantsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	desired := make(map[int64]*Permission, len(perms))
	for _, perm := range perms {
		desired[perm.ID] = perm
	}

	kept := make([]*DirectGrant, 0, len(perms))
	for _, grant := range current {
		if _, want := desired[grant.PermissionID]; want {
			delete(desired, grant.PermissionID)
			kept = append(kept, grant)
			continue
		}
		key := permissionKeyOf(grant.Permission, grant.PermissionID)
		unlock := s.grantLock.lock(grantKey(userID, key))
		err := s.repo.DeleteGrant(ctx, userID, grant.PermissionID)
		unlock()
		if err != nil {
			return nil, err
		}
	}

	for _, perm := range desired {
		unlock := s.grantLock.lock(grantKey(userID, perm.Key))
		if err := s.repo.DeleteRevocation(ctx, userID, perm.ID); err != nil {
			unlock()
			return nil, err
		}
		grant := &DirectGrant{
			UserID:       userID,
			PermissionID: perm.ID,
			Permission:   perm,
			CreatedAt:    time.Now(),
		}
		err := s.repo.CreateGrant(ctx, grant)
		unlock()
		if err != nil {
			return nil, err
		}
		kept = append(kept, grant)
	}

	s.logger.Info("direct grants synced", "user_id", userID, "count", len(kept))
	return kept, nil
}

// SyncRevocations reconciles the user's revocations to exactly the given
// key set, clearing direct grants for newly revoked keys.
func (s *Service) SyncRevocations(ctx context.Context, userID int64, permissionKeys []string) ([]*Revocation, error) {
	perms, err := s.resolveUserAndPermissions(ctx, userID, permissionKeys)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.RevocationsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	desired := make(map[int64]*Permission, len(perms))
	for _, perm := range perms {
		desired[perm.ID] = perm
	}

	kept := make([]*Revocation, 0, len(perms))
	for _, revocation := range current {
		if _, want := desired[revocation.PermissionID]; want {
			delete(desired, revocation.PermissionID)
			kept = append(kept, revocation)
			continue
		}
		key := permissionKeyOf(revocation.Permission, revocation.PermissionID)
		unlock := s.grantLock.lock(grantKey(userID, key))
		err := s.repo.DeleteRevocation(ctx, userID, revocation.PermissionID)
		unlock()
		if err != nil {
			return nil, err
		}
	}

	for _, perm := range desired {
		unlock := s.grantLock.lock(grantKey(userID, perm.Key))
		if err := s.repo.DeleteGrant(ctx, userID, perm.ID); err != nil {
			unlock()
			return nil, err
		}
		revocation := &Revocation{
			UserID:       userID,
			PermissionID: perm.ID,
			Permission:   perm,
			CreatedAt:    time.Now(),
		}
		err := s.repo.CreateRevocation(ctx, revocation)
		unlock()
		if err != nil {
			return nil, err
		}
		kept = append(kept, revocation)
	}

	s.logger.Info("revocations synced", "user_id", userID, "count", len(kept))
	return kept, nil
}

// AssignRole binds a role to a user within one scope. The scope entity
// must exist; assigning the exact same (role, scope) twice is a conflict.
func (s *Service) AssignRole(ctx context.Context, userID int64, roleKey string, scope Scope, expiresAt *time.Time) (*RoleAssignment, error) {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	role, err := s.repo.RoleByKey(ctx, roleKey)
	if err != nil {
		return nil, err
	}

	if err := s.validateScope(ctx, scope); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindAssignment(ctx, userID, role.ID, scope)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAssignmentExists
	}

	assignment := &RoleAssignment{
		UserID:    userID,
		RoleID:    role.ID,
		Role:      role,
		ScopeKind: scope.Kind,
		ScopeID:   scope.ID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateAssignment(ctx, assignment); err != nil {
		return nil, err
	}

	s.logger.Info("role assigned",
		"user_id", userID,
		"role", roleKey,
		"scope", scope.String())
	return assignment, nil
}

// RemoveRole deletes the assignment identified by (role key, scope).
func (s *Service) RemoveRole(ctx context.Context, userID int64, roleKey string, scope Scope) error {
	role, err := s.repo.RoleByKey(ctx, roleKey)
	if err != nil {
		return err
	}

	assignment, err := s.repo.FindAssignment(ctx, userID, role.ID, scope)
	if err != nil {
		return err
	}
	if assignment == nil {
		return ErrAssignmentNotFound
	}

	return s.repo.DeleteAssignment(ctx, assignment.ID)
}

// SyncRoleAssignments reconciles the user's assignments to the desired
// list. Identity is the composite (role key, scope kind, scope id):
// assignments outside the desired set are removed, missing ones added.
func (s *Service) SyncRoleAssignments(ctx context.Context, userID int64, desired []RoleAssignmentSpec) ([]*RoleAssignment, error) {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	for _, spec := range desired {
		if !spec.Scope.Valid() {
			return nil, ErrInvalidScope
		}
		if _, err := s.repo.RoleByKey(ctx, spec.RoleKey); err != nil {
			return nil, err
		}
	}

	current, err := s.repo.AssignmentsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]RoleAssignmentSpec, len(desired))
	for _, spec := range desired {
		wanted[assignmentKey(spec.RoleKey, spec.Scope)] = spec
	}

	kept := make([]*RoleAssignment, 0, len(desired))
	for _, assignment := range current {
		if assignment.Role == nil {
			continue
		}
		key := assignmentKey(assignment.Role.Key, assignment.Scope())
		if _, want := wanted[key]; want {
			delete(wanted, key)
			kept = append(kept, assignment)
			continue
		}
		if err := s.repo.DeleteAssignment(ctx, assignment.ID); err != nil {
			return nil, err
		}
	}

	for _, spec := range wanted {
		assignment, err := s.AssignRole(ctx, userID, spec.RoleKey, spec.Scope, spec.ExpiresAt)
		if err != nil {
			return nil, err
		}
		kept = append(kept, assignment)
	}

	s.logger.Info("role assignments synced", "user_id", userID, "count", len(kept))
	return kept, nil
}

// AssignDefaultRoles gives a freshly created user every role flagged as
// default, globally scoped. Called by the user service on registration.
func (s *Service) AssignDefaultRoles(ctx context.Context, userID int64) error {
	roles, err := s.repo.DefaultRoles(ctx)
	if err != nil {
		return err
	}
	for _, role := range roles {
		_, err := s.AssignRole(ctx, userID, role.Key, GlobalScope(), nil)
		if err != nil && !errors.Is(err, ErrAssignmentExists) {
			return err
		}
	}
	return nil
}

// ----- role / permission catalog management -----

func (s *Service) ListPermissions(ctx context.Context) ([]*Permission, error) {
	return s.repo.AllPermissions(ctx)
}

func (s *Service) ListRoles(ctx context.Context) ([]*Role, error) {
	return s.repo.AllRoles(ctx)
}

func (s *Service) CreateRole(ctx context.Context, role *Role) (*Role, error) {
	existing, err := s.repo.RoleByKey(ctx, role.Key)
	if err != nil && !errors.Is(err, ErrRoleNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrRoleExists
	}

	now := time.Now()
	role.CreatedAt = now
	role.UpdatedAt = now
	if err := s.repo.CreateRole(ctx, role); err != nil {
		return nil, err
	}

	s.logger.Info("role created", "role", role.Key, "level", role.Level)
	return role, nil
}

// SetRolePermissions replaces a role's permission bundle with exactly the
// given keys.
func (s *Service) SetRolePermissions(ctx context.Context, roleKey string, permissionKeys []string) (*Role, error) {
	role, err := s.repo.RoleByKey(ctx, roleKey)
	if err != nil {
		return nil, err
	}

	perms := make([]Permission, 0, len(permissionKeys))
	for _, key := range permissionKeys {
		perm, err := s.repo.PermissionByKey(ctx, key)
		if err != nil {
			return nil, err
		}
		perms = append(perms, *perm)
	}

	if err := s.repo.ReplaceRolePermissions(ctx, role.ID, perms); err != nil {
		return nil, err
	}
	role.Permissions = perms

	s.logger.Info("role permissions replaced", "role", roleKey, "count", len(perms))
	return role, nil
}

// ----- helpers -----

func (s *Service) resolveUserAndPermission(ctx context.Context, userID int64, permissionKey string) (*Permission, error) {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}
	return s.repo.PermissionByKey(ctx, permissionKey)
}

func (s *Service) resolveUserAndPermissions(ctx context.Context, userID int64, permissionKeys []string) ([]*Permission, error) {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	perms := make([]*Permission, 0, len(permissionKeys))
	for _, key := range permissionKeys {
		perm, err := s.repo.PermissionByKey(ctx, key)
		if err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, nil
}

func (s *Service) validateScope(ctx context.Context, scope Scope) error {
	if !scope.Valid() {
		return ErrInvalidScope
	}

	var (
		exists bool
		err    error
	)
	switch scope.Kind {
	case ScopeKindGlobal:
		return nil
	case ScopeKindUniversity:
		exists, err = s.directory.UniversityExists(ctx, scope.ID)
	case ScopeKindInstitution:
		exists, err = s.directory.InstitutionExists(ctx, scope.ID)
	case ScopeKindDepartment:
		exists, err = s.directory.DepartmentExists(ctx, scope.ID)
	}
	if err != nil {
		return err
	}
	if !exists {
		return ErrScopeNotFound
	}
	return nil
}

func grantKey(userID int64, permissionKey string) string {
	return fmt.Sprintf("%d:%s", userID, permissionKey)
}

func assignmentKey(roleKey string, scope Scope) string {
	return fmt.Sprintf("%s|%s|%d", roleKey, scope.Kind, scope.ID)
}

func permissionKeyOf(perm *Permission, id int64) string {
	if perm != nil {
		return perm.Key
	}
	return fmt.Sprintf("#%d", id)
}
