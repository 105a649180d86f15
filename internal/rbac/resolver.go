package rbac

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"
)

// Resolver computes effective permission sets and answers scoped
// authorization queries. It is read-only; mutations live on Service.
type Resolver struct {
	repo        Repository
	departments DepartmentResolver
	logger      *slog.Logger
	now         func() time.Time
}

func NewResolver(repo Repository, departments DepartmentResolver, logger *slog.Logger) *Resolver {
	return &Resolver{
		repo:        repo,
		departments: departments,
		logger:      logger,
		now:         time.Now,
	}
}

// ComputeEffectivePermissions derives the full permission key set a user
// holds: role bundles unioned first, then direct grants, then revocations
// subtracted. The order is a correctness requirement, not an optimization.
func (r *Resolver) ComputeEffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	exists, err := r.repo.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	now := r.now()
	effective := make(map[string]struct{})

	assignments, err := r.repo.AssignmentsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, assignment := range assignments {
		if assignment.Expired(now) || assignment.Role == nil {
			continue
		}
		if assignment.Role.IsSuperRole {
			all, err := r.repo.AllPermissions(ctx)
			if err != nil {
				return nil, err
			}
			for _, perm := range all {
				effective[perm.Key] = struct{}{}
			}
			continue
		}
		for _, perm := range assignment.Role.Permissions {
			effective[perm.Key] = struct{}{}
		}
	}

	grants, err := r.repo.GrantsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, grant := range grants {
		if grant.Expired(now) || grant.Permission == nil {
			continue
		}
		effective[grant.Permission.Key] = struct{}{}
	}

	// Revocations last: they win over every grant path and never expire.
	revocations, err := r.repo.RevocationsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, revocation := range revocations {
		if revocation.Permission == nil {
			continue
		}
		delete(effective, revocation.Permission.Key)
	}

	keys := make([]string, 0, len(effective))
	for key := range effective {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// HasPermission answers a single scoped authorization question with fixed
// precedence: revocation denies absolutely, a live direct grant allows
// globally, otherwise any active role assignment whose role carries the
// key and whose scope matches the requirement allows.
func (r *Resolver) HasPermission(ctx context.Context, userID int64, permissionKey string, required Scope) (bool, error) {
	perm, err := r.repo.PermissionByKey(ctx, permissionKey)
	if err != nil {
		if errors.Is(err, ErrPermissionNotFound) {
			// Unregistered keys contribute nothing rather than erroring,
			// keeping checks resilient to stale seed data.
			return false, nil
		}
		return false, err
	}

	revocation, err := r.repo.FindRevocation(ctx, userID, perm.ID)
	if err != nil {
		return false, err
	}
	if revocation != nil {
		return false, nil
	}

	now := r.now()

	grant, err := r.repo.FindGrant(ctx, userID, perm.ID)
	if err != nil {
		return false, err
	}
	if grant != nil && !grant.Expired(now) {
		// Direct grants bypass scope matching entirely; they exist as an
		// override mechanism for one-off exceptions.
		return true, nil
	}

	assignments, err := r.repo.AssignmentsForUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, assignment := range assignments {
		if assignment.Expired(now) || assignment.Role == nil {
			continue
		}
		if !assignment.Role.HasPermissionKey(permissionKey) {
			continue
		}
		matches, err := r.scopeMatches(ctx, assignment.Scope(), required)
		if err != nil {
			return false, err
		}
		if matches {
			return true, nil
		}
	}

	return false, nil
}

// scopeMatches extends Scope.Covers with the containment rule: a
// university-scoped assignment reaches every department that university
// owns. Institution containment under university is intentionally not
// modeled.
func (r *Resolver) scopeMatches(ctx context.Context, have, required Scope) (bool, error) {
	if have.Covers(required) {
		return true, nil
	}
	if have.Kind == ScopeKindUniversity && required.Kind == ScopeKindDepartment {
		universityID, err := r.departments.UniversityOfDepartment(ctx, required.ID)
		if err != nil {
			if errors.Is(err, ErrScopeNotFound) {
				return false, nil
			}
			return false, err
		}
		return universityID == have.ID, nil
	}
	return false, nil
}

// ComputeUserScopes precomputes the union of all scopes the user's active
// assignments cover. A single global assignment short-circuits everything:
// the result is marked global with all id sets empty.
func (r *Resolver) ComputeUserScopes(ctx context.Context, userID int64) (UserScopes, error) {
	assignments, err := r.repo.AssignmentsForUser(ctx, userID)
	if err != nil {
		return UserScopes{}, err
	}

	now := r.now()
	var scopes UserScopes
	for _, assignment := range assignments {
		if assignment.Expired(now) {
			continue
		}
		scope := assignment.Scope()
		if scope.IsGlobal() {
			return UserScopes{Global: true}, nil
		}
		scopes.add(scope)
	}

	return scopes, nil
}
