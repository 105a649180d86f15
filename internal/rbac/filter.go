package rbac

import "context"

// ScopeFieldMapping describes which columns of an entity correspond to the
// scope dimensions. The mapping is per-entity: a Department's own primary
// key is its department-scope column, while a Job carries a separate
// department_id foreign key.
type ScopeFieldMapping struct {
	UniversityColumn  string
	InstitutionColumn string
	DepartmentColumn  string
}

// ApplyScopeFilter computes the user's accumulated scopes and returns the
// predicate a listing query must be constrained by. It is a coarse
// visibility filter for list endpoints, not a substitute for per-action
// permission checks on mutations.
func (r *Resolver) ApplyScopeFilter(ctx context.Context, userID int64, mapping ScopeFieldMapping) (Predicate, error) {
	scopes, err := r.ComputeUserScopes(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ScopePredicate(scopes, mapping), nil
}

// ScopePredicate builds the filter tree for a precomputed scope set.
// Global users pass unfiltered; unscoped users match nothing; everyone
// else gets a disjunction of whichever conditions are both configured in
// the mapping and non-empty in the scope set.
func ScopePredicate(scopes UserScopes, mapping ScopeFieldMapping) Predicate {
	if scopes.Global {
		return All{}
	}
	if scopes.Empty() {
		return None{}
	}

	var predicates []Predicate
	if mapping.UniversityColumn != "" && len(scopes.UniversityIDs) > 0 {
		predicates = append(predicates, In{Column: mapping.UniversityColumn, IDs: scopes.UniversityIDs})
	}
	if mapping.InstitutionColumn != "" && len(scopes.InstitutionIDs) > 0 {
		predicates = append(predicates, In{Column: mapping.InstitutionColumn, IDs: scopes.InstitutionIDs})
	}
	if mapping.DepartmentColumn != "" && len(scopes.DepartmentIDs) > 0 {
		predicates = append(predicates, In{Column: mapping.DepartmentColumn, IDs: scopes.DepartmentIDs})
	}
	if mapping.DepartmentColumn != "" && len(scopes.UniversityIDs) > 0 {
		predicates = append(predicates, InDepartmentsOf{
			Column:        mapping.DepartmentColumn,
			UniversityIDs: scopes.UniversityIDs,
		})
	}

	// Nothing applicable: the mapping gives us no column to filter on, so
	// fail closed.
	if len(predicates) == 0 {
		return None{}
	}
	if len(predicates) == 1 {
		return predicates[0]
	}
	return Or{Predicates: predicates}
}
