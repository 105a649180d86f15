package rbac

import "fmt"

// ScopeKind enumerates the organizational levels a role assignment can be
// bound to. The empty kind means global reach.
type ScopeKind string

const (
	ScopeKindGlobal      ScopeKind = ""
	ScopeKindUniversity  ScopeKind = "university"
	ScopeKindInstitution ScopeKind = "institution"
	ScopeKindDepartment  ScopeKind = "department"
)

// Scope is a tagged union over exactly one organizational boundary, or
// nothing at all. Using a single kind+id pair keeps "two ids set at once"
// unrepresentable.
type Scope struct {
	Kind ScopeKind `json:"kind"`
	ID   int64     `json:"id"`
}

func GlobalScope() Scope {
	return Scope{}
}

func UniversityScope(id int64) Scope {
	return Scope{Kind: ScopeKindUniversity, ID: id}
}

func InstitutionScope(id int64) Scope {
	return Scope{Kind: ScopeKindInstitution, ID: id}
}

func DepartmentScope(id int64) Scope {
	return Scope{Kind: ScopeKindDepartment, ID: id}
}

func (s Scope) IsGlobal() bool {
	return s.Kind == ScopeKindGlobal
}

func (s Scope) String() string {
	if s.IsGlobal() {
		return "global"
	}
	return fmt.Sprintf("%s:%d", s.Kind, s.ID)
}

// Valid reports whether the scope is well-formed: global scopes carry no
// id, every other kind requires one.
func (s Scope) Valid() bool {
	switch s.Kind {
	case ScopeKindGlobal:
		return s.ID == 0
	case ScopeKindUniversity, ScopeKindInstitution, ScopeKindDepartment:
		return s.ID > 0
	default:
		return false
	}
}

// Covers reports whether this scope satisfies a required scope without any
// hierarchy lookups: global covers everything, otherwise kind and id must
// match exactly. The university-to-department containment hop needs a
// store lookup and lives on the Resolver.
func (s Scope) Covers(required Scope) bool {
	if s.IsGlobal() {
		return true
	}
	return s.Kind == required.Kind && s.ID == required.ID
}

// UserScopes is the precomputed union of all scopes a user's active role
// assignments cover, used for bulk list filtering.
type UserScopes struct {
	Global         bool    `json:"global"`
	UniversityIDs  []int64 `json:"university_ids"`
	InstitutionIDs []int64 `json:"institution_ids"`
	DepartmentIDs  []int64 `json:"department_ids"`
}

// Empty reports whether the user holds no scope of any kind and is not
// global. Such users see nothing in scope-filtered listings.
func (u UserScopes) Empty() bool {
	return !u.Global &&
		len(u.UniversityIDs) == 0 &&
		len(u.InstitutionIDs) == 0 &&
		len(u.DepartmentIDs) == 0
}

func (u *UserScopes) add(s Scope) {
	switch s.Kind {
	case ScopeKindUniversity:
		u.UniversityIDs = appendUnique(u.UniversityIDs, s.ID)
	case ScopeKindInstitution:
		u.InstitutionIDs = appendUnique(u.InstitutionIDs, s.ID)
	case ScopeKindDepartment:
		u.DepartmentIDs = appendUnique(u.DepartmentIDs, s.ID)
	}
}

func appendUnique(ids []int64, id int64) []int64 {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
