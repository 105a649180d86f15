package rbac

// Predicate is a storage-neutral filter tree produced by the scope
// rewriter. Adapters (rbac/gormadapter) translate it into a concrete
// query; the core never touches an ORM, which keeps it testable without a
// database.
type Predicate interface {
	isPredicate()
}

// All matches every row: the user has global visibility.
type All struct{}

// None matches no rows: the contradiction predicate for authenticated but
// unscoped users, who should see nothing rather than error.
type None struct{}

// In constrains a column to a set of ids.
type In struct {
	Column string
	IDs    []int64
}

// InDepartmentsOf constrains a department column to the departments owned
// by a set of universities. This mirrors hierarchical scope coverage at
// the bulk-query level so university admins see child-department rows
// without per-row permission checks.
type InDepartmentsOf struct {
	Column        string
	UniversityIDs []int64
}

// Or is a disjunction of sub-predicates.
type Or struct {
	Predicates []Predicate
}

// And is a conjunction of sub-predicates.
type And struct {
	Predicates []Predicate
}

func (All) isPredicate()             {}
func (None) isPredicate()            {}
func (In) isPredicate()              {}
func (InDepartmentsOf) isPredicate() {}
func (Or) isPredicate()              {}
func (And) isPredicate()             {}
