// Package gormadapter translates the storage-neutral predicate trees
// produced by the rbac scope rewriter into GORM query conditions.
package gormadapter

import (
	"fmt"
	"strings"

	"github.com/campuslink/campuslink/internal/rbac"
	"gorm.io/gorm"
)

// Apply constrains a query by a scope predicate. Column names in the tree
// come from per-entity ScopeFieldMapping configuration, never from request
// input, so interpolating them is safe.
func Apply(db *gorm.DB, predicate rbac.Predicate) *gorm.DB {
	switch predicate.(type) {
	case rbac.All:
		return db
	case nil:
		return db.Where("1 = 0")
	}

	sql, args := compile(predicate)
	if sql == "" {
		return db.Where("1 = 0")
	}
	return db.Where(sql, args...)
}

func compile(predicate rbac.Predicate) (string, []any) {
	switch p := predicate.(type) {
	case rbac.All:
		return "1 = 1", nil
	case rbac.None:
		return "1 = 0", nil
	case rbac.In:
		return fmt.Sprintf("%s IN ?", p.Column), []any{p.IDs}
	case rbac.InDepartmentsOf:
		return fmt.Sprintf("%s IN (SELECT id FROM departments WHERE university_id IN ?)", p.Column),
			[]any{p.UniversityIDs}
	case rbac.Or:
		return compileJunction(p.Predicates, " OR ")
	case rbac.And:
		return compileJunction(p.Predicates, " AND ")
	default:
		return "", nil
	}
}

func compileJunction(predicates []rbac.Predicate, separator string) (string, []any) {
	var (
		parts []string
		args  []any
	)
	for _, child := range predicates {
		sql, childArgs := compile(child)
		if sql == "" {
			continue
		}
		parts = append(parts, sql)
		args = append(args, childArgs...)
	}
	if len(parts) == 0 {
		return "", nil
	}
	if len(parts) == 1 {
		return parts[0], args
	}
	return "(" + strings.Join(parts, separator) + ")", args
}
