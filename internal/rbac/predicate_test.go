package rbac_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/campuslink/campuslink/internal/rbac"
)

var _ = Describe("ScopePredicate", func() {
	mapping := rbac.ScopeFieldMapping{
		UniversityColumn: "university_id",
		DepartmentColumn: "department_id",
	}

	It("passes global users through unfiltered", func() {
		pred := rbac.ScopePredicate(rbac.UserScopes{Global: true}, mapping)
		Expect(pred).To(Equal(rbac.All{}))
	})

	It("matches nothing for users with no scopes", func() {
		pred := rbac.ScopePredicate(rbac.UserScopes{}, mapping)
		Expect(pred).To(Equal(rbac.None{}))
	})

	It("builds a single IN condition for one scope kind without wrapping", func() {
		scopes := rbac.UserScopes{DepartmentIDs: []int64{3, 4}}
		pred := rbac.ScopePredicate(scopes, mapping)
		Expect(pred).To(Equal(rbac.In{Column: "department_id", IDs: []int64{3, 4}}))
	})

	It("disjoins university membership with university-owned departments", func() {
		scopes := rbac.UserScopes{UniversityIDs: []int64{5}}
		pred := rbac.ScopePredicate(scopes, mapping)

		or, ok := pred.(rbac.Or)
		Expect(ok).To(BeTrue())
		Expect(or.Predicates).To(ConsistOf(
			rbac.In{Column: "university_id", IDs: []int64{5}},
			rbac.InDepartmentsOf{Column: "department_id", UniversityIDs: []int64{5}},
		))
	})

	It("combines all applicable scope kinds into one disjunction", func() {
		scopes := rbac.UserScopes{
			UniversityIDs: []int64{5},
			DepartmentIDs: []int64{30},
		}
		pred := rbac.ScopePredicate(scopes, mapping)

		or, ok := pred.(rbac.Or)
		Expect(ok).To(BeTrue())
		Expect(or.Predicates).To(HaveLen(3))
	})

	It("skips scope kinds the mapping has no column for", func() {
		universityOnly := rbac.ScopeFieldMapping{UniversityColumn: "university_id"}
		scopes := rbac.UserScopes{
			UniversityIDs: []int64{5},
			DepartmentIDs: []int64{30},
		}
		pred := rbac.ScopePredicate(scopes, universityOnly)
		Expect(pred).To(Equal(rbac.In{Column: "university_id", IDs: []int64{5}}))
	})

	It("fails closed when the mapping offers no applicable column", func() {
		institutionOnly := rbac.ScopeFieldMapping{InstitutionColumn: "institution_id"}
		scopes := rbac.UserScopes{DepartmentIDs: []int64{30}}
		pred := rbac.ScopePredicate(scopes, institutionOnly)
		Expect(pred).To(Equal(rbac.None{}))
	})

	It("does not derive department reach when only the university column is mapped", func() {
		universityOnly := rbac.ScopeFieldMapping{UniversityColumn: "university_id"}
		scopes := rbac.UserScopes{UniversityIDs: []int64{5}}
		pred := rbac.ScopePredicate(scopes, universityOnly)
		Expect(pred).To(Equal(rbac.In{Column: "university_id", IDs: []int64{5}}))
	})
})
