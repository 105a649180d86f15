package rbac_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/campuslink/campuslink/internal/rbac"
)

var _ = Describe("Scope", func() {
	Describe("Valid", func() {
		It("accepts the global scope only without an id", func() {
			Expect(rbac.GlobalScope().Valid()).To(BeTrue())
			Expect(rbac.Scope{Kind: rbac.ScopeKindGlobal, ID: 3}.Valid()).To(BeFalse())
		})

		It("requires a positive id for every other kind", func() {
			Expect(rbac.UniversityScope(1).Valid()).To(BeTrue())
			Expect(rbac.InstitutionScope(2).Valid()).To(BeTrue())
			Expect(rbac.DepartmentScope(3).Valid()).To(BeTrue())
			Expect(rbac.Scope{Kind: rbac.ScopeKindUniversity}.Valid()).To(BeFalse())
		})

		It("rejects unknown kinds", func() {
			Expect(rbac.Scope{Kind: "campus", ID: 1}.Valid()).To(BeFalse())
		})
	})

	Describe("Covers", func() {
		It("lets the global scope cover everything", func() {
			Expect(rbac.GlobalScope().Covers(rbac.UniversityScope(9))).To(BeTrue())
			Expect(rbac.GlobalScope().Covers(rbac.DepartmentScope(9))).To(BeTrue())
			Expect(rbac.GlobalScope().Covers(rbac.GlobalScope())).To(BeTrue())
		})

		It("requires exact kind and id otherwise", func() {
			Expect(rbac.UniversityScope(5).Covers(rbac.UniversityScope(5))).To(BeTrue())
			Expect(rbac.UniversityScope(5).Covers(rbac.UniversityScope(6))).To(BeFalse())
			Expect(rbac.UniversityScope(5).Covers(rbac.DepartmentScope(5))).To(BeFalse())
		})

		It("never lets a narrow scope cover global", func() {
			Expect(rbac.DepartmentScope(1).Covers(rbac.GlobalScope())).To(BeFalse())
		})
	})

	Describe("String", func() {
		It("renders global without an id", func() {
			Expect(rbac.GlobalScope().String()).To(Equal("global"))
			Expect(rbac.DepartmentScope(12).String()).To(Equal("department:12"))
		})
	})
})

var _ = Describe("UserScopes", func() {
	It("is empty when holding nothing and not global", func() {
		Expect(rbac.UserScopes{}.Empty()).To(BeTrue())
		Expect(rbac.UserScopes{Global: true}.Empty()).To(BeFalse())
		Expect(rbac.UserScopes{UniversityIDs: []int64{1}}.Empty()).To(BeFalse())
	})
})
