package rbac_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/campuslink/campuslink/internal/rbac"
)

var _ = Describe("Resolver", func() {
	var (
		resolver    *rbac.Resolver
		repo        *mockRepository
		departments *mockDepartmentResolver
		ctx         context.Context
	)

	const userID = int64(42)

	assign := func(role *rbac.Role, scope rbac.Scope, expiresAt *time.Time) {
		repo.assignments = append(repo.assignments, &rbac.RoleAssignment{
			ID:        repo.id(),
			UserID:    userID,
			RoleID:    role.ID,
			Role:      role,
			ScopeKind: scope.Kind,
			ScopeID:   scope.ID,
			ExpiresAt: expiresAt,
		})
	}

	grant := func(perm *rbac.Permission, expiresAt *time.Time) {
		repo.grants = append(repo.grants, &rbac.DirectGrant{
			ID:           repo.id(),
			UserID:       userID,
			PermissionID: perm.ID,
			Permission:   perm,
			ExpiresAt:    expiresAt,
		})
	}

	revoke := func(perm *rbac.Permission) {
		repo.revocations = append(repo.revocations, &rbac.Revocation{
			ID:           repo.id(),
			UserID:       userID,
			PermissionID: perm.ID,
			Permission:   perm,
		})
	}

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMockRepository()
		departments = newMockDepartmentResolver()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		resolver = rbac.NewResolver(repo, departments, logger)
		repo.addUser(userID)
	})

	Describe("ComputeEffectivePermissions", func() {
		It("unions role bundles and direct grants", func() {
			jobCreate := repo.addPermission("job:create")
			newsEdit := repo.addPermission("news:edit")
			newsPublish := repo.addPermission("news:publish")

			editor := repo.addRole("EDITOR", false, false, jobCreate, newsEdit)
			assign(editor, rbac.GlobalScope(), nil)
			grant(newsPublish, nil)

			keys, err := resolver.ComputeEffectivePermissions(ctx, userID)

			Expect(err).ToNot(HaveOccurred())
			Expect(keys).To(Equal([]string{"job:create", "news:edit", "news:publish"}))
		})

		It("subtracts revocations even when the same key is role-held and directly granted", func() {
			jobCreate := repo.addPermission("job:create")
			newsEdit := repo.addPermission("news:edit")

			editor := repo.addRole("EDITOR", false, false, jobCreate, newsEdit)
			assign(editor, rbac.GlobalScope(), nil)
			grant(jobCreate, nil)
			revoke(jobCreate)

			keys, err := resolver.ComputeEffectivePermissions(ctx, userID)

			Expect(err).ToNot(HaveOccurred())
			Expect(keys).To(Equal([]string{"news:edit"}))
		})

		It("expands a super role to every registered permission", func() {
			repo.addPermission("job:create")
			repo.addPermission("news:publish")
			repo.addPermission("access:manage")

			admin := repo.addRole("SUPER_ADMIN", true, false)
			assign(admin, rbac.GlobalScope(), nil)

			keys, err := resolver.ComputeEffectivePermissions(ctx, userID)

			Expect(err).ToNot(HaveOccurred())
			Expect(keys).To(Equal([]string{"access:manage", "job:create", "news:publish"}))
		})

		It("still subtracts revocations from a super role's set", func() {
			repo.addPermission("job:create")
			newsPublish := repo.addPermission("news:publish")

			admin := repo.addRole("SUPER_ADMIN", true, false)
			assign(admin, rbac.GlobalScope(), nil)
			revoke(newsPublish)

			keys, err := resolver.ComputeEffectivePermissions(ctx, userID)

			Expect(err).ToNot(HaveOccurred())
			Expect(keys).To(Equal([]string{"job:create"}))
		})

		It("ignores expired assignments and expired grants", func() {
			jobCreate := repo.addPermission("job:create")
			newsEdit := repo.addPermission("news:edit")
			past := time.Now().Add(-time.Hour)

			editor := repo.addRole("EDITOR", false, false, jobCreate)
			assign(editor, rbac.GlobalScope(), &past)
			grant(newsEdit, &past)

			keys, err := resolver.ComputeEffectivePermissions(ctx, userID)

			Expect(err).ToNot(HaveOccurred())
			Expect(keys).To(BeEmpty())
		})

		It("returns ErrUserNotFound for an unknown user", func() {
			_, err := resolver.ComputeEffectivePermissions(ctx, int64(9999))
			Expect(err).To(MatchError(rbac.ErrUserNotFound))
		})
	})

	Describe("HasPermission", func() {
		It("returns false without error for an unregistered permission key", func() {
			allowed, err := resolver.HasPermission(ctx, userID, "no:such", rbac.GlobalScope())
			Expect(err).ToNot(HaveOccurred())
			Expect(allowed).To(BeFalse())
		})

		It("denies absolutely when a revocation exists, regardless of grants and roles", func() {
			jobCreate := repo.addPermission("job:create")
			editor := repo.addRole("EDITOR", false, false, jobCreate)
			assign(editor, rbac.GlobalScope(), nil)
			grant(jobCreate, nil)
			revoke(jobCreate)

			allowed, err := resolver.HasPermission(ctx, userID, "job:create", rbac.GlobalScope())
			Expect(err).ToNot(HaveOccurred())
			Expect(allowed).To(BeFalse())
		})

		It("allows through a live direct grant in any scope", func() {
			newsPublish := repo.addPermission("news:publish")
			grant(newsPublish, nil)

			allowed, err := resolver.HasPermission(ctx, userID, "news:publish", rbac.DepartmentScope(7))
			Expect(err).ToNot(HaveOccurred())
			Expect(allowed).To(BeTrue())
		})

		It("ignores an expired direct grant", func() {
			newsPublish := repo.addPermission("news:publish")
			past := time.Now().Add(-time.Minute)
			grant(newsPublish, &past)

			allowed, err := resolver.HasPermission(ctx, userID, "news:publish", rbac.GlobalScope())
			Expect(err).ToNot(HaveOccurred())
			Expect(allowed).To(BeFalse())
		})

		Context("scope matching on role assignments", func() {
			It("allows a globally assigned role anywhere", func() {
				jobCreate := repo.addPermission("job:create")
				editor := repo.addRole("EDITOR", false, false, jobCreate)
				assign(editor, rbac.GlobalScope(), nil)

				allowed, err := resolver.HasPermission(ctx, userID, "job:create", rbac.DepartmentScope(3))
				Expect(err).ToNot(HaveOccurred())
				Expect(allowed).To(BeTrue())
			})

			It("allows an exact scope match", func() {
				jobCreate := repo.addPermission("job:create")
				editor := repo.addRole("EDITOR", false, false, jobCreate)
				assign(editor, rbac.UniversityScope(5), nil)

				allowed, err := resolver.HasPermission(ctx, userID, "job:create", rbac.UniversityScope(5))
				Expect(err).ToNot(HaveOccurred())
				Expect(allowed).To(BeTrue())
			})

			It("denies a different id at the same level", func() {
				jobCreate := repo.addPermission("job:create")
				editor := repo.addRole("EDITOR", false, false, jobCreate)
				assign(editor, rbac.UniversityScope(5), nil)

				allowed, err := resolver.HasPermission(ctx, userID, "job:create", rbac.UniversityScope(6))
				Expect(err).ToNot(HaveOccurred())
				Expect(allowed).To(BeFalse())
			})

			It("lets a university-scoped role reach departments that university owns", func() {
				departments.owners[30] = 5

				jobCreate := repo.addPermission("job:create")
				editor := repo.addRole("EDITOR", false, false, jobCreate)
				assign(editor, rbac.UniversityScope(5), nil)

				allowed, err := resolver.HasPermission(ctx, userID, "job:create", rbac.DepartmentScope(30))
				Expect(err).ToNot(HaveOccurred())
				Expect(allowed).To(BeTrue())
			})

			It("denies a department owned by a different university", func() {
				departments.owners[30] = 9

				jobCreate := repo.addPermission("job:create")
				editor := repo.addRole("EDITOR", false, false, jobCreate)
				assign(editor, rbac.UniversityScope(5), nil)

				allowed, err := resolver.HasPermission(ctx, userID, "job:create", rbac.DepartmentScope(30))
				Expect(err).ToNot(HaveOccurred())
				Expect(allowed).To(BeFalse())
			})

			It("denies when the department does not exist at all", func() {
				jobCreate := repo.addPermission("job:create")
				editor := repo.addRole("EDITOR", false, false, jobCreate)
				assign(editor, rbac.UniversityScope(5), nil)

				allowed, err := resolver.HasPermission(ctx, userID, "job:create", rbac.DepartmentScope(404))
				Expect(err).ToNot(HaveOccurred())
				Expect(allowed).To(BeFalse())
			})

			It("does not let a department-scoped role reach its university", func() {
				jobCreate := repo.addPermission("job:create")
				head := repo.addRole("DEPT_HEAD", false, false, jobCreate)
				assign(head, rbac.DepartmentScope(30), nil)

				allowed, err := resolver.HasPermission(ctx, userID, "job:create", rbac.UniversityScope(5))
				Expect(err).ToNot(HaveOccurred())
				Expect(allowed).To(BeFalse())
			})
		})
	})

	Describe("ComputeUserScopes", func() {
		It("short-circuits to a bare global marker when any assignment is global", func() {
			viewer := repo.addRole("VIEWER", false, false)
			assign(viewer, rbac.UniversityScope(5), nil)
			assign(viewer, rbac.GlobalScope(), nil)

			scopes, err := resolver.ComputeUserScopes(ctx, userID)

			Expect(err).ToNot(HaveOccurred())
			Expect(scopes.Global).To(BeTrue())
			Expect(scopes.UniversityIDs).To(BeEmpty())
			Expect(scopes.DepartmentIDs).To(BeEmpty())
		})

		It("accumulates deduplicated ids per kind", func() {
			viewer := repo.addRole("VIEWER", false, false)
			editor := repo.addRole("EDITOR", false, false)
			assign(viewer, rbac.UniversityScope(5), nil)
			assign(editor, rbac.UniversityScope(5), nil)
			assign(viewer, rbac.DepartmentScope(30), nil)

			scopes, err := resolver.ComputeUserScopes(ctx, userID)

			Expect(err).ToNot(HaveOccurred())
			Expect(scopes.Global).To(BeFalse())
			Expect(scopes.UniversityIDs).To(Equal([]int64{5}))
			Expect(scopes.DepartmentIDs).To(Equal([]int64{30}))
		})

		It("skips expired assignments", func() {
			viewer := repo.addRole("VIEWER", false, false)
			past := time.Now().Add(-time.Hour)
			assign(viewer, rbac.UniversityScope(5), &past)

			scopes, err := resolver.ComputeUserScopes(ctx, userID)

			Expect(err).ToNot(HaveOccurred())
			Expect(scopes.Empty()).To(BeTrue())
		})
	})
})
