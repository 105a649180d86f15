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

var _ = Describe("Service", func() {
	var (
		service   *rbac.Service
		resolver  *rbac.Resolver
		repo      *mockRepository
		directory *mockScopeDirectory
		ctx       context.Context
	)

	const userID = int64(42)

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMockRepository()
		directory = newMockScopeDirectory()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = rbac.NewService(repo, directory, logger)
		resolver = rbac.NewResolver(repo, newMockDepartmentResolver(), logger)
		repo.addUser(userID)
	})

	Describe("GrantPermission", func() {
		It("creates a direct grant", func() {
			repo.addPermission("news:publish")

			grant, err := service.GrantPermission(ctx, userID, "news:publish", nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(grant.UserID).To(Equal(userID))
			Expect(repo.grants).To(HaveLen(1))
		})

		It("clears a standing revocation for the same pair", func() {
			perm := repo.addPermission("news:publish")
			repo.revocations = append(repo.revocations, &rbac.Revocation{
				ID: repo.id(), UserID: userID, PermissionID: perm.ID, Permission: perm,
			})

			_, err := service.GrantPermission(ctx, userID, "news:publish", nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(repo.revocations).To(BeEmpty())
			Expect(repo.grants).To(HaveLen(1))

			allowed, err := resolver.HasPermission(ctx, userID, "news:publish", rbac.GlobalScope())
			Expect(err).ToNot(HaveOccurred())
			Expect(allowed).To(BeTrue())
		})

		It("conflicts when the grant already exists", func() {
			repo.addPermission("news:publish")
			_, err := service.GrantPermission(ctx, userID, "news:publish", nil)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.GrantPermission(ctx, userID, "news:publish", nil)
			Expect(err).To(MatchError(rbac.ErrGrantExists))
		})

		It("rejects unknown users and unknown permissions", func() {
			repo.addPermission("news:publish")

			_, err := service.GrantPermission(ctx, int64(9999), "news:publish", nil)
			Expect(err).To(MatchError(rbac.ErrUserNotFound))

			_, err = service.GrantPermission(ctx, userID, "no:such", nil)
			Expect(err).To(MatchError(rbac.ErrPermissionNotFound))
		})
	})

	Describe("RevokePermission", func() {
		It("clears a standing direct grant for the same pair", func() {
			perm := repo.addPermission("news:publish")
			repo.grants = append(repo.grants, &rbac.DirectGrant{
				ID: repo.id(), UserID: userID, PermissionID: perm.ID, Permission: perm,
			})

			_, err := service.RevokePermission(ctx, userID, "news:publish", nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(repo.grants).To(BeEmpty())
			Expect(repo.revocations).To(HaveLen(1))

			allowed, err := resolver.HasPermission(ctx, userID, "news:publish", rbac.GlobalScope())
			Expect(err).ToNot(HaveOccurred())
			Expect(allowed).To(BeFalse())
		})

		It("conflicts when the permission is already revoked", func() {
			repo.addPermission("news:publish")
			_, err := service.RevokePermission(ctx, userID, "news:publish", nil)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.RevokePermission(ctx, userID, "news:publish", nil)
			Expect(err).To(MatchError(rbac.ErrAlreadyRevoked))
		})

		It("overrides a role-held permission", func() {
			jobCreate := repo.addPermission("job:create")
			editor := repo.addRole("EDITOR", false, false, jobCreate)
			repo.assignments = append(repo.assignments, &rbac.RoleAssignment{
				ID: repo.id(), UserID: userID, RoleID: editor.ID, Role: editor,
			})

			_, err := service.RevokePermission(ctx, userID, "job:create", nil)
			Expect(err).ToNot(HaveOccurred())

			allowed, err := resolver.HasPermission(ctx, userID, "job:create", rbac.GlobalScope())
			Expect(err).ToNot(HaveOccurred())
			Expect(allowed).To(BeFalse())
		})
	})

	Describe("RemoveGrant and RemoveRevocation", func() {
		It("removes without creating the opposite record", func() {
			perm := repo.addPermission("news:publish")
			repo.grants = append(repo.grants, &rbac.DirectGrant{
				ID: repo.id(), UserID: userID, PermissionID: perm.ID, Permission: perm,
			})

			Expect(service.RemoveGrant(ctx, userID, "news:publish")).To(Succeed())
			Expect(repo.grants).To(BeEmpty())
			Expect(repo.revocations).To(BeEmpty())

			repo.revocations = append(repo.revocations, &rbac.Revocation{
				ID: repo.id(), UserID: userID, PermissionID: perm.ID, Permission: perm,
			})

			Expect(service.RemoveRevocation(ctx, userID, "news:publish")).To(Succeed())
			Expect(repo.revocations).To(BeEmpty())
			Expect(repo.grants).To(BeEmpty())
		})
	})

	Describe("SyncDirectGrants", func() {
		It("reconciles to exactly the desired set", func() {
			keep := repo.addPermission("job:create")
			drop := repo.addPermission("news:edit")
			add := repo.addPermission("news:publish")
			repo.grants = append(repo.grants,
				&rbac.DirectGrant{ID: repo.id(), UserID: userID, PermissionID: keep.ID, Permission: keep},
				&rbac.DirectGrant{ID: repo.id(), UserID: userID, PermissionID: drop.ID, Permission: drop},
			)

			grants, err := service.SyncDirectGrants(ctx, userID, []string{"job:create", "news:publish"})

			Expect(err).ToNot(HaveOccurred())
			Expect(grants).To(HaveLen(2))
			Expect(repo.grants).To(HaveLen(2))
			dropped, _ := repo.FindGrant(ctx, userID, drop.ID)
			Expect(dropped).To(BeNil())
			added, _ := repo.FindGrant(ctx, userID, add.ID)
			Expect(added).ToNot(BeNil())
		})

		It("changes nothing when called again with the same set", func() {
			repo.addPermission("job:create")
			repo.addPermission("news:publish")

			_, err := service.SyncDirectGrants(ctx, userID, []string{"job:create", "news:publish"})
			Expect(err).ToNot(HaveOccurred())

			ids := make([]int64, 0, len(repo.grants))
			for _, g := range repo.grants {
				ids = append(ids, g.ID)
			}

			again, err := service.SyncDirectGrants(ctx, userID, []string{"job:create", "news:publish"})
			Expect(err).ToNot(HaveOccurred())
			Expect(again).To(HaveLen(2))
			Expect(repo.grants).To(HaveLen(2))
			for i, g := range repo.grants {
				Expect(g.ID).To(Equal(ids[i]))
			}
		})

		It("clears revocations for newly granted keys", func() {
			perm := repo.addPermission("news:publish")
			repo.revocations = append(repo.revocations, &rbac.Revocation{
				ID: repo.id(), UserID: userID, PermissionID: perm.ID, Permission: perm,
			})

			_, err := service.SyncDirectGrants(ctx, userID, []string{"news:publish"})

			Expect(err).ToNot(HaveOccurred())
			Expect(repo.revocations).To(BeEmpty())
		})

		It("aborts before any write when a key is unknown", func() {
			keep := repo.addPermission("job:create")
			repo.grants = append(repo.grants, &rbac.DirectGrant{
				ID: repo.id(), UserID: userID, PermissionID: keep.ID, Permission: keep,
			})

			_, err := service.SyncDirectGrants(ctx, userID, []string{"no:such"})

			Expect(err).To(MatchError(rbac.ErrPermissionNotFound))
			Expect(repo.grants).To(HaveLen(1))
		})
	})

	Describe("SyncRevocations", func() {
		It("clears direct grants for newly revoked keys", func() {
			perm := repo.addPermission("news:publish")
			repo.grants = append(repo.grants, &rbac.DirectGrant{
				ID: repo.id(), UserID: userID, PermissionID: perm.ID, Permission: perm,
			})

			revocations, err := service.SyncRevocations(ctx, userID, []string{"news:publish"})

			Expect(err).ToNot(HaveOccurred())
			Expect(revocations).To(HaveLen(1))
			Expect(repo.grants).To(BeEmpty())
		})

		It("lifts revocations outside the desired set", func() {
			perm := repo.addPermission("news:publish")
			repo.revocations = append(repo.revocations, &rbac.Revocation{
				ID: repo.id(), UserID: userID, PermissionID: perm.ID, Permission: perm,
			})

			revocations, err := service.SyncRevocations(ctx, userID, nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(revocations).To(BeEmpty())
			Expect(repo.revocations).To(BeEmpty())
		})
	})

	Describe("AssignRole", func() {
		It("binds a role within an existing scope", func() {
			repo.addRole("UNIVERSITY_ADMIN", false, false)

			assignment, err := service.AssignRole(ctx, userID, "UNIVERSITY_ADMIN", rbac.UniversityScope(5), nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(assignment.ScopeKind).To(Equal(rbac.ScopeKindUniversity))
			Expect(assignment.ScopeID).To(Equal(int64(5)))
		})

		It("rejects a malformed scope", func() {
			repo.addRole("UNIVERSITY_ADMIN", false, false)

			_, err := service.AssignRole(ctx, userID, "UNIVERSITY_ADMIN", rbac.Scope{Kind: rbac.ScopeKindUniversity}, nil)
			Expect(err).To(MatchError(rbac.ErrInvalidScope))
		})

		It("rejects a scope whose entity does not exist", func() {
			repo.addRole("UNIVERSITY_ADMIN", false, false)
			directory.missing[rbac.UniversityScope(77)] = true

			_, err := service.AssignRole(ctx, userID, "UNIVERSITY_ADMIN", rbac.UniversityScope(77), nil)
			Expect(err).To(MatchError(rbac.ErrScopeNotFound))
		})

		It("conflicts on the exact same role and scope", func() {
			repo.addRole("UNIVERSITY_ADMIN", false, false)
			_, err := service.AssignRole(ctx, userID, "UNIVERSITY_ADMIN", rbac.UniversityScope(5), nil)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.AssignRole(ctx, userID, "UNIVERSITY_ADMIN", rbac.UniversityScope(5), nil)
			Expect(err).To(MatchError(rbac.ErrAssignmentExists))
		})

		It("allows the same role in a different scope", func() {
			repo.addRole("UNIVERSITY_ADMIN", false, false)
			_, err := service.AssignRole(ctx, userID, "UNIVERSITY_ADMIN", rbac.UniversityScope(5), nil)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.AssignRole(ctx, userID, "UNIVERSITY_ADMIN", rbac.UniversityScope(6), nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(repo.assignments).To(HaveLen(2))
		})
	})

	Describe("RemoveRole", func() {
		It("removes only the assignment matching role and scope", func() {
			repo.addRole("UNIVERSITY_ADMIN", false, false)
			_, err := service.AssignRole(ctx, userID, "UNIVERSITY_ADMIN", rbac.UniversityScope(5), nil)
			Expect(err).ToNot(HaveOccurred())
			_, err = service.AssignRole(ctx, userID, "UNIVERSITY_ADMIN", rbac.UniversityScope(6), nil)
			Expect(err).ToNot(HaveOccurred())

			Expect(service.RemoveRole(ctx, userID, "UNIVERSITY_ADMIN", rbac.UniversityScope(5))).To(Succeed())
			Expect(repo.assignments).To(HaveLen(1))
			Expect(repo.assignments[0].ScopeID).To(Equal(int64(6)))
		})

		It("reports a missing assignment distinctly from a missing role", func() {
			repo.addRole("UNIVERSITY_ADMIN", false, false)
			err := service.RemoveRole(ctx, userID, "UNIVERSITY_ADMIN", rbac.UniversityScope(5))
			Expect(err).To(MatchError(rbac.ErrAssignmentNotFound))

			err = service.RemoveRole(ctx, userID, "NO_SUCH_ROLE", rbac.UniversityScope(5))
			Expect(err).To(MatchError(rbac.ErrRoleNotFound))
		})
	})

	Describe("SyncRoleAssignments", func() {
		It("treats role key plus scope as the assignment identity", func() {
			repo.addRole("UNIVERSITY_ADMIN", false, false)
			repo.addRole("DEPT_HEAD", false, false)
			_, err := service.AssignRole(ctx, userID, "UNIVERSITY_ADMIN", rbac.UniversityScope(5), nil)
			Expect(err).ToNot(HaveOccurred())
			_, err = service.AssignRole(ctx, userID, "DEPT_HEAD", rbac.DepartmentScope(30), nil)
			Expect(err).ToNot(HaveOccurred())

			kept, err := service.SyncRoleAssignments(ctx, userID, []rbac.RoleAssignmentSpec{
				{RoleKey: "UNIVERSITY_ADMIN", Scope: rbac.UniversityScope(5)},
				{RoleKey: "UNIVERSITY_ADMIN", Scope: rbac.UniversityScope(6)},
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(kept).To(HaveLen(2))
			Expect(repo.assignments).To(HaveLen(2))
			for _, a := range repo.assignments {
				Expect(a.Role.Key).To(Equal("UNIVERSITY_ADMIN"))
			}
		})

		It("changes nothing when called again with the same assignments", func() {
			repo.addRole("UNIVERSITY_ADMIN", false, false)
			desired := []rbac.RoleAssignmentSpec{
				{RoleKey: "UNIVERSITY_ADMIN", Scope: rbac.UniversityScope(5)},
			}

			_, err := service.SyncRoleAssignments(ctx, userID, desired)
			Expect(err).ToNot(HaveOccurred())
			firstID := repo.assignments[0].ID

			again, err := service.SyncRoleAssignments(ctx, userID, desired)
			Expect(err).ToNot(HaveOccurred())
			Expect(again).To(HaveLen(1))
			Expect(repo.assignments).To(HaveLen(1))
			Expect(repo.assignments[0].ID).To(Equal(firstID))
		})

		It("aborts before any write when a role key is unknown", func() {
			repo.addRole("UNIVERSITY_ADMIN", false, false)
			_, err := service.AssignRole(ctx, userID, "UNIVERSITY_ADMIN", rbac.UniversityScope(5), nil)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.SyncRoleAssignments(ctx, userID, []rbac.RoleAssignmentSpec{
				{RoleKey: "NO_SUCH_ROLE", Scope: rbac.GlobalScope()},
			})

			Expect(err).To(MatchError(rbac.ErrRoleNotFound))
			Expect(repo.assignments).To(HaveLen(1))
		})
	})

	Describe("AssignDefaultRoles", func() {
		It("assigns every default role globally and tolerates reruns", func() {
			repo.addRole("STUDENT", false, true)
			repo.addRole("EDITOR", false, false)

			Expect(service.AssignDefaultRoles(ctx, userID)).To(Succeed())
			Expect(repo.assignments).To(HaveLen(1))
			Expect(repo.assignments[0].Role.Key).To(Equal("STUDENT"))
			Expect(repo.assignments[0].Scope().IsGlobal()).To(BeTrue())

			Expect(service.AssignDefaultRoles(ctx, userID)).To(Succeed())
			Expect(repo.assignments).To(HaveLen(1))
		})
	})

	Describe("CreateRole", func() {
		It("rejects duplicate role keys", func() {
			_, err := service.CreateRole(ctx, &rbac.Role{Key: "EDITOR", Name: "Editor"})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.CreateRole(ctx, &rbac.Role{Key: "EDITOR", Name: "Editor"})
			Expect(err).To(MatchError(rbac.ErrRoleExists))
		})
	})

	Describe("SetRolePermissions", func() {
		It("replaces the bundle with exactly the given keys", func() {
			jobCreate := repo.addPermission("job:create")
			repo.addPermission("news:edit")
			repo.addRole("EDITOR", false, false, jobCreate)

			role, err := service.SetRolePermissions(ctx, "EDITOR", []string{"news:edit"})

			Expect(err).ToNot(HaveOccurred())
			Expect(role.Permissions).To(HaveLen(1))
			Expect(role.Permissions[0].Key).To(Equal("news:edit"))
		})

		It("rejects unknown permission keys", func() {
			repo.addRole("EDITOR", false, false)
			_, err := service.SetRolePermissions(ctx, "EDITOR", []string{"no:such"})
			Expect(err).To(MatchError(rbac.ErrPermissionNotFound))
		})
	})

	Describe("grant state machine end to end", func() {
		It("never leaves a grant and revocation standing for the same pair", func() {
			repo.addPermission("news:publish")

			_, err := service.GrantPermission(ctx, userID, "news:publish", nil)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.RevokePermission(ctx, userID, "news:publish", nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(repo.grants).To(BeEmpty())
			Expect(repo.revocations).To(HaveLen(1))

			_, err = service.GrantPermission(ctx, userID, "news:publish", nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(repo.grants).To(HaveLen(1))
			Expect(repo.revocations).To(BeEmpty())
		})

		It("keeps expiring grants out of checks after their deadline", func() {
			repo.addPermission("news:publish")
			past := time.Now().Add(-time.Second)

			_, err := service.GrantPermission(ctx, userID, "news:publish", &past)
			Expect(err).ToNot(HaveOccurred())

			allowed, err := resolver.HasPermission(ctx, userID, "news:publish", rbac.GlobalScope())
			Expect(err).ToNot(HaveOccurred())
			Expect(allowed).To(BeFalse())
		})
	})
})
