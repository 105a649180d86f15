package job_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	internal "github.com/campuslink/campuslink/internal"
	"github.com/campuslink/campuslink/internal/job"
	"github.com/campuslink/campuslink/internal/rbac"
)

func TestJobService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Job Service Suite")
}

// Mock repository for testing
type mockJobRepository struct {
	jobs     map[int64]*job.Job
	nextID   int64
	lastPred rbac.Predicate
}

func newMockJobRepository() *mockJobRepository {
	return &mockJobRepository{jobs: make(map[int64]*job.Job), nextID: 1}
}

func (m *mockJobRepository) Create(_ context.Context, j *job.Job) error {
	j.ID = m.nextID
	m.nextID++
	m.jobs[j.ID] = j
	return nil
}

func (m *mockJobRepository) GetByID(_ context.Context, id int64) (*job.Job, error) {
	j, ok := m.jobs[id]
	if !ok {
		return nil, job.ErrJobNotFound
	}
	return j, nil
}

func (m *mockJobRepository) List(_ context.Context, visibility rbac.Predicate, limit, offset int) ([]*job.Job, error) {
	m.lastPred = visibility
	var out []*job.Job
	for _, j := range m.jobs {
		out = append(out, j)
	}
	return out, nil
}

func (m *mockJobRepository) Update(_ context.Context, j *job.Job) error {
	m.jobs[j.ID] = j
	return nil
}

func (m *mockJobRepository) Delete(_ context.Context, id int64) error {
	delete(m.jobs, id)
	return nil
}

// Mock authorizer answering from a fixed table of allowed checks.
type mockAuthorizer struct {
	allowed   map[string]bool
	checked   []rbac.Scope
	predicate rbac.Predicate
}

func newMockAuthorizer() *mockAuthorizer {
	return &mockAuthorizer{allowed: make(map[string]bool), predicate: rbac.All{}}
}

func (m *mockAuthorizer) key(permissionKey string, scope rbac.Scope) string {
	return permissionKey + "@" + scope.String()
}

func (m *mockAuthorizer) allow(permissionKey string, scope rbac.Scope) {
	m.allowed[m.key(permissionKey, scope)] = true
}

func (m *mockAuthorizer) HasPermission(_ context.Context, _ int64, permissionKey string, required rbac.Scope) (bool, error) {
	m.checked = append(m.checked, required)
	return m.allowed[m.key(permissionKey, required)], nil
}

func (m *mockAuthorizer) ApplyScopeFilter(_ context.Context, _ int64, _ rbac.ScopeFieldMapping) (rbac.Predicate, error) {
	return m.predicate, nil
}

var _ = Describe("JobService", func() {
	var (
		service *job.Service
		repo    *mockJobRepository
		authz   *mockAuthorizer
		ctx     context.Context
	)

	const userID = int64(42)

	ptr := func(v int64) *int64 { return &v }
	strPtr := func(v string) *string { return &v }

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMockJobRepository()
		authz = newMockAuthorizer()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = job.NewService(repo, authz, logger)
	})

	Describe("CreateJob", func() {
		It("checks job:create against the university when no department is set", func() {
			authz.allow(job.PermCreate, rbac.UniversityScope(5))

			created, err := service.CreateJob(ctx, userID, job.CreateJobDTO{
				UniversityID: 5,
				Title:        "Research assistant",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(created.IsActive).To(BeTrue())
			Expect(created.CreatedBy).To(Equal(userID))
			Expect(authz.checked).To(ContainElement(rbac.UniversityScope(5)))
		})

		It("checks the department scope when a department is set", func() {
			authz.allow(job.PermCreate, rbac.DepartmentScope(30))

			_, err := service.CreateJob(ctx, userID, job.CreateJobDTO{
				UniversityID: 5,
				DepartmentID: ptr(30),
				Title:        "Lab technician",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(authz.checked).To(ContainElement(rbac.DepartmentScope(30)))
		})

		It("denies without the permission", func() {
			_, err := service.CreateJob(ctx, userID, job.CreateJobDTO{
				UniversityID: 5,
				Title:        "Research assistant",
			})
			Expect(err).To(MatchError(job.ErrAccessDenied))
		})

		It("rejects invalid payloads as validation errors", func() {
			_, err := service.CreateJob(ctx, userID, job.CreateJobDTO{Title: "no university"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})

		It("rejects a deadline in the past", func() {
			past := time.Now().Add(-time.Hour)
			_, err := service.CreateJob(ctx, userID, job.CreateJobDTO{
				UniversityID: 5,
				Title:        "Late",
				Deadline:     &past,
			})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ListJobs", func() {
		It("passes the computed visibility predicate to the repository", func() {
			authz.predicate = rbac.In{Column: "university_id", IDs: []int64{5}}

			_, err := service.ListJobs(ctx, userID, 20, 0)

			Expect(err).ToNot(HaveOccurred())
			Expect(repo.lastPred).To(Equal(rbac.In{Column: "university_id", IDs: []int64{5}}))
		})
	})

	Describe("UpdateJob", func() {
		It("checks job:edit against the job's own scope, not the request", func() {
			authz.allow(job.PermCreate, rbac.DepartmentScope(30))
			created, err := service.CreateJob(ctx, userID, job.CreateJobDTO{
				UniversityID: 5,
				DepartmentID: ptr(30),
				Title:        "Lab technician",
			})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.UpdateJob(ctx, userID, created.ID, job.UpdateJobDTO{Title: strPtr("Senior lab technician")})
			Expect(err).To(MatchError(job.ErrAccessDenied))

			authz.allow(job.PermEdit, rbac.DepartmentScope(30))

			updated, err := service.UpdateJob(ctx, userID, created.ID, job.UpdateJobDTO{Title: strPtr("Senior lab technician")})
			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Title).To(Equal("Senior lab technician"))
		})
	})

	Describe("DeleteJob", func() {
		It("requires job:delete in the job's scope", func() {
			authz.allow(job.PermCreate, rbac.UniversityScope(5))
			created, err := service.CreateJob(ctx, userID, job.CreateJobDTO{
				UniversityID: 5,
				Title:        "Research assistant",
			})
			Expect(err).ToNot(HaveOccurred())

			Expect(service.DeleteJob(ctx, userID, created.ID)).To(MatchError(job.ErrAccessDenied))

			authz.allow(job.PermDelete, rbac.UniversityScope(5))
			Expect(service.DeleteJob(ctx, userID, created.ID)).To(Succeed())

			_, err = service.GetJob(ctx, created.ID)
			Expect(err).To(MatchError(job.ErrJobNotFound))
		})
	})
})
