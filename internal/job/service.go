package job

import (
	"context"
	"log/slog"
	"time"

	internal "github.com/campuslink/campuslink/internal"
	"github.com/campuslink/campuslink/internal/rbac"
)

// Authorizer is the slice of the rbac engine the job service needs.
type Authorizer interface {
	HasPermission(ctx context.Context, userID int64, permissionKey string, scope rbac.Scope) (bool, error)
	ApplyScopeFilter(ctx context.Context, userID int64, mapping rbac.ScopeFieldMapping) (rbac.Predicate, error)
}

// Service handles job posting business logic.
type Service struct {
	repo       Repository
	authorizer Authorizer
	logger     *slog.Logger
}

func NewService(repo Repository, authorizer Authorizer, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		authorizer: authorizer,
		logger:     logger,
	}
}

// CreateJob requires job:create within the posting's scope: the
// department when one is given, otherwise the university.
func (s *Service) CreateJob(ctx context.Context, userID int64, dto CreateJobDTO) (*Job, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("job validation failed", "error", err, "user_id", userID)
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	scope := rbac.UniversityScope(dto.UniversityID)
	if dto.DepartmentID != nil {
		scope = rbac.DepartmentScope(*dto.DepartmentID)
	}

	allowed, err := s.authorizer.HasPermission(ctx, userID, PermCreate, scope)
	if err != nil {
		return nil, err
	}
	if !allowed {
		s.logger.Warn("create job denied", "user_id", userID, "scope", scope.String())
		return nil, ErrAccessDenied
	}

	now := time.Now()
	job := &Job{
		UniversityID:   dto.UniversityID,
		DepartmentID:   dto.DepartmentID,
		Title:          dto.Title,
		Description:    dto.Description,
		EmploymentType: dto.EmploymentType,
		SalaryRange:    dto.SalaryRange,
		Deadline:       dto.Deadline,
		IsActive:       true,
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		s.logger.Error("failed to create job", "error", err, "user_id", userID)
		return nil, err
	}

	s.logger.Info("job created", "job_id", job.ID, "university_id", job.UniversityID, "user_id", userID)
	return job, nil
}

func (s *Service) GetJob(ctx context.Context, id int64) (*Job, error) {
	return s.repo.GetByID(ctx, id)
}

// ListJobs returns the jobs visible to the user according to their
// accumulated scopes.
func (s *Service) ListJobs(ctx context.Context, userID int64, limit, offset int) ([]*Job, error) {
	visibility, err := s.authorizer.ApplyScopeFilter(ctx, userID, ScopeMapping)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, visibility, limit, offset)
}

// UpdateJob requires job:edit within the job's scope.
func (s *Service) UpdateJob(ctx context.Context, userID, id int64, dto UpdateJobDTO) (*Job, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed, err := s.authorizer.HasPermission(ctx, userID, PermEdit, jobScope(job))
	if err != nil {
		return nil, err
	}
	if !allowed {
		s.logger.Warn("update job denied", "user_id", userID, "job_id", id)
		return nil, ErrAccessDenied
	}

	if dto.Title != nil {
		job.Title = *dto.Title
	}
	if dto.Description != nil {
		job.Description = *dto.Description
	}
	if dto.EmploymentType != nil {
		job.EmploymentType = *dto.EmploymentType
	}
	if dto.SalaryRange != nil {
		job.SalaryRange = *dto.SalaryRange
	}
	if dto.Deadline != nil {
		job.Deadline = dto.Deadline
	}
	if dto.IsActive != nil {
		job.IsActive = *dto.IsActive
	}
	job.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// DeleteJob requires job:delete within the job's scope.
func (s *Service) DeleteJob(ctx context.Context, userID, id int64) error {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	allowed, err := s.authorizer.HasPermission(ctx, userID, PermDelete, jobScope(job))
	if err != nil {
		return err
	}
	if !allowed {
		s.logger.Warn("delete job denied", "user_id", userID, "job_id", id)
		return ErrAccessDenied
	}

	return s.repo.Delete(ctx, id)
}

func jobScope(job *Job) rbac.Scope {
	if job.DepartmentID != nil {
		return rbac.DepartmentScope(*job.DepartmentID)
	}
	return rbac.UniversityScope(job.UniversityID)
}
