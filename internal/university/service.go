package university

import (
	"context"
	"log/slog"
	"time"

	internal "github.com/campuslink/campuslink/internal"
	"github.com/campuslink/campuslink/internal/rbac"
)

// Authorizer is the slice of the rbac engine this service needs: scoped
// permission checks for mutations and the visibility predicate for lists.
type Authorizer interface {
	HasPermission(ctx context.Context, userID int64, permissionKey string, scope rbac.Scope) (bool, error)
	ApplyScopeFilter(ctx context.Context, userID int64, mapping rbac.ScopeFieldMapping) (rbac.Predicate, error)
}

// Service handles organizational hierarchy business logic.
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

// CreateUniversity requires the global university:create permission.
func (s *Service) CreateUniversity(ctx context.Context, userID int64, dto CreateUniversityDTO) (*University, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	allowed, err := s.authorizer.HasPermission(ctx, userID, "university:create", rbac.GlobalScope())
	if err != nil {
		return nil, err
	}
	if !allowed {
		s.logger.Warn("create university denied", "user_id", userID)
		return nil, ErrAccessDenied
	}

	now := time.Now()
	u := &University{
		Name:        dto.Name,
		Slug:        dto.Slug,
		City:        dto.City,
		Country:     dto.Country,
		Website:     dto.Website,
		Description: dto.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateUniversity(ctx, u); err != nil {
		s.logger.Error("failed to create university", "error", err)
		return nil, err
	}

	s.logger.Info("university created", "university_id", u.ID, "slug", u.Slug)
	return u, nil
}

func (s *Service) GetUniversity(ctx context.Context, id int64) (*University, error) {
	return s.repo.UniversityByID(ctx, id)
}

// ListUniversities returns the universities visible to the user according
// to their accumulated scopes.
func (s *Service) ListUniversities(ctx context.Context, userID int64, limit, offset int) ([]*University, error) {
	visibility, err := s.authorizer.ApplyScopeFilter(ctx, userID, UniversityScopeMapping)
	if err != nil {
		return nil, err
	}
	return s.repo.ListUniversities(ctx, visibility, limit, offset)
}

// UpdateUniversity requires university:edit within the university's scope.
func (s *Service) UpdateUniversity(ctx context.Context, userID, id int64, dto UpdateUniversityDTO) (*University, error) {
	u, err := s.repo.UniversityByID(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed, err := s.authorizer.HasPermission(ctx, userID, "university:edit", rbac.UniversityScope(id))
	if err != nil {
		return nil, err
	}
	if !allowed {
		s.logger.Warn("update university denied", "user_id", userID, "university_id", id)
		return nil, ErrAccessDenied
	}

	if dto.Name != nil {
		u.Name = *dto.Name
	}
	if dto.City != nil {
		u.City = *dto.City
	}
	if dto.Country != nil {
		u.Country = *dto.Country
	}
	if dto.Website != nil {
		u.Website = *dto.Website
	}
	if dto.Description != nil {
		u.Description = *dto.Description
	}
	u.UpdatedAt = time.Now()

	if err := s.repo.UpdateUniversity(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUniversity requires the global university:delete permission.
func (s *Service) DeleteUniversity(ctx context.Context, userID, id int64) error {
	if _, err := s.repo.UniversityByID(ctx, id); err != nil {
		return err
	}

	allowed, err := s.authorizer.HasPermission(ctx, userID, "university:delete", rbac.GlobalScope())
	if err != nil {
		return err
	}
	if !allowed {
		return ErrAccessDenied
	}

	return s.repo.DeleteUniversity(ctx, id)
}

// CreateInstitution requires institution:create within the owning
// university's scope.
func (s *Service) CreateInstitution(ctx context.Context, userID int64, dto CreateInstitutionDTO) (*Institution, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	if _, err := s.repo.UniversityByID(ctx, dto.UniversityID); err != nil {
		return nil, err
	}

	allowed, err := s.authorizer.HasPermission(ctx, userID, "institution:create", rbac.UniversityScope(dto.UniversityID))
	if err != nil {
		return nil, err
	}
	if !allowed {
		s.logger.Warn("create institution denied", "user_id", userID, "university_id", dto.UniversityID)
		return nil, ErrAccessDenied
	}

	now := time.Now()
	inst := &Institution{
		UniversityID: dto.UniversityID,
		Name:         dto.Name,
		Description:  dto.Description,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateInstitution(ctx, inst); err != nil {
		return nil, err
	}

	s.logger.Info("institution created", "institution_id", inst.ID, "university_id", inst.UniversityID)
	return inst, nil
}

func (s *Service) ListInstitutions(ctx context.Context, userID int64, limit, offset int) ([]*Institution, error) {
	visibility, err := s.authorizer.ApplyScopeFilter(ctx, userID, InstitutionScopeMapping)
	if err != nil {
		return nil, err
	}
	return s.repo.ListInstitutions(ctx, visibility, limit, offset)
}

// CreateDepartment requires department:create within the owning
// university's scope.
func (s *Service) CreateDepartment(ctx context.Context, userID int64, dto CreateDepartmentDTO) (*Department, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	if _, err := s.repo.UniversityByID(ctx, dto.UniversityID); err != nil {
		return nil, err
	}

	allowed, err := s.authorizer.HasPermission(ctx, userID, "department:create", rbac.UniversityScope(dto.UniversityID))
	if err != nil {
		return nil, err
	}
	if !allowed {
		s.logger.Warn("create department denied", "user_id", userID, "university_id", dto.UniversityID)
		return nil, ErrAccessDenied
	}

	now := time.Now()
	dept := &Department{
		UniversityID: dto.UniversityID,
		Name:         dto.Name,
		Code:         dto.Code,
		Description:  dto.Description,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateDepartment(ctx, dept); err != nil {
		return nil, err
	}

	s.logger.Info("department created", "department_id", dept.ID, "university_id", dept.UniversityID)
	return dept, nil
}

func (s *Service) GetDepartment(ctx context.Context, id int64) (*Department, error) {
	return s.repo.DepartmentByID(ctx, id)
}

func (s *Service) ListDepartments(ctx context.Context, userID int64, limit, offset int) ([]*Department, error) {
	visibility, err := s.authorizer.ApplyScopeFilter(ctx, userID, DepartmentScopeMapping)
	if err != nil {
		return nil, err
	}
	return s.repo.ListDepartments(ctx, visibility, limit, offset)
}

// DeleteDepartment requires department:delete within the department's
// scope; a university admin covers it through hierarchical matching.
func (s *Service) DeleteDepartment(ctx context.Context, userID, id int64) error {
	if _, err := s.repo.DepartmentByID(ctx, id); err != nil {
		return err
	}

	allowed, err := s.authorizer.HasPermission(ctx, userID, "department:delete", rbac.DepartmentScope(id))
	if err != nil {
		return err
	}
	if !allowed {
		return ErrAccessDenied
	}

	return s.repo.DeleteDepartment(ctx, id)
}
