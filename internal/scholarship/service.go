package scholarship

import (
	"context"
	"log/slog"
	"time"

	internal "github.com/campuslink/campuslink/internal"
	"github.com/campuslink/campuslink/internal/rbac"
)

// Authorizer exposes the permission checks the scholarship service needs.
type Authorizer interface {
	HasPermission(ctx context.Context, userID int64, permissionKey string, required rbac.Scope) (bool, error)
	ApplyScopeFilter(ctx context.Context, userID int64, mapping rbac.ScopeFieldMapping) (rbac.Predicate, error)
}

type Service struct {
	repo   Repository
	authz  Authorizer
	logger *slog.Logger
}

func NewService(repo Repository, authz Authorizer, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		authz:  authz,
		logger: logger,
	}
}

func (s *Service) CreateScholarship(ctx context.Context, userID int64, dto CreateScholarshipDTO) (*Scholarship, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	allowed, err := s.authz.HasPermission(ctx, userID, PermCreate, rbac.UniversityScope(dto.UniversityID))
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrAccessDenied
	}

	sch := &Scholarship{
		UniversityID: dto.UniversityID,
		Title:        dto.Title,
		Description:  dto.Description,
		AmountCents:  dto.AmountCents,
		Currency:     dto.Currency,
		Deadline:     dto.Deadline,
		IsActive:     true,
		CreatedBy:    userID,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if sch.Currency == "" {
		sch.Currency = "EUR"
	}

	if err := s.repo.Create(ctx, sch); err != nil {
		s.logger.Error("failed to create scholarship", "error", err, "university_id", dto.UniversityID)
		return nil, err
	}

	s.logger.Info("scholarship created", "scholarship_id", sch.ID, "user_id", userID)
	return sch, nil
}

func (s *Service) GetScholarship(ctx context.Context, id int64) (*Scholarship, error) {
	return s.repo.GetByID(ctx, id)
}

// ListScholarships returns scholarships visible to the user's scopes.
func (s *Service) ListScholarships(ctx context.Context, userID int64, limit, offset int) ([]*Scholarship, error) {
	visibility, err := s.authz.ApplyScopeFilter(ctx, userID, ScopeMapping)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, visibility, limit, offset)
}

func (s *Service) DeleteScholarship(ctx context.Context, userID, id int64) error {
	sch, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	allowed, err := s.authz.HasPermission(ctx, userID, PermDelete, rbac.UniversityScope(sch.UniversityID))
	if err != nil {
		return err
	}
	if !allowed {
		return ErrAccessDenied
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("scholarship deleted", "scholarship_id", id, "user_id", userID)
	return nil
}
