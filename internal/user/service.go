package user

import (
	"context"
	"log/slog"
	"time"

	internal "github.com/campuslink/campuslink/internal"
	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/rbac"
)

// RoleAssigner hands freshly registered accounts their default roles.
type RoleAssigner interface {
	AssignDefaultRoles(ctx context.Context, userID int64) error
}

// Authorizer exposes the permission checks the user service needs.
type Authorizer interface {
	HasPermission(ctx context.Context, userID int64, permissionKey string, required rbac.Scope) (bool, error)
}

type Service struct {
	repo       Repository
	roles      RoleAssigner
	authz      Authorizer
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, roles RoleAssigner, authz Authorizer, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		roles:      roles,
		authz:      authz,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates an account and assigns every default role to it. A
// failed default-role assignment does not roll back the account; the
// seeder can repair role state later.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	if existing, err := s.repo.GetByEmail(ctx, dto.Email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		Email:        dto.Email,
		Name:         dto.Name,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.repo.Create(ctx, u); err != nil {
		s.logger.Error("failed to create user", "error", err, "email", dto.Email)
		return nil, err
	}

	if err := s.roles.AssignDefaultRoles(ctx, u.ID); err != nil {
		s.logger.Error("failed to assign default roles", "error", err, "user_id", u.ID)
	}

	s.logger.Info("user registered", "user_id", u.ID)
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// ListUsers requires the global user:view permission.
func (s *Service) ListUsers(ctx context.Context, callerID int64, limit, offset int) ([]*User, error) {
	allowed, err := s.authz.HasPermission(ctx, callerID, PermView, rbac.GlobalScope())
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrAccessDenied
	}
	return s.repo.List(ctx, limit, offset)
}

// DeactivateUser requires the global user:deactivate permission.
func (s *Service) DeactivateUser(ctx context.Context, callerID, id int64) error {
	allowed, err := s.authz.HasPermission(ctx, callerID, PermDeactivate, rbac.GlobalScope())
	if err != nil {
		return err
	}
	if !allowed {
		return ErrAccessDenied
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deactivated", "user_id", id, "by", callerID)
	return nil
}
