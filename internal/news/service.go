package news

import (
	"context"
	"log/slog"
	"time"

	internal "github.com/campuslink/campuslink/internal"
	"github.com/campuslink/campuslink/internal/rbac"
)

// Authorizer exposes the permission checks the news service needs.
type Authorizer interface {
	HasPermission(ctx context.Context, userID int64, permissionKey string, required rbac.Scope) (bool, error)
	ApplyScopeFilter(ctx context.Context, userID int64, mapping rbac.ScopeFieldMapping) (rbac.Predicate, error)
}

type Service struct {
	repo   Repository
	authz  Authorizer
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, authz Authorizer, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		authz:  authz,
		logger: logger,
		now:    time.Now,
	}
}

// articleScope is the scope mutations are checked against: the
// department when the article is pinned to one, otherwise the
// university.
func articleScope(a *Article) rbac.Scope {
	if a.DepartmentID != nil {
		return rbac.DepartmentScope(*a.DepartmentID)
	}
	return rbac.UniversityScope(a.UniversityID)
}

func (s *Service) CreateArticle(ctx context.Context, userID int64, dto CreateArticleDTO) (*Article, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	scope := rbac.UniversityScope(dto.UniversityID)
	if dto.DepartmentID != nil {
		scope = rbac.DepartmentScope(*dto.DepartmentID)
	}

	allowed, err := s.authz.HasPermission(ctx, userID, PermCreate, scope)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrAccessDenied
	}

	article := &Article{
		UniversityID: dto.UniversityID,
		DepartmentID: dto.DepartmentID,
		Title:        dto.Title,
		Body:         dto.Body,
		Status:       StatusDraft,
		CreatedBy:    userID,
		CreatedAt:    s.now(),
		UpdatedAt:    s.now(),
	}

	if err := s.repo.Create(ctx, article); err != nil {
		s.logger.Error("failed to create article", "error", err, "university_id", dto.UniversityID)
		return nil, err
	}

	s.logger.Info("article created", "article_id", article.ID, "user_id", userID)
	return article, nil
}

func (s *Service) GetArticle(ctx context.Context, id int64) (*Article, error) {
	return s.repo.GetByID(ctx, id)
}

// ListArticles returns published articles visible to the user's scopes.
func (s *Service) ListArticles(ctx context.Context, userID int64, limit, offset int) ([]*Article, error) {
	visibility, err := s.authz.ApplyScopeFilter(ctx, userID, ScopeMapping)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, visibility, StatusPublished, limit, offset)
}

// ListDrafts returns unpublished articles visible to the user's scopes.
func (s *Service) ListDrafts(ctx context.Context, userID int64, limit, offset int) ([]*Article, error) {
	visibility, err := s.authz.ApplyScopeFilter(ctx, userID, ScopeMapping)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, visibility, StatusDraft, limit, offset)
}

func (s *Service) UpdateArticle(ctx context.Context, userID, id int64, dto UpdateArticleDTO) (*Article, error) {
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed, err := s.authz.HasPermission(ctx, userID, PermEdit, articleScope(article))
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrAccessDenied
	}

	if dto.Title != nil {
		article.Title = *dto.Title
	}
	if dto.Body != nil {
		article.Body = *dto.Body
	}
	article.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, article); err != nil {
		return nil, err
	}
	return article, nil
}

// PublishArticle transitions a draft to published. Publishing requires
// news:publish in the article's scope, a permission typically handed
// out as a direct grant rather than through a role.
func (s *Service) PublishArticle(ctx context.Context, userID, id int64) (*Article, error) {
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if article.Status == StatusPublished {
		return nil, ErrAlreadyPublished
	}

	allowed, err := s.authz.HasPermission(ctx, userID, PermPublish, articleScope(article))
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrAccessDenied
	}

	now := s.now()
	article.Status = StatusPublished
	article.PublishedAt = &now
	article.UpdatedAt = now

	if err := s.repo.Update(ctx, article); err != nil {
		return nil, err
	}

	s.logger.Info("article published", "article_id", article.ID, "user_id", userID)
	return article, nil
}

func (s *Service) DeleteArticle(ctx context.Context, userID, id int64) error {
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	allowed, err := s.authz.HasPermission(ctx, userID, PermDelete, articleScope(article))
	if err != nil {
		return err
	}
	if !allowed {
		return ErrAccessDenied
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("article deleted", "article_id", id, "user_id", userID)
	return nil
}
