package postgres

import (
	"context"
	"errors"

	"github.com/campuslink/campuslink/internal/news"
	"github.com/campuslink/campuslink/internal/rbac"
	"github.com/campuslink/campuslink/internal/rbac/gormadapter"
	"gorm.io/gorm"
)

// NewsRepository implements the news.Repository interface using GORM
type NewsRepository struct {
	db *gorm.DB
}

func NewNewsRepository(db *gorm.DB) news.Repository {
	return &NewsRepository{db: db}
}

func (r *NewsRepository) Create(ctx context.Context, a *news.Article) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *NewsRepository) GetByID(ctx context.Context, id int64) (*news.Article, error) {
	var a news.Article
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, news.ErrArticleNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *NewsRepository) List(ctx context.Context, visibility rbac.Predicate, status string, limit, offset int) ([]*news.Article, error) {
	var articles []*news.Article
	query := gormadapter.Apply(r.db.WithContext(ctx).Model(&news.Article{}), visibility)
	err := query.Where("status = ?", status).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&articles).Error
	return articles, err
}

func (r *NewsRepository) Update(ctx context.Context, a *news.Article) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *NewsRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&news.Article{}, id).Error
}
