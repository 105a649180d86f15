package postgres

import (
	"context"
	"errors"

	"github.com/campuslink/campuslink/internal/rbac"
	"github.com/campuslink/campuslink/internal/rbac/gormadapter"
	"github.com/campuslink/campuslink/internal/scholarship"
	"gorm.io/gorm"
)

// ScholarshipRepository implements the scholarship.Repository interface using GORM
type ScholarshipRepository struct {
	db *gorm.DB
}

func NewScholarshipRepository(db *gorm.DB) scholarship.Repository {
	return &ScholarshipRepository{db: db}
}

func (r *ScholarshipRepository) Create(ctx context.Context, s *scholarship.Scholarship) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *ScholarshipRepository) GetByID(ctx context.Context, id int64) (*scholarship.Scholarship, error) {
	var s scholarship.Scholarship
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, scholarship.ErrScholarshipNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *ScholarshipRepository) List(ctx context.Context, visibility rbac.Predicate, limit, offset int) ([]*scholarship.Scholarship, error) {
	var items []*scholarship.Scholarship
	query := gormadapter.Apply(r.db.WithContext(ctx).Model(&scholarship.Scholarship{}), visibility)
	err := query.Where("is_active = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	return items, err
}

func (r *ScholarshipRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&scholarship.Scholarship{}, id).Error
}
