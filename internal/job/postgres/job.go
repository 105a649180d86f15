package postgres

import (
	"context"
	"errors"

	"github.com/campuslink/campuslink/internal/job"
	"github.com/campuslink/campuslink/internal/rbac"
	"github.com/campuslink/campuslink/internal/rbac/gormadapter"
	"gorm.io/gorm"
)

// JobRepository implements the job.Repository interface using GORM
type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) job.Repository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(ctx context.Context, j *job.Job) error {
	return r.db.WithContext(ctx).Create(j).Error
}

func (r *JobRepository) GetByID(ctx context.Context, id int64) (*job.Job, error) {
	var j job.Job
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&j).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, job.ErrJobNotFound
		}
		return nil, err
	}
	return &j, nil
}

func (r *JobRepository) List(ctx context.Context, visibility rbac.Predicate, limit, offset int) ([]*job.Job, error) {
	var jobs []*job.Job
	query := gormadapter.Apply(r.db.WithContext(ctx).Model(&job.Job{}), visibility)
	err := query.Where("is_active = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&jobs).Error
	return jobs, err
}

func (r *JobRepository) Update(ctx context.Context, j *job.Job) error {
	return r.db.WithContext(ctx).Save(j).Error
}

func (r *JobRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&job.Job{}, id).Error
}
