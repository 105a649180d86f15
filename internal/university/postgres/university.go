package postgres

import (
	"context"
	"errors"

	"github.com/campuslink/campuslink/internal/rbac"
	"github.com/campuslink/campuslink/internal/rbac/gormadapter"
	"github.com/campuslink/campuslink/internal/university"
	"gorm.io/gorm"
)

// UniversityRepository implements university.Repository plus the rbac
// directory interfaces (DepartmentResolver, ScopeDirectory) using GORM.
type UniversityRepository struct {
	db *gorm.DB
}

func NewUniversityRepository(db *gorm.DB) *UniversityRepository {
	return &UniversityRepository{db: db}
}

func (r *UniversityRepository) CreateUniversity(ctx context.Context, u *university.University) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UniversityRepository) UniversityByID(ctx context.Context, id int64) (*university.University, error) {
	var u university.University
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, university.ErrUniversityNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UniversityRepository) ListUniversities(ctx context.Context, visibility rbac.Predicate, limit, offset int) ([]*university.University, error) {
	var universities []*university.University
	query := gormadapter.Apply(r.db.WithContext(ctx).Model(&university.University{}), visibility)
	err := query.Order("name").Limit(limit).Offset(offset).Find(&universities).Error
	return universities, err
}

func (r *UniversityRepository) UpdateUniversity(ctx context.Context, u *university.University) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *UniversityRepository) DeleteUniversity(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&university.University{}, id).Error
}

func (r *UniversityRepository) CreateInstitution(ctx context.Context, inst *university.Institution) error {
	return r.db.WithContext(ctx).Create(inst).Error
}

func (r *UniversityRepository) InstitutionByID(ctx context.Context, id int64) (*university.Institution, error) {
	var inst university.Institution
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&inst).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, university.ErrInstitutionNotFound
		}
		return nil, err
	}
	return &inst, nil
}

func (r *UniversityRepository) ListInstitutions(ctx context.Context, visibility rbac.Predicate, limit, offset int) ([]*university.Institution, error) {
	var institutions []*university.Institution
	query := gormadapter.Apply(r.db.WithContext(ctx).Model(&university.Institution{}), visibility)
	err := query.Order("name").Limit(limit).Offset(offset).Find(&institutions).Error
	return institutions, err
}

func (r *UniversityRepository) DeleteInstitution(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&university.Institution{}, id).Error
}

func (r *UniversityRepository) CreateDepartment(ctx context.Context, dept *university.Department) error {
	return r.db.WithContext(ctx).Create(dept).Error
}

func (r *UniversityRepository) DepartmentByID(ctx context.Context, id int64) (*university.Department, error) {
	var dept university.Department
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dept).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, university.ErrDepartmentNotFound
		}
		return nil, err
	}
	return &dept, nil
}

func (r *UniversityRepository) ListDepartments(ctx context.Context, visibility rbac.Predicate, limit, offset int) ([]*university.Department, error) {
	var departments []*university.Department
	query := gormadapter.Apply(r.db.WithContext(ctx).Model(&university.Department{}), visibility)
	err := query.Order("name").Limit(limit).Offset(offset).Find(&departments).Error
	return departments, err
}

func (r *UniversityRepository) DeleteDepartment(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&university.Department{}, id).Error
}

// ----- rbac directory -----

// UniversityOfDepartment answers the single-hop containment question for
// hierarchical scope matching.
func (r *UniversityRepository) UniversityOfDepartment(ctx context.Context, departmentID int64) (int64, error) {
	var universityID int64
	err := r.db.WithContext(ctx).
		Model(&university.Department{}).
		Select("university_id").
		Where("id = ?", departmentID).
		Scan(&universityID).Error
	if err != nil {
		return 0, err
	}
	if universityID == 0 {
		return 0, rbac.ErrScopeNotFound
	}
	return universityID, nil
}

func (r *UniversityRepository) UniversityExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, &university.University{}, id)
}

func (r *UniversityRepository) InstitutionExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, &university.Institution{}, id)
}

func (r *UniversityRepository) DepartmentExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, &university.Department{}, id)
}

func (r *UniversityRepository) exists(ctx context.Context, model interface{}, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
