package job

import (
	"context"
	"errors"
	"time"

	"github.com/campuslink/campuslink/internal/rbac"
)

// Job is a position posted by a university, optionally tied to a
// department.
type Job struct {
	ID             int64      `json:"id" gorm:"primaryKey"`
	UniversityID   int64      `json:"university_id" gorm:"column:university_id;not null;index"`
	DepartmentID   *int64     `json:"department_id,omitempty" gorm:"column:department_id;index"`
	Title          string     `json:"title" gorm:"not null"`
	Description    string     `json:"description"`
	EmploymentType string     `json:"employment_type" gorm:"column:employment_type"`
	SalaryRange    string     `json:"salary_range,omitempty" gorm:"column:salary_range"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	IsActive       bool       `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedBy      int64      `json:"created_by" gorm:"column:created_by"`
	CreatedAt      time.Time  `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Job) TableName() string {
	return "jobs"
}

// Repository defines the data access methods for jobs
type Repository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, id int64) (*Job, error)
	List(ctx context.Context, visibility rbac.Predicate, limit, offset int) ([]*Job, error)
	Update(ctx context.Context, job *Job) error
	Delete(ctx context.Context, id int64) error
}

var (
	ErrJobNotFound  = errors.New("job not found")
	ErrAccessDenied = errors.New("access denied")
)

// ScopeMapping maps job columns to scope dimensions for list filtering.
var ScopeMapping = rbac.ScopeFieldMapping{
	UniversityColumn: "university_id",
	DepartmentColumn: "department_id",
}

// Permission keys
const (
	PermCreate = "job:create"
	PermEdit   = "job:edit"
	PermDelete = "job:delete"
)
