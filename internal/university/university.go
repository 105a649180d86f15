package university

import (
	"context"
	"errors"
	"time"

	"github.com/campuslink/campuslink/internal/rbac"
)

// University is the top of the organizational hierarchy. Departments and
// institutions belong to exactly one university.
type University struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Slug        string    `json:"slug" gorm:"uniqueIndex;not null"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Website     string    `json:"website"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (University) TableName() string {
	return "universities"
}

// Institution is an affiliated body under a university (research center,
// faculty hospital, partner institute).
type Institution struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	UniversityID int64     `json:"university_id" gorm:"column:university_id;not null;index"`
	Name         string    `json:"name" gorm:"not null"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Institution) TableName() string {
	return "institutions"
}

// Department belongs to exactly one university.
type Department struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	UniversityID int64     `json:"university_id" gorm:"column:university_id;not null;index"`
	Name         string    `json:"name" gorm:"not null"`
	Code         string    `json:"code"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Department) TableName() string {
	return "departments"
}

// Repository defines the data access methods for the organizational
// hierarchy. List methods take a visibility predicate produced by the
// rbac scope rewriter.
type Repository interface {
	CreateUniversity(ctx context.Context, u *University) error
	UniversityByID(ctx context.Context, id int64) (*University, error)
	ListUniversities(ctx context.Context, visibility rbac.Predicate, limit, offset int) ([]*University, error)
	UpdateUniversity(ctx context.Context, u *University) error
	DeleteUniversity(ctx context.Context, id int64) error

	CreateInstitution(ctx context.Context, inst *Institution) error
	InstitutionByID(ctx context.Context, id int64) (*Institution, error)
	ListInstitutions(ctx context.Context, visibility rbac.Predicate, limit, offset int) ([]*Institution, error)
	DeleteInstitution(ctx context.Context, id int64) error

	CreateDepartment(ctx context.Context, dept *Department) error
	DepartmentByID(ctx context.Context, id int64) (*Department, error)
	ListDepartments(ctx context.Context, visibility rbac.Predicate, limit, offset int) ([]*Department, error)
	DeleteDepartment(ctx context.Context, id int64) error
}

// Domain errors
var (
	ErrUniversityNotFound  = errors.New("university not found")
	ErrInstitutionNotFound = errors.New("institution not found")
	ErrDepartmentNotFound  = errors.New("department not found")
	ErrAccessDenied        = errors.New("access denied")
)

// Scope-column mappings for the list endpoints. A Department's own
// primary key is its department-scope column; the university/institution
// mappings follow the same rule.
var (
	UniversityScopeMapping = rbac.ScopeFieldMapping{
		UniversityColumn: "id",
	}
	InstitutionScopeMapping = rbac.ScopeFieldMapping{
		UniversityColumn:  "university_id",
		InstitutionColumn: "id",
	}
	DepartmentScopeMapping = rbac.ScopeFieldMapping{
		UniversityColumn: "university_id",
		DepartmentColumn: "id",
	}
)
