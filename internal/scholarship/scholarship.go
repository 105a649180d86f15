package scholarship

import (
	"context"
	"errors"
	"time"

	"github.com/campuslink/campuslink/internal/rbac"
)

// Scholarship is a funding opportunity published by a university.
type Scholarship struct {
	ID           int64      `json:"id" gorm:"primaryKey"`
	UniversityID int64      `json:"university_id" gorm:"column:university_id;not null;index"`
	Title        string     `json:"title" gorm:"not null"`
	Description  string     `json:"description"`
	AmountCents  int64      `json:"amount_cents" gorm:"column:amount_cents"`
	Currency     string     `json:"currency" gorm:"default:EUR"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	IsActive     bool       `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedBy    int64      `json:"created_by" gorm:"column:created_by"`
	CreatedAt    time.Time  `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Scholarship) TableName() string {
	return "scholarships"
}

// CreateScholarshipDTO represents the request payload for creating a scholarship
type CreateScholarshipDTO struct {
	UniversityID int64      `json:"university_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	AmountCents  int64      `json:"amount_cents"`
	Currency     string     `json:"currency"`
	Deadline     *time.Time `json:"deadline,omitempty"`
}

func (dto CreateScholarshipDTO) Validate() error {
	if dto.UniversityID <= 0 {
		return errors.New("university_id is required")
	}
	if dto.Title == "" {
		return errors.New("title is required")
	}
	if dto.AmountCents < 0 {
		return errors.New("amount cannot be negative")
	}
	return nil
}

// Repository defines the data access methods for scholarships
type Repository interface {
	Create(ctx context.Context, s *Scholarship) error
	GetByID(ctx context.Context, id int64) (*Scholarship, error)
	List(ctx context.Context, visibility rbac.Predicate, limit, offset int) ([]*Scholarship, error)
	Delete(ctx context.Context, id int64) error
}

var (
	ErrScholarshipNotFound = errors.New("scholarship not found")
	ErrAccessDenied        = errors.New("access denied")
)

// ScopeMapping: scholarships are university-level content, no department
// column exists.
var ScopeMapping = rbac.ScopeFieldMapping{
	UniversityColumn: "university_id",
}

const (
	PermCreate = "scholarship:create"
	PermDelete = "scholarship:delete"
)
