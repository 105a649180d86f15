package news

import (
	"context"
	"errors"
	"time"

	"github.com/campuslink/campuslink/internal/rbac"
)

// Article statuses. Articles start as drafts and become visible to
// readers only after an explicit publish.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Article is a news post belonging to a university, optionally pinned
// to a single department.
type Article struct {
	ID           int64      `json:"id" gorm:"primaryKey"`
	UniversityID int64      `json:"university_id" gorm:"column:university_id;not null;index"`
	DepartmentID *int64     `json:"department_id,omitempty" gorm:"column:department_id;index"`
	Title        string     `json:"title" gorm:"not null"`
	Body         string     `json:"body"`
	Status       string     `json:"status" gorm:"default:draft"`
	PublishedAt  *time.Time `json:"published_at,omitempty" gorm:"column:published_at"`
	CreatedBy    int64      `json:"created_by" gorm:"column:created_by"`
	CreatedAt    time.Time  `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Article) TableName() string {
	return "news_articles"
}

// Repository defines the data access methods for news articles
type Repository interface {
	Create(ctx context.Context, a *Article) error
	GetByID(ctx context.Context, id int64) (*Article, error)
	List(ctx context.Context, visibility rbac.Predicate, status string, limit, offset int) ([]*Article, error)
	Update(ctx context.Context, a *Article) error
	Delete(ctx context.Context, id int64) error
}

var (
	ErrArticleNotFound  = errors.New("article not found")
	ErrAccessDenied     = errors.New("access denied")
	ErrAlreadyPublished = errors.New("article already published")
)

var ScopeMapping = rbac.ScopeFieldMapping{
	UniversityColumn: "university_id",
	DepartmentColumn: "department_id",
}

const (
	PermCreate  = "news:create"
	PermEdit    = "news:edit"
	PermDelete  = "news:delete"
	PermPublish = "news:publish"
)
