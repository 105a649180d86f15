package news

import "errors"

// CreateArticleDTO represents the request payload for creating an article
type CreateArticleDTO struct {
	UniversityID int64  `json:"university_id"`
	DepartmentID *int64 `json:"department_id,omitempty"`
	Title        string `json:"title"`
	Body         string `json:"body"`
}

func (dto CreateArticleDTO) Validate() error {
	if dto.UniversityID <= 0 {
		return errors.New("university_id is required")
	}
	if dto.Title == "" {
		return errors.New("title is required")
	}
	return nil
}

// UpdateArticleDTO represents a partial update; nil fields are left untouched
type UpdateArticleDTO struct {
	Title *string `json:"title,omitempty"`
	Body  *string `json:"body,omitempty"`
}
