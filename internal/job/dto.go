package job

import (
	"errors"
	"time"
)

type CreateJobDTO struct {
	UniversityID   int64      `json:"university_id"`
	DepartmentID   *int64     `json:"department_id,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	EmploymentType string     `json:"employment_type"`
	SalaryRange    string     `json:"salary_range,omitempty"`
	Deadline       *time.Time `json:"deadline,omitempty"`
}

func (dto CreateJobDTO) Validate() error {
	if dto.UniversityID <= 0 {
		return errors.New("university_id is required")
	}
	if dto.Title == "" {
		return errors.New("title is required")
	}
	if dto.Deadline != nil && dto.Deadline.Before(time.Now()) {
		return errors.New("deadline cannot be in the past")
	}
	return nil
}

type UpdateJobDTO struct {
	Title          *string    `json:"title,omitempty"`
	Description    *string    `json:"description,omitempty"`
	EmploymentType *string    `json:"employment_type,omitempty"`
	SalaryRange    *string    `json:"salary_range,omitempty"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	IsActive       *bool      `json:"is_active,omitempty"`
}
