package university

import "errors"

type CreateUniversityDTO struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Website     string `json:"website"`
	Description string `json:"description"`
}

func (dto CreateUniversityDTO) Validate() error {
	if dto.Name == "" {
		return errors.New("name is required")
	}
	if dto.Slug == "" {
		return errors.New("slug is required")
	}
	return nil
}

type UpdateUniversityDTO struct {
	Name        *string `json:"name,omitempty"`
	City        *string `json:"city,omitempty"`
	Country     *string `json:"country,omitempty"`
	Website     *string `json:"website,omitempty"`
	Description *string `json:"description,omitempty"`
}

type CreateInstitutionDTO struct {
	UniversityID int64  `json:"university_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
}

func (dto CreateInstitutionDTO) Validate() error {
	if dto.UniversityID <= 0 {
		return errors.New("university_id is required")
	}
	if dto.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type CreateDepartmentDTO struct {
	UniversityID int64  `json:"university_id"`
	Name         string `json:"name"`
	Code         string `json:"code"`
	Description  string `json:"description"`
}

func (dto CreateDepartmentDTO) Validate() error {
	if dto.UniversityID <= 0 {
		return errors.New("university_id is required")
	}
	if dto.Name == "" {
		return errors.New("name is required")
	}
	return nil
}
