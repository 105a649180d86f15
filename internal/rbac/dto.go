package rbac

import (
	"errors"
	"time"
)

// ScopeDTO is the wire shape for scopes: at most one id may be set. An
// entirely empty object means global. This mirrors the admin API while
// the core works with the Scope sum type.
type ScopeDTO struct {
	UniversityID  *int64 `json:"university_id,omitempty"`
	InstitutionID *int64 `json:"institution_id,omitempty"`
	DepartmentID  *int64 `json:"department_id,omitempty"`
}

// ToScope validates and converts the wire shape into a Scope.
func (dto *ScopeDTO) ToScope() (Scope, error) {
	if dto == nil {
		return GlobalScope(), nil
	}

	set := 0
	if dto.UniversityID != nil {
		set++
	}
	if dto.InstitutionID != nil {
		set++
	}
	if dto.DepartmentID != nil {
		set++
	}
	if set > 1 {
		return Scope{}, errors.New("at most one of university_id, institution_id, department_id may be set")
	}

	switch {
	case dto.UniversityID != nil:
		return UniversityScope(*dto.UniversityID), nil
	case dto.InstitutionID != nil:
		return InstitutionScope(*dto.InstitutionID), nil
	case dto.DepartmentID != nil:
		return DepartmentScope(*dto.DepartmentID), nil
	default:
		return GlobalScope(), nil
	}
}

// ScopeDTOFrom converts a Scope back to the wire shape for responses.
func ScopeDTOFrom(scope Scope) *ScopeDTO {
	id := scope.ID
	switch scope.Kind {
	case ScopeKindUniversity:
		return &ScopeDTO{UniversityID: &id}
	case ScopeKindInstitution:
		return &ScopeDTO{InstitutionID: &id}
	case ScopeKindDepartment:
		return &ScopeDTO{DepartmentID: &id}
	default:
		return nil
	}
}

type GrantPermissionDTO struct {
	PermissionKey string     `json:"permission_key"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

func (dto GrantPermissionDTO) Validate() error {
	if dto.PermissionKey == "" {
		return errors.New("permission_key is required")
	}
	return nil
}

type RevokePermissionDTO struct {
	PermissionKey string  `json:"permission_key"`
	Reason        *string `json:"reason,omitempty"`
}

func (dto RevokePermissionDTO) Validate() error {
	if dto.PermissionKey == "" {
		return errors.New("permission_key is required")
	}
	return nil
}

type SyncPermissionsDTO struct {
	PermissionKeys []string `json:"permission_keys"`
}

func (dto SyncPermissionsDTO) Validate() error {
	for _, key := range dto.PermissionKeys {
		if key == "" {
			return errors.New("permission keys must be non-empty")
		}
	}
	return nil
}

type AssignRoleDTO struct {
	RoleKey   string     `json:"role_key"`
	Scope     *ScopeDTO  `json:"scope,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (dto AssignRoleDTO) Validate() error {
	if dto.RoleKey == "" {
		return errors.New("role_key is required")
	}
	if _, err := dto.Scope.ToScope(); err != nil {
		return err
	}
	return nil
}

type SyncRoleAssignmentsDTO struct {
	Assignments []AssignRoleDTO `json:"assignments"`
}

func (dto SyncRoleAssignmentsDTO) Validate() error {
	for _, assignment := range dto.Assignments {
		if err := assignment.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type CreateRoleDTO struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Level       int    `json:"level"`
	ScopeLabel  string `json:"scope_label"`
	IsDefault   bool   `json:"is_default"`
	IsSuperRole bool   `json:"is_super_role"`
}

func (dto CreateRoleDTO) Validate() error {
	if dto.Key == "" {
		return errors.New("key is required")
	}
	if dto.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func (dto CreateRoleDTO) ToRole() *Role {
	return &Role{
		Key:         dto.Key,
		Name:        dto.Name,
		Description: dto.Description,
		Level:       dto.Level,
		ScopeLabel:  dto.ScopeLabel,
		IsDefault:   dto.IsDefault,
		IsSuperRole: dto.IsSuperRole,
	}
}

// RoleAssignmentResponse is the response shape for assignment operations.
type RoleAssignmentResponse struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	RoleKey   string     `json:"role_key"`
	Scope     *ScopeDTO  `json:"scope,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func AssignmentResponse(assignment *RoleAssignment) RoleAssignmentResponse {
	resp := RoleAssignmentResponse{
		ID:        assignment.ID,
		UserID:    assignment.UserID,
		Scope:     ScopeDTOFrom(assignment.Scope()),
		ExpiresAt: assignment.ExpiresAt,
		CreatedAt: assignment.CreatedAt,
	}
	if assignment.Role != nil {
		resp.RoleKey = assignment.Role.Key
	}
	return resp
}

type EffectivePermissionsResponse struct {
	UserID      int64    `json:"user_id"`
	Permissions []string `json:"permissions"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
