package user

import (
	"errors"
	"strings"
)

// RegisterDTO represents the request payload for account registration
type RegisterDTO struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (dto RegisterDTO) Validate() error {
	if dto.Email == "" || !strings.Contains(dto.Email, "@") {
		return errors.New("a valid email is required")
	}
	if dto.Name == "" {
		return errors.New("name is required")
	}
	if len(dto.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// ProfileResponse is the public view of a user, optionally including
// the caller's effective permission keys.
type ProfileResponse struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	IsActive    bool     `json:"is_active"`
	Permissions []string `json:"permissions,omitempty"`
}

func ProfileFrom(u *User) ProfileResponse {
	return ProfileResponse{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		IsActive: u.IsActive,
	}
}
