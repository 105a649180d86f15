package auth

import (
	"errors"
	"strings"
)

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (dto LoginDTO) Validate() error {
	if strings.TrimSpace(dto.Email) == "" {
		return errors.New("email is required")
	}
	if dto.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (dto RefreshTokenDTO) Validate() error {
	if dto.RefreshToken == "" {
		return errors.New("refresh_token is required")
	}
	return nil
}
