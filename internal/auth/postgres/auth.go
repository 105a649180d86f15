package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/campuslink/campuslink/internal/auth"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetPasswordForEmail(ctx context.Context, email string) (string, int64, error) {
	var (
		passwordHash string
		userID       int64
	)
	query := `SELECT id, password_hash FROM users WHERE email = ? AND is_active = true`

	row := r.db.WithContext(ctx).Raw(query, email).Row()
	if err := row.Scan(&userID, &passwordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", 0, auth.ErrInvalidCredentials
		}
		return "", 0, err
	}
	return passwordHash, userID, nil
}

func (r *Repository) UserByID(ctx context.Context, userID int64) (*auth.User, error) {
	var user auth.User
	query := `SELECT id, email, name FROM users WHERE id = ? AND is_active = true`

	row := r.db.WithContext(ctx).Raw(query, userID).Row()
	if err := row.Scan(&user.ID, &user.Email, &user.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}
