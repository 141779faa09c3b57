package auth

import (
	"database/sql"
	"fmt"

	"github.com/ngtlab/attendance-dashboard/internal/auth"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetPasswordForEmail(email string) (string, *auth.User, error) {
	var passwordHash string
	var user auth.User
	query := `SELECT id, email, name, organization_id, password_hash FROM users WHERE email = ? AND is_active = true`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.OrganizationID, &passwordHash); err != nil {
		if err == sql.ErrNoRows {
			return "", nil, fmt.Errorf("user not found")
		}
		return "", nil, err
	}
	return passwordHash, &user, nil
}

func (r *Repository) GetSessionUser(userID int64) (*auth.User, error) {
	var user auth.User

	query := `SELECT id, email, name, organization_id FROM users WHERE id = ? AND is_active = true`

	row := r.db.Raw(query, userID).Row()
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.OrganizationID); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found")
		}
		return nil, err
	}

	return &user, nil
}
