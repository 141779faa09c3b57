package user

import (
	"errors"
	"time"

	userDatamodel "github.com/ngtlab/attendance-dashboard/internal/core/datamodel/user"
)

type User struct {
	ID             int64     `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	PasswordHash   string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

var ErrNotFound = errors.New("user not found")

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:             u.ID,
		OrganizationID: u.OrganizationID,
		Email:          u.Email,
		Name:           u.Name,
		PasswordHash:   u.PasswordHash,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}
