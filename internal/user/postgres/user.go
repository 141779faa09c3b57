package postgres

import (
	"github.com/ngtlab/attendance-dashboard/internal/user"
	userDatamodel "github.com/ngtlab/attendance-dashboard/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(userID int64) (*user.User, error) {
	var model userDatamodel.User
	err := r.db.Where("id = ?", userID).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&model), nil
}
