package user

import "time"

type User struct {
	ID             int64     `gorm:"primaryKey"`
	OrganizationID string    `gorm:"column:organization_id;not null;index"`
	Email          string    `gorm:"column:email;uniqueIndex;not null"`
	Name           string    `gorm:"column:name;not null"`
	PasswordHash   string    `gorm:"column:password_hash;not null"`
	IsActive       bool      `gorm:"column:is_active;default:true"`
	CreatedAt      time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt      time.Time `gorm:"column:updated_at;default:now()"`
}

type Organization struct {
	ID        string    `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
}
