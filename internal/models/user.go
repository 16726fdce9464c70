package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account in the system. The Role field is the coarse
// global role; authorization decisions are made against workspace
// memberships, not this field.
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name         string `gorm:"size:255;not null" json:"name"`
	Email        string `gorm:"size:255;unique;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Role         Role   `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
}
