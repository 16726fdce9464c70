package models

import (
	"time"

	"gorm.io/gorm"
)

// Game represents an escape room. Its workspace is fixed at creation and
// is never reassigned by a field edit.
type Game struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name         string     `gorm:"size:255;not null" json:"name"`
	Genre        string     `gorm:"size:100;not null" json:"genre"`
	ReleaseDate  *time.Time `json:"releaseDate"`
	PurchaseDate *time.Time `json:"purchaseDate"`
	Description  string     `json:"description"`
	ImageURL     string     `gorm:"size:512" json:"imageUrl"`
	WorkspaceID  uint       `gorm:"not null;index" json:"workspaceId"`

	Puzzles []Puzzle `gorm:"foreignKey:GameID" json:"puzzles,omitempty"`
}
