package models

import (
	"time"

	"gorm.io/gorm"
)

// Hint belongs to one puzzle; its workspace is always resolved by joining
// up through puzzle and game.
type Hint struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Content   string `gorm:"not null" json:"content"`
	IsPremium bool   `gorm:"not null;default:false" json:"isPremium"`
	IsUsed    bool   `gorm:"not null;default:false" json:"isUsed"`
	PuzzleID  uint   `gorm:"not null;index" json:"puzzleId"`

	Puzzle *Puzzle `gorm:"foreignKey:PuzzleID" json:"puzzle,omitempty"`
}
