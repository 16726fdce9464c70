package models

import (
	"time"

	"gorm.io/gorm"
)

// Maintenance is a scheduled or completed fix on a puzzle.
type Maintenance struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Description string    `gorm:"not null" json:"description"`
	Status      string    `gorm:"size:50;not null;default:'pending'" json:"status"`
	FixDate     time.Time `gorm:"not null" json:"fixDate"`
	PuzzleID    uint      `gorm:"not null;index" json:"puzzleId"`

	Puzzle *Puzzle `gorm:"foreignKey:PuzzleID" json:"puzzle,omitempty"`
}
