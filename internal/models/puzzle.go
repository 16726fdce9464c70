package models

import (
	"time"

	"gorm.io/gorm"
)

type PuzzleStatus string

const (
	PuzzleStatusActive         PuzzleStatus = "active"
	PuzzleStatusNeedsAttention PuzzleStatus = "needs_attention"
	PuzzleStatusInMaintenance  PuzzleStatus = "in_maintenance"
)

func (s PuzzleStatus) Valid() bool {
	switch s {
	case PuzzleStatusActive, PuzzleStatusNeedsAttention, PuzzleStatusInMaintenance:
		return true
	}
	return false
}

// Puzzle belongs to exactly one game, hence transitively to one workspace.
type Puzzle struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Title       string       `gorm:"size:255;not null" json:"title"`
	Description string       `json:"description"`
	Status      PuzzleStatus `gorm:"size:50;not null;default:'active'" json:"status"`
	Difficulty  int          `gorm:"not null;default:1" json:"difficulty"`
	ImageURL    string       `gorm:"size:512" json:"imageUrl"`
	GameID      uint         `gorm:"not null;index" json:"gameId"`

	Game        *Game         `gorm:"foreignKey:GameID" json:"game,omitempty"`
	Hints       []Hint        `gorm:"foreignKey:PuzzleID" json:"hints,omitempty"`
	Maintenance []Maintenance `gorm:"foreignKey:PuzzleID" json:"maintenance,omitempty"`
	Images      []PuzzleImage `gorm:"foreignKey:PuzzleID" json:"images,omitempty"`
}

// PuzzleImage is a photo attached to a puzzle. At most one image per
// puzzle may be primary at any time.
type PuzzleImage struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ImageURL  string `gorm:"size:512;not null" json:"imageUrl"`
	Caption   string `json:"caption"`
	IsPrimary bool   `gorm:"not null;default:false" json:"isPrimary"`
	PuzzleID  uint   `gorm:"not null;index" json:"puzzleId"`
}
