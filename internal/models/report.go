package models

import (
	"time"

	"gorm.io/gorm"
)

type ReportStatus string

const (
	ReportStatusOpen       ReportStatus = "open"
	ReportStatusInProgress ReportStatus = "in-progress"
	ReportStatusResolved   ReportStatus = "resolved"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusOpen, ReportStatusInProgress, ReportStatusResolved:
		return true
	}
	return false
}

type ReportPriority string

const (
	ReportPriorityLow    ReportPriority = "low"
	ReportPriorityMedium ReportPriority = "medium"
	ReportPriorityHigh   ReportPriority = "high"
)

func (p ReportPriority) Valid() bool {
	switch p {
	case ReportPriorityLow, ReportPriorityMedium, ReportPriorityHigh:
		return true
	}
	return false
}

// Report is a player-reported issue on a game, optionally pinned to a
// puzzle of that same game. Resolution and ResolvedAt are set only while
// the report is resolved.
type Report struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"not null" json:"description"`
	ReportDate  time.Time      `gorm:"not null;index" json:"reportDate"`
	Status      ReportStatus   `gorm:"size:50;not null;default:'open'" json:"status"`
	Priority    ReportPriority `gorm:"size:50;not null;default:'high'" json:"priority"`
	Resolution  string         `json:"resolution"`
	ResolvedAt  *time.Time     `json:"resolvedAt"`
	GameID      uint           `gorm:"not null;index" json:"gameId"`
	PuzzleID    *uint          `gorm:"index" json:"puzzleId"`

	Game   *Game         `gorm:"foreignKey:GameID" json:"game,omitempty"`
	Puzzle *Puzzle       `gorm:"foreignKey:PuzzleID" json:"puzzle,omitempty"`
	Images []ReportImage `gorm:"foreignKey:ReportID" json:"images"`
}

// ReportImage is a photo attached to a report.
type ReportImage struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ImageURL string `gorm:"size:512;not null" json:"imageUrl"`
	ReportID uint   `gorm:"not null;index" json:"reportId"`
}
