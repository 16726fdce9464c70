package models

import (
	"time"

	"gorm.io/gorm"
)

// Workspace is the tenant boundary. Every game belongs to exactly one
// workspace, and everything below a game derives its workspace through it.
type Workspace struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `json:"description"`

	Games []Game `gorm:"foreignKey:WorkspaceID" json:"games,omitempty"`
}

// UserWorkspace is a workspace membership: the (user, workspace, role)
// grant every authorization decision is built from. The composite primary
// key makes the lookup keyed access rather than a scan.
type UserWorkspace struct {
	UserID      uint      `gorm:"primaryKey" json:"userId"`
	WorkspaceID uint      `gorm:"primaryKey" json:"workspaceId"`
	Role        Role      `gorm:"type:varchar(20);not null" json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	User      User      `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Workspace Workspace `gorm:"foreignKey:WorkspaceID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
