package models

import (
	"time"

	"gorm.io/gorm"
)

// WorkspaceInvitation is a single-use, time-limited grant of a future
// membership to an email address that has no account yet. The token is
// the only bearer-capability secret the system persists.
type WorkspaceInvitation struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Email       string    `gorm:"size:255;not null;index" json:"email"`
	Role        Role      `gorm:"type:varchar(20);not null" json:"role"`
	Token       string    `gorm:"size:64;unique;not null" json:"-"`
	ExpiresAt   time.Time `gorm:"not null" json:"expiresAt"`
	Used        bool      `gorm:"not null;default:false" json:"used"`
	WorkspaceID uint      `gorm:"not null;index" json:"workspaceId"`
	InviterID   uint      `gorm:"not null" json:"inviterId"`

	Workspace Workspace `gorm:"foreignKey:WorkspaceID;constraint:OnDelete:CASCADE;" json:"-"`
	Inviter   User      `gorm:"foreignKey:InviterID" json:"-"`
}

// Expired reports whether the invitation's expiry timestamp has passed.
// Expiry is evaluated lazily at verify/accept time, never swept.
func (i *WorkspaceInvitation) Expired() bool {
	return i.ExpiresAt.Before(time.Now())
}
