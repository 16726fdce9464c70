// Package workspace holds the membership store: every authorization
// decision in the API is built from the lookups in this package.
package workspace

import (
	"errors"

	"github.com/pluto-chenxin/game-master-support/internal/models"

	"gorm.io/gorm"
)

var (
	// ErrAlreadyMember is returned when a membership for the (user,
	// workspace) pair already exists.
	ErrAlreadyMember = errors.New("user is already a member of this workspace")

	// ErrNotMember is returned when no membership exists for the pair.
	ErrNotMember = errors.New("user is not a member of this workspace")

	// ErrLastAdmin is returned when an operation would leave the workspace
	// with no ADMIN or SUPER_ADMIN membership.
	ErrLastAdmin = errors.New("cannot remove the last admin from a workspace")
)

// GetMembership looks up the membership for a (user, workspace) pair.
// Returns (nil, nil) when none exists.
func GetMembership(db *gorm.DB, userID, workspaceID uint) (*models.UserWorkspace, error) {
	var membership models.UserWorkspace
	err := db.Where("user_id = ? AND workspace_id = ?", userID, workspaceID).First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// ListMemberships returns all memberships of a user, workspaces preloaded.
func ListMemberships(db *gorm.DB, userID uint) ([]models.UserWorkspace, error) {
	var memberships []models.UserWorkspace
	err := db.Preload("Workspace").Where("user_id = ?", userID).Find(&memberships).Error
	return memberships, err
}

// ListMembers returns all memberships of a workspace, users preloaded.
func ListMembers(db *gorm.DB, workspaceID uint) ([]models.UserWorkspace, error) {
	var memberships []models.UserWorkspace
	err := db.Preload("User").Where("workspace_id = ?", workspaceID).Find(&memberships).Error
	return memberships, err
}

// CreateMembership grants a user a role in a workspace. Fails with
// ErrAlreadyMember when a membership for the pair exists.
func CreateMembership(db *gorm.DB, userID, workspaceID uint, role models.Role) error {
	existing, err := GetMembership(db, userID, workspaceID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrAlreadyMember
	}
	return db.Create(&models.UserWorkspace{
		UserID:      userID,
		WorkspaceID: workspaceID,
		Role:        role,
	}).Error
}

// ChangeRole updates a member's role. Demoting the workspace's last admin
// fails with ErrLastAdmin; the check and the write run in one transaction.
func ChangeRole(db *gorm.DB, userID, workspaceID uint, role models.Role) error {
	return db.Transaction(func(tx *gorm.DB) error {
		membership, err := GetMembership(tx, userID, workspaceID)
		if err != nil {
			return err
		}
		if membership == nil {
			return ErrNotMember
		}

		if membership.Role.Satisfies(models.RoleAdmin) && !role.Satisfies(models.RoleAdmin) {
			count, err := adminCount(tx, workspaceID)
			if err != nil {
				return err
			}
			if count <= 1 {
				return ErrLastAdmin
			}
		}

		return tx.Model(&models.UserWorkspace{}).
			Where("user_id = ? AND workspace_id = ?", userID, workspaceID).
			Update("role", role).Error
	})
}

// RemoveMembership deletes a member from a workspace. Removing the last
// ADMIN/SUPER_ADMIN membership fails with ErrLastAdmin; the check and the
// delete run in one transaction.
func RemoveMembership(db *gorm.DB, userID, workspaceID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		membership, err := GetMembership(tx, userID, workspaceID)
		if err != nil {
			return err
		}
		if membership == nil {
			return ErrNotMember
		}

		if membership.Role.Satisfies(models.RoleAdmin) {
			count, err := adminCount(tx, workspaceID)
			if err != nil {
				return err
			}
			if count <= 1 {
				return ErrLastAdmin
			}
		}

		return tx.Where("user_id = ? AND workspace_id = ?", userID, workspaceID).
			Delete(&models.UserWorkspace{}).Error
	})
}

func adminCount(tx *gorm.DB, workspaceID uint) (int64, error) {
	var count int64
	err := tx.Model(&models.UserWorkspace{}).
		Where("workspace_id = ? AND role IN ?", workspaceID, []models.Role{models.RoleAdmin, models.RoleSuperAdmin}).
		Count(&count).Error
	return count, err
}
