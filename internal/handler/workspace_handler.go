package handler

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pluto-chenxin/game-master-support/internal/auth"
	"github.com/pluto-chenxin/game-master-support/internal/config"
	"github.com/pluto-chenxin/game-master-support/internal/database"
	"github.com/pluto-chenxin/game-master-support/internal/mail"
	"github.com/pluto-chenxin/game-master-support/internal/models"
	"github.com/pluto-chenxin/game-master-support/internal/workspace"
	"github.com/pluto-chenxin/game-master-support/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const invitationTTL = 7 * 24 * time.Hour

var (
	errInvitationNotFound = errors.New("invitation not found")
	errInvitationExpired  = errors.New("invitation has expired")
	errInvitationUsed     = errors.New("invitation has already been used")
	errEmailTaken         = errors.New("user with this email already exists")
)

// region --- DTOs ---

// CreateWorkspaceInput defines the structure for creating a workspace.
type CreateWorkspaceInput struct {
	Name        string `json:"name" binding:"required" example:"North Branch"`
	Description string `json:"description"`
}

// UpdateWorkspaceInput defines the structure for updating a workspace.
// Omitted fields keep their value.
type UpdateWorkspaceInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// MemberInput adds an existing user to a workspace by email.
type MemberInput struct {
	Email string      `json:"email" binding:"required,email"`
	Role  models.Role `json:"role" binding:"required"`
}

// MemberRoleInput changes a member's role.
type MemberRoleInput struct {
	Role models.Role `json:"role" binding:"required"`
}

// InviteInput invites an email address to a workspace.
type InviteInput struct {
	Email string      `json:"email" binding:"required,email"`
	Role  models.Role `json:"role" binding:"required"`
}

// AcceptInvitationInput completes registration through an invitation.
type AcceptInvitationInput struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

// MemberResponse is one row of a workspace's member list.
type MemberResponse struct {
	ID            uint        `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	GlobalRole    models.Role `json:"globalRole"`
	WorkspaceRole models.Role `json:"workspaceRole"`
}

// endregion

// region --- Workspace CRUD ---

// ListWorkspaces godoc
// @Summary      List the caller's workspaces
// @Tags         workspaces
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  WorkspaceSummary
// @Failure      401  {object}  ErrorResponse
// @Router       /workspaces [get]
func ListWorkspaces(c *gin.Context) {
	workspaces, err := callerWorkspaces(auth.CurrentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch workspaces"})
		return
	}
	c.JSON(http.StatusOK, workspaces)
}

// CreateWorkspace godoc
// @Summary      Create a workspace
// @Description  Creates a workspace; the caller becomes its first ADMIN.
// @Tags         workspaces
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body CreateWorkspaceInput true "Workspace Info"
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /workspaces [post]
func CreateWorkspace(c *gin.Context) {
	var input CreateWorkspaceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ws := models.Workspace{
		Name:        input.Name,
		Description: input.Description,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ws).Error; err != nil {
			return err
		}
		return tx.Create(&models.UserWorkspace{
			UserID:      auth.CurrentUserID(c),
			WorkspaceID: ws.ID,
			Role:        models.RoleAdmin,
		}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create workspace"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":   "Workspace created successfully",
		"workspace": ws,
	})
}

// GetWorkspace godoc
// @Summary      Get a workspace
// @Description  Returns the workspace with its games. Requires membership.
// @Tags         workspaces
// @Produce      json
// @Security     BearerAuth
// @Param        workspaceId path int true "Workspace ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Router       /workspaces/{workspaceId} [get]
func GetWorkspace(c *gin.Context) {
	workspaceID := auth.WorkspaceID(c)

	var ws models.Workspace
	if err := database.DB.Preload("Games", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "name", "description", "workspace_id")
	}).First(&ws, workspaceID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Workspace not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          ws.ID,
		"name":        ws.Name,
		"description": ws.Description,
		"role":        auth.WorkspaceRole(c),
		"createdAt":   ws.CreatedAt,
		"updatedAt":   ws.UpdatedAt,
		"games":       ws.Games,
	})
}

// UpdateWorkspace godoc
// @Summary      Update a workspace
// @Description  Updates name and/or description. Requires ADMIN.
// @Tags         workspaces
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        workspaceId path int true "Workspace ID"
// @Param        input body UpdateWorkspaceInput true "New Workspace Info"
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse "Admin access required"
// @Router       /workspaces/{workspaceId} [put]
func UpdateWorkspace(c *gin.Context) {
	var input UpdateWorkspaceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var ws models.Workspace
	if err := database.DB.First(&ws, auth.WorkspaceID(c)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Workspace not found"})
		return
	}

	if input.Name != nil {
		ws.Name = *input.Name
	}
	if input.Description != nil {
		ws.Description = *input.Description
	}

	if err := database.DB.Save(&ws).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update workspace"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Workspace updated successfully",
		"workspace": ws,
	})
}

// endregion

// region --- Members ---

// ListWorkspaceUsers godoc
// @Summary      List workspace members
// @Tags         workspaces
// @Produce      json
// @Security     BearerAuth
// @Param        workspaceId path int true "Workspace ID"
// @Success      200  {array}   MemberResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /workspaces/{workspaceId}/users [get]
func ListWorkspaceUsers(c *gin.Context) {
	memberships, err := workspace.ListMembers(database.DB, auth.WorkspaceID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch workspace members"})
		return
	}

	members := make([]MemberResponse, 0, len(memberships))
	for _, m := range memberships {
		members = append(members, MemberResponse{
			ID:            m.User.ID,
			Name:          m.User.Name,
			Email:         m.User.Email,
			GlobalRole:    m.User.Role,
			WorkspaceRole: m.Role,
		})
	}
	c.JSON(http.StatusOK, members)
}

// AddWorkspaceUser godoc
// @Summary      Add an existing user to a workspace
// @Description  Adds the user with the given email. Requires ADMIN. Grantable roles are USER and ADMIN.
// @Tags         workspaces
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        workspaceId path int true "Workspace ID"
// @Param        input body MemberInput true "Member Info"
// @Success      201  {object}  map[string]string
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "User not found"
// @Failure      409  {object}  ErrorResponse "Already a member"
// @Router       /workspaces/{workspaceId}/users [post]
func AddWorkspaceUser(c *gin.Context) {
	var input MemberInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !input.Role.Grantable() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be USER or ADMIN"})
		return
	}

	var user models.User
	if err := database.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	err := workspace.CreateMembership(database.DB, user.ID, auth.WorkspaceID(c), input.Role)
	if errors.Is(err, workspace.ErrAlreadyMember) {
		c.JSON(http.StatusConflict, gin.H{"error": "User is already a member of this workspace"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add user to workspace"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User added to workspace successfully"})
}

// UpdateWorkspaceUserRole godoc
// @Summary      Change a member's role
// @Description  Requires ADMIN. Grantable roles are USER and ADMIN. Demoting the last admin is rejected.
// @Tags         workspaces
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        workspaceId path int true "Workspace ID"
// @Param        userId path int true "User ID"
// @Param        input body MemberRoleInput true "New Role"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  ErrorResponse "Last admin"
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Not a member"
// @Router       /workspaces/{workspaceId}/users/{userId} [put]
func UpdateWorkspaceUserRole(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var input MemberRoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !input.Role.Grantable() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be USER or ADMIN"})
		return
	}

	err = workspace.ChangeRole(database.DB, uint(userID), auth.WorkspaceID(c), input.Role)
	switch {
	case errors.Is(err, workspace.ErrNotMember):
		c.JSON(http.StatusNotFound, gin.H{"error": "User is not a member of this workspace"})
	case errors.Is(err, workspace.ErrLastAdmin):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot remove the last admin from a workspace"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change role"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Role updated successfully"})
	}
}

// RemoveWorkspaceUser godoc
// @Summary      Remove a member from a workspace
// @Description  Requires ADMIN. Removing the workspace's last admin is rejected.
// @Tags         workspaces
// @Produce      json
// @Security     BearerAuth
// @Param        workspaceId path int true "Workspace ID"
// @Param        userId path int true "User ID"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  ErrorResponse "Last admin"
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Not a member"
// @Router       /workspaces/{workspaceId}/users/{userId} [delete]
func RemoveWorkspaceUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	err = workspace.RemoveMembership(database.DB, uint(userID), auth.WorkspaceID(c))
	switch {
	case errors.Is(err, workspace.ErrNotMember):
		c.JSON(http.StatusNotFound, gin.H{"error": "User is not a member of this workspace"})
	case errors.Is(err, workspace.ErrLastAdmin):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot remove the last admin from a workspace"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove user from workspace"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "User removed from workspace successfully"})
	}
}

// endregion

// region --- Invitations ---

// InviteUser godoc
// @Summary      Invite a user to a workspace
// @Description  Existing users are added immediately; unknown emails get a single-use invitation link valid for 7 days. Requires ADMIN.
// @Tags         workspaces
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        workspaceId path int true "Workspace ID"
// @Param        input body InviteInput true "Invite Info"
// @Success      201  {object}  map[string]string
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Already a member"
// @Router       /workspaces/{workspaceId}/invite [post]
func InviteUser(c *gin.Context) {
	var input InviteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !input.Role.Grantable() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be USER or ADMIN"})
		return
	}

	workspaceID := auth.WorkspaceID(c)

	var ws models.Workspace
	if err := database.DB.First(&ws, workspaceID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Workspace not found"})
		return
	}

	var inviter models.User
	if err := database.DB.First(&inviter, auth.CurrentUserID(c)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve inviter"})
		return
	}

	var existing models.User
	err := database.DB.Where("email = ?", input.Email).First(&existing).Error
	if err == nil {
		// Existing user: grant membership immediately, no token involved.
		err = workspace.CreateMembership(database.DB, existing.ID, workspaceID, input.Role)
		if errors.Is(err, workspace.ErrAlreadyMember) {
			c.JSON(http.StatusConflict, gin.H{"error": "User is already a member of this workspace"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add user to workspace"})
			return
		}

		subject, body := mail.AddedMessage(inviter.Name, ws.Name, config.AppConfig.FrontendURL+"/login")
		sendMailAsync(input.Email, subject, body)

		c.JSON(http.StatusCreated, gin.H{"message": "Existing user added to workspace successfully"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up user"})
		return
	}

	token, err := newInvitationToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invitation"})
		return
	}

	invitation := models.WorkspaceInvitation{
		Email:       input.Email,
		Role:        input.Role,
		Token:       token,
		ExpiresAt:   time.Now().Add(invitationTTL),
		WorkspaceID: workspaceID,
		InviterID:   inviter.ID,
	}
	if err := database.DB.Create(&invitation).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invitation"})
		return
	}

	inviteURL := fmt.Sprintf("%s/invitations/%s", config.AppConfig.FrontendURL, token)
	subject, body := mail.InviteMessage(inviter.Name, ws.Name, inviteURL)
	sendMailAsync(input.Email, subject, body)

	logrus.WithFields(logrus.Fields{
		"workspace": workspaceID,
		"email":     input.Email,
		"role":      input.Role,
	}).Info("created workspace invitation")

	c.JSON(http.StatusCreated, gin.H{
		"message":       "Invitation sent successfully",
		"invitationUrl": inviteURL,
	})
}

// VerifyInvitation godoc
// @Summary      Verify an invitation token
// @Description  Returns the invited email, workspace name and role for a valid, unused, unexpired token. No authentication required.
// @Tags         workspaces
// @Produce      json
// @Param        token path string true "Invitation Token"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse "Expired or used"
// @Failure      404  {object}  ErrorResponse
// @Router       /workspaces/invitations/{token} [get]
func VerifyInvitation(c *gin.Context) {
	var invitation models.WorkspaceInvitation
	err := database.DB.Preload("Workspace").Where("token = ?", c.Param("token")).First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid or expired invitation"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up invitation"})
		return
	}

	if invitation.Expired() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invitation has expired"})
		return
	}
	if invitation.Used {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invitation has already been used"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"email":         invitation.Email,
		"workspaceName": invitation.Workspace.Name,
		"role":          invitation.Role,
	})
}

// AcceptInvitation godoc
// @Summary      Accept an invitation
// @Description  Creates a new user from a valid invitation, grants the membership, marks the token used and returns a session token. All effects are atomic. No authentication required.
// @Tags         workspaces
// @Accept       json
// @Produce      json
// @Param        token path string true "Invitation Token"
// @Param        input body AcceptInvitationInput true "Account Info"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  ErrorResponse "Expired or used"
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Email already registered"
// @Router       /workspaces/invitations/{token}/accept [post]
func AcceptInvitation(c *gin.Context) {
	var input AcceptInvitationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	var newUserID uint
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var invitation models.WorkspaceInvitation
		if err := tx.Where("token = ?", c.Param("token")).First(&invitation).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errInvitationNotFound
			}
			return err
		}

		if invitation.Expired() {
			return errInvitationExpired
		}
		if invitation.Used {
			return errInvitationUsed
		}

		var existing models.User
		if err := tx.Where("email = ?", invitation.Email).First(&existing).Error; err == nil {
			return errEmailTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		user := models.User{
			Name:         input.Name,
			Email:        invitation.Email,
			PasswordHash: string(hashedPassword),
			Role:         models.RoleUser,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		if err := tx.Create(&models.UserWorkspace{
			UserID:      user.ID,
			WorkspaceID: invitation.WorkspaceID,
			Role:        invitation.Role,
		}).Error; err != nil {
			return err
		}

		// Guarded flip of the used flag: under concurrent accepts exactly
		// one transaction sees RowsAffected == 1, every other one rolls
		// back here.
		res := tx.Model(&models.WorkspaceInvitation{}).
			Where("id = ? AND used = ?", invitation.ID, false).
			Update("used", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errInvitationUsed
		}

		newUserID = user.ID
		return nil
	})

	switch {
	case errors.Is(err, errInvitationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid or expired invitation"})
		return
	case errors.Is(err, errInvitationExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invitation has expired"})
		return
	case errors.Is(err, errInvitationUsed):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invitation has already been used"})
		return
	case errors.Is(err, errEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accept invitation"})
		return
	}

	token, err := jwt.GenerateToken(newUserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Account created and joined workspace successfully",
		"token":   token,
	})
}

// endregion

// region --- Helpers ---

func newInvitationToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// sendMailAsync delivers mail off the request path. Failures are logged and
// never surface to the caller.
func sendMailAsync(to, subject, body string) {
	go func() {
		if err := Mail.Send(to, subject, body); err != nil {
			logrus.WithError(err).WithField("to", to).Error("failed to send email")
		}
	}()
}

// endregion
