package auth

import (
	"net/http"
	"strconv"

	"github.com/pluto-chenxin/game-master-support/internal/database"
	"github.com/pluto-chenxin/game-master-support/internal/models"
	"github.com/pluto-chenxin/game-master-support/internal/workspace"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequireWorkspaceRole creates a gin middleware that admits the request only
// if the caller holds a membership in the :workspaceId route parameter's
// workspace with at least the required role. On success the resolved
// workspace id and role are attached to the request context.
// It must be used AFTER AuthMiddleware.
func RequireWorkspaceRole(required models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		workspaceID, err := strconv.ParseUint(c.Param("workspaceId"), 10, 32)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Workspace ID is required"})
			return
		}

		userID := CurrentUserID(c)

		membership, err := workspace.GetMembership(database.DB, userID, uint(workspaceID))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to check workspace access"})
			return
		}
		if membership == nil {
			logrus.WithFields(logrus.Fields{
				"user":      userID,
				"workspace": workspaceID,
			}).Info("workspace access denied: no membership")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have access to this workspace"})
			return
		}

		if !membership.Role.Satisfies(required) {
			logrus.WithFields(logrus.Fields{
				"user":      userID,
				"workspace": workspaceID,
				"role":      membership.Role,
				"required":  required,
			}).Info("workspace access denied: insufficient role")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}

		c.Set("workspaceID", uint(workspaceID))
		c.Set("workspaceRole", membership.Role)
		c.Next()
	}
}

// WorkspaceID returns the workspace id attached by RequireWorkspaceRole.
func WorkspaceID(c *gin.Context) uint {
	id, _ := c.Get("workspaceID")
	return id.(uint)
}

// WorkspaceRole returns the caller's role attached by RequireWorkspaceRole.
func WorkspaceRole(c *gin.Context) models.Role {
	role, _ := c.Get("workspaceRole")
	return role.(models.Role)
}
