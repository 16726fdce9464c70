package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/pluto-chenxin/game-master-support/internal/config"
	"github.com/pluto-chenxin/game-master-support/internal/database"
	"github.com/pluto-chenxin/game-master-support/internal/models"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// WorkspaceHeader carries the caller's currently selected workspace. It is
// untrusted client input and is re-validated against the membership table
// on every request that uses it.
const WorkspaceHeader = "X-Workspace-ID"

// AuthMiddleware creates a gin middleware that resolves the bearer token to
// a user. Tokens of users that no longer exist are rejected the same way as
// invalid tokens.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		token, err := gojwt.Parse(parts[1], func(token *gojwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*gojwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(config.AppConfig.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		claims, ok := token.Claims.(gojwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		userIDFloat, ok := claims["sub"].(float64)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		var user models.User
		if err := database.DB.First(&user, uint(userIDFloat)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// A stale token for a deleted user is unauthenticated, not a 404.
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve user"})
			return
		}

		c.Set("userID", user.ID)

		if header := c.GetHeader(WorkspaceHeader); header != "" {
			if id, parseErr := strconv.ParseUint(header, 10, 32); parseErr == nil {
				c.Set("currentWorkspaceID", uint(id))
			}
		}

		c.Next()
	}
}

// CurrentUserID returns the authenticated user's ID. It must only be called
// behind AuthMiddleware.
func CurrentUserID(c *gin.Context) uint {
	userID, _ := c.Get("userID")
	return userID.(uint)
}

// ResolveWorkspaceID determines the target workspace for a request: an
// explicit workspaceId query parameter wins, otherwise the workspace header
// captured by AuthMiddleware. Both are candidates only; membership is
// checked separately.
func ResolveWorkspaceID(c *gin.Context) (uint, bool) {
	if q := c.Query("workspaceId"); q != "" {
		if id, err := strconv.ParseUint(q, 10, 32); err == nil {
			return uint(id), true
		}
		return 0, false
	}
	if current, exists := c.Get("currentWorkspaceID"); exists {
		return current.(uint), true
	}
	return 0, false
}
