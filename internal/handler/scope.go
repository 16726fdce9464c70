package handler

import (
	"errors"
	"net/http"

	"github.com/pluto-chenxin/game-master-support/internal/auth"
	"github.com/pluto-chenxin/game-master-support/internal/database"
	"github.com/pluto-chenxin/game-master-support/internal/models"
	"github.com/pluto-chenxin/game-master-support/internal/workspace"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// resolveListWorkspace determines the workspace a collection read should be
// filtered by. ok=false means the caller has no usable workspace context or
// no membership in the candidate workspace; list endpoints then degrade to
// an empty result instead of failing, so a client without a selected
// workspace sees empty state rather than a 403.
func resolveListWorkspace(c *gin.Context) (workspaceID uint, ok bool, err error) {
	candidate, found := auth.ResolveWorkspaceID(c)
	if !found {
		return 0, false, nil
	}

	membership, err := workspace.GetMembership(database.DB, auth.CurrentUserID(c), candidate)
	if err != nil {
		return 0, false, err
	}
	if membership == nil {
		return 0, false, nil
	}
	return candidate, true, nil
}

// loadGameForCaller loads a game and verifies the caller is a member of its
// workspace. Cross-workspace access is answered with the same 404 as a
// missing game so existence never leaks across tenant boundaries. On
// failure a response has already been written and ok is false.
func loadGameForCaller(c *gin.Context, gameID uint) (*models.Game, bool) {
	var game models.Game
	if err := database.DB.First(&game, gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load game"})
		}
		return nil, false
	}

	membership, err := workspace.GetMembership(database.DB, auth.CurrentUserID(c), game.WorkspaceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check workspace access"})
		return nil, false
	}
	if membership == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return nil, false
	}

	return &game, true
}

// loadPuzzleForCaller loads a puzzle and authorizes it by walking up to the
// owning game's workspace. Same 404 policy as loadGameForCaller.
func loadPuzzleForCaller(c *gin.Context, puzzleID uint) (*models.Puzzle, bool) {
	var puzzle models.Puzzle
	if err := database.DB.Preload("Game").First(&puzzle, puzzleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Puzzle not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load puzzle"})
		}
		return nil, false
	}

	membership, err := workspace.GetMembership(database.DB, auth.CurrentUserID(c), puzzle.Game.WorkspaceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check workspace access"})
		return nil, false
	}
	if membership == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Puzzle not found"})
		return nil, false
	}

	return &puzzle, true
}
