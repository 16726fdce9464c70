package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/pluto-chenxin/game-master-support/internal/auth"
	"github.com/pluto-chenxin/game-master-support/internal/database"
	"github.com/pluto-chenxin/game-master-support/internal/models"
	"github.com/pluto-chenxin/game-master-support/internal/workspace"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HintInput struct {
	Content   string `json:"content" binding:"required"`
	IsPremium bool   `json:"isPremium"`
	IsUsed    bool   `json:"isUsed"`
	PuzzleID  uint   `json:"puzzleId" binding:"required"`
}

type HintUpdateInput struct {
	Content   string `json:"content" binding:"required"`
	IsPremium bool   `json:"isPremium"`
	IsUsed    bool   `json:"isUsed"`
}

// ListHints godoc
// @Summary      List hints in a workspace
// @Description  Returns every hint of the resolved workspace, joined up through puzzle and game. Without a usable workspace context the list is empty.
// @Tags         hints
// @Produce      json
// @Security     BearerAuth
// @Param        workspaceId query int false "Workspace ID override"
// @Success      200  {array}  models.Hint
// @Failure      401  {object}  ErrorResponse
// @Router       /hints [get]
func ListHints(c *gin.Context) {
	workspaceID, ok, err := resolveListWorkspace(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check workspace access"})
		return
	}
	if !ok {
		c.JSON(http.StatusOK, []models.Hint{})
		return
	}

	hints := []models.Hint{}
	err = database.DB.Preload("Puzzle").Preload("Puzzle.Game").
		Joins("JOIN puzzles ON puzzles.id = hints.puzzle_id AND puzzles.deleted_at IS NULL").
		Joins("JOIN games ON games.id = puzzles.game_id AND games.deleted_at IS NULL").
		Where("games.workspace_id = ?", workspaceID).
		Find(&hints).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve hints"})
		return
	}

	c.JSON(http.StatusOK, hints)
}

// GetHint godoc
// @Summary      Get a hint
// @Tags         hints
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Hint ID"
// @Success      200  {object}  models.Hint
// @Failure      404  {object}  ErrorResponse
// @Router       /hints/{id} [get]
func GetHint(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid hint ID"})
		return
	}

	hint, ok := loadHintForCaller(c, uint(id))
	if !ok {
		return
	}

	c.JSON(http.StatusOK, hint)
}

// CreateHint godoc
// @Summary      Create a hint
// @Tags         hints
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body HintInput true "Hint Info"
// @Success      201  {object}  models.Hint
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Puzzle not found"
// @Router       /hints [post]
func CreateHint(c *gin.Context) {
	var input HintInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, ok := loadPuzzleForCaller(c, input.PuzzleID); !ok {
		return
	}

	hint := models.Hint{
		Content:   input.Content,
		IsPremium: input.IsPremium,
		IsUsed:    input.IsUsed,
		PuzzleID:  input.PuzzleID,
	}
	if err := database.DB.Create(&hint).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create hint"})
		return
	}

	c.JSON(http.StatusCreated, hint)
}

// UpdateHint godoc
// @Summary      Update a hint
// @Tags         hints
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Hint ID"
// @Param        input body HintUpdateInput true "New Hint Info"
// @Success      200  {object}  models.Hint
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /hints/{id} [put]
func UpdateHint(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid hint ID"})
		return
	}

	hint, ok := loadHintForCaller(c, uint(id))
	if !ok {
		return
	}

	var input HintUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hint.Content = input.Content
	hint.IsPremium = input.IsPremium
	hint.IsUsed = input.IsUsed
	hint.Puzzle = nil

	if err := database.DB.Save(hint).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update hint"})
		return
	}

	c.JSON(http.StatusOK, hint)
}

// DeleteHint godoc
// @Summary      Delete a hint
// @Tags         hints
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Hint ID"
// @Success      204  "No Content"
// @Failure      404  {object}  ErrorResponse
// @Router       /hints/{id} [delete]
func DeleteHint(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid hint ID"})
		return
	}

	hint, ok := loadHintForCaller(c, uint(id))
	if !ok {
		return
	}

	if err := database.DB.Delete(&models.Hint{}, hint.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete hint"})
		return
	}

	c.Status(http.StatusNoContent)
}

// loadHintForCaller loads a hint and authorizes it by walking up through
// its puzzle to the owning game's workspace.
func loadHintForCaller(c *gin.Context, hintID uint) (*models.Hint, bool) {
	var hint models.Hint
	if err := database.DB.Preload("Puzzle").Preload("Puzzle.Game").First(&hint, hintID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Hint not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load hint"})
		}
		return nil, false
	}

	membership, err := workspace.GetMembership(database.DB, auth.CurrentUserID(c), hint.Puzzle.Game.WorkspaceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check workspace access"})
		return nil, false
	}
	if membership == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Hint not found"})
		return nil, false
	}

	return &hint, true
}
