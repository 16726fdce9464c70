package handler

import (
	"net/http"
	"strconv"

	"github.com/pluto-chenxin/game-master-support/internal/database"
	"github.com/pluto-chenxin/game-master-support/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// region --- DTOs ---

type PuzzleInput struct {
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	Status      models.PuzzleStatus `json:"status"`
	Difficulty  int                 `json:"difficulty"`
	ImageURL    string              `json:"imageUrl"`
	GameID      uint                `json:"gameId" binding:"required"`
}

type PuzzleUpdateInput struct {
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	Status      models.PuzzleStatus `json:"status"`
	Difficulty  int                 `json:"difficulty"`
	ImageURL    string              `json:"imageUrl"`
}

// endregion

// region --- Handlers ---

// ListPuzzles godoc
// @Summary      List puzzles in a workspace
// @Description  Returns every puzzle of the resolved workspace, joined through its game. Without a usable workspace context the list is empty.
// @Tags         puzzles
// @Produce      json
// @Security     BearerAuth
// @Param        workspaceId query int false "Workspace ID override"
// @Success      200  {array}  PuzzleSummary
// @Failure      401  {object}  ErrorResponse
// @Router       /puzzles [get]
func ListPuzzles(c *gin.Context) {
	workspaceID, ok, err := resolveListWorkspace(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check workspace access"})
		return
	}
	if !ok {
		c.JSON(http.StatusOK, []PuzzleSummary{})
		return
	}

	var puzzles []models.Puzzle
	err = database.DB.Preload("Game").
		Joins("JOIN games ON games.id = puzzles.game_id AND games.deleted_at IS NULL").
		Where("games.workspace_id = ?", workspaceID).
		Find(&puzzles).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve puzzles"})
		return
	}

	summaries := make([]PuzzleSummary, 0, len(puzzles))
	for _, puzzle := range puzzles {
		summary := PuzzleSummary{Puzzle: puzzle}
		if err := database.DB.Model(&models.Hint{}).
			Where("puzzle_id = ?", puzzle.ID).Count(&summary.HintCount).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve puzzles"})
			return
		}
		if err := database.DB.Model(&models.Maintenance{}).
			Where("puzzle_id = ?", puzzle.ID).Count(&summary.MaintenanceCount).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve puzzles"})
			return
		}
		summaries = append(summaries, summary)
	}

	c.JSON(http.StatusOK, summaries)
}

// CreatePuzzle godoc
// @Summary      Create a puzzle
// @Description  Creates a puzzle under a game. The puzzle's workspace is the game's workspace, always.
// @Tags         puzzles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body PuzzleInput true "Puzzle Info"
// @Success      201  {object}  models.Puzzle
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Game not found"
// @Router       /puzzles [post]
func CreatePuzzle(c *gin.Context) {
	var input PuzzleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Status == "" {
		input.Status = models.PuzzleStatusActive
	}
	if !input.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be active, needs_attention or in_maintenance"})
		return
	}
	if input.Difficulty == 0 {
		input.Difficulty = 1
	}
	if input.Difficulty < 1 || input.Difficulty > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Difficulty must be between 1 and 5"})
		return
	}

	if _, ok := loadGameForCaller(c, input.GameID); !ok {
		return
	}

	puzzle := models.Puzzle{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		Difficulty:  input.Difficulty,
		ImageURL:    input.ImageURL,
		GameID:      input.GameID,
	}
	if err := database.DB.Create(&puzzle).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create puzzle"})
		return
	}

	c.JSON(http.StatusCreated, puzzle)
}

// GetPuzzle godoc
// @Summary      Get a puzzle
// @Description  Returns the puzzle with its game, hints, maintenance records and images.
// @Tags         puzzles
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Puzzle ID"
// @Success      200  {object}  models.Puzzle
// @Failure      404  {object}  ErrorResponse
// @Router       /puzzles/{id} [get]
func GetPuzzle(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid puzzle ID"})
		return
	}

	puzzle, ok := loadPuzzleForCaller(c, uint(id))
	if !ok {
		return
	}

	err = database.DB.Preload("Game").Preload("Hints").Preload("Maintenance").Preload("Images").
		First(puzzle, puzzle.ID).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load puzzle"})
		return
	}

	c.JSON(http.StatusOK, puzzle)
}

// UpdatePuzzle godoc
// @Summary      Update a puzzle
// @Tags         puzzles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Puzzle ID"
// @Param        input body PuzzleUpdateInput true "New Puzzle Info"
// @Success      200  {object}  models.Puzzle
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /puzzles/{id} [put]
func UpdatePuzzle(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid puzzle ID"})
		return
	}

	puzzle, ok := loadPuzzleForCaller(c, uint(id))
	if !ok {
		return
	}

	var input PuzzleUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Status == "" {
		input.Status = puzzle.Status
	}
	if !input.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be active, needs_attention or in_maintenance"})
		return
	}
	if input.Difficulty == 0 {
		input.Difficulty = puzzle.Difficulty
	}
	if input.Difficulty < 1 || input.Difficulty > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Difficulty must be between 1 and 5"})
		return
	}

	puzzle.Title = input.Title
	puzzle.Description = input.Description
	puzzle.Status = input.Status
	puzzle.Difficulty = input.Difficulty
	puzzle.ImageURL = input.ImageURL
	puzzle.Game = nil

	if err := database.DB.Save(puzzle).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update puzzle"})
		return
	}

	c.JSON(http.StatusOK, puzzle)
}

// DeletePuzzle godoc
// @Summary      Delete a puzzle
// @Description  Deletes the puzzle and cascades to its hints, maintenance records and images; reports keep their game but lose the puzzle reference.
// @Tags         puzzles
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Puzzle ID"
// @Success      204  "No Content"
// @Failure      404  {object}  ErrorResponse
// @Router       /puzzles/{id} [delete]
func DeletePuzzle(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid puzzle ID"})
		return
	}

	puzzle, ok := loadPuzzleForCaller(c, uint(id))
	if !ok {
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("puzzle_id = ?", puzzle.ID).Delete(&models.Hint{}).Error; err != nil {
			return err
		}
		if err := tx.Where("puzzle_id = ?", puzzle.ID).Delete(&models.Maintenance{}).Error; err != nil {
			return err
		}
		if err := tx.Where("puzzle_id = ?", puzzle.ID).Delete(&models.PuzzleImage{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Report{}).Where("puzzle_id = ?", puzzle.ID).
			Update("puzzle_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Puzzle{}, puzzle.ID).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete puzzle"})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetPuzzleHints godoc
// @Summary      List a puzzle's hints
// @Tags         puzzles
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Puzzle ID"
// @Success      200  {array}   models.Hint
// @Failure      404  {object}  ErrorResponse
// @Router       /puzzles/{id}/hints [get]
func GetPuzzleHints(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid puzzle ID"})
		return
	}

	puzzle, ok := loadPuzzleForCaller(c, uint(id))
	if !ok {
		return
	}

	hints := []models.Hint{}
	if err := database.DB.Where("puzzle_id = ?", puzzle.ID).Find(&hints).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve hints"})
		return
	}
	c.JSON(http.StatusOK, hints)
}

// GetPuzzleMaintenance godoc
// @Summary      List a puzzle's maintenance records
// @Tags         puzzles
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Puzzle ID"
// @Success      200  {array}   models.Maintenance
// @Failure      404  {object}  ErrorResponse
// @Router       /puzzles/{id}/maintenance [get]
func GetPuzzleMaintenance(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid puzzle ID"})
		return
	}

	puzzle, ok := loadPuzzleForCaller(c, uint(id))
	if !ok {
		return
	}

	records := []models.Maintenance{}
	if err := database.DB.Where("puzzle_id = ?", puzzle.ID).Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve maintenance records"})
		return
	}
	c.JSON(http.StatusOK, records)
}

// endregion
