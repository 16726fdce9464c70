package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/pluto-chenxin/game-master-support/internal/auth"
	"github.com/pluto-chenxin/game-master-support/internal/database"
	"github.com/pluto-chenxin/game-master-support/internal/models"
	"github.com/pluto-chenxin/game-master-support/internal/workspace"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// region --- DTOs ---

type GameInput struct {
	Name         string     `json:"name" binding:"required"`
	Genre        string     `json:"genre" binding:"required"`
	ReleaseDate  *time.Time `json:"releaseDate"`
	PurchaseDate *time.Time `json:"purchaseDate"`
	Description  string     `json:"description"`
	ImageURL     string     `json:"imageUrl"`
	WorkspaceID  *uint      `json:"workspaceId"`
}

// GameUpdateInput deliberately has no workspace field: a game's workspace
// is fixed at creation.
type GameUpdateInput struct {
	Name         string     `json:"name" binding:"required"`
	Genre        string     `json:"genre" binding:"required"`
	ReleaseDate  *time.Time `json:"releaseDate"`
	PurchaseDate *time.Time `json:"purchaseDate"`
	Description  string     `json:"description"`
	ImageURL     string     `json:"imageUrl"`
}

// GameSummary is a game with its puzzle count, as rendered in list views.
type GameSummary struct {
	models.Game
	PuzzleCount int64 `json:"puzzleCount"`
}

// PuzzleSummary is a puzzle with its hint and maintenance counts.
type PuzzleSummary struct {
	models.Puzzle
	HintCount        int64 `json:"hintCount"`
	MaintenanceCount int64 `json:"maintenanceCount"`
}

// endregion

// region --- Handlers ---

// ListGames godoc
// @Summary      List games in a workspace
// @Description  Returns the games of the resolved workspace. Without a usable workspace context the list is empty.
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        workspaceId query int false "Workspace ID override"
// @Success      200  {array}  GameSummary
// @Failure      401  {object}  ErrorResponse
// @Router       /games [get]
func ListGames(c *gin.Context) {
	workspaceID, ok, err := resolveListWorkspace(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check workspace access"})
		return
	}
	if !ok {
		c.JSON(http.StatusOK, []GameSummary{})
		return
	}

	var games []models.Game
	if err := database.DB.Where("workspace_id = ?", workspaceID).Find(&games).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve games"})
		return
	}

	counts, err := puzzleCounts(games)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve games"})
		return
	}

	response := make([]GameSummary, 0, len(games))
	for _, game := range games {
		response = append(response, GameSummary{Game: game, PuzzleCount: counts[game.ID]})
	}
	c.JSON(http.StatusOK, response)
}

// CreateGame godoc
// @Summary      Create a game
// @Description  Creates a game in the workspace from the body, query or workspace header. Requires membership in that workspace.
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body GameInput true "Game Info"
// @Success      201  {object}  models.Game
// @Failure      400  {object}  ErrorResponse "Workspace ID required"
// @Failure      403  {object}  ErrorResponse
// @Router       /games [post]
func CreateGame(c *gin.Context) {
	var input GameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var workspaceID uint
	if input.WorkspaceID != nil {
		workspaceID = *input.WorkspaceID
	} else if id, found := auth.ResolveWorkspaceID(c); found {
		workspaceID = id
	} else {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Workspace ID is required"})
		return
	}

	membership, err := workspace.GetMembership(database.DB, auth.CurrentUserID(c), workspaceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check workspace access"})
		return
	}
	if membership == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this workspace"})
		return
	}

	game := models.Game{
		Name:         input.Name,
		Genre:        input.Genre,
		ReleaseDate:  input.ReleaseDate,
		PurchaseDate: input.PurchaseDate,
		Description:  input.Description,
		ImageURL:     input.ImageURL,
		WorkspaceID:  workspaceID,
	}
	if err := database.DB.Create(&game).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create game"})
		return
	}

	c.JSON(http.StatusCreated, game)
}

// GetGame godoc
// @Summary      Get a game
// @Description  Returns the game with its puzzles and their hint/maintenance counts.
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Game ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /games/{id} [get]
func GetGame(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid game ID"})
		return
	}

	game, ok := loadGameForCaller(c, uint(id))
	if !ok {
		return
	}

	puzzles, err := gamePuzzleSummaries(game.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve puzzles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           game.ID,
		"name":         game.Name,
		"genre":        game.Genre,
		"releaseDate":  game.ReleaseDate,
		"purchaseDate": game.PurchaseDate,
		"description":  game.Description,
		"imageUrl":     game.ImageURL,
		"workspaceId":  game.WorkspaceID,
		"createdAt":    game.CreatedAt,
		"updatedAt":    game.UpdatedAt,
		"puzzles":      puzzles,
	})
}

// UpdateGame godoc
// @Summary      Update a game
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Game ID"
// @Param        input body GameUpdateInput true "New Game Info"
// @Success      200  {object}  models.Game
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /games/{id} [put]
func UpdateGame(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid game ID"})
		return
	}

	game, ok := loadGameForCaller(c, uint(id))
	if !ok {
		return
	}

	var input GameUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	game.Name = input.Name
	game.Genre = input.Genre
	game.ReleaseDate = input.ReleaseDate
	game.PurchaseDate = input.PurchaseDate
	game.Description = input.Description
	game.ImageURL = input.ImageURL

	if err := database.DB.Save(game).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update game"})
		return
	}

	c.JSON(http.StatusOK, game)
}

// DeleteGame godoc
// @Summary      Delete a game
// @Description  Deletes the game and cascades to its puzzles, hints, maintenance, images and reports in one transaction.
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Game ID"
// @Success      204  "No Content"
// @Failure      404  {object}  ErrorResponse
// @Router       /games/{id} [delete]
func DeleteGame(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid game ID"})
		return
	}

	game, ok := loadGameForCaller(c, uint(id))
	if !ok {
		return
	}

	// Children must go in the same transaction: an orphaned puzzle or
	// report would still be reachable by id with no workspace left to
	// authorize against.
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		puzzleIDs := tx.Model(&models.Puzzle{}).Select("id").Where("game_id = ?", game.ID)
		if err := tx.Where("puzzle_id IN (?)", puzzleIDs).Delete(&models.Hint{}).Error; err != nil {
			return err
		}
		if err := tx.Where("puzzle_id IN (?)", puzzleIDs).Delete(&models.Maintenance{}).Error; err != nil {
			return err
		}
		if err := tx.Where("puzzle_id IN (?)", puzzleIDs).Delete(&models.PuzzleImage{}).Error; err != nil {
			return err
		}

		reportIDs := tx.Model(&models.Report{}).Select("id").Where("game_id = ?", game.ID)
		if err := tx.Where("report_id IN (?)", reportIDs).Delete(&models.ReportImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("game_id = ?", game.ID).Delete(&models.Report{}).Error; err != nil {
			return err
		}

		if err := tx.Where("game_id = ?", game.ID).Delete(&models.Puzzle{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Game{}, game.ID).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete game"})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetGamePuzzles godoc
// @Summary      List a game's puzzles
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Game ID"
// @Success      200  {array}   PuzzleSummary
// @Failure      404  {object}  ErrorResponse
// @Router       /games/{id}/puzzles [get]
func GetGamePuzzles(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid game ID"})
		return
	}

	game, ok := loadGameForCaller(c, uint(id))
	if !ok {
		return
	}

	puzzles, err := gamePuzzleSummaries(game.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve puzzles"})
		return
	}

	c.JSON(http.StatusOK, puzzles)
}

// endregion

// region --- Helpers ---

func puzzleCounts(games []models.Game) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(games))
	if len(games) == 0 {
		return counts, nil
	}

	gameIDs := make([]uint, 0, len(games))
	for _, g := range games {
		gameIDs = append(gameIDs, g.ID)
	}

	var rows []struct {
		GameID uint
		Count  int64
	}
	err := database.DB.Model(&models.Puzzle{}).
		Select("game_id, count(*) as count").
		Where("game_id IN ?", gameIDs).
		Group("game_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.GameID] = row.Count
	}
	return counts, nil
}

func gamePuzzleSummaries(gameID uint) ([]PuzzleSummary, error) {
	var puzzles []models.Puzzle
	if err := database.DB.Where("game_id = ?", gameID).Find(&puzzles).Error; err != nil {
		return nil, err
	}

	summaries := make([]PuzzleSummary, 0, len(puzzles))
	for _, puzzle := range puzzles {
		summary := PuzzleSummary{Puzzle: puzzle}

		if err := database.DB.Model(&models.Hint{}).
			Where("puzzle_id = ?", puzzle.ID).Count(&summary.HintCount).Error; err != nil {
			return nil, err
		}
		if err := database.DB.Model(&models.Maintenance{}).
			Where("puzzle_id = ?", puzzle.ID).Count(&summary.MaintenanceCount).Error; err != nil {
			return nil, err
		}

		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// endregion
