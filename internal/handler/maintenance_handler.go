package handler

import (
	"errors"
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

type MaintenanceInput struct {
	Description string    `json:"description" binding:"required"`
	Status      string    `json:"status"`
	FixDate     time.Time `json:"fixDate" binding:"required"`
	PuzzleID    uint      `json:"puzzleId" binding:"required"`
}

type MaintenanceUpdateInput struct {
	Description string    `json:"description" binding:"required"`
	Status      string    `json:"status"`
	FixDate     time.Time `json:"fixDate" binding:"required"`
}

// ListMaintenance godoc
// @Summary      List maintenance records in a workspace
// @Description  Returns every maintenance record of the resolved workspace. Without a usable workspace context the list is empty.
// @Tags         maintenance
// @Produce      json
// @Security     BearerAuth
// @Param        workspaceId query int false "Workspace ID override"
// @Success      200  {array}  models.Maintenance
// @Failure      401  {object}  ErrorResponse
// @Router       /maintenance [get]
func ListMaintenance(c *gin.Context) {
	workspaceID, ok, err := resolveListWorkspace(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check workspace access"})
		return
	}
	if !ok {
		c.JSON(http.StatusOK, []models.Maintenance{})
		return
	}

	records := []models.Maintenance{}
	err = database.DB.Preload("Puzzle").Preload("Puzzle.Game").
		Joins("JOIN puzzles ON puzzles.id = maintenances.puzzle_id AND puzzles.deleted_at IS NULL").
		Joins("JOIN games ON games.id = puzzles.game_id AND games.deleted_at IS NULL").
		Where("games.workspace_id = ?", workspaceID).
		Find(&records).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve maintenance records"})
		return
	}

	c.JSON(http.StatusOK, records)
}

// GetMaintenance godoc
// @Summary      Get a maintenance record
// @Tags         maintenance
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Maintenance ID"
// @Success      200  {object}  models.Maintenance
// @Failure      404  {object}  ErrorResponse
// @Router       /maintenance/{id} [get]
func GetMaintenance(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid maintenance ID"})
		return
	}

	record, ok := loadMaintenanceForCaller(c, uint(id))
	if !ok {
		return
	}

	c.JSON(http.StatusOK, record)
}

// CreateMaintenance godoc
// @Summary      Create a maintenance record
// @Tags         maintenance
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body MaintenanceInput true "Maintenance Info"
// @Success      201  {object}  models.Maintenance
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Puzzle not found"
// @Router       /maintenance [post]
func CreateMaintenance(c *gin.Context) {
	var input MaintenanceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, ok := loadPuzzleForCaller(c, input.PuzzleID); !ok {
		return
	}

	if input.Status == "" {
		input.Status = "pending"
	}

	record := models.Maintenance{
		Description: input.Description,
		Status:      input.Status,
		FixDate:     input.FixDate,
		PuzzleID:    input.PuzzleID,
	}
	if err := database.DB.Create(&record).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create maintenance record"})
		return
	}

	c.JSON(http.StatusCreated, record)
}

// UpdateMaintenance godoc
// @Summary      Update a maintenance record
// @Tags         maintenance
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Maintenance ID"
// @Param        input body MaintenanceUpdateInput true "New Maintenance Info"
// @Success      200  {object}  models.Maintenance
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /maintenance/{id} [put]
func UpdateMaintenance(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid maintenance ID"})
		return
	}

	record, ok := loadMaintenanceForCaller(c, uint(id))
	if !ok {
		return
	}

	var input MaintenanceUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record.Description = input.Description
	if input.Status != "" {
		record.Status = input.Status
	}
	record.FixDate = input.FixDate
	record.Puzzle = nil

	if err := database.DB.Save(record).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update maintenance record"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// DeleteMaintenance godoc
// @Summary      Delete a maintenance record
// @Tags         maintenance
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Maintenance ID"
// @Success      204  "No Content"
// @Failure      404  {object}  ErrorResponse
// @Router       /maintenance/{id} [delete]
func DeleteMaintenance(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid maintenance ID"})
		return
	}

	record, ok := loadMaintenanceForCaller(c, uint(id))
	if !ok {
		return
	}

	if err := database.DB.Delete(&models.Maintenance{}, record.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete maintenance record"})
		return
	}

	c.Status(http.StatusNoContent)
}

func loadMaintenanceForCaller(c *gin.Context, recordID uint) (*models.Maintenance, bool) {
	var record models.Maintenance
	if err := database.DB.Preload("Puzzle").Preload("Puzzle.Game").First(&record, recordID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Maintenance record not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load maintenance record"})
		}
		return nil, false
	}

	membership, err := workspace.GetMembership(database.DB, auth.CurrentUserID(c), record.Puzzle.Game.WorkspaceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check workspace access"})
		return nil, false
	}
	if membership == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Maintenance record not found"})
		return nil, false
	}

	return &record, true
}
