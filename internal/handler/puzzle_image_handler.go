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

type PuzzleImageItem struct {
	ImageURL string `json:"imageUrl" binding:"required"`
	Caption  string `json:"caption"`
}

type PuzzleImagesInput struct {
	PuzzleID uint              `json:"puzzleId" binding:"required"`
	Images   []PuzzleImageItem `json:"images" binding:"required"`
}

type PuzzleImageUpdateInput struct {
	Caption   *string `json:"caption"`
	IsPrimary *bool   `json:"isPrimary"`
}

// GetPuzzleImages godoc
// @Summary      List images of a puzzle
// @Description  Returns the puzzle's images with the primary image first.
// @Tags         puzzle-images
// @Produce      json
// @Security     BearerAuth
// @Param        puzzleId path int true "Puzzle ID"
// @Success      200  {array}  models.PuzzleImage
// @Failure      404  {object}  ErrorResponse
// @Router       /puzzle-images/puzzle/{puzzleId} [get]
func GetPuzzleImages(c *gin.Context) {
	puzzleID, err := strconv.ParseUint(c.Param("puzzleId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid puzzle ID"})
		return
	}

	if _, ok := loadPuzzleForCaller(c, uint(puzzleID)); !ok {
		return
	}

	images := []models.PuzzleImage{}
	err = database.DB.Where("puzzle_id = ?", puzzleID).
		Order("is_primary desc, id asc").
		Find(&images).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve images"})
		return
	}

	c.JSON(http.StatusOK, images)
}

// CreatePuzzleImages godoc
// @Summary      Attach images to a puzzle
// @Description  Creates a batch of images for a puzzle. When the puzzle has no images yet, the first of the batch becomes the primary image.
// @Tags         puzzle-images
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body PuzzleImagesInput true "Images"
// @Success      201  {array}  models.PuzzleImage
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /puzzle-images [post]
func CreatePuzzleImages(c *gin.Context) {
	var input PuzzleImagesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, ok := loadPuzzleForCaller(c, input.PuzzleID); !ok {
		return
	}

	created := make([]models.PuzzleImage, 0, len(input.Images))
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.PuzzleImage{}).Where("puzzle_id = ?", input.PuzzleID).Count(&existing).Error; err != nil {
			return err
		}

		for i, item := range input.Images {
			img := models.PuzzleImage{
				ImageURL:  item.ImageURL,
				Caption:   item.Caption,
				IsPrimary: existing == 0 && i == 0,
				PuzzleID:  input.PuzzleID,
			}
			if err := tx.Create(&img).Error; err != nil {
				return err
			}
			created = append(created, img)
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create images"})
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdatePuzzleImage godoc
// @Summary      Update a puzzle image
// @Description  Updates caption and primary flag. Promoting an image to primary demotes every other image of the same puzzle in the same transaction.
// @Tags         puzzle-images
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int                    true "Image ID"
// @Param        input body PuzzleImageUpdateInput true "New Image Info"
// @Success      200  {object}  models.PuzzleImage
// @Failure      404  {object}  ErrorResponse
// @Router       /puzzle-images/{id} [put]
func UpdatePuzzleImage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image ID"})
		return
	}

	image, ok := loadPuzzleImageForCaller(c, uint(id))
	if !ok {
		return
	}

	var input PuzzleImageUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Caption != nil {
		image.Caption = *input.Caption
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if input.IsPrimary != nil {
			if *input.IsPrimary && !image.IsPrimary {
				err := tx.Model(&models.PuzzleImage{}).
					Where("puzzle_id = ? AND id <> ?", image.PuzzleID, image.ID).
					Update("is_primary", false).Error
				if err != nil {
					return err
				}
			}
			image.IsPrimary = *input.IsPrimary
		}
		return tx.Save(image).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update image"})
		return
	}

	c.JSON(http.StatusOK, image)
}

// DeletePuzzleImage godoc
// @Summary      Delete a puzzle image
// @Description  Deletes an image. When the primary image is removed and others remain, the lowest-id remaining image is promoted so the puzzle keeps exactly one primary.
// @Tags         puzzle-images
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Image ID"
// @Success      204  "No Content"
// @Failure      404  {object}  ErrorResponse
// @Router       /puzzle-images/{id} [delete]
func DeletePuzzleImage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image ID"})
		return
	}

	image, ok := loadPuzzleImageForCaller(c, uint(id))
	if !ok {
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.PuzzleImage{}, image.ID).Error; err != nil {
			return err
		}
		if !image.IsPrimary {
			return nil
		}

		var next models.PuzzleImage
		err := tx.Where("puzzle_id = ?", image.PuzzleID).Order("id asc").First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Model(&next).Update("is_primary", true).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete image"})
		return
	}

	c.Status(http.StatusNoContent)
}

// loadPuzzleImageForCaller loads an image and authorizes it by walking
// image -> puzzle -> game -> workspace. Missing and cross-workspace images
// are both answered with the same 404.
func loadPuzzleImageForCaller(c *gin.Context, imageID uint) (*models.PuzzleImage, bool) {
	var image models.PuzzleImage
	if err := database.DB.First(&image, imageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load image"})
		}
		return nil, false
	}

	var puzzle models.Puzzle
	if err := database.DB.Preload("Game").First(&puzzle, image.PuzzleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load image"})
		}
		return nil, false
	}

	membership, err := workspace.GetMembership(database.DB, auth.CurrentUserID(c), puzzle.Game.WorkspaceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check workspace access"})
		return nil, false
	}
	if membership == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		return nil, false
	}

	return &image, true
}
