package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pluto-chenxin/game-master-support/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	maxUploadSize    = 5 << 20 // 5MB per file
	maxUploadedFiles = 10
)

// UploadResult describes one stored file.
type UploadResult struct {
	FilePath     string `json:"filePath"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalname"`
	Size         int64  `json:"size"`
}

// UploadImage godoc
// @Summary      Upload a single image
// @Description  Accepts one multipart image under the "image" field, at most 5MB, and returns the stable path to reference it by.
// @Tags         uploads
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        image formData file true "Image file"
// @Success      200  {object}  UploadResult
// @Failure      400  {object}  ErrorResponse
// @Router       /uploads [post]
func UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	result, err := storeUpload(c, file)
	if err != nil {
		return
	}

	c.JSON(http.StatusOK, result)
}

// UploadImages godoc
// @Summary      Upload multiple images
// @Description  Accepts up to 10 multipart images under the "images" field.
// @Tags         uploads
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        images formData file true "Image files"
// @Success      200  {object}  map[string][]UploadResult
// @Failure      400  {object}  ErrorResponse
// @Router       /uploads/multiple [post]
func UploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}
	if len(files) > maxUploadedFiles {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Too many files"})
		return
	}

	uploads := make([]UploadResult, 0, len(files))
	for _, file := range files {
		result, err := storeUpload(c, file)
		if err != nil {
			return
		}
		uploads = append(uploads, *result)
	}

	c.JSON(http.StatusOK, gin.H{"uploads": uploads})
}

// GetUpload godoc
// @Summary      Retrieve an uploaded image
// @Tags         uploads
// @Produce      octet-stream
// @Param        filename path string true "Stored filename"
// @Success      200  {file}  file
// @Failure      404  {object}  ErrorResponse
// @Router       /uploads/{filename} [get]
func GetUpload(c *gin.Context) {
	filename := filepath.Base(c.Param("filename"))

	reader, err := Uploads.Open(c.Request.Context(), filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		} else {
			logrus.WithError(err).Error("failed to open upload")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve image"})
		}
		return
	}
	defer reader.Close()

	c.DataFromReader(http.StatusOK, -1, contentTypeFor(filename), reader, nil)
}

// DeleteUpload godoc
// @Summary      Delete an uploaded image
// @Tags         uploads
// @Produce      json
// @Security     BearerAuth
// @Param        filename path string true "Stored filename"
// @Success      204  "No Content"
// @Failure      404  {object}  ErrorResponse
// @Router       /uploads/{filename} [delete]
func DeleteUpload(c *gin.Context) {
	filename := filepath.Base(c.Param("filename"))

	if err := Uploads.Delete(c.Request.Context(), filename); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		} else {
			logrus.WithError(err).Error("failed to delete upload")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete image"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// storeUpload validates one multipart file and writes it to the blob store
// under a generated name. On failure a response has already been written.
func storeUpload(c *gin.Context, file *multipart.FileHeader) (*UploadResult, error) {
	if file.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File exceeds the 5MB size limit"})
		return nil, errors.New("file too large")
	}
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only image files are allowed"})
		return nil, errors.New("not an image")
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return nil, err
	}
	defer src.Close()

	filename := "puzzle-" + uuid.NewString() + filepath.Ext(file.Filename)
	if err := Uploads.Save(c.Request.Context(), filename, src); err != nil {
		logrus.WithError(err).Error("failed to store upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store uploaded file"})
		return nil, err
	}

	return &UploadResult{
		FilePath:     "/api/uploads/" + filename,
		Filename:     filename,
		OriginalName: file.Filename,
		Size:         file.Size,
	}, nil
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	default:
		return "image/jpeg"
	}
}
