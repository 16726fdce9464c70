package handler

import (
	"strconv"

	"github.com/pluto-chenxin/game-master-support/internal/models"

	"github.com/gin-gonic/gin"
)

// ReportPage is the payload shape for paginated report listings.
type ReportPage struct {
	Reports    []models.Report `json:"reports"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"totalPages"`
}

// newReportPage wraps a result slice with its pagination metadata.
func newReportPage(reports []models.Report, total int64, page, limit int) ReportPage {
	if limit <= 0 {
		limit = 1
	}
	return ReportPage{
		Reports:    reports,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (int(total) + limit - 1) / limit,
	}
}

// parsePagination reads page/limit query parameters with sane bounds.
func parsePagination(c *gin.Context) (page, limit, offset int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err = strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100 // Max limit
	}

	offset = (page - 1) * limit
	return page, limit, offset
}
