package handler

import (
	"errors"
	"net/http"
	"sort"
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

type ReportInput struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description" binding:"required"`
	GameID      uint       `json:"gameId" binding:"required"`
	PuzzleID    *uint      `json:"puzzleId"`
	ReportDate  *time.Time `json:"reportDate"`
	Priority    string     `json:"priority"`
	ImageURLs   []string   `json:"imageUrls"`
}

type ReportUpdateInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	Resolution  *string    `json:"resolution"`
	ReportDate  *time.Time `json:"reportDate"`
	ImageURLs   *[]string  `json:"imageUrls"`
}

// PuzzleReportStats is the per-puzzle slice of a game's report statistics.
type PuzzleReportStats struct {
	ID         uint   `json:"id"`
	Title      string `json:"title"`
	Total      int    `json:"total"`
	Open       int    `json:"open"`
	InProgress int    `json:"inProgress"`
	Resolved   int    `json:"resolved"`
}

// GameReportStats aggregates report counts for one game over the stats range.
type GameReportStats struct {
	GameID     uint                `json:"gameId"`
	GameName   string              `json:"gameName"`
	Total      int                 `json:"total"`
	Open       int                 `json:"open"`
	InProgress int                 `json:"inProgress"`
	Resolved   int                 `json:"resolved"`
	Puzzles    []PuzzleReportStats `json:"puzzles"`
}

// endregion

// region --- Handlers ---

// ListReports godoc
// @Summary      List reports in a workspace
// @Description  Paginated report listing filtered by the resolved workspace, with optional status filter and title/description search. Without a usable workspace context the page is empty.
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        workspaceId query int    false "Workspace ID override"
// @Param        status      query string false "Filter by status" Enums(open, in-progress, resolved)
// @Param        search      query string false "Search in title and description"
// @Param        sortOrder   query string false "Sort by report date" Enums(asc, desc) default(desc)
// @Param        page        query int    false "Page number" default(1)
// @Param        limit       query int    false "Items per page" default(10)
// @Success      200  {object}  ReportPage
// @Failure      401  {object}  ErrorResponse
// @Router       /reports [get]
func ListReports(c *gin.Context) {
	page, limit, offset := parsePagination(c)

	workspaceID, ok, err := resolveListWorkspace(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check workspace access"})
		return
	}
	if !ok {
		c.JSON(http.StatusOK, newReportPage([]models.Report{}, 0, page, limit))
		return
	}

	query := database.DB.Model(&models.Report{}).
		Joins("JOIN games ON games.id = reports.game_id AND games.deleted_at IS NULL").
		Where("games.workspace_id = ?", workspaceID)
	query = applyReportFilters(c, query)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count reports"})
		return
	}

	reports := []models.Report{}
	err = query.Preload("Game").Preload("Puzzle").Preload("Images").
		Order("reports.report_date " + reportSortOrder(c)).
		Offset(offset).Limit(limit).
		Find(&reports).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reports"})
		return
	}

	c.JSON(http.StatusOK, newReportPage(reports, total, page, limit))
}

// GetGameReports godoc
// @Summary      List reports for a game
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        gameId    path  int    true  "Game ID"
// @Param        status    query string false "Filter by status" Enums(open, in-progress, resolved)
// @Param        search    query string false "Search in title and description"
// @Param        sortOrder query string false "Sort by report date" Enums(asc, desc) default(desc)
// @Param        page      query int    false "Page number" default(1)
// @Param        limit     query int    false "Items per page" default(10)
// @Success      200  {object}  ReportPage
// @Failure      404  {object}  ErrorResponse
// @Router       /reports/game/{gameId} [get]
func GetGameReports(c *gin.Context) {
	gameID, err := strconv.ParseUint(c.Param("gameId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid game ID"})
		return
	}

	if _, ok := loadGameForCaller(c, uint(gameID)); !ok {
		return
	}

	page, limit, offset := parsePagination(c)

	query := database.DB.Model(&models.Report{}).Where("reports.game_id = ?", gameID)
	query = applyReportFilters(c, query)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count reports"})
		return
	}

	reports := []models.Report{}
	err = query.Preload("Puzzle").Preload("Images").
		Order("reports.report_date " + reportSortOrder(c)).
		Offset(offset).Limit(limit).
		Find(&reports).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reports"})
		return
	}

	c.JSON(http.StatusOK, newReportPage(reports, total, page, limit))
}

// GetPuzzleReports godoc
// @Summary      List reports for a puzzle
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        puzzleId  path  int    true  "Puzzle ID"
// @Param        status    query string false "Filter by status" Enums(open, in-progress, resolved)
// @Param        search    query string false "Search in title and description"
// @Param        sortOrder query string false "Sort by report date" Enums(asc, desc) default(desc)
// @Param        page      query int    false "Page number" default(1)
// @Param        limit     query int    false "Items per page" default(10)
// @Success      200  {object}  ReportPage
// @Failure      404  {object}  ErrorResponse
// @Router       /reports/puzzle/{puzzleId} [get]
func GetPuzzleReports(c *gin.Context) {
	puzzleID, err := strconv.ParseUint(c.Param("puzzleId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid puzzle ID"})
		return
	}

	if _, ok := loadPuzzleForCaller(c, uint(puzzleID)); !ok {
		return
	}

	page, limit, offset := parsePagination(c)

	query := database.DB.Model(&models.Report{}).Where("reports.puzzle_id = ?", puzzleID)
	query = applyReportFilters(c, query)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count reports"})
		return
	}

	reports := []models.Report{}
	err = query.Preload("Game").Preload("Images").
		Order("reports.report_date " + reportSortOrder(c)).
		Offset(offset).Limit(limit).
		Find(&reports).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reports"})
		return
	}

	c.JSON(http.StatusOK, newReportPage(reports, total, page, limit))
}

// GetReportStats godoc
// @Summary      Report statistics per game and puzzle
// @Description  Aggregated report counts by status for every game of the resolved workspace, with a per-puzzle breakdown, over the requested range (default 30 days).
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        workspaceId query int    false "Workspace ID override"
// @Param        range       query string false "Aggregation range" Enums(week, month, year)
// @Success      200  {array}  GameReportStats
// @Failure      401  {object}  ErrorResponse
// @Router       /reports/stats [get]
func GetReportStats(c *gin.Context) {
	workspaceID, ok, err := resolveListWorkspace(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check workspace access"})
		return
	}
	if !ok {
		c.JSON(http.StatusOK, []GameReportStats{})
		return
	}

	reports := []models.Report{}
	err = database.DB.Preload("Game").Preload("Puzzle").
		Joins("JOIN games ON games.id = reports.game_id AND games.deleted_at IS NULL").
		Where("games.workspace_id = ?", workspaceID).
		Where("reports.report_date >= ?", statsRangeStart(c.Query("range"))).
		Find(&reports).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reports"})
		return
	}

	c.JSON(http.StatusOK, aggregateReportStats(reports))
}

// GetReport godoc
// @Summary      Get a report
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Report ID"
// @Success      200  {object}  models.Report
// @Failure      404  {object}  ErrorResponse
// @Router       /reports/{id} [get]
func GetReport(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}

	report, ok := loadReportForCaller(c, uint(id))
	if !ok {
		return
	}

	c.JSON(http.StatusOK, report)
}

// CreateReport godoc
// @Summary      Create a report
// @Description  Creates a report on a game, optionally pinned to one of its puzzles. Images are created with the report in a single transaction.
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body ReportInput true "Report Info"
// @Success      201  {object}  models.Report
// @Failure      400  {object}  ErrorResponse "Puzzle does not belong to the specified game"
// @Failure      404  {object}  ErrorResponse
// @Router       /reports [post]
func CreateReport(c *gin.Context) {
	var input ReportInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, ok := loadGameForCaller(c, input.GameID); !ok {
		return
	}

	if input.PuzzleID != nil {
		puzzle, ok := loadPuzzleForCaller(c, *input.PuzzleID)
		if !ok {
			return
		}
		if puzzle.GameID != input.GameID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Puzzle does not belong to the specified game"})
			return
		}
	}

	priority := models.ReportPriorityHigh
	if input.Priority != "" {
		priority = models.ReportPriority(input.Priority)
		if !priority.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Priority must be low, medium, or high"})
			return
		}
	}

	reportDate := time.Now()
	if input.ReportDate != nil {
		reportDate = *input.ReportDate
	}

	report := models.Report{
		Title:       input.Title,
		Description: input.Description,
		ReportDate:  reportDate,
		Status:      models.ReportStatusOpen,
		Priority:    priority,
		GameID:      input.GameID,
		PuzzleID:    input.PuzzleID,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&report).Error; err != nil {
			return err
		}
		for _, url := range input.ImageURLs {
			img := models.ReportImage{ImageURL: url, ReportID: report.ID}
			if err := tx.Create(&img).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create report"})
		return
	}

	var created models.Report
	if err := database.DB.Preload("Images").First(&created, report.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load report"})
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateReport godoc
// @Summary      Update a report
// @Description  Partial update. Transitioning to resolved stamps resolvedAt, leaving resolved clears it along with the resolution text. A present imageUrls field replaces the whole image set transactionally.
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int               true "Report ID"
// @Param        input body ReportUpdateInput true "New Report Info"
// @Success      200  {object}  models.Report
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /reports/{id} [put]
func UpdateReport(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}

	report, ok := loadReportForCaller(c, uint(id))
	if !ok {
		return
	}

	var input ReportUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Title != nil {
		report.Title = *input.Title
	}
	if input.Description != nil {
		report.Description = *input.Description
	}
	if input.ReportDate != nil {
		report.ReportDate = *input.ReportDate
	}
	if input.Priority != nil {
		priority := models.ReportPriority(*input.Priority)
		if !priority.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Priority must be low, medium, or high"})
			return
		}
		report.Priority = priority
	}
	if input.Resolution != nil {
		report.Resolution = *input.Resolution
	}
	if input.Status != nil {
		status := models.ReportStatus(*input.Status)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be open, in-progress, or resolved"})
			return
		}
		if status == models.ReportStatusResolved && report.Status != models.ReportStatusResolved {
			now := time.Now()
			report.ResolvedAt = &now
		}
		if status != models.ReportStatusResolved && report.Status == models.ReportStatusResolved {
			// Resolution details live and die with the resolved status.
			report.ResolvedAt = nil
			report.Resolution = ""
		}
		report.Status = status
	}

	report.Game = nil
	report.Puzzle = nil
	report.Images = nil

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(report).Error; err != nil {
			return err
		}
		if input.ImageURLs != nil {
			if err := tx.Where("report_id = ?", report.ID).Delete(&models.ReportImage{}).Error; err != nil {
				return err
			}
			for _, url := range *input.ImageURLs {
				img := models.ReportImage{ImageURL: url, ReportID: report.ID}
				if err := tx.Create(&img).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update report"})
		return
	}

	var updated models.Report
	if err := database.DB.Preload("Images").First(&updated, report.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load report"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteReport godoc
// @Summary      Delete a report
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Report ID"
// @Success      204  "No Content"
// @Failure      404  {object}  ErrorResponse
// @Router       /reports/{id} [delete]
func DeleteReport(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}

	report, ok := loadReportForCaller(c, uint(id))
	if !ok {
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("report_id = ?", report.ID).Delete(&models.ReportImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Report{}, report.ID).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete report"})
		return
	}

	c.Status(http.StatusNoContent)
}

// endregion

// region --- Helpers ---

// applyReportFilters layers the shared status and search query filters onto a
// report query.
func applyReportFilters(c *gin.Context, query *gorm.DB) *gorm.DB {
	if status := models.ReportStatus(c.Query("status")); status.Valid() {
		query = query.Where("reports.status = ?", status)
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("LOWER(reports.title) LIKE LOWER(?) OR LOWER(reports.description) LIKE LOWER(?)", pattern, pattern)
	}
	return query
}

func reportSortOrder(c *gin.Context) string {
	if c.DefaultQuery("sortOrder", "desc") == "asc" {
		return "asc"
	}
	return "desc"
}

// statsRangeStart maps a range keyword to the aggregation window start.
// Unknown values fall back to the last 30 days.
func statsRangeStart(rangeKey string) time.Time {
	now := time.Now()
	switch rangeKey {
	case "week":
		return now.AddDate(0, 0, -7)
	case "month":
		return now.AddDate(0, -1, 0)
	case "year":
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, 0, -30)
	}
}

// aggregateReportStats folds reports into per-game stats with a nested
// per-puzzle breakdown, ordered by game and puzzle ID for stable output.
func aggregateReportStats(reports []models.Report) []GameReportStats {
	type puzzleAgg struct {
		stats PuzzleReportStats
	}
	type gameAgg struct {
		stats   GameReportStats
		puzzles map[uint]*puzzleAgg
	}

	games := map[uint]*gameAgg{}
	for i := range reports {
		report := &reports[i]
		agg, found := games[report.GameID]
		if !found {
			agg = &gameAgg{puzzles: map[uint]*puzzleAgg{}}
			agg.stats.GameID = report.GameID
			if report.Game != nil {
				agg.stats.GameName = report.Game.Name
			}
			games[report.GameID] = agg
		}

		agg.stats.Total++
		switch report.Status {
		case models.ReportStatusOpen:
			agg.stats.Open++
		case models.ReportStatusInProgress:
			agg.stats.InProgress++
		case models.ReportStatusResolved:
			agg.stats.Resolved++
		}

		if report.PuzzleID == nil {
			continue
		}
		pagg, found := agg.puzzles[*report.PuzzleID]
		if !found {
			pagg = &puzzleAgg{}
			pagg.stats.ID = *report.PuzzleID
			if report.Puzzle != nil {
				pagg.stats.Title = report.Puzzle.Title
			}
			agg.puzzles[*report.PuzzleID] = pagg
		}
		pagg.stats.Total++
		switch report.Status {
		case models.ReportStatusOpen:
			pagg.stats.Open++
		case models.ReportStatusInProgress:
			pagg.stats.InProgress++
		case models.ReportStatusResolved:
			pagg.stats.Resolved++
		}
	}

	result := make([]GameReportStats, 0, len(games))
	for _, agg := range games {
		puzzles := make([]PuzzleReportStats, 0, len(agg.puzzles))
		for _, pagg := range agg.puzzles {
			puzzles = append(puzzles, pagg.stats)
		}
		sort.Slice(puzzles, func(i, j int) bool { return puzzles[i].ID < puzzles[j].ID })
		agg.stats.Puzzles = puzzles
		result = append(result, agg.stats)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].GameID < result[j].GameID })
	return result
}

// loadReportForCaller loads a report with its relations and authorizes it
// through the owning game's workspace, answering cross-workspace probes with
// the same 404 as a missing report.
func loadReportForCaller(c *gin.Context, reportID uint) (*models.Report, bool) {
	var report models.Report
	err := database.DB.Preload("Game").Preload("Puzzle").Preload("Images").First(&report, reportID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load report"})
		}
		return nil, false
	}

	membership, err := workspace.GetMembership(database.DB, auth.CurrentUserID(c), report.Game.WorkspaceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check workspace access"})
		return nil, false
	}
	if membership == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		return nil, false
	}

	return &report, true
}

// endregion
