package handler_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/pluto-chenxin/game-master-support/internal/database"
	"github.com/pluto-chenxin/game-master-support/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func createReport(t *testing.T, r *gin.Engine, token string, body gin.H) uint {
	t.Helper()
	w := doRequest(t, r, http.MethodPost, "/api/reports", body, requestOptions{token: token})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var report struct {
		ID uint `json:"id"`
	}
	decodeBody(t, w, &report)
	require.NotZero(t, report.ID)
	return report.ID
}

func TestCreateReportDefaultsAndImages(t *testing.T) {
	r := setupServer(t)
	token, _ := registerUser(t, r, "Alice", "alice@example.com")
	wsID := createWorkspace(t, r, token, "North Branch")
	gameID := createGame(t, r, token, wsID, "The Vault")

	reportID := createReport(t, r, token, gin.H{
		"title":       "Stuck drawer",
		"description": "The drawer jams halfway",
		"gameId":      gameID,
		"imageUrls":   []string{"/api/uploads/a.jpg", "/api/uploads/b.jpg"},
	})

	var report models.Report
	require.NoError(t, database.DB.Preload("Images").First(&report, reportID).Error)
	require.Equal(t, models.ReportStatusOpen, report.Status)
	require.Equal(t, models.ReportPriorityHigh, report.Priority)
	require.WithinDuration(t, time.Now(), report.ReportDate, time.Minute)
	require.Len(t, report.Images, 2)
	require.Nil(t, report.ResolvedAt)
}

func TestCreateReportRejectsPuzzleGameMismatch(t *testing.T) {
	r := setupServer(t)
	token, _ := registerUser(t, r, "Alice", "alice@example.com")
	wsID := createWorkspace(t, r, token, "North Branch")
	g1 := createGame(t, r, token, wsID, "The Vault")
	g2 := createGame(t, r, token, wsID, "Catacombs")
	foreignPuzzle := createPuzzle(t, r, token, g2, "Bone Door")

	w := doRequest(t, r, http.MethodPost, "/api/reports", gin.H{
		"title":       "Wrong room",
		"description": "Misfiled report",
		"gameId":      g1,
		"puzzleId":    foreignPuzzle,
	}, requestOptions{token: token})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "does not belong")
}

func TestUpdateReportResolvedAtTransitions(t *testing.T) {
	r := setupServer(t)
	token, _ := registerUser(t, r, "Alice", "alice@example.com")
	wsID := createWorkspace(t, r, token, "North Branch")
	gameID := createGame(t, r, token, wsID, "The Vault")
	reportID := createReport(t, r, token, gin.H{
		"title": "Stuck drawer", "description": "Jams", "gameId": gameID,
	})

	// Resolving stamps resolvedAt.
	w := doRequest(t, r, http.MethodPut, fmt.Sprintf("/api/reports/%d", reportID),
		gin.H{"status": "resolved", "resolution": "Sanded the rail"}, requestOptions{token: token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report models.Report
	require.NoError(t, database.DB.First(&report, reportID).Error)
	require.Equal(t, models.ReportStatusResolved, report.Status)
	require.NotNil(t, report.ResolvedAt)
	require.Equal(t, "Sanded the rail", report.Resolution)

	// Reopening clears the timestamp and the resolution text, even when the
	// same request tries to smuggle a new resolution in.
	w = doRequest(t, r, http.MethodPut, fmt.Sprintf("/api/reports/%d", reportID),
		gin.H{"status": "open", "resolution": "still broken actually"}, requestOptions{token: token})
	require.Equal(t, http.StatusOK, w.Code)

	report = models.Report{}
	require.NoError(t, database.DB.First(&report, reportID).Error)
	require.Equal(t, models.ReportStatusOpen, report.Status)
	require.Nil(t, report.ResolvedAt)
	require.Empty(t, report.Resolution)
}

func TestUpdateReportReplacesImages(t *testing.T) {
	r := setupServer(t)
	token, _ := registerUser(t, r, "Alice", "alice@example.com")
	wsID := createWorkspace(t, r, token, "North Branch")
	gameID := createGame(t, r, token, wsID, "The Vault")
	reportID := createReport(t, r, token, gin.H{
		"title": "Stuck drawer", "description": "Jams", "gameId": gameID,
		"imageUrls": []string{"/api/uploads/old.jpg"},
	})

	w := doRequest(t, r, http.MethodPut, fmt.Sprintf("/api/reports/%d", reportID),
		gin.H{"imageUrls": []string{"/api/uploads/new1.jpg", "/api/uploads/new2.jpg"}}, requestOptions{token: token})
	require.Equal(t, http.StatusOK, w.Code)

	var images []models.ReportImage
	require.NoError(t, database.DB.Where("report_id = ?", reportID).Find(&images).Error)
	require.Len(t, images, 2)
	for _, img := range images {
		require.NotEqual(t, "/api/uploads/old.jpg", img.ImageURL)
	}

	// An update without the field leaves the set alone.
	w = doRequest(t, r, http.MethodPut, fmt.Sprintf("/api/reports/%d", reportID),
		gin.H{"priority": "low"}, requestOptions{token: token})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, database.DB.Where("report_id = ?", reportID).Find(&images).Error)
	require.Len(t, images, 2)
}

func TestListReportsPaginationAndFilters(t *testing.T) {
	r := setupServer(t)
	token, _ := registerUser(t, r, "Alice", "alice@example.com")
	wsID := createWorkspace(t, r, token, "North Branch")
	gameID := createGame(t, r, token, wsID, "The Vault")

	for i := 0; i < 12; i++ {
		createReport(t, r, token, gin.H{
			"title":       fmt.Sprintf("Issue %02d", i),
			"description": "Something broke",
			"gameId":      gameID,
		})
	}
	resolvedID := createReport(t, r, token, gin.H{
		"title": "Fixed one", "description": "Handled already", "gameId": gameID,
	})
	w := doRequest(t, r, http.MethodPut, fmt.Sprintf("/api/reports/%d", resolvedID),
		gin.H{"status": "resolved"}, requestOptions{token: token})
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Reports    []struct{ Title string } `json:"reports"`
		Total      int64                    `json:"total"`
		Page       int                      `json:"page"`
		Limit      int                      `json:"limit"`
		TotalPages int                      `json:"totalPages"`
	}

	w = doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/reports?workspaceId=%d&page=2&limit=10", wsID), nil, requestOptions{token: token})
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &page)
	require.Equal(t, int64(13), page.Total)
	require.Equal(t, 2, page.Page)
	require.Equal(t, 10, page.Limit)
	require.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Reports, 3)

	// Status filter narrows the set.
	w = doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/reports?workspaceId=%d&status=resolved", wsID), nil, requestOptions{token: token})
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &page)
	require.Equal(t, int64(1), page.Total)

	// Search matches title and description case-insensitively.
	w = doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/reports?workspaceId=%d&search=HANDLED", wsID), nil, requestOptions{token: token})
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &page)
	require.Equal(t, int64(1), page.Total)

	// No workspace context degrades to an empty page.
	w = doRequest(t, r, http.MethodGet, "/api/reports", nil, requestOptions{token: token})
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &page)
	require.Zero(t, page.Total)
	require.Empty(t, page.Reports)
}

func TestGameAndPuzzleReportLists(t *testing.T) {
	r := setupServer(t)
	token, _ := registerUser(t, r, "Alice", "alice@example.com")
	wsID := createWorkspace(t, r, token, "North Branch")
	gameID := createGame(t, r, token, wsID, "The Vault")
	puzzleID := createPuzzle(t, r, token, gameID, "Lock Box")

	createReport(t, r, token, gin.H{"title": "Game-wide", "description": "Lights flicker", "gameId": gameID})
	createReport(t, r, token, gin.H{"title": "Puzzle-bound", "description": "Latch stuck", "gameId": gameID, "puzzleId": puzzleID})

	var page struct {
		Reports []struct {
			Title string `json:"title"`
		} `json:"reports"`
		Total int64 `json:"total"`
	}

	w := doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/reports/game/%d", gameID), nil, requestOptions{token: token})
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &page)
	require.Equal(t, int64(2), page.Total)

	w = doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/reports/puzzle/%d", puzzleID), nil, requestOptions{token: token})
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &page)
	require.Equal(t, int64(1), page.Total)
	require.Equal(t, "Puzzle-bound", page.Reports[0].Title)
}

func TestReportStats(t *testing.T) {
	r := setupServer(t)
	token, _ := registerUser(t, r, "Alice", "alice@example.com")
	wsID := createWorkspace(t, r, token, "North Branch")
	gameID := createGame(t, r, token, wsID, "The Vault")
	puzzleID := createPuzzle(t, r, token, gameID, "Lock Box")

	createReport(t, r, token, gin.H{"title": "One", "description": "x", "gameId": gameID})
	createReport(t, r, token, gin.H{"title": "Two", "description": "x", "gameId": gameID, "puzzleId": puzzleID})
	resolvedID := createReport(t, r, token, gin.H{"title": "Three", "description": "x", "gameId": gameID, "puzzleId": puzzleID})
	w := doRequest(t, r, http.MethodPut, fmt.Sprintf("/api/reports/%d", resolvedID),
		gin.H{"status": "resolved"}, requestOptions{token: token})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/reports/stats?workspaceId=%d&range=week", wsID), nil, requestOptions{token: token})
	require.Equal(t, http.StatusOK, w.Code)

	var stats []struct {
		GameID   uint   `json:"gameId"`
		GameName string `json:"gameName"`
		Total    int    `json:"total"`
		Open     int    `json:"open"`
		Resolved int    `json:"resolved"`
		Puzzles  []struct {
			ID       uint `json:"id"`
			Total    int  `json:"total"`
			Resolved int  `json:"resolved"`
		} `json:"puzzles"`
	}
	decodeBody(t, w, &stats)
	require.Len(t, stats, 1)
	require.Equal(t, gameID, stats[0].GameID)
	require.Equal(t, "The Vault", stats[0].GameName)
	require.Equal(t, 3, stats[0].Total)
	require.Equal(t, 2, stats[0].Open)
	require.Equal(t, 1, stats[0].Resolved)
	require.Len(t, stats[0].Puzzles, 1)
	require.Equal(t, puzzleID, stats[0].Puzzles[0].ID)
	require.Equal(t, 2, stats[0].Puzzles[0].Total)
	require.Equal(t, 1, stats[0].Puzzles[0].Resolved)

	// Reports older than the window are excluded.
	require.NoError(t, database.DB.Model(&models.Report{}).
		Where("id = ?", resolvedID).
		Update("report_date", time.Now().AddDate(-2, 0, 0)).Error)

	w = doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/reports/stats?workspaceId=%d&range=year", wsID), nil, requestOptions{token: token})
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &stats)
	require.Len(t, stats, 1)
	require.Equal(t, 2, stats[0].Total)
}

func TestDeleteReportRemovesImages(t *testing.T) {
	r := setupServer(t)
	token, _ := registerUser(t, r, "Alice", "alice@example.com")
	wsID := createWorkspace(t, r, token, "North Branch")
	gameID := createGame(t, r, token, wsID, "The Vault")
	reportID := createReport(t, r, token, gin.H{
		"title": "Stuck drawer", "description": "Jams", "gameId": gameID,
		"imageUrls": []string{"/api/uploads/a.jpg"},
	})

	w := doRequest(t, r, http.MethodDelete, fmt.Sprintf("/api/reports/%d", reportID), nil, requestOptions{token: token})
	require.Equal(t, http.StatusNoContent, w.Code)

	var count int64
	require.NoError(t, database.DB.Model(&models.ReportImage{}).Count(&count).Error)
	require.Zero(t, count)

	w = doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/reports/%d", reportID), nil, requestOptions{token: token})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCrossWorkspaceReportReads404(t *testing.T) {
	r := setupServer(t)
	alice, _ := registerUser(t, r, "Alice", "alice@example.com")
	bob, _ := registerUser(t, r, "Bob", "bob@example.com")

	wsID := createWorkspace(t, r, alice, "North Branch")
	createWorkspace(t, r, bob, "South Branch")
	gameID := createGame(t, r, alice, wsID, "The Vault")
	reportID := createReport(t, r, alice, gin.H{"title": "Private", "description": "x", "gameId": gameID})

	w := doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/reports/%d", reportID), nil, requestOptions{token: bob})
	require.Equal(t, http.StatusNotFound, w.Code)
	require.NotContains(t, w.Body.String(), "Private")
}
