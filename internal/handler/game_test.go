package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/pluto-chenxin/game-master-support/internal/database"
	"github.com/pluto-chenxin/game-master-support/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestListGamesDegradesToEmptyWithoutWorkspace(t *testing.T) {
	r := setupServer(t)
	token, _ := registerUser(t, r, "Alice", "alice@example.com")
	wsID := createWorkspace(t, r, token, "North Branch")
	createGame(t, r, token, wsID, "The Vault")

	// No workspace signal at all: empty list, not an error.
	w := doRequest(t, r, http.MethodGet, "/api/games", nil, requestOptions{token: token})
	require.Equal(t, http.StatusOK, w.Code)
	var games []any
	decodeBody(t, w, &games)
	require.Empty(t, games)

	// A workspace the caller is not a member of degrades the same way.
	w = doRequest(t, r, http.MethodGet, "/api/games?workspaceId=9999", nil, requestOptions{token: token})
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &games)
	require.Empty(t, games)
}

func TestListGamesByQueryAndHeader(t *testing.T) {
	r := setupServer(t)
	token, _ := registerUser(t, r, "Alice", "alice@example.com")
	wsID := createWorkspace(t, r, token, "North Branch")
	gameID := createGame(t, r, token, wsID, "The Vault")
	createPuzzle(t, r, token, gameID, "Lock Box")

	var games []struct {
		ID          uint  `json:"id"`
		PuzzleCount int64 `json:"puzzleCount"`
	}

	w := doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/games?workspaceId=%d", wsID), nil, requestOptions{token: token})
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &games)
	require.Len(t, games, 1)
	require.Equal(t, gameID, games[0].ID)
	require.Equal(t, int64(1), games[0].PuzzleCount)

	// The workspace header works as the fallback signal.
	w = doRequest(t, r, http.MethodGet, "/api/games", nil, requestOptions{token: token, workspaceID: fmt.Sprint(wsID)})
	require.Equal(t, http.StatusOK, w.Code)
	decodeBody(t, w, &games)
	require.Len(t, games, 1)
}

func TestCreateGameRequiresWorkspaceAndMembership(t *testing.T) {
	r := setupServer(t)
	alice, _ := registerUser(t, r, "Alice", "alice@example.com")
	bob, _ := registerUser(t, r, "Bob", "bob@example.com")
	wsID := createWorkspace(t, r, alice, "North Branch")

	// No workspace signal anywhere: 400.
	w := doRequest(t, r, http.MethodPost, "/api/games",
		gin.H{"name": "The Vault", "genre": "escape"}, requestOptions{token: alice})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// A non-member writing into the workspace: 403.
	w = doRequest(t, r, http.MethodPost, "/api/games",
		gin.H{"name": "The Vault", "genre": "escape", "workspaceId": wsID}, requestOptions{token: bob})
	require.Equal(t, http.StatusForbidden, w.Code)

	// The workspace header alone is enough for a member.
	w = doRequest(t, r, http.MethodPost, "/api/games",
		gin.H{"name": "The Vault", "genre": "escape"},
		requestOptions{token: alice, workspaceID: fmt.Sprint(wsID)})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestCrossWorkspaceGameReads404(t *testing.T) {
	r := setupServer(t)
	alice, _ := registerUser(t, r, "Alice", "alice@example.com")
	bob, _ := registerUser(t, r, "Bob", "bob@example.com")

	wsID := createWorkspace(t, r, alice, "North Branch")
	createWorkspace(t, r, bob, "South Branch")
	gameID := createGame(t, r, alice, wsID, "The Vault")

	// Bob is authenticated and has his own workspace, but Alice's game must
	// be indistinguishable from a missing one.
	w := doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/games/%d", gameID), nil, requestOptions{token: bob})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, r, http.MethodPut, fmt.Sprintf("/api/games/%d", gameID),
		gin.H{"name": "Stolen", "genre": "escape"}, requestOptions{token: bob})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, r, http.MethodDelete, fmt.Sprintf("/api/games/%d", gameID), nil, requestOptions{token: bob})
	require.Equal(t, http.StatusNotFound, w.Code)

	// The owner still sees it.
	w = doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/games/%d", gameID), nil, requestOptions{token: alice})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateGameKeepsWorkspace(t *testing.T) {
	r := setupServer(t)
	token, _ := registerUser(t, r, "Alice", "alice@example.com")
	wsID := createWorkspace(t, r, token, "North Branch")
	gameID := createGame(t, r, token, wsID, "The Vault")

	w := doRequest(t, r, http.MethodPut, fmt.Sprintf("/api/games/%d", gameID),
		gin.H{"name": "The Vault II", "genre": "horror"}, requestOptions{token: token})
	require.Equal(t, http.StatusOK, w.Code)

	var game models.Game
	require.NoError(t, database.DB.First(&game, gameID).Error)
	require.Equal(t, "The Vault II", game.Name)
	require.Equal(t, "horror", game.Genre)
	require.Equal(t, wsID, game.WorkspaceID)
}

func TestDeleteGameCascades(t *testing.T) {
	r := setupServer(t)
	token, _ := registerUser(t, r, "Alice", "alice@example.com")
	wsID := createWorkspace(t, r, token, "North Branch")
	gameID := createGame(t, r, token, wsID, "The Vault")
	puzzleID := createPuzzle(t, r, token, gameID, "Lock Box")

	// Hang every child type off the tree before deleting the root.
	w := doRequest(t, r, http.MethodPost, "/api/hints",
		gin.H{"content": "Look under the rug", "puzzleId": puzzleID}, requestOptions{token: token})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doRequest(t, r, http.MethodPost, "/api/maintenance",
		gin.H{"description": "Replace lock", "fixDate": "2026-09-15T10:00:00Z", "puzzleId": puzzleID}, requestOptions{token: token})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doRequest(t, r, http.MethodPost, "/api/puzzle-images",
		gin.H{"puzzleId": puzzleID, "images": []gin.H{{"imageUrl": "/api/uploads/a.jpg"}}}, requestOptions{token: token})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doRequest(t, r, http.MethodPost, "/api/reports",
		gin.H{"title": "Stuck drawer", "description": "Drawer jams", "gameId": gameID, "puzzleId": puzzleID,
			"imageUrls": []string{"/api/uploads/b.jpg"}}, requestOptions{token: token})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doRequest(t, r, http.MethodDelete, fmt.Sprintf("/api/games/%d", gameID), nil, requestOptions{token: token})
	require.Equal(t, http.StatusNoContent, w.Code)

	// Nothing under the game is reachable anymore.
	for table, model := range map[string]any{
		"puzzles":       &models.Puzzle{},
		"hints":         &models.Hint{},
		"maintenance":   &models.Maintenance{},
		"puzzle images": &models.PuzzleImage{},
		"reports":       &models.Report{},
		"report images": &models.ReportImage{},
	} {
		var count int64
		require.NoError(t, database.DB.Model(model).Count(&count).Error, table)
		require.Zero(t, count, "expected no %s to survive the cascade", table)
	}

	w = doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/puzzles/%d", puzzleID), nil, requestOptions{token: token})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetGamePuzzles(t *testing.T) {
	r := setupServer(t)
	token, _ := registerUser(t, r, "Alice", "alice@example.com")
	wsID := createWorkspace(t, r, token, "North Branch")
	gameID := createGame(t, r, token, wsID, "The Vault")
	puzzleID := createPuzzle(t, r, token, gameID, "Lock Box")

	w := doRequest(t, r, http.MethodPost, "/api/hints",
		gin.H{"content": "Check the painting", "puzzleId": puzzleID}, requestOptions{token: token})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/games/%d/puzzles", gameID), nil, requestOptions{token: token})
	require.Equal(t, http.StatusOK, w.Code)

	var puzzles []struct {
		ID        uint  `json:"id"`
		HintCount int64 `json:"hintCount"`
	}
	decodeBody(t, w, &puzzles)
	require.Len(t, puzzles, 1)
	require.Equal(t, puzzleID, puzzles[0].ID)
	require.Equal(t, int64(1), puzzles[0].HintCount)
}
