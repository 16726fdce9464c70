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

func createHint(t *testing.T, r *gin.Engine, token string, puzzleID uint, content string) uint {
	t.Helper()
	w := doRequest(t, r, http.MethodPost, "/api/hints", gin.H{
		"content":  content,
		"puzzleId": puzzleID,
	}, requestOptions{token: token})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var hint struct {
		ID uint `json:"id"`
	}
	decodeBody(t, w, &hint)
	require.NotZero(t, hint.ID)
	return hint.ID
}

func TestHintLifecycle(t *testing.T) {
	r := setupServer(t)
	token, _ := registerUser(t, r, "Alice", "alice@example.com")
	wsID := createWorkspace(t, r, token, "North Branch")
	gameID := createGame(t, r, token, wsID, "The Vault")
	puzzleID := createPuzzle(t, r, token, gameID, "Lock Box")
	hintID := createHint(t, r, token, puzzleID, "Check under the rug")

	w := doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/hints/%d", hintID), nil, requestOptions{token: token})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Check under the rug")

	w = doRequest(t, r, http.MethodPut, fmt.Sprintf("/api/hints/%d", hintID), gin.H{
		"content":   "The key is magnetic",
		"isPremium": true,
		"isUsed":    true,
	}, requestOptions{token: token})
	require.Equal(t, http.StatusOK, w.Code)

	var hint models.Hint
	require.NoError(t, database.DB.First(&hint, hintID).Error)
	require.Equal(t, "The key is magnetic", hint.Content)
	require.True(t, hint.IsPremium)
	require.True(t, hint.IsUsed)
	require.Equal(t, puzzleID, hint.PuzzleID)

	w = doRequest(t, r, http.MethodDelete, fmt.Sprintf("/api/hints/%d", hintID), nil, requestOptions{token: token})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/hints/%d", hintID), nil, requestOptions{token: token})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListHintsScopedToWorkspace(t *testing.T) {
	r := setupServer(t)
	token, _ := registerUser(t, r, "Alice", "alice@example.com")

	w1 := createWorkspace(t, r, token, "North Branch")
	w2 := createWorkspace(t, r, token, "South Branch")
	p1 := createPuzzle(t, r, token, createGame(t, r, token, w1, "The Vault"), "Lock Box")
	p2 := createPuzzle(t, r, token, createGame(t, r, token, w2, "Catacombs"), "Bone Door")
	createHint(t, r, token, p1, "North hint")
	createHint(t, r, token, p2, "South hint")

	w := doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/hints?workspaceId=%d", w1), nil, requestOptions{token: token})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "North hint")
	require.NotContains(t, w.Body.String(), "South hint")

	// No workspace context degrades to an empty list.
	w = doRequest(t, r, http.MethodGet, "/api/hints", nil, requestOptions{token: token})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "[]", w.Body.String())
}

func TestCrossWorkspaceHintReads404(t *testing.T) {
	r := setupServer(t)
	alice, _ := registerUser(t, r, "Alice", "alice@example.com")
	bob, _ := registerUser(t, r, "Bob", "bob@example.com")

	wsID := createWorkspace(t, r, alice, "North Branch")
	puzzleID := createPuzzle(t, r, alice, createGame(t, r, alice, wsID, "The Vault"), "Lock Box")
	hintID := createHint(t, r, alice, puzzleID, "Secret hint")

	w := doRequest(t, r, http.MethodGet, fmt.Sprintf("/api/hints/%d", hintID), nil, requestOptions{token: bob})
	require.Equal(t, http.StatusNotFound, w.Code)
	require.NotContains(t, w.Body.String(), "Secret hint")

	// Creating a hint on a foreign puzzle is refused the same way.
	w = doRequest(t, r, http.MethodPost, "/api/hints", gin.H{
		"content":  "Planted hint",
		"puzzleId": puzzleID,
	}, requestOptions{token: bob})
	require.Equal(t, http.StatusNotFound, w.Code)
}
