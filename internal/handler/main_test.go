package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pluto-chenxin/game-master-support/internal/config"
	"github.com/pluto-chenxin/game-master-support/internal/database"
	"github.com/pluto-chenxin/game-master-support/internal/handler"
	"github.com/pluto-chenxin/game-master-support/internal/mail"
	"github.com/pluto-chenxin/game-master-support/internal/router"
	"github.com/pluto-chenxin/game-master-support/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupServer builds a fresh engine against an isolated in-memory database.
// Per-test DSN names keep databases from leaking between tests.
func setupServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config.AppConfig = &config.Config{
		JWTSecret:   "test-secret",
		Port:        "8080",
		FrontendURL: "http://localhost:3000",
	}

	dsn := fmt.Sprintf("file:handler_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	// A single connection keeps concurrent requests from hitting sqlite's
	// write lock; they queue at the pool instead.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	database.DB = db

	handler.Mail = &mail.LogMailer{}

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	handler.Uploads = store

	return router.Setup()
}

type requestOptions struct {
	token       string
	workspaceID string
}

func doRequest(t *testing.T, r *gin.Engine, method, path string, body any, opts requestOptions) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.token)
	}
	if opts.workspaceID != "" {
		req.Header.Set("X-Workspace-ID", opts.workspaceID)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, target any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), target))
}

// registerUser signs up through the real endpoint and returns the session
// token and user id.
func registerUser(t *testing.T, r *gin.Engine, name, email string) (string, uint) {
	t.Helper()
	w := doRequest(t, r, http.MethodPost, "/api/auth/register", gin.H{
		"name":     name,
		"email":    email,
		"password": "password123",
	}, requestOptions{})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	decodeBody(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token, resp.User.ID
}

// createWorkspace creates a workspace through the API and returns its id.
// The caller becomes its first ADMIN.
func createWorkspace(t *testing.T, r *gin.Engine, token, name string) uint {
	t.Helper()
	w := doRequest(t, r, http.MethodPost, "/api/workspaces", gin.H{"name": name}, requestOptions{token: token})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Workspace struct {
			ID uint `json:"id"`
		} `json:"workspace"`
	}
	decodeBody(t, w, &resp)
	require.NotZero(t, resp.Workspace.ID)
	return resp.Workspace.ID
}

// createGame creates a game in the given workspace and returns its id.
func createGame(t *testing.T, r *gin.Engine, token string, workspaceID uint, name string) uint {
	t.Helper()
	w := doRequest(t, r, http.MethodPost, "/api/games", gin.H{
		"name":        name,
		"genre":       "escape",
		"workspaceId": workspaceID,
	}, requestOptions{token: token})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var game struct {
		ID uint `json:"id"`
	}
	decodeBody(t, w, &game)
	require.NotZero(t, game.ID)
	return game.ID
}

// createPuzzle creates a puzzle on a game and returns its id.
func createPuzzle(t *testing.T, r *gin.Engine, token string, gameID uint, title string) uint {
	t.Helper()
	w := doRequest(t, r, http.MethodPost, "/api/puzzles", gin.H{
		"title":  title,
		"gameId": gameID,
	}, requestOptions{token: token})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var puzzle struct {
		ID uint `json:"id"`
	}
	decodeBody(t, w, &puzzle)
	require.NotZero(t, puzzle.ID)
	return puzzle.ID
}
