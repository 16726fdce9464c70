// Package router wires every HTTP route of the API onto a gin engine. It is
// shared by the server binary and the handler tests so both run the exact
// same middleware chain.
package router

import (
	"net/http"

	"github.com/pluto-chenxin/game-master-support/internal/auth"
	"github.com/pluto-chenxin/game-master-support/internal/handler"
	"github.com/pluto-chenxin/game-master-support/internal/models"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Setup builds the engine with all routes registered.
func Setup() *gin.Engine {
	router := gin.Default()

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")
	{
		// Auth routes
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", handler.RegisterUser)
			authRoutes.POST("/login", handler.LoginUser)
			authRoutes.GET("/me", auth.AuthMiddleware(), handler.GetMe)
		}

		// Workspace routes. Invitation verify/accept happen before the
		// invitee has a session, so they stay outside the auth chain.
		workspaces := api.Group("/workspaces")
		{
			workspaces.GET("/invitations/:token", handler.VerifyInvitation)
			workspaces.POST("/invitations/:token/accept", handler.AcceptInvitation)

			authed := workspaces.Group("")
			authed.Use(auth.AuthMiddleware())
			{
				authed.GET("", handler.ListWorkspaces)
				authed.POST("", handler.CreateWorkspace)

				member := authed.Group("/:workspaceId")
				member.Use(auth.RequireWorkspaceRole(models.RoleUser))
				{
					member.GET("", handler.GetWorkspace)
					member.GET("/users", handler.ListWorkspaceUsers)
				}

				admin := authed.Group("/:workspaceId")
				admin.Use(auth.RequireWorkspaceRole(models.RoleAdmin))
				{
					admin.PUT("", handler.UpdateWorkspace)
					admin.POST("/users", handler.AddWorkspaceUser)
					admin.PUT("/users/:userId", handler.UpdateWorkspaceUserRole)
					admin.DELETE("/users/:userId", handler.RemoveWorkspaceUser)
					admin.POST("/invite", handler.InviteUser)
				}
			}
		}

		// Game routes (protected)
		games := api.Group("/games")
		games.Use(auth.AuthMiddleware())
		{
			games.GET("", handler.ListGames)
			games.POST("", handler.CreateGame)
			games.GET("/:id", handler.GetGame)
			games.PUT("/:id", handler.UpdateGame)
			games.DELETE("/:id", handler.DeleteGame)
			games.GET("/:id/puzzles", handler.GetGamePuzzles)
		}

		// Puzzle routes (protected)
		puzzles := api.Group("/puzzles")
		puzzles.Use(auth.AuthMiddleware())
		{
			puzzles.GET("", handler.ListPuzzles)
			puzzles.POST("", handler.CreatePuzzle)
			puzzles.GET("/:id", handler.GetPuzzle)
			puzzles.PUT("/:id", handler.UpdatePuzzle)
			puzzles.DELETE("/:id", handler.DeletePuzzle)
			puzzles.GET("/:id/hints", handler.GetPuzzleHints)
			puzzles.GET("/:id/maintenance", handler.GetPuzzleMaintenance)
		}

		// Hint routes (protected)
		hints := api.Group("/hints")
		hints.Use(auth.AuthMiddleware())
		{
			hints.GET("", handler.ListHints)
			hints.POST("", handler.CreateHint)
			hints.GET("/:id", handler.GetHint)
			hints.PUT("/:id", handler.UpdateHint)
			hints.DELETE("/:id", handler.DeleteHint)
		}

		// Maintenance routes (protected)
		maintenance := api.Group("/maintenance")
		maintenance.Use(auth.AuthMiddleware())
		{
			maintenance.GET("", handler.ListMaintenance)
			maintenance.POST("", handler.CreateMaintenance)
			maintenance.GET("/:id", handler.GetMaintenance)
			maintenance.PUT("/:id", handler.UpdateMaintenance)
			maintenance.DELETE("/:id", handler.DeleteMaintenance)
		}

		// Report routes (protected). Static segments must be registered
		// alongside /:id; gin resolves them before the param route.
		reports := api.Group("/reports")
		reports.Use(auth.AuthMiddleware())
		{
			reports.GET("", handler.ListReports)
			reports.POST("", handler.CreateReport)
			reports.GET("/stats", handler.GetReportStats)
			reports.GET("/game/:gameId", handler.GetGameReports)
			reports.GET("/puzzle/:puzzleId", handler.GetPuzzleReports)
			reports.GET("/:id", handler.GetReport)
			reports.PUT("/:id", handler.UpdateReport)
			reports.DELETE("/:id", handler.DeleteReport)
		}

		// Puzzle image routes (protected)
		puzzleImages := api.Group("/puzzle-images")
		puzzleImages.Use(auth.AuthMiddleware())
		{
			puzzleImages.GET("/puzzle/:puzzleId", handler.GetPuzzleImages)
			puzzleImages.POST("", handler.CreatePuzzleImages)
			puzzleImages.PUT("/:id", handler.UpdatePuzzleImage)
			puzzleImages.DELETE("/:id", handler.DeletePuzzleImage)
		}

		// Upload routes. Retrieval is public so stored image URLs render in
		// plain <img> tags without an Authorization header.
		uploads := api.Group("/uploads")
		{
			uploads.GET("/:filename", handler.GetUpload)

			uploads.POST("", auth.AuthMiddleware(), handler.UploadImage)
			uploads.POST("/multiple", auth.AuthMiddleware(), handler.UploadImages)
			uploads.DELETE("/:filename", auth.AuthMiddleware(), handler.DeleteUpload)
		}
	}

	return router
}
