package main

import (
	"context"

	"github.com/pluto-chenxin/game-master-support/internal/config"
	"github.com/pluto-chenxin/game-master-support/internal/database"
	"github.com/pluto-chenxin/game-master-support/internal/handler"
	"github.com/pluto-chenxin/game-master-support/internal/mail"
	"github.com/pluto-chenxin/game-master-support/internal/router"
	"github.com/pluto-chenxin/game-master-support/internal/storage"

	"github.com/sirupsen/logrus"

	// Swagger imports
	_ "github.com/pluto-chenxin/game-master-support/docs" // This is important for swag to find the generated docs
)

func init() {
	config.LoadConfig()
}

// @title           Game Master Support API
// @version         1.0
// @description     Workspace-scoped escape room management API for games, puzzles, hints, maintenance and player reports.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Connect to the database
	database.Connect(config.AppConfig.DatabaseURL)

	handler.Mail = mail.New(config.AppConfig)

	store, err := storage.New(context.Background(), config.AppConfig)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize upload storage")
	}
	handler.Uploads = store

	engine := router.Setup()

	addr := ":" + config.AppConfig.Port
	logrus.WithField("addr", addr).Info("server is running")
	logrus.Info("Swagger UI is available at /swagger/index.html")
	if err := engine.Run(addr); err != nil {
		logrus.WithError(err).Fatal("server exited")
	}
}
