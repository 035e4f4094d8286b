package main

import (
	"context"
	"os"

	"github.com/yigit/unisphere-scheduler/internal/pkg/logger"
	"github.com/yigit/unisphere-scheduler/internal/server"
)

// @title UniSphere Scheduling API
// @version 1.0
// @description Course section scheduling for the UniSphere campus portal

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	srv, err := server.NewServer(context.Background())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
