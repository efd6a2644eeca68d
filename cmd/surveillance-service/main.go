package main

import (
	"fmt"
	"os"

	"surveillance-service/internal/auth"
	"surveillance-service/internal/client"
	"surveillance-service/internal/config"
	"surveillance-service/internal/db"
	httphandler "surveillance-service/internal/http"
	"surveillance-service/internal/http/middleware"
	"surveillance-service/internal/logger"
	"surveillance-service/internal/repository"
	"surveillance-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	counterRepo := repository.NewCounterRepository(database)
	cameraRepo := repository.NewCameraRepository(database)
	alertRepo := repository.NewAlertRepository(database)
	userRepo := repository.NewUserRepository(database)

	detectorClient := client.NewDetectorClient(cfg)

	cameraService := service.NewCameraService(cameraRepo, counterRepo, appLogger)
	alertService := service.NewAlertService(alertRepo, cameraRepo, counterRepo, appLogger)
	userService := service.NewUserService(userRepo, counterRepo, appLogger)
	feedService := service.NewFeedService(detectorClient, cameraRepo, appLogger)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(cameraService, alertService, userService, feedService, appLogger)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().Str("addr", addr).Str("detector", cfg.Detector.BaseURL).Msg("starting surveillance service")

	if err := router.Run(addr); err != nil {
		appLogger.Error().Err(err).Msg("failed to start server")
		os.Exit(1)
	}
}
