package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/mhamdane/knockout-tour/brackets"
	"github.com/mhamdane/knockout-tour/config"
	"github.com/mhamdane/knockout-tour/db"
	"github.com/mhamdane/knockout-tour/handlers"
	"github.com/mhamdane/knockout-tour/repositories"
	api "github.com/mhamdane/knockout-tour/routes"
	"github.com/mhamdane/knockout-tour/services"
	"github.com/mhamdane/knockout-tour/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	// Ranking snapshot archive is optional; without R2 credentials the
	// service runs with archiving disabled.
	var uploader storage.FileUploader
	if cfg.R2AccountID != "" {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 archive disabled: no R2_ACCOUNT_ID configured")
	}

	wsHub := brackets.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	txManager := repositories.NewTxManager(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	adminRepo := repositories.NewPostgresAdminRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	ageCategoryRepo := repositories.NewPostgresAgeCategoryRepository(dbConn)
	entryRepo := repositories.NewPostgresEntryRepository(dbConn)
	drawRepo := repositories.NewPostgresDrawRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	pointsRepo := repositories.NewPostgresPointsRepository(dbConn)
	rankingRepo := repositories.NewPostgresRankingRepository(dbConn)
	suspensionRepo := repositories.NewPostgresSuspensionRepository(dbConn)
	logger.Info("repositories initialized")

	authService := services.NewAuthService(adminRepo, cfg.JWTSecretKey)
	pointsService := services.NewPointsService(pointsRepo, matchRepo, drawRepo, tournamentRepo, suspensionRepo)
	matchService := services.NewMatchService(
		matchRepo, drawRepo, tournamentRepo, playerRepo, suspensionRepo,
		txManager, pointsService, wsHub,
	)
	entryService := services.NewEntryService(
		entryRepo, tournamentRepo, playerRepo, ageCategoryRepo,
		rankingRepo, drawRepo, suspensionRepo, txManager, matchService,
	)
	drawService := services.NewDrawService(
		drawRepo, entryRepo, matchRepo, playerRepo, tournamentRepo, txManager, wsHub,
	)
	rankingService := services.NewRankingService(
		rankingRepo, pointsRepo, playerRepo, txManager, uploader, logger,
	)
	suspensionService := services.NewSuspensionService(suspensionRepo, playerRepo, txManager)
	logger.Info("services initialized")

	authHandler := handlers.NewAuthHandler(authService)
	entryHandler := handlers.NewEntryHandler(entryService)
	drawHandler := handlers.NewDrawHandler(drawService)
	matchHandler := handlers.NewMatchHandler(matchService)
	rankingHandler := handlers.NewRankingHandler(rankingService)
	suspensionHandler := handlers.NewSuspensionHandler(suspensionService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		entryHandler,
		drawHandler,
		matchHandler,
		rankingHandler,
		suspensionHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if err := server.Close(); err != nil {
				logger.Error("forced shutdown failed", slog.Any("error", err))
			}
		}
		logger.Info("server stopped")
	}
}
