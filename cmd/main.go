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

	"github.com/Dosada05/pong-arena/config"
	"github.com/Dosada05/pong-arena/db"
	"github.com/Dosada05/pong-arena/engine"
	"github.com/Dosada05/pong-arena/game"
	"github.com/Dosada05/pong-arena/handlers"
	"github.com/Dosada05/pong-arena/repositories"
	"github.com/Dosada05/pong-arena/routes"
	"github.com/Dosada05/pong-arena/services"
	"github.com/Dosada05/pong-arena/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"
)

const (
	dbConnectTimeout = 5 * time.Second
	shutdownTimeout  = 15 * time.Second
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if err := run(logger, level); err != nil {
		logger.Error("application failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}

func run(logger *slog.Logger, level *slog.LevelVar) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	level.Set(cfg.LogLevel)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Connect(cfg.DatabaseURL, dbConnectTimeout, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	if err := db.EnsureSchema(ctx, dbConn); err != nil {
		return err
	}
	logger.Info("database connection established")

	var (
		uploader storage.FileUploader
		archiver game.TournamentArchiver
	)
	if cfg.R2.Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		archiver = services.NewArchiveService(uploader, logger)
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("R2 storage not configured, tournament archive disabled")
	}

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)

	tokenService := services.NewTokenService(cfg.JWTSecretKey)
	profileService := services.NewProfileService(userRepo, uploader, cfg.Game.DefaultAvatar)
	matchService := services.NewMatchService(matchRepo)

	loop := game.NewLoop(logger)
	gameServer := game.NewServer(game.ServerDeps{
		Loop:          loop,
		Verifier:      tokenService,
		Profiles:      profileService,
		Recorder:      matchService,
		Archiver:      archiver,
		NewSimulation: engine.NewScoreboardFactory(cfg.Game.GoalLimit, nil),
		StartDelay:    cfg.Game.RoomStartDelay,
		RoundDelay:    cfg.Game.TournamentRoundDelay,
		ReadyTimeout:  cfg.Game.TournamentReadyTimeout,
		DefaultAvatar: cfg.Game.DefaultAvatar,
		Logger:        logger,
	})

	wsHandler := handlers.NewWebSocketHandler(gameServer, cfg.AllowedOrigins, logger)
	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Handlers{
		WebSocket:   wsHandler,
		Tournaments: handlers.NewTournamentHandler(gameServer, logger),
		Matches:     handlers.NewMatchHandler(matchService, logger),
		Health:      handlers.NewHealthHandler(gameServer, logger),
	}, cfg.AllowedOrigins, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.Game.JanitorInterval),
		gocron.NewTask(func() {
			gameServer.ReapIdleTournaments(cfg.Game.TournamentIdleTimeout)
		}),
		gocron.WithName("tournament-janitor"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule tournament janitor: %w", err)
	}
	scheduler.Start()
	logger.Info("tournament janitor started", slog.Duration("interval", cfg.Game.JanitorInterval))

	// The loop outlives ctx so shutdown can still dispose rooms on it.
	loopCtx, cancelLoop := context.WithCancel(context.Background())
	defer cancelLoop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(loopCtx)
	})
	g.Go(func() error {
		logger.Info("starting server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", slog.Duration("timeout", shutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := scheduler.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("scheduler shutdown: %w", err))
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("graceful shutdown failed: %w", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		}
		if err := gameServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("game shutdown: %w", err))
		}
		wsHandler.CloseAll()
		cancelLoop()
		return errors.Join(errs...)
	})

	return g.Wait()
}
