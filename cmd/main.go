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

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"

	"github.com/corazonmc/cobblemon-league/brackets"
	"github.com/corazonmc/cobblemon-league/config"
	"github.com/corazonmc/cobblemon-league/db"
	"github.com/corazonmc/cobblemon-league/handlers"
	"github.com/corazonmc/cobblemon-league/mcstatus"
	"github.com/corazonmc/cobblemon-league/models"
	"github.com/corazonmc/cobblemon-league/pokedex"
	"github.com/corazonmc/cobblemon-league/repositories"
	api "github.com/corazonmc/cobblemon-league/routes"
	"github.com/corazonmc/cobblemon-league/services"
	"github.com/corazonmc/cobblemon-league/storage"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	if err := db.Migrate(startupCtx, dbConn); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database schema ready")

	// Подключение к Redis (кэш покедекса и статуса сервера)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(startupCtx).Err(); err != nil {
		logger.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer redisClient.Close()
	logger.Info("redis connection established")

	// Инициализация загрузчика файлов (Cloudflare R2)
	cloudflareUploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
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

	// Инициализация репозиториев
	trainerRepo := repositories.NewPostgresTrainerRepository(dbConn)
	gymRepo := repositories.NewPostgresGymRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	inviteRepo := repositories.NewPostgresInviteRepository(dbConn)
	logger.Info("Repositories initialized")

	if err := seedGyms(startupCtx, gymRepo); err != nil {
		logger.Error("failed to seed gyms", slog.Any("error", err))
		os.Exit(1)
	}

	// Инициализация сервисов
	authService := services.NewAuthService(trainerRepo)
	trainerService := services.NewTrainerService(trainerRepo, cloudflareUploader)
	gymService := services.NewGymService(gymRepo, trainerRepo)
	tournamentService := services.NewTournamentService(
		tournamentRepo,
		trainerRepo,
		gymService,
		brackets.NewLadder(),
		cloudflareUploader,
	)
	inviteService := services.NewInviteService(inviteRepo, tournamentRepo)
	logger.Info("Services initialized")

	// Внешние клиенты витрины
	pokedexClient := pokedex.NewClient(redisClient)
	mcstatusClient := mcstatus.NewClient(cfg.MCServerAddress, redisClient)

	// Фоновый рефреш статуса игрового сервера, чтобы виджет не ждал
	// внешний API на первом запросе после истечения кэша.
	go func() {
		ticker := time.NewTicker(mcstatus.CacheTTL)
		defer ticker.Stop()
		for range ticker.C {
			refreshCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			if _, err := mcstatusClient.Refresh(refreshCtx); err != nil {
				logger.Warn("mc server status refresh failed", slog.Any("error", err))
			}
			cancel()
		}
	}()

	// Инициализация обработчиков HTTP
	jwtSecret := []byte(cfg.JWTSecretKey)
	routerHandlers := api.Handlers{
		Auth:       handlers.NewAuthHandler(authService, jwtSecret),
		Trainer:    handlers.NewTrainerHandler(trainerService),
		Gym:        handlers.NewGymHandler(gymService),
		Tournament: handlers.NewTournamentHandler(tournamentService),
		Invite:     handlers.NewInviteHandler(inviteService),
		Status:     handlers.NewStatusHandler(pokedexClient, mcstatusClient, gymService, tournamentService),
	}
	router := api.InitRoutes(routerHandlers, jwtSecret)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
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

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}

// seedGyms создаёт 18 залов при первом запуске на пустой базе.
// Дальше реестр залов фиксированный: залы не создаются и не удаляются.
func seedGyms(ctx context.Context, gymRepo repositories.GymRepository) error {
	count, err := gymRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, tipo := range models.GymTypes {
		if err := gymRepo.Insert(ctx, models.EmptyGym(tipo)); err != nil {
			return err
		}
	}
	slog.Info("gym registry seeded", slog.Int("gyms", len(models.GymTypes)))
	return nil
}
