package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/Kurdishgpt/Slaw/api/routes"
	"github.com/Kurdishgpt/Slaw/internal/bot"
	"github.com/Kurdishgpt/Slaw/internal/config"
	"github.com/Kurdishgpt/Slaw/internal/handlers"
	"github.com/Kurdishgpt/Slaw/internal/repositories"
	memoryrepo "github.com/Kurdishgpt/Slaw/internal/repositories/memory"
	mongorepo "github.com/Kurdishgpt/Slaw/internal/repositories/mongodb"
	"github.com/Kurdishgpt/Slaw/internal/scheduler"
	"github.com/Kurdishgpt/Slaw/internal/services"
	"github.com/Kurdishgpt/Slaw/pkg/logger"
	"github.com/Kurdishgpt/Slaw/pkg/mongodb"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	// Select the storage backend
	var (
		userRepo     repositories.UserRepository
		activityRepo repositories.ActivityRepository
		apiKeyRepo   repositories.APIKeyRepository
	)
	switch cfg.Storage.Backend {
	case "mongodb":
		mongoClient, err := mongodb.NewClient(cfg.MongoDB.URI)
		if err != nil {
			logger.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				logger.Errorf("Error disconnecting from MongoDB: %v", err)
			}
		}()
		db := mongoClient.Database(cfg.MongoDB.Database)
		userRepo = mongorepo.NewUserRepository(db)
		activityRepo = mongorepo.NewActivityRepository(db)
		apiKeyRepo = mongorepo.NewAPIKeyRepository(db)
		logger.Info("Using MongoDB storage backend")
	case "memory":
		userRepo = memoryrepo.NewUserRepository()
		activityRepo = memoryrepo.NewActivityRepository()
		apiKeyRepo = memoryrepo.NewAPIKeyRepository()
		logger.Warn("Using in-memory storage backend, data will not survive restarts")
	default:
		logger.Fatalf("Unknown storage backend %q", cfg.Storage.Backend)
	}

	// Optional leaderboard cache
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("Redis unreachable, caching disabled: %v", err)
			redisClient = nil
		}
		cancel()
	}
	cache := services.NewCacheService(redisClient)

	// Services
	status := services.NewBotStatusTracker()
	awardService := services.NewAwardService(userRepo, activityRepo, apiKeyRepo, cfg.Discord.TargetChannelID)
	userService := services.NewUserService(userRepo, apiKeyRepo, cache)
	activityService := services.NewActivityService(activityRepo)
	statsService := services.NewStatsService(userRepo, activityRepo, status, cache)
	apiKeyService := services.NewAPIKeyService(apiKeyRepo)
	authService := services.NewAuthService(cfg)

	// HTTP API
	router := routes.SetupRouter(cfg, routes.Handlers{
		User:     handlers.NewUserHandler(userService),
		Activity: handlers.NewActivityHandler(activityService),
		Stats:    handlers.NewStatsHandler(statsService),
		APIKey:   handlers.NewAPIKeyHandler(apiKeyService),
		Auth:     handlers.NewAuthHandler(authService),
	})
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("listen: %v", err)
		}
	}()

	// Gateway connection
	var discordBot *bot.Bot
	if cfg.Discord.Token != "" {
		discordBot, err = bot.New(cfg, awardService, status)
		if err != nil {
			logger.Fatalf("Failed to create discord session: %v", err)
		}
		if err := discordBot.Start(); err != nil {
			logger.Fatalf("Failed to connect to discord: %v", err)
		}
	} else {
		logger.Warn("DISCORD_BOT_TOKEN not set, running API only")
	}

	// Voice accrual sweep
	sweeper := scheduler.NewVoiceSweeper(awardService)
	if err := sweeper.Start(); err != nil {
		logger.Fatalf("Failed to start voice sweeper: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")

	sweeper.Stop()
	if discordBot != nil {
		discordBot.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exiting")
}
