package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/api"
	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/config"
	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/directus"
	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/evolution"
	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/logging"
	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/repository/redis"
	"github.com/GabrielCardoz0/evolution-directus-bridge/internal/service"
)

func main() {
	// Load .env file - try multiple locations
	envPaths := []string{".env", "../.env", "../../.env"}
	envLoaded := ""
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			envLoaded = p
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logFile, err := logging.Setup(cfg.Logging)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	defer logFile.Close()

	if envLoaded != "" {
		log.Debug().Str("path", envLoaded).Msg("Loaded .env")
	} else {
		log.Warn().Msg(".env file not found in any standard location")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Remote clients
	directusClient := directus.NewClient(cfg.Directus)
	defer directusClient.Close()
	evolutionClient := evolution.NewClient(cfg.Evolution)
	defer evolutionClient.Close()

	deps := api.Dependencies{
		Users: directusClient.Users(),
		Store: directusClient,
	}

	// Optional Redis for rate limiting and message redelivery guard
	var guard service.MessageGuard
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(context.Background(), cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()

		guard = redis.NewMessageGuard(redisClient)
		deps.Limiter = redis.NewRateLimiter(
			redisClient,
			cfg.Security.RateLimit.RequestsPerMinute,
			cfg.Security.RateLimit.Burst,
		)
		log.Info().Str("addr", cfg.Redis.Addr()).Msg("Redis enabled")
	}

	// Services
	instanceService := service.NewInstanceService(directusClient.Instances(), evolutionClient)
	chatService := service.NewChatService(instanceService, directusClient.ChatHistories(), guard, cfg.Agent.ID)
	dispatcher := service.NewDispatcher(instanceService, chatService)

	queue, err := service.NewEventQueue(dispatcher, cfg.Dispatcher.Workers)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start event queue")
	}

	deps.Pairing = instanceService
	deps.Queue = queue

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Msgf("API running on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Webhooks already acknowledged are still processed before exit
	if err := queue.Close(cfg.Dispatcher.DrainTimeout); err != nil {
		log.Warn().Err(err).Msg("Event queue did not drain")
	}

	log.Info().Msg("Server stopped")
}
