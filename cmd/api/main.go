package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/siswa-api/internal/config"
	"github.com/noah-isme/siswa-api/internal/database"
	"github.com/noah-isme/siswa-api/internal/handler"
	"github.com/noah-isme/siswa-api/internal/middleware"
	"github.com/noah-isme/siswa-api/internal/models"
	"github.com/noah-isme/siswa-api/internal/repository"
	"github.com/noah-isme/siswa-api/internal/router"
	"github.com/noah-isme/siswa-api/internal/service"
	"github.com/noah-isme/siswa-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	var settingRepo repository.SettingRepository
	switch cfg.SettingsBackend {
	case config.SettingsBackendRedis:
		settingRepo = repository.NewRedisSettingRepository(redisClient, cfg.ChannelBase+":settings:values")
	default:
		db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		if err := db.AutoMigrate(&models.Setting{}); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
		settingRepo = repository.NewSettingRepository(db)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	studentRepo := repository.NewStudentRepository()

	settingsService, err := service.NewSettingsService(ctx, settingRepo, redisClient, cfg.ChannelBase, natsConn, validate, logger)
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}
	settingsService.Start(ctx)

	seedService, err := service.NewSeedService(studentRepo, validate, cfg.SeedToken != "", cfg.SeedToken, logger)
	if err != nil {
		log.Fatalf("failed to create seed service: %v", err)
	}
	if cfg.SeedDefaultRoster {
		if _, err := seedService.SeedDefaults(ctx); err != nil {
			log.Fatalf("failed to seed default roster: %v", err)
		}
	}

	generator := ai.NewRetryingGenerator(ai.NewGeminiGenerator(ai.GeminiConfig{
		BaseURL:   cfg.GeminiBaseURL,
		Model:     cfg.AssistantModel,
		MaxTokens: cfg.AssistantMaxTokens,
		Logger:    logger,
	}), ai.RetryConfig{
		Timeout: cfg.AssistantTimeout,
		Retries: cfg.AssistantRetries,
		Backoff: cfg.AssistantBackoff,
		Logger:  logger,
	})

	studentService := service.NewStudentService(studentRepo, validate, logger)
	assistantService := service.NewAssistantService(studentRepo, settingsService, generator, service.AssistantOptions{
		Model:         cfg.AssistantModel,
		DefaultAPIKey: cfg.GeminiAPIKey,
		SessionTTL:    cfg.SessionTTL,
		MaxSessions:   cfg.MaxSessions,
	}, logger)
	assistantService.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		StudentHandler:   handler.NewStudentHandler(studentService, logger),
		SeedHandler:      handler.NewSeedHandler(seedService, logger),
		SettingsHandler:  handler.NewSettingsHandler(settingsService, logger, cfg.StreamKeepAlive),
		AssistantHandler: handler.NewAssistantHandler(assistantService, validate, logger),
		AssistantLimiter: middleware.RateLimit("assistant", cfg.AssistantRateLimit, time.Minute),
		SessionLimiter:   middleware.RateLimit("assistant_sessions", cfg.SessionRateLimit, time.Minute),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
