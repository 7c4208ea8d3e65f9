package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"katalog/internal/config"
	"katalog/internal/handlers"
	"katalog/internal/models"
	"katalog/internal/repositories"
	"katalog/internal/services"
	"katalog/pkg/cache"
	"katalog/pkg/imagestore"
	"katalog/pkg/logger"
	"katalog/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()
	log := logger.New("katalog", cfg.AppEnv)

	// --- Database ---
	// TranslateError maps driver-specific duplicate-key failures to
	// gorm.ErrDuplicatedKey, which the auth service relies on.
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	// --- Cache ---
	// The cache fails open, so a missing redis only costs performance.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	redisCache := cache.NewRedisCache(ctx, cache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	}, log)
	cancel()
	defer redisCache.Close()

	// --- RabbitMQ ---
	// Catalog events are best effort; the app runs without a broker.
	var mqClient *rabbitmq.Client
	mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
	if err != nil {
		log.WithError(err).Warn("RabbitMQ unavailable, catalog events disabled")
		mqClient = nil
	} else {
		defer mqClient.Close()
	}

	// --- Image storage ---
	images, err := imagestore.NewDiskStore(cfg.ImageDir)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize image storage")
	}

	// --- Repositories ---
	productRepo := repositories.NewGormRepository[models.Product](db)
	userRepo := repositories.NewGormRepository[models.User](db)

	// --- Services ---
	var events services.EventPublisher
	if mqClient != nil {
		events = mqClient
	}
	productService := services.NewProductService(productRepo, redisCache, events, log)
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, log)

	// --- Handlers ---
	productHandler := handlers.NewProductHandler(productService, images, log)
	authHandler := handlers.NewAuthHandler(authService, log)

	// --- Fiber app ---
	app := fiber.New(fiber.Config{BodyLimit: 10 * 1024 * 1024})
	app.Use(fiberlogger.New())

	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterRoutes(apiV1, authService)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Catalog event consumer ---
	// Mirrors events into the log; downstream consumers (stock sync, mail)
	// attach to the same queue.
	if mqClient != nil {
		if err := mqClient.ConsumeCatalogEvents(func(msg amqp.Delivery) error {
			log.WithField("event", msg.Type).Info(string(msg.Body))
			return nil
		}); err != nil {
			log.WithError(err).Warn("failed to start catalog event consumer")
		}
	}

	// --- Start HTTP server with graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.WithField("port", cfg.AppPort).Info("starting server")
		if err := app.Listen(cfg.AppPort); err != nil {
			log.WithError(err).Fatal("server failed to start")
		}
	}()

	<-quit
	log.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
	log.Info("server stopped")
}
