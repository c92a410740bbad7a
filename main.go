package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"eminence/internal/config"
	"eminence/internal/handlers"
	"eminence/internal/models"
	"eminence/internal/repositories"
	"eminence/internal/services"
	"eminence/pkg/cloudinary"
	"eminence/pkg/rabbitmq"
	"eminence/pkg/telegram"
)

func main() {
	cfg := config.Load()

	// --- Database ---
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.Category{}, &models.Product{}, &models.User{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- Outbound provider clients ---
	// A single HTTP client is shared by Telegram and Cloudinary so the
	// optional proxy applies to both.
	outbound := cfg.OutboundHTTPClient()
	telegramClient := telegram.NewClient(telegram.Config{
		Token:           cfg.TelegramToken,
		ChatID:          cfg.TelegramChatID,
		ProductPageBase: cfg.ProductPageBase,
	}, outbound)
	cloudinaryClient := cloudinary.NewClient(cloudinary.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
	}, outbound)

	// --- Optional event queue ---
	// The catalog works without RabbitMQ; product events are simply skipped.
	var events services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Printf("Warning: RabbitMQ unavailable, continuing without product events: %v", err)
		} else {
			defer mqClient.Close()
			events = mqClient
		}
	}

	// --- Repositories ---
	productRepo := repositories.NewGORMProductRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	// --- Services ---
	productService := services.NewProductService(productRepo, cloudinaryClient, telegramClient, events)
	categoryService := services.NewCategoryService(categoryRepo, productRepo)
	authService := services.NewAuthService(userRepo)

	// --- Handlers ---
	productHandler := handlers.NewProductHandler(productService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(authService)
	uploadHandler := handlers.NewUploadHandler(cloudinaryClient)

	// --- Fiber app ---
	app := fiber.New()
	app.Use(logger.New())

	api := app.Group("/api")
	authHandler.RegisterRoutes(api)
	userHandler.RegisterRoutes(api)
	categoryHandler.RegisterRoutes(api)
	productHandler.RegisterRoutes(api)
	uploadHandler.RegisterRoutes(api)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start HTTP server with graceful shutdown ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}
