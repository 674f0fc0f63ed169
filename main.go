package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/musuqdelivery/musuq-backend/database"
	"github.com/musuqdelivery/musuq-backend/internal/jobs"
	"github.com/musuqdelivery/musuq-backend/internal/models"
	"github.com/musuqdelivery/musuq-backend/internal/routes"
	"github.com/musuqdelivery/musuq-backend/internal/services"
	"github.com/musuqdelivery/musuq-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		err := godotenv.Load(".env")
		if err != nil {
			err = godotenv.Load("environments/.env.development")
			if err != nil {
				log.Println("⚠️  No .env file found - checking environment variables")
			}
		}
	}

	// Initialize storage
	var store storage.Store

	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.Customer{},
			&models.Restaurant{},
			&models.MenuItem{},
			&models.SavedAddress{},
			&models.Order{},
			&models.OrderItem{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(database.DB)
		log.Println("✅ Using PostgreSQL database storage")
	}

	// Initialize Twilio service. Without credentials replies are only
	// logged, which is enough for local development.
	twilioService, err := services.NewTwilioService()
	if err != nil {
		log.Printf("⚠️  Twilio service not initialized: %v", err)
		twilioService = nil
	} else {
		log.Println("✅ Twilio service initialized")
	}

	// Set global instances
	storage.SetStore(store)
	services.SetTwilioService(twilioService)

	// Session store with configurable idle eviction
	idleThreshold := services.DefaultIdleThreshold
	if minutes, err := strconv.Atoi(os.Getenv("SESSION_IDLE_MINUTES")); err == nil && minutes > 0 {
		idleThreshold = time.Duration(minutes) * time.Minute
	}
	sessions := services.NewMemorySessionStore(idleThreshold)

	// Delivery costing falls back to a fixed quote when the external
	// service is not configured or unavailable
	var coster services.DeliveryCoster
	if httpCoster := services.NewHTTPDeliveryCoster(); httpCoster != nil {
		coster = httpCoster
	}
	estimator := services.NewDeliveryEstimator(coster)

	var templates *services.TemplateService
	if twilioService != nil {
		templates = services.NewTemplateService(twilioService)
	}

	genai, err := services.NewGenAIResponder()
	if err != nil {
		log.Fatal("Failed to initialize generative fallback:", err)
	}
	if genai != nil {
		log.Println("✅ Generative fallback enabled")
	}

	conversation := services.NewConversationService(store, sessions, estimator, templates, genai)

	// Start the order follow-up job
	followUpJob := jobs.NewOrderFollowUpJob(store, twilioService, templates, time.Minute, 2*time.Minute)
	followUpJob.Start()

	log.Println("✅ All services initialized")

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "Musuq Delivery Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	routes.SetupRoutes(app, store, conversation, twilioService, sessions)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		followUpJob.Stop()
		sessions.Close()
		_ = app.Shutdown()
	}()

	log.Println("========================================")
	log.Printf("🚀 Musuq Delivery Backend starting on port %s", port)
	log.Printf("📊 Storage: %s", getStorageType())
	log.Printf("🌍 Environment: %s", getEnvironment())
	log.Printf("📱 WhatsApp: %s", getWhatsAppStatus(twilioService))
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func getEnvironment() string {
	if os.Getenv("INSTANCE_CONNECTION_NAME") != "" {
		return "Production (Cloud Run)"
	}
	return "Development (Local)"
}

func getStorageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}

func getWhatsAppStatus(ts *services.TwilioService) string {
	if ts == nil {
		return "Not configured"
	}
	return "Configured"
}
