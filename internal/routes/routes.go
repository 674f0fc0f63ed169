package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/musuqdelivery/musuq-backend/internal/handlers"
	"github.com/musuqdelivery/musuq-backend/internal/middleware"
	"github.com/musuqdelivery/musuq-backend/internal/services"
	"github.com/musuqdelivery/musuq-backend/internal/storage"
)

// SetupRoutes wires all HTTP routes
func SetupRoutes(
	app *fiber.App,
	store storage.Store,
	conversation *services.ConversationService,
	twilioService *services.TwilioService,
	sessions services.SessionStore,
) {
	whatsappHandler := handlers.NewWhatsAppHandler(conversation, twilioService)
	apiHandler := handlers.NewAPIHandler(store)
	healthHandler := handlers.NewHealthHandler(sessions)

	app.Get("/", healthHandler.HandleRoot)
	app.Get("/health", healthHandler.HandleHealth)

	// Production webhooks require a valid Twilio signature
	webhook := app.Group("/webhook")
	if shouldValidateWebhooks() {
		webhook.Use(middleware.ValidateTwilioSignature())
	} else {
		log.Println("⚠️  Twilio webhook signature validation DISABLED")
	}
	webhook.Post("/whatsapp", whatsappHandler.HandleWebhook)

	// Development-only endpoint: exercises the flow and returns the reply
	app.Post("/test/whatsapp", whatsappHandler.HandleTestWebhook)

	api := app.Group("/api")
	api.Get("/restaurants", apiHandler.ListRestaurants)
	api.Get("/restaurants/:id/menu", apiHandler.GetRestaurantMenu)
	api.Get("/orders/:number", apiHandler.GetOrder)
}

func shouldValidateWebhooks() bool {
	if os.Getenv("DISABLE_WEBHOOK_VALIDATION") == "true" {
		return false
	}
	return os.Getenv("ENVIRONMENT") != "development"
}
