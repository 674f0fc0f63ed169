package handlers

import (
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/musuqdelivery/musuq-backend/internal/models"
	"github.com/musuqdelivery/musuq-backend/internal/services"
)

// WhatsAppHandler receives Twilio webhook events and hands them to the
// conversation service. It always acknowledges with 200 so Twilio never
// retries a message we already processed.
type WhatsAppHandler struct {
	conversation  *services.ConversationService
	twilioService *services.TwilioService
}

// NewWhatsAppHandler creates a new WhatsApp handler
func NewWhatsAppHandler(conversation *services.ConversationService, twilioService *services.TwilioService) *WhatsAppHandler {
	return &WhatsAppHandler{
		conversation:  conversation,
		twilioService: twilioService,
	}
}

// TwilioWebhookPayload represents an incoming WhatsApp message from Twilio
type TwilioWebhookPayload struct {
	MessageSid  string `form:"MessageSid"`
	AccountSid  string `form:"AccountSid"`
	From        string `form:"From"` // "whatsapp:+51987654321"
	To          string `form:"To"`
	Body        string `form:"Body"`
	ProfileName string `form:"ProfileName"`
	Latitude    string `form:"Latitude"` // set when the customer shares a location
	Longitude   string `form:"Longitude"`
	NumMedia    string `form:"NumMedia"`
}

// HandleWebhook processes incoming WhatsApp messages
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	log.Printf("📱 WhatsApp message from %s: %s", payload.From, payload.Body)

	coords := parseCoordinates(payload.Latitude, payload.Longitude)

	// Status callbacks carry no body and no location; nothing to process
	if payload.From != "" && (payload.Body != "" || coords != nil) {
		phone := strings.TrimPrefix(payload.From, "whatsapp:")

		response, err := h.conversation.HandleInboundMessage(phone, payload.Body, payload.ProfileName, coords)
		if err != nil {
			log.Printf("Error processing message from %s: %v", phone, err)
		}

		if h.twilioService != nil && response != "" {
			if err := h.twilioService.SendWhatsAppMessage(phone, response); err != nil {
				log.Printf("❌ Failed to send WhatsApp response: %v", err)
			} else {
				log.Printf("✅ Response sent to %s", phone)
			}
		} else if response != "" {
			log.Printf("📤 Response (not sent - Twilio not configured): %s", response)
		}
	}

	return c.SendStatus(fiber.StatusOK)
}

// TestWebhookPayload lets developers exercise the flow without Twilio
type TestWebhookPayload struct {
	Phone     string `json:"phone"`
	Message   string `json:"message"`
	Name      string `json:"name"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// HandleTestWebhook processes test WhatsApp messages (for development).
// The reply is returned in the JSON body instead of being sent.
func (h *WhatsAppHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid test payload",
		})
	}

	log.Printf("🧪 Test webhook from %s: %s", payload.Phone, payload.Message)

	coords := parseCoordinates(payload.Latitude, payload.Longitude)

	response, err := h.conversation.HandleInboundMessage(payload.Phone, payload.Message, payload.Name, coords)
	if err != nil {
		log.Printf("Error processing test message: %v", err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"response": response,
	})
}

// parseCoordinates returns coordinates only when both fields parse
func parseCoordinates(latStr, lngStr string) *models.Coordinates {
	if latStr == "" || lngStr == "" {
		return nil
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil
	}
	return &models.Coordinates{Latitude: lat, Longitude: lng}
}
