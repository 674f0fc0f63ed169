package handlers

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/musuqdelivery/musuq-backend/database"
	"github.com/musuqdelivery/musuq-backend/internal/services"
)

// HealthHandler reports service liveness for the platform load balancer
type HealthHandler struct {
	sessions  services.SessionStore
	startedAt time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(sessions services.SessionStore) *HealthHandler {
	return &HealthHandler{
		sessions:  sessions,
		startedAt: time.Now(),
	}
}

// HandleRoot returns a short service summary
func (h *HealthHandler) HandleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "Musuq Delivery WhatsApp Bot",
		"version": "1.0.0",
		"status":  "running",
	})
}

// HandleHealth reports the database connection and session count
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	dbStatus := "not configured"
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		dbStatus = "memory"
	} else if database.DB != nil {
		dbStatus = "connected"
		if sqlDB, err := database.DB.DB(); err != nil || sqlDB.Ping() != nil {
			dbStatus = "unreachable"
		}
	}

	status := fiber.StatusOK
	if dbStatus == "unreachable" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status":          "ok",
		"database":        dbStatus,
		"active_sessions": h.sessions.ActiveCount(),
		"uptime_seconds":  int(time.Since(h.startedAt).Seconds()),
	})
}
