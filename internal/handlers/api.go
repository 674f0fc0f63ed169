package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/musuqdelivery/musuq-backend/internal/storage"
)

// APIHandler exposes a small read-only JSON surface for the ops dashboard
type APIHandler struct {
	store storage.Store
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(store storage.Store) *APIHandler {
	return &APIHandler{store: store}
}

// ListRestaurants returns the restaurants currently open for orders
func (h *APIHandler) ListRestaurants(c *fiber.Ctx) error {
	restaurants, err := h.store.ListOpenRestaurants()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list restaurants",
		})
	}

	return c.JSON(fiber.Map{
		"count":       len(restaurants),
		"restaurants": restaurants,
	})
}

// GetRestaurantMenu returns the available menu for one restaurant
func (h *APIHandler) GetRestaurantMenu(c *fiber.Ctx) error {
	restaurantID := c.Params("id")

	if _, err := h.store.GetRestaurant(restaurantID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Restaurant not found",
		})
	}

	menu, err := h.store.ListAvailableMenu(restaurantID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load menu",
		})
	}

	return c.JSON(fiber.Map{
		"restaurant_id": restaurantID,
		"count":         len(menu),
		"menu":          menu,
	})
}

// GetOrder returns one order with its items by order number
func (h *APIHandler) GetOrder(c *fiber.Ctx) error {
	orderNumber := c.Params("number")

	order, err := h.store.GetOrder(orderNumber)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Order not found",
		})
	}

	return c.JSON(order)
}
