package storage

import (
	"github.com/musuqdelivery/musuq-backend/internal/models"
)

var storeInstance Store

// SetStore sets the global store instance (call from main.go)
func SetStore(s Store) {
	storeInstance = s
}

// GetStore returns the global store instance
func GetStore() Store {
	return storeInstance
}

// Store defines the interface for storage operations
type Store interface {
	// Restaurant operations
	CreateRestaurant(r *models.Restaurant) (*models.Restaurant, error)
	GetRestaurant(restaurantID string) (*models.Restaurant, error)
	ListOpenRestaurants() ([]*models.Restaurant, error)

	// Menu operations
	CreateMenuItem(item *models.MenuItem) (*models.MenuItem, error)
	ListAvailableMenu(restaurantID string) ([]*models.MenuItem, error)

	// Customer operations
	FindOrCreateCustomer(phone, displayName string) (*models.Customer, error)
	GetCustomerByPhone(phone string) (*models.Customer, error)

	// Saved address operations (default-first ordering)
	ListSavedAddresses(phone string) ([]*models.SavedAddress, error)
	SaveAddress(phone string, addr *models.SavedAddress) (*models.SavedAddress, error)

	// Order operations
	CreateOrder(order *models.Order) (*models.Order, error)
	GetOrder(orderNumber string) (*models.Order, error)
	GetOrdersByStatus(status string) ([]*models.Order, error)
	UpdateOrder(order *models.Order) error
}
