package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/musuqdelivery/musuq-backend/internal/models"
)

// DatabaseStore implements Store backed by PostgreSQL via GORM
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a new database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// Restaurant operations

func (d *DatabaseStore) CreateRestaurant(r *models.Restaurant) (*models.Restaurant, error) {
	if err := d.db.Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

func (d *DatabaseStore) GetRestaurant(restaurantID string) (*models.Restaurant, error) {
	var r models.Restaurant
	if err := d.db.Where("restaurant_id = ?", restaurantID).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func (d *DatabaseStore) ListOpenRestaurants() ([]*models.Restaurant, error) {
	var all []*models.Restaurant
	if err := d.db.Where("is_active = ?", true).Order("id").Find(&all).Error; err != nil {
		return nil, err
	}

	// Attention hours are evaluated in process; schedules can wrap midnight
	now := time.Now()
	var open []*models.Restaurant
	for _, r := range all {
		if r.IsOpenAt(now) {
			open = append(open, r)
		}
	}
	return open, nil
}

// Menu operations

func (d *DatabaseStore) CreateMenuItem(item *models.MenuItem) (*models.MenuItem, error) {
	if err := d.db.Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (d *DatabaseStore) ListAvailableMenu(restaurantID string) ([]*models.MenuItem, error) {
	var items []*models.MenuItem
	err := d.db.
		Where("restaurant_id = ? AND available = ?", restaurantID, true).
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Customer operations

func (d *DatabaseStore) FindOrCreateCustomer(phone, displayName string) (*models.Customer, error) {
	var customer models.Customer
	err := d.db.Where("phone = ?", phone).First(&customer).Error
	if err == nil {
		return &customer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	customer = models.Customer{Phone: phone, DisplayName: displayName}
	if err := d.db.Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (d *DatabaseStore) GetCustomerByPhone(phone string) (*models.Customer, error) {
	var customer models.Customer
	if err := d.db.Where("phone = ?", phone).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// Saved address operations

func (d *DatabaseStore) ListSavedAddresses(phone string) ([]*models.SavedAddress, error) {
	customer, err := d.GetCustomerByPhone(phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var addrs []*models.SavedAddress
	err = d.db.
		Where("customer_id = ?", customer.CustomerID).
		Order("is_default DESC, id ASC").
		Find(&addrs).Error
	if err != nil {
		return nil, err
	}
	return addrs, nil
}

func (d *DatabaseStore) SaveAddress(phone string, addr *models.SavedAddress) (*models.SavedAddress, error) {
	customer, err := d.FindOrCreateCustomer(phone, "")
	if err != nil {
		return nil, err
	}

	addr.CustomerID = customer.CustomerID
	if err := d.db.Create(addr).Error; err != nil {
		return nil, err
	}
	return addr, nil
}

// Order operations

// CreateOrder persists the order row and all its line items inside a single
// transaction so a failure never leaves an order without its items.
func (d *DatabaseStore) CreateOrder(order *models.Order) (*models.Order, error) {
	err := d.db.Transaction(func(tx *gorm.DB) error {
		items := order.Items
		order.Items = nil

		if err := tx.Create(order).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = order.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}

		order.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (d *DatabaseStore) GetOrder(orderNumber string) (*models.Order, error) {
	var order models.Order
	err := d.db.
		Preload("Items").
		Where("order_number = ?", orderNumber).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (d *DatabaseStore) GetOrdersByStatus(status string) ([]*models.Order, error) {
	var orders []*models.Order
	err := d.db.
		Where("status = ?", status).
		Order("id").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (d *DatabaseStore) UpdateOrder(order *models.Order) error {
	return d.db.Omit("Items").Save(order).Error
}
