package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/musuqdelivery/musuq-backend/internal/models"
)

// MemoryStore holds all data in memory for development and tests
type MemoryStore struct {
	restaurants []*models.Restaurant
	menuItems   []*models.MenuItem
	customers   map[string]*models.Customer // keyed by phone
	addresses   []*models.SavedAddress
	orders      map[string]*models.Order // keyed by order number

	// Mutexes for thread safety
	restaurantMu sync.RWMutex
	customerMu   sync.RWMutex
	addressMu    sync.RWMutex
	orderMu      sync.RWMutex

	// Counters for ID generation
	restaurantCounter int
	menuItemCounter   uint
	addressCounter    uint
	orderCounter      uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		customers: make(map[string]*models.Customer),
		orders:    make(map[string]*models.Order),
	}
}

// Restaurant operations

func (m *MemoryStore) CreateRestaurant(r *models.Restaurant) (*models.Restaurant, error) {
	m.restaurantMu.Lock()
	defer m.restaurantMu.Unlock()

	m.restaurantCounter++
	if r.RestaurantID == "" {
		r.RestaurantID = fmt.Sprintf("RES%05d", m.restaurantCounter)
	}
	r.CreatedAt = time.Now()
	r.UpdatedAt = time.Now()

	m.restaurants = append(m.restaurants, r)
	return r, nil
}

func (m *MemoryStore) GetRestaurant(restaurantID string) (*models.Restaurant, error) {
	m.restaurantMu.RLock()
	defer m.restaurantMu.RUnlock()

	for _, r := range m.restaurants {
		if r.RestaurantID == restaurantID {
			return r, nil
		}
	}
	return nil, fmt.Errorf("restaurant not found")
}

func (m *MemoryStore) ListOpenRestaurants() ([]*models.Restaurant, error) {
	m.restaurantMu.RLock()
	defer m.restaurantMu.RUnlock()

	now := time.Now()
	var open []*models.Restaurant
	for _, r := range m.restaurants {
		if r.IsOpenAt(now) {
			open = append(open, r)
		}
	}
	return open, nil
}

// Menu operations

func (m *MemoryStore) CreateMenuItem(item *models.MenuItem) (*models.MenuItem, error) {
	m.restaurantMu.Lock()
	defer m.restaurantMu.Unlock()

	m.menuItemCounter++
	item.ID = m.menuItemCounter
	item.CreatedAt = time.Now()
	item.UpdatedAt = time.Now()

	m.menuItems = append(m.menuItems, item)
	return item, nil
}

func (m *MemoryStore) ListAvailableMenu(restaurantID string) ([]*models.MenuItem, error) {
	m.restaurantMu.RLock()
	defer m.restaurantMu.RUnlock()

	// Insertion order is display order; category grouping happens upstream
	var items []*models.MenuItem
	for _, item := range m.menuItems {
		if item.RestaurantID == restaurantID && item.Available {
			items = append(items, item)
		}
	}
	return items, nil
}

// Customer operations

func (m *MemoryStore) FindOrCreateCustomer(phone, displayName string) (*models.Customer, error) {
	m.customerMu.Lock()
	defer m.customerMu.Unlock()

	if existing, ok := m.customers[phone]; ok {
		return existing, nil
	}

	customer := &models.Customer{
		CustomerID:  uuid.NewString(),
		Phone:       phone,
		DisplayName: displayName,
	}
	customer.ID = uint(len(m.customers) + 1)
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = time.Now()

	m.customers[phone] = customer
	return customer, nil
}

func (m *MemoryStore) GetCustomerByPhone(phone string) (*models.Customer, error) {
	m.customerMu.RLock()
	defer m.customerMu.RUnlock()

	customer, ok := m.customers[phone]
	if !ok {
		return nil, fmt.Errorf("customer not found")
	}
	return customer, nil
}

// Saved address operations

func (m *MemoryStore) ListSavedAddresses(phone string) ([]*models.SavedAddress, error) {
	customer, err := m.GetCustomerByPhone(phone)
	if err != nil {
		return nil, nil // No profile yet means no saved addresses
	}

	m.addressMu.RLock()
	defer m.addressMu.RUnlock()

	var addrs []*models.SavedAddress
	for _, a := range m.addresses {
		if a.CustomerID == customer.CustomerID {
			addrs = append(addrs, a)
		}
	}

	// Default-first, then oldest-first
	sort.SliceStable(addrs, func(i, j int) bool {
		if addrs[i].IsDefault != addrs[j].IsDefault {
			return addrs[i].IsDefault
		}
		return addrs[i].ID < addrs[j].ID
	})
	return addrs, nil
}

func (m *MemoryStore) SaveAddress(phone string, addr *models.SavedAddress) (*models.SavedAddress, error) {
	customer, err := m.FindOrCreateCustomer(phone, "")
	if err != nil {
		return nil, err
	}

	m.addressMu.Lock()
	defer m.addressMu.Unlock()

	m.addressCounter++
	addr.ID = m.addressCounter
	addr.CustomerID = customer.CustomerID
	addr.CreatedAt = time.Now()
	addr.UpdatedAt = time.Now()

	m.addresses = append(m.addresses, addr)
	return addr, nil
}

// Order operations

func (m *MemoryStore) CreateOrder(order *models.Order) (*models.Order, error) {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	if order.OrderNumber == "" {
		return nil, fmt.Errorf("order number required")
	}
	if _, exists := m.orders[order.OrderNumber]; exists {
		return nil, fmt.Errorf("order already exists")
	}

	m.orderCounter++
	order.ID = m.orderCounter
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	// Order and line items are committed under one lock
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		order.Items[i].CreatedAt = now
	}

	m.orders[order.OrderNumber] = order
	return order, nil
}

func (m *MemoryStore) GetOrder(orderNumber string) (*models.Order, error) {
	m.orderMu.RLock()
	defer m.orderMu.RUnlock()

	order, ok := m.orders[orderNumber]
	if !ok {
		return nil, fmt.Errorf("order not found")
	}
	return order, nil
}

func (m *MemoryStore) GetOrdersByStatus(status string) ([]*models.Order, error) {
	m.orderMu.RLock()
	defer m.orderMu.RUnlock()

	var result []*models.Order
	for _, order := range m.orders {
		if order.Status == status {
			result = append(result, order)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MemoryStore) UpdateOrder(order *models.Order) error {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	if _, ok := m.orders[order.OrderNumber]; !ok {
		return fmt.Errorf("order not found")
	}
	order.UpdatedAt = time.Now()
	m.orders[order.OrderNumber] = order
	return nil
}
