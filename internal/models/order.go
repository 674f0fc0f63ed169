package models

import (
	"time"

	"gorm.io/gorm"
)

// Order represents a confirmed customer order
type Order struct {
	gorm.Model

	OrderNumber    string `json:"order_number" gorm:"uniqueIndex"` // ORD-YYMMDD-RRR
	CustomerID     string `json:"customer_id" gorm:"index"`
	CustomerPhone  string `json:"customer_phone" gorm:"index"`
	RestaurantID   string `json:"restaurant_id" gorm:"index"`
	RestaurantName string `json:"restaurant_name"`

	// Delivery destination
	DeliveryAddress  string   `json:"delivery_address"`
	AddressReference string   `json:"address_reference"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`

	// Pricing
	PaymentMethod string  `json:"payment_method"`
	Subtotal      float64 `json:"subtotal"`
	DeliveryFee   float64 `json:"delivery_fee"`
	Total         float64 `json:"total"`
	DistanceKm    float64 `json:"distance_km"`
	EtaMinutes    int     `json:"eta_minutes"`

	// Status tracking
	Status     string     `json:"status" gorm:"default:'PENDING'"` // "PENDING", "PREPARING", "DELIVERED", "CANCELLED"
	NotifiedAt *time.Time `json:"notified_at"`                     // When the preparing follow-up was sent

	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
}

// OrderItem is one cart line persisted with its order
type OrderItem struct {
	gorm.Model

	OrderID    uint    `json:"order_id" gorm:"index"`
	MenuItemID uint    `json:"menu_item_id"`
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
	Notes      string  `json:"notes"`
}

// LineTotal returns unit price times quantity for this line
func (i *OrderItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// Order status constants
const (
	OrderStatusPending   = "PENDING"
	OrderStatusPreparing = "PREPARING"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCancelled = "CANCELLED"
)

// Payment method labels, in menu order
const (
	PaymentCash = "Efectivo"
	PaymentYape = "Yape"
	PaymentPlin = "Plin"
	PaymentCard = "Tarjeta al repartidor"
)

// PaymentMethods is the fixed payment menu shown at checkout; selection is
// a 1-based index into this slice.
var PaymentMethods = []string{PaymentCash, PaymentYape, PaymentPlin, PaymentCard}

// CartLine is one item the customer added to the in-session cart.
// Lines are never merged: adding the same item twice yields two lines.
type CartLine struct {
	MenuItemID uint    `json:"menu_item_id"`
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
	Notes      string  `json:"notes"`
}

// LineTotal returns unit price times quantity for this line
func (l *CartLine) LineTotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// DeliveryEstimate is the fee/distance/ETA triple for shipping an order
type DeliveryEstimate struct {
	Fee        float64 `json:"fee"`
	DistanceKm float64 `json:"distance_km"`
	EtaMinutes int     `json:"eta_minutes"`
}

// DefaultDeliveryEstimate is the fixed fallback used whenever the costing
// capability is unavailable or the destination has no coordinates.
func DefaultDeliveryEstimate() DeliveryEstimate {
	return DeliveryEstimate{Fee: 5.00, DistanceKm: 0, EtaMinutes: 30}
}
