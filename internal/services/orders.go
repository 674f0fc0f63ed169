package services

import (
	"fmt"

	"github.com/musuqdelivery/musuq-backend/internal/models"
	"github.com/musuqdelivery/musuq-backend/internal/storage"
)

// OrderService materializes a completed session into a persisted order
type OrderService struct {
	store storage.Store
}

// NewOrderService creates a new order service
func NewOrderService(store storage.Store) *OrderService {
	return &OrderService{store: store}
}

// PlaceOrder converts the accumulated session (restaurant, cart, address,
// payment method, delivery estimate) into one persisted order with its
// line items. Persistence failure is fatal to the attempt and surfaces to
// the state machine as a placement failure.
func (o *OrderService) PlaceOrder(session *Session, displayName string) (*models.Order, error) {
	if session.Restaurant == nil {
		return nil, fmt.Errorf("no restaurant selected")
	}
	if len(session.Cart) == 0 {
		return nil, fmt.Errorf("cart is empty")
	}
	if session.DeliveryAddress == nil {
		return nil, fmt.Errorf("no delivery address")
	}
	if session.PaymentMethod == "" {
		return nil, fmt.Errorf("no payment method")
	}

	customer, err := o.store.FindOrCreateCustomer(session.Phone, displayName)
	if err != nil {
		return nil, fmt.Errorf("customer lookup failed: %w", err)
	}

	subtotal := CartSubtotal(session.Cart)
	estimate := session.DeliveryEstimate

	order := &models.Order{
		OrderNumber:      NewOrderNumber(),
		CustomerID:       customer.CustomerID,
		CustomerPhone:    session.Phone,
		RestaurantID:     session.Restaurant.RestaurantID,
		RestaurantName:   session.Restaurant.Name,
		DeliveryAddress:  session.DeliveryAddress.Text,
		AddressReference: session.DeliveryAddress.Reference,
		PaymentMethod:    session.PaymentMethod,
		Subtotal:         subtotal,
		DeliveryFee:      estimate.Fee,
		Total:            subtotal + estimate.Fee,
		DistanceKm:       estimate.DistanceKm,
		EtaMinutes:       estimate.EtaMinutes,
		Status:           models.OrderStatusPending,
	}

	if coords := session.DeliveryAddress.Coordinates; coords != nil {
		lat, lng := coords.Latitude, coords.Longitude
		order.Latitude = &lat
		order.Longitude = &lng
	}

	for _, line := range session.Cart {
		order.Items = append(order.Items, models.OrderItem{
			MenuItemID: line.MenuItemID,
			Name:       line.Name,
			UnitPrice:  line.UnitPrice,
			Quantity:   line.Quantity,
			Notes:      line.Notes,
		})
	}

	return o.store.CreateOrder(order)
}
