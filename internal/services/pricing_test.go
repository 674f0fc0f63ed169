package services

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musuqdelivery/musuq-backend/internal/models"
)

func TestCartSubtotalAndCount(t *testing.T) {
	cart := []models.CartLine{
		{Name: "Lomo saltado", UnitPrice: 18.50, Quantity: 2},
		{Name: "Chicha morada", UnitPrice: 3.50, Quantity: 3},
	}

	assert.InDelta(t, 47.50, CartSubtotal(cart), 0.001)
	assert.Equal(t, 5, CartItemCount(cart))

	assert.Zero(t, CartSubtotal(nil))
	assert.Zero(t, CartItemCount(nil))
}

func TestNewOrderNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-\d{6}-\d{3}$`)

	for i := 0; i < 50; i++ {
		number := NewOrderNumber()
		assert.Regexp(t, pattern, number)
	}
}

func TestGroupMenuByCategory(t *testing.T) {
	items := []*models.MenuItem{
		{Name: "Ceviche", Category: "Platos"},
		{Name: "Inca Kola", Category: "Bebidas"},
		{Name: "Arroz con mariscos", Category: "Platos"},
		{Name: "Picarones"}, // empty category renders as General
	}

	ordered := GroupMenuByCategory(items)
	require.Len(t, ordered, 4)

	// First-seen category order, insertion order within each category
	assert.Equal(t, "Ceviche", ordered[0].Name)
	assert.Equal(t, "Arroz con mariscos", ordered[1].Name)
	assert.Equal(t, "Inca Kola", ordered[2].Name)
	assert.Equal(t, "Picarones", ordered[3].Name)
}

func TestRenderMenuGroupsAndNumbersContinuously(t *testing.T) {
	items := GroupMenuByCategory([]*models.MenuItem{
		{Name: "Ceviche", Category: "Platos", Price: 25.00},
		{Name: "Chicha", Category: "Bebidas", Price: 3.50},
		{Name: "Tiradito", Category: "Platos", Price: 22.00},
	})

	text := RenderMenu("La Mar", items)

	assert.Contains(t, text, "Menú de La Mar")
	assert.Contains(t, text, "— Platos —")
	assert.Contains(t, text, "— Bebidas —")
	assert.Contains(t, text, "1. Ceviche - S/ 25.00")
	assert.Contains(t, text, "2. Tiradito - S/ 22.00")
	assert.Contains(t, text, "3. Chicha - S/ 3.50")
}

func TestRenderCart(t *testing.T) {
	cart := []models.CartLine{
		{Name: "Pollo a la brasa", UnitPrice: 15.90, Quantity: 2, Notes: "sin cebolla"},
	}

	text := RenderCart(cart, "El Fogón")
	assert.Contains(t, text, "Tu pedido en El Fogón")
	assert.Contains(t, text, "2 x S/ 15.90 = S/ 31.80")
	assert.Contains(t, text, "📝 sin cebolla")
	assert.Contains(t, text, "Subtotal: S/ 31.80")

	empty := RenderCart(nil, "El Fogón")
	assert.Contains(t, empty, "carrito está vacío")
}

func TestRenderPaymentMenu(t *testing.T) {
	text := RenderPaymentMenu(models.DeliveryEstimate{Fee: 7.50, DistanceKm: 3.2, EtaMinutes: 25})

	for _, method := range models.PaymentMethods {
		assert.Contains(t, text, method)
	}
	assert.Contains(t, text, "Delivery: S/ 7.50")
	assert.Contains(t, text, "(3.2 km)")
	assert.Contains(t, text, "25 min aprox.")

	// Fallback estimates carry no distance
	noDistance := RenderPaymentMenu(models.DefaultDeliveryEstimate())
	assert.NotContains(t, noDistance, "km)")
}

func TestRenderVoucher(t *testing.T) {
	order := &models.Order{
		OrderNumber:      "ORD-260831-042",
		RestaurantName:   "El Fogón",
		DeliveryAddress:  "Av. Los Olivos 123, Surco",
		AddressReference: "portón verde",
		PaymentMethod:    models.PaymentYape,
		Subtotal:         31.80,
		DeliveryFee:      5.00,
		Total:            36.80,
		EtaMinutes:       30,
		Items: []models.OrderItem{
			{Name: "Pollo a la brasa", UnitPrice: 15.90, Quantity: 2, Notes: "sin cebolla"},
		},
	}

	text := RenderVoucher(order)

	assert.Contains(t, text, "¡Pedido confirmado!")
	assert.Contains(t, text, "ORD-260831-042")
	assert.Contains(t, text, "El Fogón")
	assert.Contains(t, text, "2 x S/ 15.90 = S/ 31.80")
	assert.Contains(t, text, "sin cebolla")
	assert.Contains(t, text, "Subtotal: S/ 31.80")
	assert.Contains(t, text, "Delivery: S/ 5.00")
	assert.Contains(t, text, "Total: S/ 36.80")
	assert.Contains(t, text, "Av. Los Olivos 123, Surco")
	assert.Contains(t, text, "portón verde")
	assert.Contains(t, text, models.PaymentYape)
	assert.Contains(t, text, "30 minutos")
	assert.Contains(t, text, SupportFooter)
}

func TestRenderSavedAddresses(t *testing.T) {
	addrs := []*models.SavedAddress{
		{Label: "Casa", Address: "Jr. Ayacucho 456", Reference: "timbre rojo", IsDefault: true},
		{Label: "Trabajo", Address: "Av. Arequipa 2450"},
	}

	text := RenderSavedAddresses(addrs)
	assert.Contains(t, text, "*Casa* ⭐")
	assert.Contains(t, text, "Ref: timbre rojo")
	assert.Contains(t, text, "*Trabajo*")
	assert.Contains(t, text, "*nueva*")
}
