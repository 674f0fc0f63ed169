package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musuqdelivery/musuq-backend/internal/models"
	"github.com/musuqdelivery/musuq-backend/internal/storage"
)

const testPhone = "+51987654321"

func newTestConversation(t *testing.T, store storage.Store) *ConversationService {
	t.Helper()

	sessions := NewMemorySessionStore(time.Hour)
	t.Cleanup(sessions.Close)

	return NewConversationService(store, sessions, NewDeliveryEstimator(nil), nil, nil)
}

func seedRestaurant(t *testing.T, store *storage.MemoryStore) *models.Restaurant {
	t.Helper()

	restaurant, err := store.CreateRestaurant(&models.Restaurant{
		Name:        "Pollería El Fogón",
		Description: "Pollo a la brasa y parrillas",
		IsActive:    true,
	})
	require.NoError(t, err)

	items := []*models.MenuItem{
		{RestaurantID: restaurant.RestaurantID, Name: "Pollo a la brasa", Price: 15.90, Category: "Platos", Available: true},
		{RestaurantID: restaurant.RestaurantID, Name: "Inca Kola 500ml", Price: 4.50, Category: "Bebidas", Available: true},
		{RestaurantID: restaurant.RestaurantID, Name: "Anticuchos", Price: 12.00, Category: "Platos", Available: true},
	}
	for _, item := range items {
		_, err := store.CreateMenuItem(item)
		require.NoError(t, err)
	}
	return restaurant
}

func send(t *testing.T, conv *ConversationService, message string) string {
	t.Helper()

	reply, err := conv.HandleInboundMessage(testPhone, message, "Lucía", nil)
	require.NoError(t, err)
	return reply
}

func sessionState(t *testing.T, conv *ConversationService) *Session {
	t.Helper()

	session, ok := conv.sessions.Get(testPhone)
	require.True(t, ok, "session should exist")
	return session
}

func TestFullOrderFlowWithNewAddress(t *testing.T) {
	store := storage.NewMemoryStore()
	seedRestaurant(t, store)
	conv := newTestConversation(t, store)

	reply := send(t, conv, "hola")
	assert.Contains(t, reply, "Musuq Delivery")
	assert.Contains(t, reply, "Pollería El Fogón")
	assert.Equal(t, StateSelectingRestaurant, sessionState(t, conv).State)

	reply = send(t, conv, "1")
	assert.Contains(t, reply, "Menú de Pollería El Fogón")
	assert.Contains(t, reply, "Pollo a la brasa")
	assert.Equal(t, StateAddingItems, sessionState(t, conv).State)

	reply = send(t, conv, "1 2 sin cebolla")
	assert.Contains(t, reply, "Pollo a la brasa")
	assert.Contains(t, reply, "x2")

	session := sessionState(t, conv)
	require.Len(t, session.Cart, 1)
	assert.Equal(t, 2, session.Cart[0].Quantity)
	assert.Equal(t, "sin cebolla", session.Cart[0].Notes)

	reply = send(t, conv, "listo")
	assert.Contains(t, reply, "Tu pedido en Pollería El Fogón")
	assert.Contains(t, reply, "Sí, continuar")
	assert.Equal(t, StateConfirmingCart, sessionState(t, conv).State)

	// No saved addresses yet: confirming routes straight to entry
	reply = send(t, conv, "1")
	assert.Contains(t, reply, "¿A dónde llevamos tu pedido?")
	assert.Equal(t, StateEnteringNewAddress, sessionState(t, conv).State)

	reply = send(t, conv, "Av. Los Olivos 123, Surco")
	assert.Contains(t, reply, "referencia")
	assert.Equal(t, StateConfirmingLocationRef, sessionState(t, conv).State)

	reply = send(t, conv, "portón verde")
	assert.Contains(t, reply, "Delivery: S/ 5.00")
	assert.Contains(t, reply, "guardar esta dirección")
	session = sessionState(t, conv)
	assert.Equal(t, StateSelectingPayment, session.State)
	assert.True(t, session.AwaitingSaveChoice)
	assert.Equal(t, "portón verde", session.DeliveryAddress.Reference)

	reply = send(t, conv, "4")
	assert.Contains(t, reply, "no la guardaremos")
	assert.Contains(t, reply, "¿Cómo deseas pagar?")
	assert.False(t, sessionState(t, conv).AwaitingSaveChoice)

	reply = send(t, conv, "2")
	assert.Contains(t, reply, "¡Pedido confirmado!")
	assert.Contains(t, reply, "Yape")
	assert.Contains(t, reply, "Total: S/ 36.80")

	session = sessionState(t, conv)
	assert.Equal(t, StateOrderActive, session.State)
	require.NotNil(t, session.ActiveOrder)

	// The order and its items are persisted
	order, err := store.GetOrder(session.ActiveOrder.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentYape, order.PaymentMethod)
	assert.InDelta(t, 31.80, order.Subtotal, 0.001)
	assert.InDelta(t, 36.80, order.Total, 0.001)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "sin cebolla", order.Items[0].Notes)
}

func TestSavedAddressIsOfferedAndSkipsSavePrompt(t *testing.T) {
	store := storage.NewMemoryStore()
	seedRestaurant(t, store)
	conv := newTestConversation(t, store)

	_, err := store.SaveAddress(testPhone, &models.SavedAddress{
		Label:     "Casa",
		Address:   "Jr. Ayacucho 456, Cercado",
		Reference: "timbre rojo",
		IsDefault: true,
	})
	require.NoError(t, err)

	send(t, conv, "hola")
	send(t, conv, "1")
	send(t, conv, "2")
	reply := send(t, conv, "listo")
	assert.Contains(t, reply, "Sí, continuar")

	reply = send(t, conv, "si")
	assert.Contains(t, reply, "Tus direcciones guardadas")
	assert.Contains(t, reply, "Jr. Ayacucho 456")
	assert.Equal(t, StateSelectingSavedAddress, sessionState(t, conv).State)

	reply = send(t, conv, "1")
	assert.Contains(t, reply, "¿Cómo deseas pagar?")

	session := sessionState(t, conv)
	assert.Equal(t, StateSelectingPayment, session.State)
	assert.False(t, session.AwaitingSaveChoice, "a reused address is never offered for saving again")
	assert.Equal(t, "Jr. Ayacucho 456, Cercado", session.DeliveryAddress.Text)
	assert.Equal(t, "timbre rojo", session.DeliveryAddress.Reference)
}

func TestSaveChoiceStoresLabeledAddress(t *testing.T) {
	store := storage.NewMemoryStore()
	seedRestaurant(t, store)
	conv := newTestConversation(t, store)

	send(t, conv, "hola")
	send(t, conv, "1")
	send(t, conv, "3 1")
	send(t, conv, "listo")
	send(t, conv, "1")
	send(t, conv, "Calle Las Begonias 890, San Isidro")
	send(t, conv, "no")

	reply := send(t, conv, "2")
	assert.Contains(t, reply, "guardada como *Trabajo*")
	assert.Contains(t, reply, "¿Cómo deseas pagar?")

	addrs, err := store.ListSavedAddresses(testPhone)
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.Equal(t, "Trabajo", addrs[0].Label)
	assert.Equal(t, "Calle Las Begonias 890, San Isidro", addrs[0].Address)

	// The save-choice input is consumed; payment still needs its own reply
	assert.Empty(t, sessionState(t, conv).PaymentMethod)

	reply = send(t, conv, "1")
	assert.Contains(t, reply, "¡Pedido confirmado!")
	assert.Contains(t, reply, models.PaymentCash)
}

func TestOutOfRangeSelectionNeverMutates(t *testing.T) {
	store := storage.NewMemoryStore()
	seedRestaurant(t, store)
	conv := newTestConversation(t, store)

	send(t, conv, "hola")

	reply := send(t, conv, "9")
	assert.Contains(t, reply, "entre 1 y 1")

	session := sessionState(t, conv)
	assert.Equal(t, StateSelectingRestaurant, session.State)
	assert.Nil(t, session.Restaurant)

	// Same bounds message for the menu
	send(t, conv, "1")
	reply = send(t, conv, "99")
	assert.Contains(t, reply, "entre 1 y 3")
	assert.Empty(t, sessionState(t, conv).Cart)
}

func TestCartCommands(t *testing.T) {
	store := storage.NewMemoryStore()
	seedRestaurant(t, store)
	conv := newTestConversation(t, store)

	send(t, conv, "hola")
	send(t, conv, "1")

	reply := send(t, conv, "listo")
	assert.Contains(t, reply, "carrito está vacío")
	assert.Equal(t, StateAddingItems, sessionState(t, conv).State)

	send(t, conv, "1")
	send(t, conv, "1")

	// Lines are never merged
	session := sessionState(t, conv)
	require.Len(t, session.Cart, 2)

	reply = send(t, conv, "ver")
	assert.Contains(t, reply, "Subtotal: S/ 31.80")
	assert.Len(t, sessionState(t, conv).Cart, 2, "viewing the cart does not mutate it")

	reply = send(t, conv, "limpiar")
	assert.Contains(t, reply, "Carrito vaciado")
	assert.Empty(t, sessionState(t, conv).Cart)
}

func TestRestartCommandResetsMidFlow(t *testing.T) {
	store := storage.NewMemoryStore()
	seedRestaurant(t, store)
	conv := newTestConversation(t, store)

	send(t, conv, "hola")
	send(t, conv, "1")
	send(t, conv, "1 2")

	reply := send(t, conv, "hola")
	assert.Contains(t, reply, "Restaurantes abiertos")

	session := sessionState(t, conv)
	assert.Equal(t, StateSelectingRestaurant, session.State)
	assert.Empty(t, session.Cart)
	assert.Nil(t, session.Restaurant)
}

func TestHelpDoesNotMutateState(t *testing.T) {
	store := storage.NewMemoryStore()
	seedRestaurant(t, store)
	conv := newTestConversation(t, store)

	send(t, conv, "hola")
	send(t, conv, "1")
	send(t, conv, "1")

	reply := send(t, conv, "ayuda")
	assert.Contains(t, reply, "Comandos de Musuq Delivery")

	session := sessionState(t, conv)
	assert.Equal(t, StateAddingItems, session.State)
	assert.Len(t, session.Cart, 1)
}

func TestOrderActiveStatusAndReminder(t *testing.T) {
	store := storage.NewMemoryStore()
	seedRestaurant(t, store)
	conv := newTestConversation(t, store)

	placeOrder(t, conv)

	reply := send(t, conv, "estado")
	assert.Contains(t, reply, "en preparación")
	assert.Contains(t, reply, SupportFooter)

	reply = send(t, conv, "gracias!")
	assert.Contains(t, reply, "Escribe *estado*")
}

// failingStore wraps a working store but refuses to persist orders
type failingStore struct {
	storage.Store
}

func (f *failingStore) CreateOrder(order *models.Order) (*models.Order, error) {
	return nil, fmt.Errorf("connection refused")
}

func TestOrderPersistenceFailureResetsSession(t *testing.T) {
	base := storage.NewMemoryStore()
	seedRestaurant(t, base)
	conv := newTestConversation(t, &failingStore{Store: base})

	send(t, conv, "hola")
	send(t, conv, "1")
	send(t, conv, "1")
	send(t, conv, "listo")
	send(t, conv, "1")
	send(t, conv, "Av. Arequipa 2450, Lince")
	send(t, conv, "no")
	send(t, conv, "4")

	reply, err := conv.HandleInboundMessage(testPhone, "1", "Lucía", nil)
	require.Error(t, err)
	assert.Contains(t, reply, "no pudimos registrar tu pedido")

	session := sessionState(t, conv)
	assert.Equal(t, StateStart, session.State)
	assert.Empty(t, session.Cart)
	assert.Nil(t, session.ActiveOrder)
}

func TestSharedLocationBecomesDeliveryAddress(t *testing.T) {
	store := storage.NewMemoryStore()
	seedRestaurant(t, store)
	conv := newTestConversation(t, store)

	send(t, conv, "hola")
	send(t, conv, "1")
	send(t, conv, "1")
	send(t, conv, "listo")
	send(t, conv, "1")

	coords := &models.Coordinates{Latitude: -12.0464, Longitude: -77.0428}
	reply, err := conv.HandleInboundMessage(testPhone, "", "Lucía", coords)
	require.NoError(t, err)
	assert.Contains(t, reply, "referencia")

	session := sessionState(t, conv)
	require.NotNil(t, session.DeliveryAddress)
	require.NotNil(t, session.DeliveryAddress.Coordinates)
	assert.Equal(t, -12.0464, session.DeliveryAddress.Coordinates.Latitude)
}

func TestShortTextAddressIsRejected(t *testing.T) {
	store := storage.NewMemoryStore()
	seedRestaurant(t, store)
	conv := newTestConversation(t, store)

	send(t, conv, "hola")
	send(t, conv, "1")
	send(t, conv, "1")
	send(t, conv, "listo")
	send(t, conv, "1")

	reply := send(t, conv, "mi casa")
	assert.Contains(t, reply, "muy corta")
	assert.Equal(t, StateEnteringNewAddress, sessionState(t, conv).State)
	assert.Nil(t, sessionState(t, conv).DeliveryAddress)
}

// placeOrder drives a session through the whole flow up to ORDER_ACTIVE
func placeOrder(t *testing.T, conv *ConversationService) {
	t.Helper()

	send(t, conv, "hola")
	send(t, conv, "1")
	send(t, conv, "1")
	send(t, conv, "listo")
	send(t, conv, "1")
	send(t, conv, "Av. Javier Prado 1234, La Molina")
	send(t, conv, "no")
	send(t, conv, "4")
	send(t, conv, "1")

	require.Equal(t, StateOrderActive, sessionState(t, conv).State)
}
