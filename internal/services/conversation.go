package services

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/musuqdelivery/musuq-backend/internal/models"
	"github.com/musuqdelivery/musuq-backend/internal/storage"
)

// ConversationService drives the ordering flow over WhatsApp. Given the
// current session and one inbound message it computes the session
// mutations and the reply text; the webhook handler owns transport.
type ConversationService struct {
	store     storage.Store
	sessions  SessionStore
	orders    *OrderService
	estimator *DeliveryEstimator
	templates *TemplateService
	genai     *GenAIResponder

	// Per-phone locks serialize duplicate webhook deliveries so two
	// messages from the same customer never interleave a read-modify-write
	// on the session. Different customers proceed concurrently.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewConversationService creates the conversation state machine.
// templates and genai are optional and may be nil.
func NewConversationService(
	store storage.Store,
	sessions SessionStore,
	estimator *DeliveryEstimator,
	templates *TemplateService,
	genai *GenAIResponder,
) *ConversationService {
	return &ConversationService{
		store:     store,
		sessions:  sessions,
		orders:    NewOrderService(store),
		estimator: estimator,
		templates: templates,
		genai:     genai,
		locks:     make(map[string]*sync.Mutex),
	}
}

var (
	restartWords = map[string]bool{"hola": true, "reiniciar": true, "empezar": true, "cancelar": true}
	helpWords    = map[string]bool{"ayuda": true, "help": true, "comandos": true}
	doneWords    = map[string]bool{"listo": true, "ya": true, "finalizar": true, "done": true}
	viewWords    = map[string]bool{"ver": true, "carrito": true, "cart": true, "view": true}
	clearWords   = map[string]bool{"limpiar": true, "vaciar": true, "clear": true}
	yesWords     = map[string]bool{"si": true, "sí": true, "1": true, "ok": true, "confirmar": true, "continuar": true}
	noWords      = map[string]bool{"no": true, "2": true, "agregar": true, "modificar": true}
	newAddrWords = map[string]bool{"nueva": true, "otra": true, "nuevo": true}
	skipWords    = map[string]bool{"no": true, "ninguna": true, "omitir": true, "skip": true}
	statusWords  = map[string]bool{"estado": true, "pedido": true, "status": true, "mi pedido": true}
)

// saveLabels are the fixed labels offered when saving a new address;
// option 4 declines.
var saveLabels = []string{"Casa", "Trabajo", "Oficina"}

// HandleInboundMessage is the single entry point: one call per inbound
// webhook event. Returns the reply text to deliver to the customer.
func (c *ConversationService) HandleInboundMessage(phone, message, displayName string, coords *models.Coordinates) (string, error) {
	phone = strings.TrimPrefix(phone, "whatsapp:")

	lock := c.lockFor(phone)
	lock.Lock()
	defer lock.Unlock()

	session, ok := c.sessions.Get(phone)
	if !ok {
		session = NewSession(phone)
	}

	msg := strings.TrimSpace(message)
	lower := strings.ToLower(msg)

	log.Printf("Processing message from %s (state %s): %q", phone, session.State, msg)

	// Global commands override per-state dispatch
	if helpWords[lower] {
		return c.helpMessage(), nil
	}
	if restartWords[lower] {
		session.Reset()
	}

	reply, err := c.dispatch(session, msg, lower, displayName, coords)

	session.Touch()
	c.sessions.Put(session)
	return reply, err
}

func (c *ConversationService) dispatch(session *Session, msg, lower, displayName string, coords *models.Coordinates) (string, error) {
	switch session.State {
	case StateStart:
		return c.handleStart(session)
	case StateSelectingRestaurant:
		return c.handleSelectingRestaurant(session, msg)
	case StateAddingItems:
		return c.handleAddingItems(session, msg, lower)
	case StateConfirmingCart:
		return c.handleConfirmingCart(session, lower)
	case StateManagingAddress:
		return c.manageAddress(session)
	case StateSelectingSavedAddress:
		return c.handleSelectingSavedAddress(session, msg, lower)
	case StateEnteringNewAddress:
		return c.handleEnteringNewAddress(session, msg, coords)
	case StateConfirmingLocationRef:
		return c.handleConfirmingLocationRef(session, msg, lower)
	case StateSelectingPayment:
		return c.handleSelectingPayment(session, msg, displayName)
	case StateOrderActive:
		return c.handleOrderActive(session, msg, lower)
	default:
		session.Reset()
		return c.handleStart(session)
	}
}

// START: list open restaurants and move to selection

func (c *ConversationService) handleStart(session *Session) (string, error) {
	restaurants, err := c.store.ListOpenRestaurants()
	if err != nil {
		log.Printf("Failed to list restaurants: %v", err)
		return "😓 Tenemos un problema técnico. Por favor inténtalo de nuevo en unos minutos.", err
	}
	if len(restaurants) == 0 {
		return "😔 Lo sentimos, no hay restaurantes abiertos en este momento. ¡Vuelve a intentarlo más tarde!", nil
	}

	session.RestaurantCandidates = restaurants
	session.State = StateSelectingRestaurant
	return "¡Hola! 👋 Bienvenido a *Musuq Delivery* 🛵\n\n" + RenderRestaurantList(restaurants), nil
}

// SELECTING_RESTAURANT: positional selection into the displayed list

func (c *ConversationService) handleSelectingRestaurant(session *Session, msg string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(msg))
	if err != nil || n < 1 || n > len(session.RestaurantCandidates) {
		return invalidSelection(len(session.RestaurantCandidates)), nil
	}

	restaurant := session.RestaurantCandidates[n-1]
	menu, err := c.store.ListAvailableMenu(restaurant.RestaurantID)
	if err != nil {
		log.Printf("Failed to load menu for %s: %v", restaurant.RestaurantID, err)
		return "😓 No pudimos cargar el menú. Elige otro restaurante o inténtalo de nuevo.", err
	}
	if len(menu) == 0 {
		return fmt.Sprintf("😔 *%s* no tiene platos disponibles ahora.\n\n%s",
			restaurant.Name, RenderRestaurantList(session.RestaurantCandidates)), nil
	}

	ordered := GroupMenuByCategory(menu)
	session.Restaurant = restaurant
	session.MenuCandidates = ordered
	session.Cart = nil
	session.State = StateAddingItems
	return RenderMenu(restaurant.Name, ordered), nil
}

// ADDING_ITEMS: cart commands plus "<item> [qty] [notes...]" lines

func (c *ConversationService) handleAddingItems(session *Session, msg, lower string) (string, error) {
	switch {
	case doneWords[lower]:
		if len(session.Cart) == 0 {
			return "🛒 Tu carrito está vacío. Agrega al menos un producto antes de confirmar.", nil
		}
		return c.enterCartConfirmation(session)

	case viewWords[lower]:
		return RenderCart(session.Cart, session.Restaurant.Name) +
			"\n\nAgrega más productos o escribe *listo* para continuar.", nil

	case clearWords[lower]:
		session.Cart = nil
		return "🗑️ Carrito vaciado. Elige productos del menú para empezar de nuevo.", nil
	}

	fields := strings.Fields(msg)
	if len(fields) == 0 {
		return c.addItemUsage(), nil
	}

	itemNo, err := strconv.Atoi(fields[0])
	if err != nil {
		return c.addItemUsage(), nil
	}
	if itemNo < 1 || itemNo > len(session.MenuCandidates) {
		return invalidSelection(len(session.MenuCandidates)), nil
	}

	quantity := 1
	notesStart := 1
	if len(fields) > 1 {
		if q, qerr := strconv.Atoi(fields[1]); qerr == nil {
			if q < 1 {
				return "❌ La cantidad debe ser un número positivo.\n\nEjemplo: 1 2 sin cebolla", nil
			}
			quantity = q
			notesStart = 2
		}
	}
	notes := strings.Join(fields[notesStart:], " ")

	item := session.MenuCandidates[itemNo-1]

	// Lines are never merged: repeating an item adds a new line
	session.Cart = append(session.Cart, models.CartLine{
		MenuItemID: item.ID,
		Name:       item.Name,
		UnitPrice:  item.Price,
		Quantity:   quantity,
		Notes:      notes,
	})

	return fmt.Sprintf("✅ *%s* x%d agregado.\n\n💰 Subtotal: S/ %.2f (%d producto(s))\n\nAgrega más productos o escribe *listo* para continuar.",
		item.Name, quantity, CartSubtotal(session.Cart), CartItemCount(session.Cart)), nil
}

func (c *ConversationService) addItemUsage() string {
	return "❌ No te entendí. Para pedir escribe: *número* *cantidad* *notas*\n\nEjemplo: 1 2 sin cebolla\n\nO escribe *listo*, *ver* o *limpiar*."
}

// CONFIRMING_CART: quick-reply buttons on first entry, plain text after

func (c *ConversationService) enterCartConfirmation(session *Session) (string, error) {
	session.State = StateConfirmingCart
	cartText := RenderCart(session.Cart, session.Restaurant.Name)

	if !session.CartButtonsSent && c.templates != nil {
		params := map[string]string{
			"restaurant": session.Restaurant.Name,
			"subtotal":   fmt.Sprintf("%.2f", CartSubtotal(session.Cart)),
		}
		if err := c.templates.SendTemplate(session.Phone, "cart_confirm", params); err == nil {
			// Buttons carry the confirm/modify choice
			session.CartButtonsSent = true
			return cartText, nil
		}
	}

	return cartText + "\n\n¿Confirmamos tu pedido?\n1️⃣ Sí, continuar\n2️⃣ Agregar más productos", nil
}

func (c *ConversationService) handleConfirmingCart(session *Session, lower string) (string, error) {
	switch {
	case yesWords[lower]:
		return c.manageAddress(session)
	case noWords[lower]:
		session.State = StateAddingItems
		return "🍽️ Perfecto, sigamos.\n\n" + RenderMenu(session.Restaurant.Name, session.MenuCandidates), nil
	default:
		return "Responde *1* para confirmar tu pedido o *2* para seguir agregando productos.", nil
	}
}

// MANAGING_ADDRESS: route to saved-address selection or first-time entry

func (c *ConversationService) manageAddress(session *Session) (string, error) {
	session.State = StateManagingAddress

	addrs, err := c.store.ListSavedAddresses(session.Phone)
	if err != nil {
		log.Printf("Failed to load saved addresses for %s: %v", session.Phone, err)
		addrs = nil
	}

	if len(addrs) == 0 {
		session.State = StateEnteringNewAddress
		return c.newAddressPrompt(), nil
	}

	session.SavedAddresses = addrs
	session.State = StateSelectingSavedAddress
	return RenderSavedAddresses(addrs), nil
}

func (c *ConversationService) newAddressPrompt() string {
	return "📍 ¿A dónde llevamos tu pedido?\n\nComparte tu *ubicación* por WhatsApp 📎 o escribe tu dirección completa (calle, número y distrito)."
}

// SELECTING_SAVED_ADDRESS

func (c *ConversationService) handleSelectingSavedAddress(session *Session, msg, lower string) (string, error) {
	if newAddrWords[lower] {
		session.State = StateEnteringNewAddress
		return c.newAddressPrompt(), nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(msg))
	if err != nil || n < 1 || n > len(session.SavedAddresses) {
		return invalidSelection(len(session.SavedAddresses)), nil
	}

	addr := session.SavedAddresses[n-1]
	session.DeliveryAddress = &models.DeliveryAddress{
		Text:        addr.Address,
		Reference:   addr.Reference,
		Coordinates: addr.Coords(),
	}
	session.DeliveryEstimate = c.estimator.Estimate(session.Restaurant.RestaurantID, addr.Coords())
	session.State = StateSelectingPayment
	return RenderPaymentMenu(session.DeliveryEstimate), nil
}

// ENTERING_NEW_ADDRESS: shared location or free text (min 10 chars)

func (c *ConversationService) handleEnteringNewAddress(session *Session, msg string, coords *models.Coordinates) (string, error) {
	if coords != nil {
		session.DeliveryAddress = &models.DeliveryAddress{
			Text:        "Ubicación compartida por WhatsApp",
			Coordinates: coords,
		}
	} else {
		text := strings.TrimSpace(msg)
		if len([]rune(text)) < 10 {
			return "❌ La dirección es muy corta. Escríbela completa con calle, número y distrito (mínimo 10 caracteres), o comparte tu ubicación 📎.", nil
		}
		session.DeliveryAddress = &models.DeliveryAddress{Text: text}
	}

	session.State = StateConfirmingLocationRef
	return "📝 ¿Alguna referencia para encontrarte más fácil? (ej: portón verde, frente al parque)\n\nEscribe *no* para omitir.", nil
}

// CONFIRMING_LOCATION_REFERENCE: optional note, then estimate + save offer

func (c *ConversationService) handleConfirmingLocationRef(session *Session, msg, lower string) (string, error) {
	if !skipWords[lower] {
		session.DeliveryAddress.Reference = strings.TrimSpace(msg)
	}

	session.DeliveryEstimate = c.estimator.Estimate(session.Restaurant.RestaurantID, session.DeliveryAddress.Coordinates)
	session.AwaitingSaveChoice = true
	session.State = StateSelectingPayment

	est := session.DeliveryEstimate
	return fmt.Sprintf("🛵 Delivery: S/ %.2f • ⏱️ %d min aprox.\n\n¿Quieres guardar esta dirección para tus próximos pedidos?\n1️⃣ Casa\n2️⃣ Trabajo\n3️⃣ Oficina\n4️⃣ No guardar",
		est.Fee, est.EtaMinutes), nil
}

// SELECTING_PAYMENT: first consume the pending save-choice, then the
// payment selection, then materialize the order.

func (c *ConversationService) handleSelectingPayment(session *Session, msg, displayName string) (string, error) {
	if session.AwaitingSaveChoice {
		return c.handleSaveChoice(session, msg)
	}

	n, err := strconv.Atoi(strings.TrimSpace(msg))
	if err != nil || n < 1 || n > len(models.PaymentMethods) {
		return invalidSelection(len(models.PaymentMethods)), nil
	}
	session.PaymentMethod = models.PaymentMethods[n-1]

	order, err := c.orders.PlaceOrder(session, displayName)
	if err != nil {
		log.Printf("Order placement failed for %s: %v", session.Phone, err)
		session.Reset()
		return "😓 Lo sentimos, no pudimos registrar tu pedido. Por favor inténtalo de nuevo en unos minutos o contáctanos.\n\n" + SupportFooter, err
	}

	session.ActiveOrder = order
	session.State = StateOrderActive
	return RenderVoucher(order), nil
}

func (c *ConversationService) handleSaveChoice(session *Session, msg string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(msg))
	if err != nil || n < 1 || n > 4 {
		return invalidSelection(4), nil
	}

	// The save-choice is consumed here; the same input is never
	// reinterpreted as a payment selection.
	session.AwaitingSaveChoice = false

	if n == 4 {
		return "👍 Entendido, no la guardaremos.\n\n" + RenderPaymentMenu(session.DeliveryEstimate), nil
	}

	label := saveLabels[n-1]
	addr := &models.SavedAddress{
		Label:     label,
		Address:   session.DeliveryAddress.Text,
		Reference: session.DeliveryAddress.Reference,
	}
	if coords := session.DeliveryAddress.Coordinates; coords != nil {
		lat, lng := coords.Latitude, coords.Longitude
		addr.Latitude = &lat
		addr.Longitude = &lng
	}

	if _, err := c.store.SaveAddress(session.Phone, addr); err != nil {
		log.Printf("Failed to save address for %s: %v", session.Phone, err)
		return "⚠️ No pudimos guardar la dirección, pero seguimos con tu pedido.\n\n" + RenderPaymentMenu(session.DeliveryEstimate), nil
	}

	return fmt.Sprintf("✅ Dirección guardada como *%s*.\n\n%s", label, RenderPaymentMenu(session.DeliveryEstimate)), nil
}

// ORDER_ACTIVE: status queries only; everything else gets a reminder or,
// when enabled, a generative reply.

func (c *ConversationService) handleOrderActive(session *Session, msg, lower string) (string, error) {
	if statusWords[lower] {
		order := session.ActiveOrder
		return fmt.Sprintf("📦 *Pedido %s*\n\n✅ Recibido y en preparación 🍳\n🍽️ %s\n⏱️ Entrega estimada: %d minutos\n💵 Total: S/ %.2f\n\n%s",
			order.OrderNumber, order.RestaurantName, order.EtaMinutes, order.Total, SupportFooter), nil
	}

	if c.genai != nil {
		if reply, err := c.genai.Reply(msg); err == nil {
			return reply, nil
		} else {
			log.Printf("GenAI fallback failed: %v", err)
		}
	}

	return "🤖 Tu pedido está en curso. Escribe *estado* para consultarlo o *hola* para empezar un pedido nuevo.", nil
}

func (c *ConversationService) helpMessage() string {
	return `📖 *Comandos de Musuq Delivery*

👋 *hola* - empezar un pedido nuevo
🛒 *ver* - ver tu carrito
✅ *listo* - confirmar tu carrito
📦 *estado* - consultar tu pedido activo
🔄 *reiniciar* - empezar de nuevo
❓ *ayuda* - este mensaje

` + SupportFooter
}

// invalidSelection is the single bounds message used by every numbered
// selection in the flow.
func invalidSelection(max int) string {
	return fmt.Sprintf("❌ Opción no válida. Elige un número entre 1 y %d.", max)
}

func (c *ConversationService) lockFor(phone string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.locks[phone]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[phone] = lock
	}
	return lock
}
