package services

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/musuqdelivery/musuq-backend/internal/models"
)

// SupportFooter closes every voucher and status message
const SupportFooter = "📞 Soporte: wa.me/51999888777"

// CartSubtotal sums unit price times quantity over all cart lines.
// Plain float64 arithmetic; rounding happens only when rendering.
func CartSubtotal(cart []models.CartLine) float64 {
	var subtotal float64
	for _, line := range cart {
		subtotal += line.UnitPrice * float64(line.Quantity)
	}
	return subtotal
}

// CartItemCount sums the quantities of all cart lines
func CartItemCount(cart []models.CartLine) int {
	count := 0
	for _, line := range cart {
		count += line.Quantity
	}
	return count
}

// NewOrderNumber generates a human-readable order number in the form
// ORD-YYMMDD-RRR. The random suffix is not deduplicated; the database
// unique index is the backstop.
func NewOrderNumber() string {
	return fmt.Sprintf("ORD-%s-%03d", time.Now().Format("060102"), rand.Intn(1000))
}

// GroupMenuByCategory reorders menu items so items of the same category sit
// together, preserving first-seen category order and item insertion order
// within each category. The returned slice is the positional candidate
// list: numbering is continuous across categories.
func GroupMenuByCategory(items []*models.MenuItem) []*models.MenuItem {
	var categories []string
	grouped := make(map[string][]*models.MenuItem)

	for _, item := range items {
		cat := item.DisplayCategory()
		if _, seen := grouped[cat]; !seen {
			categories = append(categories, cat)
		}
		grouped[cat] = append(grouped[cat], item)
	}

	ordered := make([]*models.MenuItem, 0, len(items))
	for _, cat := range categories {
		ordered = append(ordered, grouped[cat]...)
	}
	return ordered
}

// RenderRestaurantList renders the numbered restaurant menu shown at START
func RenderRestaurantList(restaurants []*models.Restaurant) string {
	var b strings.Builder
	b.WriteString("🍽️ *Restaurantes abiertos ahora:*\n\n")

	for i, r := range restaurants {
		b.WriteString(fmt.Sprintf("%d️⃣ *%s*\n", i+1, r.Name))
		if r.Description != "" {
			b.WriteString(fmt.Sprintf("   %s\n", r.Description))
		}
		b.WriteString(fmt.Sprintf("   🕐 %s\n\n", r.Hours()))
	}

	b.WriteString("Responde con el *número* del restaurante que prefieras.")
	return b.String()
}

// RenderMenu renders the grouped menu with continuous 1-based numbering.
// The items slice must already be in candidate order (GroupMenuByCategory).
func RenderMenu(restaurantName string, items []*models.MenuItem) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 *Menú de %s*\n", restaurantName))

	lastCategory := ""
	for i, item := range items {
		cat := item.DisplayCategory()
		if cat != lastCategory {
			b.WriteString(fmt.Sprintf("\n*— %s —*\n", cat))
			lastCategory = cat
		}
		b.WriteString(fmt.Sprintf("%d. %s - S/ %.2f\n", i+1, item.Name, item.Price))
		if item.Description != "" {
			b.WriteString(fmt.Sprintf("   _%s_\n", item.Description))
		}
	}

	b.WriteString(`
Para pedir escribe: *número* *cantidad* *notas*
Ejemplo: 1 2 sin cebolla

✅ *listo* - confirmar pedido
🛒 *ver* - ver carrito
🗑️ *limpiar* - vaciar carrito`)
	return b.String()
}

// RenderCart renders the current cart with per-line totals and subtotal
func RenderCart(cart []models.CartLine, restaurantName string) string {
	if len(cart) == 0 {
		return "🛒 Tu carrito está vacío.\n\nAgrega productos escribiendo el número del menú."
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("🛒 *Tu pedido en %s:*\n\n", restaurantName))

	for i, line := range cart {
		b.WriteString(fmt.Sprintf("%d. %s\n   %d x S/ %.2f = S/ %.2f\n",
			i+1, line.Name, line.Quantity, line.UnitPrice, line.LineTotal()))
		if line.Notes != "" {
			b.WriteString(fmt.Sprintf("   📝 %s\n", line.Notes))
		}
	}

	b.WriteString(fmt.Sprintf("\n💰 *Subtotal: S/ %.2f* (%d producto(s))", CartSubtotal(cart), CartItemCount(cart)))
	return b.String()
}

// RenderSavedAddresses renders the numbered saved-address list; the default
// address is marked with a star.
func RenderSavedAddresses(addrs []*models.SavedAddress) string {
	var b strings.Builder
	b.WriteString("📍 *Tus direcciones guardadas:*\n\n")

	for i, a := range addrs {
		marker := ""
		if a.IsDefault {
			marker = " ⭐"
		}
		b.WriteString(fmt.Sprintf("%d️⃣ *%s*%s\n   %s\n", i+1, a.Label, marker, a.Address))
		if a.Reference != "" {
			b.WriteString(fmt.Sprintf("   Ref: %s\n", a.Reference))
		}
		b.WriteString("\n")
	}

	b.WriteString("Responde con el *número* de la dirección, o escribe *nueva* para usar otra.")
	return b.String()
}

// RenderPaymentMenu renders the fixed payment-method menu with the
// delivery fee already computed for this order.
func RenderPaymentMenu(estimate models.DeliveryEstimate) string {
	var b strings.Builder
	b.WriteString("💳 *¿Cómo deseas pagar?*\n\n")
	for i, method := range models.PaymentMethods {
		b.WriteString(fmt.Sprintf("%d️⃣ %s\n", i+1, method))
	}

	b.WriteString(fmt.Sprintf("\n🛵 Delivery: S/ %.2f", estimate.Fee))
	if estimate.DistanceKm > 0 {
		b.WriteString(fmt.Sprintf(" (%.1f km)", estimate.DistanceKm))
	}
	b.WriteString(fmt.Sprintf(" • ⏱️ %d min aprox.\n\nResponde con el número de tu método de pago.", estimate.EtaMinutes))
	return b.String()
}

// RenderVoucher renders the final order confirmation text
func RenderVoucher(order *models.Order) string {
	var b strings.Builder
	b.WriteString("🎉 *¡Pedido confirmado!*\n\n")
	b.WriteString(fmt.Sprintf("🧾 *Pedido:* %s\n", order.OrderNumber))
	b.WriteString(fmt.Sprintf("🍽️ *Restaurante:* %s\n\n", order.RestaurantName))

	for i, item := range order.Items {
		b.WriteString(fmt.Sprintf("%d. %s\n   %d x S/ %.2f = S/ %.2f\n",
			i+1, item.Name, item.Quantity, item.UnitPrice, item.LineTotal()))
		if item.Notes != "" {
			b.WriteString(fmt.Sprintf("   📝 %s\n", item.Notes))
		}
	}

	b.WriteString(fmt.Sprintf("\n💰 Subtotal: S/ %.2f\n", order.Subtotal))
	b.WriteString(fmt.Sprintf("🛵 Delivery: S/ %.2f", order.DeliveryFee))
	if order.DistanceKm > 0 {
		b.WriteString(fmt.Sprintf(" (%.1f km)", order.DistanceKm))
	}
	b.WriteString(fmt.Sprintf("\n💵 *Total: S/ %.2f*\n\n", order.Total))

	b.WriteString(fmt.Sprintf("📍 *Entrega:* %s\n", order.DeliveryAddress))
	if order.AddressReference != "" {
		b.WriteString(fmt.Sprintf("   Ref: %s\n", order.AddressReference))
	}
	b.WriteString(fmt.Sprintf("💳 *Pago:* %s\n", order.PaymentMethod))
	b.WriteString(fmt.Sprintf("⏱️ *Tiempo estimado:* %d minutos\n\n", order.EtaMinutes))

	b.WriteString("Escribe *estado* para consultar tu pedido.\n")
	b.WriteString(SupportFooter)
	return b.String()
}
