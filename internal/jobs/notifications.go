package jobs

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/musuqdelivery/musuq-backend/internal/models"
	"github.com/musuqdelivery/musuq-backend/internal/services"
	"github.com/musuqdelivery/musuq-backend/internal/storage"
)

// OrderFollowUpJob periodically moves pending orders to preparation and
// notifies the customer. Each order is notified at most once (NotifiedAt
// guards against duplicates across ticks).
type OrderFollowUpJob struct {
	store     storage.Store
	twilio    *services.TwilioService
	templates *services.TemplateService
	interval  time.Duration
	threshold time.Duration
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewOrderFollowUpJob creates the follow-up job. threshold is how long an
// order stays PENDING before the kitchen confirmation goes out.
func NewOrderFollowUpJob(
	store storage.Store,
	twilio *services.TwilioService,
	templates *services.TemplateService,
	interval, threshold time.Duration,
) *OrderFollowUpJob {
	if interval <= 0 {
		interval = time.Minute
	}
	if threshold <= 0 {
		threshold = 2 * time.Minute
	}

	return &OrderFollowUpJob{
		store:     store,
		twilio:    twilio,
		templates: templates,
		interval:  interval,
		threshold: threshold,
		stop:      make(chan struct{}),
	}
}

// Start launches the background loop
func (j *OrderFollowUpJob) Start() {
	log.Printf("🔔 Order follow-up job started (every %s, threshold %s)", j.interval, j.threshold)
	go j.run()
}

// Stop terminates the background loop
func (j *OrderFollowUpJob) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
}

func (j *OrderFollowUpJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stop:
			log.Println("🔔 Order follow-up job stopped")
			return
		case <-ticker.C:
			j.checkPendingOrders()
		}
	}
}

func (j *OrderFollowUpJob) checkPendingOrders() {
	orders, err := j.store.GetOrdersByStatus(models.OrderStatusPending)
	if err != nil {
		log.Printf("❌ Follow-up job: failed to list pending orders: %v", err)
		return
	}

	cutoff := time.Now().Add(-j.threshold)
	for _, order := range orders {
		if order.NotifiedAt != nil || order.CreatedAt.After(cutoff) {
			continue
		}
		j.notify(order)
	}
}

func (j *OrderFollowUpJob) notify(order *models.Order) {
	sent := false
	if j.templates != nil {
		params := map[string]string{
			"order_number": order.OrderNumber,
			"eta":          fmt.Sprintf("%d", order.EtaMinutes),
		}
		if err := j.templates.SendTemplate(order.CustomerPhone, "order_followup", params); err == nil {
			sent = true
		}
	}

	if !sent && j.twilio != nil {
		text := fmt.Sprintf("👨‍🍳 ¡Tu pedido *%s* ya está en preparación!\n\n⏱️ Entrega estimada: %d minutos.\n\nEscribe *estado* para consultarlo.",
			order.OrderNumber, order.EtaMinutes)
		if err := j.twilio.SendWhatsAppMessage(order.CustomerPhone, text); err != nil {
			log.Printf("❌ Follow-up job: notification for %s failed: %v", order.OrderNumber, err)
			return
		}
	}

	now := time.Now()
	order.NotifiedAt = &now
	order.Status = models.OrderStatusPreparing
	if err := j.store.UpdateOrder(order); err != nil {
		log.Printf("❌ Follow-up job: failed to update %s: %v", order.OrderNumber, err)
		return
	}

	log.Printf("🔔 Order %s moved to preparation and customer notified", order.OrderNumber)
}
