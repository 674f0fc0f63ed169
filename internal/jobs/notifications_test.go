package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musuqdelivery/musuq-backend/internal/models"
	"github.com/musuqdelivery/musuq-backend/internal/storage"
)

func TestFollowUpMovesStaleOrdersToPreparation(t *testing.T) {
	store := storage.NewMemoryStore()
	job := NewOrderFollowUpJob(store, nil, nil, time.Minute, 2*time.Minute)

	stale, err := store.CreateOrder(&models.Order{
		OrderNumber:   "ORD-260831-100",
		CustomerPhone: "+51987654321",
		EtaMinutes:    30,
	})
	require.NoError(t, err)
	stale.CreatedAt = time.Now().Add(-5 * time.Minute)

	fresh, err := store.CreateOrder(&models.Order{
		OrderNumber:   "ORD-260831-101",
		CustomerPhone: "+51987654321",
	})
	require.NoError(t, err)

	job.checkPendingOrders()

	got, err := store.GetOrder(stale.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPreparing, got.Status)
	require.NotNil(t, got.NotifiedAt)

	got, err = store.GetOrder(fresh.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)
	assert.Nil(t, got.NotifiedAt, "orders inside the threshold are left alone")
}

func TestFollowUpNotifiesOnlyOnce(t *testing.T) {
	store := storage.NewMemoryStore()
	job := NewOrderFollowUpJob(store, nil, nil, time.Minute, 2*time.Minute)

	order, err := store.CreateOrder(&models.Order{
		OrderNumber:   "ORD-260831-102",
		CustomerPhone: "+51987654321",
	})
	require.NoError(t, err)
	order.CreatedAt = time.Now().Add(-10 * time.Minute)

	job.checkPendingOrders()
	job.checkPendingOrders()

	got, err := store.GetOrder(order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPreparing, got.Status)

	preparing, err := store.GetOrdersByStatus(models.OrderStatusPreparing)
	require.NoError(t, err)
	assert.Len(t, preparing, 1)
}

func TestStartAndStop(t *testing.T) {
	store := storage.NewMemoryStore()
	job := NewOrderFollowUpJob(store, nil, nil, 10*time.Millisecond, time.Minute)

	job.Start()
	time.Sleep(30 * time.Millisecond)
	job.Stop()
	job.Stop() // idempotent
}
