package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musuqdelivery/musuq-backend/internal/models"
)

func TestNewSessionStartsAtBeginning(t *testing.T) {
	session := NewSession("+51911222333")

	assert.Equal(t, StateStart, session.State)
	assert.Equal(t, "+51911222333", session.Phone)
	assert.Empty(t, session.Cart)
	assert.Equal(t, models.DefaultDeliveryEstimate(), session.DeliveryEstimate)
	assert.False(t, session.LastActive.IsZero())
}

func TestSessionResetKeepsPhoneAndCreation(t *testing.T) {
	session := NewSession("+51911222333")
	created := session.CreatedAt

	session.State = StateSelectingPayment
	session.Cart = []models.CartLine{{Name: "Ceviche", UnitPrice: 25, Quantity: 1}}
	session.PaymentMethod = models.PaymentYape
	session.AwaitingSaveChoice = true

	session.Reset()

	assert.Equal(t, StateStart, session.State)
	assert.Equal(t, "+51911222333", session.Phone)
	assert.Equal(t, created, session.CreatedAt)
	assert.Empty(t, session.Cart)
	assert.Empty(t, session.PaymentMethod)
	assert.False(t, session.AwaitingSaveChoice)
}

func TestMemorySessionStoreLifecycle(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	defer store.Close()

	_, ok := store.Get("+51911222333")
	assert.False(t, ok)
	assert.Zero(t, store.ActiveCount())

	session := NewSession("+51911222333")
	store.Put(session)

	got, ok := store.Get("+51911222333")
	require.True(t, ok)
	assert.Same(t, session, got)
	assert.Equal(t, 1, store.ActiveCount())

	store.Put(NewSession("+51944555666"))
	assert.Equal(t, 2, store.ActiveCount())

	store.Delete("+51911222333")
	_, ok = store.Get("+51911222333")
	assert.False(t, ok)
	assert.Equal(t, 1, store.ActiveCount())
}

func TestMemorySessionStoreCloseIsIdempotent(t *testing.T) {
	store := NewMemorySessionStore(0)

	store.Close()
	store.Close()
}
