package services

import (
	"log"
	"sync"
	"time"

	"github.com/musuqdelivery/musuq-backend/internal/models"
)

// SessionState identifies the step of the ordering flow a customer is in
type SessionState string

const (
	StateStart                   SessionState = "START"
	StateSelectingRestaurant     SessionState = "SELECTING_RESTAURANT"
	StateAddingItems             SessionState = "ADDING_ITEMS"
	StateConfirmingCart          SessionState = "CONFIRMING_CART"
	StateManagingAddress         SessionState = "MANAGING_ADDRESS"
	StateSelectingSavedAddress   SessionState = "SELECTING_SAVED_ADDRESS"
	StateEnteringNewAddress      SessionState = "ENTERING_NEW_ADDRESS"
	StateConfirmingLocationRef   SessionState = "CONFIRMING_LOCATION_REFERENCE"
	StateSelectingPayment        SessionState = "SELECTING_PAYMENT"
	StateOrderActive             SessionState = "ORDER_ACTIVE"
)

// Session holds the in-memory conversational state for one phone number.
// Candidate lists are snapshots of exactly what was displayed, so 1-based
// positional input always resolves against what the customer saw.
type Session struct {
	Phone string       `json:"phone"`
	State SessionState `json:"state"`

	Restaurant           *models.Restaurant    `json:"restaurant"`
	RestaurantCandidates []*models.Restaurant  `json:"restaurant_candidates"`
	MenuCandidates       []*models.MenuItem    `json:"menu_candidates"`
	Cart                 []models.CartLine     `json:"cart"`
	DeliveryAddress      *models.DeliveryAddress `json:"delivery_address"`
	SavedAddresses       []*models.SavedAddress  `json:"saved_addresses"`
	PaymentMethod        string                  `json:"payment_method"`
	DeliveryEstimate     models.DeliveryEstimate `json:"delivery_estimate"`
	ActiveOrder          *models.Order           `json:"active_order"`

	// Transient flags, cleared once consumed
	AwaitingSaveChoice bool `json:"awaiting_save_choice"`
	CartButtonsSent    bool `json:"cart_buttons_sent"`

	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// NewSession creates a fresh session at the start of the flow
func NewSession(phone string) *Session {
	now := time.Now()
	return &Session{
		Phone:            phone,
		State:            StateStart,
		DeliveryEstimate: models.DefaultDeliveryEstimate(),
		CreatedAt:        now,
		LastActive:       now,
	}
}

// Touch refreshes the idle timer
func (s *Session) Touch() {
	s.LastActive = time.Now()
}

// Reset clears the accumulated flow state in place and returns the
// session to the start of the flow. The phone and creation time survive.
func (s *Session) Reset() {
	fresh := NewSession(s.Phone)
	fresh.CreatedAt = s.CreatedAt
	*s = *fresh
}

// SessionStore is the session repository consumed by the conversation
// service. Backed by memory here; the interface leaves room for a
// key-value or distributed backend without touching the state machine.
type SessionStore interface {
	Get(phone string) (*Session, bool)
	Put(session *Session)
	Delete(phone string)
	ActiveCount() int
}

// MemorySessionStore keeps sessions in a mutex-guarded map and evicts
// entries idle beyond the configured threshold.
type MemorySessionStore struct {
	mu            sync.RWMutex
	sessions      map[string]*Session
	idleThreshold time.Duration
	stop          chan struct{}
	stopOnce      sync.Once
}

// DefaultIdleThreshold is used when no threshold is configured
const DefaultIdleThreshold = 30 * time.Minute

// NewMemorySessionStore creates the store and starts the idle sweeper
func NewMemorySessionStore(idleThreshold time.Duration) *MemorySessionStore {
	if idleThreshold <= 0 {
		idleThreshold = DefaultIdleThreshold
	}

	m := &MemorySessionStore{
		sessions:      make(map[string]*Session),
		idleThreshold: idleThreshold,
		stop:          make(chan struct{}),
	}
	go m.sweepIdleSessions()
	return m
}

func (m *MemorySessionStore) Get(phone string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[phone]
	return session, ok
}

func (m *MemorySessionStore) Put(session *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[session.Phone] = session
}

func (m *MemorySessionStore) Delete(phone string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, phone)
}

// ActiveCount returns the number of live sessions (for monitoring)
func (m *MemorySessionStore) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

// Close stops the idle sweeper
func (m *MemorySessionStore) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// sweepIdleSessions runs periodically to evict sessions idle beyond the
// threshold. Saved addresses are unaffected; they live in the Store.
func (m *MemorySessionStore) sweepIdleSessions() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-m.idleThreshold)

			m.mu.Lock()
			for phone, session := range m.sessions {
				if session.LastActive.Before(cutoff) {
					delete(m.sessions, phone)
					log.Printf("Cleaned up idle session for %s (state %s)", phone, session.State)
				}
			}
			m.mu.Unlock()
		}
	}
}
