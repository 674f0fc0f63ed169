package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Restaurant represents a partner restaurant on the platform
type Restaurant struct {
	gorm.Model

	RestaurantID string `json:"restaurant_id" gorm:"uniqueIndex"`
	Name         string `json:"name"`
	Address      string `json:"address"`
	Description  string `json:"description"`
	OpensAt      string `json:"opens_at"`  // "HH:MM" local time
	ClosesAt     string `json:"closes_at"` // "HH:MM" local time
	IsActive     bool   `json:"is_active" gorm:"default:true"`
}

// BeforeCreate hook to auto-generate RestaurantID
func (r *Restaurant) BeforeCreate(tx *gorm.DB) error {
	if r.RestaurantID == "" {
		r.RestaurantID = fmt.Sprintf("RES%d%03d", time.Now().Unix(), time.Now().Nanosecond()%1000)
	}
	return nil
}

// IsOpenAt reports whether the restaurant attends orders at the given time.
// Empty hours mean always open. Closing past midnight is supported
// (e.g. 18:00 - 02:00).
func (r *Restaurant) IsOpenAt(t time.Time) bool {
	if !r.IsActive {
		return false
	}
	if r.OpensAt == "" || r.ClosesAt == "" {
		return true
	}

	opens, err1 := time.Parse("15:04", r.OpensAt)
	closes, err2 := time.Parse("15:04", r.ClosesAt)
	if err1 != nil || err2 != nil {
		return true
	}

	minutes := t.Hour()*60 + t.Minute()
	open := opens.Hour()*60 + opens.Minute()
	close := closes.Hour()*60 + closes.Minute()

	if open <= close {
		return minutes >= open && minutes < close
	}
	// Overnight schedule
	return minutes >= open || minutes < close
}

// Hours renders the attention schedule for display
func (r *Restaurant) Hours() string {
	if r.OpensAt == "" || r.ClosesAt == "" {
		return "24 horas"
	}
	return fmt.Sprintf("%s - %s", r.OpensAt, r.ClosesAt)
}

// MenuItem represents one dish or product offered by a restaurant
type MenuItem struct {
	gorm.Model

	RestaurantID string  `json:"restaurant_id" gorm:"index"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Category     string  `json:"category"`
	Available    bool    `json:"available" gorm:"default:true"`
}

// DisplayCategory returns the category used for menu grouping
func (m *MenuItem) DisplayCategory() string {
	if m.Category == "" {
		return "General"
	}
	return m.Category
}
