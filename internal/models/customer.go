package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer represents a WhatsApp customer identified by phone number
type Customer struct {
	gorm.Model

	CustomerID  string `json:"customer_id" gorm:"uniqueIndex"` // External UUID
	Phone       string `json:"phone" gorm:"uniqueIndex"`       // WhatsApp number - unique
	DisplayName string `json:"display_name"`
}

// BeforeCreate hook to assign the external ID and normalize the phone number
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.CustomerID == "" {
		c.CustomerID = uuid.NewString()
	}

	// Normalize phone number (Peruvian numbers default to +51)
	c.Phone = strings.ReplaceAll(c.Phone, " ", "")
	if !strings.HasPrefix(c.Phone, "+") {
		c.Phone = "+51" + strings.TrimPrefix(c.Phone, "51")
	}

	return nil
}
