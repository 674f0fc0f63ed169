package models

import "gorm.io/gorm"

// SavedAddress is a delivery address stored on the customer profile.
// Created only when the customer opts in after placing an order.
type SavedAddress struct {
	gorm.Model

	CustomerID string   `json:"customer_id" gorm:"index"`
	Label      string   `json:"label"` // "Casa", "Trabajo", "Oficina", free text
	Address    string   `json:"address"`
	Reference  string   `json:"reference"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	IsDefault  bool     `json:"is_default" gorm:"default:false"`
}

// Coords returns the stored location, or nil when none was captured
func (a *SavedAddress) Coords() *Coordinates {
	if a.Latitude == nil || a.Longitude == nil {
		return nil
	}
	return &Coordinates{Latitude: *a.Latitude, Longitude: *a.Longitude}
}

// Coordinates is a latitude/longitude pair from a shared WhatsApp location
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DeliveryAddress is the address a session accumulates before the order
// is placed. Text is required; reference and coordinates are optional.
type DeliveryAddress struct {
	Text        string       `json:"text"`
	Reference   string       `json:"reference"`
	Coordinates *Coordinates `json:"coordinates"`
}
