package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/musuqdelivery/musuq-backend/internal/models"
)

// DeliveryCoster is the external distance-costing capability. It may fail;
// the estimator absorbs every failure.
type DeliveryCoster interface {
	CostDelivery(ctx context.Context, restaurantID string, coords models.Coordinates) (*models.DeliveryEstimate, error)
}

// HTTPDeliveryCoster calls the internal costing API configured via
// DELIVERY_COSTING_URL.
type HTTPDeliveryCoster struct {
	baseURL string
	client  *http.Client
}

// NewHTTPDeliveryCoster returns nil when no costing endpoint is configured,
// which makes the estimator fall back to the fixed default.
func NewHTTPDeliveryCoster() *HTTPDeliveryCoster {
	baseURL := os.Getenv("DELIVERY_COSTING_URL")
	if baseURL == "" {
		return nil
	}
	return &HTTPDeliveryCoster{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type costingRequest struct {
	RestaurantID string  `json:"restaurant_id"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

type costingResponse struct {
	Fee        float64 `json:"fee"`
	DistanceKm float64 `json:"distance_km"`
	EtaMinutes int     `json:"eta_minutes"`
}

func (h *HTTPDeliveryCoster) CostDelivery(ctx context.Context, restaurantID string, coords models.Coordinates) (*models.DeliveryEstimate, error) {
	body, err := json.Marshal(costingRequest{
		RestaurantID: restaurantID,
		Latitude:     coords.Latitude,
		Longitude:    coords.Longitude,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/v1/estimate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("costing API returned status %d", resp.StatusCode)
	}

	var out costingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.EtaMinutes <= 0 && out.Fee <= 0 {
		return nil, fmt.Errorf("costing API returned an empty estimate")
	}

	// Fee arrives already rounded by the costing service
	return &models.DeliveryEstimate{
		Fee:        out.Fee,
		DistanceKm: out.DistanceKm,
		EtaMinutes: out.EtaMinutes,
	}, nil
}

// DeliveryEstimator computes the fee/distance/ETA triple for an order.
// It never returns an error: any failure degrades to the fixed default.
type DeliveryEstimator struct {
	coster DeliveryCoster
}

// NewDeliveryEstimator creates an estimator; coster may be nil
func NewDeliveryEstimator(coster DeliveryCoster) *DeliveryEstimator {
	return &DeliveryEstimator{coster: coster}
}

// Estimate returns the delivery estimate for the given destination.
// Without coordinates the external capability is not consulted at all.
func (e *DeliveryEstimator) Estimate(restaurantID string, coords *models.Coordinates) models.DeliveryEstimate {
	fallback := models.DefaultDeliveryEstimate()

	if coords == nil || e == nil || e.coster == nil {
		return fallback
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	estimate, err := e.coster.CostDelivery(ctx, restaurantID, *coords)
	if err != nil {
		log.Printf("Delivery costing failed for %s, using fallback: %v", restaurantID, err)
		return fallback
	}
	if estimate == nil {
		return fallback
	}
	return *estimate
}
