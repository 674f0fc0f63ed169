package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/musuqdelivery/musuq-backend/internal/models"
)

type stubCoster struct {
	estimate *models.DeliveryEstimate
	err      error
	calls    int
}

func (s *stubCoster) CostDelivery(ctx context.Context, restaurantID string, coords models.Coordinates) (*models.DeliveryEstimate, error) {
	s.calls++
	return s.estimate, s.err
}

func TestEstimateWithoutCoordinatesUsesFallback(t *testing.T) {
	coster := &stubCoster{estimate: &models.DeliveryEstimate{Fee: 9.00, DistanceKm: 4, EtaMinutes: 40}}
	estimator := NewDeliveryEstimator(coster)

	got := estimator.Estimate("RES00001", nil)

	assert.Equal(t, models.DeliveryEstimate{Fee: 5.00, DistanceKm: 0, EtaMinutes: 30}, got)
	assert.Zero(t, coster.calls, "text addresses never reach the costing service")
}

func TestEstimateWithoutCosterUsesFallback(t *testing.T) {
	estimator := NewDeliveryEstimator(nil)

	got := estimator.Estimate("RES00001", &models.Coordinates{Latitude: -12.04, Longitude: -77.04})
	assert.Equal(t, models.DefaultDeliveryEstimate(), got)
}

func TestEstimateCosterFailureUsesFallback(t *testing.T) {
	coster := &stubCoster{err: fmt.Errorf("timeout")}
	estimator := NewDeliveryEstimator(coster)

	got := estimator.Estimate("RES00001", &models.Coordinates{Latitude: -12.04, Longitude: -77.04})

	assert.Equal(t, models.DefaultDeliveryEstimate(), got)
	assert.Equal(t, 1, coster.calls)
}

func TestEstimateSuccessPassesThrough(t *testing.T) {
	coster := &stubCoster{estimate: &models.DeliveryEstimate{Fee: 8.50, DistanceKm: 3.7, EtaMinutes: 45}}
	estimator := NewDeliveryEstimator(coster)

	got := estimator.Estimate("RES00001", &models.Coordinates{Latitude: -12.04, Longitude: -77.04})

	assert.Equal(t, 8.50, got.Fee)
	assert.Equal(t, 3.7, got.DistanceKm)
	assert.Equal(t, 45, got.EtaMinutes)
}
