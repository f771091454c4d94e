package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/database"
	"github.com/smarttransit/backoffice-api/internal/models"
	"github.com/smarttransit/backoffice-api/pkg/cache"
)

// AvailabilityService computes seat availability from reservations and caches the result
type AvailabilityService struct {
	trips  *database.TripRepository
	cache  cache.Cache
	ttl    time.Duration
	logger *logrus.Logger
}

// NewAvailabilityService creates a new AvailabilityService
func NewAvailabilityService(trips *database.TripRepository, c cache.Cache, ttl time.Duration, logger *logrus.Logger) *AvailabilityService {
	if c == nil {
		c = cache.Noop{}
	}
	return &AvailabilityService{trips: trips, cache: c, ttl: ttl, logger: logger}
}

func availabilityKey(orgID, tripID string) string {
	return "availability:" + orgID + ":" + tripID
}

// Get returns the query-time availability of a trip, flagging drift of the stored counter
func (s *AvailabilityService) Get(ctx context.Context, orgID, tripID string) (*models.TripAvailability, error) {
	key := availabilityKey(orgID, tripID)

	var cached models.TripAvailability
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Availability cache read failed")
	}
	if hit {
		return &cached, nil
	}

	trip, err := s.trips.GetByID(ctx, orgID, tripID)
	if err != nil {
		return nil, err
	}
	active, err := s.trips.CountActive(ctx, tripID)
	if err != nil {
		return nil, err
	}
	occupied, err := s.trips.OccupiedSeats(ctx, tripID)
	if err != nil {
		return nil, err
	}

	availability := models.NewTripAvailability(trip, active, occupied)
	if availability.Drift {
		s.logger.WithFields(logrus.Fields{
			"trip_id":         tripID,
			"seats_available": trip.SeatsAvailable,
			"free_seats":      availability.FreeSeats,
		}).Warn("Seat counter drift detected")
	}

	if err := s.cache.Set(ctx, key, availability, s.ttl); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Availability cache write failed")
	}
	return availability, nil
}

// Invalidate drops cached availability after a reservation mutation
func (s *AvailabilityService) Invalidate(ctx context.Context, orgID string, tripIDs ...string) {
	keys := make([]string, 0, len(tripIDs))
	for _, id := range tripIDs {
		keys = append(keys, availabilityKey(orgID, id))
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.logger.WithError(err).Warn("Availability cache invalidation failed")
	}
}
