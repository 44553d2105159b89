package service

import (
	"context"
	"log/slog"

	"github.com/opaquedelicia/restaurant-platform/internal/api/middleware"
	"github.com/opaquedelicia/restaurant-platform/internal/cache"
	"github.com/opaquedelicia/restaurant-platform/internal/errors"
	"github.com/opaquedelicia/restaurant-platform/internal/models"
	repository "github.com/opaquedelicia/restaurant-platform/internal/repositories"
)

type ReservationService interface {
	ListReservations(ctx context.Context) ([]*models.Reservation, error)
}

type reservationService struct {
	repo  repository.ReservationRepository
	cache cache.Cache
}

func NewReservationService(repo repository.ReservationRepository, cacheRepo cache.Cache) ReservationService {
	return &reservationService{repo: repo, cache: cacheRepo}
}

// ListReservations serves the admin listing from the "reservations" cache entry, which
// is dropped whenever a payment changes status.
func (s *reservationService) ListReservations(ctx context.Context) ([]*models.Reservation, error) {

	logger := middleware.LoggerFromContext(ctx)

	var reservations []*models.Reservation

	found, err := s.cache.Get(ctx, cache.ReservationsKey, &reservations)
	if err != nil {
		logger.Warn("Failed to read cached reservations", slog.String("error", err.Error()))
	}

	if found {
		logger.Debug("Reservations served from cache")
		return reservations, nil
	}

	reservations, err = s.repo.ListReservations(ctx)
	if err != nil {
		logger.Error("Failed to list reservations", slog.String("error", err.Error()))
		return nil, errors.DatabaseError("Failed to list reservations").WithError(err)
	}

	if err := s.cache.Set(ctx, cache.ReservationsKey, reservations, 0); err != nil {
		logger.Warn("Failed to cache reservations", slog.String("error", err.Error()))
	}

	return reservations, nil
}
