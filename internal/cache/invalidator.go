package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/opaquedelicia/restaurant-platform/internal/api/middleware"
)

// PaymentInvalidator drops the cache entries that change when a payment settles:
// the payment's own status and the reservation listing.
type PaymentInvalidator struct {
	cache Cache
}

func NewPaymentInvalidator(cache Cache) *PaymentInvalidator {
	return &PaymentInvalidator{cache: cache}
}

func (i *PaymentInvalidator) InvalidatePayment(ctx context.Context, reference string) error {

	logger := middleware.LoggerFromContext(ctx)

	if err := i.cache.Delete(ctx, Key(PaymentKeyPrefix, reference)); err != nil {
		return fmt.Errorf("failed to invalidate payment %s: %w", reference, err)
	}

	if err := i.cache.Delete(ctx, ReservationsKey); err != nil {
		return fmt.Errorf("failed to invalidate reservations: %w", err)
	}

	logger.Debug("Invalidated cached payment reads", slog.String("reference", reference))

	return nil
}
