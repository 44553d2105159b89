package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/opaquedelicia/restaurant-platform/internal/api/middleware"
)

// ExpirySweeper periodically expires pending payments whose deadline passed, so payments
// nobody polls still settle.
type ExpirySweeper struct {
	Payments PaymentService
	Interval time.Duration
	Logger   *slog.Logger
}

func (s *ExpirySweeper) Run(ctx context.Context) {

	if s.Logger == nil {
		s.Logger = slog.Default()
	}

	if s.Interval <= 0 {
		s.Interval = time.Minute
	}

	ctx = middleware.WithLogger(ctx, s.Logger.With(slog.String("component", "expiry_sweeper")))

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.SweepOnce(ctx, now)
		}
	}
}

func (s *ExpirySweeper) SweepOnce(ctx context.Context, now time.Time) int {

	logger := middleware.LoggerFromContext(ctx)

	expired, err := s.Payments.ExpireOverduePayments(ctx, now)
	if err != nil {
		logger.Error("Payment expiry sweep failed", slog.String("error", err.Error()))
		return 0
	}

	if expired > 0 {
		logger.Info("Expired overdue payments", slog.Int("count", expired))
	}

	return expired
}
