package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opaquedelicia/restaurant-platform/internal/api/middleware"
	"github.com/opaquedelicia/restaurant-platform/internal/cache"
	"github.com/opaquedelicia/restaurant-platform/internal/errors"
	"github.com/opaquedelicia/restaurant-platform/internal/metrics"
	"github.com/opaquedelicia/restaurant-platform/internal/models"
	"github.com/opaquedelicia/restaurant-platform/internal/paymentstatus"
	repository "github.com/opaquedelicia/restaurant-platform/internal/repositories"
	"github.com/opaquedelicia/restaurant-platform/pkg/events"
	"github.com/opaquedelicia/restaurant-platform/pkg/stripe"
)

type PaymentService interface {
	CreatePayment(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error)
	GetPaymentStatus(ctx context.Context, reference string) (*models.PaymentStatusResponse, error)
	CancelPayment(ctx context.Context, reference string) (*models.PaymentStatusResponse, error)
	ConfirmPayment(ctx context.Context, reference string) (*models.PaymentStatusResponse, error)
	ProcessWebhook(ctx context.Context, payload []byte, signature string) (stripe.Event, error)
	ExpireOverduePayments(ctx context.Context, now time.Time) (int, error)
}

type PaymentConfig struct {
	Currency         string
	MultibancoEntity string
	MultibancoTTL    time.Duration
	MBWayTTL         time.Duration
	CacheTTL         time.Duration
}

type paymentService struct {
	repo            repository.PaymentRepository
	reservationRepo repository.ReservationRepository
	stripeClient    stripe.Client
	cache           cache.Cache
	invalidator     paymentstatus.Invalidator
	publisher       events.Publisher
	emailNotifier   EmailNotifier
	cfg             PaymentConfig
	now             func() time.Time
}

func NewPaymentService(
	repo repository.PaymentRepository,
	reservationRepo repository.ReservationRepository,
	stripeClient stripe.Client,
	cacheRepo cache.Cache,
	invalidator paymentstatus.Invalidator,
	publisher events.Publisher,
	emailNotifier EmailNotifier,
	cfg PaymentConfig,
) PaymentService {

	if cfg.Currency == "" {
		cfg.Currency = "eur"
	}

	if cfg.MultibancoTTL <= 0 {
		cfg.MultibancoTTL = 72 * time.Hour
	}

	if cfg.MBWayTTL <= 0 {
		cfg.MBWayTTL = 5 * time.Minute
	}

	return &paymentService{
		repo:            repo,
		reservationRepo: reservationRepo,
		stripeClient:    stripeClient,
		cache:           cacheRepo,
		invalidator:     invalidator,
		publisher:       publisher,
		emailNotifier:   emailNotifier,
		cfg:             cfg,
		now:             time.Now,
	}
}

// CreatePayment implements PaymentService.
func (s *paymentService) CreatePayment(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error) {

	logger := middleware.LoggerFromContext(ctx)

	reservationID, err := uuid.Parse(req.ReservationID)
	if err != nil {
		return nil, errors.AddValidationError("reservation_id", "must be a valid UUID")
	}

	reservation, err := s.reservationRepo.GetReservationByID(ctx, reservationID)
	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Reservation not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to fetch reservation").WithError(err)
	}

	if reservation.Status != models.ReservationStatusPending {
		return nil, errors.ConflictError("Reservation is not awaiting payment")
	}

	now := s.now()

	payment := &models.Payment{
		ReservationID: reservationID,
		Amount:        req.Amount,
		Currency:      s.cfg.Currency,
		Method:        req.Method,
		Status:        models.PaymentStatusPending,
		Phone:         req.Phone,
	}

	response := &models.PaymentResponse{Payment: payment}

	switch req.Method {
	case models.PaymentMethodCard:
		payment.Reference = newReference()

		intent, err := s.stripeClient.CreatePaymentIntent(ctx, req.Amount, s.cfg.Currency,
			"Reservation "+reservationID.String(),
			map[string]string{"reference": payment.Reference, "reservation_id": reservationID.String()})
		if err != nil {
			logger.Error("Failed to create payment intent", slog.String("error", err.Error()))
			return nil, errors.ThirdPartyError("Failed to create payment intent").WithError(err)
		}

		payment.StripeID = intent.ID
		response.ClientSecret = intent.ClientSecret
		response.Message = "Payment initiated successfully."

	case models.PaymentMethodMBWay:
		payment.Reference = newReference()
		expiresAt := now.Add(s.cfg.MBWayTTL)
		payment.ExpiresAt = &expiresAt
		response.Message = "Confirm the payment in the MB WAY app."

	case models.PaymentMethodMultibanco:
		payment.Reference = newMultibancoReference()
		expiresAt := now.Add(s.cfg.MultibancoTTL)
		payment.ExpiresAt = &expiresAt
		response.Entity = s.cfg.MultibancoEntity
		response.Message = "Pay with the Multibanco entity and reference before the deadline."

	default:
		return nil, errors.AddValidationError("method", "unsupported payment method")
	}

	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		logger.Error("Failed to record payment", slog.String("error", err.Error()))
		return nil, errors.DatabaseError("Failed to record payment").WithError(err)
	}

	logger.Info("Payment created",
		slog.String("reference", payment.Reference),
		slog.String("method", string(payment.Method)))

	return response, nil
}

// GetPaymentStatus serves the status of reference through the cache. Pending payments
// whose deadline passed are expired on read.
func (s *paymentService) GetPaymentStatus(ctx context.Context, reference string) (*models.PaymentStatusResponse, error) {

	logger := middleware.LoggerFromContext(ctx)
	key := cache.Key(cache.PaymentKeyPrefix, reference)

	var cached models.Payment

	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn("Failed to read cached payment", slog.String("error", err.Error()))
	}

	if found && !s.overdue(&cached) {
		return models.NewPaymentStatusResponse(&cached), nil
	}

	payment, err := s.getPayment(ctx, reference)
	if err != nil {
		return nil, err
	}

	if s.overdue(payment) {
		if payment, err = s.transition(ctx, payment, models.PaymentStatusExpired); err != nil {
			return nil, err
		}
	}

	if err := s.cache.Set(ctx, key, payment, s.cacheTTL(payment)); err != nil {
		logger.Warn("Failed to cache payment", slog.String("error", err.Error()))
	}

	return models.NewPaymentStatusResponse(payment), nil
}

// CancelPayment cancels a pending payment. Cancelling a payment that already ended
// without being paid is a no-op; cancelling a paid one is a conflict.
func (s *paymentService) CancelPayment(ctx context.Context, reference string) (*models.PaymentStatusResponse, error) {

	payment, err := s.getPayment(ctx, reference)
	if err != nil {
		return nil, err
	}

	switch payment.Status {
	case models.PaymentStatusPaid:
		return nil, errors.ConflictError("Payment already settled")
	case models.PaymentStatusPending:
	default:
		return models.NewPaymentStatusResponse(payment), nil
	}

	if payment.Method == models.PaymentMethodCard && payment.StripeID != "" {
		if _, err := s.stripeClient.CancelPaymentIntent(ctx, payment.StripeID); err != nil {
			return nil, errors.ThirdPartyError("Failed to cancel payment intent").WithError(err)
		}
	}

	payment, err = s.transition(ctx, payment, models.PaymentStatusCancelled)
	if err != nil {
		return nil, err
	}

	if payment.Status == models.PaymentStatusPaid {
		return nil, errors.ConflictError("Payment already settled")
	}

	return models.NewPaymentStatusResponse(payment), nil
}

// ConfirmPayment settles a pending payment by hand, for transfers confirmed by staff.
func (s *paymentService) ConfirmPayment(ctx context.Context, reference string) (*models.PaymentStatusResponse, error) {

	payment, err := s.getPayment(ctx, reference)
	if err != nil {
		return nil, err
	}

	switch payment.Status {
	case models.PaymentStatusPaid:
		return models.NewPaymentStatusResponse(payment), nil
	case models.PaymentStatusPending:
	default:
		return nil, errors.ConflictError(fmt.Sprintf("Payment is %s", payment.Status))
	}

	payment, err = s.transition(ctx, payment, models.PaymentStatusPaid)
	if err != nil {
		return nil, err
	}

	return models.NewPaymentStatusResponse(payment), nil
}

// ProcessWebhook implements PaymentService.
func (s *paymentService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (stripe.Event, error) {

	logger := middleware.LoggerFromContext(ctx)

	event, err := s.stripeClient.VerifyWebhookSignature(payload, signature)
	if err != nil {
		return stripe.Event{}, errors.BadRequestError("Webhook signature verification failed").WithError(err)
	}

	var status models.PaymentStatus

	switch string(event.Type) {
	case stripe.EventPaymentSucceeded:
		status = models.PaymentStatusPaid
	case stripe.EventPaymentCanceled:
		status = models.PaymentStatusCancelled
	case stripe.EventPaymentFailed:
		status = models.PaymentStatusFailed
	default:
		logger.Debug("Ignoring webhook event", slog.String("type", string(event.Type)))
		return event, nil
	}

	if event.Data == nil {
		return event, errors.BadRequestError("Missing payment intent in webhook")
	}

	stripeID, ok := event.Data.Object["id"].(string)
	if !ok || stripeID == "" {
		return event, errors.BadRequestError("Missing payment intent ID in webhook")
	}

	payment, err := s.repo.GetPaymentByStripeID(ctx, stripeID)
	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return event, errors.NotFoundError("Payment not found").WithError(err)
		}

		return event, errors.DatabaseError("Failed to fetch payment").WithError(err)
	}

	// redelivered events find the payment already settled
	if payment.Status != models.PaymentStatusPending {
		logger.Info("Webhook for settled payment ignored",
			slog.String("reference", payment.Reference),
			slog.String("status", string(payment.Status)))
		return event, nil
	}

	if _, err := s.transition(ctx, payment, status); err != nil {
		return event, err
	}

	return event, nil
}

// ExpireOverduePayments expires every pending payment past its deadline and returns how
// many were expired.
func (s *paymentService) ExpireOverduePayments(ctx context.Context, now time.Time) (int, error) {

	logger := middleware.LoggerFromContext(ctx)

	references, err := s.repo.ExpireOverduePayments(ctx, now)
	if err != nil {
		return 0, errors.DatabaseError("Failed to expire payments").WithError(err)
	}

	for _, reference := range references {

		payment, err := s.repo.GetPaymentByReference(ctx, reference)
		if err != nil {
			logger.Warn("Failed to load expired payment", slog.String("reference", reference), slog.String("error", err.Error()))
			s.invalidate(ctx, reference)
			continue
		}

		s.afterTransition(ctx, payment)
	}

	return len(references), nil
}

func (s *paymentService) getPayment(ctx context.Context, reference string) (*models.Payment, error) {

	payment, err := s.repo.GetPaymentByReference(ctx, reference)
	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("Payment not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to fetch payment").WithError(err)
	}

	return payment, nil
}

// transition moves a pending payment to status and runs the side effects. When another
// writer settled the payment first, the stored payment is returned unchanged.
func (s *paymentService) transition(ctx context.Context, payment *models.Payment, status models.PaymentStatus) (*models.Payment, error) {

	var err error

	if status == models.PaymentStatusPaid {
		paidAt := s.now()
		err = s.repo.MarkPaymentPaid(ctx, payment.Reference, paidAt)
		if err == nil {
			payment.PaidAt = &paidAt
		}
	} else {
		err = s.repo.UpdatePaymentStatus(ctx, payment.Reference, status)
	}

	if stdErrors.Is(err, sql.ErrNoRows) {
		return s.getPayment(ctx, payment.Reference)
	}

	if err != nil {
		return nil, errors.DatabaseError("Failed to update payment status").WithError(err)
	}

	payment.Status = status
	s.afterTransition(ctx, payment)

	return payment, nil
}

func (s *paymentService) afterTransition(ctx context.Context, payment *models.Payment) {

	logger := middleware.LoggerFromContext(ctx).With(slog.String("reference", payment.Reference))

	logger.Info("Payment status changed", slog.String("status", string(payment.Status)))
	metrics.PaymentTransition(string(payment.Status))

	s.invalidate(ctx, payment.Reference)

	if err := s.publisher.PublishPaymentStatus(ctx, events.NewPaymentEvent(payment, payment.Status)); err != nil {
		logger.Warn("Failed to publish payment event", slog.String("error", err.Error()))
	}

	switch payment.Status {
	case models.PaymentStatusPaid:
		s.sendConfirmation(ctx, logger, payment)
	case models.PaymentStatusCancelled, models.PaymentStatusExpired:
		if err := s.reservationRepo.UpdateReservationStatus(ctx, payment.ReservationID, models.ReservationStatusCancelled); err != nil {
			logger.Warn("Failed to release reservation", slog.String("error", err.Error()))
		}
	}
}

func (s *paymentService) sendConfirmation(ctx context.Context, logger *slog.Logger, payment *models.Payment) {

	if s.emailNotifier == nil {
		return
	}

	reservation, err := s.reservationRepo.GetReservationByID(ctx, payment.ReservationID)
	if err != nil {
		logger.Warn("Failed to load reservation for confirmation email", slog.String("error", err.Error()))
		return
	}

	if err := s.emailNotifier.SendPaymentConfirmation(ctx, payment, reservation); err != nil {
		logger.Warn("Failed to send confirmation email", slog.String("error", err.Error()))
	}
}

func (s *paymentService) invalidate(ctx context.Context, reference string) {
	if err := s.invalidator.InvalidatePayment(ctx, reference); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Failed to invalidate cached payment reads",
			slog.String("reference", reference),
			slog.String("error", err.Error()))
	}
}

func (s *paymentService) overdue(payment *models.Payment) bool {
	return payment.Status == models.PaymentStatusPending &&
		payment.ExpiresAt != nil &&
		!s.now().Before(*payment.ExpiresAt)
}

// cacheTTL keeps pending entries no longer than their deadline.
func (s *paymentService) cacheTTL(payment *models.Payment) time.Duration {

	ttl := s.cfg.CacheTTL

	if payment.Status == models.PaymentStatusPending && payment.ExpiresAt != nil {
		left := payment.ExpiresAt.Sub(s.now())
		if ttl <= 0 || left < ttl {
			ttl = max(left, time.Second)
		}
	}

	return ttl
}

func newReference() string {
	return "OPA-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// newMultibancoReference returns the 9 digit reference printed on ATM receipts.
func newMultibancoReference() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000_000))
	if err != nil {
		return fmt.Sprintf("%09d", time.Now().UnixNano()%1_000_000_000)
	}

	return fmt.Sprintf("%09d", n.Int64())
}
