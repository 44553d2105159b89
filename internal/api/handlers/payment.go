package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/opaquedelicia/restaurant-platform/internal/api/middleware"
	"github.com/opaquedelicia/restaurant-platform/internal/errors"
	"github.com/opaquedelicia/restaurant-platform/internal/models"
	service "github.com/opaquedelicia/restaurant-platform/internal/services"
	"github.com/opaquedelicia/restaurant-platform/internal/utils"
	"github.com/opaquedelicia/restaurant-platform/internal/utils/response"
)

const maxWebhookBytes = 64 << 10

type PaymentHandler struct {
	paymentService service.PaymentService
	validator      *validator.Validate
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, validator: validator.New()}
}

// CreatePayment godoc
//
//	@Summary		Start a reservation payment
//	@Description	Creates a card, MB WAY or Multibanco payment for a pending reservation. Card payments return a Stripe client secret; Multibanco payments return the entity and a 9 digit reference valid for 72 hours.
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Param			payment	body		models.PaymentRequest	true	"Payment details"
//	@Success		201		{object}	models.PaymentResponse	"Payment created"
//	@Failure		400		{object}	response.ErrorResponse	"Validation error"
//	@Failure		404		{object}	response.ErrorResponse	"Reservation not found"
//	@Failure		409		{object}	response.ErrorResponse	"Reservation is not awaiting payment"
//	@Failure		502		{object}	response.ErrorResponse	"Payment provider error"
//	@Router			/payments [post]
func (h *PaymentHandler) CreatePayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.PaymentRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		resp, err := h.paymentService.CreatePayment(r.Context(), &req)
		if err != nil {
			logger.Error("Failed to create payment",
				slog.String("reservationId", req.ReservationID),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Payment created",
			slog.String("reference", resp.Payment.Reference),
			slog.String("method", string(resp.Payment.Method)))
		response.Success(w, http.StatusCreated, resp)
	}
}

// GetPaymentStatus godoc
//
//	@Summary		Get a payment's status
//	@Description	Returns the current status of a payment, with its Portuguese label in "estado". Pending payments past their deadline are reported as expired.
//	@Tags			Payments
//	@Produce		json
//	@Param			reference	path		string							true	"Payment reference"
//	@Success		200			{object}	models.PaymentStatusResponse	"Current status"
//	@Failure		404			{object}	response.ErrorResponse			"Payment not found"
//	@Failure		429			{object}	response.ErrorResponse			"Too many requests"
//	@Router			/payments/status/{reference} [get]
func (h *PaymentHandler) GetPaymentStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		reference := r.PathValue("reference")
		if reference == "" {
			response.Error(w, errors.BadRequestError("Payment reference is required"))
			return
		}

		status, err := h.paymentService.GetPaymentStatus(r.Context(), reference)
		if err != nil {
			middleware.LoggerFromContext(r.Context()).Warn("Failed to get payment status",
				slog.String("reference", reference),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, status)
	}
}

// CancelPayment godoc
//
//	@Summary		Cancel a pending payment
//	@Description	Cancels a pending payment and releases its reservation. Cancelling a payment that already ended unpaid returns its current status.
//	@Tags			Payments
//	@Produce		json
//	@Param			reference	path		string							true	"Payment reference"
//	@Success		200			{object}	models.PaymentStatusResponse	"Status after cancellation"
//	@Failure		404			{object}	response.ErrorResponse			"Payment not found"
//	@Failure		409			{object}	response.ErrorResponse			"Payment already settled"
//	@Router			/payments/{reference}/cancel [post]
func (h *PaymentHandler) CancelPayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		reference := r.PathValue("reference")
		if reference == "" {
			response.Error(w, errors.BadRequestError("Payment reference is required"))
			return
		}

		status, err := h.paymentService.CancelPayment(r.Context(), reference)
		if err != nil {
			logger.Warn("Failed to cancel payment",
				slog.String("reference", reference),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Payment cancel requested",
			slog.String("reference", reference),
			slog.String("status", string(status.Status)))
		response.Success(w, http.StatusOK, status)
	}
}

// ConfirmPayment godoc
//
//	@Summary		Confirm a payment by hand
//	@Description	Marks a pending payment as paid and confirms its reservation. Requires an admin token.
//	@Tags			Payments
//	@Produce		json
//	@Param			reference	path		string							true	"Payment reference"
//	@Success		200			{object}	models.PaymentStatusResponse	"Status after confirmation"
//	@Failure		401			{object}	response.ErrorResponse			"Authentication required"
//	@Failure		403			{object}	response.ErrorResponse			"Admin access required"
//	@Failure		404			{object}	response.ErrorResponse			"Payment not found"
//	@Failure		409			{object}	response.ErrorResponse			"Payment is no longer pending"
//	@Security		BearerAuth
//	@Router			/payments/{reference}/confirm [post]
func (h *PaymentHandler) ConfirmPayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.ClaimsFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized payment confirmation attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		reference := r.PathValue("reference")
		if reference == "" {
			response.Error(w, errors.BadRequestError("Payment reference is required"))
			return
		}

		status, err := h.paymentService.ConfirmPayment(r.Context(), reference)
		if err != nil {
			logger.Warn("Failed to confirm payment",
				slog.String("reference", reference),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Payment confirmed by hand",
			slog.String("reference", reference),
			slog.String("userId", claims.UserID.String()))
		response.Success(w, http.StatusOK, status)
	}
}

// HandleStripeWebhook godoc
//
//	@Summary		Receive Stripe events
//	@Description	Verifies the Stripe-Signature header and applies payment_intent succeeded, canceled and payment_failed events.
//	@Tags			Payments
//	@Accept			json
//	@Produce		json
//	@Param			Stripe-Signature	header		string					true	"Stripe signature"
//	@Success		200					{object}	map[string]bool			"Event accepted"
//	@Failure		400					{object}	response.ErrorResponse	"Missing or invalid signature"
//	@Router			/payments/webhook [post]
func (h *PaymentHandler) HandleStripeWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
		if err != nil {
			logger.Error("Error reading webhook body", slog.String("error", err.Error()))
			response.Error(w, errors.BadRequestError("Failed to read request body").WithError(err))
			return
		}

		signature := r.Header.Get("Stripe-Signature")
		if signature == "" {
			logger.Warn("Missing Stripe signature")
			response.Error(w, errors.BadRequestError("Stripe Signature is required"))
			return
		}

		event, err := h.paymentService.ProcessWebhook(r.Context(), payload, signature)
		if err != nil {
			logger.Error("Failed to process payment webhook",
				slog.String("eventId", event.ID),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Payment webhook processed",
			slog.String("eventId", event.ID),
			slog.String("type", string(event.Type)))
		response.Success(w, http.StatusOK, map[string]bool{"received": true})
	}
}
