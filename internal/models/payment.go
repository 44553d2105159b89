package models

import (
	"time"

	"github.com/google/uuid"
)

type PaymentMethod string

const (
	PaymentMethodCard       PaymentMethod = "card"
	PaymentMethodMBWay      PaymentMethod = "mbway"
	PaymentMethodMultibanco PaymentMethod = "multibanco"
)

type Payment struct {
	Reference     string        `json:"reference"`
	ReservationID uuid.UUID     `json:"reservation_id"`
	Amount        int64         `json:"amount"`
	Currency      string        `json:"currency"`
	Method        PaymentMethod `json:"method"`
	Status        PaymentStatus `json:"status"`
	StripeID      string        `json:"stripe_id,omitempty"`
	Phone         string        `json:"phone,omitempty"`
	ExpiresAt     *time.Time    `json:"expires_at,omitempty"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type PaymentRequest struct {
	ReservationID string        `json:"reservation_id" validate:"required,uuid"`
	Amount        int64         `json:"amount" validate:"required,gt=0"`
	Method        PaymentMethod `json:"method" validate:"required,oneof=card mbway multibanco"`
	Phone         string        `json:"phone,omitempty" validate:"required_if=Method mbway"`
	Email         string        `json:"email,omitempty" validate:"omitempty,email"`
}

type PaymentResponse struct {
	Payment      *Payment `json:"payment"`
	ClientSecret string   `json:"client_secret,omitempty"`
	Entity       string   `json:"entity,omitempty"`
	Message      string   `json:"message"`
}

// PaymentStatusResponse is the body served by GET /api/payments/status/{reference}.
type PaymentStatusResponse struct {
	Reference string        `json:"reference"`
	Status    PaymentStatus `json:"status"`
	Estado    string        `json:"estado"`
	ExpiresAt *time.Time    `json:"expires_at,omitempty"`
	PaidAt    *time.Time    `json:"paid_at,omitempty"`
}

func NewPaymentStatusResponse(p *Payment) *PaymentStatusResponse {
	return &PaymentStatusResponse{
		Reference: p.Reference,
		Status:    p.Status,
		Estado:    p.Status.Estado(),
		ExpiresAt: p.ExpiresAt,
		PaidAt:    p.PaidAt,
	}
}
