package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/opaquedelicia/restaurant-platform/internal/models"
	"github.com/opaquedelicia/restaurant-platform/internal/utils"
)

type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error)
	GetPaymentByStripeID(ctx context.Context, stripeID string) (*models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, reference string, status models.PaymentStatus) error
	MarkPaymentPaid(ctx context.Context, reference string, paidAt time.Time) error
	ExpireOverduePayments(ctx context.Context, now time.Time) ([]string, error)
}

type paymentRepository struct {
	DB *sql.DB
}

func NewPaymentRepository(db *sql.DB) PaymentRepository {
	return &paymentRepository{DB: db}
}

const paymentColumns = `reference, reservation_id, amount, currency, method, status, COALESCE(stripe_id, ''), COALESCE(phone, ''), expires_at, paid_at, created_at, updated_at`

func scanPayment(row interface{ Scan(dest ...any) error }) (*models.Payment, error) {

	payment := &models.Payment{}

	err := row.Scan(&payment.Reference, &payment.ReservationID, &payment.Amount, &payment.Currency, &payment.Method, &payment.Status, &payment.StripeID, &payment.Phone, &payment.ExpiresAt, &payment.PaidAt, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return payment, nil
}

func (r *paymentRepository) CreatePayment(ctx context.Context, payment *models.Payment) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO payments (reference, reservation_id, amount, currency, method, status, stripe_id, phone, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := r.DB.QueryRowContext(dbCtx, query, payment.Reference, payment.ReservationID, payment.Amount, payment.Currency, payment.Method, payment.Status, payment.StripeID, payment.Phone, payment.ExpiresAt).
		Scan(&payment.CreatedAt, &payment.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	return nil
}

func (r *paymentRepository) GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reference = $1`

	payment, err := scanPayment(r.DB.QueryRowContext(dbCtx, query, reference))
	if err != nil {
		return nil, fmt.Errorf("failed to get the payment: %w", err)
	}

	return payment, nil
}

func (r *paymentRepository) GetPaymentByStripeID(ctx context.Context, stripeID string) (*models.Payment, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE stripe_id = $1`

	payment, err := scanPayment(r.DB.QueryRowContext(dbCtx, query, stripeID))
	if err != nil {
		return nil, fmt.Errorf("failed to get the payment by stripe id: %w", err)
	}

	return payment, nil
}

// UpdatePaymentStatus moves a pending payment to status. A payment that already left
// pending is not touched and sql.ErrNoRows is returned.
func (r *paymentRepository) UpdatePaymentStatus(ctx context.Context, reference string, status models.PaymentStatus) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE payments SET status = $1, updated_at = $2
		WHERE reference = $3 AND status = 'pending'
	`

	result, err := r.DB.ExecContext(dbCtx, query, status, time.Now(), reference)
	if err != nil {
		return fmt.Errorf("failed to update the payment status: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updatedRows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// MarkPaymentPaid settles the payment and confirms its reservation in one transaction.
func (r *paymentRepository) MarkPaymentPaid(ctx context.Context, reference string, paidAt time.Time) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	tx, err := r.DB.BeginTx(dbCtx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var reservationID string

	err = tx.QueryRowContext(dbCtx, `
		UPDATE payments SET status = 'paid', paid_at = $1, updated_at = $1
		WHERE reference = $2 AND status = 'pending'
		RETURNING reservation_id
	`, paidAt, reference).Scan(&reservationID)
	if err != nil {
		return fmt.Errorf("failed to mark payment paid: %w", err)
	}

	_, err = tx.ExecContext(dbCtx, `
		UPDATE reservations SET status = 'confirmed', updated_at = $1
		WHERE id = $2
	`, paidAt, reservationID)
	if err != nil {
		return fmt.Errorf("failed to confirm reservation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit payment: %w", err)
	}

	return nil
}

// ExpireOverduePayments marks every pending payment whose deadline passed as expired and
// returns their references.
func (r *paymentRepository) ExpireOverduePayments(ctx context.Context, now time.Time) ([]string, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE payments SET status = 'expired', updated_at = $1
		WHERE status = 'pending' AND expires_at IS NOT NULL AND expires_at <= $1
		RETURNING reference
	`

	rows, err := r.DB.QueryContext(dbCtx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to expire payments: %w", err)
	}

	defer rows.Close()

	var references []string

	for rows.Next() {
		var reference string
		if err := rows.Scan(&reference); err != nil {
			return nil, fmt.Errorf("failed to scan expired payment: %w", err)
		}

		references = append(references, reference)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return references, nil
}
