package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opaquedelicia/restaurant-platform/internal/models"
	"github.com/opaquedelicia/restaurant-platform/internal/utils"
)

type ReservationRepository interface {
	GetReservationByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	ListReservations(ctx context.Context) ([]*models.Reservation, error)
	UpdateReservationStatus(ctx context.Context, id uuid.UUID, status models.ReservationStatus) error
}

type reservationRepository struct {
	DB *sql.DB
}

func NewReservationRepository(db *sql.DB) ReservationRepository {
	return &reservationRepository{DB: db}
}

func (r *reservationRepository) GetReservationByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	reservation := &models.Reservation{}

	query := `
		SELECT id, customer_name, customer_email, table_number, party_size, reserved_for, status, created_at, updated_at
		FROM reservations
		WHERE id = $1
	`

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(&reservation.ID, &reservation.CustomerName, &reservation.CustomerEmail, &reservation.TableNumber, &reservation.PartySize, &reservation.ReservedFor, &reservation.Status, &reservation.CreatedAt, &reservation.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get the reservation: %w", err)
	}

	return reservation, nil
}

func (r *reservationRepository) ListReservations(ctx context.Context) ([]*models.Reservation, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, customer_name, customer_email, table_number, party_size, reserved_for, status, created_at, updated_at
		FROM reservations
		ORDER BY reserved_for ASC
	`

	rows, err := r.DB.QueryContext(dbCtx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list the reservations: %w", err)
	}

	defer rows.Close()

	reservations := []*models.Reservation{}

	for rows.Next() {

		reservation := &models.Reservation{}

		err := rows.Scan(&reservation.ID, &reservation.CustomerName, &reservation.CustomerEmail, &reservation.TableNumber, &reservation.PartySize, &reservation.ReservedFor, &reservation.Status, &reservation.CreatedAt, &reservation.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan the reservations: %w", err)
		}

		reservations = append(reservations, reservation)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reservations, nil
}

func (r *reservationRepository) UpdateReservationStatus(ctx context.Context, id uuid.UUID, status models.ReservationStatus) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE reservations SET status = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.DB.ExecContext(dbCtx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update the reservation status: %w", err)
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
