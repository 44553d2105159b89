package models

import (
	"time"

	"github.com/google/uuid"
)

type Reservation struct {
	ID            uuid.UUID         `json:"id"`
	CustomerName  string            `json:"customer_name"`
	CustomerEmail string            `json:"customer_email"`
	TableNumber   int               `json:"table_number"`
	PartySize     int               `json:"party_size"`
	ReservedFor   time.Time         `json:"reserved_for"`
	Status        ReservationStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}
