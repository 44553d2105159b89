package models

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusExpired   PaymentStatus = "expired"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Localized status values sent in the "estado" field.
const (
	EstadoPendente  = "pendente"
	EstadoPago      = "pago"
	EstadoCancelado = "cancelado"
	EstadoExpirado  = "expirado"
	EstadoFalhado   = "falhado"
)

func (s PaymentStatus) Estado() string {
	switch s {
	case PaymentStatusPaid:
		return EstadoPago
	case PaymentStatusCancelled:
		return EstadoCancelado
	case PaymentStatusExpired:
		return EstadoExpirado
	case PaymentStatusFailed:
		return EstadoFalhado
	default:
		return EstadoPendente
	}
}

// IsFinal reports whether no further status change is expected.
func (s PaymentStatus) IsFinal() bool {
	return s != PaymentStatusPending
}

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)
