package paymentstatus

import (
	"strings"

	"github.com/opaquedelicia/restaurant-platform/internal/models"
)

var statusValues = map[string]models.PaymentStatus{
	"pending":   models.PaymentStatusPending,
	"paid":      models.PaymentStatusPaid,
	"cancelled": models.PaymentStatusCancelled,
	"canceled":  models.PaymentStatusCancelled,
	"expired":   models.PaymentStatusExpired,
	"failed":    models.PaymentStatusFailed,
}

var estadoValues = map[string]models.PaymentStatus{
	models.EstadoPendente:  models.PaymentStatusPending,
	models.EstadoPago:      models.PaymentStatusPaid,
	models.EstadoCancelado: models.PaymentStatusCancelled,
	models.EstadoExpirado:  models.PaymentStatusExpired,
	models.EstadoFalhado:   models.PaymentStatusFailed,
}

// NormalizeStatus translates a status payload into the internal status. Both the bare
// {"status": ...} shape and the {"success": true, "data": {...}} envelope are accepted.
// Paid wins whenever either the "status" or the "estado" field says so.
func NormalizeStatus(payload map[string]any) (models.PaymentStatus, bool) {

	if data, ok := payload["data"].(map[string]any); ok {
		if status, ok := normalizeFields(data); ok {
			return status, true
		}
	}

	return normalizeFields(payload)
}

func normalizeFields(fields map[string]any) (models.PaymentStatus, bool) {

	status, hasStatus := lookup(fields, "status", statusValues)
	estado, hasEstado := lookup(fields, "estado", estadoValues)

	switch {
	case status == models.PaymentStatusPaid || estado == models.PaymentStatusPaid:
		return models.PaymentStatusPaid, true
	case hasStatus:
		return status, true
	case hasEstado:
		return estado, true
	default:
		return "", false
	}
}

func lookup(fields map[string]any, key string, values map[string]models.PaymentStatus) (models.PaymentStatus, bool) {

	raw, ok := fields[key].(string)
	if !ok {
		return "", false
	}

	status, ok := values[strings.ToLower(strings.TrimSpace(raw))]

	return status, ok
}
