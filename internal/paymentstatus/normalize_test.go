package paymentstatus_test

import (
	"testing"

	"github.com/opaquedelicia/restaurant-platform/internal/models"
	"github.com/opaquedelicia/restaurant-platform/internal/paymentstatus"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		name     string
		payload  map[string]any
		expected models.PaymentStatus
		expectOK bool
	}{
		{"Primary pending", map[string]any{"status": "pending"}, models.PaymentStatusPending, true},
		{"Primary paid", map[string]any{"status": "paid"}, models.PaymentStatusPaid, true},
		{"Primary paid uppercase", map[string]any{"status": " PAID "}, models.PaymentStatusPaid, true},
		{"Alternate pago", map[string]any{"estado": "pago"}, models.PaymentStatusPaid, true},
		{"Alternate pendente", map[string]any{"estado": "pendente"}, models.PaymentStatusPending, true},
		{"Alternate wins when paid", map[string]any{"status": "pending", "estado": "pago"}, models.PaymentStatusPaid, true},
		{"Primary wins when paid", map[string]any{"status": "paid", "estado": "pendente"}, models.PaymentStatusPaid, true},
		{"Cancelled", map[string]any{"status": "canceled"}, models.PaymentStatusCancelled, true},
		{"Expired estado", map[string]any{"estado": "expirado"}, models.PaymentStatusExpired, true},
		{"Enveloped", map[string]any{"success": true, "data": map[string]any{"reference": "REF1", "status": "paid"}}, models.PaymentStatusPaid, true},
		{"Envelope without status falls back to top level", map[string]any{"data": map[string]any{}, "status": "pending"}, models.PaymentStatusPending, true},
		{"Unknown value", map[string]any{"status": "processing"}, "", false},
		{"Non string value", map[string]any{"status": true}, "", false},
		{"No status fields", map[string]any{"reference": "REF1"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, ok := paymentstatus.NormalizeStatus(tt.payload)

			assert.Equal(t, tt.expectOK, ok)
			assert.Equal(t, tt.expected, status)
		})
	}
}
