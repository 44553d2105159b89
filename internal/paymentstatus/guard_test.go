package paymentstatus_test

import (
	"testing"

	"github.com/opaquedelicia/restaurant-platform/internal/paymentstatus"
	"github.com/stretchr/testify/assert"
)

func TestParseBody(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expectOK bool
		expected map[string]any
	}{
		{
			name:     "Valid object",
			body:     `{"status":"pending"}`,
			expectOK: true,
			expected: map[string]any{"status": "pending"},
		},
		{
			name:     "Valid object with surrounding whitespace",
			body:     "\n\t {\"estado\":\"pago\"}  \n",
			expectOK: true,
			expected: map[string]any{"estado": "pago"},
		},
		{name: "Empty body", body: ""},
		{name: "Whitespace only", body: "   \n"},
		{name: "HTML document", body: "<!DOCTYPE html><html><body>Server Error</body></html>"},
		{name: "HTML fragment", body: "<html><head><title>404</title></head></html>"},
		{name: "JSON object wrapping an HTML page", body: `{"error":"<html><body>oops</body></html>"}`},
		{name: "JSON array", body: `[{"status":"paid"}]`},
		{name: "JSON string", body: `"paid"`},
		{name: "JSON null", body: `null`},
		{name: "Truncated object", body: `{"status":"pen`},
		{name: "Trailing garbage", body: `{"status":"paid"} extra`},
		{name: "Plain text", body: "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			var (
				payload map[string]any
				ok      bool
			)
			assert.NotPanics(t, func() {
				payload, ok = paymentstatus.ParseBody([]byte(tt.body))
			})

			// Assert
			assert.Equal(t, tt.expectOK, ok)
			if tt.expectOK {
				assert.Equal(t, tt.expected, payload)
			} else {
				assert.Nil(t, payload)
			}
		})
	}
}
