package stripe_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/opaquedelicia/restaurant-platform/pkg/stripe"
	stripego "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test_secret"

func signedPayload(t *testing.T, payload []byte, secret string) string {
	t.Helper()

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})

	return signed.Header
}

func TestVerifyWebhookSignature(t *testing.T) {
	payload := []byte(fmt.Sprintf(`{"id":"evt_1","object":"event","type":"payment_intent.succeeded","api_version":%q,"data":{"object":{"id":"pi_123","object":"payment_intent","status":"succeeded"}}}`, stripego.APIVersion))

	t.Run("Success", func(t *testing.T) {
		// Arrange
		client := stripe.NewStripeClient("sk_test_123", testWebhookSecret)
		header := signedPayload(t, payload, testWebhookSecret)

		// Act
		event, err := client.VerifyWebhookSignature(payload, header)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, stripe.EventPaymentSucceeded, string(event.Type))
		assert.Equal(t, "pi_123", event.Data.Object["id"])
	})

	t.Run("Failure - Wrong Secret", func(t *testing.T) {
		client := stripe.NewStripeClient("sk_test_123", testWebhookSecret)
		header := signedPayload(t, payload, "whsec_other")

		_, err := client.VerifyWebhookSignature(payload, header)

		assert.Error(t, err)
	})

	t.Run("Failure - Secret Not Configured", func(t *testing.T) {
		client := stripe.NewStripeClient("sk_test_123", "")

		_, err := client.VerifyWebhookSignature(payload, "t=1,v1=abc")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "webhook secret not configured")
	})
}
