package stripe_test

import (
	"fmt"
	"tahaworld/config"
	"tahaworld/infras/otel/mocks"
	"tahaworld/infras/stripe"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

const webhookSecret = "whsec_test"

func newGateway() stripe.Gateway {
	cfg := &config.Config{}
	cfg.Payment.Stripe.WebhookSecret = webhookSecret

	return stripe.New(cfg, mocks.NewOtel())
}

func sign(t *testing.T, payload string) string {
	t.Helper()

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    webhookSecret,
		Timestamp: time.Now(),
	})

	return signed.Header
}

func TestParseWebhook(t *testing.T) {
	gateway := newGateway()

	tests := []struct {
		name    string
		payload string
		want    stripe.WebhookEvent
	}{
		{
			name: "payment succeeded",
			payload: fmt.Sprintf(`{"id":"evt_1","object":"event","type":%q,"data":{"object":{"id":"pi_1","object":"payment_intent","metadata":{"booking_id":"b-1"}}}}`,
				stripe.EventPaymentSucceeded),
			want: stripe.WebhookEvent{ID: "evt_1", Type: stripe.EventPaymentSucceeded, PaymentIntentID: "pi_1", BookingID: "b-1"},
		},
		{
			name: "charge refunded",
			payload: fmt.Sprintf(`{"id":"evt_2","object":"event","type":%q,"data":{"object":{"id":"ch_1","object":"charge","payment_intent":"pi_2","refunded":true,"metadata":{}}}}`,
				stripe.EventChargeRefunded),
			want: stripe.WebhookEvent{ID: "evt_2", Type: stripe.EventChargeRefunded, PaymentIntentID: "pi_2", FullyRefunded: true},
		},
		{
			name:    "unhandled type",
			payload: `{"id":"evt_3","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`,
			want:    stripe.WebhookEvent{ID: "evt_3", Type: "customer.created"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gateway.ParseWebhook([]byte(tt.payload), sign(t, tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseWebhookRejectsBadSignature(t *testing.T) {
	_, err := newGateway().ParseWebhook([]byte(`{"id":"evt_1"}`), "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, stripe.ErrInvalidSignature)
}

func TestCreatePaymentIntentWithoutKey(t *testing.T) {
	_, err := newGateway().CreatePaymentIntent(t.Context(), stripe.CreateIntentRequest{BookingID: "b-1"})
	assert.ErrorIs(t, err, stripe.ErrNotConfigured)
}

func TestCreatePaymentIntentRejectsUnchargeableAmount(t *testing.T) {
	_, err := newGateway().CreatePaymentIntent(t.Context(), stripe.CreateIntentRequest{BookingID: "b-1", Amount: 12345, Currency: "KWD"})
	assert.ErrorIs(t, err, stripe.ErrUnchargeable)

	_, err = newGateway().CreatePaymentIntent(t.Context(), stripe.CreateIntentRequest{BookingID: "b-1", Amount: 12340, Currency: "KWD"})
	assert.ErrorIs(t, err, stripe.ErrNotConfigured)
}
