package paypal_test

import (
	"tahaworld/infras/paypal"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeWebhook(t *testing.T) {
	tests := []struct {
		name string
		body string
		want paypal.WebhookEvent
	}{
		{
			name: "capture completed",
			body: `{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"CAP-1","custom_id":"b-1","supplementary_data":{"related_ids":{"order_id":"ORD-1"}}}}`,
			want: paypal.WebhookEvent{ID: "WH-1", Type: paypal.EventCaptureCompleted, OrderID: "ORD-1", CaptureID: "CAP-1", BookingID: "b-1"},
		},
		{
			name: "capture refunded",
			body: `{"id":"WH-2","event_type":"PAYMENT.CAPTURE.REFUNDED","resource":{"id":"REF-1","links":[{"rel":"self","href":"https://api.paypal.com/v2/payments/refunds/REF-1"},{"rel":"up","href":"https://api.paypal.com/v2/payments/captures/CAP-9"}]}}`,
			want: paypal.WebhookEvent{ID: "WH-2", Type: paypal.EventCaptureRefunded, CaptureID: "CAP-9"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := paypal.DecodeWebhook([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeWebhookInvalidBody(t *testing.T) {
	_, err := paypal.DecodeWebhook([]byte(`{`))
	assert.Error(t, err)
}
