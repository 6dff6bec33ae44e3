package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tahaworld/internal/domains/notification/model"
	"tahaworld/shared/constant"
	"tahaworld/shared/event"
)

func TestRender(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	evt := event.BookingEvent{Type: event.TypePaymentCompleted, Amount: 15000, Currency: "USD", StartTime: start}

	tests := []struct {
		name        string
		lang        string
		wantTitle   string
		wantMessage string
	}{
		{
			name:        "english",
			lang:        constant.LanguageEnglish,
			wantTitle:   "Payment received",
			wantMessage: "We received 150.00 USD for your Career coaching session.",
		},
		{
			name:        "arabic",
			lang:        constant.LanguageArabic,
			wantTitle:   "تم استلام الدفعة",
			wantMessage: "استلمنا دفعة بقيمة 150.00 USD لجلسة Career coaching.",
		},
		{
			name:      "unknown language falls back to arabic",
			lang:      "fr",
			wantTitle: "تم استلام الدفعة",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, message := model.Render(evt, tt.lang, "Career coaching", time.UTC)

			assert.Equal(t, tt.wantTitle, title)

			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, message)
			}
		})
	}
}

func TestRenderStartTimeInLocation(t *testing.T) {
	riyadh := time.FixedZone("AST", 3*60*60)
	evt := event.BookingEvent{Type: event.TypeBookingConfirmed, StartTime: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)}

	_, message := model.Render(evt, constant.LanguageEnglish, "Mentoring", riyadh)

	assert.Equal(t, "Your Mentoring session on 2026-03-01 12:30 is confirmed.", message)
}

func TestSupports(t *testing.T) {
	assert.True(t, model.Supports(event.TypeBookingCreated))
	assert.True(t, model.Supports(event.TypePaymentReceiptUploaded))
	assert.False(t, model.Supports("booking.archived"))
}
