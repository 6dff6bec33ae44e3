package model

import (
	"fmt"
	"tahaworld/shared/constant"
	"tahaworld/shared/event"
	"tahaworld/shared/money"
	"time"
)

const startLayout = "2006-01-02 15:04"

type text struct {
	title   string
	message string
}

// template holds the Arabic and English wording of one event type. Messages receive the
// consultation title, the session start and the formatted amount, in that order.
type template struct {
	ar text
	en text
}

var templates = map[string]template{
	event.TypeBookingCreated: {
		ar: text{"تم استلام حجزك", "تم حجز جلسة %[1]s بتاريخ %[2]s. أكمل الدفع (%[3]s) لتأكيد الحجز."},
		en: text{"Booking received", "Your %[1]s session on %[2]s is on hold. Complete the payment (%[3]s) to confirm it."},
	},
	event.TypeBookingConfirmed: {
		ar: text{"تم تأكيد حجزك", "تم تأكيد جلسة %[1]s بتاريخ %[2]s."},
		en: text{"Booking confirmed", "Your %[1]s session on %[2]s is confirmed."},
	},
	event.TypeBookingCancelled: {
		ar: text{"تم إلغاء الحجز", "تم إلغاء جلسة %[1]s بتاريخ %[2]s."},
		en: text{"Booking cancelled", "Your %[1]s session on %[2]s was cancelled."},
	},
	event.TypeBookingCompleted: {
		ar: text{"اكتملت الجلسة", "شكراً لحضورك جلسة %[1]s. يسعدنا سماع رأيك."},
		en: text{"Session completed", "Thank you for attending %[1]s. We would love your feedback."},
	},
	event.TypeBookingRescheduled: {
		ar: text{"تم تغيير موعد الجلسة", "الموعد الجديد لجلسة %[1]s هو %[2]s."},
		en: text{"Session rescheduled", "Your %[1]s session now starts on %[2]s."},
	},
	event.TypePaymentCompleted: {
		ar: text{"تم استلام الدفعة", "استلمنا دفعة بقيمة %[3]s لجلسة %[1]s."},
		en: text{"Payment received", "We received %[3]s for your %[1]s session."},
	},
	event.TypePaymentFailed: {
		ar: text{"تعذر إتمام الدفع", "لم تكتمل دفعة جلسة %[1]s. يمكنك المحاولة مرة أخرى."},
		en: text{"Payment failed", "The payment for your %[1]s session did not go through. You can try again."},
	},
	event.TypePaymentRefunded: {
		ar: text{"تم استرداد المبلغ", "تم استرداد %[3]s لجلسة %[1]s."},
		en: text{"Payment refunded", "%[3]s for your %[1]s session has been refunded."},
	},
	event.TypePaymentReceiptUploaded: {
		ar: text{"إيصال تحويل جديد", "تم رفع إيصال تحويل بقيمة %[3]s لجلسة %[1]s بانتظار المراجعة."},
		en: text{"New transfer receipt", "A transfer receipt of %[3]s for %[1]s is awaiting review."},
	},
}

// Supports reports whether evtType produces a notification.
func Supports(evtType string) bool {
	_, ok := templates[evtType]

	return ok
}

// Render returns the title and message of evt in lang. Unknown languages fall back to Arabic.
func Render(evt event.BookingEvent, lang, consultationTitle string, loc *time.Location) (title, message string) {
	tmpl := templates[evt.Type]

	wording := tmpl.ar
	if lang == constant.LanguageEnglish {
		wording = tmpl.en
	}

	start := evt.StartTime.In(loc).Format(startLayout)
	amount := money.FormatMinor(evt.Amount, evt.Currency) + " " + evt.Currency

	return wording.title, fmt.Sprintf(wording.message, consultationTitle, start, amount)
}
