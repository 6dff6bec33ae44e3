package router

import (
	"tahaworld/internal/handlers/auth"
	"tahaworld/internal/handlers/booking"
	"tahaworld/internal/handlers/certificate"
	"tahaworld/internal/handlers/consultation"
	"tahaworld/internal/handlers/course"
	"tahaworld/internal/handlers/feedback"
	"tahaworld/internal/handlers/notification"
	"tahaworld/internal/handlers/payment"
	"tahaworld/internal/handlers/resource"
	"tahaworld/internal/handlers/timeslot"
	"tahaworld/internal/handlers/user"

	"github.com/go-chi/chi/v5"
)

type DomainHandlers struct {
	Auth         auth.Handler
	User         user.Handler
	Consultation consultation.Handler
	TimeSlot     timeslot.Handler
	Booking      booking.Handler
	Payment      payment.Handler
	Feedback     feedback.Handler
	Resource     resource.Handler
	Notification notification.Handler
	Course       course.Handler
	Certificate  certificate.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		r.DomainHandlers.Auth.Router(routerGroup)
		r.DomainHandlers.User.Router(routerGroup)
		r.DomainHandlers.Consultation.Router(routerGroup)
		r.DomainHandlers.TimeSlot.Router(routerGroup)
		r.DomainHandlers.Booking.Router(routerGroup)
		r.DomainHandlers.Payment.Router(routerGroup)
		r.DomainHandlers.Feedback.Router(routerGroup)
		r.DomainHandlers.Resource.Router(routerGroup)
		r.DomainHandlers.Notification.Router(routerGroup)
		r.DomainHandlers.Course.Router(routerGroup)
		r.DomainHandlers.Certificate.Router(routerGroup)
	})
}

func New(domainHandlers DomainHandlers) Router {
	return Router{
		DomainHandlers: domainHandlers,
	}
}
