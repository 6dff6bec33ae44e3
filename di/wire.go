//go:build wireinject
// +build wireinject

package di

import (
	"tahaworld/config"
	"tahaworld/infras/jwt"
	"tahaworld/infras/kafka"
	"tahaworld/infras/otel"
	"tahaworld/infras/paypal"
	"tahaworld/infras/postgres"
	"tahaworld/infras/redis"
	"tahaworld/infras/s3"
	"tahaworld/infras/stripe"
	"tahaworld/permissions"
	"tahaworld/shared/cache"
	"tahaworld/shared/event"
	"tahaworld/shared/lock"
	"tahaworld/transport/http"
	"tahaworld/transport/http/middleware"
	"tahaworld/transport/http/router"
	"tahaworld/transport/worker"

	"github.com/google/wire"

	authService "tahaworld/internal/domains/auth/service"
	bookingRepository "tahaworld/internal/domains/booking/repository"
	bookingService "tahaworld/internal/domains/booking/service"
	certificateRepository "tahaworld/internal/domains/certificate/repository"
	consultationRepository "tahaworld/internal/domains/consultation/repository"
	consultationService "tahaworld/internal/domains/consultation/service"
	courseRepository "tahaworld/internal/domains/course/repository"
	courseService "tahaworld/internal/domains/course/service"
	feedbackRepository "tahaworld/internal/domains/feedback/repository"
	feedbackService "tahaworld/internal/domains/feedback/service"
	notificationRepository "tahaworld/internal/domains/notification/repository"
	notificationService "tahaworld/internal/domains/notification/service"
	paymentService "tahaworld/internal/domains/payment/service"
	resourceRepository "tahaworld/internal/domains/resource/repository"
	resourceService "tahaworld/internal/domains/resource/service"
	timeslotRepository "tahaworld/internal/domains/timeslot/repository"
	timeslotService "tahaworld/internal/domains/timeslot/service"
	userRepository "tahaworld/internal/domains/user/repository"
	userService "tahaworld/internal/domains/user/service"

	authHandler "tahaworld/internal/handlers/auth"
	bookingHandler "tahaworld/internal/handlers/booking"
	certificateHandler "tahaworld/internal/handlers/certificate"
	consultationHandler "tahaworld/internal/handlers/consultation"
	courseHandler "tahaworld/internal/handlers/course"
	feedbackHandler "tahaworld/internal/handlers/feedback"
	notificationHandler "tahaworld/internal/handlers/notification"
	paymentHandler "tahaworld/internal/handlers/payment"
	resourceHandler "tahaworld/internal/handlers/resource"
	timeslotHandler "tahaworld/internal/handlers/timeslot"
	userHandler "tahaworld/internal/handlers/user"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
	s3.New,
	stripe.New,
	paypal.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
	lock.NewRedisLocker,
	event.NewPublisher,
)

var repositories = wire.NewSet(
	userRepository.New,
	consultationRepository.New,
	timeslotRepository.New,
	bookingRepository.New,
	feedbackRepository.New,
	resourceRepository.New,
	notificationRepository.New,
	courseRepository.New,
	certificateRepository.New,
)

var domains = wire.NewSet(
	repositories,
	authService.New,
	userService.New,
	consultationService.New,
	timeslotService.New,
	bookingService.New,
	paymentService.New,
	feedbackService.New,
	resourceService.New,
	notificationService.New,
	courseService.New,
	provideCertificateService,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	userHandler.New,
	consultationHandler.New,
	timeslotHandler.New,
	bookingHandler.New,
	paymentHandler.New,
	feedbackHandler.New,
	resourceHandler.New,
	notificationHandler.New,
	courseHandler.New,
	certificateHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}

func InitializeWorker() *worker.Worker {
	wire.Build(
		config.Get,
		postgres.New,
		otel.New,
		redis.New,
		kafka.New,
		sharedHelpers,
		userRepository.New,
		consultationRepository.New,
		timeslotRepository.New,
		bookingRepository.New,
		notificationRepository.New,
		bookingService.New,
		notificationService.New,
		worker.New,
	)

	return &worker.Worker{}
}
