package di

import (
	"tahaworld/config"
	"tahaworld/infras/otel"
	certificateRepository "tahaworld/internal/domains/certificate/repository"
	certificateService "tahaworld/internal/domains/certificate/service"
	courseRepository "tahaworld/internal/domains/course/repository"
	userRepository "tahaworld/internal/domains/user/repository"
	"tahaworld/shared/cache"
)

// provideCertificateService pins the certificate service to the default code generator.
func provideCertificateService(
	repo certificateRepository.Certificate,
	userRepo userRepository.User,
	courseRepo courseRepository.Course,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) certificateService.Certificate {
	return certificateService.New(repo, userRepo, courseRepo, cfg, cache, otel)
}
