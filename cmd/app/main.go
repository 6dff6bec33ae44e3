package main

import (
	"tahaworld/config"
	"tahaworld/di"
	"tahaworld/helper"
	"tahaworld/shared/logger"

	"github.com/rs/zerolog/log"
)

// @title Tahaworld API
// @version 1.0
// @description Bilingual coaching platform: consultations, bookings, payments, courses and certificates.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Get()

	logger.Init(cfg)

	if cfg.DB.Postgres.AutoMigrate {
		if err := helper.Up(cfg); err != nil {
			log.Fatal().Err(err).Msg("failed to run database migrations")
		}
	}

	http := di.InitializeService()
	http.Serve()
}
