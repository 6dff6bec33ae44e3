package handler

import (
	"net/http"
	"tahaworld/config"
	"tahaworld/di"
	"tahaworld/shared/logger"
)

func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()

	cfg := config.Get()

	logger.Init(cfg)

	handler := di.InitializeService()
	handler.ServeHTTP(w, r)
}
