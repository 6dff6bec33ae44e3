package main

import (
	"tahaworld/config"
	"tahaworld/di"
	"tahaworld/shared/logger"
)

func main() {
	cfg := config.Get()

	logger.Init(cfg)

	worker := di.InitializeWorker()
	worker.Serve()
}
