package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"go-workforce/internal/app"
	"go-workforce/internal/config"
	"go-workforce/internal/shared/apperror"
	"go-workforce/internal/shared/logger"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	apperror.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunWorker(ctx, cfg, log); err != nil {
		log.Fatal("run worker failed", zap.Error(err))
	}
}
