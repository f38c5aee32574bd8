package main

import (
	"context"
	"os/signal"
	"syscall"

	"marketdata-service/internal/bootstrap"
	"marketdata-service/internal/config"
	"marketdata-service/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	log := logx.L()
	cfg := config.Load()
	if len(cfg.WatchSymbols) == 0 {
		log.Fatal("WATCH_SYMBOLS is empty, nothing to refresh")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cacheLayer, closeCache, err := bootstrap.BuildCache(cfg)
	if err != nil {
		log.Fatal("bootstrap cache", zap.Error(err))
	}
	defer closeCache()

	db, closeDB, err := bootstrap.BuildDB(ctx, cfg)
	if err != nil {
		log.Fatal("bootstrap pg", zap.Error(err))
	}
	defer closeDB()

	market := bootstrap.BuildMarket(cfg, cacheLayer)
	w := bootstrap.BuildWorker(cfg, market, db)
	w.Start(ctx)
}
