package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketdata-service/internal/bootstrap"
	"marketdata-service/internal/config"
	httpserver "marketdata-service/internal/infrastructure/http"
	"marketdata-service/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	ctx := context.Background()
	logger := logx.L()
	cfg := config.Load()
	addr := ":" + cfg.Port

	cacheLayer, closeCache, err := bootstrap.BuildCache(cfg)
	if err != nil {
		logger.Fatal("bootstrap cache", zap.Error(err))
	}
	defer closeCache()

	market := bootstrap.BuildMarket(cfg, cacheLayer)
	srv := httpserver.NewServer(market)

	// /readyz probes postgres when configured, else the cache backend
	if cfg.Storage == "pg" && cfg.DatabaseURL != "" {
		db, closeDB, err := bootstrap.BuildDB(ctx, cfg)
		if err != nil {
			logger.Fatal("bootstrap pg", zap.Error(err))
		}
		defer closeDB()
		srv.SetReadyCheck(db.Ping)
	} else if cacheLayer.Ping != nil {
		srv.SetReadyCheck(cacheLayer.Ping)
	}

	server := &http.Server{
		Addr:    addr,
		Handler: httpserver.NewRouter(srv),
	}

	go func() {
		logger.Info("server started", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = server.Shutdown(shutdownCtx)
	logger.Info("server stopped")
}
