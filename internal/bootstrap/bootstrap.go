package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"marketdata-service/internal/application"
	"marketdata-service/internal/config"
	"marketdata-service/internal/domain"
	"marketdata-service/internal/infrastructure/cache"
	"marketdata-service/internal/infrastructure/logx"
	"marketdata-service/internal/infrastructure/pg"
	"marketdata-service/internal/infrastructure/provider"
	"marketdata-service/internal/infrastructure/ratelimit"
	redisstore "marketdata-service/internal/infrastructure/redis"
	"marketdata-service/internal/infrastructure/worker"

	"github.com/redis/go-redis/v9"
)

// Cache holds the shared store plus an optional liveness probe used by
// /readyz when redis is the backend.
type Cache struct {
	Store application.CacheStore
	Ping  func(ctx context.Context) error
}

// BuildCache selects the cache backend from CACHE_BACKEND.
func BuildCache(cfg config.Config) (Cache, func(), error) {
	switch cfg.CacheBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		cleanup := func() { _ = client.Close() }
		return Cache{
			Store: redisstore.New(client),
			Ping:  func(ctx context.Context) error { return client.Ping(ctx).Err() },
		}, cleanup, nil
	case "memory":
		return Cache{Store: cache.NewMemory()}, func() {}, nil
	default:
		return Cache{}, func() {}, fmt.Errorf("unknown CACHE_BACKEND %q", cfg.CacheBackend)
	}
}

// BuildMarket assembles the provider chain and the aggregator on top of
// it. TwelveData joins the chain only when an API key is configured,
// and leads it only when PRIMARY_PROVIDER selects it.
func BuildMarket(cfg config.Config, c Cache) *application.MarketDataService {
	log := logx.L()

	finnhub := application.ProviderEntry{
		ID: domain.ProviderFinnhub,
		Client: provider.NewFinnhub(provider.Config{
			BaseURL:    cfg.FinnhubBaseURL,
			APIKey:     cfg.FinnhubAPIKey,
			Cache:      c.Store,
			RateLimit:  limiterCfg(cfg.FinnhubBudget),
			QuoteTTL:   cfg.QuoteTTL,
			HistoryTTL: cfg.HistoryTTL,
			Log:        log,
		}),
	}
	yahoo := application.ProviderEntry{
		ID: domain.ProviderYahoo,
		Client: provider.NewYahoo(provider.Config{
			BaseURL:    cfg.YahooBaseURL,
			Cache:      c.Store,
			RateLimit:  limiterCfg(cfg.YahooBudget),
			QuoteTTL:   cfg.QuoteTTL,
			HistoryTTL: cfg.HistoryTTL,
			Log:        log,
		}),
	}

	var primary *application.ProviderEntry
	fallbacks := []application.ProviderEntry{finnhub, yahoo}
	if cfg.TwelveDataAPIKey != "" && strings.EqualFold(cfg.PrimaryProvider, string(domain.ProviderTwelveData)) {
		primary = &application.ProviderEntry{
			ID: domain.ProviderTwelveData,
			Client: provider.NewTwelveData(provider.Config{
				BaseURL:    cfg.TwelveDataBaseURL,
				APIKey:     cfg.TwelveDataAPIKey,
				Cache:      c.Store,
				RateLimit:  limiterCfg(cfg.TwelveDataBudget),
				QuoteTTL:   cfg.QuoteTTL,
				HistoryTTL: cfg.HistoryTTL,
				Log:        log,
			}),
		}
	}

	breakerCfg := application.BreakerConfig{
		FailureThreshold: cfg.BreakerThreshold,
		OpenTimeout:      cfg.BreakerTimeout,
	}
	return application.NewMarketDataService(primary, fallbacks, c.Store, breakerCfg,
		application.WithLogger(log),
		application.WithFallbackTTL(cfg.FallbackTTL),
	)
}

func limiterCfg(b config.ProviderBudget) ratelimit.Config {
	return ratelimit.Config{PerMinute: b.PerMinute, PerDay: b.PerDay}
}

// BuildDB connects to postgres and runs migrations. DATABASE_URL is
// required when STORAGE=pg.
func BuildDB(ctx context.Context, cfg config.Config) (*pg.DB, func(), error) {
	log := logx.L()
	if cfg.DatabaseURL == "" {
		return nil, func() {}, fmt.Errorf("DATABASE_URL is required for STORAGE=pg")
	}
	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, func() {}, err
	}
	if err := pg.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, func() {}, err
	}
	cleanup := func() {
		log.Info("closing pg")
		db.Close()
	}
	return db, cleanup, nil
}

// BuildWorker wires the watchlist refresher over the aggregator and the
// snapshot store.
func BuildWorker(cfg config.Config, market *application.MarketDataService, db *pg.DB) application.Worker {
	return &worker.Refresher{
		Market:    market,
		Snapshots: pg.NewSnapshotRepo(db),
		UoW:       &pg.UnitOfWork{Pool: db.Pool},
		Symbols:   cfg.WatchSymbols,
		PollEvery: cfg.WorkerPoll,
		Log:       logx.L(),
	}
}
