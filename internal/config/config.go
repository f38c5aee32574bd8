package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ProviderBudget captures one upstream's request allowance.
type ProviderBudget struct {
	PerMinute int
	PerDay    int
}

type Config struct {
	// Common
	Env      string
	LogLevel string
	// API
	Port        string
	Storage     string
	DatabaseURL string
	// Providers
	PrimaryProvider   string
	TwelveDataAPIKey  string
	TwelveDataBaseURL string
	TwelveDataBudget  ProviderBudget
	FinnhubAPIKey     string
	FinnhubBaseURL    string
	FinnhubBudget     ProviderBudget
	YahooBaseURL      string
	YahooBudget       ProviderBudget
	QuoteTTL          time.Duration
	HistoryTTL        time.Duration
	FallbackTTL       time.Duration
	// Circuit breaker
	BreakerThreshold int
	BreakerTimeout   time.Duration
	// Worker
	WatchSymbols []string
	WorkerPoll   time.Duration
	// Cache
	CacheBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads environment variables and applies defaults.
func Load() Config {
	return Config{
		Env:      getEnv("ENV", "local"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Port:        getEnv("PORT", "8080"),
		Storage:     getEnv("STORAGE", "pg"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		PrimaryProvider:   getEnv("PRIMARY_PROVIDER", "twelvedata"),
		TwelveDataAPIKey:  getEnv("TWELVEDATA_API_KEY", ""),
		TwelveDataBaseURL: getEnv("TWELVEDATA_BASE_URL", "https://api.twelvedata.com"),
		TwelveDataBudget: ProviderBudget{
			PerMinute: atoiDef(getEnv("TWELVEDATA_PER_MINUTE", "8"), 8),
			PerDay:    atoiDef(getEnv("TWELVEDATA_PER_DAY", "800"), 800),
		},
		FinnhubAPIKey:  getEnv("FINNHUB_API_KEY", ""),
		FinnhubBaseURL: getEnv("FINNHUB_BASE_URL", "https://finnhub.io/api/v1"),
		FinnhubBudget: ProviderBudget{
			PerMinute: atoiDef(getEnv("FINNHUB_PER_MINUTE", "60"), 60),
			PerDay:    atoiDef(getEnv("FINNHUB_PER_DAY", "86400"), 86400),
		},
		YahooBaseURL: getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
		YahooBudget: ProviderBudget{
			PerMinute: atoiDef(getEnv("YAHOO_PER_MINUTE", "60"), 60),
			PerDay:    atoiDef(getEnv("YAHOO_PER_DAY", "10000"), 10000),
		},
		QuoteTTL:    time.Duration(atoiDef(getEnv("QUOTE_TTL_SECONDS", "60"), 60)) * time.Second,
		HistoryTTL:  time.Duration(atoiDef(getEnv("HISTORY_TTL_SECONDS", "3600"), 3600)) * time.Second,
		FallbackTTL: time.Duration(atoiDef(getEnv("FALLBACK_TTL_SECONDS", "86400"), 86400)) * time.Second,

		BreakerThreshold: atoiDef(getEnv("BREAKER_THRESHOLD", "5"), 5),
		BreakerTimeout:   time.Duration(atoiDef(getEnv("BREAKER_TIMEOUT_SECONDS", "300"), 300)) * time.Second,

		WatchSymbols: splitList(getEnv("WATCH_SYMBOLS", "")),
		WorkerPoll:   time.Duration(atoiDef(getEnv("WORKER_POLL_SECONDS", "60"), 60)) * time.Second,

		CacheBackend:  getEnv("CACHE_BACKEND", "memory"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       atoiDef(getEnv("REDIS_DB", "0"), 0),
	}
}
