package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/adisatrio/offersession/internal/client"
	"github.com/adisatrio/offersession/internal/handler"
	"github.com/adisatrio/offersession/internal/ratelimit"
	"github.com/adisatrio/offersession/internal/session"
)

type Config struct {
	Port            string
	BookingAPIURL   string
	BookingAPIToken string
	SearchEntryURL  string
	StaleWindow     time.Duration
	WatchdogTick    time.Duration
	PageLimit       int
	RedisEnabled    bool
	RedisHost       string
	RedisPort       string
	RedisTTL        time.Duration
}

func main() {
	cfg := loadConfig()
	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	rateLimiter := ratelimit.NewEndpointLimiterWithDefaults()
	rateLimiter.SetEndpointLimit(ratelimit.EndpointSearch, 20, 30)
	rateLimiter.SetEndpointLimit(ratelimit.EndpointUpsell, 10, 20)
	rateLimiter.SetEndpointLimit(ratelimit.EndpointFare, 5, 10)
	rateLimiter.SetEndpointLimit(ratelimit.EndpointHistory, 5, 10)

	api := client.New(client.Config{
		BaseURL: cfg.BookingAPIURL,
		Token:   cfg.BookingAPIToken,
		Limiter: rateLimiter,
	})

	var store session.ClientStore
	if cfg.RedisEnabled {
		redisStore, err := session.NewRedisStore(session.RedisConfig{
			Host: cfg.RedisHost,
			Port: cfg.RedisPort,
			TTL:  cfg.RedisTTL,
		})
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		store = redisStore
		log.Printf("Redis client store enabled (host: %s:%s, TTL: %v)", cfg.RedisHost, cfg.RedisPort, cfg.RedisTTL)
	} else {
		store = session.NewMemoryStore()
		log.Println("Redis disabled, using in-memory client store")
	}

	sessionCfg := session.Config{
		StaleWindow:      cfg.StaleWindow,
		WatchdogInterval: cfg.WatchdogTick,
		PageLimit:        cfg.PageLimit,
	}
	searchHandler := handler.NewSearchHandler(api, store, sessionCfg, cfg.SearchEntryURL)

	api1 := e.Group("/api/v1")
	searchHandler.Register(api1)
	e.GET("/health", handler.HealthHandler)

	log.Printf("Starting offer session server on port %s (stale window %v)", cfg.Port, cfg.StaleWindow)

	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func loadConfig() Config {
	return Config{
		Port:            getEnv("PORT", "8080"),
		BookingAPIURL:   getEnv("BOOKING_API_URL", "http://localhost:9090"),
		BookingAPIToken: getEnv("BOOKING_API_TOKEN", ""),
		SearchEntryURL:  getEnv("SEARCH_ENTRY_URL", "/flight-search"),
		StaleWindow:     getEnvDuration("STALE_WINDOW", 10*time.Minute),
		WatchdogTick:    getEnvDuration("WATCHDOG_INTERVAL", 10*time.Second),
		PageLimit:       getEnvInt("PAGE_LIMIT", 10),
		RedisEnabled:    getEnvBool("REDIS_ENABLED", true),
		RedisHost:       getEnv("REDIS_HOST", "localhost"),
		RedisPort:       getEnv("REDIS_PORT", "6379"),
		RedisTTL:        getEnvDuration("REDIS_TTL", 24*time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
