package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/storefront/internal/healthcheck"
	"github.com/fjod/storefront/internal/httpapi"
	"github.com/fjod/storefront/internal/inventory"
	"github.com/fjod/storefront/internal/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// seedStock matches the catalog's seeded products.
var seedStock = map[string]int{
	"1": 15,
	"2": 32,
	"3": 8,
	"4": 22,
	"5": 12,
	"6": 6,
	"7": 18,
	"8": 4,
}

type Config struct {
	HTTPPort        string
	HealthPort      string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8082"),
		HealthPort:      getEnv("HEALTH_PORT", "9082"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()

	log, err := logger.New(logger.Config{Service: "inventory", Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	store := inventory.NewMemoryStore()
	for id, qty := range seedStock {
		if err := store.SetStock(id, qty); err != nil {
			log.Fatal("failed to seed stock", zap.String("product_id", id), zap.Error(err))
		}
	}
	log.Info("inventory seeded", zap.Int("products", len(seedStock)))

	health := healthcheck.New("inventory", log)
	go func() {
		if err := health.ListenAndServe(":" + cfg.HealthPort); err != nil {
			log.Error("health server stopped", zap.Error(err))
		}
	}()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/health", httpapi.Health)
	inventory.NewHandler(store, log).Routes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("inventory service starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down inventory service")
	health.SetServing(false)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	health.Stop()
	log.Info("inventory service stopped")
}
