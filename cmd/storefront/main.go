package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/client"
	"github.com/fjod/storefront/internal/healthcheck"
	"github.com/fjod/storefront/internal/logger"
	"github.com/fjod/storefront/internal/reconcile"
	"github.com/fjod/storefront/internal/session"
	"github.com/fjod/storefront/internal/storefront"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Config struct {
	HTTPPort           string
	HealthPort         string
	CatalogURL         string
	InventoryURL       string
	OrdersURL          string
	RedisAddr          string
	CacheTTL           time.Duration
	CacheJitter        time.Duration
	MongoURI           string
	MongoDB            string
	JWTSecret          string
	AllowedOrigins     []string
	SessionTTL         time.Duration
	ClientTimeout      time.Duration
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
	RequestTimeout     time.Duration
	CheckoutTimeout    time.Duration
	ShutdownTimeout    time.Duration
	LogLevel           string
	LogFormat          string
}

func loadConfig() (*Config, error) {
	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		HealthPort:      getEnv("HEALTH_PORT", "9080"),
		CatalogURL:      getEnv("CATALOG_URL", "http://localhost:8081"),
		InventoryURL:    getEnv("INVENTORY_URL", "http://localhost:8082"),
		OrdersURL:       getEnv("ORDERS_URL", "http://localhost:8083"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         getEnv("MONGO_DB", "storefront"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		AllowedOrigins:  strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		RequestTimeout:  10 * time.Second,
		CheckoutTimeout: 30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	var err error
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.CacheJitter, err = getDuration("CACHE_JITTER", time.Minute); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", session.DefaultTTL); err != nil {
		return nil, err
	}
	if cfg.ClientTimeout, err = getDuration("CLIENT_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.BreakerOpenTimeout, err = getDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	maxFailures, err := strconv.ParseUint(getEnv("BREAKER_MAX_FAILURES", "5"), 10, 32)
	if err != nil {
		return nil, errors.New("invalid BREAKER_MAX_FAILURES")
	}
	cfg.BreakerMaxFailures = uint32(maxFailures)

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.New("invalid " + key + ": " + err.Error())
	}
	return d, nil
}

func (c *Config) clientConfig(baseURL string) client.Config {
	return client.Config{
		BaseURL:     baseURL,
		Timeout:     c.ClientTimeout,
		MaxFailures: c.BreakerMaxFailures,
		OpenTimeout: c.BreakerOpenTimeout,
	}
}

func main() {
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(logger.Config{Service: "storefront", Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	startCtx, startCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer startCancel()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(startCtx).Err(); err != nil {
		log.Fatal("failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	defer redisClient.Close()

	var opts []checkout.Option
	var admin storefront.AdminRoutes
	mongoDB, err := reconcile.ConnectMongoDB(startCtx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		// failed decrements are still logged without it
		log.Warn("reconciliation log unavailable", zap.Error(err))
	} else {
		defer func() { _ = mongoDB.Client().Disconnect(context.Background()) }()
		recorder := reconcile.NewMongoRecorder(mongoDB)
		if err := recorder.CreateIndexes(startCtx); err != nil {
			log.Warn("failed to create reconciliation indexes", zap.Error(err))
		}
		opts = append(opts, checkout.WithFailureRecorder(recorder))
		admin = reconcile.NewHandler(recorder, log)
	}

	catalogClient := client.NewCatalogClient(cfg.clientConfig(cfg.CatalogURL), log)
	inventoryClient := client.NewInventoryClient(cfg.clientConfig(cfg.InventoryURL), log)
	ordersClient := client.NewOrdersClient(cfg.clientConfig(cfg.OrdersURL), log)

	snapshots := cache.NewRedisCache(redisClient, cfg.CacheTTL, cfg.CacheJitter)
	catalogSvc := storefront.NewCatalogService(catalogClient, inventoryClient, snapshots, log)
	orchestrator := checkout.NewOrchestrator(ordersClient, inventoryClient, log, opts...)

	sessions := session.NewRegistry(cfg.SessionTTL, session.DefaultCleanupInterval, log)
	defer sessions.Close()

	handler := storefront.NewHandler(catalogSvc, orchestrator, cfg.RequestTimeout, cfg.CheckoutTimeout, log)
	router := storefront.NewRouter(handler, sessions, storefront.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		JWTSecret:      []byte(cfg.JWTSecret),
		Admin:          admin,
	}, log)

	health := healthcheck.New("storefront", log)
	go func() {
		if err := health.ListenAndServe(":" + cfg.HealthPort); err != nil {
			log.Error("health server stopped", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:        ":" + cfg.HTTPPort,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// checkout may outlive the request timeout
		WriteTimeout: cfg.CheckoutTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("storefront starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down storefront")
	health.SetServing(false)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	health.Stop()
	log.Info("storefront stopped")
}
