package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/georgemunganga/footcare-storefront/internal/backend"
	"github.com/georgemunganga/footcare-storefront/internal/config"
	"github.com/georgemunganga/footcare-storefront/internal/middleware"
	"github.com/georgemunganga/footcare-storefront/internal/modules/analytics"
	"github.com/georgemunganga/footcare-storefront/internal/modules/cart"
	"github.com/georgemunganga/footcare-storefront/internal/modules/catalog"
	"github.com/georgemunganga/footcare-storefront/internal/modules/checkout"
	"github.com/georgemunganga/footcare-storefront/internal/modules/order"
	"github.com/georgemunganga/footcare-storefront/internal/notify"
	"github.com/georgemunganga/footcare-storefront/internal/querycache"
	"github.com/georgemunganga/footcare-storefront/internal/store"
)

const (
	serviceName = "footcare-storefront"
	sessionTTL  = 30 * 24 * time.Hour
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	shutdownTracing, err := middleware.InitTracing(serviceName, cfg.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer shutdownTracing(context.Background())

	// ── Shared infrastructure ───────────────────────────────
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		if rdb, err = querycache.InitRedis(cfg.RedisAddr, cfg.RedisPassword, logger); err != nil {
			logger.Fatal("Failed to initialize Redis", zap.Error(err))
		}
		defer rdb.Close()
	}

	var cache querycache.Cache = querycache.NewMemory()
	if rdb != nil {
		cache = querycache.NewRedis(rdb, logger)
	}

	var db *sql.DB
	var state store.Store
	switch cfg.StoreBackend {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err = store.OpenPostgres(ctx, cfg.DatabaseURL, logger)
		cancel()
		if err != nil {
			logger.Fatal("Failed to initialize database", zap.Error(err))
		}
		defer db.Close()
		state = store.NewPostgres(db)
	case "redis":
		state = store.NewRedis(rdb, sessionTTL)
	default:
		state = store.NewMemory()
	}
	logger.Info("Session state backend ready", zap.String("backend", cfg.StoreBackend))

	sinks := []notify.Sink{notify.NewLogSink(logger)}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := notify.InitProducer(cfg.KafkaBrokers, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Kafka producer", zap.Error(err))
		}
		defer producer.Close()
		sinks = append(sinks, notify.NewKafkaSink(producer, cfg.KafkaTopic, logger))
	}
	bus := notify.NewBus(logger, sinks...)

	client := backend.New(cfg.BackendBaseURL, cfg.BackendTimeout, logger)

	// ── Modules ─────────────────────────────────────────────
	catalogService := catalog.NewService(catalog.NewBackendRepository(client), cache, cfg.QueryCacheTTL, bus, logger)
	orderService := order.NewService(order.NewBackendRepository(client), cache, cfg.QueryCacheTTL, bus, logger)
	checkoutService := checkout.NewService(catalogService, orderService, state,
		checkout.FamilyPack{Enabled: cfg.FamilyPackEnabled, Discount: cfg.FamilyPackDiscount}, bus, logger)
	cartService := cart.NewService(catalogService, state, bus, logger)
	analyticsService := analytics.NewService(orderService, time.Local, logger)

	catalogHandler := catalog.NewHandler(catalogService)
	orderHandler := order.NewHandler(orderService, logger)

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.Recoverer)
	router.Use(middleware.TracingMiddleware(serviceName))
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.MetricsMiddleware)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", middleware.PrometheusHandler())

	router.Group(func(r chi.Router) {
		r.Use(middleware.Session(cfg.SessionCookie))
		catalogHandler.RegisterRoutes(r)
		checkout.NewHandler(checkoutService).RegisterRoutes(r)
		cart.NewHandler(cartService).RegisterRoutes(r)
	})

	router.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin([]byte(cfg.JWTSecret)))
		orderHandler.RegisterAdminRoutes(r)
		catalogHandler.RegisterAdminRoutes(r)
		analytics.NewHandler(analyticsService).RegisterAdminRoutes(r)
		r.Get("/notifications/stream", bus.StreamHandler())
	})

	// ── Start Server ────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()
	logger.Info("Storefront API started",
		zap.String("port", cfg.Port),
		zap.String("backend", cfg.BackendBaseURL),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}
