package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/cedromirror/talkcart-web-sub009/internal/cache"
	"github.com/cedromirror/talkcart-web-sub009/internal/domain"
	h "github.com/cedromirror/talkcart-web-sub009/internal/http"
	"github.com/cedromirror/talkcart-web-sub009/internal/ledger"
	"github.com/cedromirror/talkcart-web-sub009/internal/provider"
	"github.com/cedromirror/talkcart-web-sub009/internal/publisher"
	"github.com/cedromirror/talkcart-web-sub009/internal/repository"
	"github.com/cedromirror/talkcart-web-sub009/internal/service"
	"github.com/cedromirror/talkcart-web-sub009/internal/stock"
	"github.com/cedromirror/talkcart-web-sub009/pkg/metrics"
)

type Config struct {
	HTTPPort         string
	MongoURI         string
	MongoDBName      string
	RedisAddr        string
	RedisPassword    string
	KafkaBrokers     []string
	StripeSecretKey  string
	StripeWebhookKey string
	FlutterwaveKey   string
	FlutterwaveHash  string
	RequestTimeout   time.Duration
	ShutdownTimeout  time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:      getEnv("MONGO_DB_NAME", "talkcart"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:     splitCSV(getEnv("KAFKA_BROKERS", "")),
		StripeSecretKey:  getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookKey: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		FlutterwaveKey:   getEnv("FLUTTERWAVE_SECRET_KEY", ""),
		FlutterwaveHash:  getEnv("FLUTTERWAVE_VERIF_HASH", ""),
		RequestTimeout:   30 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	cartRepo := repository.NewMongoCartRepository(mongoDB)
	orderRepo := repository.NewMongoOrderRepository(mongoDB)
	productRepo := repository.NewMongoProductRepository(mongoDB)
	outboxRepo := repository.NewMongoOutboxRepository(mongoDB)
	idempotency := ledger.NewMongoLedger(mongoDB)
	stockStore := stock.NewMongoStore(mongoDB)

	if err := cartRepo.CreateIndexes(ctx); err != nil {
		log.Fatalf("Failed to create cart indexes: %v", err)
	}
	if err := orderRepo.CreateIndexes(ctx); err != nil {
		log.Fatalf("Failed to create order indexes: %v", err)
	}
	if err := idempotency.CreateIndexes(ctx); err != nil {
		log.Fatalf("Failed to create ledger indexes: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")

	adapter := provider.NewAdapter()
	adapter.Register(domain.ProviderStripe, provider.NewStripeClient(cfg.StripeSecretKey))
	adapter.Register(domain.ProviderFlutterwave, provider.NewFlutterwaveClient(cfg.FlutterwaveKey))

	checkoutMetrics := metrics.NewCheckoutMetrics()

	cartSvc := service.NewCartService(cartRepo, productRepo, cache.NewRedisCache(redisClient))
	checkoutSvc := service.NewCheckoutService(cartSvc, adapter, idempotency, stockStore, orderRepo, outboxRepo, checkoutMetrics)
	webhookSvc := service.NewWebhookService(idempotency, cartRepo, checkoutMetrics)

	cartHandler := h.NewCartHandler(cartSvc)
	checkoutHandler := h.NewCheckoutHandler(checkoutSvc)
	orderHandler := h.NewOrderHandler(orderRepo)
	webhookHandler := h.NewWebhookHandler(webhookSvc, cfg.StripeWebhookKey, cfg.FlutterwaveHash)

	pollerCtx, stopPoller := context.WithCancel(ctx)
	defer stopPoller()
	if len(cfg.KafkaBrokers) > 0 {
		poller := publisher.NewOutboxPoller(outboxRepo, cfg.KafkaBrokers...)
		defer poller.Close()
		go poller.Run(pollerCtx)
		log.Printf("Outbox poller publishing to %v", cfg.KafkaBrokers)
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := mongoDB.Client().Ping(r.Context(), nil); err != nil {
			respondStatus(w, http.StatusServiceUnavailable, "db_error")
			return
		}
		respondStatus(w, http.StatusOK, "ok")
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.MockAuthMiddleware)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{item_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{item_id}", cartHandler.RemoveItem)
			r.Post("/checkout", checkoutHandler.Checkout)
		})
		r.Get("/orders/{order_number}", orderHandler.GetOrder)
		r.Post("/webhooks/{provider}", webhookHandler.HandleEvent)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "checkout-api"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Checkout API starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stopPoller()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	if err := mongoDB.Client().Disconnect(shutdownCtx); err != nil {
		log.Printf("mongo disconnect error: %v", err)
	}

	log.Println("server exited")
}

func respondStatus(w http.ResponseWriter, status int, state string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"status":"` + state + `"}`))
}
