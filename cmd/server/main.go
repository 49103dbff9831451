package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/cart"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/catalog"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/checkout"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/domain"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/httpapi"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/orders"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/payment"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/publisher"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/internal/verification"
	"github.com/innTECH-SYS/umpla-equatorial-shop-sub000/pkg/metrics"
)

type Config struct {
	HTTPPort        string
	OrdersBackend   string // "memory" or "postgres"
	Currency        string
	KafkaBrokers    string
	RedisAddr       string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	DB              orders.Credentials
}

func loadConfig() *Config {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		log.Fatalf("Invalid DB_PORT: %v", err)
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		OrdersBackend:   getEnv("ORDERS_BACKEND", "memory"),
		Currency:        getEnv("CURRENCY", "XAF"),
		KafkaBrokers:    getEnv("KAFKA_BROKERS", ""),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		DB: orders.Credentials{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              dbPort,
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", "postgres"),
			DBName:            getEnv("DB_NAME", "umpla"),
			MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./internal/orders/migrations"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log.Println("shop core starting...")

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}
	cfg := loadConfig()

	var wg sync.WaitGroup

	// Order persistence
	var repo orders.OrderRepository
	var events orders.EventSource
	switch cfg.OrdersBackend {
	case "postgres":
		pg, err := orders.NewPostgresRepository(&cfg.DB)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := pg.RunMigrations(&cfg.DB); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("Database migrations completed")
		repo, events = pg, pg
	case "memory":
		mem := orders.NewMemoryStore()
		repo, events = mem, mem
	default:
		log.Fatalf("Unknown ORDERS_BACKEND %q", cfg.OrdersBackend)
	}
	defer repo.Close()

	// External collaborators (in-memory stand-ins, seeded for local runs)
	productCatalog := catalog.NewMemoryCatalog()
	registry := catalog.NewMemoryRegistry()
	upstreamVerifier := verification.NewMemoryProvider()
	seedDemoData(productCatalog, registry)

	var verifier verification.Provider = upstreamVerifier
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		verifier = verification.NewCachedProvider(upstreamVerifier, client)
		log.Printf("verification cache enabled on %s", cfg.RedisAddr)
	}

	mts := metrics.New(prometheus.DefaultRegisterer)

	sessions := cart.NewSessions()
	defer sessions.Close()

	resolver := payment.NewResolver(registry)
	checkoutService := checkout.NewService(productCatalog, resolver, verifier, repo, cfg.Currency, mts)
	lifecycle := orders.NewManager(repo, mts)

	// Outbox publisher
	pollerCtx, pollerCancel := context.WithCancel(context.Background())
	defer pollerCancel()
	if cfg.KafkaBrokers != "" {
		poller := publisher.NewOutboxPoller(events, strings.Split(cfg.KafkaBrokers, ",")...)
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Run(pollerCtx)
			poller.Close()
		}()
		log.Printf("outbox publisher started for brokers %s", cfg.KafkaBrokers)
	}

	router := httpapi.NewRouter(httpapi.Handlers{
		Cart:     httpapi.NewCartHandler(sessions, productCatalog, cfg.RequestTimeout),
		Payment:  httpapi.NewPaymentHandler(sessions, resolver, verifier, cfg.RequestTimeout),
		Checkout: httpapi.NewCheckoutHandler(sessions, checkoutService, cfg.RequestTimeout),
		Orders:   httpapi.NewOrdersHandler(lifecycle, cfg.RequestTimeout),
		Metrics:  metrics.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "shop-core"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("HTTP server starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	pollerCancel()
	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()
	select {
	case <-doneChan:
	case <-time.After(5 * time.Second):
		log.Println("outbox publisher didn't stop in time")
	}

	log.Println("server exited")
}

// seedDemoData loads a small catalog so a memory-backed instance is usable
// out of the box. Real deployments replace the memory collaborators with
// clients for the catalog and registry services.
func seedDemoData(productCatalog *catalog.MemoryCatalog, registry *catalog.MemoryRegistry) {
	cash := domain.PaymentMethod{ID: "cash", DisplayName: "Cash on delivery", Enabled: true}
	bank := domain.PaymentMethod{ID: "bank", DisplayName: "Bank transfer", FeeNote: "bank fees may apply", Enabled: true}
	wallet := domain.PaymentMethod{ID: "wallet", DisplayName: "Mobile wallet", RequiresVerification: true, Enabled: true}
	card := domain.PaymentMethod{ID: "card", DisplayName: "Card", Enabled: false}

	registry.SetSellerMethods("seller-malabo", []domain.PaymentMethod{cash, bank, wallet})
	registry.SetSellerMethods("seller-bata", []domain.PaymentMethod{cash, wallet, card})

	productCatalog.PutProduct(catalog.Product{
		ID: "item-001", SellerID: "seller-malabo", Name: "Woven basket",
		UnitPriceMinor: 5000, CurrentStock: 25,
	})
	productCatalog.PutProduct(catalog.Product{
		ID: "item-002", SellerID: "seller-malabo", Name: "Cocoa bar",
		UnitPriceMinor: 1500, CurrentStock: 200,
	})
	productCatalog.PutProduct(catalog.Product{
		ID: "item-003", SellerID: "seller-bata", Name: "Printed fabric",
		UnitPriceMinor: 12000, CurrentStock: 8,
	})
}
