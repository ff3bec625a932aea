package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/honeynil/content-checkout/internal/api"
	"github.com/honeynil/content-checkout/internal/config"
	"github.com/honeynil/content-checkout/internal/handler"
	"github.com/honeynil/content-checkout/internal/infrastructure/auth"
	"github.com/honeynil/content-checkout/internal/infrastructure/kafka"
	"github.com/honeynil/content-checkout/internal/infrastructure/payment"
	"github.com/honeynil/content-checkout/internal/infrastructure/redis"
	"github.com/honeynil/content-checkout/internal/observability"
	core "github.com/honeynil/content-checkout/internal/repository/postgres"
	service "github.com/honeynil/content-checkout/internal/services"
	_ "github.com/lib/pq"
)

func main() {
	// Конфиг: .env + переменные окружения
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализируем логи, метрики, трейсы
	shutdownTracing := observability.Setup(cfg.ServiceName, cfg.LogLevel, cfg.OTLPEndpoint)
	defer shutdownTracing(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключаемся к Postgres
	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Postgres is unreachable: %v", err)
	}
	if cfg.RunMigrations {
		if err := core.Migrate(db); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
	}

	redisClient, err := redis.NewClient(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Инициализируем зависимости
	purchaseRepo := core.NewPostgresPurchaseRepository(db)
	contentRepo := core.NewPostgresContentRepository(db)
	resolver := service.NewContentResolver(contentRepo, redisClient, cfg.ContentCacheTTL)

	producer := kafka.NewProducer(cfg.Kafka.Brokers, kafka.RetryConfig{
		Attempts: cfg.Kafka.Retry.Attempts,
		Delay:    cfg.Kafka.Retry.Delay,
		MaxDelay: cfg.Kafka.Retry.MaxDelay,
	})
	defer producer.Close()

	paymentCfg := payment.Config{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		APIURL:        cfg.Stripe.APIURL,
		Tolerance:     cfg.Stripe.WebhookTolerance,
	}
	gateway := payment.NewStripeGateway(paymentCfg)
	verifier := payment.NewStripeWebhookVerifier(paymentCfg)

	// Инициализируем сервис
	purchases := service.NewPurchaseService(purchaseRepo, resolver, gateway, producer, service.CheckoutConfig{
		Currency:            cfg.Checkout.Currency,
		SuccessURL:          cfg.Checkout.SuccessURL,
		CancelURL:           cfg.Checkout.CancelURL,
		GatewayTimeout:      cfg.Checkout.GatewayTimeout,
		CompensationTimeout: cfg.Checkout.CompensationTimeout,
		PurchaseEventsTopic: cfg.Kafka.PurchaseEventsTopic,
	})
	webhooks := service.NewWebhookRouter(verifier, purchases)

	var background sync.WaitGroup

	// Kafka-консьюмер событий каталога: сбрасывает кэш контента
	contentConsumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.ContentEventsTopic, cfg.Kafka.ContentEventsGroup, resolver)
	defer contentConsumer.Close()
	background.Add(1)
	go func() {
		defer background.Done()
		contentConsumer.Consume(ctx)
	}()

	sweeper := service.NewSweeper(purchases, cfg.Sweeper.PendingMaxAge, cfg.Sweeper.Interval)
	background.Add(1)
	go func() {
		defer background.Done()
		sweeper.Run(ctx)
	}()

	// Настраиваем роутер
	h := handler.NewHandler(purchases, webhooks)
	router := api.SetupRouter(h, auth.NewTokenService(cfg.JWTSecret), redisClient)

	// Запускаем сервер
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("starting server", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	background.Wait()
	slog.Info("server stopped")
}
