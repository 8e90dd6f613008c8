package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/bizflowhq/bizflow-platform/internal/api/router"
	"github.com/bizflowhq/bizflow-platform/internal/bookings"
	appconfig "github.com/bizflowhq/bizflow-platform/internal/config"
	"github.com/bizflowhq/bizflow-platform/internal/conversation"
	"github.com/bizflowhq/bizflow-platform/internal/http/handlers"
	"github.com/bizflowhq/bizflow-platform/internal/messaging"
	"github.com/bizflowhq/bizflow-platform/internal/notify"
	"github.com/bizflowhq/bizflow-platform/internal/observability/metrics"
	"github.com/bizflowhq/bizflow-platform/internal/payments"
	"github.com/bizflowhq/bizflow-platform/internal/tenancy"
	"github.com/bizflowhq/bizflow-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting bizflow API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to reach postgres", "error", err)
		os.Exit(1)
	}

	tenantRepo := tenancy.NewRepository(pool)
	bookingRepo := bookings.NewRepository(pool)
	bookingService := bookings.NewService(bookingRepo, logger)
	paymentRepo := payments.NewRepository(pool)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	conversationMetrics := metrics.NewConversationMetrics(registry)

	// Webhook dedupe: Redis when configured, in-process fallback otherwise.
	var processed messaging.ProcessedTracker
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, using in-memory dedupe", "error", err)
			processed = messaging.NewMemoryDedupe(0)
		} else {
			processed = messaging.NewRedisDedupe(client, 0)
		}
	} else {
		processed = messaging.NewMemoryDedupe(0)
	}

	sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
	var notifier *notify.Service
	if sender != nil {
		notifier = notify.NewService(sender, logger)
	}

	engine := conversation.NewEngine(conversation.EngineConfig{
		Flows:    conversation.DefaultCatalog(),
		Tenants:  tenantRepo,
		Bookings: bookingRepo,
		Metrics:  conversationMetrics,
		Logger:   logger,
	})

	webhookHandler := messaging.NewWebhookHandler(messaging.WebhookConfig{
		Tenants:            tenantRepo,
		Engine:             engine,
		Processed:          processed,
		Notifier:           notifier,
		AuthToken:          cfg.TwilioAuthToken,
		WebhookURL:         cfg.TwilioWebhookURL,
		DefaultCountryCode: cfg.DefaultCountryCode,
		Metrics:            conversationMetrics,
		Logger:             logger,
	})

	var checkout *payments.CheckoutHandler
	var razorpayWebhook *payments.WebhookHandler
	if cfg.RazorpayKeyID != "" {
		razorpay, err := payments.NewRazorpayClient(payments.RazorpayConfig{
			KeyID:     cfg.RazorpayKeyID,
			KeySecret: cfg.RazorpayKeySecret,
		})
		if err != nil {
			logger.Error("failed to create razorpay client", "error", err)
			os.Exit(1)
		}
		checkout = payments.NewCheckoutHandler(paymentRepo, tenantRepo, razorpay, logger)
		razorpayWebhook = payments.NewWebhookHandler(payments.WebhookConfig{
			WebhookSecret: cfg.RazorpayWebhookSecret,
			Payments:      paymentRepo,
			Tenants:       tenantRepo,
			Processed:     processed,
			Notifier:      notifier,
			Logger:        logger,
		})
	} else {
		logger.Warn("razorpay disabled, billing endpoints not registered")
	}

	authHandler := handlers.NewAuthHandler(tenantRepo, cfg.AdminJWTSecret, 0, logger)
	dashboard := handlers.NewAdminDashboardHandler(tenantRepo, bookingRepo, bookingService, logger)

	r := router.New(&router.Config{
		Logger:          logger,
		WhatsAppWebhook: webhookHandler,
		RazorpayWebhook: razorpayWebhook,
		Checkout:        checkout,
		Auth:            authHandler,
		Dashboard:       dashboard,
		MetricsHandler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),

		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		WebhookRateLimit:   cfg.WebhookRateLimit,
		WebhookRateBurst:   cfg.WebhookRateBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
