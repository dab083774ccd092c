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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/chnmndlai/prescripto-full-stack-sub000/internal/api/router"
	"github.com/chnmndlai/prescripto-full-stack-sub000/internal/appointments"
	appconfig "github.com/chnmndlai/prescripto-full-stack-sub000/internal/config"
	"github.com/chnmndlai/prescripto-full-stack-sub000/internal/doctors"
	"github.com/chnmndlai/prescripto-full-stack-sub000/internal/notify"
	"github.com/chnmndlai/prescripto-full-stack-sub000/internal/observability/metrics"
	"github.com/chnmndlai/prescripto-full-stack-sub000/internal/patients"
	"github.com/chnmndlai/prescripto-full-stack-sub000/internal/payments"
	"github.com/chnmndlai/prescripto-full-stack-sub000/pkg/logging"
)

func main() {
	// Load .env in development; ignored when absent.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting prescripto API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Repositories: Postgres when configured, in-memory otherwise.
	var (
		doctorRepo  doctors.Repository
		patientRepo patients.Repository
		apptRepo    appointments.Repository
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		doctorRepo = doctors.NewPostgresRepository(pool)
		patientRepo = patients.NewPostgresRepository(pool)
		apptRepo = appointments.NewPostgresRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
		doctorRepo = doctors.NewInMemoryRepository()
		patientRepo = patients.NewInMemoryRepository()
		apptRepo = appointments.NewInMemoryRepository()
	}

	// Redis: slot cache + webhook dedupe.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, continuing without cache", "error", err)
			redisClient = nil
		}
	}

	registry := prometheus.NewRegistry()
	bookingMetrics := metrics.NewBookingMetrics(registry)

	var emailSender notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		emailSender = sg
	} else {
		emailSender = notify.NewStubEmailSender(logger)
	}

	apptService := appointments.NewService(doctorRepo, patientRepo, apptRepo, logger).
		WithNotifier(notify.NewService(emailSender, logger)).
		WithMetrics(bookingMetrics)
	if redisClient != nil {
		apptService.WithSlotCache(appointments.NewSlotCache(redisClient, cfg.SlotCacheTTL))
	}

	var processed payments.ProcessedTracker
	if redisClient != nil {
		processed = payments.NewRedisProcessedTracker(redisClient, 0)
	}

	var stripeCheckout, razorpayCheckout payments.CheckoutService
	if cfg.StripeSecretKey != "" {
		stripeCheckout = payments.NewStripeCheckoutService(cfg.StripeSecretKey, cfg.StripeSuccessURL, cfg.StripeCancelURL, logger)
	}
	if cfg.RazorpayKeyID != "" {
		razorpayCheckout = payments.NewRazorpayCheckoutService(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, logger)
	}

	// Handlers
	doctorsHandler := doctors.NewHandler(doctorRepo, logger)
	apptHandler := appointments.NewHandler(apptService, logger)
	checkoutHandler := payments.NewCheckoutHandler(stripeCheckout, razorpayCheckout, apptService, cfg.Currency, logger)
	stripeWebhook := payments.NewStripeWebhookHandler(cfg.StripeWebhookSecret, apptService, processed, bookingMetrics, logger)
	razorpayWebhook := payments.NewRazorpayWebhookHandler(cfg.RazorpayWebhookSecret, apptService, processed, bookingMetrics, logger)

	// Setup router
	r := router.New(&router.Config{
		Logger:              logger,
		DoctorsHandler:      doctorsHandler,
		AppointmentsHandler: apptHandler,
		CheckoutHandler:     checkoutHandler,
		StripeWebhook:       stripeWebhook,
		RazorpayWebhook:     razorpayWebhook,
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AuthJWTSecret:       cfg.AuthJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerSec:     cfg.RateLimitPerSecond,
		RateLimitBurst:      cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
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
