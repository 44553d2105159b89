package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opaquedelicia/restaurant-platform/docs"
	"github.com/opaquedelicia/restaurant-platform/internal/api/handlers"
	"github.com/opaquedelicia/restaurant-platform/internal/api/middleware"
	"github.com/opaquedelicia/restaurant-platform/internal/cache"
	"github.com/opaquedelicia/restaurant-platform/internal/config"
	"github.com/opaquedelicia/restaurant-platform/internal/health"
	"github.com/opaquedelicia/restaurant-platform/internal/metrics"
	repository "github.com/opaquedelicia/restaurant-platform/internal/repositories"
	service "github.com/opaquedelicia/restaurant-platform/internal/services"
	"github.com/opaquedelicia/restaurant-platform/internal/telemetry"
	"github.com/opaquedelicia/restaurant-platform/pkg/events"
	"github.com/opaquedelicia/restaurant-platform/pkg/sendgrid"
	"github.com/opaquedelicia/restaurant-platform/pkg/stripe"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

//	@title						Opa que delícia Payments API
//	@version					1.0
//	@description				Reservation payments for the restaurant: card, MB WAY and Multibanco.
//	@host						localhost:8080
//	@BasePath					/api
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the JWT.
func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Otel)
	if err != nil {
		slog.Error("❌ Error setting up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Database setup
	repos, paymentRepo, reservationRepo, err := repository.New(ctx, cfg)
	if err != nil {
		slog.Error("❌ Error accessing the database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := repos.Close(); err != nil {
			slog.Error("⚠️ Error closing database connection", slog.String("error", err.Error()))
		} else {
			slog.Info("✅ Database connection closed")
		}
	}()

	// Redis setup
	redisClient, err := repository.NewRedisClient(ctx, &cfg.RedisConnect)
	if err != nil {
		slog.Error("❌ Error accessing the redis instance", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cacheRepo := cache.NewRedisCache(redisClient, &cfg.Cache)
	defer cacheRepo.Close()

	rateLimiter := repository.NewRateLimitRepo(redisClient, &cfg.RateConfig)

	var publisher events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		slog.Info("Publishing payment events", slog.Any("brokers", cfg.Kafka.Brokers), slog.String("topic", cfg.Kafka.Topic))
	} else {
		publisher = events.NewNoopPublisher()
		slog.Warn("No Kafka brokers configured, payment events are dropped")
	}

	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Error("⚠️ Error closing event publisher", slog.String("error", err.Error()))
		}
	}()

	stripeClient := stripe.NewStripeClient(cfg.Stripe.APIKey, cfg.Stripe.WebhookSecret)
	emailService := sendgrid.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	emailNotifier := service.NewEmailNotifier(emailService, cfg.Payments.Locale)

	paymentService := service.NewPaymentService(
		paymentRepo,
		reservationRepo,
		stripeClient,
		cacheRepo,
		cache.NewPaymentInvalidator(cacheRepo),
		publisher,
		emailNotifier,
		service.PaymentConfig{
			Currency:         cfg.Stripe.Currency,
			MultibancoEntity: cfg.Payments.MultibancoEntity,
			MultibancoTTL:    cfg.Countdown.MultibancoTTL,
			MBWayTTL:         cfg.Countdown.MBWayTTL,
			CacheTTL:         cfg.Cache.DefaultTTL,
		},
	)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	reservationService := service.NewReservationService(reservationRepo, cacheRepo)
	reservationHandler := handlers.NewReservationHandler(reservationService)
	authMiddleware := middleware.NewAuthMiddleware([]byte(cfg.Security.JWTKey))

	healthHandler, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("❌ Error creating health checks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	docs.SwaggerInfo.Host = cfg.Addr

	sweeper := &service.ExpirySweeper{
		Payments: paymentService,
		Interval: cfg.Countdown.SweepInterval,
		Logger:   logger,
	}
	go sweeper.Run(ctx)

	slog.Info("storage initialized", slog.String("env", cfg.Env), slog.String("version", health.ComponentVersion))

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("POST /api/payments", paymentHandler.CreatePayment())
	routerMux.HandleFunc("GET /api/payments/status/{reference}", middleware.RateLimit(rateLimiter, paymentHandler.GetPaymentStatus()))
	routerMux.HandleFunc("POST /api/payments/{reference}/cancel", middleware.RateLimit(rateLimiter, paymentHandler.CancelPayment()))
	routerMux.HandleFunc("POST /api/payments/{reference}/confirm", authMiddleware.RequireAdmin(paymentHandler.ConfirmPayment()))
	routerMux.HandleFunc("POST /api/payments/webhook", paymentHandler.HandleStripeWebhook())
	routerMux.HandleFunc("GET /api/reservations", authMiddleware.RequireAdmin(reservationHandler.ListReservations()))
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /health", healthHandler.Handler())
	routerMux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// Middleware chaining
	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, "opa-server")

	// Setup http server
	server := http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("❌ Failed to start server", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("⚠️ Error flushing traces", slog.String("error", err.Error()))
	}
}
