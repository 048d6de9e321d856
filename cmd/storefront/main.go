package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shopmesh/storefront/internal/api/handlers"
	"github.com/shopmesh/storefront/internal/api/middleware"
	"github.com/shopmesh/storefront/internal/cache"
	"github.com/shopmesh/storefront/internal/config"
	"github.com/shopmesh/storefront/internal/health"
	"github.com/shopmesh/storefront/internal/metrics"
	repository "github.com/shopmesh/storefront/internal/repositories"
	redisRepo "github.com/shopmesh/storefront/internal/repositories/redis"
	service "github.com/shopmesh/storefront/internal/services"
	"github.com/shopmesh/storefront/internal/telemetry"
	"github.com/shopmesh/storefront/pkg/sendgrid"
	"github.com/shopmesh/storefront/pkg/stripe"
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	// Tracing setup
	var shutdownTracing func(context.Context) error
	if cfg.Telemetry.OTLPEndpoint != "" {
		var err error
		shutdownTracing, err = telemetry.Init(context.Background(), &cfg.Telemetry)
		if err != nil {
			slog.Error("❌ Error initializing tracing", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Database setup
	repos, err := repository.New(cfg)
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
	redisClient, err := redisRepo.NewClient(&cfg.RedisConnect)
	if err != nil {
		slog.Error("❌ Error accessing the redis instance", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rateLimiter := redisRepo.NewRateLimiter(redisClient, &cfg.RateConfig)
	orderCache := cache.NewRedisCache(redisClient, &cfg.CacheConfig)

	jwtKey := []byte(cfg.Security.JWTKey)
	stripeClient := stripe.NewStripeClient(cfg.Stripe.APIKey, cfg.Stripe.WebhookSecret)
	sendGridClient := sendgrid.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)

	dispatcher := service.NewNotificationDispatcher(sendGridClient)
	cartService := service.NewCartService(repos.Cart, repos.Product)
	cartHandler := handlers.NewCartHandler(cartService)
	checkoutService := service.NewCheckoutService(repos.User, repos.Cart, stripeClient,
		cfg.Stripe.Currency, cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, rateLimiter)
	fulfillmentService := service.NewFulfillmentService(service.FulfillmentDeps{
		Carts:        repos.Cart,
		Products:     repos.Product,
		Orders:       repos.Order,
		Payments:     repos.Payment,
		Deliveries:   repos.Delivery,
		Events:       repos.WebhookEvent,
		StripeClient: stripeClient,
		Dispatcher:   dispatcher,
		LeadTime:     cfg.Fulfillment.DeliveryLeadTime,
	})
	webhookHandler := handlers.NewWebhookHandler(fulfillmentService)
	orderService := service.NewOrderService(repos.Order, repos.Product, repos.Payment, stripeClient, orderCache, cfg.CacheConfig.DefaultTTL)
	orderHandler := handlers.NewOrderHandler(orderService)
	deliveryService := service.NewDeliveryService(repos.Delivery)
	deliveryHandler := handlers.NewDeliveryHandler(deliveryService, orderService)
	authMiddleware := middleware.NewAuthMiddleware(jwtKey)

	healthHandler, err := health.NewHealthHandler(cfg, &health.Endpoints{
		DB:           repos.DB,
		RedisClient:  redisClient,
		StripeClient: stripeClient,
	})
	if err != nil {
		slog.Error("❌ Error creating health checks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("storage initialized", slog.String("env", cfg.Env), slog.String("version", "1.0.0"))

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("GET /api/v1/cart", authMiddleware.Authenticate(cartHandler.GetMyCart()))
	routerMux.HandleFunc("GET /api/v1/carts/{id}", authMiddleware.Authenticate(cartHandler.GetCartByID()))
	routerMux.HandleFunc("POST /api/v1/cart/items", authMiddleware.Authenticate(cartHandler.AddItem()))
	routerMux.HandleFunc("PUT /api/v1/cart/items", authMiddleware.Authenticate(cartHandler.UpdateItem()))
	routerMux.HandleFunc("DELETE /api/v1/cart/items/{variantId}", authMiddleware.Authenticate(cartHandler.RemoveItem()))
	routerMux.HandleFunc("DELETE /api/v1/cart", authMiddleware.Authenticate(cartHandler.ClearCart()))
	routerMux.HandleFunc("POST /api/v1/checkout", authMiddleware.Authenticate(checkoutHandler.InitiateCheckout()))
	routerMux.HandleFunc("POST /api/v1/webhooks/stripe", webhookHandler.HandleStripeWebhook())
	routerMux.HandleFunc("GET /api/v1/orders/{id}", authMiddleware.Authenticate(orderHandler.GetOrder()))
	routerMux.HandleFunc("GET /api/v1/orders", authMiddleware.Authenticate(orderHandler.ListOrders()))
	routerMux.HandleFunc("PATCH /api/v1/orders/{id}/status",
		authMiddleware.Authenticate(authMiddleware.RequireAdmin(orderHandler.UpdateStatus())))
	routerMux.HandleFunc("POST /api/v1/orders/{id}/items/{itemId}/refund",
		authMiddleware.Authenticate(authMiddleware.RequireAdmin(orderHandler.RefundItem())))
	routerMux.HandleFunc("GET /api/v1/orders/{id}/delivery", authMiddleware.Authenticate(deliveryHandler.GetDeliveryByOrder()))
	routerMux.HandleFunc("PATCH /api/v1/deliveries/{id}/status",
		authMiddleware.Authenticate(authMiddleware.RequireAdmin(deliveryHandler.UpdateStatus())))
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /health", healthHandler.Handler())

	// Middleware chaining
	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, "storefront")

	// Setup http server
	server := http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("❌ Failed to start server", slog.Any("error", err.Error()))
		}
	}()

	<-done

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Error("⚠️ Tracer shutdown encountered an issue", slog.String("error", err.Error()))
		}
	}
}
