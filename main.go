package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ms-storefront/internal/admin"
	"ms-storefront/internal/admin/admin_api"
	"ms-storefront/internal/auth"
	"ms-storefront/internal/auth/auth_api"
	"ms-storefront/internal/catalog"
	"ms-storefront/internal/catalog/catalog_api"
	"ms-storefront/internal/checkout"
	"ms-storefront/internal/checkout/checkout_api"
	holdlocks "ms-storefront/internal/checkout/redis"
	"ms-storefront/internal/config"
	"ms-storefront/internal/email"
	"ms-storefront/internal/kafka"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/metrics"
	"ms-storefront/internal/middleware"
	"ms-storefront/internal/models"
	"ms-storefront/internal/newsletter"
	"ms-storefront/internal/pages"
	"ms-storefront/internal/sse"
	"ms-storefront/internal/storage"
	"ms-storefront/internal/ticketclient"
	"ms-storefront/internal/tickets/qr"
	"ms-storefront/internal/tickets/ticket_api"
	"ms-storefront/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func connectPostgres(cfg config.DatabaseConfig, log *logger.Logger) *bun.DB {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.DSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		sqldb.Close()
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func setupKafka(ctx context.Context, cfg config.KafkaConfig, db *storage.DB, hub *sse.SeatEventHub, log *logger.Logger) (kafka.Publisher, func()) {
	if !cfg.Enabled {
		log.Warn("KAFKA", "Kafka disabled, domain events will only be logged")
		return kafka.NopPublisher{Logger: log}, func() {}
	}

	requiredTopics := []string{
		cfg.Topics.SeatStatus,
		cfg.Topics.OrdersCancelled,
		cfg.Topics.AdminActions,
	}
	if err := kafka.EnsureTopicsExist(cfg.Brokers, requiredTopics, log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		log.Info("KAFKA", "Required topics ensured successfully")
	}

	producer := kafka.NewProducer(cfg.Brokers, log)
	log.Info("KAFKA", "Kafka producer initialized successfully")

	consumer := kafka.NewConsumer(cfg.Brokers, cfg.Topics.TicketSeatStatus, cfg.GroupID, log)
	go func() {
		err := consumer.Run(ctx, func(ctx context.Context, event models.SeatStatusChangeEvent) error {
			n, err := db.ApplySeatStatus(ctx, event)
			if err != nil {
				return err
			}
			log.LogDatabase("UPDATE", "seats", fmt.Sprintf("%d seats of %s -> %s", n, event.PresentationID, event.Status))
			hub.Emit(event)
			return nil
		})
		if err != nil {
			log.Error("KAFKA", fmt.Sprintf("Seat status consumer exited: %v", err))
		}
	}()

	return producer, func() {
		if err := consumer.Close(); err != nil {
			log.Error("KAFKA", fmt.Sprintf("Failed to close consumer: %v", err))
		}
		if err := producer.Close(); err != nil {
			log.Error("KAFKA", fmt.Sprintf("Failed to close producer: %v", err))
		}
	}
}

func newTicketClient(cfg config.TicketServiceConfig, rdb *redis.Client, log *logger.Logger) *ticketclient.Client {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.TokenURL == "" {
		log.Warn("AUTH", "No M2M token URL configured, ticket service calls are unauthenticated")
		return ticketclient.New(cfg.URL, httpClient, nil)
	}

	tokens := auth.NewM2MTokenSource(models.M2MConfig{
		TokenURL:     cfg.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	}, httpClient, auth.NewRedisTokenCache(rdb), log)
	return ticketclient.New(cfg.URL, httpClient, tokens)
}

func healthHandler(db *bun.DB, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{"postgres": "ok", "redis": "ok"}
		status := http.StatusOK
		if err := db.PingContext(ctx); err != nil {
			checks["postgres"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if status != http.StatusOK {
			utils.WriteJSON(w, status, utils.APIResponse{Success: false, Message: "unhealthy", Data: checks, Timestamp: time.Now()})
			return
		}
		utils.WriteJSON(w, status, utils.SuccessResponse("healthy", checks))
	}
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Storefront Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}
	cfg := config.Load()
	if cfg.Auth.ProjectID == "" {
		log.Fatal("CONFIG", "FIREBASE_PROJECT_ID not set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bunDB := connectPostgres(cfg.Database, log)
	defer bunDB.Close()
	db := storage.New(bunDB)

	rdb, err := holdlocks.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
	}
	defer rdb.Close()

	metrics.Init()

	seatHub := sse.NewSeatEventHub()
	kafkaPublisher, closeKafka := setupKafka(ctx, cfg.Kafka, db, seatHub, log)
	defer closeKafka()
	publisher := &sse.BroadcastPublisher{Next: kafkaPublisher, Hub: seatHub}

	verifier := auth.NewOIDCVerifier(ctx, cfg.Auth)
	sessions := auth.NewSessions(verifier, db, cfg.Auth.CookieNames, log)
	seatLocks := holdlocks.NewSeatLocks(rdb, cfg.Checkout.HoldTTL)
	tickets := newTicketClient(cfg.TicketService, rdb, log)

	adminService := admin.NewService(db, tickets, seatLocks, publisher, admin.Topics{
		SeatStatus:      cfg.Kafka.Topics.SeatStatus,
		OrdersCancelled: cfg.Kafka.Topics.OrdersCancelled,
		AdminActions:    cfg.Kafka.Topics.AdminActions,
	}, log)
	checkoutService := checkout.NewService(db, seatLocks, publisher, cfg.Kafka.Topics.SeatStatus, cfg.Checkout.HoldTTL, log)
	catalogService := catalog.NewService(db, log)
	newsletterService := newsletter.NewService(db, email.NewSender(cfg.Email, log), log)

	qrGenerator, err := qr.NewQRGenerator(cfg.Security.QRSecret)
	if err != nil {
		log.Warn("CONFIG", fmt.Sprintf("Order QR codes disabled: %v", err))
	}

	authHandler := auth_api.NewHandler(sessions, db, auth_api.CookieSettings{
		Names:  cfg.Auth.CookieNames,
		MaxAge: cfg.Auth.SessionCookieMaxAge,
		Secure: cfg.Security.SecureCookies,
	}, log)
	adminHandler := admin_api.NewHandler(adminService, sessions, log)
	checkoutHandler := checkout_api.NewHandler(checkoutService, log)
	catalogHandler := catalog_api.NewHandler(catalogService, log)
	ticketHandler := ticket_api.NewHandler(tickets, qrGenerator, log)
	pageHandler := pages.NewHandler(db, cfg.Checkout.HoldTTL, log)
	newsletterHandler := newsletter.NewHandler(newsletterService, log)
	streamHandler := sse.NewHandler(seatHub, log)

	trustedProxies, err := utils.ParseCIDRs(cfg.Security.TrustedProxyCIDRs)
	if err != nil {
		log.Fatal("CONFIG", fmt.Sprintf("Invalid TRUSTED_PROXY_CIDRS: %v", err))
	}
	subscribeLimiter := middleware.NewIPRateLimiter(cfg.Security.SubscribeRPS, cfg.Security.SubscribeBurst)
	subscribeLimiter.TrustedProxies = trustedProxies
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				subscribeLimiter.Cleanup()
			}
		}
	}()

	log.Info("REDIS", "Starting seat hold expiry subscription")
	checkout.SubscribeHoldExpiry(ctx, rdb, checkoutService, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(metrics.HTTPMiddleware)
	r.Use(middleware.RequestLogger(log))
	r.Use(auth.RouteGuard(cfg.Auth.CookieNames, cfg.Auth.LoginPath))

	// --- Public Routes ---
	r.Get("/healthz", healthHandler(bunDB, rdb))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Get("/verify", authHandler.Verify)
			r.Post("/verify", authHandler.Verify)
			r.Post("/session", authHandler.SessionLogin)
			r.Post("/logout", authHandler.Logout)
		})
		log.Info("ROUTER", "Auth routes registered under /api/auth")

		catalogHandler.Routes(r)
		r.Get("/events/{eventId}/presentations/{presentationId}/seats/stream", streamHandler.StreamSeats)
		log.Info("ROUTER", "Catalog routes registered under /api")

		// Admin credentials are checked by the handler so cookie and bearer callers share the route.
		r.Post("/admin/orders/cancel", adminHandler.CancelOrder)

		// --- Protected Routes ---
		r.Group(func(r chi.Router) {
			r.Use(sessions.RequireSession)
			r.Post("/checkout/holds", checkoutHandler.PlaceHold)
			r.Delete("/checkout/holds/{holdId}", checkoutHandler.ReleaseHold)
			r.Get("/orders/{orderId}/qr", ticketHandler.OrderQR)
		})
		log.Info("ROUTER", "Checkout and order routes registered under /api")
	})

	r.Group(func(r chi.Router) {
		r.Use(sessions.RequireSession)
		r.Get("/account", pageHandler.Account)
		r.Get("/admin", pageHandler.Admin)
		r.Get("/checkout/{eventId}/{presentationId}", pageHandler.Checkout)
	})
	log.Info("ROUTER", "Page data routes registered")

	r.Route("/actions", func(r chi.Router) {
		r.Use(middleware.CSRF(cfg.Security.CSRFAuthKey, cfg.Security.SecureCookies))
		r.Get("/csrf", middleware.CSRFToken)
		r.With(subscribeLimiter.Middleware).Post("/newsletter/subscribe", newsletterHandler.Subscribe)
		r.Post("/events/{eventId}/delete", adminHandler.DeleteEvent)
		r.Post("/events/{eventId}/presentations/{presentationId}/delete", adminHandler.DeletePresentation)
		r.Post("/events/{eventId}/presentations/{presentationId}/reset-seats", adminHandler.ResetSeats)
		r.Post("/venues/{venueId}/delete", adminHandler.DeleteVenue)
	})
	if len(cfg.Security.CSRFAuthKey) == 0 {
		log.Warn("SECURITY", "CSRF_AUTH_KEY not set, server actions are not CSRF protected")
	}
	log.Info("ROUTER", "Server action routes registered under /actions")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Storefront Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Storefront Service shutdown complete")
	}
}
