package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/config"
	"github.com/smarttransit/backoffice-api/internal/database"
	"github.com/smarttransit/backoffice-api/internal/handlers"
	"github.com/smarttransit/backoffice-api/internal/services"
	"github.com/smarttransit/backoffice-api/pkg/cache"
	"github.com/smarttransit/backoffice-api/pkg/events"
	"github.com/smarttransit/backoffice-api/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting SmartTransit back-office API")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	availabilityCache := connectCache(startCtx, cfg.Redis, logger)
	publisher := connectPublisher(startCtx, cfg.RabbitMQ, logger)
	cancelStart()
	defer publisher.Close()

	// Repositories
	userRepository := database.NewUserRepository(db)
	auditRepository := database.NewAuditRepository(db)
	tripRepository := database.NewTripRepository(db)
	reservationRepository := database.NewReservationRepository(db)
	fleetRepository := database.NewFleetRepository(db)
	ledger := database.NewTransactionRepository(db)

	// Services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	auditService := services.NewAuditService(auditRepository, logger)
	rateLimitService := services.NewRateLimitService(auditRepository, services.DefaultRateLimitConfig())
	availabilityService := services.NewAvailabilityService(tripRepository, availabilityCache, cfg.Redis.AvailabilityTTL, logger)

	authService := services.NewAuthService(userRepository, jwtService, rateLimitService, auditService, logger)
	userService := services.NewUserService(userRepository, auditService, cfg.Security.BcryptCost, logger)
	clientService := services.NewClientService(db, auditService, logger)
	checkoutService := services.NewCheckoutService(db, availabilityService, publisher, logger)
	reservationService := services.NewReservationService(db, availabilityService, publisher, logger)
	webhookService := services.NewWebhookService(db, availabilityService, publisher, logger)
	tripService := services.NewTripService(tripRepository, fleetRepository, availabilityService, logger)
	fleetService := services.NewFleetService(db, logger)
	ticketService := services.NewTicketService(reservationRepository, tripRepository, fleetRepository, logger)
	financeService := services.NewFinanceService(ledger, logger)
	maintenanceService := services.NewMaintenanceService(db, logger)
	parcelService := services.NewParcelService(db, logger)
	charterService := services.NewCharterService(db, logger)

	cronService := services.NewCronService(db, tripRepository, ledger, auditService, availabilityService, logger)
	if cfg.Cron.Enabled {
		if err := cronService.Start(); err != nil {
			logger.Fatalf("Failed to start cron service: %v", err)
		}
	} else {
		logger.Info("Cron jobs disabled")
	}

	router := newRouter(cfg, logger, routerDeps{
		db:          db,
		jwt:         jwtService,
		audit:       auditService,
		auth:        handlers.NewAuthHandler(authService, logger),
		users:       handlers.NewUserHandler(userService, logger),
		clients:     handlers.NewClientHandler(clientService, checkoutService, logger),
		trips:       handlers.NewTripHandler(tripService, logger),
		fleet:       handlers.NewFleetHandler(fleetService, logger),
		reservation: handlers.NewReservationHandler(reservationService, ticketService, logger),
		webhooks:    handlers.NewWebhookHandler(webhookService, logger),
		finance:     handlers.NewFinanceHandler(financeService, logger),
		operations:  handlers.NewOperationsHandler(maintenanceService, parcelService, charterService, logger),
		admin:       handlers.NewAdminHandler(cronService, auditService, logger),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	logger.Info("Stopping cron service...")
	cronService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// connectCache returns the Redis availability cache. Without REDIS_URL the instance keeps an
// in-process cache; a configured but unreachable Redis disables caching, since instances
// sharing a database would otherwise serve each other's stale views.
func connectCache(ctx context.Context, cfg config.RedisConfig, logger *logrus.Logger) cache.Cache {
	if cfg.URL == "" {
		logger.Info("REDIS_URL not set, using in-process availability cache")
		return cache.NewMemory()
	}
	c, err := cache.NewRedis(ctx, cfg.URL)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, availability cache disabled")
		return cache.Noop{}
	}
	logger.Info("Redis cache connected")
	return c
}

// connectPublisher returns the AMQP publisher, or a no-op publisher when RabbitMQ is unconfigured
func connectPublisher(ctx context.Context, cfg config.RabbitMQConfig, logger *logrus.Logger) events.Publisher {
	if cfg.URL == "" {
		logger.Info("RABBITMQ_URL not set, domain events disabled")
		return events.Noop{}
	}
	p, err := events.NewAMQP(ctx, cfg.URL, cfg.Exchange)
	if err != nil {
		logger.WithError(err).Warn("RabbitMQ unavailable, domain events disabled")
		return events.Noop{}
	}
	logger.WithField("exchange", cfg.Exchange).Info("RabbitMQ publisher connected")
	return p
}
