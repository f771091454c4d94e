package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/backoffice-api/internal/config"
	"github.com/smarttransit/backoffice-api/internal/handlers"
	"github.com/smarttransit/backoffice-api/internal/middleware"
	"github.com/smarttransit/backoffice-api/internal/models"
	"github.com/smarttransit/backoffice-api/pkg/jwt"
)

type routerDeps struct {
	db          *sqlx.DB
	jwt         *jwt.Service
	audit       middleware.WebhookAuditor
	auth        *handlers.AuthHandler
	users       *handlers.UserHandler
	clients     *handlers.ClientHandler
	trips       *handlers.TripHandler
	fleet       *handlers.FleetHandler
	reservation *handlers.ReservationHandler
	webhooks    *handlers.WebhookHandler
	finance     *handlers.FinanceHandler
	operations  *handlers.OperationsHandler
	admin       *handlers.AdminHandler
}

var (
	staffRoles   = []models.Role{models.RoleAdmin, models.RoleManager, models.RoleOperator}
	financeRoles = []models.Role{models.RoleAdmin, models.RoleManager, models.RoleFinance}
	managerRoles = []models.Role{models.RoleAdmin, models.RoleManager}
)

func newRouter(cfg *config.Config, logger *logrus.Logger, d routerDeps) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthCheckHandler(d.db))

	api := router.Group("/api")

	// Public
	auth := api.Group("/auth")
	{
		auth.POST("/login", d.auth.Login)
		auth.POST("/refresh", d.auth.Refresh)
		auth.GET("/me", middleware.AuthMiddleware(d.jwt), d.auth.Me)
	}
	api.GET("/public/parcels/:code", d.operations.TrackParcel)

	// Payment gateway callbacks, authenticated by signature rather than JWT
	webhooks := api.Group("/webhooks")
	webhooks.Use(middleware.WebhookAuth(cfg.Webhook, d.audit, logger))
	{
		webhooks.POST("/payment-confirmed", d.webhooks.PaymentConfirmed)
		webhooks.POST("/cancel-reservation", d.webhooks.CancelReservation)
		webhooks.GET("/pending-reservations", d.webhooks.PendingReservations)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(d.jwt))

	users := protected.Group("/users", middleware.RequireRole(models.RoleAdmin))
	{
		users.GET("", d.users.List)
		users.POST("", d.users.Create)
		users.PUT("/:id", d.users.Update)
	}

	client := protected.Group("/client", middleware.RequireRole(models.RoleClient))
	{
		client.GET("/dashboard", d.clients.Dashboard)
		client.POST("/checkout", d.clients.Checkout)
	}

	clients := protected.Group("/clients")
	{
		clients.GET("", middleware.RequireRole(append(staffRoles, models.RoleFinance)...), d.clients.List)
		clients.GET("/:id", middleware.RequireRole(append(staffRoles, models.RoleFinance)...), d.clients.Get)
		clients.POST("/:id/credits", middleware.RequireRole(financeRoles...), d.clients.AddCredits)
	}

	trips := protected.Group("/trips")
	{
		trips.GET("", middleware.RequireRole(staffRoles...), d.trips.List)
		trips.POST("", middleware.RequireRole(managerRoles...), d.trips.Create)
		trips.GET("/:id", middleware.RequireRole(staffRoles...), d.trips.Get)
		trips.PATCH("/:id/status", middleware.RequireRole(staffRoles...), d.trips.UpdateStatus)
		// Clients need the seat map to pick seats at checkout
		trips.GET("/:id/availability", d.trips.Availability)
	}

	fleet := protected.Group("")
	{
		fleet.GET("/routes", middleware.RequireRole(staffRoles...), d.fleet.ListRoutes)
		fleet.POST("/routes", middleware.RequireRole(managerRoles...), d.fleet.CreateRoute)
		fleet.GET("/vehicles", middleware.RequireRole(staffRoles...), d.fleet.ListVehicles)
		fleet.POST("/vehicles", middleware.RequireRole(managerRoles...), d.fleet.CreateVehicle)
		fleet.GET("/vehicles/:id/seats", middleware.RequireRole(staffRoles...), d.fleet.ListSeats)
	}

	reservations := protected.Group("/reservations", middleware.RequireRole(staffRoles...))
	{
		reservations.GET("", d.reservation.List)
		reservations.POST("", d.reservation.Create)
		reservations.GET("/ticket/:code", d.reservation.GetByTicket)
		reservations.GET("/:id", d.reservation.Get)
		reservations.PUT("/:id", d.reservation.Update)
		reservations.GET("/:id/ticket.pdf", d.reservation.TicketPDF)
	}

	maintenance := protected.Group("/maintenance", middleware.RequireRole(managerRoles...))
	{
		maintenance.GET("", d.operations.ListMaintenance)
		maintenance.POST("", d.operations.CreateMaintenance)
		maintenance.PATCH("/:id/status", d.operations.UpdateMaintenanceStatus)
	}

	finance := protected.Group("/finance", middleware.RequireRole(financeRoles...))
	{
		finance.GET("/transactions", d.finance.List)
		finance.POST("/transactions", d.finance.Create)
		finance.PATCH("/transactions/:id/status", d.finance.UpdateStatus)
		finance.GET("/summary", d.finance.Summary)
	}

	parcels := protected.Group("/parcels", middleware.RequireRole(staffRoles...))
	{
		parcels.GET("", d.operations.ListParcels)
		parcels.POST("", d.operations.CreateParcel)
		parcels.PATCH("/:id/status", d.operations.UpdateParcelStatus)
	}

	charters := protected.Group("/charters", middleware.RequireRole(staffRoles...))
	{
		charters.GET("", d.operations.ListCharters)
		charters.POST("", d.operations.CreateCharter)
		charters.PATCH("/:id/status", d.operations.UpdateCharterStatus)
	}

	admin := protected.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	{
		admin.POST("/cron/reconcile-seats", d.admin.ReconcileSeats)
		admin.POST("/cron/mark-overdue", d.admin.MarkOverdue)
		admin.GET("/cron/status", d.admin.JobStatus)
		admin.GET("/audit-logs", d.admin.AuditLogs)
	}

	return router
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
