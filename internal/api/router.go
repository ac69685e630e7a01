// Package api wires together all HTTP routes for the license back office.
//
// Route grouping philosophy:
//   - /health and /version are unauthenticated so load balancers and probes
//     can reach them without credentials.
//   - /api/v1/auth/login is unauthenticated but sits behind a much stricter
//     rate-limit bucket than the rest of the API.
//   - Everything else under /api/v1/ requires a Bearer token issued by the
//     login endpoint.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/license-office/license-office/internal/api/backoffice"
	"github.com/license-office/license-office/internal/config"
	"github.com/license-office/license-office/internal/db/repositories"
	"github.com/license-office/license-office/internal/middleware"
)

// BackgroundServices holds resources with background goroutines that must be
// stopped during graceful shutdown. The caller (cmd/server) is responsible
// for calling Shutdown() when the process receives a termination signal.
type BackgroundServices struct {
	rateLimiters []*middleware.RateLimiter
}

// Shutdown stops all background goroutines. It should be called after the
// HTTP server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sqlx.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()
	bg := &BackgroundServices{}

	adminRepo := repositories.NewAdministratorRepository(db)

	authHandlers := backoffice.NewAuthHandlers(cfg, db)
	adminHandlers := backoffice.NewAdministratorHandlers(cfg, db)
	customerHandlers := backoffice.NewCustomerHandlers(cfg, db)
	userHandlers := backoffice.NewUserHandlers(cfg, db)
	serverHandlers := backoffice.NewServerHandlers(cfg, db)
	licenseHandlers := backoffice.NewLicenseHandlers(cfg, db)
	poHandlers := backoffice.NewPurchaseOrderHandlers(cfg, db)
	ledgerHandlers := backoffice.NewLedgerHandlers(cfg, db)
	lookupHandlers := backoffice.NewLookupHandlers(cfg, db)

	// Middleware chain order matters: Recovery outermost, then request id so
	// every later stage can log it, metrics before the handlers they measure.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API version
	router.GET("/version", versionHandler())

	// Login is public but gets its own, stricter rate-limit bucket.
	login := router.Group("/api/v1/auth")
	if cfg.Security.RateLimiting.Enabled {
		loginLimiter := middleware.NewRateLimiter(middleware.AuthRateLimitConfig())
		bg.rateLimiters = append(bg.rateLimiters, loginLimiter)
		login.Use(middleware.RateLimitMiddleware(loginLimiter))
	}
	login.POST("/login", authHandlers.LoginHandler())

	// Everything else requires a Bearer token.
	v1 := router.Group("/api/v1")
	if cfg.Security.RateLimiting.Enabled {
		apiLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())
		bg.rateLimiters = append(bg.rateLimiters, apiLimiter)
		v1.Use(middleware.RateLimitMiddleware(apiLimiter))
	}
	v1.Use(middleware.AuthMiddleware(adminRepo))
	{
		v1.GET("/administrators", adminHandlers.ListAdministratorsHandler())
		v1.GET("/administrators/:id", adminHandlers.GetAdministratorHandler())
		v1.POST("/administrators", adminHandlers.CreateAdministratorHandler())
		v1.PUT("/administrators/:id", adminHandlers.UpdateAdministratorHandler())
		v1.DELETE("/administrators/:id", adminHandlers.DeleteAdministratorHandler())

		v1.GET("/customers", customerHandlers.ListCustomersHandler())
		v1.GET("/customers/:id", customerHandlers.GetCustomerHandler())
		v1.POST("/customers", customerHandlers.CreateCustomerHandler())
		v1.PUT("/customers/:id", customerHandlers.UpdateCustomerHandler())
		v1.DELETE("/customers/:id", customerHandlers.DeleteCustomerHandler())
		v1.GET("/customers/:id/users", customerHandlers.ListCustomerUsersHandler())
		v1.GET("/customers/:id/purchase-orders", customerHandlers.ListCustomerPurchaseOrdersHandler())

		v1.GET("/users", userHandlers.ListUsersHandler())
		v1.GET("/users/:id", userHandlers.GetUserHandler())
		v1.POST("/users", userHandlers.CreateUserHandler())
		v1.PUT("/users/:id", userHandlers.UpdateUserHandler())
		v1.DELETE("/users/:id", userHandlers.DeleteUserHandler())

		v1.GET("/servers", serverHandlers.ListServersHandler())
		v1.GET("/servers/:id", serverHandlers.GetServerHandler())
		v1.POST("/servers", serverHandlers.CreateServerHandler())
		v1.PUT("/servers/:id", serverHandlers.UpdateServerHandler())
		v1.DELETE("/servers/:id", serverHandlers.DeleteServerHandler())

		v1.GET("/licenses", licenseHandlers.ListLicensesHandler())
		v1.GET("/licenses/:id", licenseHandlers.GetLicenseHandler())
		v1.POST("/licenses", licenseHandlers.CreateLicenseHandler())
		v1.PUT("/licenses/:id", licenseHandlers.UpdateLicenseHandler())
		v1.DELETE("/licenses/:id", licenseHandlers.DeleteLicenseHandler())
		v1.POST("/licenses/:id/request-activation", licenseHandlers.RequestActivationHandler())
		v1.POST("/licenses/:id/activate", licenseHandlers.ActivateHandler())
		v1.POST("/licenses/:id/deactivate", licenseHandlers.DeactivateHandler())
		v1.POST("/licenses/:id/retire", licenseHandlers.RetireHandler())
		v1.GET("/licenses/:id/audits", licenseHandlers.ListLicenseAuditsHandler())
		v1.GET("/license-audits", licenseHandlers.ListAuditsHandler())

		v1.GET("/purchase-orders", poHandlers.ListPurchaseOrdersHandler())
		v1.GET("/purchase-orders/:id", poHandlers.GetPurchaseOrderHandler())
		v1.POST("/purchase-orders", poHandlers.CreatePurchaseOrderHandler())
		v1.PUT("/purchase-orders/:id", poHandlers.UpdatePurchaseOrderHandler())
		v1.DELETE("/purchase-orders/:id", poHandlers.DeletePurchaseOrderHandler())
		v1.GET("/purchase-orders/:id/licenses", poHandlers.ListPurchaseOrderLicensesHandler())
		v1.POST("/purchase-orders/:id/licenses", poHandlers.AttachLicenseHandler())

		v1.GET("/license-ledgers", ledgerHandlers.ListLedgersHandler())
		v1.GET("/license-ledgers/:id", ledgerHandlers.GetLedgerHandler())
		v1.POST("/license-ledgers", ledgerHandlers.CreateLedgerHandler())
		v1.PUT("/license-ledgers/:id", ledgerHandlers.UpdateLedgerHandler())
		v1.DELETE("/license-ledgers/:id", ledgerHandlers.DeleteLedgerHandler())

		v1.GET("/license-types", lookupHandlers.ListLicenseTypesHandler())
		v1.GET("/license-statuses", lookupHandlers.ListLicenseStatusesHandler())
		v1.GET("/license-actions", lookupHandlers.ListLicenseActionsHandler())
	}

	return router, bg
}

// @Summary      Health check
// @Description  Returns whether the service and its database are healthy.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status: healthy, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "status: unhealthy"
// @Router       /health [get]
// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured request logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		requestID, _ := c.Get(middleware.RequestIDKey)
		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", latency),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", fmt.Sprintf("%v", requestID)),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
