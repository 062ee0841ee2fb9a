package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"rideid/internal/handler"
	"rideid/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AuthHandler     *handler.AuthHandler
	DriverHandler   *handler.DriverHandler
	IdentityHandler *handler.IdentityHandler
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Phone verification and session routes.
		auth := v1.Group("/auth")
		{
			auth.POST("/challenge", deps.AuthHandler.Challenge)
			auth.POST("/verify", deps.AuthHandler.Verify)
			auth.POST("/resend", deps.AuthHandler.Resend)
			auth.POST("/register", deps.AuthHandler.Register)
			auth.GET("/session", deps.AuthHandler.Session)
			auth.POST("/refresh", deps.AuthHandler.Refresh)
			auth.POST("/logout", deps.AuthHandler.Logout)
		}

		// Driver provisioning routes (staff-facing).
		drivers := v1.Group("/drivers")
		{
			drivers.POST("", deps.DriverHandler.Provision)
			drivers.GET("", deps.DriverHandler.GetAll)
			drivers.GET("/:id", deps.DriverHandler.Get)
		}

		// Identity administration routes.
		identities := v1.Group("/identities")
		{
			identities.GET("/:id", deps.IdentityHandler.Get)
			identities.PATCH("/:id/status", deps.IdentityHandler.SetStatus)
		}
	}

	return router
}
