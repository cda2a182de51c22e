package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"ecomove/internal/handler"
	"ecomove/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	UserHandler      *handler.UserHandler
	StationHandler   *handler.StationHandler
	TransportHandler *handler.TransportHandler
	LoanHandler      *handler.LoanHandler
	PaymentHandler   *handler.PaymentHandler
	ReportHandler    *handler.ReportHandler
	RedisClient      *redis.Client
	NewRelicApp      *newrelic.Application
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
		// User routes.
		users := v1.Group("/users")
		{
			users.POST("", deps.UserHandler.Register)
			users.GET("", deps.UserHandler.ListUsers)
			users.GET("/:id", deps.UserHandler.GetUser)
			users.GET("/:id/loans", deps.UserHandler.GetUserLoans)
		}

		// Station routes.
		stations := v1.Group("/stations")
		{
			stations.POST("", deps.StationHandler.CreateStation)
			stations.GET("", deps.StationHandler.ListStations)
			stations.GET("/nearby", deps.StationHandler.FindNearby)
			stations.GET("/:id", deps.StationHandler.GetStation)
		}

		// Transport routes.
		transports := v1.Group("/transports")
		{
			transports.POST("", deps.TransportHandler.CreateTransport)
			transports.GET("", deps.TransportHandler.ListTransports)
			transports.GET("/:id", deps.TransportHandler.GetTransport)
			transports.POST("/:id/status", deps.TransportHandler.ChangeStatus)
		}

		// Loan routes.
		loans := v1.Group("/loans")
		{
			loans.POST("", deps.LoanHandler.StartLoan)
			loans.GET("", deps.LoanHandler.ListLoans)
			loans.GET("/:id", deps.LoanHandler.GetLoan)
			loans.POST("/:id/complete", deps.LoanHandler.CompleteLoan)
			loans.POST("/:id/cancel", deps.LoanHandler.CancelLoan)
			loans.POST("/:id/extend", deps.LoanHandler.ExtendLoan)
		}

		// Payment routes.
		payments := v1.Group("/payments")
		{
			payments.GET("/:id", deps.PaymentHandler.GetPayment)
		}

		// Report routes.
		reports := v1.Group("/reports")
		{
			reports.GET("/loans", deps.ReportHandler.GetPeriodReport)
		}
	}

	return router
}
