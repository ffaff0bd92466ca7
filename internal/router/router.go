// Package router wires handlers and middleware into the gin engine.
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/dobashik/cashflow-maker-web/internal/handlers"
	"github.com/dobashik/cashflow-maker-web/internal/middleware"
	"github.com/dobashik/cashflow-maker-web/internal/services"
)

// Config holds the settings the routes depend on.
type Config struct {
	JWTSecret      string
	PipelineAPIKey string
	RequestTimeout time.Duration
}

// Services bundles the services behind the handlers.
type Services struct {
	Import   services.ImportServicer
	Holding  services.HoldingServicer
	Security services.SecurityServicer
	Price    services.PriceServicer
	Audit    services.AuditServicer
}

// New builds the API engine.
func New(cfg Config, svc Services) *gin.Engine {
	importHandler := handlers.NewImportHandler(svc.Import, svc.Price, svc.Audit)
	holdingHandler := handlers.NewHoldingHandler(svc.Holding, svc.Audit)
	securityHandler := handlers.NewSecurityHandler(svc.Security, svc.Audit)
	priceHandler := handlers.NewPriceHandler(svc.Price, svc.Audit)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())
	router.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Owner routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	holdings := protected.Group("/holdings")
	holdings.POST("/import", importHandler.ImportFile)
	holdings.POST("/import/records", importHandler.ImportRecords)
	holdings.POST("/analysis", importHandler.ImportAnalysis)
	holdings.GET("", holdingHandler.ListHoldings)
	holdings.GET("/positions", holdingHandler.GetPositions)
	holdings.DELETE("", holdingHandler.DeleteHoldings)
	holdings.PUT("/:code/dividend", holdingHandler.UpdateDividend)

	protected.POST("/prices/refresh", priceHandler.RefreshPrices)

	securities := protected.Group("/securities")
	securities.GET("", securityHandler.ListSecurities)
	securities.GET("/:code", securityHandler.GetSecurity)
	securities.POST("/sectors/refresh", securityHandler.UpdateSectors)

	// Pipeline routes
	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(cfg.PipelineAPIKey))
	pipeline.POST("/prices/refresh", priceHandler.RefreshMaster)
	pipeline.POST("/securities/refresh-master", securityHandler.RefreshMetadata)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
