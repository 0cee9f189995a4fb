package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"campstation/internal/infra/config"
	"campstation/internal/infra/obs"
)

type PricingHTTP interface {
	Quote(c *gin.Context)
	Confirm(c *gin.Context)
}

type Handlers struct {
	Pricing PricingHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Idempotency-Key", obs.RequestIDHeader},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			obs.RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Pricing != nil {
		api.GET("/sites/:siteId/price", h.Pricing.Quote)
		api.POST("/reservations/price-confirmations", h.Pricing.Confirm)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
