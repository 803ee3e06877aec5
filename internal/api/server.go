package api

import (
	"github.com/bartek5186/feedsync/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Options struct {
	APIAccessKey       string // puste = /api bez autoryzacji
	RateLimitPerMinute int    // per tenant, <=0 = bez limitu
}

// NewServer składa router: /health, /metrics i chronione /api.
func NewServer(handler *Handler, log zerolog.Logger, opts Options) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(requestLogger(log))
	r.Use(gin.Recovery())
	r.Use(requestMetrics())

	r.GET("/health", handler.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	if opts.APIAccessKey != "" {
		api.Use(authMiddleware(opts.APIAccessKey))
	} else {
		log.Warn().Msg("API bez klucza (http.api_access_key puste)")
	}
	api.Use(tenantMiddleware())
	if opts.RateLimitPerMinute > 0 {
		api.Use(newTenantLimiter(opts.RateLimitPerMinute).middleware())
	}
	{
		api.POST("/imports", handler.CreateImport)
		api.GET("/imports", handler.ListImports)
	}

	return r
}
