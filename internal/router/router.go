package router

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/intake-api/internal/handler"
	"github.com/jwalitptl/intake-api/internal/middleware"
	"github.com/jwalitptl/intake-api/pkg/logger"
	"github.com/jwalitptl/intake-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimiter      middleware.RateLimiterConfig
	CORSConfig       middleware.CORSConfig
	MaxBodyBytes     int64
	MetricsEnabled   bool
	MetricsPath      string
}

type Router struct {
	engine   *gin.Engine
	h        *handler.Handler
	patientH Handler
	config   RouterConfig
}

func NewRouter(
	log *logger.Logger,
	m *metrics.Metrics,
	h *handler.Handler,
	patientH Handler,
	config RouterConfig,
) *Router {
	engine := gin.New() // Use New() instead of Default() for more control

	// Add core middlewares
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
	)
	if m != nil {
		engine.Use(middleware.Metrics(m))
	}

	r := &Router{
		engine:   engine,
		h:        h,
		patientH: patientH,
		config:   config,
	}
	r.setup(m)
	return r
}

func (r *Router) setup(m *metrics.Metrics) {
	r.engine.GET("/health", r.h.Health)
	health := r.engine.Group("/health")
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
	}

	if r.config.MetricsEnabled {
		r.engine.GET(r.config.MetricsPath, r.h.MetricsHandler())
	}

	api := r.engine.Group("/api")
	api.Use(middleware.BodyLimit(r.config.MaxBodyBytes))
	if r.config.RateLimitEnabled {
		api.Use(middleware.NewRateLimiter(r.config.RateLimiter, m).RateLimit())
	}
	r.patientH.RegisterRoutes(api)
}

// Engine exposes the gin engine, e.g. as an http.Handler.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
