package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/intake-api/pkg/httputil"
	"github.com/jwalitptl/intake-api/pkg/metrics"
)

type RateLimiterConfig struct {
	Rate  rate.Limit
	Burst int
	// TTL is how long an idle client's bucket is kept.
	TTL time.Duration
}

// RateLimiter keeps one token bucket per client IP. Idle buckets expire.
type RateLimiter struct {
	config  RateLimiterConfig
	clients *cache.Cache
	metrics *metrics.Metrics
}

func NewRateLimiter(config RateLimiterConfig, m *metrics.Metrics) *RateLimiter {
	if config.TTL <= 0 {
		config.TTL = 10 * time.Minute
	}
	return &RateLimiter{
		config:  config,
		clients: cache.New(config.TTL, config.TTL*2),
		metrics: m,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if v, found := rl.clients.Get(key); found {
		lim := v.(*rate.Limiter)
		rl.clients.SetDefault(key, lim)
		return lim
	}

	lim := rate.NewLimiter(rl.config.Rate, rl.config.Burst)
	if err := rl.clients.Add(key, lim, cache.DefaultExpiration); err != nil {
		// another request created it first
		if v, found := rl.clients.Get(key); found {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiter(c.ClientIP()).Allow() {
			if rl.metrics != nil {
				rl.metrics.RateLimited.Inc()
			}
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, httputil.ErrorResponse{
				Error: httputil.CodeTooMany,
			})
			return
		}
		c.Next()
	}
}
