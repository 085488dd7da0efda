package gateway

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HeaderRequestID carries the per-request correlation ID.
const HeaderRequestID = "X-Request-ID"

const requestIDKey = "request_id"

// RequestID assigns every request an ID, reusing a sane incoming one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// RequestLogger logs each completed request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("target", c.Query("url")),
			zap.Int("status", c.Writer.Status()),
			zap.String("remote_ip", c.ClientIP()),
			zap.Duration("took", time.Since(start)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("request completed", fields...)
			return
		}
		logger.Info("request completed", fields...)
	}
}

// RateLimitConfig defines rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
	// IdleTTL drops a client's limiter after this long without requests.
	IdleTTL time.Duration
}

const defaultLimiterTTL = 10 * time.Minute

// RateLimit creates a per-IP rate limiting middleware. Limiters of idle
// clients expire, so the table stays bounded by recent traffic.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = defaultLimiterTTL
	}
	var (
		mu      sync.Mutex
		clients = cache.New(ttl, 2*ttl)
	)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		var limiter *rate.Limiter
		if v, ok := clients.Get(ip); ok {
			limiter = v.(*rate.Limiter)
		} else {
			limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
		}
		clients.SetDefault(ip, limiter)
		mu.Unlock()

		if !limiter.Allow() {
			c.Header(HeaderFetchError, "1")
			c.String(http.StatusTooManyRequests, "Error: rate limit exceeded")
			c.Abort()
			return
		}

		c.Next()
	}
}

// CORS allows browser-hosted surfaces to call the gateway.
func CORS(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Accept", "Cache-Control", "X-Requested-With", HeaderRequestID},
		ExposeHeaders: []string{HeaderFetchError, HeaderRequestID, "X-Final-URL", "X-Cache"},
		MaxAge:        12 * time.Hour,
	})
}
