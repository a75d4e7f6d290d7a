package api

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const requestIDHeader = "X-Request-Id"

// RequestID tags every request with an id for log correlation. An id supplied
// by the caller is kept.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// Logger emits one structured log line per request.
func Logger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		requestID, _ := c.Get("requestID")
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Any("requestId", requestID).
			Msg("request")
	}
}

// InstanceLimiter throttles webhook processing per GREEN-API instance, so one
// flooding instance cannot starve the others.
type InstanceLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewInstanceLimiter creates an InstanceLimiter allowing r events per second
// with the given burst per instance.
func NewInstanceLimiter(r float64, burst int) *InstanceLimiter {
	return &InstanceLimiter{
		limiters: make(map[int64]*rate.Limiter),
		rate:     rate.Limit(r),
		burst:    burst,
	}
}

// Allow reports whether the instance may process one more webhook now.
func (l *InstanceLimiter) Allow(idInstance int64) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[idInstance]
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[idInstance] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}
