package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/sashvara/storefront_api/internal/utils"
)

// WindowCounter counts hits on a key inside a fixed window.
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimiter limits requests per client IP and scope with a fixed window
// kept in Redis, so the limit holds across instances.
type RateLimiter struct {
	counter WindowCounter
	limit   int64
	window  time.Duration
}

// NewRateLimiter creates a RateLimiter allowing limit requests per window.
func NewRateLimiter(counter WindowCounter, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{counter: counter, limit: int64(limit), window: window}
}

// Handle limits requests under scope. Counter failures let the request through.
func (r *RateLimiter) Handle(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if r == nil || r.counter == nil || r.limit <= 0 {
			c.Next()
			return
		}
		key := fmt.Sprintf("ratelimit:%s:%s", scope, c.ClientIP())
		n, err := r.counter.IncrWindow(c.Request.Context(), key, r.window)
		if err != nil {
			log.Warn().Err(err).Str("scope", scope).Msg("rate limiter unavailable")
			c.Next()
			return
		}
		if n > r.limit {
			c.Header("Retry-After", strconv.Itoa(int(r.window.Seconds())))
			utils.Error(c, http.StatusTooManyRequests, utils.CodeRateLimited, "Too many requests, please try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}
