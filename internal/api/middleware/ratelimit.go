package middleware

import (
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/d60-Lab/tailorshop/pkg/response"
)

// RateLimit applies a per-client-IP token bucket. Used on the webhook and
// auth endpoints, which are not behind the JWT gate.
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		mu.Lock()
		lim, ok := limiters[ip]
		if !ok {
			lim = rate.NewLimiter(rps, burst)
			limiters[ip] = lim
		}
		mu.Unlock()
		if !lim.Allow() {
			c.JSON(429, response.Response{Code: 429, Message: "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}
