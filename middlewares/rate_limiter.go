package middlewares

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter counts requests per client IP and rejects anything above limit
// until the window resets.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]int
	limit    int
	window   time.Duration
}

// NewRateLimiter starts the reset loop; it stops when ctx is done.
func NewRateLimiter(ctx context.Context, limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]int),
		limit:    limit,
		window:   window,
	}
	go rl.resetLoop(ctx)
	return rl
}

func (rl *RateLimiter) resetLoop(ctx context.Context) {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.reset()
		}
	}
}

func (rl *RateLimiter) reset() {
	rl.mu.Lock()
	rl.visitors = make(map[string]int)
	rl.mu.Unlock()
}

// allow records one request from ip.
func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.visitors[ip]++
	return rl.visitors[ip] <= rl.limit
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.Header("Retry-After", retryAfter(rl.window))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, try again later"})
			return
		}
		c.Next()
	}
}

func retryAfter(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
