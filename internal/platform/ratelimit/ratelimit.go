package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/SlpAus/daily-lottery-backend/internal/platform/logging"
	"github.com/SlpAus/daily-lottery-backend/pkg/lifecycle"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	cleanupInterval = time.Minute
	idleTTL         = 10 * time.Minute
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPLimiter 为每个客户端IP维护一个令牌桶
type IPLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	rate    rate.Limit
	burst   int
	now     func() time.Time
}

// NewIPLimiter 创建限流器，requestsPerSecond <= 0 时返回 nil，表示不限流
func NewIPLimiter(requestsPerSecond float64, burst int) *IPLimiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &IPLimiter{
		clients: make(map[string]*client),
		rate:    rate.Limit(requestsPerSecond),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow 判断该IP的本次请求是否放行
func (l *IPLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = l.now()
	return c.limiter.AllowN(c.lastSeen, 1)
}

// Cleanup 移除长时间没有请求的IP，返回移除的数量
func (l *IPLimiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idleTTL)
	removed := 0
	for ip, c := range l.clients {
		if c.lastSeen.Before(cutoff) {
			delete(l.clients, ip)
			removed++
		}
	}
	return removed
}

// Middleware 返回限流中间件，超出限制时返回 429
func (l *IPLimiter) Middleware() gin.HandlerFunc {
	if l == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log := logging.WithComponent("ratelimit")
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !l.Allow(ip) {
			log.Warn().Str("client_ip", ip).Str("path", c.Request.URL.Path).Msg("请求过于频繁")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "请求过于频繁，请稍后再试",
				"kind":  "rate_limited",
			})
			return
		}
		c.Next()
	}
}

// RunCleanup 周期性清理空闲IP，直到生命周期句柄被取消
func (l *IPLimiter) RunCleanup(handle *lifecycle.Handle) {
	defer handle.Close()
	if l == nil {
		<-handle.Done()
		return
	}
	for {
		if err := handle.Sleep(cleanupInterval); err != nil {
			return
		}
		l.Cleanup()
	}
}
