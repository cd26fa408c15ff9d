package logging

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader 是请求ID的响应头
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey 是请求ID在gin.Context中的键
	RequestIDKey = "request_id"
)

// RequestLogger 为每个请求分配ID，并在请求结束后记录方法、路径、状态码、耗时和响应大小。
// 客户端自带的 X-Request-ID 会被沿用。
func RequestLogger() gin.HandlerFunc {
	log := WithComponent("http")
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("client_ip", c.ClientIP()).
			Int("status", status).
			Int("size", c.Writer.Size()).
			Dur("duration", time.Since(start)).
			Msg("request completed")
	}
}

// RequestID 返回当前请求的ID，不存在时返回空字符串
func RequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
