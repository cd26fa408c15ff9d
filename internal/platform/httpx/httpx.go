// Package httpx 把业务错误转换为HTTP响应。
package httpx

import (
	"net/http"

	"github.com/SlpAus/daily-lottery-backend/internal/platform/apperr"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/logging"
	"github.com/gin-gonic/gin"
)

// StatusOf 返回错误种类对应的HTTP状态码
func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound, apperr.KindNoBallotsFound:
		return http.StatusNotFound
	case apperr.KindAlreadyExists, apperr.KindAlreadyClosed, apperr.KindDuplicateWinner:
		return http.StatusConflict
	case apperr.KindLotteryClosed, apperr.KindInvalidOperation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error 写出错误响应，500类错误会连同上下文字段一起记录日志
func Error(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := StatusOf(kind)

	if status >= http.StatusInternalServerError {
		log := logging.WithComponent("http")
		log.Error().
			Err(err).
			Str("request_id", logging.RequestID(c)).
			Str("path", c.Request.URL.Path).
			Fields(apperr.FieldsOf(err)).
			Msg("请求处理失败")
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{
		"error": apperr.Message(err),
		"kind":  kind.String(),
	})
}

// ValidationError 写出请求参数校验失败的响应(422)
func ValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
		"error": "请求格式错误: " + err.Error(),
		"kind":  "validation_error",
	})
}
