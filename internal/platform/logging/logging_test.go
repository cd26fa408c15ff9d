package logging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func newTestRouter(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	Init(Config{Level: "debug", JSONOutput: true, Output: buf})
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, RequestID(c))
	})
	return r
}

func TestRequestLoggerAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRouter(&buf)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, w.Body.String())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, id, entry["request_id"])
	assert.Equal(t, "/ping", entry["path"])
	assert.Equal(t, float64(http.StatusOK), entry["status"])
	assert.Equal(t, "http", entry["component"])
}

func TestRequestLoggerKeepsIncomingID(t *testing.T) {
	var buf bytes.Buffer
	r := newTestRouter(&buf)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestInitLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "bogus", JSONOutput: true, Output: &buf})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	Init(Config{Level: "WARN", JSONOutput: true, Output: &buf})
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestGormWriterLevels(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", JSONOutput: true, Output: &buf})

	gl := gormlogger.New(GormWriter{Log: WithComponent("database")}, gormlogger.Config{
		SlowThreshold: 10 * time.Millisecond,
		LogLevel:      gormlogger.Info,
	})
	ctx := context.Background()
	query := func() (string, int64) { return "SELECT 1", 1 }

	// 普通跟踪在 info 级别下不输出
	gl.Trace(ctx, time.Now(), query, nil)
	gl.Trace(ctx, time.Now().Add(-time.Second), query, nil)
	gl.Trace(ctx, time.Now(), query, errors.New("syntax error"))
	gl.Warn(ctx, "pool exhausted")

	var levels, messages []string
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &entry))
		levels = append(levels, entry["level"].(string))
		messages = append(messages, entry["message"].(string))
	}
	require.Equal(t, []string{"warn", "error", "warn"}, levels)
	assert.Contains(t, messages[0], "SLOW SQL")
	assert.Contains(t, messages[1], "syntax error")
	assert.Contains(t, messages[2], "pool exhausted")
}
