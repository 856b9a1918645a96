package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/haierkeys/content-revision-service/pkg/code"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestRecoveryWithLogger(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryWithLogger(zap.NewNop()))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := serve(r, http.MethodGet, "/panic")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body struct {
		Code    int    `json:"code"`
		Details string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, code.ErrorServerInternal.Code(), body.Code)
	assert.Equal(t, "boom", body.Details)
}

func TestContextTimeout(t *testing.T) {
	r := gin.New()
	r.Use(ContextTimeout(50 * time.Millisecond))
	var deadline time.Time
	var ok bool
	r.GET("/", func(c *gin.Context) {
		deadline, ok = c.Request.Context().Deadline()
		c.Status(http.StatusNoContent)
	})

	serve(r, http.MethodGet, "/")
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, time.Second)

	r = gin.New()
	r.Use(ContextTimeout(0))
	r.GET("/", func(c *gin.Context) {
		_, ok = c.Request.Context().Deadline()
	})
	serve(r, http.MethodGet, "/")
	assert.False(t, ok)
}

func TestTraceMiddleware_Disabled(t *testing.T) {
	r := gin.New()
	r.Use(TraceMiddleware(TracerConfig{Enabled: false}))
	var id string
	r.GET("/", func(c *gin.Context) { id = GetTraceID(c.Request.Context()) })

	w := serve(r, http.MethodGet, "/")
	assert.Empty(t, id)
	assert.Empty(t, w.Header().Get(DefaultTraceIDHeader))
}

func TestTraceMiddleware_CustomHeader(t *testing.T) {
	r := gin.New()
	r.Use(TraceMiddleware(TracerConfig{Enabled: true, Header: "X-Request-ID"}))
	var fromCtx, fromGin string
	r.GET("/", func(c *gin.Context) {
		fromCtx = GetTraceID(c.Request.Context())
		fromGin = GetTraceIDFromGin(c)
	})

	w := serve(r, http.MethodGet, "/")
	assert.NotEmpty(t, fromCtx)
	assert.Equal(t, fromCtx, fromGin)
	assert.Equal(t, fromCtx, w.Header().Get("X-Request-ID"))
}

func TestAccessLog_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(AccessLog(zap.New(core)))
	r.GET("/api/:kind/content", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, http.MethodGet, "/api/note/content?id=1")
	serve(r, http.MethodGet, "/ok")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "/api/:kind/content", ctx["route"])
	assert.Equal(t, "note", ctx["kind"])
	assert.Equal(t, "/api/note/content?id=1", ctx["url"])
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
}
